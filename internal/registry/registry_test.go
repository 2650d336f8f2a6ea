package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkerrors "github.com/Aman-CERP/pluginkit/internal/errors"
)

func registryPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), ".pluginkit", "plugins.json")
}

func seed(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// confirmStub records questions and returns a fixed answer.
type confirmStub struct {
	answer    bool
	err       error
	questions []string
}

func (c *confirmStub) confirm(_ context.Context, q string) (bool, error) {
	c.questions = append(c.questions, q)
	return c.answer, c.err
}

func TestLoad_MissingFile_CreatesDirectoryAndEmptyRegistry(t *testing.T) {
	// Given: no registry directory
	path := registryPath(t)

	// When: loading
	f, err := New(path).Load()

	// Then: an empty registry is written and returned
	require.NoError(t, err)
	assert.Empty(t, f.Plugins)
	assert.Equal(t, "{\n  \"plugins\": []\n}", readFile(t, path))
}

func TestLoad_CorruptFile_ReturnsFatalError(t *testing.T) {
	path := registryPath(t)
	seed(t, path, "{broken")

	_, err := New(path).Load()

	require.Error(t, err)
	assert.Equal(t, pkerrors.ErrCodeRegistryCorrupt, pkerrors.GetCode(err))
	assert.True(t, pkerrors.IsFatal(err))
}

func TestUpsert_NewPlugin_IsAppended(t *testing.T) {
	// Given: an empty registry
	path := registryPath(t)
	seed(t, path, `{"plugins":[]}`)

	// When: registering a plugin
	outcome, err := New(path).Upsert(context.Background(), Entry{Name: "plugin-test", Dir: "test-dir"})

	// Then: it is appended with port 0 and written indented by two spaces
	require.NoError(t, err)
	assert.Equal(t, Added, outcome)
	want := "{\n  \"plugins\": [\n    {\n      \"name\": \"plugin-test\",\n      \"dir\": \"test-dir\",\n      \"port\": 0\n    }\n  ]\n}"
	assert.Equal(t, want, readFile(t, path))
}

func TestUpsert_SameDir_DoesNotWrite(t *testing.T) {
	// Given: the plugin is already registered at the same dir
	path := registryPath(t)
	original := `{"plugins":[{"name":"plugin-test","dir":"test-dir","port":0}]}`
	seed(t, path, original)
	stub := &confirmStub{answer: true}

	// When: upserting the same entry
	outcome, err := New(path, WithConfirm(stub.confirm)).Upsert(context.Background(), Entry{Name: "plugin-test", Dir: "test-dir"})

	// Then: nothing is asked and the file keeps its bytes
	require.NoError(t, err)
	assert.Equal(t, Unchanged, outcome)
	assert.Empty(t, stub.questions)
	assert.Equal(t, original, readFile(t, path))
}

func TestUpsert_DifferentDir(t *testing.T) {
	tests := []struct {
		name     string
		answer   bool
		outcome  Outcome
		wantDir  string
		rewrites bool
	}{
		{"confirmed", true, Updated, "test-dir", true},
		{"declined", false, Declined, "test-dirr", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: the plugin is registered at another dir
			path := registryPath(t)
			original := `{"plugins":[{"name":"plugin-test","dir":"test-dirr","port":0}]}`
			seed(t, path, original)
			stub := &confirmStub{answer: tt.answer}
			reg := New(path, WithConfirm(stub.confirm))

			// When: upserting with the new dir
			outcome, err := reg.Upsert(context.Background(), Entry{Name: "plugin-test", Dir: "test-dir"})

			// Then: the user is asked once and the answer decides the write
			require.NoError(t, err)
			assert.Equal(t, tt.outcome, outcome)
			require.Len(t, stub.questions, 1)
			assert.Contains(t, stub.questions[0], "plugin-test")
			assert.Contains(t, stub.questions[0], "test-dirr")

			entry, found, err := reg.Find("plugin-test")
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, tt.wantDir, entry.Dir)

			if !tt.rewrites {
				assert.Equal(t, original, readFile(t, path))
			}
		})
	}
}

func TestUpsert_NoConfirm_Declines(t *testing.T) {
	path := registryPath(t)
	seed(t, path, `{"plugins":[{"name":"p","dir":"old","port":0}]}`)

	outcome, err := New(path).Upsert(context.Background(), Entry{Name: "p", Dir: "new"})

	require.NoError(t, err)
	assert.Equal(t, Declined, outcome)
}

func TestUpsert_ConfirmError_IsReturned(t *testing.T) {
	path := registryPath(t)
	seed(t, path, `{"plugins":[{"name":"p","dir":"old","port":0}]}`)
	boom := errors.New("prompt cancelled")
	stub := &confirmStub{err: boom}

	_, err := New(path, WithConfirm(stub.confirm)).Upsert(context.Background(), Entry{Name: "p", Dir: "new"})

	assert.ErrorIs(t, err, boom)
}

func TestUpsert_EmptyName_IsRejected(t *testing.T) {
	_, err := New(registryPath(t)).Upsert(context.Background(), Entry{Dir: "x"})

	require.Error(t, err)
	assert.Equal(t, pkerrors.ErrCodeInvalidInput, pkerrors.GetCode(err))
}

func TestUpsert_ConcurrentWriters_KeepEveryEntry(t *testing.T) {
	// Given: several registries sharing one file
	path := registryPath(t)
	names := []string{"a", "b", "c", "d", "e", "f"}

	// When: each registers a different plugin at the same time
	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			_, err := New(path).Upsert(context.Background(), Entry{Name: name, Dir: "/dev/" + name})
			assert.NoError(t, err)
		}(name)
	}
	wg.Wait()

	// Then: no write was lost
	entries, err := New(path).List()
	require.NoError(t, err)
	assert.Len(t, entries, len(names))

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "added", Added.String())
	assert.Equal(t, "unchanged", Unchanged.String())
	assert.Equal(t, "updated", Updated.String())
	assert.Equal(t, "declined", Declined.String())
	assert.Equal(t, "Outcome(9)", Outcome(9).String())
}
