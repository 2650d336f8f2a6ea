package release

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkerrors "github.com/Aman-CERP/pluginkit/internal/errors"
	"github.com/Aman-CERP/pluginkit/internal/output"
	"github.com/Aman-CERP/pluginkit/internal/platform"
)

type fakeAPI struct {
	versions   map[string]*platform.PluginVersion
	archiveErr error
	releaseErr error

	archived []string
	cfgReq   *platform.CreateConfigurationRequest
	released string
}

func (f *fakeAPI) PluginVersion(_ context.Context, plugin, version string) (*platform.PluginVersion, error) {
	pv, ok := f.versions[plugin+"@"+version]
	if !ok {
		return nil, pkerrors.New(pkerrors.ErrCodeNotFound, "not found", nil)
	}
	return pv, nil
}

func (f *fakeAPI) ArchivePluginVersion(_ context.Context, plugin, version string) (*platform.PluginVersion, error) {
	if f.archiveErr != nil {
		return nil, f.archiveErr
	}
	f.archived = append(f.archived, plugin+"@"+version)
	return &platform.PluginVersion{Archived: true}, nil
}

func (f *fakeAPI) CreateConfiguration(_ context.Context, req platform.CreateConfigurationRequest) (*platform.Configuration, error) {
	f.cfgReq = &req
	return &platform.Configuration{Sid: "FJ1", Name: req.Name}, nil
}

func (f *fakeAPI) CreateRelease(_ context.Context, configurationSid string) (*platform.Release, error) {
	if f.releaseErr != nil {
		return nil, f.releaseErr
	}
	f.released = configurationSid
	return &platform.Release{Sid: "FK1", ConfigurationSid: configurationSid}, nil
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{versions: map[string]*platform.PluginVersion{
		"plugin-one@1.0.0":        {Sid: "FV1", Version: "1.0.0"},
		"@scope/plugin-two@2.1.0": {Sid: "FV2", Version: "2.1.0"},
		"plugin-old@0.1.0":        {Sid: "FV3", Version: "0.1.0", Archived: true},
	}}
}

func newReleaser(api API) (*Releaser, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(api, WithOutput(output.New(&buf))), &buf
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		in      string
		want    Ref
		wantErr bool
	}{
		{"plugin-one@1.0.0", Ref{"plugin-one", "1.0.0"}, false},
		{"@scope/plugin@2.0.0", Ref{"@scope/plugin", "2.0.0"}, false},
		{" plugin@1.0.0 ", Ref{"plugin", "1.0.0"}, false},
		{"plugin-one", Ref{}, true},
		{"plugin-one@", Ref{}, true},
		{"@1.0.0", Ref{}, true},
		{"", Ref{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRef(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, pkerrors.ErrCodeInvalidInput, pkerrors.GetCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Name+"@"+tt.want.Version, got.String())
		})
	}
}

func TestRelease_CreatesConfigurationAndRelease(t *testing.T) {
	// Given: two deployed plugin versions
	api := newFakeAPI()
	r, out := newReleaser(api)

	// When: releasing them together
	res, err := r.Release(context.Background(), Request{
		Name:        "Autumn",
		Description: "Releasing plugin-one",
		Plugins:     []string{"plugin-one@1.0.0", "@scope/plugin-two@2.1.0"},
	})

	// Then: the configuration references both version sids and is released
	require.NoError(t, err)
	require.NotNil(t, api.cfgReq)
	assert.Equal(t, "Autumn", api.cfgReq.Name)
	assert.Equal(t, "Releasing plugin-one", api.cfgReq.Description)
	assert.Equal(t, []platform.ConfigurationPlugin{{PluginVersion: "FV1"}, {PluginVersion: "FV2"}}, api.cfgReq.Plugins)
	assert.Equal(t, "FJ1", api.released)
	assert.Equal(t, "FK1", res.ReleaseSid)
	assert.Contains(t, out.String(), "is now live as release FK1")
}

func TestRelease_ValidationHappensBeforeRequests(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"no name", Request{Plugins: []string{"plugin-one@1.0.0"}}},
		{"no plugins", Request{Name: "Autumn"}},
		{"bad reference", Request{Name: "Autumn", Plugins: []string{"plugin-one@1.0.0", "oops"}}},
		{"duplicate plugin", Request{Name: "Autumn", Plugins: []string{"plugin-one@1.0.0", "plugin-one@2.0.0"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			r, _ := newReleaser(api)

			_, err := r.Release(context.Background(), tt.req)

			require.Error(t, err)
			assert.Equal(t, pkerrors.ErrCodeInvalidInput, pkerrors.GetCode(err))
			assert.Nil(t, api.cfgReq)
		})
	}
}

func TestRelease_UnknownVersion(t *testing.T) {
	api := newFakeAPI()
	r, _ := newReleaser(api)

	_, err := r.Release(context.Background(), Request{Name: "Autumn", Plugins: []string{"plugin-one@9.9.9"}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "plugin-one@9.9.9 was not found")
	assert.Nil(t, api.cfgReq)
}

func TestRelease_ReleaseFailure(t *testing.T) {
	api := newFakeAPI()
	api.releaseErr = errors.New("boom")
	r, out := newReleaser(api)

	_, err := r.Release(context.Background(), Request{Name: "Autumn", Plugins: []string{"plugin-one@1.0.0"}})

	require.Error(t, err)
	assert.NotContains(t, out.String(), "is now live")
}

func TestArchive(t *testing.T) {
	t.Run("archives a live version", func(t *testing.T) {
		api := newFakeAPI()
		r, out := newReleaser(api)

		err := r.Archive(context.Background(), "plugin-one@1.0.0")

		require.NoError(t, err)
		assert.Equal(t, []string{"plugin-one@1.0.0"}, api.archived)
		assert.Contains(t, out.String(), "plugin-one@1.0.0 was successfully archived.")
	})

	t.Run("already archived", func(t *testing.T) {
		api := newFakeAPI()
		r, out := newReleaser(api)

		err := r.Archive(context.Background(), "plugin-old@0.1.0")

		require.NoError(t, err)
		assert.Empty(t, api.archived)
		assert.Contains(t, out.String(), "Cannot archive plugin-old@0.1.0 because it is already archived.")
	})

	t.Run("platform failure", func(t *testing.T) {
		api := newFakeAPI()
		api.archiveErr = errors.New("boom")
		r, out := newReleaser(api)

		err := r.Archive(context.Background(), "plugin-one@1.0.0")

		require.Error(t, err)
		assert.Contains(t, out.String(), "Could not archive plugin-one@1.0.0")
	})

	t.Run("bad reference", func(t *testing.T) {
		r, _ := newReleaser(newFakeAPI())

		err := r.Archive(context.Background(), "plugin-one")

		require.Error(t, err)
	})
}
