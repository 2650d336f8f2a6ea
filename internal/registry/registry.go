// Package registry manages the local plugins.json file that maps plugin
// names to the directories they are developed in.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	pkerrors "github.com/Aman-CERP/pluginkit/internal/errors"
)

// Entry is one registered plugin. Names are unique within a File.
type Entry struct {
	Name string `json:"name"`
	Dir  string `json:"dir"`
	Port int    `json:"port"`
}

// File is the on-disk layout of plugins.json.
type File struct {
	Plugins []Entry `json:"plugins"`
}

// Find returns the index of the entry called name, or -1.
func (f *File) Find(name string) int {
	for i, p := range f.Plugins {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// Outcome describes what Upsert did.
type Outcome int

const (
	// Added means the plugin was new and has been appended.
	Added Outcome = iota
	// Unchanged means the plugin was already registered at the same dir.
	Unchanged
	// Updated means the user confirmed moving the plugin to a new dir.
	Updated
	// Declined means the user kept the old dir. The file was not touched.
	Declined
)

func (o Outcome) String() string {
	switch o {
	case Added:
		return "added"
	case Unchanged:
		return "unchanged"
	case Updated:
		return "updated"
	case Declined:
		return "declined"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// ConfirmFunc asks the user a yes/no question.
type ConfirmFunc func(ctx context.Context, question string) (bool, error)

// Option configures a Registry.
type Option func(*Registry)

// WithConfirm sets the function used before a plugin's dir is changed.
// Without one, every change is declined.
func WithConfirm(fn ConfirmFunc) Option {
	return func(r *Registry) {
		r.confirm = fn
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// Registry reads and writes a plugins.json file.
type Registry struct {
	path    string
	lock    *fileLock
	confirm ConfirmFunc
	logger  *slog.Logger
}

// New returns a Registry backed by path.
func New(path string, opts ...Option) *Registry {
	r := &Registry{
		path:   path,
		lock:   newFileLock(path),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Path returns the plugins.json path.
func (r *Registry) Path() string {
	return r.path
}

// Load returns the registry contents, creating an empty file on first use.
func (r *Registry) Load() (*File, error) {
	if err := r.ensure(); err != nil {
		return nil, err
	}
	return r.read()
}

// List returns every registered plugin in file order.
func (r *Registry) List() ([]Entry, error) {
	f, err := r.Load()
	if err != nil {
		return nil, err
	}
	return f.Plugins, nil
}

// Find returns the entry called name.
func (r *Registry) Find(name string) (Entry, bool, error) {
	f, err := r.Load()
	if err != nil {
		return Entry{}, false, err
	}
	if i := f.Find(name); i >= 0 {
		return f.Plugins[i], true, nil
	}
	return Entry{}, false, nil
}

// Upsert registers entry. An existing entry with a different dir is only
// replaced after confirmation; a decline leaves the file untouched.
func (r *Registry) Upsert(ctx context.Context, entry Entry) (Outcome, error) {
	if entry.Name == "" {
		return Declined, pkerrors.ValidationError("plugin name is required", nil)
	}

	if err := r.lock.Lock(ctx); err != nil {
		return Declined, pkerrors.IOError("failed to lock plugin registry", err).
			WithDetail("path", r.path)
	}
	defer func() { _ = r.lock.Unlock() }()

	f, err := r.Load()
	if err != nil {
		return Declined, err
	}

	i := f.Find(entry.Name)
	if i < 0 {
		f.Plugins = append(f.Plugins, entry)
		if err := r.write(f); err != nil {
			return Declined, err
		}
		r.logger.Debug("plugin registered", "name", entry.Name, "dir", entry.Dir)
		return Added, nil
	}

	existing := f.Plugins[i]
	if existing.Dir == entry.Dir {
		return Unchanged, nil
	}

	if r.confirm == nil {
		r.logger.Debug("registry change declined, no prompt", "name", entry.Name)
		return Declined, nil
	}

	question := fmt.Sprintf("You already have a plugin called %s located at %s. Do you want to update it to %s?",
		entry.Name, existing.Dir, entry.Dir)
	ok, err := r.confirm(ctx, question)
	if err != nil {
		return Declined, err
	}
	if !ok {
		return Declined, nil
	}

	f.Plugins[i].Dir = entry.Dir
	if err := r.write(f); err != nil {
		return Declined, err
	}
	r.logger.Debug("plugin dir updated", "name", entry.Name, "from", existing.Dir, "to", entry.Dir)
	return Updated, nil
}

func (r *Registry) ensure() error {
	if _, err := os.Stat(r.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return pkerrors.IOError("failed to stat plugin registry", err).WithDetail("path", r.path)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return pkerrors.IOError("failed to create plugin registry directory", err).
			WithDetail("path", filepath.Dir(r.path))
	}
	return r.write(&File{Plugins: []Entry{}})
}

func (r *Registry) read() (*File, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, pkerrors.IOError("failed to read plugin registry", err).WithDetail("path", r.path)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, pkerrors.New(pkerrors.ErrCodeRegistryCorrupt, "plugin registry is not valid JSON", err).
			WithDetail("path", r.path).
			WithSuggestion("Fix or delete the file; it is recreated on the next run")
	}
	if f.Plugins == nil {
		f.Plugins = []Entry{}
	}
	return &f, nil
}

// write replaces the file atomically via a temp file in the same directory.
func (r *Registry) write(f *File) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return pkerrors.InternalError("failed to encode plugin registry", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return pkerrors.IOError("failed to write plugin registry", err).WithDetail("path", r.path)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return pkerrors.IOError("failed to write plugin registry", err).WithDetail("path", r.path)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return pkerrors.IOError("failed to write plugin registry", err).WithDetail("path", r.path)
	}

	if err := os.Rename(tmpPath, r.path); err != nil {
		_ = os.Remove(tmpPath)
		return pkerrors.IOError("failed to replace plugin registry", err).WithDetail("path", r.path)
	}
	return nil
}
