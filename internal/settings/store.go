package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Backend loads and saves a settings object.
type Backend interface {
	Load() (Settings, error)
	Save(Settings) error
}

// FileStore keeps settings in a JSON file.
type FileStore struct {
	path string
}

// NewFileStore returns a store for path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath returns $XDG_CONFIG_HOME/<app>/settings.json.
func DefaultPath(app string) (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, app, "settings.json"), nil
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the file. A missing file yields Defaults and no error.
func (s *FileStore) Load() (Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Defaults(), nil
		}
		return Defaults(), fmt.Errorf("%s: %w", s.path, err)
	}
	st, err := Decode(data)
	if err != nil {
		return st, fmt.Errorf("%s: %w", s.path, err)
	}
	return st, nil
}

// Save writes through a temp file and renames it into place.
func (s *FileStore) Save(st Settings) (err error) {
	data, err := Encode(st)
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".settings-*")
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = fmt.Errorf("remove temp file: %w", rmErr)
		}
	}()
	if _, err := f.Write(append(data, '\n')); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), s.path)
}

// LoadOrDefault loads settings and falls back to Defaults on any failure.
func LoadOrDefault(b Backend, logger *slog.Logger) Settings {
	if logger == nil {
		logger = slog.Default()
	}
	st, err := b.Load()
	if err != nil {
		logger.Warn("failed to load settings, using defaults", slog.String("error", err.Error()))
		return Defaults()
	}
	return st
}
