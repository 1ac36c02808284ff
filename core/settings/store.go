package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/certward/certward/core/logger"
)

// Store persists settings as a JSON document.
//
// Load is deliberately forgiving: a missing or corrupt file falls back to
// Default without surfacing an error, because every classification and
// issuance operation loads settings first and must not be blocked by a
// damaged config file. Save validates and writes atomically.
type Store struct {
	path string
	log  *slog.Logger
}

// NewStore creates a settings store at the given file path.
func NewStore(path string, opts ...StoreOption) *Store {
	s := &Store{path: path, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger overrides the store's logger.
func WithLogger(log *slog.Logger) StoreOption {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// Load reads the persisted settings. Absent or corrupt files yield Default;
// corruption is logged, never raised.
func (s *Store) Load() Settings {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("settings file unreadable, using defaults", "path", s.path, logger.Error(err))
		}
		return Default()
	}

	var loaded Settings
	if err := json.Unmarshal(data, &loaded); err != nil {
		s.log.Warn("settings file corrupt, using defaults", "path", s.path, logger.Error(err))
		return Default()
	}

	// Partial or hand-edited documents get sane values rather than zeroes.
	if loaded.Thresholds.Validate() != nil {
		loaded.Thresholds = Default().Thresholds
	}
	if loaded.DefaultCA == "" {
		loaded.DefaultCA = Default().DefaultCA
	}
	return loaded
}

// Save validates and persists the settings with a write-to-temp-then-rename
// so no reader ever observes a partially written file.
func (s *Store) Save(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Path returns the settings file location.
func (s *Store) Path() string {
	return s.path
}
