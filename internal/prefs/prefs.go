// Package prefs persists the console's durable local state: the selected
// language code and the expert-mode flag. Writes are atomic (temp file +
// rename); a missing or corrupt file degrades to defaults.
package prefs

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

const prefsFileName = "prefs.json"

// Prefs are the persisted key/value entries read back at init.
type Prefs struct {
	Language   string `json:"language"`
	ExpertMode bool   `json:"expert_mode"`
}

// Store reads and writes the prefs file.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a store inside the given config directory.
func NewStore(configDir string) *Store {
	return &Store{path: filepath.Join(configDir, prefsFileName)}
}

// Path returns the file path used by this store.
func (s *Store) Path() string { return s.path }

// Load reads the prefs, returning zero values when the file is missing or
// unreadable.
func (s *Store) Load() Prefs {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("prefs: unreadable prefs file, using defaults", "path", s.path, "err", err)
		}
		return Prefs{}
	}
	var p Prefs
	if err := json.Unmarshal(data, &p); err != nil {
		slog.Warn("prefs: corrupt prefs file, using defaults", "path", s.path, "err", err)
		return Prefs{}
	}
	return p
}

// Save writes the prefs atomically.
func (s *Store) Save(p Prefs) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
