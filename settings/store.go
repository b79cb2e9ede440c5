package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/user-none/consolehost/logger"
)

const settingsFile = "settings.json"

// ErrVersionMismatch is returned by Load when the file was written by an
// incompatible version.
var ErrVersionMismatch = errors.New("settings version mismatch")

// Store owns the in-memory settings and their file.
type Store struct {
	path string
	lk   *fileLock

	mu  sync.RWMutex
	cur *Settings
}

// NewStore creates a store backed by settings.json in the settings
// folder. Nothing is read until Load or Initialize.
func NewStore(folders Folders) *Store {
	path := filepath.Join(folders.Settings, settingsFile)
	return &Store{
		path: path,
		lk:   newFileLock(path + ".lock"),
		cur:  Default(),
	}
}

// Path returns the settings file location.
func (s *Store) Path() string {
	return s.path
}

// Lock acquires the settings lock. The returned function releases it.
// Save and ResetToDefaults take the lock themselves.
func (s *Store) Lock(ctx context.Context) (func(), error) {
	if err := s.lk.lock(ctx); err != nil {
		return nil, err
	}
	return func() {
		if err := s.lk.unlock(); err != nil {
			logger.WithFunc("settings.Store.Lock").Error().Err(err).Msg("failed to release settings lock")
		}
	}, nil
}

// Initialize loads the settings file. If it is missing, unreadable or
// from another version, every section is reset to defaults and the file
// is rewritten. A failed save is logged, not returned.
func (s *Store) Initialize(ctx context.Context) error {
	log := logger.WithFunc("settings.Store.Initialize")
	log.Info().Str("path", s.path).Msg("loading settings")

	err := s.Load()
	if err == nil && s.CheckVersion() {
		return nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("settings unusable, applying defaults")
	}

	s.SetDefaults(SectionAll)
	if err := s.Save(ctx); err != nil {
		if ctx.Err() != nil {
			return err
		}
		log.Error().Err(err).Msg("failed to save settings")
	}
	return nil
}

// Load reads the settings file. Out-of-range values are corrected. On
// error the in-memory settings are left unchanged.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}

	// Start from defaults so keys missing from the file keep sane values.
	loaded := Default()
	if err := json.Unmarshal(data, loaded); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	if loaded.Version != Version {
		return fmt.Errorf("%w: file has %d, want %d", ErrVersionMismatch, loaded.Version, Version)
	}
	if Correct(loaded) {
		logger.WithFunc("settings.Store.Load").Warn().Msg("corrected out of range settings")
	}

	s.mu.Lock()
	s.cur = loaded
	s.mu.Unlock()
	return nil
}

// CheckVersion reports whether the in-memory settings carry the current
// version.
func (s *Store) CheckVersion() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.Version == Version
}

// SetDefaults resets the selected sections in memory.
func (s *Store) SetDefaults(sections Sections) {
	s.mu.Lock()
	SetDefaultSections(s.cur, sections)
	s.mu.Unlock()
}

// ResetToDefaults resets the selected sections and commits the result.
func (s *Store) ResetToDefaults(ctx context.Context, sections Sections) error {
	logger.WithFunc("settings.Store.ResetToDefaults").Info().Stringer("sections", sections).Msg("resetting settings")
	s.SetDefaults(sections)
	return s.Save(ctx)
}

// Save writes the current settings under the settings lock.
func (s *Store) Save(ctx context.Context) error {
	unlock, err := s.Lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	s.mu.RLock()
	snapshot := s.cur.clone()
	s.mu.RUnlock()

	return AtomicWriteJSON(s.path, snapshot)
}

// Get returns a copy of the current settings.
func (s *Store) Get() *Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.clone()
}

// Update applies fn to the in-memory settings. Call Save to persist.
func (s *Store) Update(fn func(*Settings)) {
	s.mu.Lock()
	fn(s.cur)
	Correct(s.cur)
	s.mu.Unlock()
}

// AtomicWriteJSON writes data to a temporary file and renames it over
// path so readers never observe a partial file.
func AtomicWriteJSON(path string, data any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// ReadJSON reads and unmarshals a JSON file
func ReadJSON(path string, data any) error {
	jsonData, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(jsonData, data); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}
