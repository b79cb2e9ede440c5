// Package resources reads read-only data files shipped in the resources
// folder.
package resources

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/user-none/consolehost/logger"
)

// Dir resolves resource names relative to a resources folder.
type Dir struct {
	root string
}

// New returns a Dir rooted at root.
func New(root string) *Dir {
	return &Dir{root: root}
}

// Path joins name onto the resources folder.
func (d *Dir) Path(name string) string {
	return filepath.Join(d.root, filepath.FromSlash(name))
}

// ReadFile returns the contents of a resource file.
func (d *Dir) ReadFile(name string) ([]byte, error) {
	data, err := os.ReadFile(d.Path(name))
	if err != nil {
		logger.WithFunc("resources.ReadFile").Error().Err(err).Str("name", name).Msg("failed to read resource file")
		return nil, fmt.Errorf("read resource %s: %w", name, err)
	}
	return data, nil
}

// ReadFileToString returns the contents of a resource file as text.
func (d *Dir) ReadFileToString(name string) (string, error) {
	data, err := os.ReadFile(d.Path(name))
	if err != nil {
		logger.WithFunc("resources.ReadFileToString").Error().Err(err).Str("name", name).Msg("failed to read resource file to string")
		return "", fmt.Errorf("read resource %s: %w", name, err)
	}
	return string(data), nil
}

// Timestamp returns the modification time of a resource file.
func (d *Dir) Timestamp(name string) (time.Time, error) {
	fi, err := os.Stat(d.Path(name))
	if err != nil {
		return time.Time{}, fmt.Errorf("stat resource %s: %w", name, err)
	}
	return fi.ModTime(), nil
}
