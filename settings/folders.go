package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const (
	settingsDir  = "inis"
	resourcesDir = "resources"
	biosDir      = "bios"
	cacheDir     = "cache"
	coversDir    = "covers"
	snapshotsDir = "snaps"
)

// Folders holds the absolute paths of every directory the host uses.
type Folders struct {
	Base      string
	Settings  string
	Resources string
	Bios      string
	Cache     string
	Covers    string
	Snapshots string
}

// NewFolders lays out the standard directories beneath base.
func NewFolders(base string) Folders {
	return Folders{
		Base:      base,
		Settings:  filepath.Join(base, settingsDir),
		Resources: filepath.Join(base, resourcesDir),
		Bios:      filepath.Join(base, biosDir),
		Cache:     filepath.Join(base, cacheDir),
		Covers:    filepath.Join(base, coversDir),
		Snapshots: filepath.Join(base, snapshotsDir),
	}
}

func (f Folders) all() []string {
	return []string{f.Base, f.Settings, f.Resources, f.Bios, f.Cache, f.Covers, f.Snapshots}
}

// InitializeCriticalFolders creates the directory tree under base.
func InitializeCriticalFolders(base string) (Folders, error) {
	f := NewFolders(base)
	for _, dir := range f.all() {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return Folders{}, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return f, nil
}

// DefaultBaseDir returns the per-user data directory for appName:
//   - macOS: ~/Library/Application Support/<appName>
//   - Linux: $XDG_DATA_HOME/<appName> or ~/.local/share/<appName>
//   - Windows: %APPDATA%/<appName>
func DefaultBaseDir(appName string) (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, "Library", "Application Support", appName), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		return filepath.Join(appData, appName), nil
	}

	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", appName), nil
}
