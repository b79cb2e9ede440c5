package standalone

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/user-none/consolehost/logger"
)

// ScreenshotManager saves window captures as PNG files.
type ScreenshotManager struct {
	dir string
	now func() time.Time
}

// NewScreenshotManager creates a manager writing beneath dir.
func NewScreenshotManager(dir string) *ScreenshotManager {
	return &ScreenshotManager{dir: dir, now: time.Now}
}

// TakeScreenshot writes img to <dir>/<serial>/<unix time>.png, or to dir
// itself when no game is running. It returns the file written.
func (m *ScreenshotManager) TakeScreenshot(img image.Image, serial string) (string, error) {
	dir := m.dir
	if serial != "" {
		dir = filepath.Join(dir, serial)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create screenshot directory: %w", err)
	}

	path := filepath.Join(dir, strconv.FormatInt(m.now().Unix(), 10)+".png")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create screenshot file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return "", fmt.Errorf("failed to encode screenshot: %w", err)
	}

	logger.WithFunc("standalone.ScreenshotManager.TakeScreenshot").Info().Str("path", path).Msg("screenshot saved")
	return path, nil
}
