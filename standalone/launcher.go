package standalone

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/user-none/consolehost/logger"
)

// ExecLauncher opens URIs with the operating system's URL handler.
type ExecLauncher struct {
	goos  string
	start func(name string, args ...string) error
}

// NewExecLauncher creates a launcher for the running OS.
func NewExecLauncher() *ExecLauncher {
	return &ExecLauncher{goos: runtime.GOOS, start: startDetached}
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}

// Launch implements host.Launcher.
func (l *ExecLauncher) Launch(uri string) error {
	name, args := openCommand(l.goos, uri)
	logger.WithFunc("standalone.ExecLauncher.Launch").Info().Str("uri", uri).Str("command", name).Msg("launching")
	if err := l.start(name, args...); err != nil {
		return fmt.Errorf("launch %s: %w", uri, err)
	}
	return nil
}

func openCommand(goos, uri string) (string, []string) {
	switch goos {
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", uri}
	case "darwin":
		return "open", []string{uri}
	default:
		return "xdg-open", []string{uri}
	}
}
