package standalone

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vmcore "github.com/user-none/consolehost/api"
	"github.com/user-none/consolehost/host"
	"github.com/user-none/consolehost/nullvm"
)

type shellFixture struct {
	be       *fakeBackend
	vm       *nullvm.VM
	platform *Platform
	host     *host.Host
	driver   *host.Driver
	notify   *Notification
	errs     chan string
}

func newShellFixture(t *testing.T, cfg PlatformConfig) *shellFixture {
	t.Helper()
	f := &shellFixture{
		be:   newFakeBackend(),
		vm:     nullvm.New(),
		notify: NewNotification(),
		errs:   make(chan string, 4),
	}
	f.platform = newPlatform(f.be, cfg)
	f.platform.showError = func(title, message string) { f.errs <- title + ": " + message }
	f.platform.askYesNo = func(title, message string) bool {
		t.Errorf("unexpected confirmation %q", message)
		return false
	}

	input := newTestInput(f.be, [maxPlayers]string{"DualShock2", PortNone})
	h, err := host.New(host.Config{
		VM:        f.vm,
		Input:     input,
		Platform:  f.platform,
		Callbacks: f.platform,
		Hooks:     NotifyHooks{Notify: f.notify},
	})
	require.NoError(t, err)
	f.platform.Attach(h)
	f.vm.SetHooks(h.Hooks())
	f.host = h
	f.driver = host.NewDriver(h, host.WithDeviceReloadDelay(time.Hour))
	return f
}

// boot starts a running session, publishes it and returns the image path.
func (f *shellFixture) boot(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("disc"), 0644))
	require.NoError(t, f.host.RequestBoot(host.LaunchRequest{Path: path}))
	f.host.Queue().DrainAll()
	require.True(t, f.host.SessionActive())
	return path
}

func TestWindowInfo(t *testing.T) {
	f := newShellFixture(t, PlatformConfig{})
	assert.Equal(t, vmcore.SurfacelessInfo(), f.platform.WindowInfo())

	f.be.width, f.be.height, f.be.scale = 1280, 720, 2.0
	f.platform.PumpWindowEvents()

	info := f.platform.WindowInfo()
	assert.Equal(t, vmcore.SurfaceWindow, info.Type)
	assert.Equal(t, 2560, info.Width)
	assert.Equal(t, 1440, info.Height)
	assert.Equal(t, 2.0, info.Scale)
	assert.Equal(t, vmcore.UIScaleFor(2560), info.UIScale)
}

func TestWindowCloseRequestsExit(t *testing.T) {
	f := newShellFixture(t, PlatformConfig{})
	f.be.closing = true
	f.platform.PumpWindowEvents()
	assert.True(t, f.host.ExitRequested())
}

func TestFullscreenHotkey(t *testing.T) {
	f := newShellFixture(t, PlatformConfig{Hotkeys: map[string]string{ActionToggleFullscreen: "F11"}})
	f.be.just[ebiten.KeyF11] = true

	f.platform.PumpWindowEvents()
	assert.True(t, f.be.fullscreen)
	f.platform.PumpWindowEvents()
	assert.False(t, f.be.fullscreen)
}

func TestInvalidHotkeySkipped(t *testing.T) {
	f := newShellFixture(t, PlatformConfig{Hotkeys: map[string]string{
		ActionToggleFullscreen: "F11",
		ActionOpenPauseMenu:    "Hyper+P",
	}})
	assert.Len(t, f.platform.Hotkeys(), 1)
}

func TestPauseHotkey(t *testing.T) {
	f := newShellFixture(t, PlatformConfig{Hotkeys: map[string]string{
		ActionOpenPauseMenu: "Escape",
		ActionShutdownVM:    "Shift+Escape",
	}})
	f.boot(t, "game.iso")

	f.be.just[ebiten.KeyEscape] = true
	f.platform.PumpWindowEvents()
	f.host.Queue().DrainAll()
	assert.Equal(t, vmcore.StatePaused, f.vm.State())
}

func TestShutdownHotkey(t *testing.T) {
	asked := make(chan string, 1)
	f := newShellFixture(t, PlatformConfig{
		Hotkeys: map[string]string{
			ActionOpenPauseMenu: "Escape",
			ActionShutdownVM:    "Shift+Escape",
		},
		ConfirmShutdown: true,
	})
	f.platform.askYesNo = func(title, message string) bool {
		asked <- title
		return true
	}
	f.boot(t, "game.iso")

	f.be.just[ebiten.KeyEscape] = true
	f.be.pressed[ebiten.KeyShift] = true
	f.platform.PumpWindowEvents()

	assert.Equal(t, "Shut Down", <-asked)
	require.Eventually(t, func() bool { return f.host.Queue().Len() == 1 }, time.Second, time.Millisecond)
	f.host.Queue().DrainAll()
	assert.False(t, f.vm.HasActiveSession())
}

func TestShutdownHotkeyWithoutSession(t *testing.T) {
	f := newShellFixture(t, PlatformConfig{Hotkeys: map[string]string{ActionShutdownVM: "F4"}})
	f.be.just[ebiten.KeyF4] = true
	f.platform.PumpWindowEvents()
	assert.Equal(t, 0, f.host.Queue().Len())
}

func TestCopyGameInfoHotkey(t *testing.T) {
	f := newShellFixture(t, PlatformConfig{Hotkeys: map[string]string{ActionCopyGameInfo: "F7"}})
	var copied []string
	f.platform.copyText = func(s string) bool {
		copied = append(copied, s)
		return true
	}

	f.be.just[ebiten.KeyF7] = true
	f.platform.PumpWindowEvents()
	assert.Empty(t, copied, "nothing to copy without a game")

	path := f.boot(t, "Ico [SCUS-97113].iso")
	f.platform.PumpWindowEvents()
	assert.Equal(t, []string{"SCUS-97113\t" + path}, copied)
}

func TestOpenImageHotkey(t *testing.T) {
	f := newShellFixture(t, PlatformConfig{Hotkeys: map[string]string{ActionOpenImage: "F2"}})
	path := filepath.Join(t.TempDir(), "game.iso")
	require.NoError(t, os.WriteFile(path, []byte("disc"), 0644))
	f.platform.browseImage = func() (string, bool) { return path, true }

	f.be.just[ebiten.KeyF2] = true
	f.platform.PumpWindowEvents()
	assert.Eventually(t, func() bool { return f.host.Queue().Len() == 1 }, time.Second, 5*time.Millisecond)

	f.host.Queue().DrainAll()
	assert.True(t, f.host.SessionActive())
	assert.Equal(t, path, f.vm.Params().Filename)
}

func TestOpenImageReportsBadFile(t *testing.T) {
	f := newShellFixture(t, PlatformConfig{Hotkeys: map[string]string{ActionOpenImage: "F2"}})
	f.platform.browseImage = func() (string, bool) { return filepath.Join(t.TempDir(), "missing.iso"), true }

	f.be.just[ebiten.KeyF2] = true
	f.platform.PumpWindowEvents()

	select {
	case msg := <-f.errs:
		assert.Contains(t, msg, "Boot failed: ")
	case <-time.After(time.Second):
		t.Fatal("error dialog not shown")
	}
}

func TestReportErrorShowsDialog(t *testing.T) {
	f := newShellFixture(t, PlatformConfig{})
	f.platform.ReportError("Boot failed", "bios not found")

	select {
	case msg := <-f.errs:
		assert.Equal(t, "Boot failed: bios not found", msg)
	case <-time.After(time.Second):
		t.Fatal("error dialog not shown")
	}
}

func TestCPUThreadShutdown(t *testing.T) {
	calls := 0
	f := newShellFixture(t, PlatformConfig{OnShutdown: func() { calls++ }})
	f.platform.CPUThreadShutdown()
	assert.Equal(t, 1, calls)
}

func TestScreenshotHotkey(t *testing.T) {
	f := newShellFixture(t, PlatformConfig{Hotkeys: map[string]string{ActionScreenshot: "F8"}})
	assert.False(t, f.platform.TakeScreenshotRequest())

	f.be.just[ebiten.KeyF8] = true
	f.platform.PumpWindowEvents()
	assert.True(t, f.platform.TakeScreenshotRequest())
	assert.False(t, f.platform.TakeScreenshotRequest(), "request is cleared once taken")
}
