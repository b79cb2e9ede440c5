package standalone

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"

	vmcore "github.com/user-none/consolehost/api"
	"github.com/user-none/consolehost/host"
	"github.com/user-none/consolehost/logger"
)

// Hotkey actions read from the settings hotkey table.
const (
	ActionToggleFullscreen = "ToggleFullscreen"
	ActionOpenPauseMenu    = "OpenPauseMenu"
	ActionShutdownVM       = "ShutdownVM"
	ActionScreenshot       = "Screenshot"
	ActionCopyGameInfo     = "CopyGameInfo"
	ActionOpenImage        = "OpenImage"
)

// PlatformConfig configures a Platform.
type PlatformConfig struct {
	// Hotkeys maps action names to bindings such as "Shift+Escape".
	// Bindings that do not parse are logged and skipped.
	Hotkeys map[string]string
	// ConfirmShutdown asks before a hotkey shuts the VM down.
	ConfirmShutdown bool
	// OnShutdown runs on the main goroutine after the loop ends.
	OnShutdown func()
}

// Platform is the ebiten window seen by the host. It implements
// vmcore.Platform and host.Callbacks.
type Platform struct {
	be   backend
	host *host.Host

	hotkeys         map[string]Hotkey
	confirmShutdown bool
	onShutdown      func()

	haveWindow bool
	width      int
	height     int
	scale      float64
	fullscreen bool

	screenshotPending bool

	// Native dialogs and the clipboard, replaced in tests.
	showError   func(title, message string)
	askYesNo    func(title, message string) bool
	browseImage func() (string, bool)
	copyText    func(string) bool
}

// NewPlatform creates the platform. Attach must be called before the
// host's loop starts.
func NewPlatform(cfg PlatformConfig) *Platform {
	return newPlatform(ebitenBackend{}, cfg)
}

func newPlatform(be backend, cfg PlatformConfig) *Platform {
	p := &Platform{
		be:              be,
		hotkeys:         parseHotkeys(cfg.Hotkeys),
		confirmShutdown: cfg.ConfirmShutdown,
		onShutdown:      cfg.OnShutdown,
		scale:           1.0,
		showError:       showErrorDialog,
		askYesNo:        askYesNoDialog,
		browseImage:     BrowseImage,
		copyText:        CopyTextToClipboard,
	}
	return p
}

func parseHotkeys(bindings map[string]string) map[string]Hotkey {
	log := logger.WithFunc("standalone.parseHotkeys")
	out := make(map[string]Hotkey, len(bindings))
	for action, binding := range bindings {
		hk, err := ParseHotkey(binding)
		if err != nil {
			log.Warn().Err(err).Str("action", action).Msg("ignoring hotkey")
			continue
		}
		out[action] = hk
	}
	return out
}

// Attach connects the platform to the host it reports to.
func (p *Platform) Attach(h *host.Host) {
	p.host = h
}

// Hotkeys returns the parsed hotkey table.
func (p *Platform) Hotkeys() map[string]Hotkey {
	return p.hotkeys
}

// PumpWindowEvents handles window close requests, size changes and
// hotkeys. It runs at the start of every iteration.
func (p *Platform) PumpWindowEvents() {
	if p.be.IsWindowBeingClosed() {
		p.host.RequestExit()
	}

	p.updateWindow()

	if p.hotkeyPressed(ActionToggleFullscreen) {
		p.be.SetFullscreen(!p.fullscreen)
	}
	if p.hotkeyPressed(ActionShutdownVM) {
		if p.host.SessionActive() {
			go p.shutdownVM()
		}
	} else if p.hotkeyPressed(ActionOpenPauseMenu) {
		p.host.RequestTogglePause()
	}

	if p.hotkeyPressed(ActionScreenshot) {
		p.screenshotPending = true
	}
	if p.hotkeyPressed(ActionCopyGameInfo) {
		p.copyGameInfo()
	}
	if p.hotkeyPressed(ActionOpenImage) && !p.host.SessionActive() {
		go p.openImage()
	}
}

func (p *Platform) updateWindow() {
	w, h := p.be.WindowSize()
	p.haveWindow = w > 0 && h > 0
	p.fullscreen = p.be.IsFullscreen()
	p.scale = p.be.DeviceScale()

	if w != p.width || h != p.height {
		logger.WithFunc("standalone.Platform.PumpWindowEvents").Debug().
			Int("width", w).
			Int("height", h).
			Msg("window resized")
		p.width, p.height = w, h
	}
}

// hotkeyPressed matches the Shift modifier exactly so "Escape" and
// "Shift+Escape" can be bound to different actions.
func (p *Platform) hotkeyPressed(action string) bool {
	hk, ok := p.hotkeys[action]
	if !ok || !p.be.IsKeyJustPressed(hk.Key) {
		return false
	}
	return hk.Shift == p.shiftHeld()
}

func (p *Platform) shiftHeld() bool {
	return p.be.IsKeyPressed(ebiten.KeyShift)
}

func (p *Platform) shutdownVM() {
	if p.confirmShutdown && !p.ConfirmMessage("Shut Down", "Shut down the running game?") {
		return
	}
	p.host.RequestVMShutdown(true)
}

// WindowState returns the last window size in logical pixels and whether
// the window was fullscreen.
func (p *Platform) WindowState() (width, height int, fullscreen bool) {
	return p.width, p.height, p.fullscreen
}

// copyGameInfo puts the running game's serial and image path on the
// clipboard.
func (p *Platform) copyGameInfo() {
	log := logger.WithFunc("standalone.Platform.copyGameInfo")
	game := p.host.CurrentGame()
	if game.DiscPath == "" && game.Name == "" {
		log.Debug().Msg("no game running")
		return
	}
	text := fmt.Sprintf("%s\t%s", game.Serial, game.DiscPath)
	if p.copyText(text) {
		log.Info().Str("serial", game.Serial).Msg("game info copied")
	}
}

func (p *Platform) openImage() {
	path, ok := p.browseImage()
	if !ok {
		return
	}
	if err := p.host.RequestBoot(host.LaunchRequest{Path: path}); err != nil {
		p.ReportError("Boot failed", err.Error())
	}
}

// TakeScreenshotRequest reports and clears a pending screenshot hotkey.
func (p *Platform) TakeScreenshotRequest() bool {
	pending := p.screenshotPending
	p.screenshotPending = false
	return pending
}

// WindowInfo describes the window, or a surfaceless target before the
// window exists.
func (p *Platform) WindowInfo() vmcore.WindowInfo {
	if !p.haveWindow {
		return vmcore.SurfacelessInfo()
	}
	return vmcore.WindowInfo{
		Type:    vmcore.SurfaceWindow,
		Width:   int(float64(p.width) * p.scale),
		Height:  int(float64(p.height) * p.scale),
		Scale:   p.scale,
		UIScale: vmcore.UIScaleFor(int(float64(p.width) * p.scale)),
	}
}

// ReportError shows a native error dialog without blocking the caller.
func (p *Platform) ReportError(title, message string) {
	logger.WithFunc("standalone.Platform.ReportError").Error().Str("title", title).Msg(message)
	go p.showError(title, message)
}

// ConfirmMessage asks a yes/no question and blocks until answered.
func (p *Platform) ConfirmMessage(title, message string) bool {
	return p.askYesNo(title, message)
}

// CPUThreadShutdown runs the configured shutdown function.
func (p *Platform) CPUThreadShutdown() {
	if p.onShutdown != nil {
		p.onShutdown()
	}
}
