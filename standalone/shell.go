package standalone

import (
	"fmt"
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	vmcore "github.com/user-none/consolehost/api"
	"github.com/user-none/consolehost/host"
	"github.com/user-none/consolehost/logger"
	"github.com/user-none/consolehost/settings"
)

var background = color.RGBA{0x12, 0x12, 0x18, 0xff}

// Shell implements ebiten.Game and runs the host's main loop inside
// ebiten's update thread, one iteration per tick.
type Shell struct {
	host     *host.Host
	driver   *host.Driver
	platform *Platform
	notify   *Notification
	shots    *ScreenshotManager

	started  bool
	finished bool
}

// NewShell creates a shell. The platform must already be attached to h.
// shots may be nil to disable screenshots.
func NewShell(h *host.Host, d *host.Driver, p *Platform, n *Notification, shots *ScreenshotManager) *Shell {
	return &Shell{host: h, driver: d, platform: p, notify: n, shots: shots}
}

// Run opens the window and blocks until the loop stops or the window
// is closed.
func (s *Shell) Run(title string, ui settings.UISettings) error {
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(ui.WindowWidth, ui.WindowHeight)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetFullscreen(ui.Fullscreen)
	ebiten.SetWindowClosingHandled(true)
	ebiten.SetTPS(60)

	err := ebiten.RunGame(s)
	s.finish()
	return err
}

// Update implements ebiten.Game.
func (s *Shell) Update() error {
	if !s.started {
		s.started = true
		s.driver.Start()
	}
	if s.driver.Running() {
		s.driver.Iterate()
	}
	if !s.driver.Running() {
		s.finish()
		return ebiten.Termination
	}
	return nil
}

func (s *Shell) finish() {
	if s.finished || !s.started {
		return
	}
	s.finished = true
	s.driver.Finish()
}

// Draw implements ebiten.Game.
func (s *Shell) Draw(screen *ebiten.Image) {
	screen.Fill(background)
	ebitenutil.DebugPrintAt(screen, s.statusLine(), notificationMargin, notificationMargin)

	if s.platform.TakeScreenshotRequest() && s.shots != nil {
		s.capture(screen)
	}
	s.notify.Draw(screen)
}

// capture copies the frame on the ebiten thread and encodes it elsewhere.
func (s *Shell) capture(screen *ebiten.Image) {
	b := screen.Bounds()
	frame := image.NewRGBA(b)
	screen.ReadPixels(frame.Pix)

	serial := s.host.CurrentGame().Serial
	go func() {
		if _, err := s.shots.TakeScreenshot(frame, serial); err != nil {
			logger.WithFunc("standalone.Shell.capture").Error().Err(err).Msg("screenshot failed")
			s.notify.ShowDefault("Screenshot failed")
		}
	}()
}

func (s *Shell) statusLine() string {
	if !s.host.SessionActive() {
		list := s.host.GameList()
		if list.Scanning() {
			return "No game running. Scanning game folders..."
		}
		return fmt.Sprintf("No game running. %d games in library.", len(list.Entries()))
	}

	game := s.host.CurrentGame()
	name := game.Name
	if name == "" {
		name = game.DiscPath
	}
	line := fmt.Sprintf("%s  [%s]", name, s.host.SnapshotState())
	if game.Serial != "" {
		line += "  " + game.Serial
	}
	return line
}

// Layout implements ebiten.Game.
func (s *Shell) Layout(outsideWidth, outsideHeight int) (int, int) {
	scale := s.platform.be.DeviceScale()
	return int(float64(outsideWidth) * scale), int(float64(outsideHeight) * scale)
}

// NotifyHooks logs lifecycle events and shows the interesting ones on
// screen.
type NotifyHooks struct {
	host.LogHooks
	Notify *Notification
}

func (h NotifyHooks) OnGameChanged(info vmcore.GameInfo) {
	h.LogHooks.OnGameChanged(info)
	if info.Name != "" {
		h.Notify.ShowDefault("Now playing: " + info.Name)
	}
}

func (h NotifyHooks) OnVMPaused() {
	h.LogHooks.OnVMPaused()
	h.Notify.ShowDefault("Paused")
}

func (h NotifyHooks) OnVMResumed() {
	h.LogHooks.OnVMResumed()
	h.Notify.Clear()
}
