package standalone

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vmcore "github.com/user-none/consolehost/api"
)

func TestShellUpdateUntilExit(t *testing.T) {
	shutdowns := 0
	f := newShellFixture(t, PlatformConfig{OnShutdown: func() { shutdowns++ }})
	s := NewShell(f.host, f.driver, f.platform, NewNotification(), nil)

	require.NoError(t, s.Update())
	require.NoError(t, s.Update())
	assert.True(t, f.driver.Running())

	f.host.RequestExit()
	assert.ErrorIs(t, s.Update(), ebiten.Termination)
	assert.Equal(t, 1, shutdowns)

	// RunGame's return path calls finish again.
	s.finish()
	assert.Equal(t, 1, shutdowns)
}

func TestShellStopsWithSession(t *testing.T) {
	f := newShellFixture(t, PlatformConfig{})
	s := NewShell(f.host, f.driver, f.platform, NewNotification(), nil)
	f.boot(t, "game.iso")

	require.NoError(t, s.Update())
	assert.Equal(t, uint64(1), f.vm.Ticks())

	f.vm.SetState(vmcore.StateStopping)
	assert.ErrorIs(t, s.Update(), ebiten.Termination)
	assert.False(t, f.vm.HasActiveSession())
}

func TestStatusLine(t *testing.T) {
	f := newShellFixture(t, PlatformConfig{})
	s := NewShell(f.host, f.driver, f.platform, NewNotification(), nil)
	assert.Equal(t, "No game running. 0 games in library.", s.statusLine())

	f.boot(t, "Ico [SCUS-97113].iso")
	assert.Equal(t, "Ico [SCUS-97113]  [Running]  SCUS-97113", s.statusLine())
}

func TestLayoutScales(t *testing.T) {
	f := newShellFixture(t, PlatformConfig{})
	f.be.scale = 2
	s := NewShell(f.host, f.driver, f.platform, NewNotification(), nil)

	w, h := s.Layout(640, 360)
	assert.Equal(t, 1280, w)
	assert.Equal(t, 720, h)
}

func TestNotifyHooks(t *testing.T) {
	n := NewNotification()
	h := NotifyHooks{Notify: n}

	h.OnGameChanged(vmcore.GameInfo{Name: "Ico"})
	assert.Equal(t, "Now playing: Ico", n.Message())
	h.OnVMPaused()
	assert.Equal(t, "Paused", n.Message())
	h.OnVMResumed()
	assert.Empty(t, n.Message())
}

func TestNowPlayingSurvivesBoot(t *testing.T) {
	f := newShellFixture(t, PlatformConfig{})
	f.boot(t, "Ico [SCUS-97113].iso")
	assert.Equal(t, "Now playing: Ico [SCUS-97113]", f.notify.Message())

	f.host.RequestTogglePause()
	f.host.Queue().DrainAll()
	assert.Equal(t, "Paused", f.notify.Message())

	f.host.RequestTogglePause()
	f.host.Queue().DrainAll()
	assert.Empty(t, f.notify.Message())
}

func TestBootReceivesWindow(t *testing.T) {
	f := newShellFixture(t, PlatformConfig{})
	f.be.width, f.be.height, f.be.scale = 1280, 720, 1.0
	f.platform.PumpWindowEvents()

	f.boot(t, "game.iso")
	window := f.vm.Params().Window
	assert.Equal(t, vmcore.SurfaceWindow, window.Type)
	assert.Equal(t, 1280, window.Width)
}
