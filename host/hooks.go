package host

import (
	"fmt"
	"sync"

	vmcore "github.com/user-none/consolehost/api"
	"github.com/user-none/consolehost/logger"
)

// LogHooks logs every lifecycle notification.
type LogHooks struct{}

func (LogHooks) OnVMStarting()  { logger.WithFunc("host.OnVMStarting").Info().Msg("VM starting") }
func (LogHooks) OnVMStarted()   { logger.WithFunc("host.OnVMStarted").Info().Msg("VM started") }
func (LogHooks) OnVMDestroyed() { logger.WithFunc("host.OnVMDestroyed").Info().Msg("VM destroyed") }
func (LogHooks) OnVMPaused()    { logger.WithFunc("host.OnVMPaused").Info().Msg("VM paused") }
func (LogHooks) OnVMResumed()   { logger.WithFunc("host.OnVMResumed").Info().Msg("VM resumed") }

func (LogHooks) OnGameChanged(info vmcore.GameInfo) {
	logger.WithFunc("host.OnGameChanged").Info().
		Str("disc", info.DiscPath).
		Str("elf", info.ELFOverride).
		Str("serial", info.Serial).
		Str("name", info.Name).
		Str("crc", fmt.Sprintf("%08x", info.CRC)).
		Msg("game changed")
}

// LogCallbacks writes errors and confirmations to the log. ConfirmMessage
// always answers yes.
type LogCallbacks struct{}

func (LogCallbacks) ReportError(title, message string) {
	logger.WithFunc("host.ReportError").Error().Str("title", title).Msg(message)
}

func (LogCallbacks) ConfirmMessage(title, message string) bool {
	logger.WithFunc("host.ConfirmMessage").Warn().Str("title", title).Msg(message)
	return true
}

func (LogCallbacks) CPUThreadShutdown() {}

// lifecycle is the vmcore.Hooks handed to the core. It tracks the current
// game and forwards to the configured hooks.
type lifecycle struct {
	h *Host

	mu   sync.Mutex
	game vmcore.GameInfo
}

// Hooks returns the notification sink to pass to the core.
func (h *Host) Hooks() vmcore.Hooks {
	return &h.life
}

// CurrentGame returns the game last reported by the core.
func (h *Host) CurrentGame() vmcore.GameInfo {
	h.life.mu.Lock()
	defer h.life.mu.Unlock()
	return h.life.game
}

func (l *lifecycle) OnVMStarting() { l.h.hooks.OnVMStarting() }
func (l *lifecycle) OnVMStarted()  { l.h.hooks.OnVMStarted() }
func (l *lifecycle) OnVMPaused()   { l.h.hooks.OnVMPaused() }
func (l *lifecycle) OnVMResumed()  { l.h.hooks.OnVMResumed() }

func (l *lifecycle) OnVMDestroyed() {
	l.mu.Lock()
	l.game = vmcore.GameInfo{}
	l.mu.Unlock()
	l.h.hooks.OnVMDestroyed()
}

func (l *lifecycle) OnGameChanged(info vmcore.GameInfo) {
	l.mu.Lock()
	l.game = info
	l.mu.Unlock()
	l.h.hooks.OnGameChanged(info)
}
