package host

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	vmcore "github.com/user-none/consolehost/api"
	"github.com/user-none/consolehost/logger"
)

const (
	// DefaultIdleSleep is the pause between iterations.
	DefaultIdleSleep = time.Millisecond
	// DefaultDeviceReloadDelay is how long after startup input devices are
	// enumerated again, for controllers that finish connecting late.
	DefaultDeviceReloadDelay = 500 * time.Millisecond
)

// FatalHandler is called when the loop observes a state it must never
// see. The default logs at fatal level, which exits the process.
type FatalHandler func(msg string)

func defaultFatal(msg string) {
	logger.WithFunc("host.Driver.Iterate").Fatal().Msg(msg)
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithIdleSleep sets the pause between iterations of Run.
func WithIdleSleep(d time.Duration) DriverOption {
	return func(dr *Driver) {
		dr.idleSleep = d
	}
}

// WithDeviceReloadDelay sets when Start schedules the extra device reload.
func WithDeviceReloadDelay(d time.Duration) DriverOption {
	return func(dr *Driver) {
		dr.reloadDelay = d
	}
}

// WithFatalHandler replaces the invariant violation handler.
func WithFatalHandler(fn FatalHandler) DriverOption {
	return func(dr *Driver) {
		dr.fatal = fn
	}
}

// Driver runs the main loop. Start, Iterate and Finish must all be called
// from the same goroutine; Run does that for callers that own their loop.
type Driver struct {
	h *Host

	idleSleep   time.Duration
	reloadDelay time.Duration
	fatal       FatalHandler

	running     atomic.Bool
	reloadTimer *time.Timer
}

// NewDriver creates a driver for h.
func NewDriver(h *Host, opts ...DriverOption) *Driver {
	d := &Driver{
		h:           h,
		idleSleep:   DefaultIdleSleep,
		reloadDelay: DefaultDeviceReloadDelay,
		fatal:       defaultFatal,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Running reports whether the loop should keep iterating.
func (d *Driver) Running() bool {
	return d.running.Load() && !d.h.ExitRequested()
}

// Start performs the work done once before the first iteration: pending
// actions (usually an activation boot) run, the game list is refreshed
// when nothing is running, and a device reload is scheduled.
func (d *Driver) Start() {
	d.running.Store(true)

	d.h.queue.DrainAll()
	if d.h.vm.State() != vmcore.StateRunning {
		d.h.RefreshGameListAsync(false)
	}

	d.reloadTimer = time.AfterFunc(d.reloadDelay, func() {
		d.h.RunOnCPUThread(d.h.input.ReloadDevices)
	})
}

// Iterate runs one iteration and returns the action it took.
func (d *Driver) Iterate() Action {
	d.h.platform.PumpWindowEvents()

	session, state := d.h.publish()
	action := Step(session, state)

	switch action {
	case ActionIdle:
		d.h.queue.DrainAll()
		d.h.input.PollSources()

	case ActionPoll:
		d.h.input.PollSources()
		d.h.queue.DrainAll()

	case ActionExecute:
		d.h.vm.ExecuteTick()

	case ActionReset:
		d.h.vm.ResetStep()

	case ActionStop:
		d.h.queue.DrainAll()
		if d.h.vm.HasActiveSession() {
			d.h.vm.Shutdown(false)
		}
		d.h.publish()
		d.running.Store(false)

	case ActionInvariant:
		d.running.Store(false)
		d.fatal(fmt.Sprintf("main loop observed VM state %s (%d) with an active session", state, int(state)))
	}

	return action
}

// Finish runs after the last iteration. The launch-on-exit URI is opened
// before the shell's shutdown callback.
func (d *Driver) Finish() {
	log := logger.WithFunc("host.Driver.Finish")

	d.running.Store(false)
	if d.reloadTimer != nil {
		d.reloadTimer.Stop()
	}
	d.h.CancelGameListRefresh()

	if uri := d.h.LaunchOnExit(); uri != "" {
		if d.h.launcher == nil {
			log.Warn().Str("uri", uri).Msg("no launcher configured, ignoring launch on exit")
		} else if err := d.h.launcher.Launch(uri); err != nil {
			log.Error().Err(err).Str("uri", uri).Msg("failed to launch on exit")
		}
	}

	d.h.callbacks.CPUThreadShutdown()
	log.Info().Msg("main loop finished")
}

// Run drives the loop on the calling goroutine until RequestExit, a
// Stopping session, or ctx is done. Stopping always happens between
// iterations.
func (d *Driver) Run(ctx context.Context) {
	d.Start()

	t := time.NewTimer(d.idleSleep)
	defer t.Stop()

	for d.Running() && ctx.Err() == nil {
		d.Iterate()
		if !d.Running() {
			break
		}

		t.Reset(d.idleSleep)
		select {
		case <-ctx.Done():
		case <-t.C:
		}
	}

	d.Finish()
}
