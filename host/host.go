// Package host bridges background goroutines and the emulator core. All
// core calls happen on the goroutine running the Driver; every other
// goroutine hands work over through RunOnCPUThread.
package host

import (
	"errors"
	"sync"
	"sync/atomic"

	vmcore "github.com/user-none/consolehost/api"
	"github.com/user-none/consolehost/devices"
	"github.com/user-none/consolehost/eventqueue"
	"github.com/user-none/consolehost/gamelist"
	"github.com/user-none/consolehost/logger"
)

var (
	// ErrEmptyPath is returned by RequestBoot for a request without a path.
	ErrEmptyPath = errors.New("boot path is empty")
	// ErrSessionActive is returned by RequestBoot while a VM is running.
	ErrSessionActive = errors.New("a VM session is already active")
	// ErrMissingCollaborator is returned by New when VM, Input or Platform
	// is nil.
	ErrMissingCollaborator = errors.New("missing collaborator")
)

// Callbacks are implemented by the platform shell.
type Callbacks interface {
	// ReportError shows an error to the user without blocking the caller
	// for long.
	ReportError(title, message string)
	// ConfirmMessage asks the user a yes/no question.
	ConfirmMessage(title, message string) bool
	// CPUThreadShutdown runs on the main goroutine after the loop ends.
	CPUThreadShutdown()
}

// Launcher opens a URI after the host exits.
type Launcher interface {
	Launch(uri string) error
}

// Config wires the host to its collaborators.
type Config struct {
	VM       vmcore.VM
	Input    vmcore.Input
	Platform vmcore.Platform

	// Optional. Default to logging implementations.
	Callbacks Callbacks
	Hooks     vmcore.Hooks
	Launcher  Launcher

	GameList gamelist.Config
	// OnGameListRefreshed runs on the main goroutine when a refresh ends.
	OnGameListRefreshed func(gamelist.Result)

	// ExtractDir receives images unpacked from archives before boot.
	ExtractDir string
	// FastBoot is passed to the core on every boot.
	FastBoot bool
}

// Host is the context shared by the main loop and every producer.
type Host struct {
	queue *eventqueue.Queue

	vm        vmcore.VM
	input     vmcore.Input
	platform  vmcore.Platform
	callbacks Callbacks
	hooks     vmcore.Hooks
	launcher  Launcher

	life       lifecycle
	gameList   *gamelist.Refresher
	extractDir string
	fastBoot   bool

	exitRequested atomic.Bool

	// Published once per iteration for readers off the main goroutine.
	session atomic.Bool
	state   atomic.Int32

	mu           sync.Mutex
	launchOnExit string
}

// New creates a host. VM, Input and Platform are required.
func New(cfg Config) (*Host, error) {
	if cfg.VM == nil || cfg.Input == nil || cfg.Platform == nil {
		return nil, ErrMissingCollaborator
	}

	h := &Host{
		vm:         cfg.VM,
		input:      cfg.Input,
		platform:   cfg.Platform,
		callbacks:  cfg.Callbacks,
		hooks:      cfg.Hooks,
		launcher:   cfg.Launcher,
		extractDir: cfg.ExtractDir,
		fastBoot:   cfg.FastBoot,
	}
	if h.callbacks == nil {
		h.callbacks = LogCallbacks{}
	}
	if h.hooks == nil {
		h.hooks = LogHooks{}
	}
	h.life.h = h

	h.queue = eventqueue.New(eventqueue.WithPanicHandler(func(v any) {
		h.callbacks.ReportError("Internal error", "a queued action failed, see the log for details")
	}))
	h.gameList = gamelist.New(cfg.GameList, h.queue.Enqueue, cfg.OnGameListRefreshed)

	return h, nil
}

// Queue returns the host's event queue.
func (h *Host) Queue() *eventqueue.Queue {
	return h.queue
}

// RunOnCPUThread schedules fn on the main goroutine. Safe from any
// goroutine.
func (h *Host) RunOnCPUThread(fn func()) {
	h.queue.Enqueue(fn)
}

// VSync drains pending actions. Cores call it from inside ExecuteTick at
// each presented frame so queued work is not held back by a long tick.
// Main goroutine only.
func (h *Host) VSync() {
	h.queue.DrainAll()
}

// RequestExit asks the main loop to stop after its current iteration.
func (h *Host) RequestExit() {
	logger.WithFunc("host.RequestExit").Info().Msg("exit requested")
	h.exitRequested.Store(true)
}

// ExitRequested reports whether RequestExit was called.
func (h *Host) ExitRequested() bool {
	return h.exitRequested.Load()
}

// RequestVMShutdown schedules the session teardown on the main goroutine.
func (h *Host) RequestVMShutdown(saveState bool) {
	h.RunOnCPUThread(func() {
		if !h.vm.HasActiveSession() {
			return
		}
		logger.WithFunc("host.RequestVMShutdown").Info().Bool("save_state", saveState).Msg("shutting down VM")
		h.vm.Shutdown(saveState)
		h.publish()
	})
}

// RequestTogglePause flips a live session between Running and Paused on
// the main goroutine. Other states are left alone.
func (h *Host) RequestTogglePause() {
	h.RunOnCPUThread(func() {
		switch h.vm.State() {
		case vmcore.StateRunning:
			h.vm.SetState(vmcore.StatePaused)
		case vmcore.StatePaused:
			h.vm.SetState(vmcore.StateRunning)
		default:
			return
		}
		h.publish()
	})
}

// SessionActive reports the session flag published by the last iteration.
func (h *Host) SessionActive() bool {
	return h.session.Load()
}

// SnapshotState reports the VM state published by the last iteration.
func (h *Host) SnapshotState() vmcore.State {
	return vmcore.State(h.state.Load())
}

// publish reads the VM on the main goroutine and stores the snapshot.
func (h *Host) publish() (bool, vmcore.State) {
	session := h.vm.HasActiveSession()
	state := h.vm.State()
	h.session.Store(session)
	h.state.Store(int32(state))
	return session, state
}

// SetLaunchOnExit records a URI to open when the host exits.
func (h *Host) SetLaunchOnExit(uri string) {
	h.mu.Lock()
	h.launchOnExit = uri
	h.mu.Unlock()
}

// LaunchOnExit returns the recorded URI, if any.
func (h *Host) LaunchOnExit() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.launchOnExit
}

// RefreshGameListAsync starts a background game list refresh. A request
// made while one is running is ignored.
func (h *Host) RefreshGameListAsync(invalidateCache bool) {
	h.gameList.Refresh(invalidateCache)
}

// CancelGameListRefresh stops a running refresh.
func (h *Host) CancelGameListRefresh() {
	h.gameList.Cancel()
}

// GameList returns the refresher backing RefreshGameListAsync.
func (h *Host) GameList() *gamelist.Refresher {
	return h.gameList
}

// WatchDevices reloads input devices on the main goroutine whenever src
// reports a device arriving or leaving.
func (h *Host) WatchDevices(src devices.EventSource) {
	reload := func(d devices.Device) {
		h.RunOnCPUThread(h.input.ReloadDevices)
	}
	src.OnAdded(reload)
	src.OnRemoved(reload)
}
