// Package vmcore defines the contract between the host shell and the
// external emulator core. The host never implements emulation; it only
// drives these interfaces from its main loop.
package vmcore

// BootParams describes a request to start a new VM session.
type BootParams struct {
	Filename string
	Source   SourceKind
	// ELFOverride optionally replaces the executable booted from the disc.
	ELFOverride string
	// FastBoot skips the BIOS intro when supported.
	FastBoot bool
	// Window is the render surface at boot time, filled in by the host.
	Window WindowInfo
}

// VM is the external virtual machine manager. Every method is called from
// the main goroutine only.
type VM interface {
	// State returns the current phase of the session.
	State() State

	// HasActiveSession reports whether a VM session exists.
	HasActiveSession() bool

	// Boot initializes a new session. On success the core leaves the
	// session in StatePaused; the host decides whether to run it.
	Boot(params BootParams) error

	// SetState requests a state change on the live session.
	SetState(state State)

	// ExecuteTick runs one slice of emulation.
	ExecuteTick()

	// ResetStep performs one step of a pending reset.
	ResetStep()

	// Shutdown destroys the session, optionally writing a resume state.
	Shutdown(saveState bool)
}

// Input is the external input manager.
type Input interface {
	// PollSources reads every connected input source once.
	PollSources()

	// ReloadDevices re-enumerates input devices after a hot-plug.
	ReloadDevices()
}

// Platform is the windowing layer the main loop pumps.
type Platform interface {
	// PumpWindowEvents processes pending window events without blocking.
	PumpWindowEvents()

	// WindowInfo describes the render surface.
	WindowInfo() WindowInfo
}

// GameInfo is passed to Hooks.OnGameChanged.
type GameInfo struct {
	DiscPath    string
	ELFOverride string
	Serial      string
	Name        string
	CRC         uint32
}

// Hooks receives lifecycle notifications from the core. Implementations must
// be cheap; they run on whichever goroutine the core notifies from.
type Hooks interface {
	OnVMStarting()
	OnVMStarted()
	OnVMDestroyed()
	OnVMPaused()
	OnVMResumed()
	OnGameChanged(info GameInfo)
}
