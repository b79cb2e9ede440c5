package vmcore

// State is the current phase of the virtual machine as reported by the core.
type State int

const (
	// StateShutdown means no VM session exists.
	StateShutdown State = iota
	// StateInitializing is set by the core while a boot is in progress. The
	// main loop must never observe it at the start of an iteration.
	StateInitializing
	// StatePaused is a live session that is not executing.
	StatePaused
	// StateRunning is a live session executing ticks.
	StateRunning
	// StateResetting is a live session performing a reset.
	StateResetting
	// StateStopping is a session being torn down. Terminal for a main loop.
	StateStopping
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateShutdown:
		return "Shutdown"
	case StateInitializing:
		return "Initializing"
	case StatePaused:
		return "Paused"
	case StateRunning:
		return "Running"
	case StateResetting:
		return "Resetting"
	case StateStopping:
		return "Stopping"
	default:
		return "Unknown"
	}
}

// Valid reports whether s is one of the defined states.
func (s State) Valid() bool {
	return s >= StateShutdown && s <= StateStopping
}

// SourceKind identifies what a boot path points at.
type SourceKind int

const (
	SourceUnknown SourceKind = iota
	SourceIso                // disc image file (iso, bin, chd, cso, ...)
	SourceDisc               // physical drive
	SourceELF                // bare executable
	SourceNoDisc             // boot to BIOS
)

// String returns the display name of the source kind.
func (k SourceKind) String() string {
	switch k {
	case SourceIso:
		return "Iso"
	case SourceDisc:
		return "Disc"
	case SourceELF:
		return "ELF"
	case SourceNoDisc:
		return "NoDisc"
	default:
		return "Unknown"
	}
}
