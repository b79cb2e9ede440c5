package host

import vmcore "github.com/user-none/consolehost/api"

// Action is what one main loop iteration does after pumping window events.
type Action int

const (
	// ActionIdle drains the queue and polls input. Used without a session.
	ActionIdle Action = iota
	// ActionInvariant reports a state the loop must never observe.
	ActionInvariant
	// ActionPoll polls input and drains the queue while paused.
	ActionPoll
	// ActionExecute runs one slice of emulation.
	ActionExecute
	// ActionReset performs one reset step.
	ActionReset
	// ActionStop drains the queue, tears down the session and ends the loop.
	ActionStop
)

func (a Action) String() string {
	switch a {
	case ActionIdle:
		return "Idle"
	case ActionInvariant:
		return "Invariant"
	case ActionPoll:
		return "Poll"
	case ActionExecute:
		return "Execute"
	case ActionReset:
		return "Reset"
	case ActionStop:
		return "Stop"
	default:
		return "Unknown"
	}
}

// Step maps the observed VM status to the iteration's action. Without a
// session the state is not consulted. A session reporting StateShutdown
// is treated as idle: the core has not yet dropped the session.
func Step(hasSession bool, state vmcore.State) Action {
	if !hasSession {
		return ActionIdle
	}

	switch state {
	case vmcore.StateShutdown:
		return ActionIdle
	case vmcore.StatePaused:
		return ActionPoll
	case vmcore.StateRunning:
		return ActionExecute
	case vmcore.StateResetting:
		return ActionReset
	case vmcore.StateStopping:
		return ActionStop
	default:
		// StateInitializing and anything outside the enum.
		return ActionInvariant
	}
}
