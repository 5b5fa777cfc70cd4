package session

// State is one of the session state machine's five states (§4.7).
type State string

const (
	StateActive   State = "Active"
	StateOpened   State = "Opened"
	StateClosing  State = "Closing"
	StateClosed   State = "Closed"
	StateShutdown State = "Shutdown"
)

// validTransitions enumerates the allowed edges of §4.7's state diagram.
// Grounded on coreengine/kernel/lifecycle.go's validTransitions map plus
// IsValidTransition/TransitionState pair.
var validTransitions = map[State]map[State]bool{
	StateActive: {
		StateOpened:   true,
		StateShutdown: true,
	},
	StateOpened: {
		StateClosing: true,
		StateClosed:  true,
	},
	StateClosing: {
		StateClosed: true,
	},
	StateClosed: {
		StateShutdown: true,
	},
	StateShutdown: {},
}

// IsValidTransition reports whether to is reachable from from in one step.
func IsValidTransition(from, to State) bool {
	targets, ok := validTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}
