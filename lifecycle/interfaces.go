// Package lifecycle defines the container state machine and the phases a
// bean passes through.
package lifecycle

// State is a container state.
type State int32

const (
	StateUnstarted State = iota
	StateInitializing
	StateRunning
	StateShuttingDown
	StateClosed
)

var stateNames = [...]string{
	StateUnstarted:    "unstarted",
	StateInitializing: "initializing",
	StateRunning:      "running",
	StateShuttingDown: "shutting_down",
	StateClosed:       "closed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateClosed
}

// Phase names one of the three bean lifecycle passes.
type Phase string

const (
	PhaseInit  Phase = "init"
	PhaseRun   Phase = "run"
	PhaseClose Phase = "close"
)

// transitions lists the allowed edges. Initializing may fall straight to
// Closed when an init action fails.
var transitions = map[State][]State{
	StateUnstarted:    {StateInitializing},
	StateInitializing: {StateRunning, StateClosed},
	StateRunning:      {StateShuttingDown},
	StateShuttingDown: {StateClosed},
}

// CanTransition reports whether from -> to is an allowed edge.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
