package lifecycle

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrInvalidTransition is returned for an edge the state machine does not allow.
var ErrInvalidTransition = errors.New("invalid lifecycle transition")

// TransitionError describes a rejected transition.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// Machine holds the current state. Reads never block; transitions are
// compare-and-swap so two goroutines cannot both leave the same state.
type Machine struct {
	state atomic.Int32
}

// NewMachine starts in StateUnstarted.
func NewMachine() *Machine {
	return &Machine{}
}

// Current returns the current state.
func (m *Machine) Current() State {
	return State(m.state.Load())
}

// Transition moves from -> to if the machine is in from and the edge is allowed.
func (m *Machine) Transition(from, to State) error {
	if !CanTransition(from, to) {
		return &TransitionError{From: from, To: to}
	}
	if !m.state.CompareAndSwap(int32(from), int32(to)) {
		return &TransitionError{From: m.Current(), To: to}
	}
	return nil
}
