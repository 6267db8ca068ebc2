package charge

import "fmt"

// StateMachine validates and executes charge state transitions. PENDING is
// the only state with outgoing edges; PAID, EXPIRED and CANCELED are
// terminal.
type StateMachine struct {
	transitions map[Status][]Status
}

// NewStateMachine creates a new charge state machine.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		transitions: map[Status][]Status{
			StatusPending:  {StatusPaid, StatusExpired, StatusCanceled},
			StatusPaid:     {}, // Terminal state
			StatusExpired:  {}, // Terminal state
			StatusCanceled: {}, // Terminal state
		},
	}
}

// CanTransition checks if a transition from `from` to `to` is valid.
func (sm *StateMachine) CanTransition(from, to Status) bool {
	allowed, ok := sm.transitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Transition attempts to transition a charge to a new state. The caller
// must not persist the charge if an error is returned.
func (sm *StateMachine) Transition(charge *Charge, to Status) error {
	if !sm.CanTransition(charge.Status, to) {
		return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, charge.Status, to)
	}
	charge.Status = to
	return nil
}
