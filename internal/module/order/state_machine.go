package order

import "fmt"

// StateMachine validates and executes order state transitions. The
// transition table is the single source of truth for the order lifecycle;
// states with no outgoing edges are terminal.
type StateMachine struct {
	transitions map[Status][]Status
}

// NewStateMachine creates a new order state machine.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		transitions: map[Status][]Status{
			StatusCreated:         {StatusAwaitingPayment},
			StatusAwaitingPayment: {StatusPaidInEscrow},
			StatusPaidInEscrow:    {StatusReleased, StatusRefunded, StatusDisputed},
			StatusDisputed:        {StatusResolved},
			StatusReleased:        {}, // Terminal state
			StatusRefunded:        {}, // Terminal state
			StatusResolved:        {}, // Terminal state
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

// Transition attempts to transition an order to a new state. The caller
// must not persist the order if an error is returned.
func (sm *StateMachine) Transition(order *Order, to Status) error {
	if !sm.CanTransition(order.Status, to) {
		return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, order.Status, to)
	}
	order.Status = to
	return nil
}
