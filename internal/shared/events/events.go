package events

// Domain event names emitted by the escrow engine, one per money- or
// state-moving operation.
const (
	ChargeCreated     = "charge.created"
	ChargePaid        = "charge.paid"
	OrderPaidInEscrow = "order.paid_in_escrow"
	OrderReleased     = "order.released"
	OrderRefunded     = "order.refunded"
)

// Event is a domain event collected during a transaction and handed to the
// notifier only after the transaction has committed. A failed delivery never
// rolls back committed state.
type Event struct {
	Name string
	Data map[string]any
}

// New creates a new Event.
func New(name string, data map[string]any) Event {
	if data == nil {
		data = map[string]any{}
	}
	return Event{Name: name, Data: data}
}
