package ledger

import (
	"encoding/json"
	"time"
)

// EntryResponse is the API shape of a ledger entry.
type EntryResponse struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"order_id"`
	Type        string          `json:"type"`
	AmountCents int64           `json:"amount_cents"`
	Direction   string          `json:"direction"`
	Account     string          `json:"account"`
	CreatedAt   time.Time       `json:"created_at"`
	Meta        json.RawMessage `json:"meta,omitempty"`
}

// BalanceResponse reports merchant and escrow positions in cents.
type BalanceResponse struct {
	AvailableCents int64 `json:"available_balance_cents"`
	EscrowCents    int64 `json:"escrow_balance_cents"`
	TotalCents     int64 `json:"total_balance_cents"`
}

// ToResponse converts an entry to its API representation.
func ToResponse(e *Entry) *EntryResponse {
	return &EntryResponse{
		ID:          e.ID.String(),
		OrderID:     e.OrderID.String(),
		Type:        string(e.Type),
		AmountCents: e.AmountCents,
		Direction:   string(e.Direction),
		Account:     string(e.Account),
		CreatedAt:   e.CreatedAt,
		Meta:        json.RawMessage(e.Meta),
	}
}

// ToResponseList converts entries preserving append order.
func ToResponseList(entries []Entry) []*EntryResponse {
	out := make([]*EntryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, ToResponse(&entries[i]))
	}
	return out
}
