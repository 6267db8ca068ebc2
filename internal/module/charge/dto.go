package charge

import "time"

// ChargeResponse is the API shape of a charge.
type ChargeResponse struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
	PixEMV    string    `json:"pix_emv"`
	TxID      string    `json:"txid"`
	CreatedAt time.Time `json:"created_at"`
}

// ToResponse converts a charge to its API representation.
func (c *Charge) ToResponse() *ChargeResponse {
	return &ChargeResponse{
		ID:        c.ID.String(),
		OrderID:   c.OrderID.String(),
		Status:    string(c.Status),
		ExpiresAt: c.ExpiresAt,
		PixEMV:    c.PixEMV,
		TxID:      c.TxID,
		CreatedAt: c.CreatedAt,
	}
}
