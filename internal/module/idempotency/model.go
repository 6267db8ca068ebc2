package idempotency

import (
	"encoding/json"
	"time"
)

// Record stores the outcome of the first attempt of an idempotent request.
// Records are immutable once written; the composite primary key makes the
// first writer win. Keys are scoped per endpoint: the same key value is
// independent across different operations.
type Record struct {
	Key          string          `json:"key" gorm:"primaryKey"`
	Endpoint     string          `json:"endpoint" gorm:"primaryKey"`
	RequestHash  string          `json:"request_hash" gorm:"not null"`
	ResponseJSON json.RawMessage `json:"response_json" gorm:"type:jsonb;not null"`
	StatusCode   int             `json:"status_code" gorm:"not null"`
	CreatedAt    time.Time       `json:"created_at"`
}

// TableName returns the database table name.
func (Record) TableName() string {
	return "idempotency_keys"
}
