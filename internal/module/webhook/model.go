package webhook

import (
	"time"

	"github.com/google/uuid"
)

// Subscription is a registered webhook consumer. Disabled subscriptions
// stay in the table so re-enabling keeps the same secret.
type Subscription struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	URL       string    `json:"url" gorm:"type:text;not null"`
	Secret    string    `json:"-" gorm:"not null"`
	IsEnabled bool      `json:"is_enabled" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name.
func (Subscription) TableName() string {
	return "webhook_subscriptions"
}
