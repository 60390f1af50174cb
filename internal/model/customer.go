package model

import (
	"time"

	"github.com/google/uuid"
)

// Customer is resolved at sale completion, either by id or by
// upsert-by-email: unseen email creates the row, a known email refreshes the
// mutable contact fields.
type Customer struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"not null"`
	Email     string    `gorm:"uniqueIndex;not null"`
	Phone     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
