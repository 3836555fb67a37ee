package models

import (
	"time"

	"github.com/google/uuid"
)

// Session binds an issued access token to a user. A request is only valid
// while the row is active and unexpired, independent of the token's own
// cryptographic expiry.
type Session struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Token     string    `json:"-" db:"token"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
