package models

import (
	"time"

	"github.com/google/uuid"
)

// ActivityType identifies the operation that produced an activity record.
type ActivityType string

const (
	ActivityLogin            ActivityType = "LOGIN"
	ActivityLogout           ActivityType = "LOGOUT"
	ActivityUserRegistered   ActivityType = "USER_REGISTERED"
	ActivityProjectCreated   ActivityType = "PROJECT_CREATED"
	ActivityProjectUpdated   ActivityType = "PROJECT_UPDATED"
	ActivityProjectDeleted   ActivityType = "PROJECT_DELETED"
	ActivityDocumentUploaded ActivityType = "DOCUMENT_UPLOADED"
	ActivityPasswordChanged  ActivityType = "PASSWORD_CHANGED"
)

// Activity is an append-only log entry. Rows are never mutated or deleted.
type Activity struct {
	ID          uuid.UUID         `json:"id" db:"id"`
	UserID      uuid.UUID         `json:"user_id" db:"user_id"`
	Type        ActivityType      `json:"type" db:"type"`
	Description string            `json:"description" db:"description"`
	Metadata    map[string]string `json:"metadata,omitempty" db:"metadata"`
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
}
