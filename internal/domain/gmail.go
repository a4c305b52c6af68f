package domain

import (
	"time"

	"github.com/google/uuid"
)

// GmailConnection holds a user's Gmail OAuth credential state. One per user.
type GmailConnection struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	AccessToken  string
	RefreshToken string
	TokenExpiry  time.Time
	LastSyncAt   *time.Time
}

// ImportRecord marks an external message as considered for one user.
// Its existence is the sole deduplication key for the import pipeline:
// it is written whether or not an activity was actually created, and it
// outlives any activity it spawned.
type ImportRecord struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	EmailID    string
	ParsedData []byte // raw extracted payload, stored as JSONB
	CreatedAt  time.Time
}
