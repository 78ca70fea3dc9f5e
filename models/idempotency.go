package models

import "time"

// Idempotency record lifecycle. A record is created PENDING by the request
// that wins the atomic insert, then moved to COMPLETED or FAILED exactly once.
const (
	IdempotencyPending   = "pending"
	IdempotencyCompleted = "completed"
	IdempotencyFailed    = "failed"
)

// IdempotencyRecord tracks one logical request per caller-supplied key.
// The unique index on Key is what makes Guard.Begin race-safe across
// processes: two concurrent inserts for a fresh key resolve at the store.
type IdempotencyRecord struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	Key             string     `json:"key" gorm:"size:128;uniqueIndex;not null"`
	Fingerprint     string     `json:"fingerprint" gorm:"size:64;not null"` // sha256 of method|path|user|body
	Status          string     `json:"status" gorm:"size:16;not null"`
	ResultReference string     `json:"result_reference"` // set only when completed, immutable after
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at"`
}
