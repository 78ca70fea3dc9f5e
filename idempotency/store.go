package idempotency

import (
	"context"
	"time"

	"github.com/OKB20/spos-api/models"
)

// Status values, aliased from the persisted model.
const (
	pendingStatus   = models.IdempotencyPending
	completedStatus = models.IdempotencyCompleted
	failedStatus    = models.IdempotencyFailed
)

func newPendingRecord(key, fingerprint string, now time.Time) *models.IdempotencyRecord {
	return &models.IdempotencyRecord{
		Key:         key,
		Fingerprint: fingerprint,
		Status:      pendingStatus,
		CreatedAt:   now,
	}
}

// Store is the durable backing for idempotency records. Implementations must
// make Insert atomic against concurrent callers (unique constraint on key) and
// make Reclaim/Complete/Fail conditional single-statement updates, because the
// guard runs in many processes sharing one store; in-process locking is of no
// use here.
type Store interface {
	// Insert creates a fresh record. Returns ErrKeyExists when the key is
	// already present, without modifying the existing record.
	Insert(ctx context.Context, rec *models.IdempotencyRecord) error

	// Find returns the record for key, or ErrNotFound.
	Find(ctx context.Context, key string) (*models.IdempotencyRecord, error)

	// Reclaim atomically restarts a record for a new attempt: only FAILED
	// records and PENDING records created before cutoff qualify, and only when
	// the fingerprint matches. Returns false when nothing was reclaimable.
	Reclaim(ctx context.Context, key, fingerprint string, cutoff, now time.Time) (bool, error)

	// Complete moves a PENDING record to COMPLETED and stores the result
	// reference. Returns false when the record is not PENDING.
	Complete(ctx context.Context, key, resultReference string, now time.Time) (bool, error)

	// Fail moves a PENDING record to FAILED, permitting a later retry.
	// Returns false when the record is not PENDING.
	Fail(ctx context.Context, key string, now time.Time) (bool, error)

	// DeleteExpired garbage-collects settled (COMPLETED or FAILED) records
	// created before cutoff. PENDING records are left alone; the reclaim path
	// owns those. After deletion the key becomes replayable, so cutoff is the
	// retention bound for duplicate detection.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
