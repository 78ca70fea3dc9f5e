package idempotency

import (
	"context"
	"errors"
	"time"
)

// DefaultPendingTimeout is the abandonment window for PENDING records. A
// pending record older than this is treated as failed and may be retried.
const DefaultPendingTimeout = 5 * time.Minute

// Guard decides, per key, whether a request may run its transaction. It keeps
// no in-process state beyond configuration; all coordination happens at the Store.
type Guard struct {
	store          Store
	pendingTimeout time.Duration
	now            func() time.Time
}

func NewGuard(store Store, pendingTimeout time.Duration) *Guard {
	if pendingTimeout <= 0 {
		pendingTimeout = DefaultPendingTimeout
	}
	return &Guard{
		store:          store,
		pendingTimeout: pendingTimeout,
		now:            time.Now,
	}
}

// Begin resolves the caller's fate for the given key. On Proceed the caller
// owns the PENDING record and must settle it with Complete or Fail. The
// returned error is only ever a store failure; duplicates and conflicts are
// expressed through the Decision, not errors.
func (g *Guard) Begin(ctx context.Context, key, fingerprint string) (Decision, error) {
	// Two passes: losing an insert race or reclaiming an abandoned record both
	// need one re-read to classify the record that won.
	for attempt := 0; attempt < 2; attempt++ {
		rec, err := g.store.Find(ctx, key)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				return Decision{}, err
			}
			created, err := g.insertPending(ctx, key, fingerprint)
			if err != nil {
				return Decision{}, err
			}
			if created {
				return Decision{Outcome: Proceed}, nil
			}
			continue // lost the insert race; re-read and classify
		}

		if rec.Fingerprint != fingerprint {
			return Decision{Outcome: Conflict}, nil
		}

		switch rec.Status {
		case completedStatus:
			return Decision{Outcome: DuplicateCompleted, ResultReference: rec.ResultReference}, nil
		case pendingStatus:
			if g.now().Sub(rec.CreatedAt) < g.pendingTimeout {
				return Decision{Outcome: DuplicateInFlight}, nil
			}
		}

		// FAILED, or PENDING past the abandonment window: try to take over.
		cutoff := g.now().Add(-g.pendingTimeout)
		ok, err := g.store.Reclaim(ctx, key, fingerprint, cutoff, g.now())
		if err != nil {
			return Decision{}, err
		}
		if ok {
			return Decision{Outcome: Proceed}, nil
		}
		// Someone else reclaimed or completed it in the meantime; classify again.
	}
	// Lost both the insert and the reclaim race: an identical request is running.
	return Decision{Outcome: DuplicateInFlight}, nil
}

// Complete transitions the caller's PENDING record to COMPLETED and pins the
// result reference. ErrState when the record is not PENDING (settled twice,
// reclaimed by another request, or never begun).
func (g *Guard) Complete(ctx context.Context, key, resultReference string) error {
	ok, err := g.store.Complete(ctx, key, resultReference, g.now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrState
	}
	return nil
}

// Fail transitions the caller's PENDING record to FAILED so the key can be
// retried. ErrState when the record is not PENDING.
func (g *Guard) Fail(ctx context.Context, key string) error {
	ok, err := g.store.Fail(ctx, key, g.now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrState
	}
	return nil
}

func (g *Guard) insertPending(ctx context.Context, key, fingerprint string) (bool, error) {
	err := g.store.Insert(ctx, newPendingRecord(key, fingerprint, g.now()))
	if err != nil {
		if errors.Is(err, ErrKeyExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
