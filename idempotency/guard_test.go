package idempotency

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGuard() (*Guard, *MemoryStore) {
	store := NewMemoryStore()
	return NewGuard(store, 5*time.Minute), store
}

func TestBeginFreshKeyProceeds(t *testing.T) {
	guard, _ := newTestGuard()
	fp := Fingerprint("POST", "/api/pos/sales", "user-1", []byte(`{"total":10}`))

	decision, err := guard.Begin(context.Background(), "key-1", fp)
	require.NoError(t, err)
	assert.Equal(t, Proceed, decision.Outcome)
}

func TestConcurrentBeginExactlyOneProceed(t *testing.T) {
	guard, _ := newTestGuard()
	fp := Fingerprint("POST", "/api/pos/sales", "user-1", []byte(`{"total":10}`))

	const callers = 32
	decisions := make([]Decision, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			decisions[i], errs[i] = guard.Begin(context.Background(), "race-key", fp)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	proceeds := 0
	for _, d := range decisions {
		switch d.Outcome {
		case Proceed:
			proceeds++
		case DuplicateInFlight:
		default:
			t.Fatalf("unexpected outcome %v", d.Outcome)
		}
	}
	assert.Equal(t, 1, proceeds, "exactly one caller must win the atomic create")
}

func TestReplayCompletedReturnsStoredResult(t *testing.T) {
	guard, _ := newTestGuard()
	ctx := context.Background()
	fp := Fingerprint("POST", "/api/pos/sales", "user-1", []byte(`{"total":10}`))

	decision, err := guard.Begin(ctx, "key-2", fp)
	require.NoError(t, err)
	require.Equal(t, Proceed, decision.Outcome)
	require.NoError(t, guard.Complete(ctx, "key-2", "SALE-42"))

	replay, err := guard.Begin(ctx, "key-2", fp)
	require.NoError(t, err)
	assert.Equal(t, DuplicateCompleted, replay.Outcome)
	assert.Equal(t, "SALE-42", replay.ResultReference)
}

func TestConflictOnFingerprintMismatch(t *testing.T) {
	guard, _ := newTestGuard()
	ctx := context.Background()
	fpA := Fingerprint("POST", "/api/pos/sales", "user-1", []byte(`{"total":10}`))
	fpB := Fingerprint("POST", "/api/pos/sales", "user-1", []byte(`{"total":99}`))

	decision, err := guard.Begin(ctx, "key-3", fpA)
	require.NoError(t, err)
	require.Equal(t, Proceed, decision.Outcome)

	// Pending record, different payload.
	conflicting, err := guard.Begin(ctx, "key-3", fpB)
	require.NoError(t, err)
	assert.Equal(t, Conflict, conflicting.Outcome)

	// Completed record, different payload: still a conflict, never a replay.
	require.NoError(t, guard.Complete(ctx, "key-3", "SALE-7"))
	conflicting, err = guard.Begin(ctx, "key-3", fpB)
	require.NoError(t, err)
	assert.Equal(t, Conflict, conflicting.Outcome)
}

func TestDuplicateInFlight(t *testing.T) {
	guard, _ := newTestGuard()
	ctx := context.Background()
	fp := Fingerprint("POST", "/api/pos/sales", "user-1", []byte(`{"total":10}`))

	_, err := guard.Begin(ctx, "key-4", fp)
	require.NoError(t, err)

	dup, err := guard.Begin(ctx, "key-4", fp)
	require.NoError(t, err)
	assert.Equal(t, DuplicateInFlight, dup.Outcome)
}

func TestAbandonedPendingIsReclaimed(t *testing.T) {
	guard, _ := newTestGuard()
	ctx := context.Background()
	fp := Fingerprint("POST", "/api/pos/sales", "user-1", []byte(`{"total":10}`))

	_, err := guard.Begin(ctx, "key-5", fp)
	require.NoError(t, err)

	// Advance the guard's clock past the abandonment window.
	guard.now = func() time.Time { return time.Now().Add(6 * time.Minute) }

	retry, err := guard.Begin(ctx, "key-5", fp)
	require.NoError(t, err)
	assert.Equal(t, Proceed, retry.Outcome)

	// The record is pending again under the reclaimer; exactly one Complete
	// settles it and the second sees ErrState.
	require.NoError(t, guard.Complete(ctx, "key-5", "SALE-9"))
	assert.ErrorIs(t, guard.Complete(ctx, "key-5", "SALE-10"), ErrState)
}

func TestFailedRecordPermitsRetry(t *testing.T) {
	guard, _ := newTestGuard()
	ctx := context.Background()
	fp := Fingerprint("POST", "/api/pos/sales", "user-1", []byte(`{"total":10}`))

	_, err := guard.Begin(ctx, "key-6", fp)
	require.NoError(t, err)
	require.NoError(t, guard.Fail(ctx, "key-6"))

	retry, err := guard.Begin(ctx, "key-6", fp)
	require.NoError(t, err)
	assert.Equal(t, Proceed, retry.Outcome)
}

func TestCompleteWithoutPendingIsStateError(t *testing.T) {
	guard, _ := newTestGuard()
	ctx := context.Background()

	assert.ErrorIs(t, guard.Complete(ctx, "never-begun", "SALE-1"), ErrState)
	assert.ErrorIs(t, guard.Fail(ctx, "never-begun"), ErrState)
}

// End-to-end retry flow: the first call proceeds and completes, the identical
// retry replays SALE-1, and a third call with a different body conflicts.
func TestSaleRetryScenario(t *testing.T) {
	guard, _ := newTestGuard()
	ctx := context.Background()
	body := []byte(`{"items":[{"product_id":"p1","quantity":2}]}`)
	fp := Fingerprint("POST", "/api/pos/sales", "cashier-1", body)

	first, err := guard.Begin(ctx, "sale-123", fp)
	require.NoError(t, err)
	require.Equal(t, Proceed, first.Outcome)
	require.NoError(t, guard.Complete(ctx, "sale-123", "SALE-1"))

	second, err := guard.Begin(ctx, "sale-123", fp)
	require.NoError(t, err)
	assert.Equal(t, DuplicateCompleted, second.Outcome)
	assert.Equal(t, "SALE-1", second.ResultReference)

	otherBody := Fingerprint("POST", "/api/pos/sales", "cashier-1", []byte(`{"items":[]}`))
	third, err := guard.Begin(ctx, "sale-123", otherBody)
	require.NoError(t, err)
	assert.Equal(t, Conflict, third.Outcome)
}

func TestDeleteExpiredKeepsPendingAndRecent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	old := time.Now().Add(-48 * time.Hour)

	require.NoError(t, store.Insert(ctx, newPendingRecord("old-done", "fp", old)))
	_, err := store.Complete(ctx, "old-done", "SALE-1", old)
	require.NoError(t, err)

	// Old but still pending: the reclaim path owns it, the sweeper must not.
	require.NoError(t, store.Insert(ctx, newPendingRecord("old-pending", "fp", old)))

	require.NoError(t, store.Insert(ctx, newPendingRecord("fresh-done", "fp", time.Now())))
	_, err = store.Fail(ctx, "fresh-done", time.Now())
	require.NoError(t, err)

	n, err := store.DeleteExpired(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = store.Find(ctx, "old-done")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Find(ctx, "old-pending")
	assert.NoError(t, err)
	_, err = store.Find(ctx, "fresh-done")
	assert.NoError(t, err)
}

func TestFingerprintIsStableAndScoped(t *testing.T) {
	body := []byte(`{"total":10}`)
	a := Fingerprint("POST", "/api/pos/sales", "user-1", body)
	b := Fingerprint("POST", "/api/pos/sales", "user-1", []byte(`{"total":10}`))
	c := Fingerprint("POST", "/api/pos/sales", "user-2", body)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c, "fingerprints are scoped per user")
	assert.Len(t, a, 64)
}
