package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/OKB20/spos-api/models"
)

// MemoryStore is an in-process Store with the same atomicity contract as the
// Postgres store. Useful for tests and single-node development; production
// deployments with multiple server processes need the database-backed store.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*models.IdempotencyRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*models.IdempotencyRecord)}
}

func (s *MemoryStore) Insert(_ context.Context, rec *models.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.Key]; ok {
		return ErrKeyExists
	}
	clone := *rec
	s.records[rec.Key] = &clone
	return nil
}

func (s *MemoryStore) Find(_ context.Context, key string) (*models.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *rec
	return &clone, nil
}

func (s *MemoryStore) Reclaim(_ context.Context, key, fingerprint string, cutoff, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok || rec.Fingerprint != fingerprint {
		return false, nil
	}
	reclaimable := rec.Status == failedStatus ||
		(rec.Status == pendingStatus && rec.CreatedAt.Before(cutoff))
	if !reclaimable {
		return false, nil
	}
	rec.Status = pendingStatus
	rec.CreatedAt = now
	rec.CompletedAt = nil
	rec.ResultReference = ""
	return true, nil
}

func (s *MemoryStore) Complete(_ context.Context, key, resultReference string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok || rec.Status != pendingStatus {
		return false, nil
	}
	rec.Status = completedStatus
	rec.ResultReference = resultReference
	rec.CompletedAt = &now
	return true, nil
}

func (s *MemoryStore) Fail(_ context.Context, key string, _ time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok || rec.Status != pendingStatus {
		return false, nil
	}
	rec.Status = failedStatus
	return true, nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for key, rec := range s.records {
		if rec.Status != pendingStatus && rec.CreatedAt.Before(cutoff) {
			delete(s.records, key)
			n++
		}
	}
	return n, nil
}
