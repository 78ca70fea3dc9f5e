package tokens

import (
	"context"
	"sync"
	"time"

	"github.com/OKB20/spos-api/models"
)

// MemoryStore is an in-process Store for tests and development.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*models.RefreshToken
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*models.RefreshToken)}
}

func (s *MemoryStore) Create(_ context.Context, rec *models.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *rec
	s.records[rec.JTI] = &clone
	return nil
}

func (s *MemoryStore) FindByJTI(_ context.Context, jti string) (*models.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[jti]
	if !ok {
		return nil, ErrRecordNotFound
	}
	clone := *rec
	return &clone, nil
}

func (s *MemoryStore) Revoke(_ context.Context, jti string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[jti]
	if !ok || rec.RevokedAt != nil {
		return false, nil
	}
	ts := now
	rec.RevokedAt = &ts
	return true, nil
}

func (s *MemoryStore) RevokeAllForUser(_ context.Context, userID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.UserId == userID && rec.RevokedAt == nil {
			ts := now
			rec.RevokedAt = &ts
		}
	}
	return nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for jti, rec := range s.records {
		if rec.ExpiresAt.Before(cutoff) {
			delete(s.records, jti)
			n++
		}
	}
	return n, nil
}
