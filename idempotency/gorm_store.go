package idempotency

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/OKB20/spos-api/models"
)

// GormStore persists idempotency records in Postgres. The unique index on
// idempotency_records.key (see database.AutoMigrate) carries the atomicity:
// a racing Insert fails with a unique violation, never a second row. Requires
// gorm.Config{TranslateError: true} so the violation surfaces as
// gorm.ErrDuplicatedKey.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Insert(ctx context.Context, rec *models.IdempotencyRecord) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrKeyExists
		}
		return err
	}
	return nil
}

func (s *GormStore) Find(ctx context.Context, key string) (*models.IdempotencyRecord, error) {
	var rec models.IdempotencyRecord
	if err := s.db.WithContext(ctx).Where("key = ?", key).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (s *GormStore) Reclaim(ctx context.Context, key, fingerprint string, cutoff, now time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.IdempotencyRecord{}).
		Where("key = ? AND fingerprint = ? AND (status = ? OR (status = ? AND created_at < ?))",
			key, fingerprint, failedStatus, pendingStatus, cutoff).
		Updates(map[string]any{
			"status":           pendingStatus,
			"created_at":       now,
			"completed_at":     nil,
			"result_reference": "",
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) Complete(ctx context.Context, key, resultReference string, now time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.IdempotencyRecord{}).
		Where("key = ? AND status = ?", key, pendingStatus).
		Updates(map[string]any{
			"status":           completedStatus,
			"result_reference": resultReference,
			"completed_at":     now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) Fail(ctx context.Context, key string, now time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.IdempotencyRecord{}).
		Where("key = ? AND status = ?", key, pendingStatus).
		Update("status", failedStatus)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("status <> ? AND created_at < ?", pendingStatus, cutoff).
		Delete(&models.IdempotencyRecord{})
	return res.RowsAffected, res.Error
}
