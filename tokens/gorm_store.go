package tokens

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/OKB20/spos-api/models"
)

// GormStore keeps refresh-token records in Postgres.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Create(ctx context.Context, rec *models.RefreshToken) error {
	return s.db.WithContext(ctx).Create(rec).Error
}

func (s *GormStore) FindByJTI(ctx context.Context, jti string) (*models.RefreshToken, error) {
	var rec models.RefreshToken
	if err := s.db.WithContext(ctx).Where("jti = ?", jti).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (s *GormStore) Revoke(ctx context.Context, jti string, now time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("jti = ? AND revoked_at IS NULL", jti).
		Update("revoked_at", now)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) RevokeAllForUser(ctx context.Context, userID string, now time.Time) error {
	return s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", now).Error
}

func (s *GormStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at < ?", cutoff).
		Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}
