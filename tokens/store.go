package tokens

import (
	"context"
	"errors"
	"time"

	"github.com/OKB20/spos-api/models"
)

// ErrRecordNotFound is returned by Store.FindByJTI for an unknown jti.
var ErrRecordNotFound = errors.New("tokens: refresh token record not found")

// Store persists refresh-token revocation state. Revoke must be a conditional
// single-statement update (revoked_at set only when currently null) so that
// concurrent rotation attempts for the same token resolve to one winner.
type Store interface {
	Create(ctx context.Context, rec *models.RefreshToken) error
	FindByJTI(ctx context.Context, jti string) (*models.RefreshToken, error)
	// Revoke marks the token unusable. Returns false when it was already
	// revoked or does not exist.
	Revoke(ctx context.Context, jti string, now time.Time) (bool, error)
	RevokeAllForUser(ctx context.Context, userID string, now time.Time) error
	// DeleteExpired garbage-collects records past their expiry.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
