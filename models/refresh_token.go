package models

import "time"

// RefreshToken is the server-side record backing a refresh JWT. The JWT itself
// is self-verifying; this row exists so long-lived tokens can be revoked and
// rotated. TokenHash stores sha256(token), never the token itself.
type RefreshToken struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	JTI         string     `json:"jti" gorm:"size:36;uniqueIndex;not null"`
	UserId      string     `json:"user_id" gorm:"size:128;not null;index"`
	TokenHash   string     `json:"-" gorm:"size:64;not null"`
	IssuedAt    time.Time  `json:"issued_at"`
	ExpiresAt   time.Time  `json:"expires_at" gorm:"index"`
	RevokedAt   *time.Time `json:"revoked_at"`
	RotatedFrom string     `json:"rotated_from" gorm:"size:36"` // jti of the token this one replaced
	CreatedAt   time.Time  `json:"created_at"`
}

// Revoked reports whether the record has been invalidated.
func (t *RefreshToken) Revoked() bool {
	return t.RevokedAt != nil
}
