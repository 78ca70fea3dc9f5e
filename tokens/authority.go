// Package tokens issues and verifies the credential pair used by the API:
// a short-lived self-verifying access token checked on every protected
// request, and a longer-lived refresh token whose store record makes it
// revocable. No other component mints tokens.
package tokens

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/OKB20/spos-api/models"
)

// Token validation failures. Handlers must collapse all of these into a
// uniform 401 so callers cannot distinguish signature from expiry failures.
var (
	ErrExpired   = errors.New("tokens: token expired")
	ErrMalformed = errors.New("tokens: token malformed")
	ErrSignature = errors.New("tokens: invalid signature")
	ErrRevoked   = errors.New("tokens: refresh token revoked")
	ErrWrongType = errors.New("tokens: wrong token type")
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"

	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Claims is the JWT payload for both token types. Type distinguishes access
// from refresh so one can never stand in for the other.
type Claims struct {
	Role string `json:"role,omitempty"`
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// Pair is what login, registration, and refresh hand back to the client.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"` // access token lifetime, seconds
}

// Authority signs, verifies, refreshes, and revokes token pairs. Validation of
// access tokens is a pure function of the token, the clock, and the secret;
// refresh operations additionally consult the store for revocation state.
type Authority struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	store      Store
	now        func() time.Time
}

func NewAuthority(secret []byte, store Store, accessTTL, refreshTTL time.Duration) *Authority {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &Authority{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		store:      store,
		now:        time.Now,
	}
}

// Issue mints a fresh pair for the subject and persists the refresh token's
// revocation record.
func (a *Authority) Issue(ctx context.Context, subject, role string) (Pair, error) {
	return a.issue(ctx, subject, role, "")
}

// issue is the shared mint path; rotatedFrom carries the replaced token's jti
// on rotation, empty on plain issue.

func (a *Authority) issue(ctx context.Context, subject, role, rotatedFrom string) (Pair, error) {
	now := a.now()

	access, err := a.sign(subject, role, typeAccess, uuid.NewString(), now, a.accessTTL)
	if err != nil {
		return Pair{}, err
	}

	refreshJTI := uuid.NewString()
	refresh, err := a.sign(subject, role, typeRefresh, refreshJTI, now, a.refreshTTL)
	if err != nil {
		return Pair{}, err
	}

	rec := &models.RefreshToken{
		JTI:         refreshJTI,
		UserId:      subject,
		TokenHash:   hashToken(refresh),
		IssuedAt:    now,
		ExpiresAt:   now.Add(a.refreshTTL),
		RotatedFrom: rotatedFrom,
	}
	if err := a.store.Create(ctx, rec); err != nil {
		return Pair{}, err
	}

	return Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(a.accessTTL.Seconds()),
	}, nil
}

// Validate verifies an access token: signature, expiry, and type. No store
// lookup; access tokens are stateless, so the per-request hot path costs no
// round-trip.
func (a *Authority) Validate(accessToken string) (*Claims, error) {
	claims, err := a.parse(accessToken)
	if err != nil {
		return nil, err
	}
	if claims.Type != typeAccess {
		return nil, ErrWrongType
	}
	return claims, nil
}

// Refresh exchanges a valid, unrevoked refresh token for a new pair. Rotation
// is single-use: the presented token's record is revoked before the new pair
// is issued, so a replayed token fails with ErrRevoked from then on.
func (a *Authority) Refresh(ctx context.Context, refreshToken string) (Pair, error) {
	claims, err := a.parse(refreshToken)
	if err != nil {
		return Pair{}, err
	}
	if claims.Type != typeRefresh {
		return Pair{}, ErrWrongType
	}

	rec, err := a.store.FindByJTI(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			// Signed by us but never stored (or already garbage-collected):
			// treat as revoked rather than honoring it.
			return Pair{}, ErrRevoked
		}
		return Pair{}, err
	}
	if rec.Revoked() {
		return Pair{}, ErrRevoked
	}
	if rec.TokenHash != hashToken(refreshToken) {
		return Pair{}, ErrRevoked
	}
	if !a.now().Before(rec.ExpiresAt) {
		return Pair{}, ErrExpired
	}

	// Revoke-then-issue: the conditional update only succeeds for one caller,
	// so a concurrently replayed token loses and sees ErrRevoked.
	ok, err := a.store.Revoke(ctx, claims.ID, a.now())
	if err != nil {
		return Pair{}, err
	}
	if !ok {
		return Pair{}, ErrRevoked
	}

	return a.issue(ctx, claims.Subject, claims.Role, claims.ID)
}

// Revoke invalidates a refresh token (logout). Unknown and already-revoked
// tokens are not an error; logout is idempotent.
func (a *Authority) Revoke(ctx context.Context, refreshToken string) error {
	claims, err := a.parse(refreshToken)
	if err != nil {
		return err
	}
	if claims.Type != typeRefresh {
		return ErrWrongType
	}
	_, err = a.store.Revoke(ctx, claims.ID, a.now())
	return err
}

// RevokeAllForUser invalidates every live refresh token of a subject, used on
// password change or account disable.
func (a *Authority) RevokeAllForUser(ctx context.Context, userID string) error {
	return a.store.RevokeAllForUser(ctx, userID, a.now())
}

func (a *Authority) sign(subject, role, tokenType, jti string, now time.Time, ttl time.Duration) (string, error) {
	claims := &Claims{
		Role: role,
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// parse verifies signature and expiry against the authority's clock, mapping
// jwt errors onto the package's closed error set.
func (a *Authority) parse(raw string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	)
	var claims Claims
	token, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrSignature
		default:
			return nil, ErrMalformed
		}
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrMalformed
	}
	return &claims, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
