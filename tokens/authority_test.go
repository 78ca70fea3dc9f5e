package tokens

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OKB20/spos-api/models"
)

var testSecret = []byte("test-secret-not-for-production")

func newTestAuthority() *Authority {
	return NewAuthority(testSecret, NewMemoryStore(), 15*time.Minute, 7*24*time.Hour)
}

func TestIssueAndValidate(t *testing.T) {
	auth := newTestAuthority()

	pair, err := auth.Issue(context.Background(), "user-1", models.RoleEmployee)
	require.NoError(t, err)
	assert.Equal(t, "bearer", pair.TokenType)
	assert.Equal(t, int64(900), pair.ExpiresIn)
	assert.NotEmpty(t, pair.RefreshToken)

	claims, err := auth.Validate(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, models.RoleEmployee, claims.Role)
}

func TestValidateRejectsExpiredStrictly(t *testing.T) {
	auth := newTestAuthority()

	pair, err := auth.Issue(context.Background(), "user-1", models.RoleEmployee)
	require.NoError(t, err)

	// One second past expiry is already too late; there is no grace window.
	auth.now = func() time.Time { return time.Now().Add(15*time.Minute + time.Second) }
	_, err = auth.Validate(pair.AccessToken)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestValidateRejectsMalformedAndForged(t *testing.T) {
	auth := newTestAuthority()

	_, err := auth.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrMalformed)

	forger := NewAuthority([]byte("other-secret"), NewMemoryStore(), 15*time.Minute, time.Hour)
	forged, err := forger.Issue(context.Background(), "user-1", models.RoleAdmin)
	require.NoError(t, err)
	_, err = auth.Validate(forged.AccessToken)
	assert.ErrorIs(t, err, ErrSignature)
}

func TestRefreshTokenCannotAuthorizeRequests(t *testing.T) {
	auth := newTestAuthority()

	pair, err := auth.Issue(context.Background(), "user-1", models.RoleEmployee)
	require.NoError(t, err)

	// A refresh token presented as a Bearer credential must be rejected.
	_, err = auth.Validate(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrWrongType)

	// And an access token cannot drive the refresh exchange.
	_, err = auth.Refresh(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestRefreshRotatesAndRevokesOldToken(t *testing.T) {
	auth := newTestAuthority()
	ctx := context.Background()

	pair, err := auth.Issue(ctx, "user-1", models.RoleManager)
	require.NoError(t, err)

	rotated, err := auth.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	claims, err := auth.Validate(rotated.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, models.RoleManager, claims.Role)

	// Single-use rotation: replaying the old refresh token fails.
	_, err = auth.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrRevoked)

	// The rotated token still works.
	_, err = auth.Refresh(ctx, rotated.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshAfterExpiryFails(t *testing.T) {
	auth := NewAuthority(testSecret, NewMemoryStore(), 15*time.Minute, time.Hour)
	ctx := context.Background()

	pair, err := auth.Issue(ctx, "user-1", models.RoleEmployee)
	require.NoError(t, err)

	auth.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = auth.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestRevokeOnLogout(t *testing.T) {
	auth := newTestAuthority()
	ctx := context.Background()

	pair, err := auth.Issue(ctx, "user-1", models.RoleEmployee)
	require.NoError(t, err)

	require.NoError(t, auth.Revoke(ctx, pair.RefreshToken))
	_, err = auth.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrRevoked)

	// Logout is idempotent.
	require.NoError(t, auth.Revoke(ctx, pair.RefreshToken))
}

func TestRevokeAllForUser(t *testing.T) {
	auth := newTestAuthority()
	ctx := context.Background()

	a, err := auth.Issue(ctx, "user-1", models.RoleEmployee)
	require.NoError(t, err)
	b, err := auth.Issue(ctx, "user-1", models.RoleEmployee)
	require.NoError(t, err)
	other, err := auth.Issue(ctx, "user-2", models.RoleEmployee)
	require.NoError(t, err)

	require.NoError(t, auth.RevokeAllForUser(ctx, "user-1"))

	_, err = auth.Refresh(ctx, a.RefreshToken)
	assert.ErrorIs(t, err, ErrRevoked)
	_, err = auth.Refresh(ctx, b.RefreshToken)
	assert.ErrorIs(t, err, ErrRevoked)
	_, err = auth.Refresh(ctx, other.RefreshToken)
	assert.NoError(t, err)
}

func TestDeleteExpiredRemovesOnlyPastExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Create(ctx, &models.RefreshToken{
		JTI: "dead", UserId: "user-1", ExpiresAt: now.Add(-time.Hour),
	}))
	require.NoError(t, store.Create(ctx, &models.RefreshToken{
		JTI: "live", UserId: "user-1", ExpiresAt: now.Add(time.Hour),
	}))

	n, err := store.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = store.FindByJTI(ctx, "dead")
	assert.ErrorIs(t, err, ErrRecordNotFound)
	_, err = store.FindByJTI(ctx, "live")
	assert.NoError(t, err)
}

// A pair issued at t0 no longer validates at t0+16m, but the refresh flow
// succeeds and the new access token is valid for 15m from refresh time.
func TestExpiredAccessRefreshedIntoFreshPair(t *testing.T) {
	auth := newTestAuthority()
	ctx := context.Background()

	issued := time.Now()
	pair, err := auth.Issue(ctx, "user-1", models.RoleEmployee)
	require.NoError(t, err)

	auth.now = func() time.Time { return issued.Add(16 * time.Minute) }
	_, err = auth.Validate(pair.AccessToken)
	require.ErrorIs(t, err, ErrExpired)

	fresh, err := auth.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	claims, err := auth.Validate(fresh.AccessToken)
	require.NoError(t, err)
	wantExpiry := issued.Add(16*time.Minute + 15*time.Minute)
	assert.WithinDuration(t, wantExpiry, claims.ExpiresAt.Time, 2*time.Second)
}
