package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/OKB20/spos-api/tokens"
)

func newAuthApp(t *testing.T, authority *tokens.Authority) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/protected", RequireAuth(authority), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id": c.Locals("userID"),
			"role":    c.Locals("role"),
		})
	})
	return app
}

func TestRequireAuthValidToken(t *testing.T) {
	authority := tokens.NewAuthority([]byte("test-secret"), tokens.NewMemoryStore(), 15*time.Minute, 7*24*time.Hour)
	app := newAuthApp(t, authority)

	pair, err := authority.Issue(context.Background(), "user-1", "manager")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequireAuthMissingHeader(t *testing.T) {
	authority := tokens.NewAuthority([]byte("test-secret"), tokens.NewMemoryStore(), 15*time.Minute, 7*24*time.Hour)
	app := newAuthApp(t, authority)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/protected", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAuthRejectsForgedToken(t *testing.T) {
	authority := tokens.NewAuthority([]byte("test-secret"), tokens.NewMemoryStore(), 15*time.Minute, 7*24*time.Hour)
	forger := tokens.NewAuthority([]byte("other-secret"), tokens.NewMemoryStore(), 15*time.Minute, 7*24*time.Hour)
	app := newAuthApp(t, authority)

	pair, err := forger.Issue(context.Background(), "user-1", "admin")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAuthRejectsGarbage(t *testing.T) {
	authority := tokens.NewAuthority([]byte("test-secret"), tokens.NewMemoryStore(), 15*time.Minute, 7*24*time.Hour)
	app := newAuthApp(t, authority)

	for _, header := range []string{"Bearer not.a.jwt", "Basic abc123", "Bearer "} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", header)

		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, "header %q", header)
	}
}

func TestRequireAuthRejectsRefreshToken(t *testing.T) {
	authority := tokens.NewAuthority([]byte("test-secret"), tokens.NewMemoryStore(), 15*time.Minute, 7*24*time.Hour)
	app := newAuthApp(t, authority)

	pair, err := authority.Issue(context.Background(), "user-1", "employee")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
