package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"writing_marketplace/cache"
	"writing_marketplace/constants"
	"writing_marketplace/helper"
	"writing_marketplace/model"
	"writing_marketplace/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type revokedStore struct {
	cache.NoopStore
	jti string
}

func (s revokedStore) IsTokenBlacklisted(_ context.Context, jti string) (bool, error) {
	return jti == s.jti, nil
}

type countingStore struct {
	cache.NoopStore
	hits int64
}

func (s *countingStore) Allow(_ context.Context, _ string, limit int64, _ time.Duration) (bool, error) {
	s.hits++
	return s.hits <= limit, nil
}

func newTokens() *helper.TokenManager {
	return helper.NewTokenManager("middleware-test-secret-0123456789", "writing-marketplace", time.Hour)
}

func authApp(auth *Auth) *fiber.App {
	app := fiber.New()
	app.Get("/me", auth.Protected(), func(c *fiber.Ctx) error {
		caller, ok := service.CallerFromContext(c.UserContext())
		if !ok {
			return c.SendStatus(fiber.StatusTeapot)
		}
		return c.SendString(string(caller.Role))
	})
	app.Get("/admin", auth.Protected(), RequireRole(model.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/maybe", auth.OptionalAuth(), func(c *fiber.Ctx) error {
		if _, ok := service.CallerFromContext(c.UserContext()); ok {
			return c.SendString("member")
		}
		return c.SendString("guest")
	})
	return app
}

func get(t *testing.T, app *fiber.App, path string, mutate func(*http.Request)) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if mutate != nil {
		mutate(req)
	}
	res, err := app.Test(req)
	require.NoError(t, err)
	return res
}

func TestProtected(t *testing.T) {
	tokens := newTokens()
	token, claims, err := tokens.Issue(model.TokenClaim{AccountID: uuid.New(), Role: model.RoleClient, Email: "a@example.com"})
	require.NoError(t, err)
	app := authApp(NewAuth(tokens, cache.NoopStore{}, zap.NewNop()))

	assert.Equal(t, fiber.StatusUnauthorized, get(t, app, "/me", nil).StatusCode)

	res := get(t, app, "/me", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) })
	assert.Equal(t, fiber.StatusOK, res.StatusCode)

	res = get(t, app, "/me", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: constants.SESSION_COOKIE, Value: token})
	})
	assert.Equal(t, fiber.StatusOK, res.StatusCode)

	res = get(t, app, "/admin", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) })
	assert.Equal(t, fiber.StatusForbidden, res.StatusCode)

	revoked := authApp(NewAuth(tokens, revokedStore{jti: claims.ID}, zap.NewNop()))
	res = get(t, revoked, "/me", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) })
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
}

func TestProtectedRejectsForeignToken(t *testing.T) {
	other := helper.NewTokenManager("some-other-secret-0123456789abcd", "writing-marketplace", time.Hour)
	token, _, err := other.Issue(model.TokenClaim{AccountID: uuid.New(), Role: model.RoleAdmin})
	require.NoError(t, err)

	app := authApp(NewAuth(newTokens(), cache.NoopStore{}, zap.NewNop()))
	res := get(t, app, "/admin", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) })
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
}

func TestOptionalAuth(t *testing.T) {
	tokens := newTokens()
	token, _, err := tokens.Issue(model.TokenClaim{AccountID: uuid.New(), Role: model.RoleClient})
	require.NoError(t, err)
	app := authApp(NewAuth(tokens, cache.NoopStore{}, zap.NewNop()))

	res := get(t, app, "/maybe", func(r *http.Request) { r.Header.Set("Authorization", "Bearer garbage") })
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	body, _ := io.ReadAll(res.Body)
	assert.Equal(t, "guest", string(body))

	res = get(t, app, "/maybe", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) })
	body, _ = io.ReadAll(res.Body)
	assert.Equal(t, "member", string(body))
}

func TestRateLimit(t *testing.T) {
	store := &countingStore{}
	app := fiber.New()
	app.Post("/sign-in", RateLimit(store, "sign-in", 2, time.Minute, zap.NewNop()), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	for i, want := range []int{fiber.StatusOK, fiber.StatusOK, fiber.StatusTooManyRequests} {
		res, err := app.Test(httptest.NewRequest(http.MethodPost, "/sign-in", nil))
		require.NoError(t, err)
		assert.Equal(t, want, res.StatusCode, "request %d", i)
	}
}
