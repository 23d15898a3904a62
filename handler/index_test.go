package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"writing_marketplace/constants"
	"writing_marketplace/service"
	"writing_marketplace/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRespondErrorMapping(t *testing.T) {
	h := New(Deps{Log: zap.NewNop(), SessionTTL: time.Hour})

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"wrapped not found", fmt.Errorf("load: %w", service.ErrOrderNotFound), fiber.StatusNotFound, constants.ORDER_NOT_FOUND},
		{"already paid", service.ErrAlreadyPaid, fiber.StatusConflict, constants.ORDER_ALREADY_PAID},
		{"bad transition", service.ErrInvalidTransition, fiber.StatusUnprocessableEntity, constants.INVALID_TRANSITION},
		{"declined", service.ErrPaymentDeclined, fiber.StatusPaymentRequired, constants.PAYMENT_DECLINED},
		{"amount mismatch", service.ErrAmountMismatch, fiber.StatusConflict, constants.AMOUNT_MISMATCH},
		{"rate limited", service.ErrRateLimited, fiber.StatusTooManyRequests, constants.TOO_MANY_REQUESTS},
		{"provider", fmt.Errorf("%w: paypal 503", service.ErrProvider), fiber.StatusBadGateway, constants.ERROR_PROVIDER},
		{"unexpected", errors.New("disk on fire"), fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return h.respondError(c, tt.err) })

			res, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, res.StatusCode)

			var body struct {
				Message string `json:"message"`
				Error   any    `json:"error"`
			}
			require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
			assert.Equal(t, tt.message, body.Message)
			if tt.status == fiber.StatusInternalServerError {
				assert.Nil(t, body.Error)
			}
		})
	}
}

func TestRespondErrorFieldErrors(t *testing.T) {
	h := New(Deps{Log: zap.NewNop()})
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return h.respondError(c, validate.FieldErrors{"pages": "must be at least 1"})
	})

	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)

	var body struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "must be at least 1", body.Fields["pages"])
}

func TestSessionCookieFlags(t *testing.T) {
	tests := []struct {
		secure   bool
		sameSite http.SameSite
	}{
		{false, http.SameSiteLaxMode},
		{true, http.SameSiteNoneMode},
	}
	for _, tt := range tests {
		h := New(Deps{Log: zap.NewNop(), Secure: tt.secure, SessionTTL: 2 * time.Hour})
		app := fiber.New()
		app.Get("/", func(c *fiber.Ctx) error {
			h.setSessionCookie(c, "tok", time.Now().Add(2*time.Hour))
			return c.SendStatus(fiber.StatusNoContent)
		})

		res, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		require.Len(t, res.Cookies(), 1)
		c := res.Cookies()[0]
		assert.Equal(t, constants.SESSION_COOKIE, c.Name)
		assert.Equal(t, "tok", c.Value)
		assert.True(t, c.HttpOnly)
		assert.Equal(t, tt.secure, c.Secure)
		assert.Equal(t, tt.sameSite, c.SameSite)
		assert.Equal(t, 7200, c.MaxAge)
	}
}
