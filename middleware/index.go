package middleware

import (
	"errors"
	"strings"
	"time"

	"writing_marketplace/cache"
	"writing_marketplace/constants"
	"writing_marketplace/helper"
	"writing_marketplace/model"
	"writing_marketplace/service"
	"writing_marketplace/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var errNoToken = errors.New("no token")

// Auth builds the session middlewares around one token manager.
type Auth struct {
	tokens *helper.TokenManager
	store  cache.Store
	log    *zap.Logger
}

func NewAuth(tokens *helper.TokenManager, store cache.Store, log *zap.Logger) *Auth {
	return &Auth{tokens: tokens, store: store, log: log}
}

func bearer(c *fiber.Ctx) string {
	token := c.Cookies(constants.SESSION_COOKIE)
	if token == "" {
		// check header Authorization: Bearer xxx
		auth := c.Get(fiber.HeaderAuthorization)
		if strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		}
	}
	return token
}

func (a *Auth) session(c *fiber.Ctx) (*helper.SessionClaims, error) {
	token := bearer(c)
	if token == "" {
		return nil, errNoToken
	}
	claims, err := a.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	revoked, err := a.store.IsTokenBlacklisted(c.UserContext(), claims.ID)
	if err != nil {
		a.log.Warn("token blacklist unavailable", zap.Error(err))
	} else if revoked {
		return nil, errors.New("token revoked")
	}
	return claims, nil
}

func attach(c *fiber.Ctx, claims *helper.SessionClaims) {
	helper.SetSession(c, claims)
	c.SetUserContext(service.WithCaller(c.UserContext(), claims.TokenClaim()))
}

// Protected rejects requests without a valid, unrevoked session.
func (a *Auth) Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := a.session(c)
		if errors.Is(err, errNoToken) {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.UNAUTHORIZED, err)
		}
		if errors.Is(err, jwt.ErrTokenExpired) {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.SESSION_EXPIRED, err)
		}
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.UNAUTHORIZED, err)
		}
		attach(c, claims)
		return c.Next()
	}
}

// OptionalAuth attaches the session when one is present and valid, and
// otherwise lets the request through as a guest.
func (a *Auth) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if claims, err := a.session(c); err == nil {
			attach(c, claims)
		}
		return c.Next()
	}
}

// RequireRole must run after Protected.
func RequireRole(roles ...model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, role, ok := helper.GetAccountID(c)
		if !ok {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.UNAUTHORIZED, errNoToken)
		}
		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}
		msg := constants.FORBIDDEN
		if len(roles) == 1 && roles[0] == model.RoleAdmin {
			msg = constants.NOT_ADMIN
		}
		return utils.ErrorResponse(c, fiber.StatusForbidden, msg, errors.New("role not allowed"))
	}
}

// RateLimit allows limit requests per client IP in each window. A store
// failure lets the request through.
func RateLimit(store cache.Store, prefix string, limit int64, window time.Duration, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		allowed, err := store.Allow(c.UserContext(), prefix+":"+c.IP(), limit, window)
		if err != nil {
			log.Warn("rate limiter unavailable", zap.String("prefix", prefix), zap.Error(err))
			return c.Next()
		}
		if !allowed {
			return utils.ErrorResponse(c, fiber.StatusTooManyRequests, constants.TOO_MANY_REQUESTS, errors.New("rate limited"))
		}
		return c.Next()
	}
}
