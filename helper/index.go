package helper

import (
	"errors"
	"fmt"
	"time"

	"writing_marketplace/model"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

type SessionClaims struct {
	Role  model.Role `json:"role"`
	Email string     `json:"email"`
	jwt.RegisteredClaims
}

func (c *SessionClaims) AccountID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

func (c *SessionClaims) TokenClaim() model.TokenClaim {
	id, _ := c.AccountID()
	return model.TokenClaim{AccountID: id, Role: c.Role, Email: c.Email}
}

// TokenManager signs and verifies HS256 session tokens.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

func (m *TokenManager) Issue(claim model.TokenClaim) (string, *SessionClaims, error) {
	now := m.now()
	claims := &SessionClaims{
		Role:  claim.Role,
		Email: claim.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   claim.AccountID.String(),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}
	return signed, claims, nil
}

func (m *TokenManager) Parse(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if _, err := claims.AccountID(); err != nil {
		return nil, fmt.Errorf("invalid subject: %w", err)
	}
	return claims, nil
}

// GetSession returns the claims stored by the auth middleware, if any.
func GetSession(c *fiber.Ctx) (*SessionClaims, bool) {
	claims, ok := c.Locals("session").(*SessionClaims)
	return claims, ok && claims != nil
}

func SetSession(c *fiber.Ctx, claims *SessionClaims) {
	c.Locals("session", claims)
}

// GetAccountID is GetSession reduced to the caller id. ok is false for
// anonymous requests.
func GetAccountID(c *fiber.Ctx) (uuid.UUID, model.Role, bool) {
	claims, ok := GetSession(c)
	if !ok {
		return uuid.Nil, "", false
	}
	id, err := claims.AccountID()
	if err != nil {
		return uuid.Nil, "", false
	}
	return id, claims.Role, true
}
