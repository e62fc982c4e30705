// Package token issues and validates the HS256 bearer tokens used by the API.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v5"
	"github.com/messismo/bar/internal/clock"
	"github.com/messismo/bar/internal/config"
	"go.uber.org/zap"
)

const issuer = "bar"

var ErrInvalidToken = errors.New("invalid_token")

type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// UserID parses the subject back into a snowflake id.
func (c *Claims) UserID() (snowflake.ID, error) {
	return snowflake.ParseString(c.Subject)
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

// NewManager builds a Manager from AUTH_JWT_SECRET. Outside production an
// empty secret is replaced by a random one, which invalidates tokens on restart.
func NewManager(cfg config.Config, clk clock.Clock, log *zap.Logger) (*Manager, error) {
	secret := []byte(cfg.AuthJWTSecret)
	if len(secret) == 0 {
		if cfg.IsProduction() {
			return nil, errors.New("AUTH_JWT_SECRET is required in production")
		}
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, err
		}
		secret = []byte(hex.EncodeToString(buf))
		if log != nil {
			log.Warn("AUTH_JWT_SECRET not set, using an ephemeral signing key")
		}
	}
	return New(secret, cfg.AuthTokenTTL, clk), nil
}

func New(secret []byte, ttl time.Duration, clk clock.Clock) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	return &Manager{secret: secret, ttl: ttl, clock: clk}
}

func (m *Manager) Issue(userID snowflake.ID, email, role string) (string, time.Time, error) {
	now := m.clock.Now()
	expiresAt := now.Add(m.ttl)
	claims := Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(userID.Int64(), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (m *Manager) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.clock.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
