// Package auth implements password hashing and the signed session cookie.
package auth

import (
	"time"

	"github.com/dmitrijs2005/gophjokes/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultMaxAge is the session lifetime used when none is configured.
const DefaultMaxAge = 7 * 24 * time.Hour

// Session is the server-issued payload carried in the cookie.
type Session struct {
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Claims is the JWT body of a session cookie.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

// SessionCodec signs and verifies session cookie values with HMAC-SHA256.
type SessionCodec struct {
	secret     []byte
	maxAge     time.Duration
	cookieName string
	secure     bool
	now        func() time.Time
	parser     *jwt.Parser
}

// Option customizes a SessionCodec.
type Option func(*SessionCodec)

// WithCookieName overrides the cookie name.
func WithCookieName(name string) Option {
	return func(c *SessionCodec) { c.cookieName = name }
}

// WithSecure sets the Secure cookie attribute. It defaults to true.
func WithSecure(secure bool) Option {
	return func(c *SessionCodec) { c.secure = secure }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *SessionCodec) { c.now = now }
}

// NewSessionCodec returns a codec signing with secret. A non-positive maxAge
// falls back to DefaultMaxAge.
func NewSessionCodec(secret []byte, maxAge time.Duration, opts ...Option) (*SessionCodec, error) {
	if len(secret) == 0 {
		return nil, common.ErrMissingSecret
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	c := &SessionCodec{
		secret:     append([]byte(nil), secret...),
		maxAge:     maxAge,
		cookieName: common.SessionCookieName,
		secure:     true,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(func() time.Time { return c.now() }),
	)
	return c, nil
}

// MaxAge returns the configured session lifetime.
func (c *SessionCodec) MaxAge() time.Duration {
	return c.maxAge
}

// Encode signs a session for s.UserID. IssuedAt and ExpiresAt are set from
// the codec clock; the values passed in s are ignored.
func (c *SessionCodec) Encode(s Session) (string, error) {
	if s.UserID == "" {
		return "", common.ErrorUnauthorized
	}

	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.maxAge)),
		},
		UserID: s.UserID,
	})

	return token.SignedString(c.secret)
}

// Decode verifies value and returns its session. Any malformed, tampered,
// expired or foreign-key-signed value yields (Session{}, false).
func (c *SessionCodec) Decode(value string) (Session, bool) {
	if value == "" {
		return Session{}, false
	}

	claims := &Claims{}
	token, err := c.parser.ParseWithClaims(value, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil || !token.Valid || claims.UserID == "" {
		return Session{}, false
	}

	s := Session{UserID: claims.UserID}
	if claims.IssuedAt != nil {
		s.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, true
}
