// Package utils provides session token and password hashing helpers.
package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verification failures.  Verify always returns one of these (possibly
// wrapped) so callers can answer 401 without inspecting library errors.
var (
	ErrTokenMalformed = errors.New("session token malformed")
	ErrTokenSignature = errors.New("session token signature invalid")
	ErrTokenExpired   = errors.New("session token expired")
)

// SessionClaims is the identity carried by a session token.
type SessionClaims struct {
	UserID string // decimal user id, the JWT subject
	Email  string
}

// sessionJWT is the wire form of SessionClaims.
type sessionJWT struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// SessionTokens issues and verifies HS256 session tokens with a single
// server-held secret.  A zero TTL issues tokens without an exp claim; such
// tokens stay valid until the secret changes.
type SessionTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionTokens builds a token service.  secret must not be empty.
func NewSessionTokens(secret string, ttl time.Duration) (*SessionTokens, error) {
	if secret == "" {
		return nil, errors.New("session token secret is empty")
	}
	return &SessionTokens{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs claims.
func (s *SessionTokens) Issue(claims SessionClaims) (string, error) {
	if claims.UserID == "" {
		return "", errors.New("session claims without user id")
	}
	now := s.now().UTC()
	rc := jwt.RegisteredClaims{
		Subject:  claims.UserID,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if s.ttl > 0 {
		rc.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionJWT{Email: claims.Email, RegisteredClaims: rc})
	return t.SignedString(s.secret)
}

// Verify checks the signature (and expiry when present) of raw and returns
// the claims it carries.  It has no side effects.
func (s *SessionTokens) Verify(raw string) (SessionClaims, error) {
	var c sessionJWT
	tok, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case err == nil && tok.Valid:
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return SessionClaims{}, ErrTokenSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return SessionClaims{}, ErrTokenExpired
	default:
		return SessionClaims{}, ErrTokenMalformed
	}
	if c.Subject == "" {
		return SessionClaims{}, ErrTokenMalformed
	}
	return SessionClaims{UserID: c.Subject, Email: c.Email}, nil
}
