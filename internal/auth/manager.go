package auth

import (
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Manager gates every mutating endpoint behind the shared affiliate access
// code, and can exchange a valid code for a short-lived session token so the
// dashboard does not have to hold the code in memory for its whole lifetime.
//
// Either credential is accepted on mutating requests; both resolve to the
// same single-tenant identity.
type Manager struct {
	accessCode []byte
	secret     []byte
	issuer     string
	sessionTTL time.Duration
}

type Config struct {
	AccessCode    string
	SessionSecret string
	SessionTTL    time.Duration
}

func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessCode == "" {
		return nil, errors.New("auth: access code is required")
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("auth: session secret is required")
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Manager{
		accessCode: []byte(cfg.AccessCode),
		secret:     []byte(cfg.SessionSecret),
		issuer:     "affiliate-calldesk",
		sessionTTL: ttl,
	}, nil
}

// CheckAccessCode compares in constant time.
func (m *Manager) CheckAccessCode(code string) bool {
	return subtle.ConstantTimeCompare([]byte(code), m.accessCode) == 1
}

type sessionClaims struct {
	jwt.RegisteredClaims
}

// IssueSession mints a session token for a caller who presented a valid
// access code.
func (m *Manager) IssueSession(now time.Time) (string, error) {
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.sessionTTL)),
			ID:        uuid.NewString(),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

// VerifySession checks a session token.
func (m *Manager) VerifySession(token string, now time.Time) error {
	var claims sessionClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(30 * time.Second),
	)
	_, err := parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	})
	return err
}

// Authorize accepts either a body access code or an Authorization header
// bearer session token.
func (m *Manager) Authorize(accessCode, authorizationHeader string, now time.Time) bool {
	if accessCode != "" && m.CheckAccessCode(accessCode) {
		return true
	}
	if tok := BearerToken(authorizationHeader); tok != "" {
		return m.VerifySession(tok, now) == nil
	}
	return false
}

const bearerPrefix = "Bearer "

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if !strings.HasPrefix(header, bearerPrefix) {
		return ""
	}
	return strings.TrimPrefix(header, bearerPrefix)
}
