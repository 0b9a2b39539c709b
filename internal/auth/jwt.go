package auth

import (
	"errors"
	"time"

	"callgate/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Manager issues and verifies signed web-session tokens. Sessions are
// stateless on the admin side; user sessions are additionally persisted
// so location reports can be resolved back to an account.
type Manager struct {
	secret   []byte
	adminTTL time.Duration
	userTTL  time.Duration
}

func NewManager(cfg config.AuthConfig) (*Manager, error) {
	if cfg.SessionSecret == "" {
		return nil, errors.New("SESSION_SECRET is required")
	}
	return &Manager{
		secret:   []byte(cfg.SessionSecret),
		adminTTL: cfg.AdminSessionTTL,
		userTTL:  cfg.UserSessionTTL,
	}, nil
}

// IssueSession signs a session token for the given account.
func (m *Manager) IssueSession(now time.Time, userID string, typ SessionType) (string, error) {
	if userID == "" {
		return "", errors.New("auth: user_id required")
	}
	ttl := m.userTTL
	if typ == SessionTypeAdmin {
		ttl = m.adminTTL
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		UserID:      userID,
		SessionType: typ,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

// Verify parses and validates a session token of the expected type.
func (m *Manager) Verify(tokenString string, expected SessionType, now time.Time) (Claims, error) {
	var claims Claims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(30*time.Second), // clock skew tolerance
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)

	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return Claims{}, err
	}

	if claims.SessionType != expected {
		return Claims{}, errors.New("session_type mismatch")
	}
	if claims.UserID == "" {
		return Claims{}, errors.New("user_id missing")
	}
	return claims, nil
}
