package auth

import (
	"fmt"
	"time"
)

// TokenKind distinguishes tokens that share the same encoding
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
	TokenKindEmail   TokenKind = "email"
)

// emailTokenTTL is fixed regardless of configuration
const emailTokenTTL = 7 * 24 * time.Hour

// TokenClaims are the decoded claims of a verified token
type TokenClaims struct {
	ID        string    `json:"jti"`
	Subject   string    `json:"sub"`
	Kind      TokenKind `json:"token_type"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// TokenService is a token encoding backend.
// Implementations include JWTService (HMAC JWS) and PasetoService (PASETO v4.local).
type TokenService interface {
	// Issue creates a token for subject that expires ttl from now
	Issue(subject string, kind TokenKind, ttl time.Duration) (string, error)
	// Verify validates the token and returns its claims. It fails with
	// ErrInvalidToken for malformed, tampered or subject-less tokens and with
	// ErrExpiredToken once the expiry has passed.
	Verify(token string) (*TokenClaims, error)
}

// TokenManager applies the token policy (default lifetimes, kinds) on top of a backend
type TokenManager struct {
	backend    TokenService
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenManager(backend TokenService, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		backend:    backend,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// AccessTTL returns the default access token lifetime
func (m *TokenManager) AccessTTL() time.Duration {
	return m.accessTTL
}

// IssueAccess issues an access token. A zero ttl uses the configured default.
func (m *TokenManager) IssueAccess(subject string, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = m.accessTTL
	}
	return m.issue(subject, TokenKindAccess, ttl)
}

// IssueRefresh issues a refresh token. A zero ttl uses the configured default.
func (m *TokenManager) IssueRefresh(subject string, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = m.refreshTTL
	}
	return m.issue(subject, TokenKindRefresh, ttl)
}

// IssueEmailToken issues a 7-day email verification token
func (m *TokenManager) IssueEmailToken(subject string) (string, error) {
	return m.issue(subject, TokenKindEmail, emailTokenTTL)
}

// VerifyKind validates the token and requires it to be of the given kind
func (m *TokenManager) VerifyKind(token string, kind TokenKind) (*TokenClaims, error) {
	claims, err := m.backend.Verify(token)
	if err != nil {
		return nil, err
	}
	if claims.Kind != kind {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (m *TokenManager) issue(subject string, kind TokenKind, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("token subject is required")
	}
	token, err := m.backend.Issue(subject, kind, ttl)
	if err != nil {
		return "", fmt.Errorf("failed to issue %s token: %w", kind, err)
	}
	return token, nil
}
