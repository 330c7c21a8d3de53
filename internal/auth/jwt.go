package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// jwtClaims is the JWT payload: registered claims plus the token kind
type jwtClaims struct {
	jwt.RegisteredClaims
	Kind TokenKind `json:"token_type"`
}

// JWTService issues and verifies HMAC-signed JWTs
type JWTService struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	now    func() time.Time
}

// NewJWTService creates a JWT backend for the given secret and algorithm
// (HS256, HS384 or HS512).
func NewJWTService(secret, algorithm string) (*JWTService, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	var method *jwt.SigningMethodHMAC
	switch algorithm {
	case "", jwt.SigningMethodHS256.Alg():
		method = jwt.SigningMethodHS256
	case jwt.SigningMethodHS384.Alg():
		method = jwt.SigningMethodHS384
	case jwt.SigningMethodHS512.Alg():
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported jwt algorithm %q", algorithm)
	}

	return &JWTService{
		secret: []byte(secret),
		method: method,
		now:    time.Now,
	}, nil
}

// Issue signs a token carrying {sub, exp, iat, jti, token_type}
func (s *JWTService) Issue(subject string, kind TokenKind, ttl time.Duration) (string, error) {
	now := s.now()

	token := jwt.NewWithClaims(s.method, jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Kind: kind,
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify checks signature, algorithm and expiry and returns the claims
func (s *JWTService) Verify(tokenStr string) (*TokenClaims, error) {
	claims := &jwtClaims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	out := &TokenClaims{
		ID:        claims.ID,
		Subject:   claims.Subject,
		Kind:      claims.Kind,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}

	return out, nil
}
