package auth

import (
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

const pasetoKindClaim = "token_type"

// PasetoService handles PASETO token creation and validation
// Uses v4.local (symmetric encryption with XChaCha20-Poly1305)
type PasetoService struct {
	symmetricKey paseto.V4SymmetricKey
	now          func() time.Time
}

func NewPasetoService(symmetricKey []byte) (*PasetoService, error) {
	if len(symmetricKey) != 32 {
		return nil, fmt.Errorf("symmetric key must be exactly 32 bytes, got %d", len(symmetricKey))
	}

	key, err := paseto.V4SymmetricKeyFromBytes(symmetricKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}

	return &PasetoService{
		symmetricKey: key,
		now:          time.Now,
	}, nil
}

// Issue encrypts a v4.local token with the standard claims and the token kind
func (s *PasetoService) Issue(subject string, kind TokenKind, ttl time.Duration) (string, error) {
	now := s.now()

	token := paseto.NewToken()
	token.SetJti(uuid.NewString())
	token.SetSubject(subject)
	token.SetIssuedAt(now)
	token.SetExpiration(now.Add(ttl))
	token.SetString(pasetoKindClaim, string(kind))

	return token.V4Encrypt(s.symmetricKey, nil), nil
}

// Verify decrypts a v4.local token and checks expiry against the service clock
func (s *PasetoService) Verify(tokenStr string) (*TokenClaims, error) {
	// Expiry is checked below so that the service clock applies
	parser := paseto.NewParserWithoutExpiryCheck()

	token, err := parser.ParseV4Local(s.symmetricKey, tokenStr, nil)
	if err != nil {
		return nil, ErrInvalidToken
	}

	expiresAt, err := token.GetExpiration()
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !s.now().Before(expiresAt) {
		return nil, ErrExpiredToken
	}

	subject, err := token.GetSubject()
	if err != nil || subject == "" {
		return nil, ErrInvalidToken
	}

	kind, err := token.GetString(pasetoKindClaim)
	if err != nil {
		return nil, ErrInvalidToken
	}

	jti, _ := token.GetJti()
	issuedAt, _ := token.GetIssuedAt()

	return &TokenClaims{
		ID:        jti,
		Subject:   subject,
		Kind:      TokenKind(kind),
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}
