package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/contacts-api/internal/logging"
	"github.com/redmonkez12/contacts-api/internal/user"
)

// emailSendTimeout bounds a background email delivery
const emailSendTimeout = 30 * time.Second

// AuthTokens is the token pair returned on login and refresh
type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Service handles authentication business logic
type Service struct {
	users     UserStore
	resets    PasswordResetStore
	cache     SessionCache
	denylist  TokenDenylist
	tokens    *TokenManager
	hasher    PasswordHasher
	email     EmailService
	avatarURL AvatarURLFunc
	logger    *logging.Logger

	now func() time.Time
	wg  sync.WaitGroup
}

func NewService(
	users UserStore,
	resets PasswordResetStore,
	cache SessionCache,
	denylist TokenDenylist,
	tokens *TokenManager,
	hasher PasswordHasher,
	email EmailService,
	avatarURL AvatarURLFunc,
	logger *logging.Logger,
) *Service {
	return &Service{
		users:     users,
		resets:    resets,
		cache:     cache,
		denylist:  denylist,
		tokens:    tokens,
		hasher:    hasher,
		email:     email,
		avatarURL: avatarURL,
		logger:    logger,
		now:       time.Now,
	}
}

// Wait blocks until background email deliveries have finished
func (s *Service) Wait() {
	s.wg.Wait()
}

// Register creates a new unverified account and mails a verification link
func (s *Service) Register(ctx context.Context, username, email, password string) (*user.User, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	nu := user.NewUser{
		Username:       username,
		Email:          email,
		HashedPassword: passwordHash,
	}
	if s.avatarURL != nil {
		if url := s.avatarURL(email); url != "" {
			nu.AvatarURL = &url
		}
	}

	created, err := s.users.Create(ctx, nu)
	if err != nil {
		// A concurrent registration can still win the race past the checks above
		switch {
		case errors.Is(err, user.ErrDuplicateEmail):
			return nil, ErrEmailTaken
		case errors.Is(err, user.ErrDuplicateUsername):
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.IssueEmailToken(created.Email)
	if err != nil {
		s.logger.Warn("failed to issue verification token", "email", created.Email, "error", err)
		return created, nil
	}

	s.sendAsync(ctx, "verification", created.Email, func(ctx context.Context) error {
		return s.email.SendVerificationEmail(ctx, created.Email, created.Username, token)
	})

	return created, nil
}

// Login authenticates against the stored credential and returns a token pair.
// The session cache is refreshed but never consulted for the password check.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthTokens, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	existingUser, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Verify(password, existingUser.HashedPassword) {
		return nil, ErrInvalidCredentials
	}

	tokens, err := s.generateTokens(existingUser.Username)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, existingUser)

	return tokens, nil
}

// RefreshAccessToken issues a new access token. The refresh token is not rotated.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	claims, err := s.tokens.VerifyKind(refreshToken, TokenKindRefresh)
	if err != nil {
		return nil, err
	}

	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	if _, err := s.users.GetByUsername(ctx, claims.Subject); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	accessToken, err := s.tokens.IssueAccess(claims.Subject, 0)
	if err != nil {
		return nil, err
	}

	return &AuthTokens{
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

// Logout revokes the refresh token and drops the cached session
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.tokens.VerifyKind(refreshToken, TokenKindRefresh)
	if err != nil {
		return err
	}

	if err := s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt); err != nil {
		return err
	}

	s.cache.Invalidate(ctx, claims.Subject)

	return nil
}

// VerifyEmail marks the account named by an email token as verified.
// Verifying twice succeeds and reports alreadyVerified.
func (s *Service) VerifyEmail(ctx context.Context, token string) (alreadyVerified bool, err error) {
	claims, err := s.tokens.VerifyKind(token, TokenKindEmail)
	if err != nil {
		return false, err
	}

	existingUser, err := s.users.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return false, ErrUserNotFound
		}
		return false, fmt.Errorf("failed to get user: %w", err)
	}

	if existingUser.IsVerified {
		return true, nil
	}

	if err := s.users.MarkEmailAsVerified(ctx, existingUser.Email); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return false, ErrUserNotFound
		}
		return false, fmt.Errorf("failed to verify email: %w", err)
	}

	s.cache.Invalidate(ctx, existingUser.Username)

	return false, nil
}

// RequestPasswordReset creates a reset token for the account and mails it
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	existingUser, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	token, err := s.CreateResetToken(ctx, existingUser)
	if err != nil {
		return err
	}

	s.sendAsync(ctx, "password reset", existingUser.Email, func(ctx context.Context) error {
		return s.email.SendPasswordResetEmail(ctx, existingUser.Email, existingUser.Username, token)
	})

	return nil
}

// CreateResetToken stores a new single-use reset token valid for one hour and
// returns its plaintext. Earlier outstanding tokens stay valid.
func (s *Service) CreateResetToken(ctx context.Context, u *user.User) (string, error) {
	token := uuid.NewString()
	expiresAt := s.now().Add(passwordResetTokenTTL)

	if err := s.resets.Create(ctx, u.ID, hashToken(token), expiresAt); err != nil {
		return "", err
	}

	return token, nil
}

// VerifyResetToken returns the stored token while it is live. Unknown and
// expired tokens both yield ErrResetTokenInvalid. It never consumes the token.
func (s *Service) VerifyResetToken(ctx context.Context, token string) (*PasswordResetToken, error) {
	record, err := s.resets.GetByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, ErrPasswordResetTokenNotFound) {
			return nil, ErrResetTokenInvalid
		}
		return nil, err
	}

	if !s.now().Before(record.ExpiresAt) {
		return nil, ErrResetTokenInvalid
	}

	return record, nil
}

// ResetPassword redeems a reset token and replaces the stored password.
// A token can be redeemed once; the hash is computed before redemption so a
// hashing failure leaves the token usable.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) (*user.User, error) {
	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, err
	}

	updated, err := s.resets.Redeem(ctx, hashToken(token), s.now(), passwordHash)
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, updated.Username)

	return updated, nil
}

// CurrentUser resolves an access token to its account, serving the
// session cache first and falling back to the database.
func (s *Service) CurrentUser(ctx context.Context, accessToken string) (*user.User, error) {
	claims, err := s.tokens.VerifyKind(accessToken, TokenKindAccess)
	if err != nil {
		return nil, err
	}

	if cached, ok := s.cache.Get(ctx, claims.Subject); ok {
		return cached, nil
	}

	existingUser, err := s.users.GetByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	s.cache.Set(ctx, existingUser)

	return existingUser.Public(), nil
}

// InvalidateSession drops the cached record for username
func (s *Service) InvalidateSession(ctx context.Context, username string) {
	s.cache.Invalidate(ctx, username)
}

// generateTokens creates both access and refresh tokens
func (s *Service) generateTokens(username string) (*AuthTokens, error) {
	accessToken, err := s.tokens.IssueAccess(username, 0)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.tokens.IssueRefresh(username, 0)
	if err != nil {
		return nil, err
	}

	return &AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

// sendAsync delivers an email in the background without failing the request
func (s *Service) sendAsync(ctx context.Context, kind, to string, send func(ctx context.Context) error) {
	logger := logging.FromContext(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		// Detached from the request so the delivery outlives the response
		emailCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), emailSendTimeout)
		defer cancel()

		if err := send(emailCtx); err != nil {
			logger.Warn("failed to send email", "kind", kind, "email", to, "error", err)
			return
		}
		logger.Debug("email sent", "kind", kind, "email", to)
	}()
}
