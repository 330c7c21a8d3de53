package auth

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/contacts-api/internal/database"
	"github.com/redmonkez12/contacts-api/internal/user"
)

const passwordResetTokenTTL = 1 * time.Hour

var ErrPasswordResetTokenNotFound = errors.New("password reset token not found")

// PasswordResetToken is a stored reset token. Only the token digest is kept.
type PasswordResetToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// PasswordResetStore persists reset tokens
type PasswordResetStore interface {
	Create(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*PasswordResetToken, error)
	// Redeem consumes a live token and stores the new password hash in one
	// step. It returns ErrResetTokenInvalid when no live token matches.
	Redeem(ctx context.Context, tokenHash string, now time.Time, passwordHash string) (*user.User, error)
}

// PasswordResetRepository handles password reset token storage in Postgres
type PasswordResetRepository struct {
	db *bun.DB
}

// NewPasswordResetRepository creates a new password reset repository instance
func NewPasswordResetRepository(db *bun.DB) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

// Create stores a reset token digest for the user
func (r *PasswordResetRepository) Create(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	record := &database.PasswordResetToken{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
	}

	_, err := r.db.NewInsert().
		Model(record).
		Returning("id, created_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to store password reset token: %w", err)
	}

	return nil
}

// GetByTokenHash looks up a reset token by digest regardless of expiry
func (r *PasswordResetRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*PasswordResetToken, error) {
	record := new(database.PasswordResetToken)

	err := r.db.NewSelect().
		Model(record).
		Where("token_hash = ?", tokenHash).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPasswordResetTokenNotFound
		}
		return nil, fmt.Errorf("failed to get password reset token: %w", err)
	}

	return &PasswordResetToken{
		ID:        record.ID,
		UserID:    record.UserID,
		TokenHash: record.TokenHash,
		ExpiresAt: record.ExpiresAt,
		CreatedAt: record.CreatedAt,
	}, nil
}

// Redeem deletes the token and updates the password inside one transaction.
// The conditional DELETE serializes concurrent redemptions on the row lock,
// so at most one caller gets the updated user back.
func (r *PasswordResetRepository) Redeem(ctx context.Context, tokenHash string, now time.Time, passwordHash string) (*user.User, error) {
	var (
		userID  uuid.UUID
		updated *user.User
	)

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewDelete().
			Model((*database.PasswordResetToken)(nil)).
			Where("token_hash = ?", tokenHash).
			Where("expires_at > ?", now).
			Returning("user_id").
			Scan(ctx, &userID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrResetTokenInvalid
			}
			return fmt.Errorf("failed to consume password reset token: %w", err)
		}

		u, err := user.NewRepository(tx).UpdatePassword(ctx, userID, passwordHash)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				return ErrResetTokenInvalid
			}
			return err
		}
		updated = u

		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// hashToken returns the hex sha256 digest stored in place of a raw token
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
