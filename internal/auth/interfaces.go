package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/redmonkez12/contacts-api/internal/user"
)

// UserStore is the subset of user.Repository the auth service needs
type UserStore interface {
	Create(ctx context.Context, nu user.NewUser) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByUsername(ctx context.Context, username string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	MarkEmailAsVerified(ctx context.Context, email string) error
}

// EmailService defines the interface for email operations
type EmailService interface {
	SendVerificationEmail(ctx context.Context, toEmail, username, token string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, username, token string) error
}

// AvatarURLFunc derives the initial avatar URL for a new account
type AvatarURLFunc func(email string) string
