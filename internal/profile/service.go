package profile

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/redmonkez12/contacts-api/internal/user"
)

var ErrUserNotFound = errors.New("user not found")

// AvatarStore persists the avatar URL on the account
type AvatarStore interface {
	UpdateAvatarURL(ctx context.Context, email, url string) (*user.User, error)
}

// AvatarUploader writes the image to object storage
type AvatarUploader interface {
	Upload(ctx context.Context, username string, body io.Reader, size int64, contentType string) (string, error)
}

// SessionInvalidator drops a cached session record
type SessionInvalidator interface {
	InvalidateSession(ctx context.Context, username string)
}

type Service struct {
	users    AvatarStore
	uploader AvatarUploader
	sessions SessionInvalidator
}

func NewService(users AvatarStore, uploader AvatarUploader, sessions SessionInvalidator) *Service {
	return &Service{users: users, uploader: uploader, sessions: sessions}
}

// UpdateAvatar uploads a new avatar for u and stores its URL
func (s *Service) UpdateAvatar(ctx context.Context, u *user.User, body io.Reader, size int64, contentType string) (*user.User, error) {
	url, err := s.uploader.Upload(ctx, u.Username, body, size, contentType)
	if err != nil {
		return nil, err
	}

	updated, err := s.users.UpdateAvatarURL(ctx, u.Email, url)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to save avatar url: %w", err)
	}

	s.sessions.InvalidateSession(ctx, u.Username)

	return updated.Public(), nil
}
