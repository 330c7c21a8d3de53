package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"` // Never expose password hash in JSON
	AvatarURL      *string   `json:"avatar_url,omitempty"`
	IsVerified     bool      `json:"is_verified"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Public returns a copy of u without credential material
func (u *User) Public() *User {
	cp := *u
	cp.HashedPassword = ""
	return &cp
}

// NewUser is the input for Repository.Create
type NewUser struct {
	Username       string
	Email          string
	HashedPassword string
	AvatarURL      *string
}
