package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the persisted users row
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID             uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Username       string    `bun:"username,notnull,unique"`
	Email          string    `bun:"email,notnull,unique"`
	HashedPassword string    `bun:"hashed_password,notnull"`
	AvatarURL      *string   `bun:"avatar_url"`
	IsVerified     bool      `bun:"is_verified,notnull,default:false"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt      time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// PasswordResetToken is the persisted password_reset_tokens row.
// Only the SHA-256 of the mailed token is stored.
type PasswordResetToken struct {
	bun.BaseModel `bun:"table:password_reset_tokens,alias:prt"`

	ID        uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	UserID    uuid.UUID `bun:"user_id,notnull,type:uuid"`
	TokenHash string    `bun:"token_hash,notnull,unique"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// Contact is the persisted contacts row
type Contact struct {
	bun.BaseModel `bun:"table:contacts,alias:c"`

	ID          uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	FirstName   string     `bun:"first_name,notnull"`
	LastName    string     `bun:"last_name,notnull"`
	Email       string     `bun:"email,notnull,unique"`
	PhoneNumber *string    `bun:"phone_number"`
	BirthDate   *time.Time `bun:"birth_date,type:date"`
	CreatedAt   time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
