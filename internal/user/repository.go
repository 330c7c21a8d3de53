package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/contacts-api/internal/database"
)

var (
	ErrNotFound          = errors.New("user not found")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrDuplicateUsername = errors.New("username already exists")
)

// Repository handles user data persistence
type Repository struct {
	db bun.IDB
}

func NewRepository(db bun.IDB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user into the database
func (r *Repository) Create(ctx context.Context, nu NewUser) (*User, error) {
	dbUser := &database.User{
		Username:       nu.Username,
		Email:          nu.Email,
		HashedPassword: nu.HashedPassword,
		AvatarURL:      nu.AvatarURL,
		IsVerified:     false,
	}

	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)
	if err != nil {
		switch {
		case database.IsUniqueViolation(err, "email"):
			return nil, ErrDuplicateEmail
		case database.IsUniqueViolation(err, "username"):
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmail retrieves a user by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getBy(ctx, "email", email)
}

// GetByUsername retrieves a user by username
func (r *Repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.getBy(ctx, "username", username)
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *Repository) getBy(ctx context.Context, column string, value any) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("? = ?", bun.Ident(column), value).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}

	return mapDBUserToModel(dbUser), nil
}

// MarkEmailAsVerified marks a user's email as verified
func (r *Repository) MarkEmailAsVerified(ctx context.Context, email string) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("is_verified = ?", true).
		Set("updated_at = NOW()").
		Where("email = ?", email).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark email as verified: %w", err)
	}

	return requireAffected(result)
}

// UpdatePassword updates a user's password hash and returns the updated user
func (r *Repository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) (*User, error) {
	dbUser := new(database.User)
	_, err := r.db.NewUpdate().
		Model(dbUser).
		Set("hashed_password = ?", passwordHash).
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Returning("*").
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update password: %w", err)
	}
	if dbUser.ID == uuid.Nil {
		return nil, ErrNotFound
	}

	return mapDBUserToModel(dbUser), nil
}

// UpdateAvatarURL stores a new avatar URL and returns the updated user
func (r *Repository) UpdateAvatarURL(ctx context.Context, email, url string) (*User, error) {
	dbUser := new(database.User)
	_, err := r.db.NewUpdate().
		Model(dbUser).
		Set("avatar_url = ?", url).
		Set("updated_at = NOW()").
		Where("email = ?", email).
		Returning("*").
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update avatar url: %w", err)
	}
	if dbUser.ID == uuid.Nil {
		return nil, ErrNotFound
	}

	return mapDBUserToModel(dbUser), nil
}

func requireAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:             dbu.ID,
		Username:       dbu.Username,
		Email:          dbu.Email,
		HashedPassword: dbu.HashedPassword,
		AvatarURL:      dbu.AvatarURL,
		IsVerified:     dbu.IsVerified,
		CreatedAt:      dbu.CreatedAt,
		UpdatedAt:      dbu.UpdatedAt,
	}
}
