package contact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/contacts-api/internal/database"
)

var (
	ErrNotFound       = errors.New("contact not found")
	ErrDuplicateEmail = errors.New("contact with this email already exists")
)

// Repository handles contact persistence
type Repository struct {
	db bun.IDB
}

func NewRepository(db bun.IDB) *Repository {
	return &Repository{db: db}
}

// Create inserts a contact
func (r *Repository) Create(ctx context.Context, in CreateInput) (*Contact, error) {
	row := &database.Contact{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Email:       in.Email,
		PhoneNumber: in.PhoneNumber,
		BirthDate:   toTime(in.BirthDate),
	}

	_, err := r.db.NewInsert().
		Model(row).
		Returning("*").
		Exec(ctx)
	if err != nil {
		if database.IsUniqueViolation(err, "email") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	return mapDBContact(row), nil
}

// List returns a page of contacts matching the filter
func (r *Repository) List(ctx context.Context, f ListFilter) ([]*Contact, error) {
	f = f.Normalize()

	var rows []database.Contact
	q := r.db.NewSelect().Model(&rows)

	if f.FirstName != "" || f.LastName != "" || f.Email != "" {
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			if f.FirstName != "" {
				q = q.WhereOr("c.first_name ILIKE ?", "%"+f.FirstName+"%")
			}
			if f.LastName != "" {
				q = q.WhereOr("c.last_name ILIKE ?", "%"+f.LastName+"%")
			}
			if f.Email != "" {
				q = q.WhereOr("c.email ILIKE ?", "%"+f.Email+"%")
			}
			return q
		})
	}

	err := q.Order("c.last_name ASC", "c.first_name ASC").
		Offset(f.Skip).
		Limit(f.Limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	return mapDBContacts(rows), nil
}

// ListWithBirthDate returns every contact that has a birth date
func (r *Repository) ListWithBirthDate(ctx context.Context) ([]*Contact, error) {
	var rows []database.Contact
	err := r.db.NewSelect().
		Model(&rows).
		Where("c.birth_date IS NOT NULL").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts with birth dates: %w", err)
	}

	return mapDBContacts(rows), nil
}

// GetByID retrieves a contact by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Contact, error) {
	row := new(database.Contact)
	err := r.db.NewSelect().
		Model(row).
		Where("c.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	return mapDBContact(row), nil
}

// Update applies the non-nil fields of in
func (r *Repository) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Contact, error) {
	if in.Empty() {
		return r.GetByID(ctx, id)
	}

	row := new(database.Contact)
	q := r.db.NewUpdate().Model(row)

	if in.FirstName != nil {
		q = q.Set("first_name = ?", *in.FirstName)
	}
	if in.LastName != nil {
		q = q.Set("last_name = ?", *in.LastName)
	}
	if in.Email != nil {
		q = q.Set("email = ?", *in.Email)
	}
	if in.PhoneNumber != nil {
		q = q.Set("phone_number = ?", *in.PhoneNumber)
	}
	if in.BirthDate != nil {
		q = q.Set("birth_date = ?", in.BirthDate.Format(dateLayout))
	}

	_, err := q.Set("updated_at = NOW()").
		Where("id = ?", id).
		Returning("*").
		Exec(ctx)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		case database.IsUniqueViolation(err, "email"):
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}
	if row.ID == uuid.Nil {
		return nil, ErrNotFound
	}

	return mapDBContact(row), nil
}

// Delete removes a contact
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.NewDelete().
		Model((*database.Contact)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

func toTime(d *Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

func mapDBContact(row *database.Contact) *Contact {
	c := &Contact{
		ID:          row.ID,
		FirstName:   row.FirstName,
		LastName:    row.LastName,
		Email:       row.Email,
		PhoneNumber: row.PhoneNumber,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if row.BirthDate != nil {
		y, m, d := row.BirthDate.Date()
		bd := NewDate(y, m, d)
		c.BirthDate = &bd
	}
	return c
}

func mapDBContacts(rows []database.Contact) []*Contact {
	out := make([]*Contact, len(rows))
	for i := range rows {
		out[i] = mapDBContact(&rows[i])
	}
	return out
}
