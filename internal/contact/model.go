package contact

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// Date is a calendar date encoded as YYYY-MM-DD
type Date struct {
	time.Time
}

// NewDate returns the date at midnight UTC
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("date must be formatted as YYYY-MM-DD: %w", err)
	}
	d.Time = t
	return nil
}

type Contact struct {
	ID          uuid.UUID `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	PhoneNumber *string   `json:"phone_number"`
	BirthDate   *Date     `json:"birth_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateInput is the body of a create request
type CreateInput struct {
	FirstName   string  `json:"first_name" validate:"required,max=50"`
	LastName    string  `json:"last_name" validate:"required,max=50"`
	Email       string  `json:"email" validate:"required,email,max=100"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=20"`
	BirthDate   *Date   `json:"birth_date"`
}

// UpdateInput is a partial update; nil fields are left unchanged
type UpdateInput struct {
	FirstName   *string `json:"first_name" validate:"omitempty,min=1,max=50"`
	LastName    *string `json:"last_name" validate:"omitempty,min=1,max=50"`
	Email       *string `json:"email" validate:"omitempty,email,max=100"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=20"`
	BirthDate   *Date   `json:"birth_date"`
}

// Empty reports whether the update changes nothing
func (in UpdateInput) Empty() bool {
	return in.FirstName == nil && in.LastName == nil && in.Email == nil &&
		in.PhoneNumber == nil && in.BirthDate == nil
}

// ListFilter narrows a contact listing. Name and email filters are
// case-insensitive substring matches combined with OR.
type ListFilter struct {
	FirstName string
	LastName  string
	Email     string
	Skip      int
	Limit     int
}

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Normalize applies the default and maximum page size
func (f ListFilter) Normalize() ListFilter {
	if f.Skip < 0 {
		f.Skip = 0
	}
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	return f
}
