package contact

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store is the persistence the service needs. *Repository satisfies it.
type Store interface {
	Create(ctx context.Context, in CreateInput) (*Contact, error)
	List(ctx context.Context, f ListFilter) ([]*Contact, error)
	ListWithBirthDate(ctx context.Context) ([]*Contact, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Contact, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Contact, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Contact, error) {
	return s.store.Create(ctx, in)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]*Contact, error) {
	return s.store.List(ctx, f.Normalize())
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Contact, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Contact, error) {
	return s.store.Update(ctx, id, in)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}

// UpcomingBirthdays returns contacts whose birthday falls within the next
// days days, today included, so zero means today only. A negative value uses
// the default window.
func (s *Service) UpcomingBirthdays(ctx context.Context, days int) ([]*Contact, error) {
	if days < 0 {
		days = DefaultBirthdayWindow
	}

	contacts, err := s.store.ListWithBirthDate(ctx)
	if err != nil {
		return nil, fmt.Errorf("upcoming birthdays: %w", err)
	}

	return upcomingBirthdays(contacts, s.now().UTC(), days), nil
}
