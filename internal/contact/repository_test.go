package contact

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/contacts-api/internal/database"
)

var contactColumns = []string{"id", "first_name", "last_name", "email", "phone_number", "birth_date", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return NewRepository(database.NewBunDB(sqlDB)), mock
}

func TestRepository_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	bd := NewDate(1990, time.May, 17)

	t.Run("returns the stored row", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		id := uuid.New()

		mock.ExpectQuery(`INSERT INTO "contacts" .*'ada@example.test'.*RETURNING`).
			WillReturnRows(sqlmock.NewRows(contactColumns).
				AddRow(id.String(), "Ada", "Lovelace", "ada@example.test", nil, bd.Time, now, now))

		c, err := repo.Create(ctx, CreateInput{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.test", BirthDate: &bd})
		require.NoError(t, err)
		assert.Equal(t, id, c.ID)
		require.NotNil(t, c.BirthDate)
		assert.Equal(t, "1990-05-17", c.BirthDate.Format(dateLayout))
		assert.Nil(t, c.PhoneNumber)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`INSERT INTO "contacts"`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "contacts_email_key"})

		_, err := repo.Create(ctx, CreateInput{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.test"})
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})
}

func TestRepository_List(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	t.Run("filters are OR-ed and paging is clamped", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(`SELECT .* FROM "contacts" AS "c" WHERE .*c.first_name ILIKE '%ad%'.* OR .*c.email ILIKE '%ex%'.*LIMIT 100 OFFSET 5`).
			WillReturnRows(sqlmock.NewRows(contactColumns).
				AddRow(uuid.NewString(), "Ada", "Lovelace", "ada@example.test", "+420123", nil, now, now))

		got, err := repo.List(ctx, ListFilter{FirstName: "ad", Email: "ex", Skip: 5, Limit: 500})
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.NotNil(t, got[0].PhoneNumber)
		assert.Equal(t, "+420123", *got[0].PhoneNumber)
		assert.Nil(t, got[0].BirthDate)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no filter uses default page", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`SELECT .* FROM "contacts" AS "c" ORDER BY .* LIMIT 10`).
			WillReturnRows(sqlmock.NewRows(contactColumns))

		got, err := repo.List(ctx, ListFilter{})
		require.NoError(t, err)
		assert.Empty(t, got)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_GetByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`SELECT .* FROM "contacts"`).WillReturnRows(sqlmock.NewRows(contactColumns))

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectQuery(`SELECT .* FROM "contacts"`).WillReturnError(errors.New("conn reset"))
	_, err = repo.GetByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestRepository_Update(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	id := uuid.New()

	t.Run("sets only supplied fields", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		phone := "+1555"

		mock.ExpectQuery(`UPDATE "contacts".*SET phone_number = '\+1555', updated_at = NOW\(\).*` + id.String() + `.*RETURNING \*`).
			WillReturnRows(sqlmock.NewRows(contactColumns).
				AddRow(id.String(), "Ada", "Lovelace", "ada@example.test", phone, nil, now, now))

		c, err := repo.Update(ctx, id, UpdateInput{PhoneNumber: &phone})
		require.NoError(t, err)
		assert.Equal(t, "Ada", c.FirstName)
		assert.Equal(t, phone, *c.PhoneNumber)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing contact", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		name := "Grace"
		mock.ExpectQuery(`UPDATE "contacts"`).WillReturnRows(sqlmock.NewRows(contactColumns))

		_, err := repo.Update(ctx, id, UpdateInput{FirstName: &name})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("email collision", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		email := "taken@example.test"
		mock.ExpectQuery(`UPDATE "contacts"`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "contacts_email_key"})

		_, err := repo.Update(ctx, id, UpdateInput{Email: &email})
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("empty update reads the row", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`SELECT .* FROM "contacts"`).
			WillReturnRows(sqlmock.NewRows(contactColumns).
				AddRow(id.String(), "Ada", "Lovelace", "ada@example.test", nil, nil, now, now))

		c, err := repo.Update(ctx, id, UpdateInput{})
		require.NoError(t, err)
		assert.Equal(t, id, c.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_Delete(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`DELETE FROM "contacts"`).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), uuid.New()))

	mock.ExpectExec(`DELETE FROM "contacts"`).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), uuid.New()), ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
