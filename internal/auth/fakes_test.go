package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/redmonkez12/contacts-api/internal/logging"
	"github.com/redmonkez12/contacts-api/internal/user"
)

type fakeUserStore struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]*user.User
	fails error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byID: make(map[uuid.UUID]*user.User)}
}

func (f *fakeUserStore) Create(_ context.Context, nu user.NewUser) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.byID {
		if u.Email == nu.Email {
			return nil, user.ErrDuplicateEmail
		}
		if u.Username == nu.Username {
			return nil, user.ErrDuplicateUsername
		}
	}

	now := time.Now()
	u := &user.User{
		ID:             uuid.New(),
		Username:       nu.Username,
		Email:          nu.Email,
		HashedPassword: nu.HashedPassword,
		AvatarURL:      nu.AvatarURL,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	f.byID[u.ID] = u

	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) find(match func(*user.User) bool) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fails != nil {
		return nil, f.fails
	}
	for _, u := range f.byID {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, user.ErrNotFound
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*user.User, error) {
	return f.find(func(u *user.User) bool { return u.Email == email })
}

func (f *fakeUserStore) GetByUsername(_ context.Context, username string) (*user.User, error) {
	return f.find(func(u *user.User) bool { return u.Username == username })
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	return f.find(func(u *user.User) bool { return u.ID == id })
}

func (f *fakeUserStore) MarkEmailAsVerified(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.byID {
		if u.Email == email {
			u.IsVerified = true
			return nil
		}
	}
	return user.ErrNotFound
}

func (f *fakeUserStore) setPassword(id uuid.UUID, hash string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	u.HashedPassword = hash
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

// fakeResetStore redeems under one lock, matching the single-row DELETE
type fakeResetStore struct {
	mu     sync.Mutex
	users  *fakeUserStore
	tokens map[string]*PasswordResetToken
}

func newFakeResetStore(users *fakeUserStore) *fakeResetStore {
	return &fakeResetStore{users: users, tokens: make(map[string]*PasswordResetToken)}
}

func (f *fakeResetStore) Create(_ context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.tokens[tokenHash] = &PasswordResetToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	return nil
}

func (f *fakeResetStore) GetByTokenHash(_ context.Context, tokenHash string) (*PasswordResetToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.tokens[tokenHash]
	if !ok {
		return nil, ErrPasswordResetTokenNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeResetStore) Redeem(_ context.Context, tokenHash string, now time.Time, passwordHash string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.tokens[tokenHash]
	if !ok || !rec.ExpiresAt.After(now) {
		return nil, ErrResetTokenInvalid
	}
	u, err := f.users.setPassword(rec.UserID, passwordHash)
	if err != nil {
		return nil, ErrResetTokenInvalid
	}
	delete(f.tokens, tokenHash)
	return u, nil
}

func (f *fakeResetStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tokens)
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]user.User
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]user.User)}
}

func (f *fakeCache) Get(_ context.Context, username string) (*user.User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.entries[username]
	if !ok {
		return nil, false
	}
	return &u, true
}

func (f *fakeCache) Set(_ context.Context, u *user.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[u.Username] = *u.Public()
}

func (f *fakeCache) Invalidate(_ context.Context, username string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, username)
}

type fakeDenylist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func newFakeDenylist() *fakeDenylist {
	return &fakeDenylist{revoked: make(map[string]time.Time)}
}

func (f *fakeDenylist) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[jti] = expiresAt
	return nil
}

func (f *fakeDenylist) IsRevoked(_ context.Context, jti string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.revoked[jti]
	return ok, nil
}

type sentEmail struct {
	kind  string
	to    string
	token string
}

type fakeEmail struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (f *fakeEmail) SendVerificationEmail(_ context.Context, to, _, token string) error {
	return f.record("verification", to, token)
}

func (f *fakeEmail) SendPasswordResetEmail(_ context.Context, to, _, token string) error {
	return f.record("reset", to, token)
}

func (f *fakeEmail) record(kind, to, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEmail{kind: kind, to: to, token: token})
	return nil
}

func (f *fakeEmail) last(t *testing.T, kind string) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].kind == kind {
			return f.sent[i].token
		}
	}
	require.FailNow(t, "no email sent", "kind %s", kind)
	return ""
}

// testClock is a settable clock shared by the service and the token backend
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type serviceFixture struct {
	svc      *Service
	users    *fakeUserStore
	resets   *fakeResetStore
	cache    *fakeCache
	denylist *fakeDenylist
	email    *fakeEmail
	clock    *testClock
	jwt      *JWTService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	clock := &testClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	jwtSvc, err := NewJWTService("test-secret-with-enough-entropy", "HS256")
	require.NoError(t, err)
	jwtSvc.now = clock.Now

	users := newFakeUserStore()
	f := &serviceFixture{
		users:    users,
		resets:   newFakeResetStore(users),
		cache:    newFakeCache(),
		denylist: newFakeDenylist(),
		email:    &fakeEmail{},
		clock:    clock,
		jwt:      jwtSvc,
	}

	f.svc = NewService(
		f.users,
		f.resets,
		f.cache,
		f.denylist,
		NewTokenManager(jwtSvc, time.Hour, 7*24*time.Hour),
		NewBcryptHasher(bcrypt.MinCost),
		f.email,
		func(email string) string { return "https://avatar.test/" + email },
		logging.Discard(),
	)
	f.svc.now = clock.Now

	return f
}

func (f *serviceFixture) register(t *testing.T, username, email, password string) *user.User {
	t.Helper()
	u, err := f.svc.Register(context.Background(), username, email, password)
	require.NoError(t, err)
	f.svc.Wait()
	return u
}
