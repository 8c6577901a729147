package user

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/service-booking-backend/internal/auth"
)

type memRepo struct {
	mu    sync.Mutex
	users map[string]*User
	seq   int
}

func newMemRepo() *memRepo {
	return &memRepo{users: map[string]*User{}}
}

func (r *memRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memRepo) GetByID(_ context.Context, id string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memRepo) Create(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	u.ID = fmt.Sprintf("user-%02d", r.seq)
	u.CreatedAt = time.Now()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memRepo) UpdateLastLogin(_ context.Context, id string, t time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.LastLoginAt = &t
	return nil
}

func (r *memRepo) List(_ context.Context, _ UserFilter) ([]*User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

func (r *memRepo) ListActiveStaff(_ context.Context) ([]*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*User
	for _, u := range r.users {
		if u.IsActive && u.IsStaff() {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memRepo) Update(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return ErrNotFound
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.IsActive = false
	return nil
}

func newTestService() (Service, *memRepo) {
	repo := newMemRepo()
	return NewService(repo, auth.NewBcryptPasswordHasherWithCost(4)), repo
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	u, err := svc.Register(ctx, "  Alice@Example.COM ", "password123", " Alice ")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, RoleCustomer, u.Role)
	require.NotNil(t, u.DisplayName)
	assert.Equal(t, "Alice", *u.DisplayName)

	_, err = svc.Register(ctx, "alice@example.com", "password123", "Again")
	assert.ErrorIs(t, err, ErrEmailAlreadyUsed)

	_, err = svc.Register(ctx, "bob@example.com", "short", "Bob")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = svc.Register(ctx, "   ", "password123", "Nobody")
	assert.ErrorIs(t, err, ErrEmailRequired)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	u, err := svc.Register(ctx, "carol@example.com", "password123", "Carol")
	require.NoError(t, err)

	got, err := svc.Login(ctx, "CAROL@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NotNil(t, got.LastLoginAt)

	_, err = svc.Login(ctx, "carol@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.Delete(ctx, u.ID))
	_, err = svc.Login(ctx, "carol@example.com", "password123")
	assert.ErrorIs(t, err, ErrInactiveUser)
}

func TestUpdateRoleAndStaffListing(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	a, err := svc.Register(ctx, "a@example.com", "password123", "A")
	require.NoError(t, err)
	b, err := svc.Register(ctx, "b@example.com", "password123", "B")
	require.NoError(t, err)

	staff := RoleStaff
	_, err = svc.Update(ctx, b.ID, UpdateUserRequest{Role: &staff})
	require.NoError(t, err)
	admin := RoleAdmin
	_, err = svc.Update(ctx, a.ID, UpdateUserRequest{Role: &admin})
	require.NoError(t, err)

	list, err := svc.ListActiveStaff(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)

	bogus := Role("owner")
	_, err = svc.Update(ctx, a.ID, UpdateUserRequest{Role: &bogus})
	assert.ErrorIs(t, err, ErrInvalidRole)
}
