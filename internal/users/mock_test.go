package users

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hrdesk/hrdesk/internal/rbac"
	"github.com/hrdesk/hrdesk/internal/shared"
)

var operator = rbac.Principal{UserID: uuid.New(), IsAuthenticated: true, IsAdmin: true}

type mockRepository struct {
	users map[uuid.UUID]User
	roles map[int64]bool
}

func newMockRepository() *mockRepository {
	return &mockRepository{users: make(map[uuid.UUID]User), roles: map[int64]bool{1: true}}
}

func (m *mockRepository) Get(ctx context.Context, id uuid.UUID) (User, error) {
	u, ok := m.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return u, nil
}

func (m *mockRepository) List(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *mockRepository) Create(ctx context.Context, u User) (User, error) {
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = u
	return u, nil
}

func (m *mockRepository) Update(ctx context.Context, u User) (User, error) {
	if _, ok := m.users[u.ID]; !ok {
		return User{}, shared.ErrNotFound
	}
	u.UpdatedAt = time.Now()
	m.users[u.ID] = u
	return u, nil
}

func (m *mockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.users[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *mockRepository) UsernameTaken(ctx context.Context, username string, except uuid.UUID) (bool, error) {
	for id, u := range m.users {
		if id != except && u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepository) EmailTaken(ctx context.Context, email string, except uuid.UUID) (bool, error) {
	for id, u := range m.users {
		if id != except && strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepository) AdminExists(ctx context.Context, except uuid.UUID) (bool, error) {
	for id, u := range m.users {
		if id != except && u.IsAdmin {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepository) RoleExists(ctx context.Context, roleID int64) (bool, error) {
	return m.roles[roleID], nil
}

func newTestService() (*Service, *mockRepository) {
	repo := newMockRepository()
	svc := NewService(repo)
	svc.SetHashCost(4)
	return svc, repo
}
