package departments

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrdesk/hrdesk/internal/shared"
)

type mockRepository struct {
	departments map[int64]Department
	nextID      int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{departments: make(map[int64]Department), nextID: 1}
}

func (m *mockRepository) List(ctx context.Context, filters ListFilters) ([]Department, int, error) {
	all := []Department{}
	q := strings.ToLower(filters.Query)
	for _, d := range m.departments {
		if q == "" || strings.Contains(strings.ToLower(d.Name), q) || strings.Contains(strings.ToLower(d.Description), q) {
			all = append(all, d)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	start := min(filters.Page.Offset(), len(all))
	end := min(start+filters.Page.PageSize, len(all))
	return all[start:end], len(all), nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (Department, error) {
	d, ok := m.departments[id]
	if !ok {
		return Department{}, shared.ErrNotFound
	}
	return d, nil
}

func (m *mockRepository) Create(ctx context.Context, d Department) (Department, error) {
	d.ID = m.nextID
	m.nextID++
	m.departments[d.ID] = d
	return d, nil
}

func (m *mockRepository) Update(ctx context.Context, d Department) (Department, error) {
	if _, ok := m.departments[d.ID]; !ok {
		return Department{}, shared.ErrNotFound
	}
	m.departments[d.ID] = d
	return d, nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.departments[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.departments, id)
	return nil
}

func (m *mockRepository) NameTaken(ctx context.Context, name string, except int64) (bool, error) {
	for id, d := range m.departments {
		if id != except && strings.EqualFold(d.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepository) SetManager(ctx context.Context, id int64, userID *uuid.UUID) error {
	d, ok := m.departments[id]
	if !ok {
		return shared.ErrNotFound
	}
	if userID == nil {
		d.Manager = nil
	} else {
		d.Manager = &Manager{UserID: *userID}
	}
	m.departments[id] = d
	return nil
}

func TestCreateRejectsDuplicateNameIgnoringCase(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()
	_, err := svc.Create(ctx, Input{Name: "Engineering"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, Input{Name: "  engineering "})
	require.Error(t, err)
	assert.Equal(t, MsgNameTaken, shared.UserSafeMessage(err))

	_, err = svc.Create(ctx, Input{})
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestUpdateAllowsRecasingOwnName(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()
	eng, err := svc.Create(ctx, Input{Name: "Engineering"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, Input{Name: "Sales"})
	require.NoError(t, err)

	name := "ENGINEERING"
	updated, err := svc.Update(ctx, eng.ID, Patch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "ENGINEERING", updated.Name)

	name = "sales"
	_, err = svc.Update(ctx, eng.ID, Patch{Name: &name})
	require.Error(t, err)
	assert.Equal(t, MsgNameTaken, shared.UserSafeMessage(err))
}

func TestSameNameFoldsUnicode(t *testing.T) {
	svc := NewService(newMockRepository())
	assert.True(t, svc.sameName("Straße", "STRASSE"))
	assert.False(t, svc.sameName("Sales", "Support"))
}

func TestListPaginates(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()
	for _, n := range []string{"A", "B", "C"} {
		_, err := svc.Create(ctx, Input{Name: n})
		require.NoError(t, err)
	}
	page, err := svc.List(ctx, ListFilters{Page: shared.PageRequest{Page: 2, PageSize: 2}})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "C", page.Results[0].Name)
}
