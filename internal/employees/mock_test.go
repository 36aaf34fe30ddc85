package employees

import (
	"context"
	"maps"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hrdesk/hrdesk/internal/departments"
	"github.com/hrdesk/hrdesk/internal/rbac"
	"github.com/hrdesk/hrdesk/internal/roles"
	"github.com/hrdesk/hrdesk/internal/shared"
	"github.com/hrdesk/hrdesk/internal/users"
)

// memStore backs every repository port used by the employee service. WithTx
// snapshots the maps and restores them when the callback fails.
type memStore struct {
	users     map[uuid.UUID]users.User
	roles     map[int64]roles.Role
	depts     map[int64]departments.Department
	employees map[int64]Employee
	salaries  map[int64]Salary
	leaves    map[int64]Leave
	nextID    int64
}

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[uuid.UUID]users.User),
		roles:     make(map[int64]roles.Role),
		depts:     make(map[int64]departments.Department),
		employees: make(map[int64]Employee),
		salaries:  make(map[int64]Salary),
		leaves:    make(map[int64]Leave),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snap := *m
	snap.users = maps.Clone(m.users)
	snap.roles = maps.Clone(m.roles)
	snap.depts = maps.Clone(m.depts)
	snap.employees = maps.Clone(m.employees)
	snap.salaries = maps.Clone(m.salaries)
	snap.leaves = maps.Clone(m.leaves)
	if err := fn(ctx, m); err != nil {
		*m = snap
		return err
	}
	return nil
}

func (m *memStore) Users() users.RepositoryPort             { return memUsers{m} }
func (m *memStore) Roles() roles.RepositoryPort             { return memRoles{m} }
func (m *memStore) Departments() departments.RepositoryPort { return memDepts{m} }

func (m *memStore) hydrate(e Employee) Employee {
	e.User = m.users[e.UserID]
	return e
}

func (m *memStore) ListEmployees(ctx context.Context, f ListFilters) ([]Employee, int, error) {
	var out []Employee
	for _, e := range m.employees {
		if f.EmployeeID != nil && e.ID != *f.EmployeeID {
			continue
		}
		if f.DepartmentID != nil && (e.DepartmentID == nil || *e.DepartmentID != *f.DepartmentID) {
			continue
		}
		e = m.hydrate(e)
		if f.Query != "" && !strings.Contains(strings.ToLower(e.User.Username), strings.ToLower(f.Query)) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (m *memStore) GetEmployee(ctx context.Context, id int64) (Employee, error) {
	e, ok := m.employees[id]
	if !ok {
		return Employee{}, shared.ErrNotFound
	}
	return m.hydrate(e), nil
}

func (m *memStore) ResolveEmployeeOwner(ctx context.Context, id int64) (uuid.UUID, error) {
	e, ok := m.employees[id]
	if !ok {
		return uuid.Nil, rbac.ErrReferentNotFound
	}
	return e.UserID, nil
}

func (m *memStore) CreateEmployee(ctx context.Context, e Employee) (int64, error) {
	e.ID = m.id()
	m.employees[e.ID] = e
	return e.ID, nil
}

func (m *memStore) UpdateEmployee(ctx context.Context, e Employee) error {
	if _, ok := m.employees[e.ID]; !ok {
		return shared.ErrNotFound
	}
	m.employees[e.ID] = e
	return nil
}

func (m *memStore) DeleteEmployee(ctx context.Context, id int64) error {
	if _, ok := m.employees[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.employees, id)
	return nil
}

func (m *memStore) salary(s Salary) Salary {
	e := m.hydrate(m.employees[s.EmployeeID])
	s.Employee = EmployeeSummary{ID: e.ID, User: UserSummary{ID: e.UserID, Username: e.User.Username}}
	return s
}

func (m *memStore) ListSalaries(ctx context.Context, f RecordFilters) ([]Salary, int, error) {
	var out []Salary
	for _, s := range m.salaries {
		if f.EmployeeID != nil && s.EmployeeID != *f.EmployeeID {
			continue
		}
		out = append(out, m.salary(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (m *memStore) GetSalary(ctx context.Context, id int64) (Salary, error) {
	s, ok := m.salaries[id]
	if !ok {
		return Salary{}, shared.ErrNotFound
	}
	return m.salary(s), nil
}

func (m *memStore) CurrentSalary(ctx context.Context, employeeID int64) (Salary, error) {
	list, _, _ := m.ListSalaries(ctx, RecordFilters{EmployeeID: &employeeID})
	if len(list) == 0 {
		return Salary{}, shared.ErrNotFound
	}
	return list[0], nil
}

func (m *memStore) CreateSalary(ctx context.Context, s Salary) (int64, error) {
	s.ID = m.id()
	s.Employee = EmployeeSummary{}
	m.salaries[s.ID] = s
	return s.ID, nil
}

func (m *memStore) DeleteSalary(ctx context.Context, id int64) error {
	if _, ok := m.salaries[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.salaries, id)
	return nil
}

func (m *memStore) ListLeaves(ctx context.Context, f RecordFilters) ([]Leave, int, error) {
	var out []Leave
	for _, l := range m.leaves {
		if f.EmployeeID != nil && l.EmployeeID != *f.EmployeeID {
			continue
		}
		l.OwnerID = m.employees[l.EmployeeID].UserID
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (m *memStore) GetLeave(ctx context.Context, id int64) (Leave, error) {
	l, ok := m.leaves[id]
	if !ok {
		return Leave{}, shared.ErrNotFound
	}
	l.OwnerID = m.employees[l.EmployeeID].UserID
	return l, nil
}

func (m *memStore) CreateLeave(ctx context.Context, l Leave) (int64, error) {
	l.ID = m.id()
	m.leaves[l.ID] = l
	return l.ID, nil
}

func (m *memStore) UpdateLeaveStatus(ctx context.Context, id int64, status string) error {
	l, ok := m.leaves[id]
	if !ok {
		return shared.ErrNotFound
	}
	l.Status = status
	m.leaves[id] = l
	return nil
}

func (m *memStore) DeleteLeave(ctx context.Context, id int64) error {
	if _, ok := m.leaves[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.leaves, id)
	return nil
}

type memUsers struct{ m *memStore }

func (u memUsers) Get(ctx context.Context, id uuid.UUID) (users.User, error) {
	user, ok := u.m.users[id]
	if !ok {
		return users.User{}, shared.ErrNotFound
	}
	return user, nil
}

func (u memUsers) List(ctx context.Context) ([]users.User, error) {
	return nil, nil
}

func (u memUsers) Create(ctx context.Context, user users.User) (users.User, error) {
	u.m.users[user.ID] = user
	return user, nil
}

func (u memUsers) Update(ctx context.Context, user users.User) (users.User, error) {
	u.m.users[user.ID] = user
	return user, nil
}

func (u memUsers) Delete(ctx context.Context, id uuid.UUID) error {
	delete(u.m.users, id)
	return nil
}

func (u memUsers) UsernameTaken(ctx context.Context, username string, except uuid.UUID) (bool, error) {
	for id, user := range u.m.users {
		if id != except && user.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (u memUsers) EmailTaken(ctx context.Context, email string, except uuid.UUID) (bool, error) {
	for id, user := range u.m.users {
		if id != except && email != "" && strings.EqualFold(user.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (u memUsers) AdminExists(ctx context.Context, except uuid.UUID) (bool, error) {
	for id, user := range u.m.users {
		if id != except && user.IsAdmin {
			return true, nil
		}
	}
	return false, nil
}

func (u memUsers) RoleExists(ctx context.Context, roleID int64) (bool, error) {
	_, ok := u.m.roles[roleID]
	return ok, nil
}

type memRoles struct{ m *memStore }

func (r memRoles) ListRoles(ctx context.Context, f roles.ListFilters) ([]roles.Role, error) {
	return nil, nil
}

func (r memRoles) GetRole(ctx context.Context, id int64) (roles.Role, error) {
	role, ok := r.m.roles[id]
	if !ok {
		return roles.Role{}, shared.ErrNotFound
	}
	return role, nil
}

func (r memRoles) CreateRole(ctx context.Context, role roles.Role) (roles.Role, error) {
	role.ID = r.m.id()
	r.m.roles[role.ID] = role
	return role, nil
}

func (r memRoles) UpdateRole(ctx context.Context, role roles.Role) (roles.Role, error) {
	r.m.roles[role.ID] = role
	return role, nil
}

func (r memRoles) DeleteRole(ctx context.Context, id int64) error {
	delete(r.m.roles, id)
	return nil
}

type memDepts struct{ m *memStore }

func (d memDepts) List(ctx context.Context, f departments.ListFilters) ([]departments.Department, int, error) {
	return nil, 0, nil
}

func (d memDepts) Get(ctx context.Context, id int64) (departments.Department, error) {
	dept, ok := d.m.depts[id]
	if !ok {
		return departments.Department{}, shared.ErrNotFound
	}
	return dept, nil
}

func (d memDepts) Create(ctx context.Context, dept departments.Department) (departments.Department, error) {
	dept.ID = d.m.id()
	d.m.depts[dept.ID] = dept
	return dept, nil
}

func (d memDepts) Update(ctx context.Context, dept departments.Department) (departments.Department, error) {
	d.m.depts[dept.ID] = dept
	return dept, nil
}

func (d memDepts) Delete(ctx context.Context, id int64) error {
	delete(d.m.depts, id)
	return nil
}

func (d memDepts) NameTaken(ctx context.Context, name string, except int64) (bool, error) {
	return false, nil
}

func (d memDepts) SetManager(ctx context.Context, id int64, userID *uuid.UUID) error {
	dept, ok := d.m.depts[id]
	if !ok {
		return shared.ErrNotFound
	}
	dept.Manager = nil
	if userID != nil {
		u := d.m.users[*userID]
		dept.Manager = &departments.Manager{UserID: u.ID, Username: u.Username}
	}
	d.m.depts[id] = dept
	return nil
}

func newTestService(store *memStore) *Service {
	userSvc := users.NewService(memUsers{store})
	userSvc.SetHashCost(bcrypt.MinCost)
	roleSvc := roles.NewService(memRoles{store}, rbac.DefaultCatalog())
	return NewService(store, memDepts{store}, userSvc, roleSvc, rbac.DefaultCatalog())
}

// seedEmployee stores a user and its employee row in department deptID.
func seedEmployee(store *memStore, username string, deptID int64) Employee {
	u := users.User{ID: uuid.New(), Username: username, IsActive: true}
	store.users[u.ID] = u
	e := Employee{ID: store.id(), UserID: u.ID, DepartmentID: &deptID}
	store.employees[e.ID] = e
	return store.hydrate(e)
}

func seedDepartment(store *memStore, name string) departments.Department {
	d := departments.Department{ID: store.id(), Name: name}
	store.depts[d.ID] = d
	return d
}
