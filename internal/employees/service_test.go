package employees

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrdesk/hrdesk/internal/rbac"
	"github.com/hrdesk/hrdesk/internal/roles"
	"github.com/hrdesk/hrdesk/internal/shared"
	"github.com/hrdesk/hrdesk/internal/users"
)

var admin = rbac.Principal{UserID: uuid.New(), IsAuthenticated: true, IsAdmin: true}

func date(t *testing.T, s string) *shared.Date {
	t.Helper()
	d, err := shared.ParseDate(s)
	require.NoError(t, err)
	return &d
}

func newEmployeeInput(username string, deptID int64) CreateInput {
	return CreateInput{
		User:         users.CreateInput{Username: username, Password: "Str0ng!pass"},
		DepartmentID: deptID,
	}
}

func TestCreateEmployeeIsAtomic(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	dept := seedDepartment(store, "Engineering")
	ctx := context.Background()

	in := newEmployeeInput("ana", dept.ID)
	in.Manager = true
	in.Role = &roles.Input{Name: "HR", Permissions: []string{"employee_list"}}
	in.Salary = &SalaryFields{PayRate: "1200.00", PayPeriod: "monthly"}
	e, err := svc.CreateEmployee(ctx, admin, in)
	require.NoError(t, err)
	assert.Equal(t, "ana", e.User.Username)
	require.NotNil(t, e.User.RoleID)
	assert.Equal(t, []string{"employee_list"}, store.roles[*e.User.RoleID].Permissions)
	require.NotNil(t, store.depts[dept.ID].Manager)
	assert.Equal(t, e.UserID, store.depts[dept.ID].Manager.UserID)

	v, err := svc.Detail(ctx, e)
	require.NoError(t, err)
	require.NotNil(t, v.Department)
	assert.Equal(t, "ana", v.Department.Manager.User.Username)
	require.NotNil(t, v.CurrentSalary)
	assert.Equal(t, "1200.00", v.CurrentSalary.PayRate)

	// A second manager for the same department rolls back the user too.
	in = newEmployeeInput("ben", dept.ID)
	in.Manager = true
	_, err = svc.CreateEmployee(ctx, admin, in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))
	assert.Contains(t, shared.UserSafeMessage(err), "This department already has a manager: ana.")
	assert.Len(t, store.users, 1)
	assert.Len(t, store.employees, 1)
}

func TestCreateEmployeeValidation(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.CreateEmployee(ctx, admin, newEmployeeInput("ana", 99))
	require.Error(t, err)
	assert.Contains(t, shared.UserSafeMessage(err), `department: Invalid pk "99" - object does not exist.`)

	dept := seedDepartment(store, "Ops")
	in := newEmployeeInput("ana", dept.ID)
	in.User.Password = "weak"
	_, err = svc.CreateEmployee(ctx, admin, in)
	require.Error(t, err)
	assert.Contains(t, shared.UserSafeMessage(err), "Password must be at least 8 characters long.")
	assert.Empty(t, store.users)
}

func TestCreateEmployeeRoleRequiresAdmin(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	dept := seedDepartment(store, "Ops")
	hr := rbac.Principal{UserID: uuid.New(), IsAuthenticated: true, Role: &rbac.Role{Permissions: []string{"employee_create"}}}

	in := newEmployeeInput("ana", dept.ID)
	in.Role = &roles.Input{Name: "Boss", Permissions: []string{"salary_update"}}
	_, err := svc.CreateEmployee(context.Background(), hr, in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, rbac.ErrForbidden))

	_, err = svc.CreateEmployee(context.Background(), hr, newEmployeeInput("ana", dept.ID))
	require.NoError(t, err)
}

func TestUpdateEmployeeMovesManager(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ops := seedDepartment(store, "Ops")
	sales := seedDepartment(store, "Sales")
	ctx := context.Background()

	in := newEmployeeInput("ana", ops.ID)
	in.Manager = true
	e, err := svc.CreateEmployee(ctx, admin, in)
	require.NoError(t, err)

	_, err = svc.UpdateEmployee(ctx, admin, e.ID, UpdateInput{DepartmentID: &sales.ID})
	require.NoError(t, err)
	assert.Nil(t, store.depts[ops.ID].Manager)
	require.NotNil(t, store.depts[sales.ID].Manager)

	other := seedEmployee(store, "ben", sales.ID)
	yes := true
	_, err = svc.UpdateEmployee(ctx, admin, other.ID, UpdateInput{Manager: &yes})
	require.Error(t, err)
	assert.Contains(t, shared.UserSafeMessage(err), "manager: This department already has a manager: ana.")

	no := false
	_, err = svc.UpdateEmployee(ctx, admin, e.ID, UpdateInput{Manager: &no})
	require.NoError(t, err)
	assert.Nil(t, store.depts[sales.ID].Manager)
}

func TestUpdateEmployeeRole(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	dept := seedDepartment(store, "Ops")
	e := seedEmployee(store, "ana", dept.ID)
	ctx := context.Background()

	perms := []string{"leave_view_all"}
	_, err := svc.UpdateEmployee(ctx, admin, e.ID, UpdateInput{Role: &roles.Patch{Permissions: &perms}})
	require.NoError(t, err)
	roleID := store.users[e.UserID].RoleID
	require.NotNil(t, roleID)
	assert.Equal(t, perms, store.roles[*roleID].Permissions)

	self := rbac.Principal{UserID: e.UserID, IsAuthenticated: true}
	_, err = svc.UpdateEmployee(ctx, self, e.ID, UpdateInput{Role: &roles.Patch{Permissions: &perms}})
	assert.True(t, errors.Is(err, rbac.ErrForbidden))
}

func TestDeleteEmployeeReleasesDepartment(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	dept := seedDepartment(store, "Ops")
	in := newEmployeeInput("ana", dept.ID)
	in.Manager = true
	e, err := svc.CreateEmployee(context.Background(), admin, in)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEmployee(context.Background(), e.ID))
	assert.Nil(t, store.depts[dept.ID].Manager)
	assert.Empty(t, store.employees)
	assert.True(t, errors.Is(svc.DeleteEmployee(context.Background(), e.ID), shared.ErrNotFound))
}

func TestListEmployeesFiltersByHint(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	dept := seedDepartment(store, "Ops")
	ana := seedEmployee(store, "ana", dept.ID)
	seedEmployee(store, "ben", dept.ID)

	page, err := svc.ListEmployees(context.Background(), ListFilters{Page: shared.PageRequest{Page: 1, PageSize: 10}})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	require.NotNil(t, page.Results[0].Department)
	assert.Equal(t, "Ops", page.Results[0].Department.Name)

	page, err = svc.ListEmployees(context.Background(), ListFilters{EmployeeID: &ana.ID, Page: shared.PageRequest{Page: 1, PageSize: 10}})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "ana", page.Results[0].User.Username)
}

func TestUpdateSalaryAppendsHistory(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	e := seedEmployee(store, "ana", seedDepartment(store, "Ops").ID)
	ctx := context.Background()

	first, err := svc.CreateSalary(ctx, CreateSalaryInput{
		EmployeeID:   e.ID,
		SalaryFields: SalaryFields{PayRate: "1000", PayPeriod: "monthly", StartDate: date(t, "2024-01-01")},
	})
	require.NoError(t, err)
	assert.Equal(t, PayRate("1000.00"), first.PayRate)

	same, err := svc.UpdateSalary(ctx, first.ID, SalaryPatch{PayPeriod: strPtr("monthly")})
	require.NoError(t, err)
	assert.Equal(t, first.ID, same.ID)
	assert.Len(t, store.salaries, 1)

	rate := PayRate("1500.00")
	next, err := svc.UpdateSalary(ctx, first.ID, SalaryPatch{PayRate: &rate})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, next.ID)
	assert.Equal(t, "monthly", next.PayPeriod)
	assert.True(t, shared.DatesEqual(first.StartDate, next.StartDate))
	assert.Len(t, store.salaries, 2)

	_, err = svc.UpdateSalary(ctx, next.ID, SalaryPatch{EndDate: date(t, "2023-01-01")})
	require.Error(t, err)
	assert.Contains(t, shared.UserSafeMessage(err), "end_date")
}

func TestCreateSalaryUnknownEmployee(t *testing.T) {
	svc := newTestService(newMemStore())
	_, err := svc.CreateSalary(context.Background(), CreateSalaryInput{EmployeeID: 5, SalaryFields: SalaryFields{PayRate: "10"}})
	require.Error(t, err)
	assert.Contains(t, shared.UserSafeMessage(err), `employee: Invalid pk "5"`)
}

func TestLeaveStatusRules(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	e := seedEmployee(store, "ana", seedDepartment(store, "Ops").ID)
	owner := rbac.Principal{UserID: e.UserID, IsAuthenticated: true}
	approver := rbac.Principal{UserID: uuid.New(), IsAuthenticated: true, Role: &rbac.Role{Permissions: []string{"leave_update_status"}}}
	ctx := context.Background()

	l, err := svc.CreateLeave(ctx, owner, CreateLeaveInput{EmployeeID: e.ID, LeaveType: "Annual", Status: LeaveApproved})
	require.NoError(t, err)
	assert.Equal(t, LeavePending, l.Status, "owners cannot self-approve on create")

	_, err = svc.UpdateLeave(ctx, owner, l.ID, LeavePatch{Status: strPtr(LeaveApproved)})
	assert.True(t, errors.Is(err, rbac.ErrForbidden))

	approved, err := svc.UpdateLeave(ctx, approver, l.ID, LeavePatch{Status: strPtr(LeaveApproved)})
	require.NoError(t, err)
	assert.Equal(t, LeaveApproved, approved.Status)

	cancelled, err := svc.UpdateLeave(ctx, owner, l.ID, LeavePatch{Status: strPtr(LeaveCancelled)})
	require.NoError(t, err)
	assert.Equal(t, LeaveCancelled, cancelled.Status)

	_, err = svc.UpdateLeave(ctx, owner, l.ID, LeavePatch{Status: strPtr("Lost")})
	assert.True(t, errors.Is(err, shared.ErrValidation))

	created, err := svc.CreateLeave(ctx, admin, CreateLeaveInput{EmployeeID: e.ID, Status: LeaveApproved})
	require.NoError(t, err)
	assert.Equal(t, LeaveApproved, created.Status)
}

func TestLeaveDatesOrdered(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	e := seedEmployee(store, "ana", seedDepartment(store, "Ops").ID)
	_, err := svc.CreateLeave(context.Background(), admin, CreateLeaveInput{
		EmployeeID: e.ID,
		StartDate:  date(t, "2025-03-10"),
		EndDate:    date(t, "2025-03-01"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func strPtr(s string) *string { return &s }
