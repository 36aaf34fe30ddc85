package employees

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hrdesk/hrdesk/internal/departments"
	"github.com/hrdesk/hrdesk/internal/rbac"
	"github.com/hrdesk/hrdesk/internal/roles"
	"github.com/hrdesk/hrdesk/internal/shared"
	"github.com/hrdesk/hrdesk/internal/users"
)

const detailFanout = 4

// RepositoryPort defines data access methods for employees and their records.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error

	ListEmployees(ctx context.Context, f ListFilters) ([]Employee, int, error)
	GetEmployee(ctx context.Context, id int64) (Employee, error)
	ResolveEmployeeOwner(ctx context.Context, employeeID int64) (uuid.UUID, error)

	ListSalaries(ctx context.Context, f RecordFilters) ([]Salary, int, error)
	GetSalary(ctx context.Context, id int64) (Salary, error)
	CurrentSalary(ctx context.Context, employeeID int64) (Salary, error)
	CreateSalary(ctx context.Context, s Salary) (int64, error)
	DeleteSalary(ctx context.Context, id int64) error

	ListLeaves(ctx context.Context, f RecordFilters) ([]Leave, int, error)
	GetLeave(ctx context.Context, id int64) (Leave, error)
	CreateLeave(ctx context.Context, l Leave) (int64, error)
	UpdateLeaveStatus(ctx context.Context, id int64, status string) error
	DeleteLeave(ctx context.Context, id int64) error
}

// DepartmentReader loads departments for employee details.
type DepartmentReader interface {
	Get(ctx context.Context, id int64) (departments.Department, error)
}

// Service handles employee, salary and leave business logic.
type Service struct {
	repo        RepositoryPort
	departments DepartmentReader
	users       *users.Service
	roles       *roles.Service
	catalog     *rbac.Catalog
	validate    *validator.Validate
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, depts DepartmentReader, userSvc *users.Service, roleSvc *roles.Service, catalog *rbac.Catalog) *Service {
	return &Service{
		repo:        repo,
		departments: depts,
		users:       userSvc,
		roles:       roleSvc,
		catalog:     catalog,
		validate:    shared.NewValidator(),
	}
}

// ListEmployees returns one page of detailed employees.
func (s *Service) ListEmployees(ctx context.Context, f ListFilters) (shared.Page[View], error) {
	f.Query = strings.TrimSpace(f.Query)
	list, total, err := s.repo.ListEmployees(ctx, f)
	if err != nil {
		return shared.Page[View]{}, err
	}
	depts, err := s.loadDepartments(ctx, list)
	if err != nil {
		return shared.Page[View]{}, err
	}
	views := make([]View, 0, len(list))
	for _, e := range list {
		v := View{ID: e.ID, User: e.User.View(), HireDate: e.HireDate, Manager: e.Manager}
		if e.DepartmentID != nil {
			if d, ok := depts[*e.DepartmentID]; ok {
				dv := d.View()
				v.Department = &dv
			}
		}
		views = append(views, v)
	}
	return shared.NewPage(f.Page, total, views), nil
}

// loadDepartments fetches the distinct departments of a page concurrently.
func (s *Service) loadDepartments(ctx context.Context, list []Employee) (map[int64]departments.Department, error) {
	var ids []int64
	seen := make(map[int64]struct{})
	for _, e := range list {
		if e.DepartmentID == nil {
			continue
		}
		if _, ok := seen[*e.DepartmentID]; ok {
			continue
		}
		seen[*e.DepartmentID] = struct{}{}
		ids = append(ids, *e.DepartmentID)
	}
	found := make([]departments.Department, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(detailFanout)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			d, err := s.departments.Get(gctx, id)
			if err != nil && !errors.Is(err, shared.ErrNotFound) {
				return err
			}
			found[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("employees: load departments: %w", err)
	}
	out := make(map[int64]departments.Department, len(ids))
	for _, d := range found {
		if d.ID != 0 {
			out[d.ID] = d
		}
	}
	return out, nil
}

// GetEmployee returns one employee.
func (s *Service) GetEmployee(ctx context.Context, id int64) (Employee, error) {
	return s.repo.GetEmployee(ctx, id)
}

// Detail renders an employee with its department and current salary,
// loaded concurrently.
func (s *Service) Detail(ctx context.Context, e Employee) (View, error) {
	v := View{ID: e.ID, User: e.User.View(), HireDate: e.HireDate, Manager: e.Manager}
	g, gctx := errgroup.WithContext(ctx)
	if e.DepartmentID != nil {
		g.Go(func() error {
			d, err := s.departments.Get(gctx, *e.DepartmentID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return nil
				}
				return err
			}
			dv := d.View()
			v.Department = &dv
			return nil
		})
	}
	g.Go(func() error {
		sal, err := s.repo.CurrentSalary(gctx, e.ID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil
			}
			return err
		}
		sv := sal.View()
		v.CurrentSalary = &sv
		return nil
	})
	if err := g.Wait(); err != nil {
		return View{}, fmt.Errorf("employees: detail: %w", err)
	}
	return v, nil
}

// CreateEmployee creates the user account, the optional role and first
// salary, and the employee row in one transaction.
func (s *Service) CreateEmployee(ctx context.Context, actor rbac.Principal, in CreateInput) (Employee, error) {
	if err := shared.ValidateStruct(s.validate, in); err != nil {
		return Employee{}, err
	}
	if !actor.IsAdmin && (in.Role != nil || in.User.IsAdmin || in.User.RoleID != nil) {
		return Employee{}, &rbac.Denial{Reason: rbac.ReasonForbidden, Message: rbac.MsgInsufficientPermission}
	}
	if in.Salary != nil {
		rate, err := ParsePayRate(string(in.Salary.PayRate))
		if err != nil {
			return Employee{}, err
		}
		in.Salary.PayRate = rate
		if err := checkDates(in.Salary.StartDate, in.Salary.EndDate); err != nil {
			return Employee{}, err
		}
	}

	var id int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		dept, err := tx.Departments().Get(ctx, in.DepartmentID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return invalidPK("department", in.DepartmentID)
			}
			return err
		}
		if in.Manager && dept.Manager != nil {
			return shared.NewValidationError(fmt.Sprintf("This department already has a manager: %s.", dept.Manager.Username))
		}

		userIn := in.User
		if in.Role != nil {
			role, err := s.roles.WithRepository(tx.Roles()).CreateRole(ctx, *in.Role)
			if err != nil {
				return err
			}
			userIn.RoleID = &role.ID
		}
		user, err := s.users.WithRepository(tx.Users()).Create(ctx, actor, userIn)
		if err != nil {
			return err
		}

		deptID := dept.ID
		id, err = tx.CreateEmployee(ctx, Employee{UserID: user.ID, DepartmentID: &deptID, Manager: in.Manager, HireDate: in.HireDate})
		if err != nil {
			return err
		}
		if in.Manager {
			if err := tx.Departments().SetManager(ctx, dept.ID, &user.ID); err != nil {
				return err
			}
		}
		if in.Salary != nil {
			_, err := tx.CreateSalary(ctx, Salary{
				EmployeeID: id,
				PayRate:    in.Salary.PayRate,
				PayPeriod:  in.Salary.PayPeriod,
				StartDate:  in.Salary.StartDate,
				EndDate:    in.Salary.EndDate,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Employee{}, err
	}
	return s.repo.GetEmployee(ctx, id)
}

// UpdateEmployee applies a partial update. Only one employee may manage a
// department; clearing the flag releases the department.
func (s *Service) UpdateEmployee(ctx context.Context, actor rbac.Principal, id int64, in UpdateInput) (Employee, error) {
	if err := shared.ValidateStruct(s.validate, in); err != nil {
		return Employee{}, err
	}
	if !actor.IsAdmin && in.Role != nil {
		return Employee{}, &rbac.Denial{Reason: rbac.ReasonForbidden, Message: rbac.MsgInsufficientPermission}
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		e, err := tx.GetEmployee(ctx, id)
		if err != nil {
			return err
		}
		if in.User != nil {
			if _, err := s.users.WithRepository(tx.Users()).Update(ctx, actor, e.UserID, *in.User); err != nil {
				return err
			}
		}

		prevDept, prevManager := e.DepartmentID, e.Manager
		if in.DepartmentID != nil {
			if _, err := tx.Departments().Get(ctx, *in.DepartmentID); err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return invalidPK("department", *in.DepartmentID)
				}
				return err
			}
			e.DepartmentID = in.DepartmentID
		}
		if in.HireDate != nil {
			e.HireDate = in.HireDate
		}
		if in.Manager != nil {
			e.Manager = *in.Manager
		}
		if err := s.syncManager(ctx, tx, e, prevDept, prevManager); err != nil {
			return err
		}
		if err := tx.UpdateEmployee(ctx, e); err != nil {
			return err
		}
		if in.Role != nil {
			return s.applyRole(ctx, tx, actor, e.UserID, *in.Role)
		}
		return nil
	})
	if err != nil {
		return Employee{}, err
	}
	return s.repo.GetEmployee(ctx, id)
}

// syncManager keeps departments.manager_id consistent with the employee's
// manager flag.
func (s *Service) syncManager(ctx context.Context, tx TxRepository, e Employee, prevDept *int64, prevManager bool) error {
	depts := tx.Departments()
	if prevManager && prevDept != nil && (!e.Manager || !sameID(prevDept, e.DepartmentID)) {
		old, err := depts.Get(ctx, *prevDept)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if err == nil && old.Manager != nil && old.Manager.UserID == e.UserID {
			if err := depts.SetManager(ctx, old.ID, nil); err != nil {
				return err
			}
		}
	}
	if !e.Manager || e.DepartmentID == nil {
		return nil
	}
	dept, err := depts.Get(ctx, *e.DepartmentID)
	if err != nil {
		return err
	}
	if dept.Manager != nil && dept.Manager.UserID != e.UserID {
		return shared.NewValidationError(fmt.Sprintf("manager: This department already has a manager: %s.", dept.Manager.Username))
	}
	return depts.SetManager(ctx, dept.ID, &e.UserID)
}

// applyRole edits the user's current role or creates one for them.
func (s *Service) applyRole(ctx context.Context, tx TxRepository, actor rbac.Principal, userID uuid.UUID, patch roles.Patch) error {
	user, err := tx.Users().Get(ctx, userID)
	if err != nil {
		return err
	}
	roleSvc := s.roles.WithRepository(tx.Roles())
	if user.RoleID != nil {
		_, err := roleSvc.UpdateRole(ctx, *user.RoleID, patch)
		return err
	}
	in := roles.Input{}
	if patch.Name != nil {
		in.Name = *patch.Name
	}
	if patch.Description != nil {
		in.Description = *patch.Description
	}
	if patch.Permissions != nil {
		in.Permissions = *patch.Permissions
	}
	role, err := roleSvc.CreateRole(ctx, in)
	if err != nil {
		return err
	}
	_, err = s.users.WithRepository(tx.Users()).Update(ctx, actor, userID, users.UpdateInput{RoleID: &role.ID})
	return err
}

// DeleteEmployee removes an employee and releases any department it managed.
func (s *Service) DeleteEmployee(ctx context.Context, id int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		e, err := tx.GetEmployee(ctx, id)
		if err != nil {
			return err
		}
		if err := s.syncManager(ctx, tx, Employee{UserID: e.UserID}, e.DepartmentID, e.Manager); err != nil {
			return err
		}
		return tx.DeleteEmployee(ctx, id)
	})
}

// ListSalaries returns one page of salaries.
func (s *Service) ListSalaries(ctx context.Context, f RecordFilters) (shared.Page[SalaryView], error) {
	f.Query = strings.TrimSpace(f.Query)
	list, total, err := s.repo.ListSalaries(ctx, f)
	if err != nil {
		return shared.Page[SalaryView]{}, err
	}
	views := make([]SalaryView, 0, len(list))
	for _, sal := range list {
		views = append(views, sal.View())
	}
	return shared.NewPage(f.Page, total, views), nil
}

// GetSalary returns one salary.
func (s *Service) GetSalary(ctx context.Context, id int64) (Salary, error) {
	return s.repo.GetSalary(ctx, id)
}

// CreateSalary adds a salary row to an existing employee.
func (s *Service) CreateSalary(ctx context.Context, in CreateSalaryInput) (Salary, error) {
	if err := shared.ValidateStruct(s.validate, in); err != nil {
		return Salary{}, err
	}
	rate, err := ParsePayRate(string(in.PayRate))
	if err != nil {
		return Salary{}, err
	}
	if err := checkDates(in.StartDate, in.EndDate); err != nil {
		return Salary{}, err
	}
	if err := s.ensureEmployee(ctx, in.EmployeeID); err != nil {
		return Salary{}, err
	}
	id, err := s.repo.CreateSalary(ctx, Salary{
		EmployeeID: in.EmployeeID,
		PayRate:    rate,
		PayPeriod:  in.PayPeriod,
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
	})
	if err != nil {
		return Salary{}, err
	}
	return s.repo.GetSalary(ctx, id)
}

// UpdateSalary records a changed salary as a new row for the same employee
// and returns it. An update that changes nothing returns the current row.
func (s *Service) UpdateSalary(ctx context.Context, id int64, in SalaryPatch) (Salary, error) {
	if err := shared.ValidateStruct(s.validate, in); err != nil {
		return Salary{}, err
	}
	current, err := s.repo.GetSalary(ctx, id)
	if err != nil {
		return Salary{}, err
	}
	next := current
	if in.PayRate != nil {
		rate, err := ParsePayRate(string(*in.PayRate))
		if err != nil {
			return Salary{}, err
		}
		next.PayRate = rate
	}
	if in.PayPeriod != nil {
		next.PayPeriod = *in.PayPeriod
	}
	if in.StartDate != nil {
		next.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		next.EndDate = in.EndDate
	}
	if next.PayRate == current.PayRate && next.PayPeriod == current.PayPeriod &&
		shared.DatesEqual(next.StartDate, current.StartDate) && shared.DatesEqual(next.EndDate, current.EndDate) {
		return current, nil
	}
	if err := checkDates(next.StartDate, next.EndDate); err != nil {
		return Salary{}, err
	}
	newID, err := s.repo.CreateSalary(ctx, next)
	if err != nil {
		return Salary{}, err
	}
	return s.repo.GetSalary(ctx, newID)
}

// DeleteSalary removes a salary row.
func (s *Service) DeleteSalary(ctx context.Context, id int64) error {
	return s.repo.DeleteSalary(ctx, id)
}

// ListLeaves returns one page of leave requests.
func (s *Service) ListLeaves(ctx context.Context, f RecordFilters) (shared.Page[LeaveView], error) {
	f.Query = strings.TrimSpace(f.Query)
	list, total, err := s.repo.ListLeaves(ctx, f)
	if err != nil {
		return shared.Page[LeaveView]{}, err
	}
	views := make([]LeaveView, 0, len(list))
	for _, l := range list {
		views = append(views, l.View())
	}
	return shared.NewPage(f.Page, total, views), nil
}

// GetLeave returns one leave request.
func (s *Service) GetLeave(ctx context.Context, id int64) (Leave, error) {
	return s.repo.GetLeave(ctx, id)
}

// CreateLeave files a leave request. Requests start Pending unless the actor
// may already decide on leave status.
func (s *Service) CreateLeave(ctx context.Context, actor rbac.Principal, in CreateLeaveInput) (Leave, error) {
	if err := shared.ValidateStruct(s.validate, in); err != nil {
		return Leave{}, err
	}
	if err := checkDates(in.StartDate, in.EndDate); err != nil {
		return Leave{}, err
	}
	if err := s.ensureEmployee(ctx, in.EmployeeID); err != nil {
		return Leave{}, err
	}
	status := LeavePending
	if in.Status != "" && s.decidesLeave(actor) {
		status = in.Status
	}
	id, err := s.repo.CreateLeave(ctx, Leave{
		EmployeeID: in.EmployeeID,
		LeaveType:  in.LeaveType,
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
		Reason:     in.Reason,
		Status:     status,
	})
	if err != nil {
		return Leave{}, err
	}
	return s.repo.GetLeave(ctx, id)
}

// UpdateLeave changes the status of a leave request. Employees without the
// leave status permission may only cancel their own requests.
func (s *Service) UpdateLeave(ctx context.Context, actor rbac.Principal, id int64, in LeavePatch) (Leave, error) {
	if err := shared.ValidateStruct(s.validate, in); err != nil {
		return Leave{}, err
	}
	current, err := s.repo.GetLeave(ctx, id)
	if err != nil {
		return Leave{}, err
	}
	if in.Status == nil || *in.Status == current.Status {
		return current, nil
	}
	if !s.decidesLeave(actor) && *in.Status != LeaveCancelled {
		return Leave{}, &rbac.Denial{Reason: rbac.ReasonForbidden, Message: rbac.MsgInsufficientPermission}
	}
	if err := s.repo.UpdateLeaveStatus(ctx, id, *in.Status); err != nil {
		return Leave{}, err
	}
	current.Status = *in.Status
	return current, nil
}

// DeleteLeave removes a leave request.
func (s *Service) DeleteLeave(ctx context.Context, id int64) error {
	return s.repo.DeleteLeave(ctx, id)
}

// ResolveEmployeeOwner exposes ownership resolution to the evaluator.
func (s *Service) ResolveEmployeeOwner(ctx context.Context, employeeID int64) (uuid.UUID, error) {
	return s.repo.ResolveEmployeeOwner(ctx, employeeID)
}

func (s *Service) decidesLeave(actor rbac.Principal) bool {
	if actor.IsAdmin {
		return true
	}
	key, ok := s.catalog.Lookup(rbac.ResourceLeave, rbac.ActionUpdate)
	return ok && actor.Role.Has(key)
}

func (s *Service) ensureEmployee(ctx context.Context, id int64) error {
	if _, err := s.repo.GetEmployee(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return invalidPK("employee", id)
		}
		return err
	}
	return nil
}

func invalidPK(field string, id int64) error {
	return shared.NewValidationError(fmt.Sprintf("%s: Invalid pk \"%d\" - object does not exist.", field, id))
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
