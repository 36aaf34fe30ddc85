package rbac

import (
	"context"
	"slices"

	"github.com/google/uuid"
)

// ResourceType names the kind of record an operation targets.
type ResourceType string

// Resource types guarded by the evaluator.
const (
	ResourceEmployee   ResourceType = "Employee"
	ResourceLeave      ResourceType = "Leave"
	ResourceSalary     ResourceType = "Salary"
	ResourceDepartment ResourceType = "Department"
	ResourceRole       ResourceType = "Role"
	ResourceUser       ResourceType = "User"
)

// selfService reports whether an employee may reach their own rows of this
// resource without a role permission.
func (r ResourceType) selfService() bool {
	switch r {
	case ResourceEmployee, ResourceLeave, ResourceSalary:
		return true
	}
	return false
}

// Action is the operation requested on a resource.
type Action string

// Raw actions as exposed by the API layer. Only list, create, update and
// destroy are canonical; see NormalizeAction.
const (
	ActionList          Action = "list"
	ActionCreate        Action = "create"
	ActionRetrieve      Action = "retrieve"
	ActionUpdate        Action = "update"
	ActionPartialUpdate Action = "partial_update"
	ActionDestroy       Action = "destroy"
)

// Instance reports whether the action addresses one concrete record.
func (a Action) Instance() bool {
	switch a {
	case ActionRetrieve, ActionUpdate, ActionPartialUpdate, ActionDestroy:
		return true
	}
	return false
}

// Role is the read-only view of a role used during evaluation.
type Role struct {
	ID          int64
	Name        string
	Permissions []string
}

// Has reports whether the role carries the permission key.
func (r *Role) Has(key string) bool {
	if r == nil || key == "" {
		return false
	}
	return slices.Contains(r.Permissions, key)
}

// Principal describes the authenticated actor of one request.
type Principal struct {
	UserID          uuid.UUID
	IsAuthenticated bool
	IsAdmin         bool
	Role            *Role
}

// Anonymous returns the principal used when no credentials were presented.
func Anonymous() Principal {
	return Principal{}
}

// Is reports whether the principal is the given user.
func (p Principal) Is(userID uuid.UUID) bool {
	return p.IsAuthenticated && p.UserID != uuid.Nil && p.UserID == userID
}

// Owned is implemented by records that directly reference their owning user.
// A user record is its own owner.
type Owned interface {
	OwnerUserID() uuid.UUID
}

// EmployeeOwned is implemented by records owned through an employee.
type EmployeeOwned interface {
	EmployeeOwnerUserID() uuid.UUID
}

// OwnerResolver resolves an employee identifier to the user owning it.
// Implementations return ErrReferentNotFound when the employee does not exist.
type OwnerResolver interface {
	ResolveEmployeeOwner(ctx context.Context, employeeID int64) (uuid.UUID, error)
}
