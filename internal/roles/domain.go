package roles

import (
	"time"

	"github.com/hrdesk/hrdesk/internal/rbac"
)

// Role is a named set of catalog permission keys assigned to users.
type Role struct {
	ID          int64
	Name        string
	Description string
	Permissions []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RBAC returns the evaluation view of the role.
func (r Role) RBAC() *rbac.Role {
	return &rbac.Role{ID: r.ID, Name: r.Name, Permissions: append([]string(nil), r.Permissions...)}
}

// PermissionDisplay pairs a permission key with its human readable name.
type PermissionDisplay struct {
	Codename string `json:"codename"`
	Name     string `json:"name"`
}

// View is the JSON shape of a role.
type View struct {
	ID                 int64               `json:"id"`
	Name               string              `json:"name"`
	Description        string              `json:"description"`
	Permissions        []string            `json:"permissions"`
	PermissionsDisplay []PermissionDisplay `json:"permissions_display"`
}

// Input is the payload accepted on create and update.
type Input struct {
	Name        string   `json:"name" validate:"max=255"`
	Description string   `json:"description" validate:"max=255"`
	Permissions []string `json:"permissions"`
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Name        *string   `json:"name" validate:"omitempty,max=255"`
	Description *string   `json:"description" validate:"omitempty,max=255"`
	Permissions *[]string `json:"permissions"`
}

// ListFilters narrows role listings.
type ListFilters struct {
	Query string
}
