package roles

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hrdesk/hrdesk/internal/rbac"
	"github.com/hrdesk/hrdesk/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	ListRoles(ctx context.Context, filters ListFilters) ([]Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	CreateRole(ctx context.Context, role Role) (Role, error)
	UpdateRole(ctx context.Context, role Role) (Role, error)
	DeleteRole(ctx context.Context, id int64) error
}

// Service handles role business logic.
type Service struct {
	repo     RepositoryPort
	catalog  *rbac.Catalog
	validate *validator.Validate
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, catalog *rbac.Catalog) *Service {
	return &Service{repo: repo, catalog: catalog, validate: shared.NewValidator()}
}

// WithRepository returns a copy of the service bound to another repository.
func (s *Service) WithRepository(repo RepositoryPort) *Service {
	clone := *s
	clone.repo = repo
	return &clone
}

// ListRoles returns roles matching the filters.
func (s *Service) ListRoles(ctx context.Context, filters ListFilters) ([]Role, error) {
	filters.Query = strings.TrimSpace(filters.Query)
	return s.repo.ListRoles(ctx, filters)
}

// GetRole returns one role.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// CreateRole validates and stores a role.
func (s *Service) CreateRole(ctx context.Context, in Input) (Role, error) {
	if err := shared.ValidateStruct(s.validate, in); err != nil {
		return Role{}, err
	}
	perms, err := s.checkPermissions(in.Permissions)
	if err != nil {
		return Role{}, err
	}
	return s.repo.CreateRole(ctx, Role{Name: strings.TrimSpace(in.Name), Description: in.Description, Permissions: perms})
}

// UpdateRole applies a partial update.
func (s *Service) UpdateRole(ctx context.Context, id int64, in Patch) (Role, error) {
	if err := shared.ValidateStruct(s.validate, in); err != nil {
		return Role{}, err
	}
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return Role{}, err
	}
	if in.Name != nil {
		role.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		role.Description = *in.Description
	}
	if in.Permissions != nil {
		perms, err := s.checkPermissions(*in.Permissions)
		if err != nil {
			return Role{}, err
		}
		role.Permissions = perms
	}
	return s.repo.UpdateRole(ctx, role)
}

// DeleteRole removes a role.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	return s.repo.DeleteRole(ctx, id)
}

// View renders a role with the display names of its permissions.
func (s *Service) View(r Role) View {
	display := make([]PermissionDisplay, 0, len(r.Permissions))
	for _, key := range r.Permissions {
		if p, ok := s.catalog.Get(key); ok {
			display = append(display, PermissionDisplay{Codename: p.Key, Name: p.DisplayName})
		}
	}
	perms := r.Permissions
	if perms == nil {
		perms = []string{}
	}
	return View{ID: r.ID, Name: r.Name, Description: r.Description, Permissions: perms, PermissionsDisplay: display}
}

// checkPermissions rejects keys outside the catalog and drops duplicates.
func (s *Service) checkPermissions(keys []string) ([]string, error) {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if !s.catalog.Contains(key) {
			return nil, shared.NewValidationError("Invalid permission: " + key)
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out, nil
}
