package departments

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/hrdesk/hrdesk/internal/shared"
)

// MsgNameTaken is returned when a department name collides, ignoring case.
const MsgNameTaken = "A department with this name already exists."

// RepositoryPort defines data access methods for departments.
type RepositoryPort interface {
	List(ctx context.Context, filters ListFilters) ([]Department, int, error)
	Get(ctx context.Context, id int64) (Department, error)
	Create(ctx context.Context, d Department) (Department, error)
	Update(ctx context.Context, d Department) (Department, error)
	Delete(ctx context.Context, id int64) error
	NameTaken(ctx context.Context, name string, except int64) (bool, error)
	SetManager(ctx context.Context, id int64, userID *uuid.UUID) error
}

// Service handles department business logic.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, validate: shared.NewValidator()}
}

// List returns one page of departments.
func (s *Service) List(ctx context.Context, filters ListFilters) (shared.Page[View], error) {
	filters.Query = strings.TrimSpace(filters.Query)
	list, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return shared.Page[View]{}, err
	}
	views := make([]View, 0, len(list))
	for _, d := range list {
		views = append(views, d.View())
	}
	return shared.NewPage(filters.Page, total, views), nil
}

// Get returns one department.
func (s *Service) Get(ctx context.Context, id int64) (Department, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and stores a department.
func (s *Service) Create(ctx context.Context, in Input) (Department, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := shared.ValidateStruct(s.validate, in); err != nil {
		return Department{}, err
	}
	if err := s.ensureUniqueName(ctx, in.Name, 0); err != nil {
		return Department{}, err
	}
	return s.repo.Create(ctx, Department{Name: in.Name, Description: in.Description})
}

// Update applies a partial update. Renaming to a different casing of the
// current name is always allowed.
func (s *Service) Update(ctx context.Context, id int64, in Patch) (Department, error) {
	if err := shared.ValidateStruct(s.validate, in); err != nil {
		return Department{}, err
	}
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return Department{}, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Department{}, shared.NewValidationError("name: This field may not be blank.")
		}
		if !s.sameName(d.Name, name) {
			if err := s.ensureUniqueName(ctx, name, d.ID); err != nil {
				return Department{}, err
			}
		}
		d.Name = name
	}
	if in.Description != nil {
		d.Description = *in.Description
	}
	return s.repo.Update(ctx, d)
}

// Delete removes a department.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// sameName compares names under Unicode case folding. Casers keep state,
// so each comparison gets its own.
func (s *Service) sameName(a, b string) bool {
	fold := cases.Fold()
	return fold.String(a) == fold.String(b)
}

func (s *Service) ensureUniqueName(ctx context.Context, name string, except int64) error {
	taken, err := s.repo.NameTaken(ctx, name, except)
	if err != nil {
		return err
	}
	if taken {
		return shared.NewValidationError(MsgNameTaken)
	}
	return nil
}
