package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hrdesk/hrdesk/internal/rbac"
	"github.com/hrdesk/hrdesk/internal/shared"
)

// Validation messages.
const (
	MsgUsernameTaken = "A user with this username already exists."
	MsgEmailTaken    = "A user with this email already exists."
	MsgAdminExists   = "An admin user already exists."
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	Get(ctx context.Context, id uuid.UUID) (User, error)
	List(ctx context.Context) ([]User, error)
	Create(ctx context.Context, u User) (User, error)
	Update(ctx context.Context, u User) (User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UsernameTaken(ctx context.Context, username string, except uuid.UUID) (bool, error)
	EmailTaken(ctx context.Context, email string, except uuid.UUID) (bool, error)
	AdminExists(ctx context.Context, except uuid.UUID) (bool, error)
	RoleExists(ctx context.Context, roleID int64) (bool, error)
}

// Service handles user business logic.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
	hashCost int
	now      func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{
		repo:     repo,
		validate: shared.NewValidator(),
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
}

// WithRepository returns a copy of the service bound to another repository,
// typically one running inside a transaction.
func (s *Service) WithRepository(repo RepositoryPort) *Service {
	clone := *s
	clone.repo = repo
	return &clone
}

// SetHashCost overrides the bcrypt cost; tests lower it.
func (s *Service) SetHashCost(cost int) {
	s.hashCost = cost
}

// Get returns one user.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (User, error) {
	return s.repo.Get(ctx, id)
}

// List returns all users.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Create validates the payload, enforces uniqueness and the single admin
// rule, hashes the password and stores the account. Anonymous actors may only
// bootstrap the admin account.
func (s *Service) Create(ctx context.Context, actor rbac.Principal, in CreateInput) (User, error) {
	if !actor.IsAuthenticated && !in.IsAdmin {
		return User{}, &rbac.Denial{Reason: rbac.ReasonUnauthenticated, Message: rbac.MsgLoginRequired}
	}
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := shared.ValidateStruct(s.validate, in); err != nil {
		return User{}, err
	}
	if in.IsAdmin {
		if err := s.ensureNoOtherAdmin(ctx, uuid.Nil); err != nil {
			return User{}, err
		}
	}
	if err := s.ensureUnique(ctx, in.Username, in.Email, uuid.Nil); err != nil {
		return User{}, err
	}
	if err := s.ensureRole(ctx, in.RoleID); err != nil {
		return User{}, err
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return User{}, err
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return s.repo.Create(ctx, User{
		ID:           uuid.New(),
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		IsAdmin:      in.IsAdmin,
		RoleID:       in.RoleID,
		IsActive:     active,
		CreatedAt:    s.now().UTC(),
	})
}

// Update applies a partial update on behalf of actor. Only the admin may
// change admin status, role or activation.
func (s *Service) Update(ctx context.Context, actor rbac.Principal, id uuid.UUID, in UpdateInput) (User, error) {
	if !actor.IsAdmin && in.privileged() {
		return User{}, &rbac.Denial{Reason: rbac.ReasonForbidden, Message: rbac.MsgInsufficientPermission}
	}
	if err := shared.ValidateStruct(s.validate, in); err != nil {
		return User{}, err
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	next := current
	if in.Username != nil {
		next.Username = strings.TrimSpace(*in.Username)
		if next.Username == "" {
			return User{}, shared.NewValidationError("username: This field may not be blank.")
		}
	}
	if in.FirstName != nil {
		next.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		next.LastName = *in.LastName
	}
	if in.Email != nil {
		next.Email = strings.TrimSpace(*in.Email)
	}
	if in.IsAdmin != nil {
		next.IsAdmin = *in.IsAdmin
	}
	if in.RoleID != nil {
		if err := s.ensureRole(ctx, in.RoleID); err != nil {
			return User{}, err
		}
		next.RoleID = in.RoleID
	}
	if in.IsActive != nil {
		next.IsActive = *in.IsActive
	}
	if next.IsAdmin && !current.IsAdmin {
		if err := s.ensureNoOtherAdmin(ctx, current.ID); err != nil {
			return User{}, err
		}
	}
	if err := s.ensureUnique(ctx, changed(current.Username, next.Username), changed(current.Email, next.Email), current.ID); err != nil {
		return User{}, err
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := s.hash(*in.Password)
		if err != nil {
			return User{}, err
		}
		next.PasswordHash = hash
	}
	return s.repo.Update(ctx, next)
}

// Delete removes a user account.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ensureNoOtherAdmin(ctx context.Context, except uuid.UUID) error {
	exists, err := s.repo.AdminExists(ctx, except)
	if err != nil {
		return fmt.Errorf("users: check admin: %w", err)
	}
	if exists {
		return shared.NewValidationError(MsgAdminExists)
	}
	return nil
}

// ensureUnique checks non-empty username and email against other accounts.
func (s *Service) ensureUnique(ctx context.Context, username, email string, except uuid.UUID) error {
	if username != "" {
		taken, err := s.repo.UsernameTaken(ctx, username, except)
		if err != nil {
			return fmt.Errorf("users: check username: %w", err)
		}
		if taken {
			return shared.NewValidationError(MsgUsernameTaken)
		}
	}
	if email != "" {
		taken, err := s.repo.EmailTaken(ctx, email, except)
		if err != nil {
			return fmt.Errorf("users: check email: %w", err)
		}
		if taken {
			return shared.NewValidationError(MsgEmailTaken)
		}
	}
	return nil
}

func (s *Service) ensureRole(ctx context.Context, roleID *int64) error {
	if roleID == nil {
		return nil
	}
	ok, err := s.repo.RoleExists(ctx, *roleID)
	if err != nil {
		return fmt.Errorf("users: check role: %w", err)
	}
	if !ok {
		return shared.NewValidationError(fmt.Sprintf("role: Invalid pk \"%d\" - object does not exist.", *roleID))
	}
	return nil
}

func (s *Service) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("users: hash password: %w", err)
	}
	return string(hash), nil
}

// changed returns next when it differs from prev, otherwise "".
func changed(prev, next string) string {
	if strings.EqualFold(prev, next) {
		return ""
	}
	return next
}
