package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/hrdesk/hrdesk/internal/rbac"
	"github.com/hrdesk/hrdesk/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	tokens   *TokenStore
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, tokens: tokens, logger: logger, validate: shared.NewValidator(), now: time.Now}
}

// Login checks credentials and returns the user's API token.
func (s *Service) Login(ctx context.Context, in LoginInput, client ClientInfo) (LoginResult, error) {
	in.EmailOrUsername = strings.TrimSpace(in.EmailOrUsername)
	if err := shared.ValidateStruct(s.validate, in); err != nil {
		return LoginResult{}, shared.NewValidationError("Validation Error: " + shared.UserSafeMessage(err))
	}
	user, err := s.repo.FindByLogin(ctx, in.EmailOrUsername)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return LoginResult{}, shared.ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if !user.IsActive {
		return LoginResult{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return LoginResult{}, shared.ErrInvalidCredentials
	}

	token, created, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return LoginResult{}, err
	}
	if created {
		if err := s.repo.SaveToken(ctx, token, client); err != nil {
			s.logger.Warn("mirror token", slog.Any("error", err))
		}
	}
	if err := s.repo.TouchLastLogin(ctx, user.ID, s.now().UTC()); err != nil {
		s.logger.Warn("touch last login", slog.Any("error", err))
	}
	return LoginResult{Token: token.Key, User: user.View()}, nil
}

// Logout revokes the token.
func (s *Service) Logout(ctx context.Context, key string) error {
	if err := s.tokens.Revoke(ctx, key); err != nil {
		return err
	}
	if err := s.repo.DeleteToken(ctx, key); err != nil {
		s.logger.Warn("delete token mirror", slog.Any("error", err))
	}
	return nil
}

// Principal resolves a token to the acting principal. The user and role are
// loaded fresh so permission changes apply on the next request.
func (s *Service) Principal(ctx context.Context, key string) (rbac.Principal, error) {
	userID, err := s.tokens.Resolve(ctx, key)
	if err != nil {
		return rbac.Anonymous(), err
	}
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return rbac.Anonymous(), shared.ErrInvalidToken
		}
		return rbac.Anonymous(), fmt.Errorf("auth: load principal: %w", err)
	}
	if !user.IsActive {
		return rbac.Anonymous(), shared.ErrInvalidToken
	}
	p := rbac.Principal{UserID: user.ID, IsAuthenticated: true, IsAdmin: user.IsAdmin}
	if user.RoleID != nil {
		role, err := s.repo.RoleOf(ctx, *user.RoleID)
		switch {
		case err == nil:
			p.Role = role
		case !errors.Is(err, shared.ErrNotFound):
			return rbac.Anonymous(), err
		}
	}
	return p, nil
}

// PurgeExpiredTokens removes expired token records from the audit table.
func (s *Service) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.repo.PurgeExpiredTokens(ctx, s.now())
}
