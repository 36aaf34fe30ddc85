package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/hrdesk/hrdesk/internal/platform/db"
	"github.com/hrdesk/hrdesk/internal/rbac"
	"github.com/hrdesk/hrdesk/internal/shared"
	"github.com/hrdesk/hrdesk/internal/users"
)

// Repository defines persistence operations for auth module.
type Repository interface {
	FindByLogin(ctx context.Context, login string) (users.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (users.User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	RoleOf(ctx context.Context, roleID int64) (*rbac.Role, error)
	SaveToken(ctx context.Context, token Token, client ClientInfo) error
	DeleteToken(ctx context.Context, key string) error
	PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db    db.DBTX
	users *users.Repository
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(conn db.DBTX) *PGRepository {
	return &PGRepository{db: conn, users: users.NewRepository(conn)}
}

// FindByLogin fetches a user by username or email.
func (r *PGRepository) FindByLogin(ctx context.Context, login string) (users.User, error) {
	return r.users.FindByLogin(ctx, login)
}

// GetUser fetches a user by id.
func (r *PGRepository) GetUser(ctx context.Context, id uuid.UUID) (users.User, error) {
	return r.users.Get(ctx, id)
}

// TouchLastLogin records the login time.
func (r *PGRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.users.TouchLastLogin(ctx, id, at)
}

// RoleOf loads the evaluation view of a role.
func (r *PGRepository) RoleOf(ctx context.Context, roleID int64) (*rbac.Role, error) {
	role := &rbac.Role{ID: roleID}
	err := r.db.QueryRow(ctx, `SELECT name, permissions FROM roles WHERE id = $1`, roleID).Scan(&role.Name, &role.Permissions)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("auth: load role: %w", err)
	}
	return role, nil
}

// SaveToken mirrors an issued token in the database for auditing.
func (r *PGRepository) SaveToken(ctx context.Context, token Token, client ClientInfo) error {
	_, err := r.db.Exec(ctx, `INSERT INTO auth_tokens (key, user_id, created_at, expires_at, ip, user_agent)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (key) DO UPDATE SET expires_at = EXCLUDED.expires_at`,
		token.Key, token.UserID,
		pgtype.Timestamptz{Time: token.CreatedAt.UTC(), Valid: true},
		pgtype.Timestamptz{Time: token.ExpiresAt.UTC(), Valid: true},
		pgtype.Text{String: client.IP, Valid: client.IP != ""},
		pgtype.Text{String: client.UserAgent, Valid: client.UserAgent != ""},
	)
	return err
}

// DeleteToken removes a token record from the database.
func (r *PGRepository) DeleteToken(ctx context.Context, key string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM auth_tokens WHERE key = $1`, key)
	return err
}

// PurgeExpiredTokens deletes token records that expired before now.
func (r *PGRepository) PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM auth_tokens WHERE expires_at < $1`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("auth: purge tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

var _ Repository = (*PGRepository)(nil)
