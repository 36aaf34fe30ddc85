package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hrdesk/hrdesk/internal/platform/db"
	"github.com/hrdesk/hrdesk/internal/shared"
)

const userColumns = `id, username, first_name, last_name, email, password_hash, is_admin, role_id, is_active, last_login, created_at, updated_at`

// Repository provides PostgreSQL backed persistence. It runs on a pool or
// inside a transaction.
type Repository struct {
	db db.DBTX
}

// NewRepository constructs a repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash,
		&u.IsAdmin, &u.RoleID, &u.IsActive, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

// Get loads one user by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// FindByLogin loads a user by username, falling back to email.
func (r *Repository) FindByLogin(ctx context.Context, login string) (User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, login))
	if err == nil || !strings.Contains(login, "@") {
		return u, err
	}
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, login))
}

// List returns all users ordered by username.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (User, error) {
		return scanUser(row)
	})
}

// Create inserts a user. Id and timestamps are assigned by the caller.
func (r *Repository) Create(ctx context.Context, u User) (User, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO users (id, username, first_name, last_name, email, password_hash, is_admin, role_id, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
RETURNING `+userColumns,
		u.ID, u.Username, u.FirstName, u.LastName, u.Email, u.PasswordHash, u.IsAdmin, u.RoleID, u.IsActive, u.CreatedAt)
	created, err := scanUser(row)
	if err != nil {
		return User{}, mapWriteError(err)
	}
	return created, nil
}

// Update overwrites the mutable columns of a user.
func (r *Repository) Update(ctx context.Context, u User) (User, error) {
	row := r.db.QueryRow(ctx, `UPDATE users SET username = $2, first_name = $3, last_name = $4, email = $5,
password_hash = $6, is_admin = $7, role_id = $8, is_active = $9, updated_at = NOW()
WHERE id = $1
RETURNING `+userColumns,
		u.ID, u.Username, u.FirstName, u.LastName, u.Email, u.PasswordHash, u.IsAdmin, u.RoleID, u.IsActive)
	updated, err := scanUser(row)
	if err != nil {
		return User{}, mapWriteError(err)
	}
	return updated, nil
}

// Delete removes a user.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("users: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UsernameTaken reports whether another user already has the username.
func (r *Repository) UsernameTaken(ctx context.Context, username string, except uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 AND id <> $2)`, username, except)
}

// EmailTaken reports whether another user already has the email.
func (r *Repository) EmailTaken(ctx context.Context, email string, except uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1) AND id <> $2)`, email, except)
}

// AdminExists reports whether an admin other than except exists.
func (r *Repository) AdminExists(ctx context.Context, except uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE is_admin AND id <> $1)`, except)
}

// RoleExists reports whether the role id is known.
func (r *Repository) RoleExists(ctx context.Context, roleID int64) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM roles WHERE id = $1)`, roleID)
}

// TouchLastLogin records a successful login.
func (r *Repository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at)
	return err
}

func (r *Repository) exists(ctx context.Context, sql string, args ...any) (bool, error) {
	var ok bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// mapWriteError turns constraint violations that slipped past the service
// checks into user facing errors.
func mapWriteError(err error) error {
	switch {
	case db.IsUniqueViolation(err, "users_username_key"):
		return shared.NewDuplicateError(MsgUsernameTaken)
	case db.IsUniqueViolation(err, "users_email_key"):
		return shared.NewDuplicateError(MsgEmailTaken)
	case db.IsUniqueViolation(err, "users_single_admin"):
		return shared.NewValidationError(MsgAdminExists)
	}
	return err
}

var _ RepositoryPort = (*Repository)(nil)
