package roles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hrdesk/hrdesk/internal/platform/db"
	"github.com/hrdesk/hrdesk/internal/shared"
)

const roleColumns = `id, name, description, permissions, created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	db db.DBTX
}

// NewRepository constructs a repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

func scanRole(row pgx.Row) (Role, error) {
	var r Role
	if err := row.Scan(&r.ID, &r.Name, &r.Description, &r.Permissions, &r.CreatedAt, &r.UpdatedAt); err != nil {
		if db.IsNoRows(err) {
			return Role{}, shared.ErrNotFound
		}
		return Role{}, err
	}
	if r.Permissions == nil {
		r.Permissions = []string{}
	}
	return r, nil
}

// ListRoles returns roles matching the filters ordered by id.
func (r *Repository) ListRoles(ctx context.Context, filters ListFilters) ([]Role, error) {
	sql := `SELECT ` + roleColumns + ` FROM roles`
	var args []any
	if filters.Query != "" {
		sql += ` WHERE name ILIKE $1 OR description ILIKE $1`
		args = append(args, "%"+filters.Query+"%")
	}
	rows, err := r.db.Query(ctx, sql+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("roles: list: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Role, error) {
		return scanRole(row)
	})
}

// GetRole loads one role.
func (r *Repository) GetRole(ctx context.Context, id int64) (Role, error) {
	return scanRole(r.db.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id))
}

// CreateRole inserts a new role.
func (r *Repository) CreateRole(ctx context.Context, role Role) (Role, error) {
	return scanRole(r.db.QueryRow(ctx, `INSERT INTO roles (name, description, permissions)
VALUES ($1, $2, $3)
RETURNING `+roleColumns, role.Name, role.Description, role.Permissions))
}

// UpdateRole overwrites a role.
func (r *Repository) UpdateRole(ctx context.Context, role Role) (Role, error) {
	return scanRole(r.db.QueryRow(ctx, `UPDATE roles SET name = $2, description = $3, permissions = $4, updated_at = NOW()
WHERE id = $1
RETURNING `+roleColumns, role.ID, role.Name, role.Description, role.Permissions))
}

// DeleteRole removes a role. Users holding it lose their role.
func (r *Repository) DeleteRole(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("roles: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ RepositoryPort = (*Repository)(nil)
