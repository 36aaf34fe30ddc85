package departments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hrdesk/hrdesk/internal/platform/db"
	"github.com/hrdesk/hrdesk/internal/shared"
)

const departmentSelect = `SELECT d.id, d.name, d.description, u.id, u.username, u.first_name, u.last_name
FROM departments d
LEFT JOIN users u ON u.id = d.manager_id`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	db db.DBTX
}

// NewRepository constructs a repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

func scanDepartment(row pgx.Row) (Department, error) {
	var (
		d                   Department
		managerID           *uuid.UUID
		username, first, ln *string
	)
	if err := row.Scan(&d.ID, &d.Name, &d.Description, &managerID, &username, &first, &ln); err != nil {
		if db.IsNoRows(err) {
			return Department{}, shared.ErrNotFound
		}
		return Department{}, err
	}
	if managerID != nil {
		d.Manager = &Manager{UserID: *managerID, Username: deref(username), FirstName: deref(first), LastName: deref(ln)}
	}
	return d, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// List returns one page of departments matching the filters, ordered by id,
// together with the total match count.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]Department, int, error) {
	where := ""
	args := []any{}
	if filters.Query != "" {
		where = ` WHERE d.name ILIKE $1 OR d.description ILIKE $1`
		args = append(args, "%"+filters.Query+"%")
	}
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM departments d`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("departments: count: %w", err)
	}
	args = append(args, filters.Page.PageSize, filters.Page.Offset())
	sql := fmt.Sprintf(`%s%s ORDER BY d.id LIMIT $%d OFFSET $%d`, departmentSelect, where, len(args)-1, len(args))
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("departments: list: %w", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Department, error) {
		return scanDepartment(row)
	})
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// Get loads one department.
func (r *Repository) Get(ctx context.Context, id int64) (Department, error) {
	return scanDepartment(r.db.QueryRow(ctx, departmentSelect+` WHERE d.id = $1`, id))
}

// Create inserts a department.
func (r *Repository) Create(ctx context.Context, d Department) (Department, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO departments (name, description) VALUES ($1, $2) RETURNING id`, d.Name, d.Description).Scan(&id)
	if err != nil {
		return Department{}, mapWriteError(err)
	}
	return r.Get(ctx, id)
}

// Update overwrites name and description.
func (r *Repository) Update(ctx context.Context, d Department) (Department, error) {
	tag, err := r.db.Exec(ctx, `UPDATE departments SET name = $2, description = $3 WHERE id = $1`, d.ID, d.Name, d.Description)
	if err != nil {
		return Department{}, mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return Department{}, shared.ErrNotFound
	}
	return r.Get(ctx, d.ID)
}

// Delete removes a department and, by cascade, its employees.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("departments: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// NameTaken reports whether another department has the name, ignoring case.
func (r *Repository) NameTaken(ctx context.Context, name string, except int64) (bool, error) {
	var taken bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM departments WHERE lower(name) = lower($1) AND id <> $2)`, name, except).Scan(&taken)
	return taken, err
}

// SetManager assigns or clears the managing user.
func (r *Repository) SetManager(ctx context.Context, id int64, userID *uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE departments SET manager_id = $2 WHERE id = $1`, id, userID)
	if err != nil {
		return fmt.Errorf("departments: set manager: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func mapWriteError(err error) error {
	if db.IsUniqueViolation(err, "departments_name_key") {
		return shared.NewValidationError(MsgNameTaken)
	}
	return err
}

var _ RepositoryPort = (*Repository)(nil)
