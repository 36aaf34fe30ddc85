package employees

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hrdesk/hrdesk/internal/departments"
	"github.com/hrdesk/hrdesk/internal/platform/db"
	"github.com/hrdesk/hrdesk/internal/rbac"
	"github.com/hrdesk/hrdesk/internal/roles"
	"github.com/hrdesk/hrdesk/internal/shared"
	"github.com/hrdesk/hrdesk/internal/users"
)

const employeeSelect = `SELECT e.id, e.user_id, e.department_id, e.manager, e.hire_date,
u.username, u.first_name, u.last_name, u.email, u.is_admin, u.role_id, u.is_active, u.created_at, u.updated_at
FROM employees e
JOIN users u ON u.id = e.user_id
LEFT JOIN departments d ON d.id = e.department_id`

const employeeWhere = ` WHERE ($1 = '' OR u.first_name ILIKE $1 OR u.last_name ILIKE $1 OR u.email ILIKE $1
OR u.username ILIKE $1 OR d.name ILIKE $1)
AND ($2::bigint IS NULL OR e.department_id = $2)
AND ($3::bigint IS NULL OR e.id = $3)`

const salarySelect = `SELECT s.id, s.employee_id, s.pay_rate::text, s.pay_period, s.start_date, s.end_date,
u.id, u.username, u.first_name, u.last_name
FROM salaries s
JOIN employees e ON e.id = s.employee_id
JOIN users u ON u.id = e.user_id`

const salaryWhere = ` WHERE ($1 = '' OR s.pay_rate::text ILIKE $1 OR s.start_date::text ILIKE $1
OR s.end_date::text ILIKE $1 OR s.pay_period ILIKE $1)
AND ($2::bigint IS NULL OR s.employee_id = $2)`

const leaveSelect = `SELECT l.id, l.employee_id, l.leave_type, l.start_date, l.end_date, l.reason, l.status, e.user_id
FROM leaves l
JOIN employees e ON e.id = l.employee_id
JOIN users u ON u.id = e.user_id`

const leaveWhere = ` WHERE ($1 = '' OR l.reason ILIKE $1 OR u.first_name ILIKE $1 OR u.last_name ILIKE $1)
AND ($2::bigint IS NULL OR l.employee_id = $2)`

// Repository provides PostgreSQL backed persistence for employees, salaries
// and leaves.
type Repository struct {
	pool *pgxpool.Pool
	*queries
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, queries: &queries{db: pool}}
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	GetEmployee(ctx context.Context, id int64) (Employee, error)
	CreateEmployee(ctx context.Context, e Employee) (int64, error)
	UpdateEmployee(ctx context.Context, e Employee) error
	DeleteEmployee(ctx context.Context, id int64) error
	CreateSalary(ctx context.Context, s Salary) (int64, error)
	CreateLeave(ctx context.Context, l Leave) (int64, error)

	Users() users.RepositoryPort
	Roles() roles.RepositoryPort
	Departments() departments.RepositoryPort
}

type txRepo struct {
	*queries
	tx pgx.Tx
}

func (t *txRepo) Users() users.RepositoryPort {
	return users.NewRepository(t.tx)
}

func (t *txRepo) Roles() roles.RepositoryPort {
	return roles.NewRepository(t.tx)
}

func (t *txRepo) Departments() departments.RepositoryPort {
	return departments.NewRepository(t.tx)
}

// WithTx wraps callback in repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{queries: &queries{db: tx}, tx: tx})
	})
}

// queries holds the statements shared by the pool and transaction scopes.
type queries struct {
	db db.DBTX
}

func likePattern(q string) string {
	if q == "" {
		return ""
	}
	return "%" + q + "%"
}

func scanEmployee(row pgx.Row) (Employee, error) {
	var (
		e    Employee
		hire pgtype.Date
	)
	err := row.Scan(&e.ID, &e.UserID, &e.DepartmentID, &e.Manager, &hire,
		&e.User.Username, &e.User.FirstName, &e.User.LastName, &e.User.Email, &e.User.IsAdmin,
		&e.User.RoleID, &e.User.IsActive, &e.User.CreatedAt, &e.User.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return Employee{}, shared.ErrNotFound
		}
		return Employee{}, err
	}
	e.User.ID = e.UserID
	e.HireDate = shared.DateFromPg(hire)
	return e, nil
}

// ListEmployees returns one page of employees ordered by id and the total
// match count.
func (q *queries) ListEmployees(ctx context.Context, f ListFilters) ([]Employee, int, error) {
	args := []any{likePattern(f.Query), f.DepartmentID, f.EmployeeID}
	var total int
	count := `SELECT COUNT(*) FROM employees e JOIN users u ON u.id = e.user_id LEFT JOIN departments d ON d.id = e.department_id` + employeeWhere
	if err := q.db.QueryRow(ctx, count, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("employees: count: %w", err)
	}
	rows, err := q.db.Query(ctx, employeeSelect+employeeWhere+` ORDER BY e.id LIMIT $4 OFFSET $5`,
		append(args, f.Page.PageSize, f.Page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("employees: list: %w", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Employee, error) {
		return scanEmployee(row)
	})
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// GetEmployee loads one employee with its user.
func (q *queries) GetEmployee(ctx context.Context, id int64) (Employee, error) {
	return scanEmployee(q.db.QueryRow(ctx, employeeSelect+` WHERE e.id = $1`, id))
}

// ResolveEmployeeOwner returns the user behind an employee id.
func (q *queries) ResolveEmployeeOwner(ctx context.Context, employeeID int64) (uuid.UUID, error) {
	var owner uuid.UUID
	if err := q.db.QueryRow(ctx, `SELECT user_id FROM employees WHERE id = $1`, employeeID).Scan(&owner); err != nil {
		if db.IsNoRows(err) {
			return uuid.Nil, rbac.ErrReferentNotFound
		}
		return uuid.Nil, fmt.Errorf("employees: resolve owner: %w", err)
	}
	return owner, nil
}

// CreateEmployee inserts an employee row.
func (q *queries) CreateEmployee(ctx context.Context, e Employee) (int64, error) {
	var id int64
	err := q.db.QueryRow(ctx, `INSERT INTO employees (user_id, department_id, manager, hire_date)
VALUES ($1, $2, $3, $4) RETURNING id`, e.UserID, e.DepartmentID, e.Manager, shared.PgDate(e.HireDate)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("employees: create: %w", err)
	}
	return id, nil
}

// UpdateEmployee overwrites department, manager flag and hire date.
func (q *queries) UpdateEmployee(ctx context.Context, e Employee) error {
	tag, err := q.db.Exec(ctx, `UPDATE employees SET department_id = $2, manager = $3, hire_date = $4 WHERE id = $1`,
		e.ID, e.DepartmentID, e.Manager, shared.PgDate(e.HireDate))
	if err != nil {
		return fmt.Errorf("employees: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteEmployee removes an employee with its salaries and leaves. The user
// account is kept.
func (q *queries) DeleteEmployee(ctx context.Context, id int64) error {
	return q.exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
}

func scanSalary(row pgx.Row) (Salary, error) {
	var (
		s          Salary
		rate       string
		start, end pgtype.Date
	)
	err := row.Scan(&s.ID, &s.EmployeeID, &rate, &s.PayPeriod, &start, &end,
		&s.Employee.User.ID, &s.Employee.User.Username, &s.Employee.User.FirstName, &s.Employee.User.LastName)
	if err != nil {
		if db.IsNoRows(err) {
			return Salary{}, shared.ErrNotFound
		}
		return Salary{}, err
	}
	s.PayRate = PayRate(rate)
	s.StartDate = shared.DateFromPg(start)
	s.EndDate = shared.DateFromPg(end)
	s.Employee.ID = s.EmployeeID
	return s, nil
}

// ListSalaries returns one page of salaries, newest start date first.
func (q *queries) ListSalaries(ctx context.Context, f RecordFilters) ([]Salary, int, error) {
	args := []any{likePattern(f.Query), f.EmployeeID}
	var total int
	if err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM salaries s`+salaryWhere, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("salaries: count: %w", err)
	}
	rows, err := q.db.Query(ctx, salarySelect+salaryWhere+` ORDER BY s.start_date DESC NULLS LAST, s.id DESC LIMIT $3 OFFSET $4`,
		append(args, f.Page.PageSize, f.Page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("salaries: list: %w", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Salary, error) {
		return scanSalary(row)
	})
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// GetSalary loads one salary.
func (q *queries) GetSalary(ctx context.Context, id int64) (Salary, error) {
	return scanSalary(q.db.QueryRow(ctx, salarySelect+` WHERE s.id = $1`, id))
}

// CurrentSalary returns the employee's salary with the latest start date.
func (q *queries) CurrentSalary(ctx context.Context, employeeID int64) (Salary, error) {
	return scanSalary(q.db.QueryRow(ctx, salarySelect+` WHERE s.employee_id = $1 ORDER BY s.start_date DESC NULLS LAST, s.id DESC LIMIT 1`, employeeID))
}

// CreateSalary inserts a salary row.
func (q *queries) CreateSalary(ctx context.Context, s Salary) (int64, error) {
	var id int64
	err := q.db.QueryRow(ctx, `INSERT INTO salaries (employee_id, pay_rate, pay_period, start_date, end_date)
VALUES ($1, $2::text::numeric, $3, $4, $5) RETURNING id`,
		s.EmployeeID, s.PayRate.String(), s.PayPeriod, shared.PgDate(s.StartDate), shared.PgDate(s.EndDate)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("salaries: create: %w", err)
	}
	return id, nil
}

// DeleteSalary removes a salary row.
func (q *queries) DeleteSalary(ctx context.Context, id int64) error {
	return q.exec(ctx, `DELETE FROM salaries WHERE id = $1`, id)
}

func scanLeave(row pgx.Row) (Leave, error) {
	var (
		l          Leave
		start, end pgtype.Date
	)
	err := row.Scan(&l.ID, &l.EmployeeID, &l.LeaveType, &start, &end, &l.Reason, &l.Status, &l.OwnerID)
	if err != nil {
		if db.IsNoRows(err) {
			return Leave{}, shared.ErrNotFound
		}
		return Leave{}, err
	}
	l.StartDate = shared.DateFromPg(start)
	l.EndDate = shared.DateFromPg(end)
	return l, nil
}

// ListLeaves returns one page of leave requests ordered by id.
func (q *queries) ListLeaves(ctx context.Context, f RecordFilters) ([]Leave, int, error) {
	args := []any{likePattern(f.Query), f.EmployeeID}
	var total int
	count := `SELECT COUNT(*) FROM leaves l JOIN employees e ON e.id = l.employee_id JOIN users u ON u.id = e.user_id` + leaveWhere
	if err := q.db.QueryRow(ctx, count, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("leaves: count: %w", err)
	}
	rows, err := q.db.Query(ctx, leaveSelect+leaveWhere+` ORDER BY l.id LIMIT $3 OFFSET $4`,
		append(args, f.Page.PageSize, f.Page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("leaves: list: %w", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Leave, error) {
		return scanLeave(row)
	})
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// GetLeave loads one leave request.
func (q *queries) GetLeave(ctx context.Context, id int64) (Leave, error) {
	return scanLeave(q.db.QueryRow(ctx, leaveSelect+` WHERE l.id = $1`, id))
}

// CreateLeave inserts a leave request.
func (q *queries) CreateLeave(ctx context.Context, l Leave) (int64, error) {
	var id int64
	err := q.db.QueryRow(ctx, `INSERT INTO leaves (employee_id, leave_type, start_date, end_date, reason, status)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		l.EmployeeID, l.LeaveType, shared.PgDate(l.StartDate), shared.PgDate(l.EndDate), l.Reason, l.Status).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("leaves: create: %w", err)
	}
	return id, nil
}

// UpdateLeaveStatus changes the status of a leave request.
func (q *queries) UpdateLeaveStatus(ctx context.Context, id int64, status string) error {
	tag, err := q.db.Exec(ctx, `UPDATE leaves SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("leaves: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteLeave removes a leave request.
func (q *queries) DeleteLeave(ctx context.Context, id int64) error {
	return q.exec(ctx, `DELETE FROM leaves WHERE id = $1`, id)
}

func (q *queries) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := q.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var (
	_ RepositoryPort     = (*Repository)(nil)
	_ TxRepository       = (*txRepo)(nil)
	_ rbac.OwnerResolver = (*Repository)(nil)
)
