package employees

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helmsman-hr/helmsman/internal/platform/httpx"
)

const employeeColumns = `id, employee_no, full_name, email, department, designation, role_id, join_date, status, created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns one page of employees plus the total row count.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Employee, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM employees`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY employee_no LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Get fetches a single employee by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Employee, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id)
	emp, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Employee{}, httpx.ErrNotFound
		}
		return Employee{}, err
	}
	return emp, nil
}

// Create inserts a new employee.
func (r *Repository) Create(ctx context.Context, emp Employee) (Employee, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO employees (id, employee_no, full_name, email, department, designation, role_id, join_date, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING `+employeeColumns,
		emp.ID, emp.EmployeeNo, emp.FullName, emp.Email, emp.Department, emp.Designation, emp.RoleID, emp.JoinDate, emp.Status)
	created, err := scanEmployee(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Employee{}, httpx.ErrDuplicate
		}
		return Employee{}, err
	}
	return created, nil
}

// Update rewrites employee fields.
func (r *Repository) Update(ctx context.Context, emp Employee) (Employee, error) {
	row := r.pool.QueryRow(ctx, `UPDATE employees
SET full_name = $2, email = $3, department = $4, designation = $5, role_id = $6, status = $7, updated_at = NOW()
WHERE id = $1
RETURNING `+employeeColumns,
		emp.ID, emp.FullName, emp.Email, emp.Department, emp.Designation, emp.RoleID, emp.Status)
	updated, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Employee{}, httpx.ErrNotFound
		}
		return Employee{}, err
	}
	return updated, nil
}

// Deactivate marks an employee inactive.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE employees SET status = $2, updated_at = NOW() WHERE id = $1`, id, StatusInactive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func scanEmployee(row pgx.Row) (Employee, error) {
	var emp Employee
	err := row.Scan(&emp.ID, &emp.EmployeeNo, &emp.FullName, &emp.Email, &emp.Department, &emp.Designation,
		&emp.RoleID, &emp.JoinDate, &emp.Status, &emp.CreatedAt, &emp.UpdatedAt)
	return emp, err
}
