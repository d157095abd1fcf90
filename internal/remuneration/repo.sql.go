package remuneration

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helmsman-hr/helmsman/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CurrentSalary returns the employee's newest salary record.
func (r *Repository) CurrentSalary(ctx context.Context, employeeID uuid.UUID) (SalaryRecord, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, employee_id, basic_pay, house_rent, allowances, variable_pct, effective_from, created_at
FROM salary_records WHERE employee_id = $1 ORDER BY effective_from DESC LIMIT 1`, employeeID)
	var rec SalaryRecord
	err := row.Scan(&rec.ID, &rec.EmployeeID, &rec.BasicPay, &rec.HouseRent, &rec.Allowances, &rec.VariablePct, &rec.EffectiveFrom, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SalaryRecord{}, httpx.ErrNotFound
		}
		return SalaryRecord{}, err
	}
	return rec, nil
}

// InsertSalary appends a new salary record; history is never rewritten.
func (r *Repository) InsertSalary(ctx context.Context, rec SalaryRecord) (SalaryRecord, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO salary_records (id, employee_id, basic_pay, house_rent, allowances, variable_pct, effective_from)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, employee_id, basic_pay, house_rent, allowances, variable_pct, effective_from, created_at`,
		rec.ID, rec.EmployeeID, rec.BasicPay, rec.HouseRent, rec.Allowances, rec.VariablePct, rec.EffectiveFrom)
	var created SalaryRecord
	err := row.Scan(&created.ID, &created.EmployeeID, &created.BasicPay, &created.HouseRent, &created.Allowances, &created.VariablePct, &created.EffectiveFrom, &created.CreatedAt)
	return created, err
}

// GetPeriod fetches one payroll period.
func (r *Repository) GetPeriod(ctx context.Context, id int64) (PayrollPeriod, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, year, month, status FROM payroll_periods WHERE id = $1`, id)
	var p PayrollPeriod
	if err := row.Scan(&p.ID, &p.Year, &p.Month, &p.Status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PayrollPeriod{}, httpx.ErrNotFound
		}
		return PayrollPeriod{}, err
	}
	return p, nil
}

// EnsurePeriod creates the period row when absent.
func (r *Repository) EnsurePeriod(ctx context.Context, year, month int) (PayrollPeriod, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO payroll_periods (year, month, status)
VALUES ($1, $2, 'OPEN')
ON CONFLICT (year, month) DO UPDATE SET year = EXCLUDED.year
RETURNING id, year, month, status`, year, month)
	var p PayrollPeriod
	err := row.Scan(&p.ID, &p.Year, &p.Month, &p.Status)
	return p, err
}

// SetPeriodStatus persists a validated status transition.
func (r *Repository) SetPeriodStatus(ctx context.Context, id int64, status string) (PayrollPeriod, error) {
	row := r.pool.QueryRow(ctx, `UPDATE payroll_periods SET status = $2 WHERE id = $1
RETURNING id, year, month, status`, id, status)
	var p PayrollPeriod
	if err := row.Scan(&p.ID, &p.Year, &p.Month, &p.Status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PayrollPeriod{}, httpx.ErrNotFound
		}
		return PayrollPeriod{}, err
	}
	return p, nil
}
