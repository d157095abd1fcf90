package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

// CheckIn inserts today's record. The (employee_id, day) unique index
// rejects a second check-in on the same day.
func (r *Repository) CheckIn(ctx context.Context, rec Record) (Record, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO attendance_records (id, employee_id, day, check_in, status)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, employee_id, day, check_in, check_out, status`,
		rec.ID, rec.EmployeeID, rec.Day, rec.CheckIn, rec.Status)
	created, err := scanRecord(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Record{}, httpx.ErrDuplicate
		}
		return Record{}, err
	}
	return created, nil
}

// CheckOut closes today's open record. Sessions under four hours are
// stored as HALF_DAY so report aggregates see the downgrade.
func (r *Repository) CheckOut(ctx context.Context, employeeID uuid.UUID, day time.Time, at time.Time) (Record, error) {
	row := r.pool.QueryRow(ctx, `UPDATE attendance_records
SET check_out = $3,
    status = CASE WHEN $3 - check_in < interval '4 hours' THEN 'HALF_DAY' ELSE status END
WHERE employee_id = $1 AND day = $2 AND check_out IS NULL
RETURNING id, employee_id, day, check_in, check_out, status`,
		employeeID, day, at)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, httpx.ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

// ListByEmployee returns an employee's records inside [from, to].
func (r *Repository) ListByEmployee(ctx context.Context, employeeID uuid.UUID, from, to time.Time) ([]Record, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, employee_id, day, check_in, check_out, status
FROM attendance_records
WHERE employee_id = $1 AND day BETWEEN $2 AND $3
ORDER BY day DESC`, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Summarize aggregates per-day counts inside [from, to].
func (r *Repository) Summarize(ctx context.Context, from, to time.Time) ([]DaySummary, error) {
	rows, err := r.pool.Query(ctx, `SELECT day,
COUNT(*) FILTER (WHERE status = 'PRESENT'),
COUNT(*) FILTER (WHERE status = 'HALF_DAY'),
COUNT(*) FILTER (WHERE status = 'ON_LEAVE')
FROM attendance_records
WHERE day BETWEEN $1 AND $2
GROUP BY day
ORDER BY day`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DaySummary
	for rows.Next() {
		var s DaySummary
		if err := rows.Scan(&s.Day, &s.Present, &s.HalfDay, &s.OnLeave); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.EmployeeID, &rec.Day, &rec.CheckIn, &rec.CheckOut, &rec.Status)
	return rec, err
}
