package leave

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helmsman-hr/helmsman/internal/platform/db"
	"github.com/helmsman-hr/helmsman/internal/platform/httpx"
	"github.com/helmsman-hr/helmsman/internal/shared"
)

const requestColumns = `id, employee_id, leave_type, from_date, to_date, reason, status, decided_by, decided_at, created_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a pending request.
func (r *Repository) Create(ctx context.Context, req Request) (Request, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO leave_requests (id, employee_id, leave_type, from_date, to_date, reason, status)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING `+requestColumns,
		req.ID, req.EmployeeID, req.Type, req.FromDate, req.ToDate, req.Reason, req.Status)
	return scanRequest(row)
}

// Get fetches one request.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Request, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM leave_requests WHERE id = $1`, id)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Request{}, httpx.ErrNotFound
		}
		return Request{}, err
	}
	return req, nil
}

// ListPending returns requests awaiting a decision, oldest first.
func (r *Repository) ListPending(ctx context.Context) ([]Request, error) {
	return r.list(ctx, `SELECT `+requestColumns+` FROM leave_requests WHERE status = 'PENDING' ORDER BY created_at`)
}

// ListByEmployee returns all of an employee's requests, newest first.
func (r *Repository) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]Request, error) {
	return r.list(ctx, `SELECT `+requestColumns+` FROM leave_requests WHERE employee_id = $1 ORDER BY created_at DESC`, employeeID)
}

// Decide records the approval or rejection of a pending request and
// writes the approval trail entry in the same transaction, so a
// decided request never lacks its trail row. The status predicate
// makes a second decision a no-op.
func (r *Repository) Decide(ctx context.Context, id uuid.UUID, status string, decidedBy int64, at time.Time, entry shared.ApprovalLog) (Request, error) {
	var req Request
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `UPDATE leave_requests
SET status = $2, decided_by = $3, decided_at = $4
WHERE id = $1 AND status = 'PENDING'
RETURNING `+requestColumns,
			id, status, decidedBy, at)
		var err error
		req, err = scanRequest(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return httpx.ErrNotFound
			}
			return err
		}
		entry.RefID = req.ID
		return shared.InsertApproval(ctx, tx, entry)
	})
	if err != nil {
		return Request{}, err
	}
	return req, nil
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]Request, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func scanRequest(row pgx.Row) (Request, error) {
	var req Request
	err := row.Scan(&req.ID, &req.EmployeeID, &req.Type, &req.FromDate, &req.ToDate, &req.Reason,
		&req.Status, &req.DecidedBy, &req.DecidedAt, &req.CreatedAt)
	return req, err
}
