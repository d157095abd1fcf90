package efiling

import (
	"context"

	"github.com/google/uuid"
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

// Insert stores a document record.
func (r *Repository) Insert(ctx context.Context, doc Document) (Document, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO efiling_documents (id, employee_id, title, category, storage_path, uploaded_by)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, employee_id, title, category, storage_path, uploaded_by, created_at`,
		doc.ID, doc.EmployeeID, doc.Title, doc.Category, doc.StoragePath, doc.UploadedBy)
	var created Document
	err := row.Scan(&created.ID, &created.EmployeeID, &created.Title, &created.Category, &created.StoragePath, &created.UploadedBy, &created.CreatedAt)
	return created, err
}

// ListByEmployee returns an employee's documents, newest first.
func (r *Repository) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]Document, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, employee_id, title, category, storage_path, uploaded_by, created_at
FROM efiling_documents WHERE employee_id = $1 ORDER BY created_at DESC`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.EmployeeID, &doc.Title, &doc.Category, &doc.StoragePath, &doc.UploadedBy, &doc.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// Delete removes a document record.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM efiling_documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
