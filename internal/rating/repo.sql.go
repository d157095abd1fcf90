package rating

import (
	"context"
	"errors"

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

// Insert stores a rating. The (rater_id, ratee_id, year, month) unique
// index rejects repeat submissions.
func (r *Repository) Insert(ctx context.Context, rating Rating) (Rating, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO peer_ratings (id, rater_id, ratee_id, score, comment, year, month)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, rater_id, ratee_id, score, comment, year, month, created_at`,
		rating.ID, rating.RaterID, rating.RateeID, rating.Score, rating.Comment, rating.Year, rating.Month)
	var created Rating
	err := row.Scan(&created.ID, &created.RaterID, &created.RateeID, &created.Score, &created.Comment, &created.Year, &created.Month, &created.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Rating{}, httpx.ErrDuplicate
		}
		return Rating{}, err
	}
	return created, nil
}

// Summarize aggregates one employee's month.
func (r *Repository) Summarize(ctx context.Context, rateeID uuid.UUID, year, month int) (Summary, error) {
	row := r.pool.QueryRow(ctx, `SELECT COALESCE(AVG(score), 0), COUNT(*)
FROM peer_ratings WHERE ratee_id = $1 AND year = $2 AND month = $3`, rateeID, year, month)
	s := Summary{RateeID: rateeID, Year: year, Month: month}
	if err := row.Scan(&s.Average, &s.Count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s, nil
		}
		return Summary{}, err
	}
	return s, nil
}
