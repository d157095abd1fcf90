package rating

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/helmsman-hr/helmsman/internal/platform/httpx"
)

// RepositoryPort defines data access methods for peer ratings.
type RepositoryPort interface {
	Insert(ctx context.Context, rating Rating) (Rating, error)
	Summarize(ctx context.Context, rateeID uuid.UUID, year, month int) (Summary, error)
}

// Service handles peer rating logic.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Submit records a peer rating for the current month. Rating yourself
// is rejected.
func (s *Service) Submit(ctx context.Context, raterID, rateeID uuid.UUID, score int, comment string) (Rating, error) {
	if raterID == uuid.Nil || rateeID == uuid.Nil || score < 1 || score > 5 {
		return Rating{}, httpx.ErrValidation
	}
	if raterID == rateeID {
		return Rating{}, httpx.ErrValidation
	}
	now := s.now().UTC()
	return s.repo.Insert(ctx, Rating{
		ID:      uuid.New(),
		RaterID: raterID,
		RateeID: rateeID,
		Score:   score,
		Comment: comment,
		Year:    now.Year(),
		Month:   int(now.Month()),
	})
}

// MonthSummary aggregates an employee's ratings for one month.
func (s *Service) MonthSummary(ctx context.Context, rateeID uuid.UUID, year, month int) (Summary, error) {
	if month < 1 || month > 12 {
		return Summary{}, httpx.ErrValidation
	}
	return s.repo.Summarize(ctx, rateeID, year, month)
}
