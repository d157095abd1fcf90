package attendance

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/helmsman-hr/helmsman/internal/platform/httpx"
)

// RepositoryPort defines data access methods for attendance.
type RepositoryPort interface {
	CheckIn(ctx context.Context, rec Record) (Record, error)
	CheckOut(ctx context.Context, employeeID uuid.UUID, day, at time.Time) (Record, error)
	ListByEmployee(ctx context.Context, employeeID uuid.UUID, from, to time.Time) ([]Record, error)
	Summarize(ctx context.Context, from, to time.Time) ([]DaySummary, error)
}

// Service handles attendance business logic.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// CheckIn records today's check-in for the employee. A second check-in
// on the same day is rejected as a duplicate.
func (s *Service) CheckIn(ctx context.Context, employeeID uuid.UUID) (Record, error) {
	if employeeID == uuid.Nil {
		return Record{}, httpx.ErrValidation
	}
	now := s.now().UTC()
	return s.repo.CheckIn(ctx, Record{
		ID:         uuid.New(),
		EmployeeID: employeeID,
		Day:        truncateDay(now),
		CheckIn:    now,
		Status:     StatusPresent,
	})
}

// CheckOut closes today's record. Sessions shorter than four hours are
// downgraded to a half day.
func (s *Service) CheckOut(ctx context.Context, employeeID uuid.UUID) (Record, error) {
	if employeeID == uuid.Nil {
		return Record{}, httpx.ErrValidation
	}
	now := s.now().UTC()
	rec, err := s.repo.CheckOut(ctx, employeeID, truncateDay(now), now)
	if err != nil {
		return Record{}, err
	}
	if rec.CheckOut != nil && rec.CheckOut.Sub(rec.CheckIn) < 4*time.Hour {
		rec.Status = StatusHalfDay
	}
	return rec, nil
}

// History returns the employee's records inside [from, to].
func (s *Service) History(ctx context.Context, employeeID uuid.UUID, from, to time.Time) ([]Record, error) {
	if to.Before(from) {
		return nil, httpx.ErrValidation
	}
	return s.repo.ListByEmployee(ctx, employeeID, from, to)
}

// Report aggregates daily counts inside [from, to].
func (s *Service) Report(ctx context.Context, from, to time.Time) ([]DaySummary, error) {
	if to.Before(from) {
		return nil, httpx.ErrValidation
	}
	return s.repo.Summarize(ctx, from, to)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
