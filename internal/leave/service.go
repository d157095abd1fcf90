package leave

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/helmsman-hr/helmsman/internal/platform/httpx"
	"github.com/helmsman-hr/helmsman/internal/shared"
)

// RepositoryPort defines data access methods for leave requests.
type RepositoryPort interface {
	Create(ctx context.Context, req Request) (Request, error)
	Get(ctx context.Context, id uuid.UUID) (Request, error)
	ListPending(ctx context.Context) ([]Request, error)
	ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]Request, error)
	Decide(ctx context.Context, id uuid.UUID, status string, decidedBy int64, at time.Time, entry shared.ApprovalLog) (Request, error)
}

// Service handles leave business logic. Approvals are recorded in the
// shared approval trail; submissions may carry an idempotency key so a
// retried request does not file twice.
type Service struct {
	repo        RepositoryPort
	approvals   *shared.ApprovalRecorder
	idempotency *shared.IdempotencyStore
	logger      *slog.Logger
	now         func() time.Time
}

// NewService builds a Service instance. approvals and idempotency may
// be nil in tests.
func NewService(repo RepositoryPort, approvals *shared.ApprovalRecorder, idempotency *shared.IdempotencyStore, logger *slog.Logger) *Service {
	return &Service{repo: repo, approvals: approvals, idempotency: idempotency, logger: logger, now: time.Now}
}

func validType(t string) bool {
	switch t {
	case TypeCasual, TypeSick, TypeEarned, TypeUnpaid:
		return true
	}
	return false
}

// Apply files a new leave request.
func (s *Service) Apply(ctx context.Context, req Request, actorID int64, idempotencyKey string) (Request, error) {
	if req.EmployeeID == uuid.Nil || !validType(req.Type) || req.ToDate.Before(req.FromDate) {
		return Request{}, httpx.ErrValidation
	}
	if idempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, idempotencyKey, "leave"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return Request{}, httpx.ErrDuplicate
			}
			return Request{}, err
		}
	}
	req.ID = uuid.New()
	req.Status = StatusPending
	created, err := s.repo.Create(ctx, req)
	if err != nil {
		if idempotencyKey != "" && s.idempotency != nil {
			_ = s.idempotency.Delete(ctx, idempotencyKey)
		}
		return Request{}, err
	}
	if s.approvals != nil {
		if err := s.approvals.Record(ctx, shared.ApprovalLog{
			Module:  "leave",
			RefID:   created.ID,
			ActorID: actorID,
			Action:  shared.ApprovalSubmit,
			Note:    created.Reason,
		}); err != nil {
			s.logger.Warn("record leave submit", slog.Any("error", err))
		}
	}
	return created, nil
}

// Pending lists requests awaiting a decision.
func (s *Service) Pending(ctx context.Context) ([]Request, error) {
	return s.repo.ListPending(ctx)
}

// History lists an employee's requests.
func (s *Service) History(ctx context.Context, employeeID uuid.UUID) ([]Request, error) {
	return s.repo.ListByEmployee(ctx, employeeID)
}

// Approve grants a pending request.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, actorID int64, note string) (Request, error) {
	return s.decide(ctx, id, StatusApproved, shared.ApprovalApprove, actorID, note)
}

// Reject declines a pending request.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, actorID int64, note string) (Request, error) {
	return s.decide(ctx, id, StatusRejected, shared.ApprovalReject, actorID, note)
}

func (s *Service) decide(ctx context.Context, id uuid.UUID, status string, action shared.ApprovalAction, actorID int64, note string) (Request, error) {
	return s.repo.Decide(ctx, id, status, actorID, s.now().UTC(), shared.ApprovalLog{
		Module:  "leave",
		RefID:   id,
		ActorID: actorID,
		Action:  action,
		Note:    note,
	})
}

// Trail returns the approval history of one request.
func (s *Service) Trail(ctx context.Context, id uuid.UUID) ([]shared.ApprovalLog, error) {
	if s.approvals == nil {
		return nil, nil
	}
	return s.approvals.List(ctx, "leave", id)
}
