package leave

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/helmsman-hr/helmsman/internal/platform/httpx"
	"github.com/helmsman-hr/helmsman/internal/shared"
)

type memoryLeaveRepo struct {
	requests map[uuid.UUID]Request
	trail    []shared.ApprovalLog
}

func newMemoryLeaveRepo() *memoryLeaveRepo {
	return &memoryLeaveRepo{requests: make(map[uuid.UUID]Request)}
}

func (r *memoryLeaveRepo) Create(_ context.Context, req Request) (Request, error) {
	req.CreatedAt = time.Now()
	r.requests[req.ID] = req
	return req, nil
}

func (r *memoryLeaveRepo) Get(_ context.Context, id uuid.UUID) (Request, error) {
	req, ok := r.requests[id]
	if !ok {
		return Request{}, httpx.ErrNotFound
	}
	return req, nil
}

func (r *memoryLeaveRepo) ListPending(_ context.Context) ([]Request, error) {
	var out []Request
	for _, req := range r.requests {
		if req.Status == StatusPending {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *memoryLeaveRepo) ListByEmployee(_ context.Context, employeeID uuid.UUID) ([]Request, error) {
	var out []Request
	for _, req := range r.requests {
		if req.EmployeeID == employeeID {
			out = append(out, req)
		}
	}
	return out, nil
}

// Decide mirrors the SQL repository: the status change and the trail
// entry land together or not at all.
func (r *memoryLeaveRepo) Decide(_ context.Context, id uuid.UUID, status string, decidedBy int64, at time.Time, entry shared.ApprovalLog) (Request, error) {
	req, ok := r.requests[id]
	if !ok || req.Status != StatusPending {
		return Request{}, httpx.ErrNotFound
	}
	req.Status = status
	req.DecidedBy = &decidedBy
	req.DecidedAt = &at
	r.requests[id] = req
	r.trail = append(r.trail, entry)
	return req, nil
}

func newLeaveService(repo RepositoryPort) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, nil, nil, logger)
}

func TestApplyValidation(t *testing.T) {
	svc := newLeaveService(newMemoryLeaveRepo())
	ctx := context.Background()
	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.Apply(ctx, Request{Type: TypeCasual, FromDate: day, ToDate: day}, 1, "")
	require.ErrorIs(t, err, httpx.ErrValidation, "missing employee")

	_, err = svc.Apply(ctx, Request{EmployeeID: uuid.New(), Type: "SABBATICAL", FromDate: day, ToDate: day}, 1, "")
	require.ErrorIs(t, err, httpx.ErrValidation, "unknown type")

	_, err = svc.Apply(ctx, Request{EmployeeID: uuid.New(), Type: TypeSick, FromDate: day, ToDate: day.AddDate(0, 0, -1)}, 1, "")
	require.ErrorIs(t, err, httpx.ErrValidation, "inverted range")
}

func TestApplyCreatesPendingRequest(t *testing.T) {
	repo := newMemoryLeaveRepo()
	svc := newLeaveService(repo)
	employee := uuid.New()
	from := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

	created, err := svc.Apply(context.Background(), Request{
		EmployeeID: employee,
		Type:       TypeEarned,
		FromDate:   from,
		ToDate:     from.AddDate(0, 0, 2),
		Reason:     "family event",
	}, 1, "")
	require.NoError(t, err)

	require.NotEqual(t, uuid.Nil, created.ID)
	require.Equal(t, StatusPending, created.Status)
	require.Equal(t, 3, created.Days())

	pending, err := svc.Pending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
}

func TestDecideOnlyOncePerRequest(t *testing.T) {
	repo := newMemoryLeaveRepo()
	svc := newLeaveService(repo)
	ctx := context.Background()
	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

	created, err := svc.Apply(ctx, Request{
		EmployeeID: uuid.New(),
		Type:       TypeCasual,
		FromDate:   day,
		ToDate:     day,
	}, 1, "")
	require.NoError(t, err)

	approved, err := svc.Approve(ctx, created.ID, 42, "ok")
	require.NoError(t, err)
	require.Equal(t, StatusApproved, approved.Status)
	require.NotNil(t, approved.DecidedBy)
	require.EqualValues(t, 42, *approved.DecidedBy)
	require.NotNil(t, approved.DecidedAt)

	// A second decision finds no pending request to act on.
	_, err = svc.Reject(ctx, created.ID, 43, "changed mind")
	require.ErrorIs(t, err, httpx.ErrNotFound)

	// The trail entry travels with the decision write, so the failed
	// second decision leaves no trace.
	require.Len(t, repo.trail, 1)
	require.Equal(t, shared.ApprovalApprove, repo.trail[0].Action)
	require.Equal(t, created.ID, repo.trail[0].RefID)
	require.EqualValues(t, 42, repo.trail[0].ActorID)
}

func TestRejectDecidesPending(t *testing.T) {
	repo := newMemoryLeaveRepo()
	svc := newLeaveService(repo)
	ctx := context.Background()
	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	employee := uuid.New()

	created, err := svc.Apply(ctx, Request{
		EmployeeID: employee,
		Type:       TypeUnpaid,
		FromDate:   day,
		ToDate:     day,
	}, 1, "")
	require.NoError(t, err)

	rejected, err := svc.Reject(ctx, created.ID, 7, "coverage gap")
	require.NoError(t, err)
	require.Equal(t, StatusRejected, rejected.Status)

	history, err := svc.History(ctx, employee)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, StatusRejected, history[0].Status)
}
