package remuneration

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/helmsman-hr/helmsman/internal/platform/httpx"
	"github.com/helmsman-hr/helmsman/internal/shared"
)

type memoryRemunerationRepo struct {
	salaries []SalaryRecord
	periods  map[int64]PayrollPeriod
	nextID   int64
}

func newMemoryRemunerationRepo() *memoryRemunerationRepo {
	return &memoryRemunerationRepo{periods: make(map[int64]PayrollPeriod), nextID: 1}
}

func (r *memoryRemunerationRepo) CurrentSalary(_ context.Context, employeeID uuid.UUID) (SalaryRecord, error) {
	for i := len(r.salaries) - 1; i >= 0; i-- {
		if r.salaries[i].EmployeeID == employeeID {
			return r.salaries[i], nil
		}
	}
	return SalaryRecord{}, httpx.ErrNotFound
}

func (r *memoryRemunerationRepo) InsertSalary(_ context.Context, rec SalaryRecord) (SalaryRecord, error) {
	rec.CreatedAt = time.Now().UTC()
	r.salaries = append(r.salaries, rec)
	return rec, nil
}

func (r *memoryRemunerationRepo) GetPeriod(_ context.Context, id int64) (PayrollPeriod, error) {
	period, ok := r.periods[id]
	if !ok {
		return PayrollPeriod{}, httpx.ErrNotFound
	}
	return period, nil
}

func (r *memoryRemunerationRepo) EnsurePeriod(_ context.Context, year, month int) (PayrollPeriod, error) {
	for _, period := range r.periods {
		if period.Year == year && period.Month == month {
			return period, nil
		}
	}
	period := PayrollPeriod{ID: r.nextID, Year: year, Month: month, Status: shared.PeriodStatusOpen}
	r.periods[period.ID] = period
	r.nextID++
	return period, nil
}

func (r *memoryRemunerationRepo) SetPeriodStatus(_ context.Context, id int64, status string) (PayrollPeriod, error) {
	period, ok := r.periods[id]
	if !ok {
		return PayrollPeriod{}, httpx.ErrNotFound
	}
	period.Status = status
	r.periods[id] = period
	return period, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSetSalaryValidation(t *testing.T) {
	svc := NewService(newMemoryRemunerationRepo(), nil, quietLogger())
	ctx := context.Background()

	cases := []SalaryRecord{
		{BasicPay: 50000},
		{EmployeeID: uuid.New(), BasicPay: 0},
		{EmployeeID: uuid.New(), BasicPay: 50000, VariablePct: -1},
		{EmployeeID: uuid.New(), BasicPay: 50000, VariablePct: 101},
	}
	for _, rec := range cases {
		_, err := svc.SetSalary(ctx, rec)
		require.ErrorIs(t, err, httpx.ErrValidation)
	}
}

func TestSetSalaryBecomesCurrent(t *testing.T) {
	repo := newMemoryRemunerationRepo()
	svc := NewService(repo, nil, quietLogger())
	ctx := context.Background()
	employee := uuid.New()

	_, err := svc.SetSalary(ctx, SalaryRecord{EmployeeID: employee, BasicPay: 40000, HouseRent: 8000})
	require.NoError(t, err)
	second, err := svc.SetSalary(ctx, SalaryRecord{EmployeeID: employee, BasicPay: 50000, HouseRent: 10000, Allowances: 2000, VariablePct: 10})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, second.ID)
	require.False(t, second.EffectiveFrom.IsZero())

	current, err := svc.Salary(ctx, employee)
	require.NoError(t, err)
	require.Equal(t, second.ID, current.ID)
	require.Equal(t, int64(62000), current.Gross())
}

func TestOpenPeriodValidatesAndReuses(t *testing.T) {
	svc := NewService(newMemoryRemunerationRepo(), nil, quietLogger())
	ctx := context.Background()

	_, err := svc.OpenPeriod(ctx, 1999, 1)
	require.ErrorIs(t, err, httpx.ErrValidation)
	_, err = svc.OpenPeriod(ctx, 2026, 13)
	require.ErrorIs(t, err, httpx.ErrValidation)

	first, err := svc.OpenPeriod(ctx, 2026, 9)
	require.NoError(t, err)
	require.Equal(t, shared.PeriodStatusOpen, first.Status)

	again, err := svc.OpenPeriod(ctx, 2026, 9)
	require.NoError(t, err)
	require.Equal(t, first.ID, again.ID)
}

func TestTransitionPeriodPolicy(t *testing.T) {
	repo := newMemoryRemunerationRepo()
	svc := NewService(repo, nil, quietLogger())
	ctx := context.Background()

	period, err := svc.OpenPeriod(ctx, 2026, 9)
	require.NoError(t, err)

	closed, err := svc.TransitionPeriod(ctx, period.ID, shared.PeriodStatusClosed, false)
	require.NoError(t, err)
	require.Equal(t, shared.PeriodStatusClosed, closed.Status)

	locked, err := svc.TransitionPeriod(ctx, period.ID, shared.PeriodStatusLocked, false)
	require.NoError(t, err)
	require.Equal(t, shared.PeriodStatusLocked, locked.Status)

	_, err = svc.TransitionPeriod(ctx, period.ID, shared.PeriodStatusClosed, false)
	require.ErrorIs(t, err, httpx.ErrValidation)

	reopened, err := svc.TransitionPeriod(ctx, period.ID, shared.PeriodStatusClosed, true)
	require.NoError(t, err)
	require.Equal(t, shared.PeriodStatusClosed, reopened.Status)
}

func TestTransitionPeriodHeldLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newMemoryRemunerationRepo()
	svc := NewService(repo, client, quietLogger())
	ctx := context.Background()

	period, err := svc.OpenPeriod(ctx, 2026, 9)
	require.NoError(t, err)

	require.NoError(t, mr.Set(shared.PayrollLockKey(period.ID), "1"))
	_, err = svc.TransitionPeriod(ctx, period.ID, shared.PeriodStatusClosed, false)
	require.ErrorIs(t, err, httpx.ErrDuplicate)

	mr.Del(shared.PayrollLockKey(period.ID))
	closed, err := svc.TransitionPeriod(ctx, period.ID, shared.PeriodStatusClosed, false)
	require.NoError(t, err)
	require.Equal(t, shared.PeriodStatusClosed, closed.Status)
	require.False(t, mr.Exists(shared.PayrollLockKey(period.ID)))
}
