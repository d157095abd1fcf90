package remuneration

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/helmsman-hr/helmsman/internal/platform/httpx"
	"github.com/helmsman-hr/helmsman/internal/shared"
)

// RepositoryPort defines data access methods for remuneration.
type RepositoryPort interface {
	CurrentSalary(ctx context.Context, employeeID uuid.UUID) (SalaryRecord, error)
	InsertSalary(ctx context.Context, rec SalaryRecord) (SalaryRecord, error)
	GetPeriod(ctx context.Context, id int64) (PayrollPeriod, error)
	EnsurePeriod(ctx context.Context, year, month int) (PayrollPeriod, error)
	SetPeriodStatus(ctx context.Context, id int64, status string) (PayrollPeriod, error)
}

// Service handles salary and payroll period logic. Period transitions
// take a short redis lock so two admins cannot race a close.
type Service struct {
	repo   RepositoryPort
	redis  *redis.Client
	logger *slog.Logger
}

// NewService builds a Service instance. redis may be nil in tests,
// which skips locking.
func NewService(repo RepositoryPort, redisClient *redis.Client, logger *slog.Logger) *Service {
	return &Service{repo: repo, redis: redisClient, logger: logger}
}

// Salary returns the employee's current salary record.
func (s *Service) Salary(ctx context.Context, employeeID uuid.UUID) (SalaryRecord, error) {
	return s.repo.CurrentSalary(ctx, employeeID)
}

// SetSalary appends a new salary record for the employee.
func (s *Service) SetSalary(ctx context.Context, rec SalaryRecord) (SalaryRecord, error) {
	if rec.EmployeeID == uuid.Nil || rec.BasicPay <= 0 || rec.VariablePct < 0 || rec.VariablePct > 100 {
		return SalaryRecord{}, httpx.ErrValidation
	}
	rec.ID = uuid.New()
	if rec.EffectiveFrom.IsZero() {
		rec.EffectiveFrom = time.Now().UTC()
	}
	return s.repo.InsertSalary(ctx, rec)
}

// OpenPeriod ensures the payroll period for year/month exists.
func (s *Service) OpenPeriod(ctx context.Context, year, month int) (PayrollPeriod, error) {
	if year < 2000 || month < 1 || month > 12 {
		return PayrollPeriod{}, httpx.ErrValidation
	}
	return s.repo.EnsurePeriod(ctx, year, month)
}

// TransitionPeriod moves a period to target status under a redis lock.
// hasOverride permits reopening a locked period.
func (s *Service) TransitionPeriod(ctx context.Context, id int64, target string, hasOverride bool) (PayrollPeriod, error) {
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return PayrollPeriod{}, err
	}
	defer unlock()

	period, err := s.repo.GetPeriod(ctx, id)
	if err != nil {
		return PayrollPeriod{}, err
	}
	if err := shared.ValidatePeriodTransition(period.Status, target, hasOverride); err != nil {
		return PayrollPeriod{}, httpx.ErrValidation
	}
	return s.repo.SetPeriodStatus(ctx, id, target)
}

func (s *Service) lock(ctx context.Context, periodID int64) (func(), error) {
	if s.redis == nil {
		return func() {}, nil
	}
	key := shared.PayrollLockKey(periodID)
	ok, err := s.redis.SetNX(ctx, key, "1", 30*time.Second).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, httpx.ErrDuplicate
	}
	return func() {
		if err := s.redis.Del(context.Background(), key).Err(); err != nil {
			s.logger.Warn("release payroll lock", slog.String("key", key), slog.Any("error", err))
		}
	}, nil
}
