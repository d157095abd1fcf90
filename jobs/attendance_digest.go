package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/helmsman-hr/helmsman/internal/attendance"
	jobmetrics "github.com/helmsman-hr/helmsman/internal/jobs"
)

// AttendanceDigestJob aggregates one day of attendance and logs the
// totals for downstream dashboards.
type AttendanceDigestJob struct {
	Service *attendance.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewAttendanceDigestJob initialises the digest handler.
func NewAttendanceDigestJob(service *attendance.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *AttendanceDigestJob {
	return &AttendanceDigestJob{
		Service: service,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the digest.
func (j *AttendanceDigestJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("attendance digest: handler not configured")
	}
	var payload AttendanceDigestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskAttendanceDigest)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	day := j.clock().AddDate(0, 0, -1)
	if payload.Year != 0 {
		day = time.Date(payload.Year, time.Month(payload.Month), payload.Day, 0, 0, 0, 0, time.UTC)
	}
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

	summaries, err := j.Service.Report(ctx, from, from)
	if err != nil {
		resultErr = err
		return resultErr
	}
	for _, s := range summaries {
		j.Logger.Info("attendance digest",
			slog.Time("day", s.Day),
			slog.Int("present", s.Present),
			slog.Int("halfDay", s.HalfDay),
			slog.Int("onLeave", s.OnLeave))
	}
	if len(summaries) == 0 {
		j.Logger.Info("attendance digest", slog.Time("day", from), slog.String("result", "no records"))
	}
	return nil
}
