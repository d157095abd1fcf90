package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/helmsman-hr/helmsman/internal/access"
	jobmetrics "github.com/helmsman-hr/helmsman/internal/jobs"
)

// DriftScanJob compares every role's stored permission sets with what a
// fresh merge against its level defaults would produce. Drift appears
// when roles were written outside the cascade path, for example by a
// legacy import or a partial cascade failure.
type DriftScanJob struct {
	Levels   access.LevelStore
	Roles    access.RoleStore
	Cascader *access.Cascader
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewDriftScanJob initialises the drift scan handler.
func NewDriftScanJob(levels access.LevelStore, roles access.RoleStore, cascader *access.Cascader, logger *slog.Logger, metrics *jobmetrics.Metrics) *DriftScanJob {
	return &DriftScanJob{Levels: levels, Roles: roles, Cascader: cascader, Logger: logger, Metrics: metrics}
}

// Handle executes the drift scan.
func (j *DriftScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("drift scan: handler not configured")
	}
	var payload DriftScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskAccessDriftScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	levels, err := j.Levels.List(ctx)
	if err != nil {
		resultErr = err
		return resultErr
	}

	var totalDrift atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, level := range levels {
		level := level
		g.Go(func() error {
			drifted, err := j.scanLevel(gctx, level)
			if err != nil {
				return err
			}
			if drifted == 0 {
				return nil
			}
			totalDrift.Add(int64(drifted))
			j.Metrics.AddDrift(level.Level, drifted)
			j.Logger.Warn("permission drift detected",
				slog.Int("level", level.Level),
				slog.Int("roles", drifted))
			if payload.Repair && j.Cascader != nil {
				j.Cascader.Run(gctx, level)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		resultErr = err
		return resultErr
	}

	j.Logger.Info("drift scan complete", slog.Int64("driftedRoles", totalDrift.Load()))
	return nil
}

func (j *DriftScanJob) scanLevel(ctx context.Context, level access.Level) (int, error) {
	roles, err := j.Roles.ListByLevel(ctx, level.Level)
	if err != nil {
		return 0, err
	}
	drifted := 0
	for _, role := range roles {
		components := access.Merge(level.ComponentPermissions, role.ComponentPermissions.Overrides())
		features := access.Merge(level.FeaturePermissions, role.FeaturePermissions.Overrides())
		if !setsEquivalent(role.ComponentPermissions, components) || !setsEquivalent(role.FeaturePermissions, features) {
			drifted++
		}
	}
	return drifted, nil
}

// setsEquivalent compares two permission sets ignoring order.
func setsEquivalent(a, b access.PermissionSet) bool {
	if len(a) != len(b) {
		return false
	}
	byID := make(map[string]access.PermissionEntry, len(a))
	for _, entry := range a {
		byID[entry.CapabilityID] = entry
	}
	for _, entry := range b {
		if byID[entry.CapabilityID] != entry {
			return false
		}
	}
	return true
}
