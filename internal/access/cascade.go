package access

import (
	"context"
	"log/slog"
)

// Cascader propagates a level's permission changes to every active role
// at that level. Cascades run sequentially and best-effort: a failure
// on one role is logged and counted, never aborting the remaining
// roles. Role writes go through RoleStore.UpdatePermissions, which
// bypasses the hierarchy-level resync path entirely, so a cascade can
// never feed back into level-side logic.
type Cascader struct {
	roles    RoleStore
	logger   *slog.Logger
	observer CascadeObserver
}

// CascadeObserver receives cascade outcome counts, typically a metrics
// registry.
type CascadeObserver interface {
	ObserveCascade(updated, failed int)
}

// NewCascader constructs a Cascader. observer may be nil.
func NewCascader(roles RoleStore, logger *slog.Logger, observer CascadeObserver) *Cascader {
	return &Cascader{roles: roles, logger: logger, observer: observer}
}

// Run recomputes and persists the permission sets of every active role
// at level.Level from the level's current defaults. Each role's side of
// the merge is filtered to its role-specific overrides so previously
// inherited values cannot survive as overrides.
//
// Roles are listed once, so a role reassigned to another level between
// the list and its write still receives this level's defaults. There is
// no cross-record locking: whichever of the cascade and the
// reassignment resync commits last wins, and the next cascade or resync
// converges the role again.
func (c *Cascader) Run(ctx context.Context, level Level) CascadeResult {
	roles, err := c.roles.ListByLevel(ctx, level.Level)
	if err != nil {
		c.logger.Error("cascade: list roles",
			slog.Int("level", level.Level), slog.Any("error", err))
		return CascadeResult{}
	}

	var result CascadeResult
	for _, role := range roles {
		components := Merge(level.ComponentPermissions, role.ComponentPermissions.Overrides())
		features := Merge(level.FeaturePermissions, role.FeaturePermissions.Overrides())
		if err := c.roles.UpdatePermissions(ctx, role.RoleID, components, features); err != nil {
			result.Failed++
			c.logger.Error("cascade: persist role",
				slog.String("role", role.RoleID),
				slog.Int("level", level.Level),
				slog.Any("error", err))
			continue
		}
		result.Updated++
	}

	if c.observer != nil {
		c.observer.ObserveCascade(result.Updated, result.Failed)
	}
	c.logger.Info("cascade complete",
		slog.Int("level", level.Level),
		slog.Int("updated", result.Updated),
		slog.Int("failed", result.Failed))
	return result
}
