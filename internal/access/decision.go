package access

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// Decider answers "can role R access capability C" for the API and UI
// layers. Every call reads the role's current stored state; there is no
// cache in front of it. When the role registry is unreachable the
// decider degrades to a fixed static role set and hierarchy, logging a
// warning. Unknown roles are denied in both modes; unavailability never
// turns into an implicit grant.
type Decider struct {
	roles  RoleStore
	logger *slog.Logger
}

// NewDecider constructs a Decider.
func NewDecider(roles RoleStore, logger *slog.Logger) *Decider {
	return &Decider{roles: roles, logger: logger}
}

// CanAccessComponent reports whether the role may access a component.
func (d *Decider) CanAccessComponent(ctx context.Context, roleID, capabilityID string) bool {
	return d.decide(ctx, roleID, capabilityID, KindComponent)
}

// CanAccessFeature reports whether the role may use a feature.
func (d *Decider) CanAccessFeature(ctx context.Context, roleID, capabilityID string) bool {
	return d.decide(ctx, roleID, capabilityID, KindFeature)
}

func (d *Decider) decide(ctx context.Context, roleID, capabilityID string, kind PermissionKind) bool {
	roleID = strings.ToUpper(strings.TrimSpace(roleID))
	if roleID == "" || capabilityID == "" {
		return false
	}

	role, err := d.roles.Get(ctx, roleID)
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			return false
		}
		d.logger.Warn("access decision degraded to static fallback",
			slog.String("role", roleID),
			slog.String("capability", capabilityID),
			slog.Any("error", err))
		return fallbackDecision(roleID, capabilityID, kind)
	}

	set := role.ComponentPermissions
	if kind == KindFeature {
		set = role.FeaturePermissions
	}
	entry, ok := set.Get(capabilityID)
	return ok && entry.HasAccess
}

// fallbackHierarchy is the fixed role-to-level table used when the
// registry cannot be reached. It covers the system roles only; anything
// else is denied while degraded.
var fallbackHierarchy = map[string]int{
	"ADMIN":              0,
	"OFFICER_IN_CHARGE":  1,
	"FACULTY_IN_CHARGE":  1,
	"CEO":                2,
	"INCUBATION_MANAGER": 3,
	"ACCOUNTANT":         3,
	"EMPLOYEE":           4,
}

func fallbackDecision(roleID, capabilityID string, kind PermissionKind) bool {
	levelNum, ok := fallbackHierarchy[roleID]
	if !ok {
		return false
	}
	for _, level := range defaultLevels {
		if level.Level != levelNum {
			continue
		}
		set := level.ComponentPermissions
		if kind == KindFeature {
			set = level.FeaturePermissions
		}
		entry, found := set.Get(capabilityID)
		return found && entry.HasAccess
	}
	return false
}
