package access

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// componentDefaults walks the component catalog in order, granting the
// listed ids and denying the rest. Level defaults always carry the full
// component catalog so roles inherit explicit denials too.
func componentDefaults(granted ...string) PermissionSet {
	allow := make(map[string]bool, len(granted))
	for _, id := range granted {
		allow[id] = true
	}
	set := make(PermissionSet, 0, len(componentCatalog))
	for _, c := range componentCatalog {
		set = append(set, PermissionEntry{CapabilityID: c.ID, DisplayName: c.Name, HasAccess: allow[c.ID]})
	}
	return set
}

// featureDefaults lists only the granted feature capabilities; features
// a level does not mention are simply absent from its defaults.
func featureDefaults(granted ...string) PermissionSet {
	set := make(PermissionSet, 0, len(granted))
	for _, id := range granted {
		set = append(set, PermissionEntry{CapabilityID: id, DisplayName: CapabilityName(KindFeature, id), HasAccess: true})
	}
	return set
}

// defaultLevels are the five system levels seeded at bootstrap and used
// by the decider's degraded fallback.
var defaultLevels = []Level{
	{
		Level:          0,
		Name:           "Super Admin",
		Description:    "Highest level with complete system access including admin panel",
		IsSystemLevel:  true,
		CascadeEnabled: true,
		ComponentPermissions: componentDefaults(
			CompDashboard, CompEmployees, CompAttendance, CompLeave, CompPeerRating,
			CompRemuneration, CompCalendar, CompEFiling, CompSettings, CompProfile, CompAdmin,
		),
		FeaturePermissions: featureDefaults(
			FeatEmployeeCreate, FeatEmployeeEdit, FeatEmployeeDelete, FeatEmployeeViewAll,
			FeatLeaveApprove, FeatLeaveApply, FeatAttendanceMark, FeatAttendanceViewReports,
			FeatRemunerationView, FeatRolesManage, FeatLevelsManage,
		),
	},
	{
		Level:          1,
		Name:           "Senior Management",
		Description:    "Senior management with high-level access to operations",
		IsSystemLevel:  true,
		CascadeEnabled: true,
		ComponentPermissions: componentDefaults(
			CompDashboard, CompEmployees, CompAttendance, CompLeave, CompPeerRating,
			CompRemuneration, CompCalendar, CompEFiling, CompSettings, CompProfile,
		),
		FeaturePermissions: featureDefaults(
			FeatEmployeeEdit, FeatEmployeeViewAll, FeatLeaveApprove, FeatLeaveApply,
			FeatAttendanceMark, FeatAttendanceViewReports, FeatRemunerationView,
		),
	},
	{
		Level:          2,
		Name:           "Middle Management",
		Description:    "Middle management with operational access",
		IsSystemLevel:  true,
		CascadeEnabled: true,
		ComponentPermissions: componentDefaults(
			CompDashboard, CompEmployees, CompAttendance, CompLeave, CompPeerRating,
			CompRemuneration, CompCalendar, CompEFiling, CompSettings, CompProfile,
		),
		FeaturePermissions: featureDefaults(
			FeatEmployeeCreate, FeatEmployeeEdit, FeatEmployeeDelete, FeatEmployeeViewAll,
			FeatLeaveApprove, FeatLeaveApply, FeatAttendanceMark, FeatAttendanceViewReports,
			FeatRemunerationView,
		),
	},
	{
		Level:          3,
		Name:           "Department Management",
		Description:    "Department-level management with limited administrative access",
		IsSystemLevel:  true,
		CascadeEnabled: true,
		ComponentPermissions: componentDefaults(
			CompDashboard, CompEmployees, CompAttendance, CompLeave,
			CompCalendar, CompEFiling, CompSettings, CompProfile,
		),
		FeaturePermissions: featureDefaults(
			FeatEmployeeViewAll, FeatLeaveApply, FeatAttendanceMark, FeatAttendanceViewReports,
		),
	},
	{
		Level:          4,
		Name:           "Staff",
		Description:    "General staff with basic access to personal features",
		IsSystemLevel:  true,
		CascadeEnabled: true,
		ComponentPermissions: componentDefaults(
			CompDashboard, CompAttendance, CompLeave, CompCalendar, CompEFiling, CompProfile,
		),
		FeaturePermissions: featureDefaults(FeatLeaveApply, FeatAttendanceMark),
	},
}

type defaultRole struct {
	RoleID      string
	DisplayName string
	Level       int
}

var defaultRoles = []defaultRole{
	{RoleID: "ADMIN", DisplayName: "Admin", Level: 0},
	{RoleID: "OFFICER_IN_CHARGE", DisplayName: "Officer in Charge", Level: 1},
	{RoleID: "FACULTY_IN_CHARGE", DisplayName: "Faculty in Charge", Level: 1},
	{RoleID: "CEO", DisplayName: "CEO", Level: 2},
	{RoleID: "INCUBATION_MANAGER", DisplayName: "Incubation Manager", Level: 3},
	{RoleID: "ACCOUNTANT", DisplayName: "Accountant", Level: 3},
	{RoleID: "EMPLOYEE", DisplayName: "Employee", Level: 4},
}

// DefaultLevels returns copies of the seeded system levels.
func DefaultLevels() []Level {
	out := make([]Level, len(defaultLevels))
	for i, l := range defaultLevels {
		l.ComponentPermissions = l.ComponentPermissions.Clone()
		l.FeaturePermissions = l.FeaturePermissions.Clone()
		out[i] = l
	}
	return out
}

// Bootstrapper seeds the system levels and roles. Seeding is
// idempotent: records that already exist are left alone, so a rerun
// never disturbs live permissions or overrides.
type Bootstrapper struct {
	levels LevelStore
	roles  RoleStore
	logger *slog.Logger
}

// NewBootstrapper constructs a Bootstrapper.
func NewBootstrapper(levels LevelStore, roles RoleStore, logger *slog.Logger) *Bootstrapper {
	return &Bootstrapper{levels: levels, roles: roles, logger: logger}
}

// Seed creates the default levels and system roles that are not yet
// present. Roles are created with their level's defaults, every entry
// tagged inherited.
func (b *Bootstrapper) Seed(ctx context.Context) error {
	for _, level := range DefaultLevels() {
		if _, err := b.levels.Get(ctx, level.Level); err == nil {
			continue
		} else if !errors.Is(err, ErrLevelNotFound) {
			return err
		}
		if _, err := b.levels.Create(ctx, level); err != nil {
			var dup *DuplicateLevelError
			if errors.As(err, &dup) {
				continue
			}
			return err
		}
		b.logger.Info("seeded level", slog.Int("level", level.Level), slog.String("name", level.Name))
	}

	for _, def := range defaultRoles {
		if _, err := b.roles.Get(ctx, def.RoleID); err == nil {
			continue
		} else if !errors.Is(err, ErrRoleNotFound) {
			return err
		}
		level, err := b.levels.Get(ctx, def.Level)
		if err != nil {
			b.logger.Warn("skip role seed, level missing",
				slog.String("role", def.RoleID), slog.Int("level", def.Level))
			continue
		}
		role := Role{
			RoleID:               def.RoleID,
			DisplayName:          def.DisplayName,
			Description:          def.DisplayName + " role",
			HierarchyLevel:       def.Level,
			IsSystemRole:         true,
			ComponentPermissions: Merge(level.ComponentPermissions, nil),
			FeaturePermissions:   Merge(level.FeaturePermissions, nil),
		}
		if _, err := b.roles.Create(ctx, role); err != nil {
			var dup *DuplicateRoleError
			if errors.As(err, &dup) {
				continue
			}
			return err
		}
		b.logger.Info("seeded role", slog.String("role", def.RoleID))
	}
	return nil
}

// LegacyRole is one record of the pre-level flat role-permission
// dataset consumed by the import path.
type LegacyRole struct {
	RoleID               string        `json:"roleId"`
	DisplayName          string        `json:"displayName"`
	Description          string        `json:"description"`
	HierarchyLevel       int           `json:"hierarchyLevel"`
	IsSystemRole         bool          `json:"isSystemRole"`
	ComponentPermissions PermissionSet `json:"componentAccess"`
	FeaturePermissions   PermissionSet `json:"featureAccess"`
}

// ImportResult summarizes a legacy import run.
type ImportResult struct {
	Created int
	Updated int
	Skipped int
}

// ImportLegacy backfills roles from a flat legacy dataset, merging each
// record's permissions against its level's defaults in full-set mode so
// explicit overrides are detected and tagged. The operation is
// idempotent: merging an already-merged set against the same defaults
// reproduces it, so reruns never corrupt role-specific overrides.
// Records whose level has no active Level are skipped, not fatal.
func (b *Bootstrapper) ImportLegacy(ctx context.Context, dataset []LegacyRole) (ImportResult, error) {
	var result ImportResult
	for _, legacy := range dataset {
		roleID := strings.ToUpper(strings.TrimSpace(legacy.RoleID))
		if roleID == "" {
			result.Skipped++
			continue
		}
		level, err := b.levels.Get(ctx, legacy.HierarchyLevel)
		if err != nil {
			if errors.Is(err, ErrLevelNotFound) {
				b.logger.Warn("legacy import skipped, level missing",
					slog.String("role", roleID), slog.Int("level", legacy.HierarchyLevel))
				result.Skipped++
				continue
			}
			return result, err
		}

		existing, err := b.roles.Get(ctx, roleID)
		switch {
		case err == nil:
			// Re-running against migrated data: merge the stored set,
			// not the legacy payload, so later overrides survive.
			merged := MergeRole(level, existing)
			if err := b.roles.UpdatePermissions(ctx, roleID, merged.ComponentPermissions, merged.FeaturePermissions); err != nil {
				return result, err
			}
			result.Updated++
		case errors.Is(err, ErrRoleNotFound):
			role := Role{
				RoleID:               roleID,
				DisplayName:          legacy.DisplayName,
				Description:          legacy.Description,
				HierarchyLevel:       legacy.HierarchyLevel,
				IsSystemRole:         legacy.IsSystemRole,
				ComponentPermissions: Merge(level.ComponentPermissions, legacy.ComponentPermissions),
				FeaturePermissions:   Merge(level.FeaturePermissions, legacy.FeaturePermissions),
			}
			if _, err := b.roles.Create(ctx, role); err != nil {
				return result, err
			}
			result.Created++
		default:
			return result, err
		}
	}
	b.logger.Info("legacy import complete",
		slog.Int("created", result.Created),
		slog.Int("updated", result.Updated),
		slog.Int("skipped", result.Skipped))
	return result, nil
}
