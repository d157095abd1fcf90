package access

import (
	"context"
	"log/slog"
	"strings"
)

// LevelSummary decorates a level with the number of active roles
// referencing it, for admin listings.
type LevelSummary struct {
	Level
	RoleCount int `json:"roleCount"`
}

// LevelUpdate carries partial level mutations; nil fields are left
// untouched. NewLevel requests a level-number change and is refused for
// system levels.
type LevelUpdate struct {
	Name                 *string
	Description          *string
	ComponentPermissions *PermissionSet
	FeaturePermissions   *PermissionSet
	CascadeEnabled       *bool
	NewLevel             *int
}

// LevelService is the level registry. Permission mutations trigger the
// cascade synchronously when the level has cascading enabled; the
// caller observes the cascaded role count.
type LevelService struct {
	levels   LevelStore
	roles    RoleStore
	cascader *Cascader
	logger   *slog.Logger
}

// NewLevelService constructs a LevelService.
func NewLevelService(levels LevelStore, roles RoleStore, cascader *Cascader, logger *slog.Logger) *LevelService {
	return &LevelService{levels: levels, roles: roles, cascader: cascader, logger: logger}
}

// Create registers a new level. Fails with DuplicateLevelError when the
// level number is already active.
func (s *LevelService) Create(ctx context.Context, level Level) (Level, error) {
	if level.Level < MinLevel || level.Level > MaxLevel {
		return Level{}, &ValidationError{Field: "level", Reason: "must be between 0 and 10"}
	}
	if strings.TrimSpace(level.Name) == "" {
		return Level{}, &ValidationError{Field: "name", Reason: "required"}
	}
	return s.levels.Create(ctx, level)
}

// Get fetches an active level.
func (s *LevelService) Get(ctx context.Context, level int) (Level, error) {
	return s.levels.Get(ctx, level)
}

// List returns active levels sorted ascending, each with its active
// role count.
func (s *LevelService) List(ctx context.Context) ([]LevelSummary, error) {
	levels, err := s.levels.List(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]LevelSummary, 0, len(levels))
	for _, level := range levels {
		count, err := s.roles.CountByLevel(ctx, level.Level)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, LevelSummary{Level: level, RoleCount: count})
	}
	return summaries, nil
}

// Update applies a partial mutation. When component or feature
// permissions change and cascading is enabled, every role at the level
// is resynced as part of the same logical operation; per-role cascade
// failures are reported through the CascadeResult, never as the
// operation's error.
func (s *LevelService) Update(ctx context.Context, level int, upd LevelUpdate) (Level, CascadeResult, error) {
	current, err := s.levels.Get(ctx, level)
	if err != nil {
		return Level{}, CascadeResult{}, err
	}
	if upd.NewLevel != nil && *upd.NewLevel != current.Level && current.IsSystemLevel {
		return Level{}, CascadeResult{}, &SystemLevelError{Level: current.Level}
	}

	permissionsChanged := false
	if upd.Name != nil {
		current.Name = *upd.Name
	}
	if upd.Description != nil {
		current.Description = *upd.Description
	}
	if upd.ComponentPermissions != nil {
		current.ComponentPermissions = upd.ComponentPermissions.Clone()
		permissionsChanged = true
	}
	if upd.FeaturePermissions != nil {
		current.FeaturePermissions = upd.FeaturePermissions.Clone()
		permissionsChanged = true
	}
	if upd.CascadeEnabled != nil {
		current.CascadeEnabled = *upd.CascadeEnabled
	}

	saved, err := s.levels.Update(ctx, current)
	if err != nil {
		return Level{}, CascadeResult{}, err
	}

	var result CascadeResult
	if permissionsChanged && saved.CascadeEnabled {
		result = s.cascader.Run(ctx, saved)
	}
	return saved, result, nil
}

// SetComponentAccess toggles one component capability on the level.
func (s *LevelService) SetComponentAccess(ctx context.Context, level int, capabilityID string, hasAccess bool) (Level, CascadeResult, error) {
	return s.setAccess(ctx, level, KindComponent, capabilityID, hasAccess)
}

// SetFeatureAccess toggles one feature capability on the level.
func (s *LevelService) SetFeatureAccess(ctx context.Context, level int, capabilityID string, hasAccess bool) (Level, CascadeResult, error) {
	return s.setAccess(ctx, level, KindFeature, capabilityID, hasAccess)
}

func (s *LevelService) setAccess(ctx context.Context, level int, kind PermissionKind, capabilityID string, hasAccess bool) (Level, CascadeResult, error) {
	current, err := s.levels.Get(ctx, level)
	if err != nil {
		return Level{}, CascadeResult{}, err
	}
	set := current.ComponentPermissions
	if kind == KindFeature {
		set = current.FeaturePermissions
	}
	set = upsertEntry(set, PermissionEntry{
		CapabilityID: capabilityID,
		DisplayName:  CapabilityName(kind, capabilityID),
		HasAccess:    hasAccess,
	})
	upd := LevelUpdate{}
	if kind == KindFeature {
		upd.FeaturePermissions = &set
	} else {
		upd.ComponentPermissions = &set
	}
	return s.Update(ctx, level, upd)
}

// ToggleCascade flips the cascade-enabled flag and returns the new
// state. Flipping the flag alone never triggers a cascade.
func (s *LevelService) ToggleCascade(ctx context.Context, level int) (bool, error) {
	current, err := s.levels.Get(ctx, level)
	if err != nil {
		return false, err
	}
	current.CascadeEnabled = !current.CascadeEnabled
	saved, err := s.levels.Update(ctx, current)
	if err != nil {
		return false, err
	}
	return saved.CascadeEnabled, nil
}

// Delete soft-deletes a level. System levels are protected, and a level
// still referenced by active roles fails with LevelInUseError carrying
// the exact blocking count.
func (s *LevelService) Delete(ctx context.Context, level int) error {
	current, err := s.levels.Get(ctx, level)
	if err != nil {
		return err
	}
	if current.IsSystemLevel {
		return &SystemLevelError{Level: level}
	}
	count, err := s.roles.CountByLevel(ctx, level)
	if err != nil {
		return err
	}
	if count > 0 {
		return &LevelInUseError{Level: level, Roles: count}
	}
	return s.levels.Deactivate(ctx, level)
}

// AffectedRoles lists the active roles a cascade from this level would
// touch.
func (s *LevelService) AffectedRoles(ctx context.Context, level int) ([]RoleRef, error) {
	if _, err := s.levels.Get(ctx, level); err != nil {
		return nil, err
	}
	roles, err := s.roles.ListByLevel(ctx, level)
	if err != nil {
		return nil, err
	}
	refs := make([]RoleRef, 0, len(roles))
	for _, role := range roles {
		refs = append(refs, RoleRef{RoleID: role.RoleID, DisplayName: role.DisplayName, HierarchyLevel: role.HierarchyLevel})
	}
	return refs, nil
}

// ApplyToRole manually applies the level's defaults to one role using
// the full-set merge, preserving the role's existing overrides. This is
// the repair path for roles that missed a cascade.
func (s *LevelService) ApplyToRole(ctx context.Context, level int, roleID string) (Role, error) {
	lvl, err := s.levels.Get(ctx, level)
	if err != nil {
		return Role{}, err
	}
	role, err := s.roles.Get(ctx, strings.ToUpper(roleID))
	if err != nil {
		return Role{}, err
	}
	merged := MergeRole(lvl, role)
	if err := s.roles.UpdatePermissions(ctx, merged.RoleID, merged.ComponentPermissions, merged.FeaturePermissions); err != nil {
		return Role{}, err
	}
	return s.roles.Get(ctx, merged.RoleID)
}

func upsertEntry(set PermissionSet, entry PermissionEntry) PermissionSet {
	out := set.Clone()
	for i, e := range out {
		if e.CapabilityID == entry.CapabilityID {
			out[i].HasAccess = entry.HasAccess
			return out
		}
	}
	return append(out, entry)
}
