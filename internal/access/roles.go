package access

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// RoleUpdate carries partial role mutations; nil fields are left
// untouched. Changing HierarchyLevel triggers a resync against the new
// level using the role's full current permission sets, which preserves
// prior overrides across the reassignment.
type RoleUpdate struct {
	DisplayName    *string
	Description    *string
	HierarchyLevel *int
}

// RoleService is the role registry.
type RoleService struct {
	roles  RoleStore
	levels LevelStore
	logger *slog.Logger
}

// NewRoleService constructs a RoleService.
func NewRoleService(roles RoleStore, levels LevelStore, logger *slog.Logger) *RoleService {
	return &RoleService{roles: roles, levels: levels, logger: logger}
}

// Create registers a new role. The role id is uppercased. When the
// referenced level exists, the provided permission sets are merged
// against its defaults in full-set mode so the stored sets are a merge
// result from the start; a missing level is not an error, the provided
// sets are stored as-is and sync happens once the level appears.
func (s *RoleService) Create(ctx context.Context, role Role) (Role, error) {
	role.RoleID = strings.ToUpper(strings.TrimSpace(role.RoleID))
	if role.RoleID == "" {
		return Role{}, &ValidationError{Field: "roleId", Reason: "required"}
	}
	if strings.TrimSpace(role.DisplayName) == "" {
		return Role{}, &ValidationError{Field: "displayName", Reason: "required"}
	}
	if role.HierarchyLevel < MinLevel || role.HierarchyLevel > MaxLevel {
		return Role{}, &ValidationError{Field: "hierarchyLevel", Reason: "must be between 0 and 10"}
	}

	if level, err := s.levels.Get(ctx, role.HierarchyLevel); err == nil {
		role = MergeRole(level, role)
	} else if !errors.Is(err, ErrLevelNotFound) {
		return Role{}, err
	}
	return s.roles.Create(ctx, role)
}

// Get fetches an active role.
func (s *RoleService) Get(ctx context.Context, roleID string) (Role, error) {
	return s.roles.Get(ctx, strings.ToUpper(roleID))
}

// List returns all active roles.
func (s *RoleService) List(ctx context.Context) ([]Role, error) {
	return s.roles.List(ctx)
}

// ListByLevel returns active roles at the hierarchy level.
func (s *RoleService) ListByLevel(ctx context.Context, level int) ([]Role, error) {
	return s.roles.ListByLevel(ctx, level)
}

// Update applies a partial mutation. A hierarchy-level change resyncs
// the role against the new level's defaults; when no active level with
// that number exists the resync is skipped without error.
//
// The resync takes no lock against a cascade running from the old
// level: if one is mid-flight it may overwrite this write with the old
// level's defaults. Last write wins; the next cascade from the new
// level converges the role.
func (s *RoleService) Update(ctx context.Context, roleID string, upd RoleUpdate) (Role, error) {
	role, err := s.roles.Get(ctx, strings.ToUpper(roleID))
	if err != nil {
		return Role{}, err
	}

	levelChanged := false
	if upd.DisplayName != nil {
		role.DisplayName = *upd.DisplayName
	}
	if upd.Description != nil {
		role.Description = *upd.Description
	}
	if upd.HierarchyLevel != nil && *upd.HierarchyLevel != role.HierarchyLevel {
		if *upd.HierarchyLevel < MinLevel || *upd.HierarchyLevel > MaxLevel {
			return Role{}, &ValidationError{Field: "hierarchyLevel", Reason: "must be between 0 and 10"}
		}
		role.HierarchyLevel = *upd.HierarchyLevel
		levelChanged = true
	}

	if levelChanged {
		level, err := s.levels.Get(ctx, role.HierarchyLevel)
		switch {
		case err == nil:
			role = MergeRole(level, role)
		case errors.Is(err, ErrLevelNotFound):
			s.logger.Warn("role resync skipped, level missing",
				slog.String("role", role.RoleID),
				slog.Int("level", role.HierarchyLevel))
		default:
			return Role{}, err
		}
	}
	return s.roles.Update(ctx, role)
}

// OverridePermission directly sets one entry to the given value and
// force-marks it role-specific, bypassing the merge algorithm. An entry
// the role does not yet carry is added.
func (s *RoleService) OverridePermission(ctx context.Context, roleID string, kind PermissionKind, capabilityID string, hasAccess bool) (Role, error) {
	if !kind.Valid() {
		return Role{}, &ValidationError{Field: "type", Reason: "must be component or feature"}
	}
	if capabilityID == "" {
		return Role{}, &ValidationError{Field: "capabilityId", Reason: "required"}
	}
	role, err := s.roles.Get(ctx, strings.ToUpper(roleID))
	if err != nil {
		return Role{}, err
	}

	entry := PermissionEntry{
		CapabilityID:       capabilityID,
		DisplayName:        CapabilityName(kind, capabilityID),
		HasAccess:          hasAccess,
		RoleSpecific:       true,
		InheritedFromLevel: false,
	}
	if kind == KindComponent {
		role.ComponentPermissions = forceEntry(role.ComponentPermissions, entry)
	} else {
		role.FeaturePermissions = forceEntry(role.FeaturePermissions, entry)
	}

	if err := s.roles.UpdatePermissions(ctx, role.RoleID, role.ComponentPermissions, role.FeaturePermissions); err != nil {
		return Role{}, err
	}
	return s.roles.Get(ctx, role.RoleID)
}

// EffectivePermissions filters both permission sets to granted entries.
func (s *RoleService) EffectivePermissions(ctx context.Context, roleID string) (Effective, error) {
	role, err := s.roles.Get(ctx, strings.ToUpper(roleID))
	if err != nil {
		return Effective{}, err
	}
	return Effective{
		ComponentPermissions: role.ComponentPermissions.Granted(),
		FeaturePermissions:   role.FeaturePermissions.Granted(),
	}, nil
}

// Delete soft-deletes a role; system roles are protected.
func (s *RoleService) Delete(ctx context.Context, roleID string) error {
	role, err := s.roles.Get(ctx, strings.ToUpper(roleID))
	if err != nil {
		return err
	}
	if role.IsSystemRole {
		return &SystemRoleError{RoleID: role.RoleID}
	}
	return s.roles.Deactivate(ctx, role.RoleID)
}

func forceEntry(set PermissionSet, entry PermissionEntry) PermissionSet {
	out := set.Clone()
	for i, e := range out {
		if e.CapabilityID == entry.CapabilityID {
			if e.DisplayName != "" {
				entry.DisplayName = e.DisplayName
			}
			out[i] = entry
			return out
		}
	}
	return append(out, entry)
}
