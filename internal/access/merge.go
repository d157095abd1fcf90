package access

import "sort"

// Merge computes a role's effective permission set from the level
// defaults and the role side. It is applied independently to component
// and feature sets.
//
// Two call modes share this one function. Cascade-triggered merges must
// pass rolePerms pre-filtered with Overrides(); explicit apply-level-
// to-role operations, hierarchy-level resyncs and the legacy import
// pass the role's entire current set.
//
// For every capability id present in either input:
//   - in both with differing access: the role's value wins, tagged
//     role-specific;
//   - in both with equal access: the level's entry, tagged inherited
//     (equality collapses provenance back to inherited);
//   - role only: the role's entry, tagged role-specific;
//   - level only: the level's entry, tagged inherited.
//
// Entries without a capability id are skipped. The output is sorted by
// capability id for stable storage; callers must not rely on ordering.
func Merge(levelPerms, rolePerms PermissionSet) PermissionSet {
	levelByID := make(map[string]PermissionEntry, len(levelPerms))
	for _, e := range levelPerms {
		if e.CapabilityID == "" {
			continue
		}
		levelByID[e.CapabilityID] = e
	}
	roleByID := make(map[string]PermissionEntry, len(rolePerms))
	for _, e := range rolePerms {
		if e.CapabilityID == "" {
			continue
		}
		roleByID[e.CapabilityID] = e
	}

	ids := make([]string, 0, len(levelByID)+len(roleByID))
	for id := range levelByID {
		ids = append(ids, id)
	}
	for id := range roleByID {
		if _, seen := levelByID[id]; !seen {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	merged := make(PermissionSet, 0, len(ids))
	for _, id := range ids {
		levelEntry, inLevel := levelByID[id]
		roleEntry, inRole := roleByID[id]

		switch {
		case inLevel && inRole && levelEntry.HasAccess != roleEntry.HasAccess:
			roleEntry.RoleSpecific = true
			roleEntry.InheritedFromLevel = false
			merged = append(merged, roleEntry)
		case inLevel && inRole:
			levelEntry.RoleSpecific = false
			levelEntry.InheritedFromLevel = true
			merged = append(merged, levelEntry)
		case inRole:
			roleEntry.RoleSpecific = true
			roleEntry.InheritedFromLevel = false
			merged = append(merged, roleEntry)
		default:
			levelEntry.RoleSpecific = false
			levelEntry.InheritedFromLevel = true
			merged = append(merged, levelEntry)
		}
	}
	return merged
}

// MergeRole merges both of a role's permission sets against a level in
// full-set mode, returning the role with its sets replaced.
func MergeRole(level Level, role Role) Role {
	role.ComponentPermissions = Merge(level.ComponentPermissions, role.ComponentPermissions)
	role.FeaturePermissions = Merge(level.FeaturePermissions, role.FeaturePermissions)
	return role
}
