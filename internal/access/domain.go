// Package access implements the level-based access control engine:
// hierarchy levels define default component/feature permissions, roles
// inherit those defaults, and level edits cascade to every role at the
// level while preserving role-specific overrides.
package access

import (
	"fmt"
	"time"
)

// PermissionKind distinguishes the two capability namespaces.
type PermissionKind string

const (
	// KindComponent covers whole screens/sections of the application.
	KindComponent PermissionKind = "component"
	// KindFeature covers fine-grained actions within a component.
	KindFeature PermissionKind = "feature"
)

// Valid reports whether the kind is one of the two known namespaces.
func (k PermissionKind) Valid() bool {
	return k == KindComponent || k == KindFeature
}

// PermissionEntry is a single capability grant with provenance. For
// entries produced by the merge engine exactly one of RoleSpecific and
// InheritedFromLevel is true; both false marks a transitional entry
// that has neither a level default nor an override flag.
type PermissionEntry struct {
	CapabilityID       string `json:"capabilityId"`
	DisplayName        string `json:"displayName"`
	HasAccess          bool   `json:"hasAccess"`
	RoleSpecific       bool   `json:"roleSpecific"`
	InheritedFromLevel bool   `json:"inheritedFromLevel"`
}

// PermissionSet is an ordered list of entries, unique by capability id.
type PermissionSet []PermissionEntry

// Get returns the entry for the capability id, if present.
func (s PermissionSet) Get(capabilityID string) (PermissionEntry, bool) {
	for _, e := range s {
		if e.CapabilityID == capabilityID {
			return e, true
		}
	}
	return PermissionEntry{}, false
}

// Overrides returns only the role-specific entries. Cascade-triggered
// merges pass this filtered view as the role side so that previously
// inherited values cannot masquerade as overrides.
func (s PermissionSet) Overrides() PermissionSet {
	var out PermissionSet
	for _, e := range s {
		if e.RoleSpecific {
			out = append(out, e)
		}
	}
	return out
}

// Granted returns only the entries with access granted.
func (s PermissionSet) Granted() PermissionSet {
	var out PermissionSet
	for _, e := range s {
		if e.HasAccess {
			out = append(out, e)
		}
	}
	return out
}

// Clone returns a copy safe to mutate.
func (s PermissionSet) Clone() PermissionSet {
	if s == nil {
		return nil
	}
	out := make(PermissionSet, len(s))
	copy(out, s)
	return out
}

// Level bounds for hierarchy levels; 0 is the highest authority.
const (
	MinLevel = 0
	MaxLevel = 10
)

// Level is one hierarchy tier holding the default permission sets
// inherited by every role assigned to it.
type Level struct {
	Level                int           `json:"level"`
	Name                 string        `json:"name"`
	Description          string        `json:"description"`
	ComponentPermissions PermissionSet `json:"componentPermissions"`
	FeaturePermissions   PermissionSet `json:"featurePermissions"`
	CascadeEnabled       bool          `json:"cascadeEnabled"`
	IsSystemLevel        bool          `json:"isSystemLevel"`
	Active               bool          `json:"active"`
	CreatedAt            time.Time     `json:"createdAt"`
	UpdatedAt            time.Time     `json:"updatedAt"`
}

// Role is a named permission profile. Its permission sets are always a
// merge result against its level, never hand-authored wholesale except
// at creation/import time.
type Role struct {
	RoleID               string        `json:"roleId"`
	DisplayName          string        `json:"displayName"`
	Description          string        `json:"description"`
	HierarchyLevel       int           `json:"hierarchyLevel"`
	ComponentPermissions PermissionSet `json:"componentPermissions"`
	FeaturePermissions   PermissionSet `json:"featurePermissions"`
	IsSystemRole         bool          `json:"isSystemRole"`
	Active               bool          `json:"active"`
	CreatedAt            time.Time     `json:"createdAt"`
	UpdatedAt            time.Time     `json:"updatedAt"`
}

// RoleRef is a lightweight reference used in affected-roles listings.
type RoleRef struct {
	RoleID         string `json:"roleId"`
	DisplayName    string `json:"displayName"`
	HierarchyLevel int    `json:"hierarchyLevel"`
}

// Effective holds the granted-only view of a role's permissions,
// consumed by the decision service and returned at login.
type Effective struct {
	ComponentPermissions PermissionSet `json:"componentPermissions"`
	FeaturePermissions   PermissionSet `json:"featurePermissions"`
}

// CascadeResult reports the outcome of one cascade run.
type CascadeResult struct {
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// DuplicateLevelError signals a create against an already active level
// number.
type DuplicateLevelError struct {
	Level int
}

func (e *DuplicateLevelError) Error() string {
	return fmt.Sprintf("access: level %d already exists", e.Level)
}

// DuplicateRoleError signals a create against an existing role id.
type DuplicateRoleError struct {
	RoleID string
}

func (e *DuplicateRoleError) Error() string {
	return fmt.Sprintf("access: role %s already exists", e.RoleID)
}

// SystemLevelError signals a delete or level-number change attempted on
// a system level.
type SystemLevelError struct {
	Level int
}

func (e *SystemLevelError) Error() string {
	return fmt.Sprintf("access: level %d is a system level", e.Level)
}

// SystemRoleError signals a delete attempted on a system role.
type SystemRoleError struct {
	RoleID string
}

func (e *SystemRoleError) Error() string {
	return fmt.Sprintf("access: role %s is a system role", e.RoleID)
}

// LevelInUseError signals a delete of a level still referenced by
// active roles; Roles carries the exact blocking count.
type LevelInUseError struct {
	Level int
	Roles int
}

func (e *LevelInUseError) Error() string {
	return fmt.Sprintf("access: level %d is referenced by %d active role(s)", e.Level, e.Roles)
}

// ValidationError reports a structurally invalid input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("access: invalid %s: %s", e.Field, e.Reason)
}
