package access

import (
	"context"
	"errors"
)

// Lookup failures surfaced by the stores.
var (
	ErrLevelNotFound = errors.New("access: level not found")
	ErrRoleNotFound  = errors.New("access: role not found")
)

// LevelStore persists hierarchy levels, keyed by level number. Only
// active records are visible through Get/List.
type LevelStore interface {
	Create(ctx context.Context, level Level) (Level, error)
	Get(ctx context.Context, level int) (Level, error)
	List(ctx context.Context) ([]Level, error)
	Update(ctx context.Context, level Level) (Level, error)
	Deactivate(ctx context.Context, level int) error
}

// RoleStore persists roles, keyed by role id. UpdatePermissions writes
// only the permission columns; cascade writes go through it so they can
// never re-enter the hierarchy-level resync path.
type RoleStore interface {
	Create(ctx context.Context, role Role) (Role, error)
	Get(ctx context.Context, roleID string) (Role, error)
	List(ctx context.Context) ([]Role, error)
	ListByLevel(ctx context.Context, level int) ([]Role, error)
	CountByLevel(ctx context.Context, level int) (int, error)
	Update(ctx context.Context, role Role) (Role, error)
	UpdatePermissions(ctx context.Context, roleID string, components, features PermissionSet) error
	Deactivate(ctx context.Context, roleID string) error
}
