package access

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

// PGLevelStore implements LevelStore using PostgreSQL.
type PGLevelStore struct {
	pool *pgxpool.Pool
}

// NewLevelStore constructs a PostgreSQL level store.
func NewLevelStore(pool *pgxpool.Pool) *PGLevelStore {
	return &PGLevelStore{pool: pool}
}

var _ LevelStore = (*PGLevelStore)(nil)

const levelColumns = `level, name, description, component_permissions, feature_permissions, cascade_enabled, is_system_level, active, created_at, updated_at`

// Create inserts a level; an active duplicate level number yields
// DuplicateLevelError.
func (s *PGLevelStore) Create(ctx context.Context, level Level) (Level, error) {
	comps, feats, err := marshalSets(level.ComponentPermissions, level.FeaturePermissions)
	if err != nil {
		return Level{}, err
	}
	now := time.Now().UTC()
	row := s.pool.QueryRow(ctx, `
		INSERT INTO access_levels (level, name, description, component_permissions, feature_permissions, cascade_enabled, is_system_level, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8, $8)
		RETURNING `+levelColumns,
		level.Level, level.Name, level.Description, comps, feats, level.CascadeEnabled, level.IsSystemLevel, now)
	created, err := scanLevel(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return Level{}, &DuplicateLevelError{Level: level.Level}
		}
		return Level{}, err
	}
	return created, nil
}

// Get fetches an active level by number.
func (s *PGLevelStore) Get(ctx context.Context, level int) (Level, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+levelColumns+` FROM access_levels WHERE level = $1 AND active`, level)
	found, err := scanLevel(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Level{}, ErrLevelNotFound
		}
		return Level{}, err
	}
	return found, nil
}

// List returns all active levels sorted by level ascending.
func (s *PGLevelStore) List(ctx context.Context) ([]Level, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+levelColumns+` FROM access_levels WHERE active ORDER BY level`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var levels []Level
	for rows.Next() {
		level, err := scanLevel(rows)
		if err != nil {
			return nil, err
		}
		levels = append(levels, level)
	}
	return levels, rows.Err()
}

// Update persists the full level record.
func (s *PGLevelStore) Update(ctx context.Context, level Level) (Level, error) {
	comps, feats, err := marshalSets(level.ComponentPermissions, level.FeaturePermissions)
	if err != nil {
		return Level{}, err
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE access_levels
		SET name = $2, description = $3, component_permissions = $4, feature_permissions = $5, cascade_enabled = $6, updated_at = NOW()
		WHERE level = $1 AND active
		RETURNING `+levelColumns,
		level.Level, level.Name, level.Description, comps, feats, level.CascadeEnabled)
	updated, err := scanLevel(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Level{}, ErrLevelNotFound
		}
		return Level{}, err
	}
	return updated, nil
}

// Deactivate soft-deletes a level.
func (s *PGLevelStore) Deactivate(ctx context.Context, level int) error {
	tag, err := s.pool.Exec(ctx, `UPDATE access_levels SET active = FALSE, updated_at = NOW() WHERE level = $1 AND active`, level)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLevelNotFound
	}
	return nil
}

// PGRoleStore implements RoleStore using PostgreSQL.
type PGRoleStore struct {
	pool *pgxpool.Pool
}

// NewRoleStore constructs a PostgreSQL role store.
func NewRoleStore(pool *pgxpool.Pool) *PGRoleStore {
	return &PGRoleStore{pool: pool}
}

var _ RoleStore = (*PGRoleStore)(nil)

const roleColumns = `role_id, display_name, description, hierarchy_level, component_permissions, feature_permissions, is_system_role, active, created_at, updated_at`

// Create inserts a role; a duplicate role id yields DuplicateRoleError.
func (s *PGRoleStore) Create(ctx context.Context, role Role) (Role, error) {
	comps, feats, err := marshalSets(role.ComponentPermissions, role.FeaturePermissions)
	if err != nil {
		return Role{}, err
	}
	now := time.Now().UTC()
	row := s.pool.QueryRow(ctx, `
		INSERT INTO access_roles (role_id, display_name, description, hierarchy_level, component_permissions, feature_permissions, is_system_role, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8, $8)
		RETURNING `+roleColumns,
		role.RoleID, role.DisplayName, role.Description, role.HierarchyLevel, comps, feats, role.IsSystemRole, now)
	created, err := scanRole(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return Role{}, &DuplicateRoleError{RoleID: role.RoleID}
		}
		return Role{}, err
	}
	return created, nil
}

// Get fetches an active role by id.
func (s *PGRoleStore) Get(ctx context.Context, roleID string) (Role, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM access_roles WHERE role_id = $1 AND active`, roleID)
	found, err := scanRole(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, ErrRoleNotFound
		}
		return Role{}, err
	}
	return found, nil
}

// List returns all active roles ordered by role id.
func (s *PGRoleStore) List(ctx context.Context) ([]Role, error) {
	return s.queryRoles(ctx, `SELECT `+roleColumns+` FROM access_roles WHERE active ORDER BY role_id`)
}

// ListByLevel returns active roles at the given hierarchy level.
func (s *PGRoleStore) ListByLevel(ctx context.Context, level int) ([]Role, error) {
	return s.queryRoles(ctx, `SELECT `+roleColumns+` FROM access_roles WHERE hierarchy_level = $1 AND active ORDER BY role_id`, level)
}

// CountByLevel counts active roles referencing the level.
func (s *PGRoleStore) CountByLevel(ctx context.Context, level int) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM access_roles WHERE hierarchy_level = $1 AND active`, level).Scan(&count)
	return count, err
}

// Update persists the full role record.
func (s *PGRoleStore) Update(ctx context.Context, role Role) (Role, error) {
	comps, feats, err := marshalSets(role.ComponentPermissions, role.FeaturePermissions)
	if err != nil {
		return Role{}, err
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE access_roles
		SET display_name = $2, description = $3, hierarchy_level = $4, component_permissions = $5, feature_permissions = $6, updated_at = NOW()
		WHERE role_id = $1 AND active
		RETURNING `+roleColumns,
		role.RoleID, role.DisplayName, role.Description, role.HierarchyLevel, comps, feats)
	updated, err := scanRole(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, ErrRoleNotFound
		}
		return Role{}, err
	}
	return updated, nil
}

// UpdatePermissions writes only the permission columns.
func (s *PGRoleStore) UpdatePermissions(ctx context.Context, roleID string, components, features PermissionSet) error {
	comps, feats, err := marshalSets(components, features)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE access_roles SET component_permissions = $2, feature_permissions = $3, updated_at = NOW()
		WHERE role_id = $1 AND active`, roleID, comps, feats)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRoleNotFound
	}
	return nil
}

// Deactivate soft-deletes a role.
func (s *PGRoleStore) Deactivate(ctx context.Context, roleID string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE access_roles SET active = FALSE, updated_at = NOW() WHERE role_id = $1 AND active`, roleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRoleNotFound
	}
	return nil
}

func (s *PGRoleStore) queryRoles(ctx context.Context, sql string, args ...any) ([]Role, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func marshalSets(components, features PermissionSet) ([]byte, []byte, error) {
	if components == nil {
		components = PermissionSet{}
	}
	if features == nil {
		features = PermissionSet{}
	}
	comps, err := json.Marshal(components)
	if err != nil {
		return nil, nil, err
	}
	feats, err := json.Marshal(features)
	if err != nil {
		return nil, nil, err
	}
	return comps, feats, nil
}

func scanLevel(row pgx.Row) (Level, error) {
	var (
		level        Level
		comps, feats []byte
	)
	if err := row.Scan(&level.Level, &level.Name, &level.Description, &comps, &feats,
		&level.CascadeEnabled, &level.IsSystemLevel, &level.Active, &level.CreatedAt, &level.UpdatedAt); err != nil {
		return Level{}, err
	}
	if err := json.Unmarshal(comps, &level.ComponentPermissions); err != nil {
		return Level{}, err
	}
	if err := json.Unmarshal(feats, &level.FeaturePermissions); err != nil {
		return Level{}, err
	}
	return level, nil
}

func scanRole(row pgx.Row) (Role, error) {
	var (
		role         Role
		comps, feats []byte
	)
	if err := row.Scan(&role.RoleID, &role.DisplayName, &role.Description, &role.HierarchyLevel, &comps, &feats,
		&role.IsSystemRole, &role.Active, &role.CreatedAt, &role.UpdatedAt); err != nil {
		return Role{}, err
	}
	if err := json.Unmarshal(comps, &role.ComponentPermissions); err != nil {
		return Role{}, err
	}
	if err := json.Unmarshal(feats, &role.FeaturePermissions); err != nil {
		return Role{}, err
	}
	return role, nil
}
