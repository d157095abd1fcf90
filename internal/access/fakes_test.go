package access_test

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/helmsman-hr/helmsman/internal/access"
	_ "github.com/helmsman-hr/helmsman/testing"
)

// fakeLevelStore is an in-memory LevelStore mirroring the Postgres
// store's visibility rules: Get and List see active records only.
type fakeLevelStore struct {
	mu     sync.Mutex
	levels map[int]access.Level
	getErr error
}

func newFakeLevelStore() *fakeLevelStore {
	return &fakeLevelStore{levels: make(map[int]access.Level)}
}

func (s *fakeLevelStore) Create(_ context.Context, level access.Level) (access.Level, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.levels[level.Level]; ok && existing.Active {
		return access.Level{}, &access.DuplicateLevelError{Level: level.Level}
	}
	level.Active = true
	level.CreatedAt = time.Now()
	level.UpdatedAt = level.CreatedAt
	s.levels[level.Level] = cloneLevel(level)
	return cloneLevel(level), nil
}

func (s *fakeLevelStore) Get(_ context.Context, level int) (access.Level, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return access.Level{}, s.getErr
	}
	existing, ok := s.levels[level]
	if !ok || !existing.Active {
		return access.Level{}, access.ErrLevelNotFound
	}
	return cloneLevel(existing), nil
}

func (s *fakeLevelStore) List(_ context.Context) ([]access.Level, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	out := make([]access.Level, 0, len(s.levels))
	for _, level := range s.levels {
		if level.Active {
			out = append(out, cloneLevel(level))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out, nil
}

func (s *fakeLevelStore) Update(_ context.Context, level access.Level) (access.Level, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.levels[level.Level]
	if !ok || !existing.Active {
		return access.Level{}, access.ErrLevelNotFound
	}
	level.Active = true
	level.CreatedAt = existing.CreatedAt
	level.UpdatedAt = time.Now()
	s.levels[level.Level] = cloneLevel(level)
	return cloneLevel(level), nil
}

func (s *fakeLevelStore) Deactivate(_ context.Context, level int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.levels[level]
	if !ok || !existing.Active {
		return access.ErrLevelNotFound
	}
	existing.Active = false
	s.levels[level] = existing
	return nil
}

// fakeRoleStore is an in-memory RoleStore. permErr injects per-role
// failures into UpdatePermissions for cascade tests.
type fakeRoleStore struct {
	mu      sync.Mutex
	roles   map[string]access.Role
	getErr  error
	permErr map[string]error
}

func newFakeRoleStore() *fakeRoleStore {
	return &fakeRoleStore{
		roles:   make(map[string]access.Role),
		permErr: make(map[string]error),
	}
}

func (s *fakeRoleStore) Create(_ context.Context, role access.Role) (access.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.roles[role.RoleID]; ok && existing.Active {
		return access.Role{}, &access.DuplicateRoleError{RoleID: role.RoleID}
	}
	role.Active = true
	role.CreatedAt = time.Now()
	role.UpdatedAt = role.CreatedAt
	s.roles[role.RoleID] = cloneRole(role)
	return cloneRole(role), nil
}

func (s *fakeRoleStore) Get(_ context.Context, roleID string) (access.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return access.Role{}, s.getErr
	}
	existing, ok := s.roles[roleID]
	if !ok || !existing.Active {
		return access.Role{}, access.ErrRoleNotFound
	}
	return cloneRole(existing), nil
}

func (s *fakeRoleStore) List(_ context.Context) ([]access.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]access.Role, 0, len(s.roles))
	for _, role := range s.roles {
		if role.Active {
			out = append(out, cloneRole(role))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoleID < out[j].RoleID })
	return out, nil
}

func (s *fakeRoleStore) ListByLevel(_ context.Context, level int) ([]access.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]access.Role, 0)
	for _, role := range s.roles {
		if role.Active && role.HierarchyLevel == level {
			out = append(out, cloneRole(role))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoleID < out[j].RoleID })
	return out, nil
}

func (s *fakeRoleStore) CountByLevel(_ context.Context, level int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, role := range s.roles {
		if role.Active && role.HierarchyLevel == level {
			count++
		}
	}
	return count, nil
}

func (s *fakeRoleStore) Update(_ context.Context, role access.Role) (access.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.roles[role.RoleID]
	if !ok || !existing.Active {
		return access.Role{}, access.ErrRoleNotFound
	}
	role.Active = true
	role.CreatedAt = existing.CreatedAt
	role.UpdatedAt = time.Now()
	s.roles[role.RoleID] = cloneRole(role)
	return cloneRole(role), nil
}

func (s *fakeRoleStore) UpdatePermissions(_ context.Context, roleID string, components, features access.PermissionSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.permErr[roleID]; err != nil {
		return err
	}
	existing, ok := s.roles[roleID]
	if !ok || !existing.Active {
		return access.ErrRoleNotFound
	}
	existing.ComponentPermissions = components.Clone()
	existing.FeaturePermissions = features.Clone()
	existing.UpdatedAt = time.Now()
	s.roles[roleID] = existing
	return nil
}

func (s *fakeRoleStore) Deactivate(_ context.Context, roleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.roles[roleID]
	if !ok || !existing.Active {
		return access.ErrRoleNotFound
	}
	existing.Active = false
	s.roles[roleID] = existing
	return nil
}

func cloneLevel(l access.Level) access.Level {
	l.ComponentPermissions = l.ComponentPermissions.Clone()
	l.FeaturePermissions = l.FeaturePermissions.Clone()
	return l
}

func cloneRole(r access.Role) access.Role {
	r.ComponentPermissions = r.ComponentPermissions.Clone()
	r.FeaturePermissions = r.FeaturePermissions.Clone()
	return r
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func grant(id string) access.PermissionEntry {
	return access.PermissionEntry{CapabilityID: id, DisplayName: id, HasAccess: true}
}

func deny(id string) access.PermissionEntry {
	return access.PermissionEntry{CapabilityID: id, DisplayName: id, HasAccess: false}
}
