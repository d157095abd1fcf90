package access_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/helmsman-hr/helmsman/internal/access"
)

type captureObserver struct {
	updated int
	failed  int
	calls   int
}

func (o *captureObserver) ObserveCascade(updated, failed int) {
	o.updated += updated
	o.failed += failed
	o.calls++
}

func seedCascadeFixture(t *testing.T) (*fakeLevelStore, *fakeRoleStore, access.Level) {
	t.Helper()
	ctx := context.Background()
	levels := newFakeLevelStore()
	roles := newFakeRoleStore()

	level, err := levels.Create(ctx, access.Level{
		Level:                5,
		Name:                 "Contractors",
		CascadeEnabled:       true,
		ComponentPermissions: access.PermissionSet{grant("dashboard"), deny("admin")},
		FeaturePermissions:   access.PermissionSet{grant("leave.apply")},
	})
	require.NoError(t, err)

	// Plain role, fully inherited.
	_, err = roles.Create(ctx, access.Role{
		RoleID:               "CONTRACTOR",
		DisplayName:          "Contractor",
		HierarchyLevel:       5,
		ComponentPermissions: access.Merge(level.ComponentPermissions, nil),
		FeaturePermissions:   access.Merge(level.FeaturePermissions, nil),
	})
	require.NoError(t, err)

	// Role carrying an explicit admin grant on top of the defaults.
	_, err = roles.Create(ctx, access.Role{
		RoleID:         "CONTRACT_LEAD",
		DisplayName:    "Contract Lead",
		HierarchyLevel: 5,
		ComponentPermissions: access.Merge(level.ComponentPermissions,
			access.PermissionSet{grant("admin")}),
		FeaturePermissions: access.Merge(level.FeaturePermissions, nil),
	})
	require.NoError(t, err)

	return levels, roles, level
}

func TestCascadePropagatesLevelDefaults(t *testing.T) {
	ctx := context.Background()
	_, roles, level := seedCascadeFixture(t)

	level.ComponentPermissions = access.PermissionSet{
		grant("dashboard"), deny("admin"), grant("calendar"),
	}
	cascader := access.NewCascader(roles, discardLogger(), nil)
	result := cascader.Run(ctx, level)

	require.Equal(t, 2, result.Updated)
	require.Equal(t, 0, result.Failed)

	contractor, err := roles.Get(ctx, "CONTRACTOR")
	require.NoError(t, err)
	cal, ok := contractor.ComponentPermissions.Get("calendar")
	require.True(t, ok)
	require.True(t, cal.HasAccess)
	require.True(t, cal.InheritedFromLevel)
}

func TestCascadePreservesRoleOverrides(t *testing.T) {
	ctx := context.Background()
	_, roles, level := seedCascadeFixture(t)

	level.FeaturePermissions = access.PermissionSet{grant("leave.apply"), grant("attendance.mark")}
	cascader := access.NewCascader(roles, discardLogger(), nil)
	cascader.Run(ctx, level)

	lead, err := roles.Get(ctx, "CONTRACT_LEAD")
	require.NoError(t, err)
	admin, ok := lead.ComponentPermissions.Get("admin")
	require.True(t, ok)
	require.True(t, admin.HasAccess, "override must survive the cascade")
	require.True(t, admin.RoleSpecific)
}

func TestCascadeInheritedEntriesCannotPoseAsOverrides(t *testing.T) {
	ctx := context.Background()
	_, roles, level := seedCascadeFixture(t)

	// Flip a default the plain role only held by inheritance. The stale
	// inherited value must not survive as a fake override.
	level.ComponentPermissions = access.PermissionSet{deny("dashboard"), deny("admin")}
	cascader := access.NewCascader(roles, discardLogger(), nil)
	cascader.Run(ctx, level)

	contractor, err := roles.Get(ctx, "CONTRACTOR")
	require.NoError(t, err)
	dash, ok := contractor.ComponentPermissions.Get("dashboard")
	require.True(t, ok)
	require.False(t, dash.HasAccess)
	require.True(t, dash.InheritedFromLevel)
}

func TestCascadeBestEffortCountsFailures(t *testing.T) {
	ctx := context.Background()
	_, roles, level := seedCascadeFixture(t)
	roles.permErr["CONTRACTOR"] = errors.New("connection reset")

	observer := &captureObserver{}
	cascader := access.NewCascader(roles, discardLogger(), observer)
	result := cascader.Run(ctx, level)

	require.Equal(t, 1, result.Updated)
	require.Equal(t, 1, result.Failed)
	require.Equal(t, 1, observer.calls)
	require.Equal(t, 1, observer.updated)
	require.Equal(t, 1, observer.failed)

	// The failure on one role must not block the other.
	lead, err := roles.Get(ctx, "CONTRACT_LEAD")
	require.NoError(t, err)
	require.NotEmpty(t, lead.ComponentPermissions)
}

// staleListRoleStore runs afterList once between the cascade's role
// listing and its writes, modeling a concurrent mutation landing in
// that window.
type staleListRoleStore struct {
	*fakeRoleStore
	afterList func()
}

func (s *staleListRoleStore) ListByLevel(ctx context.Context, level int) ([]access.Role, error) {
	out, err := s.fakeRoleStore.ListByLevel(ctx, level)
	if s.afterList != nil {
		hook := s.afterList
		s.afterList = nil
		hook()
	}
	return out, err
}

// A role reassigned to another level while a cascade from its old level
// is mid-flight ends up with the old level's defaults: there is no
// cross-record locking and the last write wins. The next cascade from
// the new level converges the role.
func TestCascadeOverlappingReassignmentLastWriteWins(t *testing.T) {
	ctx := context.Background()
	levels, base, level := seedCascadeFixture(t)

	upper, err := levels.Create(ctx, access.Level{
		Level:                6,
		Name:                 "Leads",
		CascadeEnabled:       true,
		ComponentPermissions: access.PermissionSet{grant("dashboard"), grant("admin")},
		FeaturePermissions:   access.PermissionSet{grant("leave.apply"), grant("leave.approve")},
	})
	require.NoError(t, err)

	roleSvc := access.NewRoleService(base, levels, discardLogger())
	store := &staleListRoleStore{fakeRoleStore: base}
	store.afterList = func() {
		six := 6
		_, err := roleSvc.Update(ctx, "CONTRACTOR", access.RoleUpdate{HierarchyLevel: &six})
		require.NoError(t, err)
	}

	level.FeaturePermissions = access.PermissionSet{grant("leave.apply"), grant("attendance.mark")}
	cascader := access.NewCascader(store, discardLogger(), nil)
	result := cascader.Run(ctx, level)
	require.Equal(t, 2, result.Updated)

	contractor, err := base.Get(ctx, "CONTRACTOR")
	require.NoError(t, err)
	require.Equal(t, 6, contractor.HierarchyLevel)

	// The stale cascade won: the role carries level 5 defaults.
	_, hasApprove := contractor.FeaturePermissions.Get("leave.approve")
	require.False(t, hasApprove)
	mark, ok := contractor.FeaturePermissions.Get("attendance.mark")
	require.True(t, ok)
	require.True(t, mark.HasAccess)

	// A cascade from the role's actual level converges it.
	access.NewCascader(base, discardLogger(), nil).Run(ctx, upper)
	contractor, err = base.Get(ctx, "CONTRACTOR")
	require.NoError(t, err)
	approve, ok := contractor.FeaturePermissions.Get("leave.approve")
	require.True(t, ok)
	require.True(t, approve.HasAccess)
	_, hasMark := contractor.FeaturePermissions.Get("attendance.mark")
	require.False(t, hasMark)
}

func TestCascadeNoRolesAtLevel(t *testing.T) {
	ctx := context.Background()
	roles := newFakeRoleStore()
	cascader := access.NewCascader(roles, discardLogger(), nil)

	result := cascader.Run(ctx, access.Level{Level: 9})

	require.Zero(t, result.Updated)
	require.Zero(t, result.Failed)
}
