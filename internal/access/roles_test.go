package access_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/helmsman-hr/helmsman/internal/access"
)

func newRoleFixture(t *testing.T) (*access.RoleService, *fakeLevelStore, *fakeRoleStore) {
	t.Helper()
	levels := newFakeLevelStore()
	roles := newFakeRoleStore()
	svc := access.NewRoleService(roles, levels, discardLogger())
	return svc, levels, roles
}

func TestRoleCreateMergesAgainstLevel(t *testing.T) {
	svc, levels, _ := newRoleFixture(t)
	ctx := context.Background()
	_, err := levels.Create(ctx, access.Level{
		Level:                4,
		Name:                 "Staff",
		Active:               true,
		ComponentPermissions: access.PermissionSet{grant("dashboard"), deny("admin")},
	})
	require.NoError(t, err)

	role, err := svc.Create(ctx, access.Role{
		RoleID:               "employee",
		DisplayName:          "Employee",
		HierarchyLevel:       4,
		ComponentPermissions: access.PermissionSet{grant("admin")},
	})
	require.NoError(t, err)

	require.Equal(t, "EMPLOYEE", role.RoleID)

	dash, ok := role.ComponentPermissions.Get("dashboard")
	require.True(t, ok)
	require.True(t, dash.InheritedFromLevel)

	admin, ok := role.ComponentPermissions.Get("admin")
	require.True(t, ok)
	require.True(t, admin.HasAccess)
	require.True(t, admin.RoleSpecific, "grant above the level default is an override")
}

func TestRoleCreateMissingLevelStoresAsIs(t *testing.T) {
	svc, _, _ := newRoleFixture(t)

	role, err := svc.Create(context.Background(), access.Role{
		RoleID:               "CONSULTANT",
		DisplayName:          "Consultant",
		HierarchyLevel:       7,
		ComponentPermissions: access.PermissionSet{grant("dashboard")},
	})
	require.NoError(t, err)

	require.Len(t, role.ComponentPermissions, 1)
	require.False(t, role.ComponentPermissions[0].RoleSpecific)
	require.False(t, role.ComponentPermissions[0].InheritedFromLevel)
}

func TestRoleCreateValidation(t *testing.T) {
	svc, _, _ := newRoleFixture(t)
	ctx := context.Background()

	var verr *access.ValidationError

	_, err := svc.Create(ctx, access.Role{RoleID: "  ", DisplayName: "X", HierarchyLevel: 1})
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "roleId", verr.Field)

	_, err = svc.Create(ctx, access.Role{RoleID: "X", DisplayName: " ", HierarchyLevel: 1})
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "displayName", verr.Field)

	_, err = svc.Create(ctx, access.Role{RoleID: "X", DisplayName: "X", HierarchyLevel: 11})
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "hierarchyLevel", verr.Field)
}

func TestRoleCreateDuplicate(t *testing.T) {
	svc, _, _ := newRoleFixture(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, access.Role{RoleID: "CLERK", DisplayName: "Clerk", HierarchyLevel: 4})
	require.NoError(t, err)

	_, err = svc.Create(ctx, access.Role{RoleID: "clerk", DisplayName: "Clerk", HierarchyLevel: 4})

	var dup *access.DuplicateRoleError
	require.ErrorAs(t, err, &dup)
	require.Equal(t, "CLERK", dup.RoleID)
}

func TestRoleUpdateHierarchyChangeResyncs(t *testing.T) {
	svc, levels, _ := newRoleFixture(t)
	ctx := context.Background()
	_, err := levels.Create(ctx, access.Level{
		Level:                4,
		Name:                 "Staff",
		ComponentPermissions: access.PermissionSet{grant("dashboard"), deny("admin")},
	})
	require.NoError(t, err)
	_, err = levels.Create(ctx, access.Level{
		Level:                2,
		Name:                 "Managers",
		ComponentPermissions: access.PermissionSet{grant("dashboard"), deny("admin"), grant("employees")},
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, access.Role{
		RoleID:               "SUPERVISOR",
		DisplayName:          "Supervisor",
		HierarchyLevel:       4,
		ComponentPermissions: access.PermissionSet{grant("admin")},
	})
	require.NoError(t, err)

	target := 2
	role, err := svc.Update(ctx, "SUPERVISOR", access.RoleUpdate{HierarchyLevel: &target})
	require.NoError(t, err)

	require.Equal(t, 2, role.HierarchyLevel)
	emp, ok := role.ComponentPermissions.Get("employees")
	require.True(t, ok, "new level's defaults must arrive with the move")
	require.True(t, emp.HasAccess)

	admin, ok := role.ComponentPermissions.Get("admin")
	require.True(t, ok)
	require.True(t, admin.HasAccess, "override must survive the level move")
	require.True(t, admin.RoleSpecific)
}

func TestRoleUpdateHierarchyChangeMissingLevelSkipsResync(t *testing.T) {
	svc, _, _ := newRoleFixture(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, access.Role{
		RoleID:               "SCOUT",
		DisplayName:          "Scout",
		HierarchyLevel:       4,
		ComponentPermissions: access.PermissionSet{grant("dashboard")},
	})
	require.NoError(t, err)

	target := 9
	role, err := svc.Update(ctx, "SCOUT", access.RoleUpdate{HierarchyLevel: &target})
	require.NoError(t, err)

	require.Equal(t, 9, role.HierarchyLevel)
	require.Len(t, role.ComponentPermissions, 1, "permissions untouched when the level is absent")
}

func TestOverridePermissionMarksRoleSpecific(t *testing.T) {
	svc, levels, _ := newRoleFixture(t)
	ctx := context.Background()
	_, err := levels.Create(ctx, access.Level{
		Level:                4,
		Name:                 "Staff",
		ComponentPermissions: access.PermissionSet{deny("admin")},
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, access.Role{RoleID: "EMPLOYEE", DisplayName: "Employee", HierarchyLevel: 4})
	require.NoError(t, err)

	role, err := svc.OverridePermission(ctx, "employee", access.KindComponent, "admin", true)
	require.NoError(t, err)

	admin, ok := role.ComponentPermissions.Get("admin")
	require.True(t, ok)
	require.True(t, admin.HasAccess)
	require.True(t, admin.RoleSpecific)
	require.False(t, admin.InheritedFromLevel)
}

func TestOverridePermissionAddsMissingEntry(t *testing.T) {
	svc, _, _ := newRoleFixture(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, access.Role{RoleID: "EMPLOYEE", DisplayName: "Employee", HierarchyLevel: 4})
	require.NoError(t, err)

	role, err := svc.OverridePermission(ctx, "EMPLOYEE", access.KindFeature, "leave.approve", true)
	require.NoError(t, err)

	entry, ok := role.FeaturePermissions.Get("leave.approve")
	require.True(t, ok)
	require.True(t, entry.HasAccess)
	require.True(t, entry.RoleSpecific)
}

func TestOverridePermissionValidation(t *testing.T) {
	svc, _, _ := newRoleFixture(t)
	ctx := context.Background()

	var verr *access.ValidationError

	_, err := svc.OverridePermission(ctx, "EMPLOYEE", access.PermissionKind("widget"), "admin", true)
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "type", verr.Field)

	_, err = svc.OverridePermission(ctx, "EMPLOYEE", access.KindComponent, "", true)
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "capabilityId", verr.Field)
}

func TestEffectivePermissionsGrantedOnly(t *testing.T) {
	svc, _, _ := newRoleFixture(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, access.Role{
		RoleID:               "EMPLOYEE",
		DisplayName:          "Employee",
		HierarchyLevel:       4,
		ComponentPermissions: access.PermissionSet{grant("dashboard"), deny("admin")},
		FeaturePermissions:   access.PermissionSet{grant("leave.apply"), deny("leave.approve")},
	})
	require.NoError(t, err)

	effective, err := svc.EffectivePermissions(ctx, "employee")
	require.NoError(t, err)

	require.Len(t, effective.ComponentPermissions, 1)
	require.Equal(t, "dashboard", effective.ComponentPermissions[0].CapabilityID)
	require.Len(t, effective.FeaturePermissions, 1)
	require.Equal(t, "leave.apply", effective.FeaturePermissions[0].CapabilityID)
}

func TestRoleDeleteProtectsSystemRole(t *testing.T) {
	svc, _, roles := newRoleFixture(t)
	ctx := context.Background()
	_, err := roles.Create(ctx, access.Role{RoleID: "ADMIN", DisplayName: "Admin", HierarchyLevel: 0, IsSystemRole: true})
	require.NoError(t, err)

	err = svc.Delete(ctx, "admin")

	var sys *access.SystemRoleError
	require.ErrorAs(t, err, &sys)
	require.Equal(t, "ADMIN", sys.RoleID)
}

func TestRoleDeleteSoftDeletes(t *testing.T) {
	svc, _, _ := newRoleFixture(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, access.Role{RoleID: "TEMP", DisplayName: "Temp", HierarchyLevel: 4})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "TEMP"))

	_, err = svc.Get(ctx, "TEMP")
	require.ErrorIs(t, err, access.ErrRoleNotFound)
}
