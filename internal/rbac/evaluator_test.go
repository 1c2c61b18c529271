package rbac

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHasPermissionExactMatchOnly(t *testing.T) {
	granted := []string{"files.read", "hr.read"}

	require.True(t, HasPermission(granted, "files.read"))
	require.False(t, HasPermission(granted, "files.delete"))
	require.False(t, HasPermission(granted, "files"), "no prefix matching")
	require.False(t, HasPermission(nil, "files.read"))
	require.False(t, HasPermission([]string{}, ""))
}

func TestHasPermissionWildcardGrantsEverything(t *testing.T) {
	granted := []string{Wildcard}

	require.True(t, HasPermission(granted, "files.read"))
	require.True(t, HasPermission(granted, "anything.at.all"))
}

func TestCanPerformActionEmployee(t *testing.T) {
	r := NewRegistry()
	roles := []string{"employee"}

	require.True(t, r.CanPerformAction(roles, "hr", ActionRead))
	require.True(t, r.CanPerformAction(roles, "files", ActionCreate))
	require.False(t, r.CanPerformAction(roles, "hr", ActionDelete))
	require.False(t, r.CanPerformAction(roles, "gst", ActionRead))
}

func TestAdminActionSubsumesCRUD(t *testing.T) {
	r := NewRegistry()
	roles := []string{"manager"}

	// Manager holds crm admin, so every crm action passes.
	for _, action := range []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionAdmin} {
		require.True(t, r.CanPerformAction(roles, "crm", action), "crm %s", action)
	}
	// On erp the manager has only read and update.
	require.True(t, r.CanPerformAction(roles, "erp", ActionRead))
	require.False(t, r.CanPerformAction(roles, "erp", ActionDelete))
}

func TestWildcardResourceMatchesAnyResource(t *testing.T) {
	r := NewRegistry()
	roles := []string{"superAdmin"}

	require.True(t, r.CanPerformAction(roles, "crm", ActionDelete))
	require.True(t, r.CanPerformAction(roles, "made-up-resource", ActionAdmin))
	require.True(t, r.CanAccessModule(roles, "made-up-module"))
}

func TestUnknownRolesAndInputsDeny(t *testing.T) {
	r := NewRegistry()

	require.False(t, r.CanPerformAction(nil, "crm", ActionRead))
	require.False(t, r.CanPerformAction([]string{"ghost"}, "crm", ActionRead))
	require.False(t, r.CanPerformAction([]string{"employee"}, "", ActionRead))
	require.False(t, r.CanAccessModule(nil, ModuleCRM))
	require.False(t, r.CanAccessModule([]string{"ghost"}, ModuleCRM))
}

func TestMultiRoleEvaluationIsDisjunctive(t *testing.T) {
	r := NewRegistry()

	// Neither role alone grants both; together they do.
	require.False(t, r.CanPerformAction([]string{"viewer"}, "hr", ActionRead))
	require.False(t, r.CanPerformAction([]string{"employee"}, "reports", ActionRead))

	both := []string{"viewer", "employee"}
	require.True(t, r.CanPerformAction(both, "hr", ActionRead))
	require.True(t, r.CanPerformAction(both, "reports", ActionRead))

	// A ghost role in the list neither grants nor revokes anything.
	require.True(t, r.CanPerformAction([]string{"ghost", "employee"}, "hr", ActionRead))
}

func TestModuleAccessPerRole(t *testing.T) {
	r := NewRegistry()

	require.True(t, r.CanAccessModule([]string{"manager"}, ModuleBI))
	require.False(t, r.CanAccessModule([]string{"manager"}, ModuleSettings))
	require.True(t, r.CanAccessModule([]string{"employee"}, ModuleFiles))
	require.False(t, r.CanAccessModule([]string{"viewer"}, ModuleHRMS))
	require.True(t, r.CanAccessModule([]string{"admin"}, ModuleSettings), "module wildcard")
}

func TestMaterializedPermissions(t *testing.T) {
	r := NewRegistry()

	require.Equal(t, []string{"files.create", "files.read", "hr.read"},
		r.MaterializedPermissions([]string{"employee"}))

	// Overlapping roles deduplicate; output stays sorted.
	got := r.MaterializedPermissions([]string{"employee", "viewer"})
	require.Equal(t, []string{"files.create", "files.read", "hr.read", "reports.read"}, got)

	// The wildcard resource collapses everything to the super-grant.
	require.Equal(t, []string{Wildcard}, r.MaterializedPermissions([]string{"employee", "superAdmin"}))

	require.Empty(t, r.MaterializedPermissions([]string{"ghost"}))
	require.Empty(t, r.MaterializedPermissions(nil))
}
