package srv

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tablehub/tablehub/pkg/types"
)

func TestAdminOverridesEverything(t *testing.T) {
	rbac := SetupRBACSrv()
	admin := &types.User{ID: "1", IsAdmin: true}

	assert.True(t, rbac.CanView(admin, "anything"))
	assert.True(t, rbac.CanEdit(admin, "anything"))
	assert.True(t, rbac.CanUpdate(admin, "anything"))
	assert.True(t, rbac.CanCreateTables(admin))
}

func TestViewRequiresTableAccess(t *testing.T) {
	rbac := SetupRBACSrv()
	user := &types.User{
		ID:               "2",
		Capabilities:     types.NewStringSet(types.CapabilityView),
		AccessibleTables: types.NewStringSet("employees"),
		OwnedTables:      types.NewStringSet("projects"),
	}

	assert.True(t, rbac.CanView(user, "employees"))
	assert.True(t, rbac.CanView(user, "projects"))
	assert.False(t, rbac.CanView(user, "salaries"))
	assert.Equal(t, []string{"employees", "projects"}, rbac.AccessibleTables(user).Slice())
}

func TestEditNeedsCapabilityAndAccess(t *testing.T) {
	rbac := SetupRBACSrv()
	viewer := &types.User{Capabilities: types.NewStringSet(types.CapabilityView), AccessibleTables: types.NewStringSet("employees")}
	editor := &types.User{Capabilities: types.NewStringSet(types.CapabilityView, types.CapabilityEdit), AccessibleTables: types.NewStringSet("projects")}

	assert.False(t, rbac.CanEdit(viewer, "employees"))
	assert.True(t, rbac.CanEdit(editor, "projects"))
	assert.False(t, rbac.CanEdit(editor, "employees"))
	assert.False(t, rbac.CanUpdate(editor, "projects"))
	assert.False(t, rbac.CanCreateTables(editor))
}

func TestUnownedTableIsAdminOnly(t *testing.T) {
	rbac := SetupRBACSrv()
	all := &types.User{Capabilities: types.NewStringSet(types.AllCapabilities...)}

	assert.False(t, rbac.CanView(all, "orphan"))
	assert.False(t, rbac.CanEdit(all, "orphan"))
	assert.True(t, rbac.CanCreateTables(all))
	assert.False(t, rbac.CanView(nil, "orphan"))
}

func TestUnknownCapabilityIsNotGranted(t *testing.T) {
	rbac := SetupRBACSrv()
	user := &types.User{Capabilities: types.NewStringSet("delete")}

	assert.False(t, rbac.Granted(user, "delete"))
	assert.False(t, rbac.Granted(&types.User{IsAdmin: true}, "delete"))
}
