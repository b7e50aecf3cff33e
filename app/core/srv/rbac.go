package srv

import (
	"github.com/mikespook/gorbac/v2"

	"github.com/tablehub/tablehub/pkg/types"
)

const (
	// RoleAdmin 继承所有能力
	RoleAdmin = "role-admin"

	capabilityRolePrefix = "role-cap-"
)

func capabilityRole(capability string) string {
	return capabilityRolePrefix + capability
}

func SetupRBACSrv() *RBACSrv {
	rbac := gorbac.New()

	roleAdmin := gorbac.NewStdRole(RoleAdmin)
	rbac.Add(roleAdmin)

	// 每个能力对应一个只含该权限的角色, 用户的能力集合即其角色集合
	for _, capability := range types.AllCapabilities {
		role := gorbac.NewStdRole(capabilityRole(capability))
		role.Assign(gorbac.NewStdPermission(capability))
		rbac.Add(role)
		rbac.SetParent(RoleAdmin, role.ID())
	}

	return &RBACSrv{
		rbac: rbac,
	}
}

// RBACSrv answers capability and table access questions about a user.
// All methods are pure functions of the user value.
type RBACSrv struct {
	rbac *gorbac.RBAC
}

// CheckPermission 检查角色是否有某权限
func (a *RBACSrv) CheckPermission(roleID, permissionID string) bool {
	return a.rbac.IsGranted(roleID, gorbac.NewStdPermission(permissionID), nil)
}

// Granted reports whether the user holds capability, admins hold every capability.
func (a *RBACSrv) Granted(user *types.User, capability string) bool {
	if user == nil {
		return false
	}
	if user.IsAdmin {
		return a.CheckPermission(RoleAdmin, capability)
	}
	if !user.Capabilities.Has(capability) {
		return false
	}
	return a.CheckPermission(capabilityRole(capability), capability)
}

// AccessibleTables is the union of the explicit grant list and the owned tables.
func (a *RBACSrv) AccessibleTables(user *types.User) types.StringSet {
	if user == nil {
		return types.NewStringSet()
	}
	return user.AccessibleTables.Union(user.OwnedTables)
}

// HasTableAccess is the table half of every row check. Tables nobody owns or was
// granted are visible to admins only.
func (a *RBACSrv) HasTableAccess(user *types.User, table string) bool {
	if user == nil {
		return false
	}
	return user.IsAdmin || a.AccessibleTables(user).Has(table)
}

func (a *RBACSrv) CanView(user *types.User, table string) bool {
	return a.HasTableAccess(user, table)
}

func (a *RBACSrv) CanEdit(user *types.User, table string) bool {
	return a.HasTableAccess(user, table) && a.Granted(user, types.CapabilityEdit)
}

// CanUpdate gates bulk updates.
func (a *RBACSrv) CanUpdate(user *types.User, table string) bool {
	return a.HasTableAccess(user, table) && a.Granted(user, types.CapabilityUpdate)
}

func (a *RBACSrv) CanCreateTables(user *types.User) bool {
	return a.Granted(user, types.CapabilityCreate)
}
