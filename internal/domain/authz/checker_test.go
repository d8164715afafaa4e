package authz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/entitlements-api/internal/domain/authz"
	"github.com/jhoicas/entitlements-api/internal/domain/entity"
)

var (
	permManage  = entity.Permission{Code: entity.PermissionModulesManage}
	permReports = entity.Permission{Code: "reports.view", Module: "pms"}
	permCRM     = entity.Permission{Code: "crm.view", Module: "crm"}
)

func memberContext(active ...entity.ModuleCode) *authz.Context {
	return authz.New(authz.Params{
		UserID:         "user-1",
		OrganizationID: "org-1",
		Role:           &entity.Role{ID: "admin", Name: "Administrador"},
		Permissions:    []entity.Permission{permManage, permReports, permCRM},
		ActiveModules:  active,
		Limits:         entity.PlanLimits{PlanCode: "starter", MaxModules: 2},
	})
}

func TestCan_GlobalPermission(t *testing.T) {
	actx := memberContext()
	assert.True(t, actx.Can(entity.PermissionModulesManage))
	assert.False(t, actx.Can("users.manage"))
}

func TestCan_ModuleScopedRequiresActiveModule(t *testing.T) {
	inactive := memberContext("crm")
	assert.False(t, inactive.Can("reports.view"), "pms inactivo no concede reports.view")

	active := memberContext("crm", "pms")
	assert.True(t, active.Can("reports.view"))
}

func TestCanAllAndCanAny(t *testing.T) {
	actx := memberContext("crm")

	assert.True(t, actx.CanAll(entity.PermissionModulesManage, "crm.view"))
	assert.False(t, actx.CanAll(entity.PermissionModulesManage, "reports.view"))
	assert.True(t, actx.CanAny("reports.view", "crm.view"))
	assert.False(t, actx.CanAny("reports.view", "users.manage"))

	assert.True(t, actx.CanAll(), "conjunción vacía")
	assert.False(t, actx.CanAny(), "disyunción vacía")
}

func TestCanAccessModule(t *testing.T) {
	actx := memberContext("crm")
	assert.True(t, actx.CanAccessModule("crm"))
	assert.False(t, actx.CanAccessModule("pms"))
}

func TestSuperAdminBypass(t *testing.T) {
	actx := authz.New(authz.Params{UserID: "root", OrganizationID: "org-1", IsSuperAdmin: true})

	assert.True(t, actx.IsSuperAdmin())
	assert.True(t, actx.Can("anything.at.all"))
	assert.True(t, actx.CanAccessModule("not-activated"))
	assert.True(t, actx.CanAll("a", "b"))
}

func TestDeny(t *testing.T) {
	actx := authz.Deny("user-1", "org-1")

	assert.Equal(t, "user-1", actx.UserID())
	assert.Equal(t, "org-1", actx.OrganizationID())
	assert.False(t, actx.IsSuperAdmin())
	assert.False(t, actx.Can(entity.PermissionModulesManage))
	assert.False(t, actx.CanAccessModule("crm"))
	assert.Empty(t, actx.ActiveModules())
	assert.Empty(t, actx.PermissionCodes())
	assert.Nil(t, actx.Role())
}

func TestNilContextDenies(t *testing.T) {
	var actx *authz.Context
	assert.False(t, actx.Can(entity.PermissionModulesManage))
	assert.False(t, actx.CanAccessModule("crm"))
	assert.False(t, actx.IsSuperAdmin())
}

func TestContextIsImmutable(t *testing.T) {
	active := []entity.ModuleCode{"crm"}
	perms := []entity.Permission{permCRM}
	actx := authz.New(authz.Params{UserID: "u", OrganizationID: "o", Permissions: perms, ActiveModules: active})

	active[0] = "pms"
	perms[0] = permReports

	assert.True(t, actx.CanAccessModule("crm"))
	assert.False(t, actx.CanAccessModule("pms"))
	assert.True(t, actx.Can("crm.view"))

	got := actx.ActiveModules()
	got[0] = "changed"
	assert.Equal(t, []entity.ModuleCode{"crm"}, actx.ActiveModules())
}
