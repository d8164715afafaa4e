package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/entitlements-api/internal/application/dto"
	"github.com/jhoicas/entitlements-api/internal/bootstrap"
	"github.com/jhoicas/entitlements-api/internal/domain"
	"github.com/jhoicas/entitlements-api/pkg/config"
	"github.com/jhoicas/entitlements-api/pkg/logger"
)

func newServices(t *testing.T) *bootstrap.Services {
	t.Helper()
	cfg := &config.Config{
		Store:       config.StoreConfig{Driver: "memory", CatalogFile: "../../../config/catalog.yaml"},
		Entitlement: config.EntitlementConfig{DefaultPlan: "free"},
	}
	ctx := context.Background()
	stores, err := bootstrap.OpenStores(ctx, cfg, logger.Nop(), nil)
	require.NoError(t, err)
	svc, err := bootstrap.NewServices(ctx, cfg, stores, logger.Nop(), nil)
	require.NoError(t, err)
	return svc
}

func TestModuleService_Status(t *testing.T) {
	svc := newServices(t)

	out, err := svc.ModuleUC.Status(context.Background(), "org-demo")
	require.NoError(t, err)
	assert.Equal(t, "org-demo", out.OrganizationID)
	assert.Equal(t, []string{"crm"}, out.ActiveModules)
	assert.Equal(t, dto.PlanSummary{Code: "starter", Name: "Starter", MaxModules: 3, MaxBranches: 1, MaxUsers: 10}, out.Plan)
	assert.Equal(t, 1, out.Used)
	assert.Equal(t, 2, out.Remaining)
	assert.False(t, out.Grandfathered)

	_, err = svc.ModuleUC.Status(context.Background(), "org-ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestModuleService_HasActiveModule(t *testing.T) {
	svc := newServices(t)
	ctx := context.Background()

	ok, err := svc.ModuleUC.HasActiveModule(ctx, "org-demo", "crm")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.ModuleUC.HasActiveModule(ctx, "org-demo", "CRM")
	require.NoError(t, err)
	assert.True(t, ok, "los códigos se normalizan")

	ok, err = svc.ModuleUC.HasActiveModule(ctx, "org-demo", "pos")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.ModuleUC.HasActiveModule(ctx, "org-demo", "erp")
	require.NoError(t, err)
	assert.False(t, ok, "módulo fuera del catálogo")

	_, err = svc.ModuleUC.HasActiveModule(ctx, "", "crm")
	assert.Error(t, err)
}

func TestModuleService_Catalog(t *testing.T) {
	svc := newServices(t)

	modules := svc.ModuleUC.Catalog()
	require.Len(t, modules, 8)
	byCode := make(map[string]dto.ModuleResponse, len(modules))
	for i, m := range modules {
		byCode[m.Code] = m
		if i > 0 {
			assert.Less(t, modules[i-1].Code, m.Code, "ordenado por código")
		}
	}
	assert.Equal(t, []string{"hrm"}, byCode["payroll"].Requires)
	assert.Equal(t, []string{"payroll"}, byCode["hrm"].Dependents)
	assert.Equal(t, []string{"transport"}, byCode["inventory"].Dependents)
	assert.Empty(t, byCode["crm"].Requires)
}

func TestPermissionService_Describe(t *testing.T) {
	svc := newServices(t)

	actx, err := svc.PermissionUC.BuildContext(context.Background(), "user-admin", "org-demo")
	require.NoError(t, err)

	out := svc.PermissionUC.Describe(actx)
	assert.Equal(t, "admin", out.RoleID)
	assert.Equal(t, "Administrador", out.RoleName)
	assert.Contains(t, out.Permissions, "payroll.run")
	assert.NotContains(t, out.Granted, "payroll.run", "payroll no está activo")
	assert.Equal(t, []string{"crm.manage", "crm.view", "modules.manage", "users.manage"}, out.Granted)
	assert.Equal(t, "starter", out.PlanCode)
}

func TestPermissionService_DescribeDeny(t *testing.T) {
	svc := newServices(t)

	actx, err := svc.PermissionUC.BuildContext(context.Background(), "user-stranger", "org-demo")
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
	require.NotNil(t, actx)

	out := svc.PermissionUC.Describe(actx)
	assert.Empty(t, out.Permissions)
	assert.Empty(t, out.Granted)
	assert.Empty(t, out.ActiveModules)
	assert.False(t, out.IsSuperAdmin)
}

func TestPermissionService_Check(t *testing.T) {
	svc := newServices(t)
	actx, err := svc.PermissionUC.BuildContext(context.Background(), "user-owner", "org-demo")
	require.NoError(t, err)

	out := svc.PermissionUC.Check(actx, dto.CheckPermissionsRequest{
		Permissions: []string{"payroll.run", "modules.manage"},
		Modules:     []string{"payroll", "erp"},
	})
	assert.Equal(t, map[string]bool{"payroll.run": true, "modules.manage": true}, out.Permissions)
	assert.Equal(t, map[string]bool{"payroll": true, "erp": false}, out.Modules)
	assert.True(t, out.All)
	assert.True(t, out.Any)

	out = svc.PermissionUC.Check(actx, dto.CheckPermissionsRequest{Permissions: []string{"modules.manage", "nope"}})
	assert.False(t, out.All, "un código desconocido invalida la conjunción")
	assert.True(t, out.Any)
}
