package entitlement_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jhoicas/entitlements-api/internal/application/entitlement"
	"github.com/jhoicas/entitlements-api/internal/domain/catalog"
	"github.com/jhoicas/entitlements-api/internal/domain/entity"
	"github.com/jhoicas/entitlements-api/internal/infrastructure/memory"
	"github.com/jhoicas/entitlements-api/pkg/metrics"
)

const (
	orgID      = "org-1"
	adminID    = "user-admin"
	viewerID   = "user-viewer"
	ownerID    = "user-owner"
	outsiderID = "user-outsider"
)

func testSnapshot() catalog.Snapshot {
	return catalog.Snapshot{
		Plans: []entity.Plan{
			{Code: "free", Name: "Free", MaxModules: 1},
			{Code: "starter", Name: "Starter", MaxModules: 2},
			{Code: "pro", Name: "Pro", MaxModules: 10},
		},
		Modules: []entity.Module{
			{Code: "crm", Name: "CRM"},
			{Code: "pos", Name: "POS"},
			{Code: "hrm", Name: "HRM"},
			{Code: "payroll", Name: "Nómina", RequiredModules: []entity.ModuleCode{"hrm"}},
			{Code: "pms", Name: "PMS"},
			{Code: "inventory", Name: "Inventario"},
		},
		Permissions: []entity.Permission{
			{Code: entity.PermissionModulesManage},
			{Code: "reports.view", Module: "pms"},
			{Code: "hrm.view", Module: "hrm"},
		},
	}
}

type fixture struct {
	store    *memory.Store
	cat      *catalog.Catalog
	resolver *entitlement.Resolver
	builder  *entitlement.ContextBuilder
	engine   *entitlement.ActivationEngine
}

type fixtureOption func(*entitlement.ContextBuilderConfig)

func withTimeout(d time.Duration) fixtureOption {
	return func(c *entitlement.ContextBuilderConfig) { c.Timeout = d }
}

func withMetrics(m *metrics.Metrics) fixtureOption {
	return func(c *entitlement.ContextBuilderConfig) { c.Metrics = m }
}

// newFixture arma el motor sobre el almacén en memoria con org-1 en el plan indicado.
func newFixture(t *testing.T, planCode string, opts ...fixtureOption) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.SetCatalog(testSnapshot())

	cat, err := catalog.New(testSnapshot())
	require.NoError(t, err)

	store.PutOrganization(entity.Organization{ID: orgID, Name: "Org 1", Status: entity.OrganizationActive})
	if planCode != "" {
		store.PutSubscription(entity.Subscription{
			OrganizationID: orgID,
			PlanCode:       planCode,
			Status:         entity.SubscriptionActive,
			PeriodStart:    time.Now().Add(-24 * time.Hour),
		})
	}

	store.PutRole(entity.Role{ID: "admin", Name: "Administrador"})
	store.GrantPermission("admin", entity.PermissionModulesManage, "reports.view")
	store.PutRole(entity.Role{ID: "viewer", Name: "Lector"})
	store.GrantPermission("viewer", "reports.view")
	store.PutRole(entity.Role{ID: "owner", Name: "Propietario", IsSuperAdmin: true})

	store.PutMembership(entity.Membership{UserID: adminID, OrganizationID: orgID, RoleID: "admin", IsActive: true})
	store.PutMembership(entity.Membership{UserID: viewerID, OrganizationID: orgID, RoleID: "viewer", IsActive: true})
	store.PutMembership(entity.Membership{UserID: ownerID, OrganizationID: orgID, RoleID: "owner", IsActive: true})

	resolver, err := entitlement.NewResolver(cat, store, store, store, "free")
	require.NoError(t, err)

	var cfg entitlement.ContextBuilderConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	builder := entitlement.NewContextBuilder(cat, store, store, resolver, cfg)
	engine := entitlement.NewActivationEngine(cat, resolver, builder, store, store, entitlement.ActivationEngineConfig{
		Timeout: cfg.Timeout,
		Metrics: cfg.Metrics,
	})

	return &fixture{store: store, cat: cat, resolver: resolver, builder: builder, engine: engine}
}

func (f *fixture) activate(codes ...entity.ModuleCode) {
	for _, code := range codes {
		f.store.PutActivation(entity.ModuleActivation{OrganizationID: orgID, ModuleCode: code, ActivatedBy: ownerID})
	}
}
