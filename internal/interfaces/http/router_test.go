package http_test

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/entitlements-api/internal/application/dto"
	"github.com/jhoicas/entitlements-api/internal/bootstrap"
	"github.com/jhoicas/entitlements-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/entitlements-api/internal/interfaces/http"
	"github.com/jhoicas/entitlements-api/pkg/config"
	"github.com/jhoicas/entitlements-api/pkg/logger"
	"github.com/jhoicas/entitlements-api/pkg/metrics"
)

// Datos de config/catalog.yaml: org-demo en plan starter (3 módulos) con crm activo.
const (
	demoOrg = "/api/organizations/org-demo"
	admin   = "user-admin"
	seller  = "user-seller"
	owner   = "user-owner"
)

type testServer struct {
	app   *fiber.App
	store *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		Store:       config.StoreConfig{Driver: "memory", CatalogFile: "../../../config/catalog.yaml"},
		Entitlement: config.EntitlementConfig{DefaultPlan: "free"},
	}
	log := logger.Nop()
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	ctx := context.Background()
	stores, err := bootstrap.OpenStores(ctx, cfg, log, m)
	require.NoError(t, err)
	svc, err := bootstrap.NewServices(ctx, cfg, stores, log, m)
	require.NoError(t, err)

	app := fiber.New()
	guards := apphttp.Router(app, apphttp.RouterDeps{
		ModuleUC:     svc.ModuleUC,
		PermissionUC: svc.PermissionUC,
		Builder:      svc.Builder,
		Metrics:      m,
		Gatherer:     registry,
		JWTSecret:    testJWTSecret,
	})
	// Ruta de negocio de ejemplo protegida por módulo y permiso.
	app.Post("/api/organizations/:orgID/pos/sales",
		apphttp.AuthMiddleware(testJWTSecret),
		guards.RequireModule("pos"),
		guards.RequirePermission("pos.sell"),
		func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) },
	)

	store, ok := stores.Ledger.(*memory.Store)
	require.True(t, ok)
	return &testServer{app: app, store: store}
}

func (s *testServer) do(t *testing.T, method, path, userID, body string) *http.Response {
	t.Helper()
	header := ""
	if userID != "" {
		header = bearer(t, userID)
	}
	return doRequest(t, s.app, method, path, header, body)
}

func TestModuleStatus(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, demoOrg+"/modules", seller, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode[dto.ModuleStatusResponse](t, resp)
	assert.Equal(t, []string{"crm"}, out.ActiveModules)
	assert.Equal(t, "starter", out.Plan.Code)
	assert.Equal(t, 1, out.Used)
	assert.Equal(t, 2, out.Remaining)
}

func TestModuleStatus_RequiresMembership(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, demoOrg+"/modules", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.do(t, http.MethodGet, demoOrg+"/modules", "user-stranger", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "UNAUTHORIZED", body.Code)
}

func TestActivateFlow(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodPost, demoOrg+"/modules/payroll/activate", admin, "")
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	res := decode[dto.ModuleActionResult](t, resp)
	assert.False(t, res.Success)
	assert.Equal(t, "dependency", res.Kind)
	assert.Contains(t, res.Message, "hrm")

	resp = s.do(t, http.MethodPost, demoOrg+"/modules/hrm/activate", admin, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res = decode[dto.ModuleActionResult](t, resp)
	assert.True(t, res.Success)
	require.NotNil(t, res.Data)
	assert.Equal(t, admin, res.Data.ActivatedBy)

	resp = s.do(t, http.MethodPost, demoOrg+"/modules/payroll/activate", admin, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, http.MethodPost, demoOrg+"/modules/pos/activate", admin, "")
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	res = decode[dto.ModuleActionResult](t, resp)
	assert.Equal(t, "plan_limit_exceeded", res.Kind)
	assert.Contains(t, res.Message, "3/3")

	resp = s.do(t, http.MethodPost, demoOrg+"/modules/hrm/deactivate", admin, "")
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	res = decode[dto.ModuleActionResult](t, resp)
	assert.Contains(t, res.Message, "payroll")
}

func TestActivate_Rejections(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodPost, demoOrg+"/modules/hrm/activate", seller, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	res := decode[dto.ModuleActionResult](t, resp)
	assert.Equal(t, "authorization", res.Kind)

	resp = s.do(t, http.MethodPost, demoOrg+"/modules/erp/activate", admin, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/organizations/org-ghost/modules/hrm/activate", admin, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestActivate_StoreDownIs503(t *testing.T) {
	s := newTestServer(t)
	s.store.SetFailure(assert.AnError)

	resp := s.do(t, http.MethodPost, demoOrg+"/modules/hrm/activate", admin, "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "SERVICE_UNAVAILABLE", body.Code)

	resp = s.do(t, http.MethodGet, demoOrg+"/permissions/me", admin, "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestPermissionsMe(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, demoOrg+"/permissions/me", seller, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode[dto.PermissionContextResponse](t, resp)
	assert.Equal(t, "seller", out.RoleID)
	assert.False(t, out.IsSuperAdmin)
	assert.Equal(t, []string{"crm.view", "inventory.view", "pos.sell"}, out.Permissions)
	assert.Equal(t, []string{"crm.view"}, out.Granted)
	assert.Equal(t, []string{"crm"}, out.ActiveModules)
	assert.Equal(t, "starter", out.PlanCode)
	assert.Equal(t, 3, out.MaxModules)
}

func TestPermissionsCheck(t *testing.T) {
	s := newTestServer(t)

	body := `{"permissions":["crm.view","pos.sell","nope"],"modules":["crm","pos"]}`
	resp := s.do(t, http.MethodPost, demoOrg+"/permissions/check", seller, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode[dto.CheckPermissionsResponse](t, resp)
	assert.Equal(t, map[string]bool{"crm.view": true, "pos.sell": false, "nope": false}, out.Permissions)
	assert.Equal(t, map[string]bool{"crm": true, "pos": false}, out.Modules)
	assert.False(t, out.All)
	assert.True(t, out.Any)

	resp = s.do(t, http.MethodPost, demoOrg+"/permissions/check", seller, `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGuards_ModuleAndPermission(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodPost, demoOrg+"/pos/sales", seller, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "MODULE_DISABLED", body.Code)

	resp = s.do(t, http.MethodPost, demoOrg+"/pos/sales", owner, "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode, "super admin pasa ambos guards")

	resp = s.do(t, http.MethodPost, demoOrg+"/modules/pos/activate", admin, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, http.MethodPost, demoOrg+"/pos/sales", seller, "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = s.do(t, http.MethodPost, demoOrg+"/pos/sales", admin, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "admin no tiene pos.sell")
}

func TestCatalogModules_RequiresModulesManage(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, demoOrg+"/catalog/modules", admin, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	modules := decode[[]dto.ModuleResponse](t, resp)
	require.NotEmpty(t, modules)
	for _, m := range modules {
		if m.Code == "hrm" {
			assert.Equal(t, []string{"payroll"}, m.Dependents)
		}
	}

	resp = s.do(t, http.MethodGet, demoOrg+"/catalog/modules", seller, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodGet, demoOrg+"/modules", seller, "").Body.Close()

	resp := doRequest(t, s.app, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "entitlements_guard_decisions_total")
	assert.Contains(t, string(raw), "entitlements_context_builds_total")
}
