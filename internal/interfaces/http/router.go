package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/entitlements-api/internal/application/usecase"
	"github.com/jhoicas/entitlements-api/internal/domain/entity"
	"github.com/jhoicas/entitlements-api/pkg/logger"
	"github.com/jhoicas/entitlements-api/pkg/metrics"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ModuleUC     *usecase.ModuleService
	PermissionUC *usecase.PermissionService
	Builder      contextBuilder
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer // nil = sin /metrics
	JWTSecret    string
	Logger       *logger.Logger // nil = sin logs
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) *Guards {
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")
	guards := NewGuards(deps.Builder, deps.Metrics, deps.Logger)

	// Rutas protegidas (requieren Bearer Token); la organización va en la ruta.
	org := api.Group("/organizations/:"+ParamOrganizationID, AuthMiddleware(deps.JWTSecret))

	// Módulos: cualquier miembro ve el estado; activar/desactivar valida modules.manage en el motor
	// para que el rechazo viaje como ModuleActionResult.
	moduleHandler := NewModuleHandler(deps.ModuleUC, deps.Logger)
	modules := org.Group("/modules")
	modules.Get("/", guards.RequireMembership(), moduleHandler.Status)
	modules.Post("/:code/activate", moduleHandler.Activate)
	modules.Post("/:code/deactivate", moduleHandler.Deactivate)

	// Permisos del usuario autenticado
	permissionHandler := NewPermissionHandler(deps.PermissionUC)
	permissions := org.Group("/permissions", guards.RequireMembership())
	permissions.Get("/me", permissionHandler.Me)
	permissions.Post("/check", permissionHandler.Check)

	// Catálogo de módulos, solo para quien administra módulos.
	org.Get("/catalog/modules", guards.RequirePermission(entity.PermissionModulesManage), func(c *fiber.Ctx) error {
		return c.JSON(deps.ModuleUC.Catalog())
	})

	return guards
}
