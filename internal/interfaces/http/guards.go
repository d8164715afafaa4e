package http

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/entitlements-api/internal/application/dto"
	"github.com/jhoicas/entitlements-api/internal/domain/authz"
	"github.com/jhoicas/entitlements-api/internal/domain/entity"
	"github.com/jhoicas/entitlements-api/pkg/logger"
	"github.com/jhoicas/entitlements-api/pkg/metrics"
)

// LocalAuthzContext key del contexto de permisos ya construido en c.Locals.
const LocalAuthzContext = "authz_context"

// ParamOrganizationID nombre del parámetro de ruta con la organización.
const ParamOrganizationID = "orgID"

// contextBuilder es el contrato mínimo que necesitan los guards. Lo implementa
// *entitlement.ContextBuilder; el uso de interfaz evita acoplar el paquete http al motor.
type contextBuilder interface {
	Build(ctx context.Context, userID, organizationID string) (*authz.Context, error)
}

// Guards agrupa los middlewares de autorización. Deben usarse DESPUÉS de AuthMiddleware.
type Guards struct {
	builder contextBuilder
	metrics *metrics.Metrics
	log     *logger.Logger
}

// NewGuards construye los guards; m y log pueden ser nil.
func NewGuards(builder contextBuilder, m *metrics.Metrics, log *logger.Logger) *Guards {
	if log == nil {
		log = logger.Nop()
	}
	return &Guards{builder: builder, metrics: m, log: log}
}

// RequireMembership exige que el usuario sea miembro activo de la organización de la ruta.
func (g *Guards) RequireMembership() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok, err := g.authorize(c); !ok {
			g.metrics.ObserveDecision("membership", false)
			return err
		}
		g.metrics.ObserveDecision("membership", true)
		return c.Next()
	}
}

// RequirePermission exige TODOS los permisos indicados.
//
// Comportamiento:
//   - 401 → sin usuario o no es miembro activo de la organización.
//   - 403 → falta algún permiso o su módulo no está activo.
//   - 503 → no se pudo construir el contexto (almacén caído, timeout).
func (g *Guards) RequirePermission(codes ...entity.PermissionCode) fiber.Handler {
	guard := "permission:" + joinPermissions(codes)
	return func(c *fiber.Ctx) error {
		actx, ok, err := g.authorize(c)
		if !ok {
			g.metrics.ObserveDecision(guard, false)
			return err
		}
		if !actx.CanAll(codes...) {
			g.metrics.ObserveDecision(guard, false)
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "FORBIDDEN",
				Message: "permiso requerido: " + joinPermissions(codes),
			})
		}
		g.metrics.ObserveDecision(guard, true)
		return c.Next()
	}
}

// RequireModule exige que el módulo esté activo para la organización (o que el usuario sea super admin).
func (g *Guards) RequireModule(code entity.ModuleCode) fiber.Handler {
	guard := "module:" + string(code)
	return func(c *fiber.Ctx) error {
		actx, ok, err := g.authorize(c)
		if !ok {
			g.metrics.ObserveDecision(guard, false)
			return err
		}
		if !actx.CanAccessModule(code) {
			g.metrics.ObserveDecision(guard, false)
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "MODULE_DISABLED",
				Message: "el módulo '" + string(code) + "' no está activo para esta organización",
			})
		}
		g.metrics.ObserveDecision(guard, true)
		return c.Next()
	}
}

// authorize construye el contexto una sola vez por petición y lo guarda en Locals.
// Con ok=false la respuesta de error ya está escrita y err es el resultado de escribirla.
func (g *Guards) authorize(c *fiber.Ctx) (actx *authz.Context, ok bool, err error) {
	if cached := GetAuthzContext(c); cached != nil {
		return cached, true, nil
	}
	userID := GetUserID(c)
	if userID == "" {
		return nil, false, c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Code:    "UNAUTHORIZED",
			Message: "usuario no autenticado",
		})
	}
	actx, buildErr := g.builder.Build(c.UserContext(), userID, c.Params(ParamOrganizationID))
	if buildErr != nil {
		return nil, false, writeError(c, g.log, buildErr)
	}
	c.Locals(LocalAuthzContext, actx)
	return actx, true, nil
}

// GetAuthzContext devuelve el contexto construido por un guard previo, o nil.
func GetAuthzContext(c *fiber.Ctx) *authz.Context {
	actx, _ := c.Locals(LocalAuthzContext).(*authz.Context)
	return actx
}

func joinPermissions(codes []entity.PermissionCode) string {
	parts := make([]string, len(codes))
	for i, code := range codes {
		parts[i] = string(code)
	}
	return strings.Join(parts, ", ")
}
