package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/entitlements-api/internal/application/dto"
	"github.com/jhoicas/entitlements-api/internal/domain"
	"github.com/jhoicas/entitlements-api/pkg/logger"
)

// kindStatus traduce el Kind de un fallo de negocio a código HTTP.
func kindStatus(kind domain.Kind) int {
	switch kind {
	case domain.KindNotFound:
		return fiber.StatusNotFound
	case domain.KindAuthentication:
		return fiber.StatusUnauthorized
	case domain.KindAuthorization:
		return fiber.StatusForbidden
	case domain.KindPlanLimitExceeded, domain.KindDependency:
		return fiber.StatusConflict
	case domain.KindTransient:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// kindCode código de error estable para el front.
func kindCode(kind domain.Kind) string {
	switch kind {
	case domain.KindNotFound:
		return "NOT_FOUND"
	case domain.KindAuthentication:
		return "UNAUTHORIZED"
	case domain.KindAuthorization:
		return "FORBIDDEN"
	case domain.KindPlanLimitExceeded:
		return "PLAN_LIMIT_EXCEEDED"
	case domain.KindDependency:
		return "MODULE_DEPENDENCY"
	case domain.KindTransient:
		return "SERVICE_UNAVAILABLE"
	default:
		return "INTERNAL"
	}
}

// writeError responde un error de la capa de aplicación. Los errores no clasificados se
// registran y al cliente solo le llega un mensaje genérico.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	if re, ok := domain.AsRuleError(err); ok {
		return c.Status(kindStatus(re.Kind)).JSON(dto.ErrorResponse{Code: kindCode(re.Kind), Message: re.Message})
	}
	if domain.IsTransient(err) {
		log.Warn().Err(err).Str("path", c.Path()).Msg("almacenamiento no disponible")
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
			Code:    kindCode(domain.KindTransient),
			Message: "almacenamiento no disponible, intente más tarde",
		})
	}
	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Code:    "INTERNAL",
		Message: "error interno del servidor",
	})
}
