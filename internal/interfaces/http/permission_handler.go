package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/entitlements-api/internal/application/dto"
	"github.com/jhoicas/entitlements-api/internal/application/usecase"
)

// PermissionHandler expone el contexto de permisos del usuario autenticado.
// Debe montarse detrás de Guards.RequireMembership, que deja el contexto en Locals.
type PermissionHandler struct {
	uc *usecase.PermissionService
}

// NewPermissionHandler construye el handler.
func NewPermissionHandler(uc *usecase.PermissionService) *PermissionHandler {
	return &PermissionHandler{uc: uc}
}

// Me godoc
// @Summary      Mis permisos en la organización
// @Tags         permissions
// @Security     Bearer
// @Produce      json
// @Param        orgID  path  string  true  "ID de la organización"
// @Success      200  {object}  dto.PermissionContextResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/organizations/{orgID}/permissions/me [get]
func (h *PermissionHandler) Me(c *fiber.Ctx) error {
	actx := GetAuthzContext(c)
	if actx == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "contexto de permisos no disponible"})
	}
	return c.JSON(h.uc.Describe(actx))
}

// Check godoc
// @Summary      Verificar permisos y módulos
// @Tags         permissions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        orgID  path  string                       true  "ID de la organización"
// @Param        body   body  dto.CheckPermissionsRequest  true  "Permisos y módulos a verificar"
// @Success      200  {object}  dto.CheckPermissionsResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/organizations/{orgID}/permissions/check [post]
func (h *PermissionHandler) Check(c *fiber.Ctx) error {
	actx := GetAuthzContext(c)
	if actx == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "contexto de permisos no disponible"})
	}
	var in dto.CheckPermissionsRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if len(in.Permissions) == 0 && len(in.Modules) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "permissions o modules es requerido"})
	}
	return c.JSON(h.uc.Check(actx, in))
}
