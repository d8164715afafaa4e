package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/entitlements-api/internal/application/dto"
	"github.com/jhoicas/entitlements-api/internal/application/usecase"
	"github.com/jhoicas/entitlements-api/internal/domain"
	"github.com/jhoicas/entitlements-api/pkg/logger"
)

// ModuleHandler maneja el estado y la activación de módulos de una organización.
type ModuleHandler struct {
	uc  *usecase.ModuleService
	log *logger.Logger
}

// NewModuleHandler construye el handler.
func NewModuleHandler(uc *usecase.ModuleService, log *logger.Logger) *ModuleHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ModuleHandler{uc: uc, log: log}
}

// Status godoc
// @Summary      Estado de módulos de la organización
// @Tags         modules
// @Security     Bearer
// @Produce      json
// @Param        orgID  path  string  true  "ID de la organización"
// @Success      200  {object}  dto.ModuleStatusResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/organizations/{orgID}/modules [get]
func (h *ModuleHandler) Status(c *fiber.Ctx) error {
	out, err := h.uc.Status(c.UserContext(), c.Params(ParamOrganizationID))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Activate godoc
// @Summary      Activar módulo
// @Description  Requiere el permiso modules.manage. Valida dependencias y cupo del plan.
// @Tags         modules
// @Security     Bearer
// @Produce      json
// @Param        orgID  path  string  true  "ID de la organización"
// @Param        code   path  string  true  "Código del módulo"
// @Success      200  {object}  dto.ModuleActionResult
// @Failure      403  {object}  dto.ModuleActionResult
// @Failure      404  {object}  dto.ModuleActionResult
// @Failure      409  {object}  dto.ModuleActionResult
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/organizations/{orgID}/modules/{code}/activate [post]
func (h *ModuleHandler) Activate(c *fiber.Ctx) error {
	out, err := h.uc.Activate(c.UserContext(), c.Params(ParamOrganizationID), c.Params("code"), GetUserID(c))
	return h.writeResult(c, out, err)
}

// Deactivate godoc
// @Summary      Desactivar módulo
// @Description  Requiere el permiso modules.manage. Se bloquea si otro módulo activo lo requiere.
// @Tags         modules
// @Security     Bearer
// @Produce      json
// @Param        orgID  path  string  true  "ID de la organización"
// @Param        code   path  string  true  "Código del módulo"
// @Success      200  {object}  dto.ModuleActionResult
// @Failure      403  {object}  dto.ModuleActionResult
// @Failure      404  {object}  dto.ModuleActionResult
// @Failure      409  {object}  dto.ModuleActionResult
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/organizations/{orgID}/modules/{code}/deactivate [post]
func (h *ModuleHandler) Deactivate(c *fiber.Ctx) error {
	out, err := h.uc.Deactivate(c.UserContext(), c.Params(ParamOrganizationID), c.Params("code"), GetUserID(c))
	return h.writeResult(c, out, err)
}

func (h *ModuleHandler) writeResult(c *fiber.Ctx, out *dto.ModuleActionResult, err error) error {
	if err != nil {
		return writeError(c, h.log, err)
	}
	if !out.Success {
		return c.Status(kindStatus(domain.Kind(out.Kind))).JSON(out)
	}
	return c.JSON(out)
}
