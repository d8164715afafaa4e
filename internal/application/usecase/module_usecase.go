package usecase

import (
	"context"
	"fmt"

	"github.com/jhoicas/entitlements-api/internal/application/dto"
	"github.com/jhoicas/entitlements-api/internal/application/entitlement"
	"github.com/jhoicas/entitlements-api/internal/domain/catalog"
	"github.com/jhoicas/entitlements-api/internal/domain/entity"
)

// ModuleService es la fachada de módulos SaaS que usan los handlers HTTP y la CLI.
// La lógica de activación vive en entitlement.ActivationEngine; aquí solo se adapta a DTOs.
type ModuleService struct {
	catalog  *catalog.Catalog
	resolver *entitlement.Resolver
	engine   *entitlement.ActivationEngine
}

// NewModuleService construye el servicio de módulos.
func NewModuleService(cat *catalog.Catalog, resolver *entitlement.Resolver, engine *entitlement.ActivationEngine) *ModuleService {
	return &ModuleService{catalog: cat, resolver: resolver, engine: engine}
}

// Status devuelve módulos activos, plan vigente y cupo usado/restante.
// Devuelve *domain.RuleError not_found si la organización no existe.
func (s *ModuleService) Status(ctx context.Context, organizationID string) (*dto.ModuleStatusResponse, error) {
	ent, err := s.resolver.Resolve(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	active := make([]string, 0, len(ent.ActiveModules))
	for _, m := range ent.ActiveModules {
		active = append(active, string(m))
	}
	return &dto.ModuleStatusResponse{
		OrganizationID: organizationID,
		ActiveModules:  active,
		Plan: dto.PlanSummary{
			Code:        ent.Plan.Code,
			Name:        ent.Plan.Name,
			MaxModules:  ent.Plan.MaxModules,
			MaxBranches: ent.Plan.MaxBranches,
			MaxUsers:    ent.Plan.MaxUsers,
			IsDefault:   ent.DefaultPlan,
		},
		Used:          ent.UsedSlots,
		Remaining:     ent.RemainingSlots,
		Grandfathered: ent.Grandfathered,
	}, nil
}

// Activate delega en el motor de activación.
func (s *ModuleService) Activate(ctx context.Context, organizationID, moduleCode, actorUserID string) (*dto.ModuleActionResult, error) {
	return s.engine.Activate(ctx, organizationID, moduleCode, actorUserID)
}

// Deactivate delega en el motor de activación.
func (s *ModuleService) Deactivate(ctx context.Context, organizationID, moduleCode, actorUserID string) (*dto.ModuleActionResult, error) {
	return s.engine.Deactivate(ctx, organizationID, moduleCode, actorUserID)
}

// HasActiveModule informa si la organización tiene el módulo activo.
// Devuelve false (sin error) si el módulo no está activo o no existe en el catálogo.
// Devuelve error solo ante fallos de infraestructura o si la organización no existe.
func (s *ModuleService) HasActiveModule(ctx context.Context, organizationID, moduleCode string) (bool, error) {
	if organizationID == "" || moduleCode == "" {
		return false, fmt.Errorf("module: organizationID y moduleCode son obligatorios")
	}
	code, err := s.catalog.ParseModuleCode(moduleCode)
	if err != nil {
		return false, nil
	}
	ent, err := s.resolver.Resolve(ctx, organizationID)
	if err != nil {
		return false, err
	}
	return ent.IsActive(code), nil
}

// Catalog devuelve el catálogo de módulos ordenado por código (para la CLI y el front).
func (s *ModuleService) Catalog() []dto.ModuleResponse {
	codes := s.catalog.ModuleCodes()
	out := make([]dto.ModuleResponse, 0, len(codes))
	for _, c := range codes {
		m, _ := s.catalog.Module(c)
		out = append(out, dto.ModuleResponse{
			Code:       string(m.Code),
			Name:       m.Name,
			Category:   m.Category,
			Requires:   codeStrings(m.RequiredModules),
			Dependents: codeStrings(s.catalog.Dependents(c)),
		})
	}
	return out
}

func codeStrings(codes []entity.ModuleCode) []string {
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = string(c)
	}
	return out
}
