package usecase

import (
	"context"

	"github.com/jhoicas/entitlements-api/internal/application/dto"
	"github.com/jhoicas/entitlements-api/internal/application/entitlement"
	"github.com/jhoicas/entitlements-api/internal/domain/authz"
	"github.com/jhoicas/entitlements-api/internal/domain/catalog"
	"github.com/jhoicas/entitlements-api/internal/domain/entity"
)

// PermissionService expone el contexto de permisos y las consultas del checker a la capa HTTP.
type PermissionService struct {
	catalog *catalog.Catalog
	builder *entitlement.ContextBuilder
}

// NewPermissionService construye el servicio.
func NewPermissionService(cat *catalog.Catalog, builder *entitlement.ContextBuilder) *PermissionService {
	return &PermissionService{catalog: cat, builder: builder}
}

// BuildContext arma el contexto del usuario. Ante error devuelve igualmente un contexto de denegación.
func (s *PermissionService) BuildContext(ctx context.Context, userID, organizationID string) (*authz.Context, error) {
	return s.builder.Build(ctx, userID, organizationID)
}

// Describe convierte un contexto en su DTO. Granted lista los permisos que Can concede hoy.
func (s *PermissionService) Describe(actx *authz.Context) *dto.PermissionContextResponse {
	out := &dto.PermissionContextResponse{
		UserID:         actx.UserID(),
		OrganizationID: actx.OrganizationID(),
		IsSuperAdmin:   actx.IsSuperAdmin(),
		Permissions:    []string{},
		Granted:        []string{},
		ActiveModules:  []string{},
	}
	if role := actx.Role(); role != nil {
		out.RoleID, out.RoleName = role.ID, role.Name
	}
	for _, code := range actx.PermissionCodes() {
		out.Permissions = append(out.Permissions, string(code))
		if actx.Can(code) {
			out.Granted = append(out.Granted, string(code))
		}
	}
	for _, m := range actx.ActiveModules() {
		out.ActiveModules = append(out.ActiveModules, string(m))
	}
	limits := actx.Limits()
	out.PlanCode, out.MaxModules, out.MaxBranches, out.MaxUsers = limits.PlanCode, limits.MaxModules, limits.MaxBranches, limits.MaxUsers
	return out
}

// Check evalúa una lista de permisos y módulos. Códigos desconocidos se responden con false.
func (s *PermissionService) Check(actx *authz.Context, in dto.CheckPermissionsRequest) *dto.CheckPermissionsResponse {
	out := &dto.CheckPermissionsResponse{
		Permissions: make(map[string]bool, len(in.Permissions)),
		Modules:     make(map[string]bool, len(in.Modules)),
	}
	var known []entity.PermissionCode
	unknown := false
	for _, raw := range in.Permissions {
		code, err := s.catalog.ParsePermissionCode(raw)
		if err != nil {
			out.Permissions[raw] = false
			unknown = true
			continue
		}
		known = append(known, code)
		out.Permissions[raw] = actx.Can(code)
	}
	out.All = !unknown && actx.CanAll(known...)
	out.Any = actx.CanAny(known...)
	for _, raw := range in.Modules {
		code, err := s.catalog.ParseModuleCode(raw)
		out.Modules[raw] = err == nil && actx.CanAccessModule(code)
	}
	return out
}
