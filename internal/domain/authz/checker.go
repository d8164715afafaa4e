package authz

import "github.com/jhoicas/entitlements-api/internal/domain/entity"

// IsSuperAdmin lectura directa del flag (membresía o rol).
func (c *Context) IsSuperAdmin() bool {
	return c != nil && c.superAdmin
}

// Can informa si el usuario puede ejecutar la acción code.
// Un permiso de un módulo inactivo nunca se concede, aunque el rol lo tenga:
// la activación del módulo siempre condiciona al permiso.
func (c *Context) Can(code entity.PermissionCode) bool {
	if c == nil {
		return false
	}
	if c.superAdmin {
		return true
	}
	perm, ok := c.permissions[code]
	if !ok {
		return false
	}
	if perm.IsModuleScoped() {
		_, active := c.activeModules[perm.Module]
		return active
	}
	return true
}

// CanAll conjunción de Can. Sin códigos devuelve true.
func (c *Context) CanAll(codes ...entity.PermissionCode) bool {
	for _, code := range codes {
		if !c.Can(code) {
			return false
		}
	}
	return true
}

// CanAny disyunción de Can. Sin códigos devuelve false.
func (c *Context) CanAny(codes ...entity.PermissionCode) bool {
	for _, code := range codes {
		if c.Can(code) {
			return true
		}
	}
	return false
}

// CanAccessModule informa si el módulo está disponible para el usuario en esta organización.
func (c *Context) CanAccessModule(code entity.ModuleCode) bool {
	if c == nil {
		return false
	}
	if c.superAdmin {
		return true
	}
	_, ok := c.activeModules[code]
	return ok
}
