// Package authz evalúa autorizaciones sobre un contexto de permisos ya resuelto.
// No hace I/O ni falla: ante la duda, deniega.
package authz

import (
	"sort"

	"github.com/jhoicas/entitlements-api/internal/domain/entity"
)

// Params datos de entrada para construir un Context.
type Params struct {
	UserID         string
	OrganizationID string
	Role           *entity.Role
	Permissions    []entity.Permission
	IsSuperAdmin   bool
	ActiveModules  []entity.ModuleCode
	Limits         entity.PlanLimits
}

// Context es el snapshot inmutable de los derechos de un usuario dentro de una organización.
// Vive lo que dura un episodio de autorización (una petición) y luego se descarta.
type Context struct {
	userID         string
	organizationID string
	role           *entity.Role
	permissions    map[entity.PermissionCode]entity.Permission
	superAdmin     bool
	activeModules  map[entity.ModuleCode]struct{}
	limits         entity.PlanLimits
}

// New construye un Context copiando los datos de entrada.
func New(p Params) *Context {
	c := &Context{
		userID:         p.UserID,
		organizationID: p.OrganizationID,
		permissions:    make(map[entity.PermissionCode]entity.Permission, len(p.Permissions)),
		superAdmin:     p.IsSuperAdmin,
		activeModules:  make(map[entity.ModuleCode]struct{}, len(p.ActiveModules)),
		limits:         p.Limits,
	}
	if p.Role != nil {
		role := *p.Role
		c.role = &role
	}
	for _, perm := range p.Permissions {
		c.permissions[perm.Code] = perm
	}
	for _, m := range p.ActiveModules {
		c.activeModules[m] = struct{}{}
	}
	return c
}

// Deny devuelve un contexto de confianza cero: sin permisos, sin módulos, sin super admin.
func Deny(userID, organizationID string) *Context {
	return New(Params{UserID: userID, OrganizationID: organizationID})
}

// UserID usuario del contexto.
func (c *Context) UserID() string {
	if c == nil {
		return ""
	}
	return c.userID
}

// OrganizationID organización del contexto.
func (c *Context) OrganizationID() string {
	if c == nil {
		return ""
	}
	return c.organizationID
}

// Role rol resuelto; nil en un contexto de denegación.
func (c *Context) Role() *entity.Role {
	if c == nil || c.role == nil {
		return nil
	}
	role := *c.role
	return &role
}

// Limits límites del plan vigente.
func (c *Context) Limits() entity.PlanLimits {
	if c == nil {
		return entity.PlanLimits{}
	}
	return c.limits
}

// ActiveModules módulos activos de la organización, ordenados.
func (c *Context) ActiveModules() []entity.ModuleCode {
	if c == nil {
		return nil
	}
	out := make([]entity.ModuleCode, 0, len(c.activeModules))
	for m := range c.activeModules {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// PermissionCodes permisos que el rol tiene nominalmente, ordenados
// (incluye los de módulos inactivos; para decidir use Can).
func (c *Context) PermissionCodes() []entity.PermissionCode {
	if c == nil {
		return nil
	}
	out := make([]entity.PermissionCode, 0, len(c.permissions))
	for code := range c.permissions {
		out = append(out, code)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
