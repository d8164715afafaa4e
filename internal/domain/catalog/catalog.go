// Package catalog contiene el snapshot inmutable de planes, módulos y permisos.
// Se valida una vez al cargar (códigos únicos, dependencias conocidas, grafo sin ciclos)
// y después solo se lee, por lo que puede compartirse entre goroutines sin bloqueo.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jhoicas/entitlements-api/internal/domain"
	"github.com/jhoicas/entitlements-api/internal/domain/entity"
)

// Snapshot es la entrada cruda del catálogo, tal como la entrega un repositorio o un archivo.
type Snapshot struct {
	Plans       []entity.Plan
	Modules     []entity.Module
	Permissions []entity.Permission
}

// Catalog es la vista validada y de solo lectura del catálogo.
type Catalog struct {
	plans       map[string]entity.Plan
	modules     map[entity.ModuleCode]entity.Module
	permissions map[entity.PermissionCode]entity.Permission
	dependents  map[entity.ModuleCode][]entity.ModuleCode
}

// New valida el snapshot y construye el catálogo. Cualquier inconsistencia devuelve
// un error que envuelve domain.ErrInvalidCatalog.
func New(s Snapshot) (*Catalog, error) {
	c := &Catalog{
		plans:       make(map[string]entity.Plan, len(s.Plans)),
		modules:     make(map[entity.ModuleCode]entity.Module, len(s.Modules)),
		permissions: make(map[entity.PermissionCode]entity.Permission, len(s.Permissions)),
		dependents:  make(map[entity.ModuleCode][]entity.ModuleCode),
	}

	for _, p := range s.Plans {
		if p.Code == "" {
			return nil, invalid("plan sin código")
		}
		if _, dup := c.plans[p.Code]; dup {
			return nil, invalid("plan duplicado %q", p.Code)
		}
		if p.MaxModules < 0 {
			return nil, invalid("plan %q: max_modules negativo", p.Code)
		}
		c.plans[p.Code] = p
	}

	for _, m := range s.Modules {
		if m.Code == "" {
			return nil, invalid("módulo sin código")
		}
		if string(m.Code) != strings.ToLower(string(m.Code)) {
			return nil, invalid("el código de módulo %q debe ir en minúsculas", m.Code)
		}
		if _, dup := c.modules[m.Code]; dup {
			return nil, invalid("módulo duplicado %q", m.Code)
		}
		m.RequiredModules = append([]entity.ModuleCode(nil), m.RequiredModules...)
		c.modules[m.Code] = m
	}
	for _, m := range c.modules {
		for _, req := range m.RequiredModules {
			if req == m.Code {
				return nil, invalid("el módulo %q depende de sí mismo", m.Code)
			}
			if _, ok := c.modules[req]; !ok {
				return nil, invalid("el módulo %q requiere %q, que no existe", m.Code, req)
			}
			c.dependents[req] = append(c.dependents[req], m.Code)
		}
	}
	for code := range c.dependents {
		sortCodes(c.dependents[code])
	}
	if cycle := c.findCycle(); cycle != nil {
		return nil, invalid("ciclo de dependencias: %s", joinCodes(cycle, " -> "))
	}

	for _, p := range s.Permissions {
		if p.Code == "" {
			return nil, invalid("permiso sin código")
		}
		if _, dup := c.permissions[p.Code]; dup {
			return nil, invalid("permiso duplicado %q", p.Code)
		}
		if p.IsModuleScoped() {
			if _, ok := c.modules[p.Module]; !ok {
				return nil, invalid("el permiso %q pertenece al módulo %q, que no existe", p.Code, p.Module)
			}
		}
		c.permissions[p.Code] = p
	}
	manage, ok := c.permissions[entity.PermissionModulesManage]
	if !ok {
		return nil, invalid("falta el permiso %q", entity.PermissionModulesManage)
	}
	if manage.IsModuleScoped() {
		return nil, invalid("el permiso %q debe ser global", entity.PermissionModulesManage)
	}
	return c, nil
}

// findCycle recorre el grafo en profundidad (blanco/gris/negro) y devuelve un ciclo si existe.
func (c *Catalog) findCycle() []entity.ModuleCode {
	const (
		white = iota
		grey
		black
	)
	color := make(map[entity.ModuleCode]int, len(c.modules))
	var stack []entity.ModuleCode
	var found []entity.ModuleCode

	var visit func(code entity.ModuleCode) bool
	visit = func(code entity.ModuleCode) bool {
		color[code] = grey
		stack = append(stack, code)
		for _, req := range c.modules[code].RequiredModules {
			switch color[req] {
			case grey:
				for i, s := range stack {
					if s == req {
						found = append(append([]entity.ModuleCode(nil), stack[i:]...), req)
						break
					}
				}
				return true
			case white:
				if visit(req) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[code] = black
		return false
	}

	for _, code := range c.ModuleCodes() {
		if color[code] == white && visit(code) {
			return found
		}
	}
	return nil
}

// Plan devuelve el plan con ese código.
func (c *Catalog) Plan(code string) (entity.Plan, bool) {
	p, ok := c.plans[code]
	return p, ok
}

// Module devuelve el módulo con ese código.
func (c *Catalog) Module(code entity.ModuleCode) (entity.Module, bool) {
	m, ok := c.modules[code]
	return m, ok
}

// Permission devuelve el permiso con ese código.
func (c *Catalog) Permission(code entity.PermissionCode) (entity.Permission, bool) {
	p, ok := c.permissions[code]
	return p, ok
}

// ParseModuleCode convierte texto libre en un ModuleCode del catálogo.
// Devuelve un *domain.RuleError de tipo not_found si el código no existe.
func (c *Catalog) ParseModuleCode(raw string) (entity.ModuleCode, error) {
	code := entity.ModuleCode(strings.TrimSpace(strings.ToLower(raw)))
	if _, ok := c.modules[code]; !ok {
		return "", domain.NewRuleError(domain.KindNotFound, "el módulo %q no existe", raw)
	}
	return code, nil
}

// ParsePermissionCode convierte texto libre en un PermissionCode del catálogo.
func (c *Catalog) ParsePermissionCode(raw string) (entity.PermissionCode, error) {
	code := entity.PermissionCode(strings.TrimSpace(raw))
	if _, ok := c.permissions[code]; !ok {
		return "", domain.NewRuleError(domain.KindNotFound, "el permiso %q no existe", raw)
	}
	return code, nil
}

// Dependents devuelve los módulos que declaran a code como requisito directo, ordenados.
func (c *Catalog) Dependents(code entity.ModuleCode) []entity.ModuleCode {
	return append([]entity.ModuleCode(nil), c.dependents[code]...)
}

// ModuleCodes devuelve todos los códigos de módulo ordenados.
func (c *Catalog) ModuleCodes() []entity.ModuleCode {
	out := make([]entity.ModuleCode, 0, len(c.modules))
	for code := range c.modules {
		out = append(out, code)
	}
	sortCodes(out)
	return out
}

// Snapshot devuelve una copia ordenada del contenido del catálogo (para sembrar otro almacén).
func (c *Catalog) Snapshot() Snapshot {
	var s Snapshot
	for _, p := range c.plans {
		s.Plans = append(s.Plans, p)
	}
	sort.Slice(s.Plans, func(i, j int) bool { return s.Plans[i].Code < s.Plans[j].Code })
	for _, code := range c.ModuleCodes() {
		s.Modules = append(s.Modules, c.modules[code])
	}
	for _, p := range c.permissions {
		s.Permissions = append(s.Permissions, p)
	}
	sort.Slice(s.Permissions, func(i, j int) bool { return s.Permissions[i].Code < s.Permissions[j].Code })
	return s
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidCatalog, fmt.Sprintf(format, args...))
}

func sortCodes(codes []entity.ModuleCode) {
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
}

// JoinCodes une códigos de módulo para mensajes de usuario.
func JoinCodes(codes []entity.ModuleCode) string {
	return joinCodes(codes, ", ")
}

func joinCodes(codes []entity.ModuleCode, sep string) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = string(c)
	}
	return strings.Join(parts, sep)
}
