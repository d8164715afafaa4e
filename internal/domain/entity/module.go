package entity

// ModuleCode identifica un módulo del catálogo (crm, hrm, pos, pms, inventory, chat...).
// Solo se obtiene un ModuleCode válido a través de catalog.Catalog.ParseModuleCode.
type ModuleCode string

// PermissionCode identifica un permiso del catálogo (ej. "reports.view").
type PermissionCode string

// PermissionModulesManage es el permiso global exigido para activar o desactivar módulos.
const PermissionModulesManage PermissionCode = "modules.manage"

// Module es un área funcional que cada organización activa o desactiva de forma independiente.
// RequiredModules son las aristas del grafo de dependencias (debe ser un DAG).
type Module struct {
	Code            ModuleCode
	Name            string
	Category        string
	RequiredModules []ModuleCode
}

// Permission es un derecho de acción fino. Module vacío = permiso global.
type Permission struct {
	Code   PermissionCode
	Module ModuleCode
}

// IsModuleScoped informa si el permiso depende de que su módulo esté activo.
func (p Permission) IsModuleScoped() bool {
	return p.Module != ""
}
