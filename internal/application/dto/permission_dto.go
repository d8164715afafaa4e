package dto

// PermissionContextResponse resumen del contexto de permisos del usuario autenticado.
type PermissionContextResponse struct {
	UserID         string   `json:"user_id"`
	OrganizationID string   `json:"organization_id"`
	RoleID         string   `json:"role_id,omitempty"`
	RoleName       string   `json:"role_name,omitempty"`
	IsSuperAdmin   bool     `json:"is_super_admin"`
	Permissions    []string `json:"permissions"`
	Granted        []string `json:"granted"`
	ActiveModules  []string `json:"active_modules"`
	PlanCode       string   `json:"plan_code"`
	MaxModules     int      `json:"max_modules"`
	MaxBranches    int      `json:"max_branches"`
	MaxUsers       int      `json:"max_users"`
}

// CheckPermissionsRequest entrada de POST permissions/check.
type CheckPermissionsRequest struct {
	Permissions []string `json:"permissions"`
	Modules     []string `json:"modules"`
}

// CheckPermissionsResponse veredictos por código más la conjunción/disyunción de permisos.
type CheckPermissionsResponse struct {
	Permissions map[string]bool `json:"permissions"`
	Modules     map[string]bool `json:"modules"`
	All         bool            `json:"all"`
	Any         bool            `json:"any"`
}
