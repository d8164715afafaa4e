package entity

// Role es un conjunto nombrado de permisos asignado a una membresía.
type Role struct {
	ID           string
	Name         string
	IsSuperAdmin bool
}

// RolePermission asigna un permiso a un rol (N:N).
type RolePermission struct {
	RoleID         string
	PermissionCode PermissionCode
}
