package repository

import (
	"context"

	"github.com/jhoicas/entitlements-api/internal/domain/entity"
)

// RoleRepository puerto hacia el directorio de roles y permisos.
type RoleRepository interface {
	// GetRole devuelve (nil, nil) si el rol no existe.
	GetRole(ctx context.Context, roleID string) (*entity.Role, error)
	GetPermissionCodes(ctx context.Context, roleID string) ([]entity.PermissionCode, error)
}
