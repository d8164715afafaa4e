package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/entitlements-api/internal/domain/entity"
	"github.com/jhoicas/entitlements-api/internal/domain/repository"
	"github.com/jhoicas/entitlements-api/internal/infrastructure/resilience"
)

var _ repository.RoleRepository = (*RoleRepo)(nil)

// RoleRepo directorio de roles y sus permisos.
type RoleRepo struct {
	q  Querier
	br *resilience.Breaker
}

// NewRoleRepository construye el adaptador.
func NewRoleRepository(q Querier, br *resilience.Breaker) *RoleRepo {
	return &RoleRepo{q: q, br: br}
}

// GetRole obtiene un rol por ID; (nil, nil) si no existe.
func (r *RoleRepo) GetRole(ctx context.Context, roleID string) (*entity.Role, error) {
	const query = `SELECT id, name, is_super_admin FROM roles WHERE id = $1`
	var (
		role  entity.Role
		found bool
	)
	err := r.br.Do(ctx, func(ctx context.Context) error {
		err := r.q.QueryRow(ctx, query, roleID).Scan(&role.ID, &role.Name, &role.IsSuperAdmin)
		if err != nil {
			if isNoRows(err) {
				return nil
			}
			return fmt.Errorf("get role: %w", err)
		}
		found = true
		return nil
	})
	if err != nil || !found {
		return nil, err
	}
	return &role, nil
}

// GetPermissionCodes lista los códigos de permiso asignados al rol.
func (r *RoleRepo) GetPermissionCodes(ctx context.Context, roleID string) ([]entity.PermissionCode, error) {
	const query = `
		SELECT permission_code FROM role_permissions
		WHERE role_id = $1 ORDER BY permission_code`
	var codes []entity.PermissionCode
	err := r.br.Do(ctx, func(ctx context.Context) error {
		rows, err := r.q.Query(ctx, query, roleID)
		if err != nil {
			return fmt.Errorf("list role permissions: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var code string
			if err := rows.Scan(&code); err != nil {
				return fmt.Errorf("scan role permission: %w", err)
			}
			codes = append(codes, entity.PermissionCode(code))
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return codes, nil
}
