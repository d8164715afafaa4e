package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/entitlements-api/internal/domain/entity"
	"github.com/jhoicas/entitlements-api/internal/domain/repository"
	"github.com/jhoicas/entitlements-api/internal/infrastructure/resilience"
)

var _ repository.MembershipRepository = (*MembershipRepo)(nil)

// MembershipRepo directorio de membresías usuario-organización.
type MembershipRepo struct {
	q  Querier
	br *resilience.Breaker
}

// NewMembershipRepository construye el adaptador.
func NewMembershipRepository(q Querier, br *resilience.Breaker) *MembershipRepo {
	return &MembershipRepo{q: q, br: br}
}

// GetActive devuelve la membresía activa; el índice único parcial garantiza que hay a lo sumo una.
func (r *MembershipRepo) GetActive(ctx context.Context, userID, organizationID string) (*entity.Membership, error) {
	const query = `
		SELECT user_id, organization_id, role_id, is_super_admin, is_active
		FROM organization_memberships
		WHERE user_id = $1 AND organization_id = $2 AND is_active = true`
	var (
		m     entity.Membership
		found bool
	)
	err := r.br.Do(ctx, func(ctx context.Context) error {
		err := r.q.QueryRow(ctx, query, userID, organizationID).Scan(
			&m.UserID, &m.OrganizationID, &m.RoleID, &m.IsSuperAdmin, &m.IsActive,
		)
		if err != nil {
			if isNoRows(err) {
				return nil
			}
			return fmt.Errorf("get membership: %w", err)
		}
		found = true
		return nil
	})
	if err != nil || !found {
		return nil, err
	}
	return &m, nil
}
