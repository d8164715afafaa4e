package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/entitlements-api/internal/domain/entity"
	"github.com/jhoicas/entitlements-api/internal/domain/repository"
	"github.com/jhoicas/entitlements-api/internal/infrastructure/resilience"
)

// Asegura que OrganizationRepo implementa repository.OrganizationRepository.
var _ repository.OrganizationRepository = (*OrganizationRepo)(nil)

// OrganizationRepo implementación del directorio de organizaciones sobre PostgreSQL.
type OrganizationRepo struct {
	q  Querier
	br *resilience.Breaker
}

// NewOrganizationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrganizationRepository(q Querier, br *resilience.Breaker) *OrganizationRepo {
	return &OrganizationRepo{q: q, br: br}
}

// GetByID obtiene una organización por ID; (nil, nil) si no existe.
func (r *OrganizationRepo) GetByID(ctx context.Context, id string) (*entity.Organization, error) {
	const query = `
		SELECT id, name, status, created_at, updated_at
		FROM organizations WHERE id = $1`
	var (
		o     entity.Organization
		found bool
	)
	err := r.br.Do(ctx, func(ctx context.Context) error {
		err := r.q.QueryRow(ctx, query, id).Scan(&o.ID, &o.Name, &o.Status, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			if isNoRows(err) {
				return nil
			}
			return fmt.Errorf("get organization: %w", err)
		}
		found = true
		return nil
	})
	if err != nil || !found {
		return nil, err
	}
	return &o, nil
}
