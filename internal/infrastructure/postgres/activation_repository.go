package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/entitlements-api/internal/domain/entity"
	"github.com/jhoicas/entitlements-api/internal/domain/repository"
	"github.com/jhoicas/entitlements-api/internal/infrastructure/resilience"
)

var _ repository.ActivationRepository = (*ActivationRepo)(nil)

// ActivationRepo ledger de activaciones de módulos (tabla module_activations).
type ActivationRepo struct {
	q  Querier
	br *resilience.Breaker
}

// NewActivationRepository construye el adaptador. Pasar pool o tx (Querier);
// dentro de una tx se pasa br nil porque el runner ya protege la transacción completa.
func NewActivationRepository(q Querier, br *resilience.Breaker) *ActivationRepo {
	return &ActivationRepo{q: q, br: br}
}

const activationColumns = `
	id, organization_id, module_code, status, activated_at, activated_by, deactivated_at, deactivated_by`

// Get obtiene la fila de (organizationID, code); (nil, nil) si no existe.
func (r *ActivationRepo) Get(ctx context.Context, organizationID string, code entity.ModuleCode) (*entity.ModuleActivation, error) {
	query := `SELECT ` + activationColumns + `
		FROM module_activations WHERE organization_id = $1 AND module_code = $2`
	var (
		a     entity.ModuleActivation
		found bool
	)
	err := r.br.Do(ctx, func(ctx context.Context) error {
		err := scanActivation(r.q.QueryRow(ctx, query, organizationID, string(code)), &a)
		if err != nil {
			if isNoRows(err) {
				return nil
			}
			return fmt.Errorf("get module activation: %w", err)
		}
		found = true
		return nil
	})
	if err != nil || !found {
		return nil, err
	}
	return &a, nil
}

// ListActive lista las filas activas de la organización.
func (r *ActivationRepo) ListActive(ctx context.Context, organizationID string) ([]*entity.ModuleActivation, error) {
	query := `SELECT ` + activationColumns + `
		FROM module_activations
		WHERE organization_id = $1 AND status = 'active'
		ORDER BY module_code`
	var list []*entity.ModuleActivation
	err := r.br.Do(ctx, func(ctx context.Context) error {
		rows, err := r.q.Query(ctx, query, organizationID)
		if err != nil {
			return fmt.Errorf("list module activations: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var a entity.ModuleActivation
			if err := scanActivation(rows, &a); err != nil {
				return fmt.Errorf("scan module activation: %w", err)
			}
			list = append(list, &a)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// Upsert inserta o actualiza la fila única (organization_id, module_code).
func (r *ActivationRepo) Upsert(ctx context.Context, a *entity.ModuleActivation) error {
	const query = `
		INSERT INTO module_activations
			(id, organization_id, module_code, status, activated_at, activated_by, deactivated_at, deactivated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''))
		ON CONFLICT (organization_id, module_code)
		DO UPDATE SET status = EXCLUDED.status,
		              activated_at = EXCLUDED.activated_at,
		              activated_by = EXCLUDED.activated_by,
		              deactivated_at = EXCLUDED.deactivated_at,
		              deactivated_by = EXCLUDED.deactivated_by`
	return r.br.Do(ctx, func(ctx context.Context) error {
		_, err := r.q.Exec(ctx, query,
			a.ID, a.OrganizationID, string(a.ModuleCode), a.Status,
			a.ActivatedAt, a.ActivatedBy, a.DeactivatedAt, a.DeactivatedBy,
		)
		if err != nil {
			return fmt.Errorf("upsert module activation: %w", err)
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActivation(row rowScanner, a *entity.ModuleActivation) error {
	var code string
	var deactivatedBy *string
	if err := row.Scan(
		&a.ID, &a.OrganizationID, &code, &a.Status,
		&a.ActivatedAt, &a.ActivatedBy, &a.DeactivatedAt, &deactivatedBy,
	); err != nil {
		return err
	}
	a.ModuleCode = entity.ModuleCode(code)
	if deactivatedBy != nil {
		a.DeactivatedBy = *deactivatedBy
	}
	return nil
}
