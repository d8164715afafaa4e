package repository

import (
	"context"

	"github.com/jhoicas/entitlements-api/internal/domain/entity"
)

// ActivationRepository puerto del ledger de activaciones de módulos.
// Solo el motor de activación escribe en él, y siempre dentro de LedgerTxRunner.
type ActivationRepository interface {
	// Get devuelve (nil, nil) si no hay fila para (organizationID, code).
	Get(ctx context.Context, organizationID string, code entity.ModuleCode) (*entity.ModuleActivation, error)
	ListActive(ctx context.Context, organizationID string) ([]*entity.ModuleActivation, error)
	// Upsert inserta o actualiza la fila única de (OrganizationID, ModuleCode).
	Upsert(ctx context.Context, activation *entity.ModuleActivation) error
}
