package entitlement

import (
	"context"

	"github.com/jhoicas/entitlements-api/internal/domain/repository"
)

// LedgerTxRunner es el punto de serialización por organización del ledger de activaciones.
// fn corre dentro de una transacción con el ledger atado a ella y con exclusión mutua frente a
// cualquier otra llamada para la misma organización. Si fn devuelve error se hace Rollback y
// el error se devuelve sin envolver; si el contexto se cancela no queda escritura parcial.
type LedgerTxRunner interface {
	WithOrganizationLock(ctx context.Context, organizationID string, fn func(ctx context.Context, ledger repository.ActivationRepository) error) error
}
