package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/entitlements-api/internal/application/entitlement"
	"github.com/jhoicas/entitlements-api/internal/domain/repository"
	"github.com/jhoicas/entitlements-api/internal/infrastructure/resilience"
)

// Ensure TxRunner implements entitlement.LedgerTxRunner.
var _ entitlement.LedgerTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL serializada por organización.
type TxRunner struct {
	pool *pgxpool.Pool
	br   *resilience.Breaker
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool, br *resilience.Breaker) *TxRunner {
	return &TxRunner{pool: pool, br: br}
}

// WithOrganizationLock inicia una transacción, toma pg_advisory_xact_lock sobre la organización
// y ejecuta fn con el ledger atado a la tx. El lock se libera en Commit o Rollback.
func (r *TxRunner) WithOrganizationLock(
	ctx context.Context,
	organizationID string,
	fn func(ctx context.Context, ledger repository.ActivationRepository) error,
) error {
	return r.br.Do(ctx, func(ctx context.Context) error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer func() { _ = tx.Rollback(ctx) }()

		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, organizationID); err != nil {
			return fmt.Errorf("lock organización: %w", err)
		}

		if err := fn(ctx, NewActivationRepository(tx, nil)); err != nil {
			return err
		}
		if err := tx.Commit(ctx); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("activación concurrente: %w", err)
			}
			return fmt.Errorf("commit transaction: %w", err)
		}
		return nil
	})
}
