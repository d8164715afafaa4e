package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/entitlements-api/internal/domain/entity"
	"github.com/jhoicas/entitlements-api/internal/domain/repository"
	"github.com/jhoicas/entitlements-api/internal/infrastructure/resilience"
)

var _ repository.SubscriptionRepository = (*SubscriptionRepo)(nil)

// SubscriptionRepo lee la suscripción vigente que mantiene el sistema de facturación.
type SubscriptionRepo struct {
	q  Querier
	br *resilience.Breaker
}

// NewSubscriptionRepository construye el adaptador.
func NewSubscriptionRepository(q Querier, br *resilience.Breaker) *SubscriptionRepo {
	return &SubscriptionRepo{q: q, br: br}
}

// GetCurrent devuelve la suscripción de la organización; (nil, nil) si no tiene.
func (r *SubscriptionRepo) GetCurrent(ctx context.Context, organizationID string) (*entity.Subscription, error) {
	const query = `
		SELECT organization_id, plan_code, status, period_start, period_end, trial_end
		FROM subscriptions WHERE organization_id = $1`
	var (
		s     entity.Subscription
		found bool
	)
	err := r.br.Do(ctx, func(ctx context.Context) error {
		err := r.q.QueryRow(ctx, query, organizationID).Scan(
			&s.OrganizationID, &s.PlanCode, &s.Status, &s.PeriodStart, &s.PeriodEnd, &s.TrialEnd,
		)
		if err != nil {
			if isNoRows(err) {
				return nil
			}
			return fmt.Errorf("get subscription: %w", err)
		}
		found = true
		return nil
	})
	if err != nil || !found {
		return nil, err
	}
	return &s, nil
}
