package repository

import (
	"context"

	"github.com/jhoicas/entitlements-api/internal/domain/entity"
)

// SubscriptionRepository puerto hacia el sistema de facturación.
// GetCurrent devuelve (nil, nil) si la organización no tiene suscripción.
type SubscriptionRepository interface {
	GetCurrent(ctx context.Context, organizationID string) (*entity.Subscription, error)
}
