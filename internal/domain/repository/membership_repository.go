package repository

import (
	"context"

	"github.com/jhoicas/entitlements-api/internal/domain/entity"
)

// MembershipRepository puerto hacia el directorio de membresías.
// GetActive devuelve (nil, nil) si no hay membresía activa para (userID, organizationID).
type MembershipRepository interface {
	GetActive(ctx context.Context, userID, organizationID string) (*entity.Membership, error)
}
