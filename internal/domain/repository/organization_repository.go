package repository

import (
	"context"

	"github.com/jhoicas/entitlements-api/internal/domain/entity"
)

// OrganizationRepository define el puerto de lectura del directorio de organizaciones.
// GetByID devuelve (nil, nil) si la organización no existe.
type OrganizationRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Organization, error)
}
