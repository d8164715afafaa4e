package repository

import (
	"context"

	"github.com/jhoicas/entitlements-api/internal/domain/catalog"
)

// CatalogRepository carga el catálogo (planes, módulos con dependencias, permisos).
// Desde el motor el catálogo es de solo lectura.
type CatalogRepository interface {
	Load(ctx context.Context) (catalog.Snapshot, error)
}
