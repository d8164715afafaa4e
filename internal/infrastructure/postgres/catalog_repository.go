package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/entitlements-api/internal/domain/catalog"
	"github.com/jhoicas/entitlements-api/internal/domain/entity"
	"github.com/jhoicas/entitlements-api/internal/domain/repository"
	"github.com/jhoicas/entitlements-api/internal/infrastructure/resilience"
)

var _ repository.CatalogRepository = (*CatalogRepo)(nil)

// CatalogRepo lee y siembra las tablas plans, modules, module_dependencies y permissions.
type CatalogRepo struct {
	pool *pgxpool.Pool
	br   *resilience.Breaker
}

// NewCatalogRepository construye el adaptador.
func NewCatalogRepository(pool *pgxpool.Pool, br *resilience.Breaker) *CatalogRepo {
	return &CatalogRepo{pool: pool, br: br}
}

// Load lee el catálogo completo. La validación la hace catalog.New.
func (r *CatalogRepo) Load(ctx context.Context) (catalog.Snapshot, error) {
	var s catalog.Snapshot
	err := r.br.Do(ctx, func(ctx context.Context) error {
		s = catalog.Snapshot{}
		if err := r.loadPlans(ctx, &s); err != nil {
			return err
		}
		if err := r.loadModules(ctx, &s); err != nil {
			return err
		}
		return r.loadPermissions(ctx, &s)
	})
	return s, err
}

func (r *CatalogRepo) loadPlans(ctx context.Context, s *catalog.Snapshot) error {
	rows, err := r.pool.Query(ctx, `
		SELECT code, name, max_modules, max_branches, max_users, monthly_price
		FROM plans ORDER BY code`)
	if err != nil {
		return fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p entity.Plan
		if err := rows.Scan(&p.Code, &p.Name, &p.MaxModules, &p.MaxBranches, &p.MaxUsers, &p.MonthlyPrice); err != nil {
			return fmt.Errorf("scan plan: %w", err)
		}
		s.Plans = append(s.Plans, p)
	}
	return rows.Err()
}

func (r *CatalogRepo) loadModules(ctx context.Context, s *catalog.Snapshot) error {
	rows, err := r.pool.Query(ctx, `
		SELECT m.code, m.name, m.category,
		       COALESCE(array_agg(d.required_code ORDER BY d.required_code)
		                FILTER (WHERE d.required_code IS NOT NULL), '{}')
		FROM modules m
		LEFT JOIN module_dependencies d ON d.module_code = m.code
		GROUP BY m.code, m.name, m.category
		ORDER BY m.code`)
	if err != nil {
		return fmt.Errorf("list modules: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			m        entity.Module
			code     string
			required []string
		)
		if err := rows.Scan(&code, &m.Name, &m.Category, &required); err != nil {
			return fmt.Errorf("scan module: %w", err)
		}
		m.Code = entity.ModuleCode(code)
		for _, req := range required {
			m.RequiredModules = append(m.RequiredModules, entity.ModuleCode(req))
		}
		s.Modules = append(s.Modules, m)
	}
	return rows.Err()
}

func (r *CatalogRepo) loadPermissions(ctx context.Context, s *catalog.Snapshot) error {
	rows, err := r.pool.Query(ctx, `
		SELECT code, COALESCE(module_code, '') FROM permissions ORDER BY code`)
	if err != nil {
		return fmt.Errorf("list permissions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var code, module string
		if err := rows.Scan(&code, &module); err != nil {
			return fmt.Errorf("scan permission: %w", err)
		}
		s.Permissions = append(s.Permissions, entity.Permission{
			Code:   entity.PermissionCode(code),
			Module: entity.ModuleCode(module),
		})
	}
	return rows.Err()
}

// Seed inserta o actualiza el catálogo validado en una sola transacción (entitlementctl catalog seed).
// No borra filas existentes; las dependencias de cada módulo se reemplazan completas.
func (r *CatalogRepo) Seed(ctx context.Context, cat *catalog.Catalog) error {
	s := cat.Snapshot()
	return r.br.Do(ctx, func(ctx context.Context) error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer func() { _ = tx.Rollback(ctx) }()

		for _, p := range s.Plans {
			_, err := tx.Exec(ctx, `
				INSERT INTO plans (code, name, max_modules, max_branches, max_users, monthly_price)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name,
					max_modules = EXCLUDED.max_modules, max_branches = EXCLUDED.max_branches,
					max_users = EXCLUDED.max_users, monthly_price = EXCLUDED.monthly_price`,
				p.Code, p.Name, p.MaxModules, p.MaxBranches, p.MaxUsers, p.MonthlyPrice)
			if err != nil {
				return fmt.Errorf("seed plan %s: %w", p.Code, err)
			}
		}
		for _, m := range s.Modules {
			_, err := tx.Exec(ctx, `
				INSERT INTO modules (code, name, category) VALUES ($1, $2, $3)
				ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, category = EXCLUDED.category`,
				string(m.Code), m.Name, m.Category)
			if err != nil {
				return fmt.Errorf("seed module %s: %w", m.Code, err)
			}
		}
		// Dependencias después de todos los módulos por las FK.
		for _, m := range s.Modules {
			if _, err := tx.Exec(ctx, `DELETE FROM module_dependencies WHERE module_code = $1`, string(m.Code)); err != nil {
				return fmt.Errorf("clear dependencies %s: %w", m.Code, err)
			}
			for _, req := range m.RequiredModules {
				_, err := tx.Exec(ctx, `
					INSERT INTO module_dependencies (module_code, required_code) VALUES ($1, $2)`,
					string(m.Code), string(req))
				if err != nil {
					return fmt.Errorf("seed dependency %s -> %s: %w", m.Code, req, err)
				}
			}
		}
		for _, p := range s.Permissions {
			_, err := tx.Exec(ctx, `
				INSERT INTO permissions (code, module_code) VALUES ($1, NULLIF($2, ''))
				ON CONFLICT (code) DO UPDATE SET module_code = EXCLUDED.module_code`,
				string(p.Code), string(p.Module))
			if err != nil {
				return fmt.Errorf("seed permission %s: %w", p.Code, err)
			}
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		return nil
	})
}
