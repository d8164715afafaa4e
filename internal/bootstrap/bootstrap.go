// Package bootstrap arma el motor de autorización (almacén, catálogo, resolver, builder y motor
// de activación) a partir de la configuración. Lo comparten la API y entitlementctl.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/entitlements-api/internal/application/entitlement"
	"github.com/jhoicas/entitlements-api/internal/application/usecase"
	"github.com/jhoicas/entitlements-api/internal/domain/catalog"
	"github.com/jhoicas/entitlements-api/internal/domain/repository"
	"github.com/jhoicas/entitlements-api/internal/infrastructure/catalogfile"
	"github.com/jhoicas/entitlements-api/internal/infrastructure/memory"
	"github.com/jhoicas/entitlements-api/internal/infrastructure/postgres"
	"github.com/jhoicas/entitlements-api/internal/infrastructure/resilience"
	"github.com/jhoicas/entitlements-api/pkg/config"
	"github.com/jhoicas/entitlements-api/pkg/logger"
	"github.com/jhoicas/entitlements-api/pkg/metrics"
)

// Stores puertos de almacenamiento ya resueltos para el driver configurado.
type Stores struct {
	Organizations repository.OrganizationRepository
	Subscriptions repository.SubscriptionRepository
	Memberships   repository.MembershipRepository
	Roles         repository.RoleRepository
	Ledger        repository.ActivationRepository
	Catalog       repository.CatalogRepository
	Runner        entitlement.LedgerTxRunner

	// Pool solo con driver postgres (la CLI lo usa para sembrar el catálogo).
	Pool    *pgxpool.Pool
	Breaker *resilience.Breaker
}

// Close libera el pool si lo hay.
func (s *Stores) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

// OpenStores abre el almacén indicado por STORE_DRIVER.
func OpenStores(ctx context.Context, cfg *config.Config, log *logger.Logger, m *metrics.Metrics) (*Stores, error) {
	switch cfg.Store.Driver {
	case "memory":
		data, err := catalogfile.Load(cfg.Store.CatalogFile)
		if err != nil {
			return nil, err
		}
		store := memory.NewStoreFromData(data)
		log.Info().Str("catalog_file", cfg.Store.CatalogFile).Msg("almacén en memoria sembrado desde archivo")
		return &Stores{
			Organizations: store,
			Subscriptions: store,
			Memberships:   store,
			Roles:         store,
			Ledger:        store,
			Catalog:       store,
			Runner:        store,
		}, nil
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		br := resilience.New(resilience.Config{
			Name:             "postgres",
			MaxRequests:      uint32(cfg.Breaker.MaxRequests),
			Interval:         cfg.Breaker.Interval,
			Timeout:          cfg.Breaker.Timeout,
			FailureThreshold: uint32(cfg.Breaker.FailureThreshold),
		}, m)
		return &Stores{
			Organizations: postgres.NewOrganizationRepository(pool, br),
			Subscriptions: postgres.NewSubscriptionRepository(pool, br),
			Memberships:   postgres.NewMembershipRepository(pool, br),
			Roles:         postgres.NewRoleRepository(pool, br),
			Ledger:        postgres.NewActivationRepository(pool, br),
			Catalog:       postgres.NewCatalogRepository(pool, br),
			Runner:        postgres.NewTxRunner(pool, br),
			Pool:          pool,
			Breaker:       br,
		}, nil
	default:
		return nil, fmt.Errorf("STORE_DRIVER desconocido %q", cfg.Store.Driver)
	}
}

// Services el motor completo listo para la capa HTTP o la CLI.
type Services struct {
	Catalog      *catalog.Catalog
	Resolver     *entitlement.Resolver
	Builder      *entitlement.ContextBuilder
	Engine       *entitlement.ActivationEngine
	ModuleUC     *usecase.ModuleService
	PermissionUC *usecase.PermissionService
}

// NewServices carga y valida el catálogo y construye los servicios.
func NewServices(ctx context.Context, cfg *config.Config, stores *Stores, log *logger.Logger, m *metrics.Metrics) (*Services, error) {
	snapshot, err := stores.Catalog.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("cargar catálogo: %w", err)
	}
	cat, err := catalog.New(snapshot)
	if err != nil {
		return nil, err
	}
	resolver, err := entitlement.NewResolver(cat, stores.Organizations, stores.Subscriptions, stores.Ledger, cfg.Entitlement.DefaultPlan)
	if err != nil {
		return nil, err
	}
	builder := entitlement.NewContextBuilder(cat, stores.Memberships, stores.Roles, resolver, entitlement.ContextBuilderConfig{
		Timeout: cfg.Entitlement.RequestTimeout,
		Logger:  log.Named("context_builder"),
		Metrics: m,
	})
	engine := entitlement.NewActivationEngine(cat, resolver, builder, stores.Ledger, stores.Runner, entitlement.ActivationEngineConfig{
		Timeout: cfg.Entitlement.RequestTimeout,
		Logger:  log.Named("activation"),
		Metrics: m,
	})

	log.Info().
		Int("modules", len(cat.ModuleCodes())).
		Str("default_plan", cfg.Entitlement.DefaultPlan).
		Msg("catálogo cargado")

	return &Services{
		Catalog:      cat,
		Resolver:     resolver,
		Builder:      builder,
		Engine:       engine,
		ModuleUC:     usecase.NewModuleService(cat, resolver, engine),
		PermissionUC: usecase.NewPermissionService(cat, builder),
	}, nil
}
