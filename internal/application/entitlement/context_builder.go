package entitlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/entitlements-api/internal/domain"
	"github.com/jhoicas/entitlements-api/internal/domain/authz"
	"github.com/jhoicas/entitlements-api/internal/domain/catalog"
	"github.com/jhoicas/entitlements-api/internal/domain/entity"
	"github.com/jhoicas/entitlements-api/internal/domain/repository"
	"github.com/jhoicas/entitlements-api/pkg/logger"
	"github.com/jhoicas/entitlements-api/pkg/metrics"
)

// ContextBuilder arma el contexto de permisos de un par (usuario, organización).
// No cachea nada entre llamadas: membresía, rol y activaciones pueden cambiar entre peticiones.
type ContextBuilder struct {
	catalog     *catalog.Catalog
	memberships repository.MembershipRepository
	roles       repository.RoleRepository
	resolver    *Resolver
	timeout     time.Duration
	log         *logger.Logger
	metrics     *metrics.Metrics
}

// ContextBuilderConfig dependencias opcionales del builder.
type ContextBuilderConfig struct {
	Timeout time.Duration // 0 = solo el deadline del llamador
	Logger  *logger.Logger
	Metrics *metrics.Metrics
}

// NewContextBuilder construye el builder.
func NewContextBuilder(
	cat *catalog.Catalog,
	memberships repository.MembershipRepository,
	roles repository.RoleRepository,
	resolver *Resolver,
	cfg ContextBuilderConfig,
) *ContextBuilder {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &ContextBuilder{
		catalog:     cat,
		memberships: memberships,
		roles:       roles,
		resolver:    resolver,
		timeout:     cfg.Timeout,
		log:         log,
		metrics:     cfg.Metrics,
	}
}

// Build devuelve siempre un contexto utilizable. Si no se pudo resolver por completo
// (no es miembro, rol inexistente, timeout, almacén caído) el contexto es de confianza cero
// y el error explica por qué: *domain.RuleError para fallos esperados, domain.ErrTransient
// para infraestructura.
func (b *ContextBuilder) Build(ctx context.Context, userID, organizationID string) (*authz.Context, error) {
	started := time.Now()
	actx, err := b.build(ctx, userID, organizationID)
	if err != nil {
		outcome := string(domain.KindTransient)
		if re, ok := domain.AsRuleError(err); ok {
			outcome = string(re.Kind)
		}
		b.metrics.ObserveContextBuild(outcome, started)
		b.log.Warn().Err(err).
			Str("user_id", userID).
			Str("organization_id", organizationID).
			Msg("contexto de permisos degradado a denegación")
		return authz.Deny(userID, organizationID), err
	}
	b.metrics.ObserveContextBuild("ok", started)
	return actx, nil
}

func (b *ContextBuilder) build(ctx context.Context, userID, organizationID string) (*authz.Context, error) {
	if userID == "" || organizationID == "" {
		return nil, domain.NewRuleError(domain.KindAuthentication, "usuario y organización son obligatorios")
	}
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	membership, err := b.memberships.GetActive(ctx, userID, organizationID)
	if err != nil {
		return nil, classify(ctx, fmt.Errorf("obtener membresía: %w", err))
	}
	if membership == nil || !membership.IsActive {
		return nil, domain.NewRuleError(domain.KindAuthentication,
			"el usuario %s no es miembro activo de la organización %s", userID, organizationID)
	}

	var (
		role  *entity.Role
		codes []entity.PermissionCode
		ent   *Entitlement
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		role, err = b.roles.GetRole(gctx, membership.RoleID)
		if err != nil {
			return fmt.Errorf("obtener rol: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		codes, err = b.roles.GetPermissionCodes(gctx, membership.RoleID)
		if err != nil {
			return fmt.Errorf("obtener permisos del rol: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		ent, err = b.resolver.Resolve(gctx, organizationID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, classify(ctx, err)
	}
	if role == nil {
		return nil, domain.NewRuleError(domain.KindNotFound, "el rol %s no existe", membership.RoleID)
	}

	perms := make([]entity.Permission, 0, len(codes))
	for _, code := range codes {
		perm, ok := b.catalog.Permission(code)
		if !ok {
			b.log.Warn().
				Str("role_id", role.ID).
				Str("permission", string(code)).
				Msg("permiso desconocido en el catálogo, se ignora")
			continue
		}
		perms = append(perms, perm)
	}

	return authz.New(authz.Params{
		UserID:         userID,
		OrganizationID: organizationID,
		Role:           role,
		Permissions:    perms,
		IsSuperAdmin:   membership.IsSuperAdmin || role.IsSuperAdmin,
		ActiveModules:  ent.ActiveModules,
		Limits:         ent.Plan.Limits(),
	}), nil
}

// classify deja pasar los RuleError y marca todo lo demás como transitorio.
func classify(ctx context.Context, err error) error {
	if _, ok := domain.AsRuleError(err); ok {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		return domain.Transient(fmt.Errorf("%w: %w", ctxErr, err))
	}
	return domain.Transient(err)
}
