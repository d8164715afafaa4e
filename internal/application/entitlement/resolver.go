package entitlement

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/entitlements-api/internal/domain"
	"github.com/jhoicas/entitlements-api/internal/domain/catalog"
	"github.com/jhoicas/entitlements-api/internal/domain/entity"
	"github.com/jhoicas/entitlements-api/internal/domain/repository"
)

// Entitlement es lo que una organización puede usar ahora mismo según su plan.
type Entitlement struct {
	OrganizationID string
	Plan           entity.Plan
	ActiveModules  []entity.ModuleCode
	UsedSlots      int
	RemainingSlots int
	// Grandfathered: tras bajar de plan hay más módulos activos que los que permite el plan.
	// Siguen activos; solo se bloquean activaciones nuevas.
	Grandfathered bool
	// DefaultPlan: no hay suscripción vigente y se aplicó el plan por defecto.
	DefaultPlan bool
}

// IsActive informa si el módulo está activo para la organización.
func (e *Entitlement) IsActive(code entity.ModuleCode) bool {
	if e == nil {
		return false
	}
	for _, m := range e.ActiveModules {
		if m == code {
			return true
		}
	}
	return false
}

// Resolver calcula el conjunto efectivo de módulos activos y la capacidad restante del plan.
// Solo lee; no guarda estado entre llamadas.
type Resolver struct {
	catalog     *catalog.Catalog
	orgs        repository.OrganizationRepository
	subs        repository.SubscriptionRepository
	ledger      repository.ActivationRepository
	defaultPlan entity.Plan
	now         func() time.Time
}

// NewResolver construye el resolver. defaultPlanCode debe existir en el catálogo: toda
// organización sin suscripción vigente resuelve a ese plan.
func NewResolver(
	cat *catalog.Catalog,
	orgs repository.OrganizationRepository,
	subs repository.SubscriptionRepository,
	ledger repository.ActivationRepository,
	defaultPlanCode string,
) (*Resolver, error) {
	plan, ok := cat.Plan(defaultPlanCode)
	if !ok {
		return nil, fmt.Errorf("%w: el plan por defecto %q no existe", domain.ErrInvalidCatalog, defaultPlanCode)
	}
	return &Resolver{
		catalog:     cat,
		orgs:        orgs,
		subs:        subs,
		ledger:      ledger,
		defaultPlan: plan,
		now:         time.Now,
	}, nil
}

// Resolve resuelve la organización contra el ledger compartido.
func (r *Resolver) Resolve(ctx context.Context, organizationID string) (*Entitlement, error) {
	plan, err := r.planFor(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	return r.resolveLedger(ctx, organizationID, plan, r.ledger)
}

// resolvedPlan plan vigente ya leído, para no volver a consultar organización y suscripción
// dentro de la transacción del motor de activación.
type resolvedPlan struct {
	plan      entity.Plan
	isDefault bool
}

// planFor valida que la organización exista y devuelve su plan vigente.
func (r *Resolver) planFor(ctx context.Context, organizationID string) (resolvedPlan, error) {
	if err := r.requireOrganization(ctx, organizationID); err != nil {
		return resolvedPlan{}, err
	}
	plan, isDefault, err := r.currentPlan(ctx, organizationID)
	if err != nil {
		return resolvedPlan{}, err
	}
	return resolvedPlan{plan: plan, isDefault: isDefault}, nil
}

// resolveLedger calcula el cupo con un plan ya resuelto y la vista de ledger indicada
// (la de la transacción en curso cuando se llama desde el motor). Solo lee el ledger.
func (r *Resolver) resolveLedger(ctx context.Context, organizationID string, rp resolvedPlan, ledger repository.ActivationRepository) (*Entitlement, error) {
	rows, err := ledger.ListActive(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("listar módulos activos: %w", err)
	}
	// Toda fila activa ocupa cupo; al conjunto efectivo solo pasan códigos del catálogo.
	active := make([]entity.ModuleCode, 0, len(rows))
	for _, row := range rows {
		if _, ok := r.catalog.Module(row.ModuleCode); ok {
			active = append(active, row.ModuleCode)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i] < active[j] })

	used := len(rows)
	return &Entitlement{
		OrganizationID: organizationID,
		Plan:           rp.plan,
		ActiveModules:  active,
		UsedSlots:      used,
		RemainingSlots: max(0, rp.plan.MaxModules-used),
		Grandfathered:  used > rp.plan.MaxModules,
		DefaultPlan:    rp.isDefault,
	}, nil
}

// requireOrganization devuelve un RuleError not_found si la organización no existe.
func (r *Resolver) requireOrganization(ctx context.Context, organizationID string) error {
	if organizationID == "" {
		return domain.NewRuleError(domain.KindNotFound, "organización no especificada")
	}
	org, err := r.orgs.GetByID(ctx, organizationID)
	if err != nil {
		return fmt.Errorf("obtener organización: %w", err)
	}
	if org == nil {
		return domain.NewRuleError(domain.KindNotFound, "la organización %s no existe", organizationID)
	}
	return nil
}

// currentPlan devuelve el plan de la suscripción vigente o el plan por defecto si no la hay,
// si no está vigente o si referencia un plan que ya no está en el catálogo.
func (r *Resolver) currentPlan(ctx context.Context, organizationID string) (entity.Plan, bool, error) {
	sub, err := r.subs.GetCurrent(ctx, organizationID)
	if err != nil {
		return entity.Plan{}, false, fmt.Errorf("obtener suscripción: %w", err)
	}
	if !sub.IsCurrent(r.now()) {
		return r.defaultPlan, true, nil
	}
	plan, ok := r.catalog.Plan(sub.PlanCode)
	if !ok {
		return r.defaultPlan, true, nil
	}
	return plan, false, nil
}
