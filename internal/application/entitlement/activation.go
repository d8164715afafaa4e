package entitlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/entitlements-api/internal/application/dto"
	"github.com/jhoicas/entitlements-api/internal/domain"
	"github.com/jhoicas/entitlements-api/internal/domain/catalog"
	"github.com/jhoicas/entitlements-api/internal/domain/entity"
	"github.com/jhoicas/entitlements-api/internal/domain/repository"
	"github.com/jhoicas/entitlements-api/pkg/logger"
	"github.com/jhoicas/entitlements-api/pkg/metrics"
)

const (
	opActivate   = "activate"
	opDeactivate = "deactivate"
)

// ActivationEngine valida y ejecuta las transiciones inactive <-> active del ledger.
// Es el único código que escribe en el ledger de activaciones.
type ActivationEngine struct {
	catalog  *catalog.Catalog
	resolver *Resolver
	builder  *ContextBuilder
	ledger   repository.ActivationRepository
	runner   LedgerTxRunner
	timeout  time.Duration
	log      *logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// ActivationEngineConfig dependencias opcionales del motor.
type ActivationEngineConfig struct {
	Timeout time.Duration // tope de toda la operación; 0 = solo el deadline del llamador
	Logger  *logger.Logger
	Metrics *metrics.Metrics
}

// NewActivationEngine construye el motor. ledger es la vista compartida (fuera de transacción)
// que se usa para las lecturas previas al bloqueo.
func NewActivationEngine(
	cat *catalog.Catalog,
	resolver *Resolver,
	builder *ContextBuilder,
	ledger repository.ActivationRepository,
	runner LedgerTxRunner,
	cfg ActivationEngineConfig,
) *ActivationEngine {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &ActivationEngine{
		catalog:  cat,
		resolver: resolver,
		builder:  builder,
		ledger:   ledger,
		runner:   runner,
		timeout:  cfg.Timeout,
		log:      log,
		metrics:  cfg.Metrics,
		now:      time.Now,
	}
}

// bound aplica el timeout configurado a toda la operación, incluida la espera del lock.
func (e *ActivationEngine) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.timeout)
}

// Activate activa moduleCode para la organización en nombre de actorUserID.
// Orden de validación (gana el primer fallo): módulo existe, actor autorizado, ya activo
// (éxito idempotente), prerrequisitos activos, cupo del plan, escritura.
// El error solo se usa para fallos de infraestructura.
//
// Organización y plan se leen antes de tomar el lock: dentro de la sección crítica solo se
// usa el ledger de la transacción, así que una activación retiene una única conexión.
func (e *ActivationEngine) Activate(ctx context.Context, organizationID, moduleCode, actorUserID string) (*dto.ModuleActionResult, error) {
	ctx, cancel := e.bound(ctx)
	defer cancel()

	module, plan, err := e.lookup(ctx, organizationID, moduleCode)
	if err != nil {
		return e.finish(opActivate, organizationID, moduleCode, actorUserID, nil, "", err)
	}
	if err := e.authorize(ctx, organizationID, actorUserID); err != nil {
		return e.finish(opActivate, organizationID, moduleCode, actorUserID, nil, "", err)
	}

	var (
		row     *entity.ModuleActivation
		message string
	)
	err = e.runner.WithOrganizationLock(ctx, organizationID, func(ctx context.Context, ledger repository.ActivationRepository) error {
		current, err := ledger.Get(ctx, organizationID, module.Code)
		if err != nil {
			return fmt.Errorf("leer activación: %w", err)
		}
		if current.IsActive() {
			row, message = current, fmt.Sprintf("el módulo %s ya está activo", module.Code)
			return nil
		}

		ent, err := e.resolver.resolveLedger(ctx, organizationID, plan, ledger)
		if err != nil {
			return err
		}
		var missing []entity.ModuleCode
		for _, req := range module.RequiredModules {
			if !ent.IsActive(req) {
				missing = append(missing, req)
			}
		}
		if len(missing) > 0 {
			return domain.NewRuleError(domain.KindDependency,
				"el módulo %s requiere que %s esté activo primero", module.Code, catalog.JoinCodes(missing))
		}
		if ent.RemainingSlots < 1 {
			return domain.NewRuleError(domain.KindPlanLimitExceeded,
				"%d/%d módulos usados en el plan %s", ent.UsedSlots, ent.Plan.MaxModules, ent.Plan.Name)
		}

		next := &entity.ModuleActivation{
			ID:             uuid.New().String(),
			OrganizationID: organizationID,
			ModuleCode:     module.Code,
			Status:         entity.ActivationActive,
			ActivatedAt:    e.now(),
			ActivatedBy:    actorUserID,
		}
		if current != nil {
			next.ID = current.ID
		}
		if err := ledger.Upsert(ctx, next); err != nil {
			return fmt.Errorf("guardar activación: %w", err)
		}
		row, message = next, fmt.Sprintf("módulo %s activado", module.Code)
		return nil
	})
	return e.finish(opActivate, organizationID, moduleCode, actorUserID, row, message, err)
}

// Deactivate desactiva moduleCode. Si otro módulo activo lo requiere, se bloquea en lugar
// de desactivar en cascada.
func (e *ActivationEngine) Deactivate(ctx context.Context, organizationID, moduleCode, actorUserID string) (*dto.ModuleActionResult, error) {
	ctx, cancel := e.bound(ctx)
	defer cancel()

	module, _, err := e.lookup(ctx, organizationID, moduleCode)
	if err != nil {
		return e.finish(opDeactivate, organizationID, moduleCode, actorUserID, nil, "", err)
	}

	current, err := e.ledger.Get(ctx, organizationID, module.Code)
	if err != nil {
		return e.finish(opDeactivate, organizationID, moduleCode, actorUserID, nil, "", fmt.Errorf("leer activación: %w", err))
	}
	if !current.IsActive() {
		return e.finish(opDeactivate, organizationID, moduleCode, actorUserID, current,
			fmt.Sprintf("el módulo %s ya está inactivo", module.Code), nil)
	}
	if err := e.authorize(ctx, organizationID, actorUserID); err != nil {
		return e.finish(opDeactivate, organizationID, moduleCode, actorUserID, nil, "", err)
	}

	var (
		row     *entity.ModuleActivation
		message string
	)
	err = e.runner.WithOrganizationLock(ctx, organizationID, func(ctx context.Context, ledger repository.ActivationRepository) error {
		current, err := ledger.Get(ctx, organizationID, module.Code)
		if err != nil {
			return fmt.Errorf("leer activación: %w", err)
		}
		if !current.IsActive() {
			row, message = current, fmt.Sprintf("el módulo %s ya está inactivo", module.Code)
			return nil
		}

		active, err := ledger.ListActive(ctx, organizationID)
		if err != nil {
			return fmt.Errorf("listar módulos activos: %w", err)
		}
		activeSet := make(map[entity.ModuleCode]bool, len(active))
		for _, a := range active {
			activeSet[a.ModuleCode] = true
		}
		var blocking []entity.ModuleCode
		for _, dep := range e.catalog.Dependents(module.Code) {
			if activeSet[dep] {
				blocking = append(blocking, dep)
			}
		}
		if len(blocking) > 0 {
			return domain.NewRuleError(domain.KindDependency,
				"no se puede desactivar %s: %s depende de él", module.Code, catalog.JoinCodes(blocking))
		}

		now := e.now()
		next := *current
		next.Status = entity.ActivationInactive
		next.DeactivatedAt = &now
		next.DeactivatedBy = actorUserID
		if err := ledger.Upsert(ctx, &next); err != nil {
			return fmt.Errorf("guardar desactivación: %w", err)
		}
		row, message = &next, fmt.Sprintf("módulo %s desactivado", module.Code)
		return nil
	})
	return e.finish(opDeactivate, organizationID, moduleCode, actorUserID, row, message, err)
}

// lookup valida que el módulo exista en el catálogo y que la organización exista,
// y devuelve el plan vigente.
func (e *ActivationEngine) lookup(ctx context.Context, organizationID, moduleCode string) (entity.Module, resolvedPlan, error) {
	code, err := e.catalog.ParseModuleCode(moduleCode)
	if err != nil {
		return entity.Module{}, resolvedPlan{}, err
	}
	module, _ := e.catalog.Module(code)
	plan, err := e.resolver.planFor(ctx, organizationID)
	if err != nil {
		return entity.Module{}, resolvedPlan{}, err
	}
	return module, plan, nil
}

// authorize exige modules.manage al actor. Un super admin pasa esta puerta,
// pero nunca los límites del plan ni las dependencias.
func (e *ActivationEngine) authorize(ctx context.Context, organizationID, actorUserID string) error {
	actx, err := e.builder.Build(ctx, actorUserID, organizationID)
	if err != nil && domain.IsTransient(err) {
		return err
	}
	if !actx.Can(entity.PermissionModulesManage) {
		return domain.NewRuleError(domain.KindAuthorization,
			"el usuario %s no tiene el permiso %s en esta organización", actorUserID, entity.PermissionModulesManage)
	}
	return nil
}

// finish traduce el desenlace a ModuleActionResult, registra log y métricas.
func (e *ActivationEngine) finish(
	op, organizationID, moduleCode, actorUserID string,
	row *entity.ModuleActivation, message string, err error,
) (*dto.ModuleActionResult, error) {
	event := e.log.Info()
	outcome := "success"
	var result *dto.ModuleActionResult

	switch re, isRule := domain.AsRuleError(err); {
	case err == nil:
		result = &dto.ModuleActionResult{Success: true, Message: message, Data: toActivationResponse(row)}
	case isRule:
		outcome = string(re.Kind)
		event = e.log.Warn()
		message = re.Message
		result = &dto.ModuleActionResult{Success: false, Kind: string(re.Kind), Message: re.Message}
	default:
		e.metrics.ObserveModuleOperation(op, string(domain.KindTransient))
		e.log.Error().Err(err).
			Str("operation", op).
			Str("organization_id", organizationID).
			Str("module", moduleCode).
			Str("actor", actorUserID).
			Msg("fallo de infraestructura en el ledger de módulos")
		return nil, domain.Transient(err)
	}

	e.metrics.ObserveModuleOperation(op, outcome)
	event.
		Str("operation", op).
		Str("organization_id", organizationID).
		Str("module", moduleCode).
		Str("actor", actorUserID).
		Str("outcome", outcome).
		Msg(message)
	return result, nil
}

func toActivationResponse(a *entity.ModuleActivation) *dto.ModuleActivationResponse {
	if a == nil {
		return nil
	}
	return &dto.ModuleActivationResponse{
		OrganizationID: a.OrganizationID,
		ModuleCode:     string(a.ModuleCode),
		Status:         a.Status,
		ActivatedAt:    a.ActivatedAt,
		ActivatedBy:    a.ActivatedBy,
		DeactivatedAt:  a.DeactivatedAt,
		DeactivatedBy:  a.DeactivatedBy,
	}
}
