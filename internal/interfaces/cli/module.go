package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/entitlements-api/internal/application/dto"
	"github.com/jhoicas/entitlements-api/internal/bootstrap"
)

// ErrActionRejected la activación o desactivación fue rechazada por una regla de negocio.
var ErrActionRejected = errors.New("operación rechazada")

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status [organization-id]",
		Short: "Muestra plan, módulos activos y cupo de la organización",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withServices(cmd.Context(), func(svc *bootstrap.Services) error {
				out, err := svc.ModuleUC.Status(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return app.printJSON(out)
			})
		},
	}
}

// moduleCheck salida de check.
type moduleCheck struct {
	OrganizationID string `json:"organization_id"`
	Module         string `json:"module"`
	Active         bool   `json:"active"`
}

// ErrModuleInactive el módulo consultado con check no está activo.
var ErrModuleInactive = errors.New("módulo inactivo")

func newCheckCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "check [organization-id] [module]",
		Short: "Informa si un módulo está activo; sale con error si no lo está",
		Long: `Pensado para scripts de despliegue y jobs que dependen de un módulo.

Ejemplo:
  entitlementctl check org-demo crm --store memory && ./run-crm-sync`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withServices(cmd.Context(), func(svc *bootstrap.Services) error {
				active, err := svc.ModuleUC.HasActiveModule(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				if err := app.printJSON(moduleCheck{OrganizationID: args[0], Module: args[1], Active: active}); err != nil {
					return err
				}
				if !active {
					return fmt.Errorf("%w: %s en %s", ErrModuleInactive, args[1], args[0])
				}
				return nil
			})
		},
	}
}

func newActivateCmd(app *App) *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:   "activate [organization-id] [module]",
		Short: "Activa un módulo en nombre de un usuario con modules.manage",
		Long: `Activa un módulo validando dependencias y cupo del plan.

Ejemplos:
  entitlementctl activate org-demo hrm --actor user-admin
  entitlementctl activate org-demo payroll --actor user-admin --store memory`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withServices(cmd.Context(), func(svc *bootstrap.Services) error {
				out, err := svc.ModuleUC.Activate(cmd.Context(), args[0], args[1], actor)
				return app.printResult(out, err)
			})
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "", "usuario que ejecuta la operación")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}

func newDeactivateCmd(app *App) *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:   "deactivate [organization-id] [module]",
		Short: "Desactiva un módulo si ningún otro módulo activo lo requiere",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withServices(cmd.Context(), func(svc *bootstrap.Services) error {
				out, err := svc.ModuleUC.Deactivate(cmd.Context(), args[0], args[1], actor)
				return app.printResult(out, err)
			})
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "", "usuario que ejecuta la operación")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}

// printResult imprime el resultado y convierte un rechazo en error para el código de salida.
func (a *App) printResult(out *dto.ModuleActionResult, err error) error {
	if err != nil {
		return err
	}
	if err := a.printJSON(out); err != nil {
		return err
	}
	if !out.Success {
		return fmt.Errorf("%w (%s): %s", ErrActionRejected, out.Kind, out.Message)
	}
	return nil
}
