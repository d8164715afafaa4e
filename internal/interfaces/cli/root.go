// Package cli implementa entitlementctl, la herramienta de operación del motor de autorización.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jhoicas/entitlements-api/internal/bootstrap"
	"github.com/jhoicas/entitlements-api/pkg/config"
	"github.com/jhoicas/entitlements-api/pkg/logger"
)

// App estado compartido por los comandos.
type App struct {
	Config *config.Config
	Log    *logger.Logger
	Out    io.Writer
}

// NewRootCmd construye el árbol de comandos.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "entitlementctl",
		Short:         "Operación de planes, módulos y permisos por organización",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(app.Out)
	root.PersistentFlags().StringVar(&app.Config.Store.Driver, "store", app.Config.Store.Driver, "almacén: postgres | memory")
	root.PersistentFlags().StringVar(&app.Config.Store.CatalogFile, "catalog", app.Config.Store.CatalogFile, "archivo YAML del catálogo")

	root.AddCommand(newStatusCmd(app))
	root.AddCommand(newCheckCmd(app))
	root.AddCommand(newActivateCmd(app))
	root.AddCommand(newDeactivateCmd(app))
	root.AddCommand(newCatalogCmd(app))
	root.AddCommand(newTokenCmd(app))
	return root
}

// withServices abre el almacén, construye el motor y ejecuta fn.
func (a *App) withServices(ctx context.Context, fn func(svc *bootstrap.Services) error) error {
	if err := a.Config.Validate(); err != nil {
		return err
	}
	stores, err := bootstrap.OpenStores(ctx, a.Config, a.Log, nil)
	if err != nil {
		return err
	}
	defer stores.Close()
	svc, err := bootstrap.NewServices(ctx, a.Config, stores, a.Log, nil)
	if err != nil {
		return err
	}
	return fn(svc)
}

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.Out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("escribir salida: %w", err)
	}
	return nil
}
