package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/entitlements-api/internal/domain/catalog"
	"github.com/jhoicas/entitlements-api/internal/infrastructure/catalogfile"
	"github.com/jhoicas/entitlements-api/internal/infrastructure/postgres"
	"github.com/jhoicas/entitlements-api/internal/infrastructure/resilience"
)

func newCatalogCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Valida y siembra el catálogo de planes, módulos y permisos",
	}
	cmd.AddCommand(newCatalogValidateCmd(app))
	cmd.AddCommand(newCatalogSeedCmd(app))
	return cmd
}

// loadCatalog lee el archivo y aplica las mismas validaciones que el arranque de la API.
func (a *App) loadCatalog() (*catalog.Catalog, error) {
	data, err := catalogfile.Load(a.Config.Store.CatalogFile)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.New(data.Catalog)
	if err != nil {
		return nil, err
	}
	if _, ok := cat.Plan(a.Config.Entitlement.DefaultPlan); !ok {
		return nil, fmt.Errorf("el plan por defecto %q no está en el catálogo", a.Config.Entitlement.DefaultPlan)
	}
	return cat, nil
}

func newCatalogValidateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Valida el archivo de catálogo (códigos únicos, dependencias sin ciclos, permisos)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := app.loadCatalog()
			if err != nil {
				return err
			}
			s := cat.Snapshot()
			fmt.Fprintf(app.Out, "catálogo válido: %d planes, %d módulos, %d permisos\n",
				len(s.Plans), len(s.Modules), len(s.Permissions))
			return nil
		},
	}
}

func newCatalogSeedCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Inserta o actualiza el catálogo del archivo en PostgreSQL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if app.Config.Store.Driver != "postgres" {
				return fmt.Errorf("catalog seed requiere --store postgres")
			}
			cat, err := app.loadCatalog()
			if err != nil {
				return err
			}
			pool, err := postgres.NewPool(cmd.Context(), app.Config.DB)
			if err != nil {
				return err
			}
			defer pool.Close()

			repo := postgres.NewCatalogRepository(pool, resilience.New(resilience.DefaultConfig("postgres"), nil))
			if err := repo.Seed(cmd.Context(), cat); err != nil {
				return err
			}
			app.Log.Info().Str("file", app.Config.Store.CatalogFile).Msg("catálogo sembrado")
			fmt.Fprintln(app.Out, "catálogo sembrado")
			return nil
		},
	}
}
