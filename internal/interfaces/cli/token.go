package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/entitlements-api/internal/bootstrap"
	"github.com/jhoicas/entitlements-api/pkg/jwt"
)

// newTokenCmd emite un Bearer token de desarrollo. La API no tiene login propio:
// el token solo autentica y la membresía se resuelve en cada petición.
func newTokenCmd(app *App) *cobra.Command {
	var organizationID string
	cmd := &cobra.Command{
		Use:   "token [user-id]",
		Short: "Genera un Bearer token firmado con JWT_SECRET",
		Long: `Genera un token para probar la API. Con --org verifica antes que el usuario
sea miembro activo de la organización.

Ejemplo:
  entitlementctl token user-admin --org org-demo --store memory`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID := args[0]
			if organizationID != "" {
				err := app.withServices(cmd.Context(), func(svc *bootstrap.Services) error {
					_, err := svc.PermissionUC.BuildContext(cmd.Context(), userID, organizationID)
					return err
				})
				if err != nil {
					return err
				}
			}
			token, err := jwt.Generate(app.Config.JWT.Secret, userID, app.Config.JWT.Issuer, app.Config.JWT.Expiration)
			if err != nil {
				return err
			}
			fmt.Fprintln(app.Out, token)
			return nil
		},
	}
	cmd.Flags().StringVar(&organizationID, "org", "", "organización en la que debe ser miembro")
	return cmd
}
