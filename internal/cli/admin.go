package cli

import (
	"errors"
	"fmt"

	"pipe-rack-manager/internal/database"

	"github.com/spf13/cobra"
)

func newCreateAdminCommand(a *app) *cobra.Command {
	var email, password, name string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create the first administrator account",
		Long: `Creates an admin account and profile. Refuses when any admin profile
already exists; further admins are added from the web admin panel.
Email and password default to ADMIN_EMAIL and ADMIN_PASSWORD.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				email = a.cfg.AdminEmail
			}
			if password == "" {
				password = a.cfg.AdminPassword
			}
			user, err := database.SeedAdmin(a.db, email, password, name, a.logger.Named("seed"))
			if errors.Is(err, database.ErrAdminExists) {
				return fmt.Errorf("%w; add more admins from the admin panel", err)
			}
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), user)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Admin email")
	cmd.Flags().StringVar(&password, "password", "", "Admin password")
	cmd.Flags().StringVar(&name, "name", "Administrator", "Display name")
	return cmd
}
