package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"balancete/internal/services"
)

// credentialFlags reads --email and --password, falling back to
// BALANCETE_PASSWORD so the password can stay out of shell history.
func credentialFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("email", "e", "", "Account email")
	cmd.Flags().StringP("password", "p", "", "Account password (default $BALANCETE_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
}

func credentials(cmd *cobra.Command) (email, password string) {
	email, _ = cmd.Flags().GetString("email")
	password, _ = cmd.Flags().GetString("password")
	if password == "" {
		password = os.Getenv("BALANCETE_PASSWORD")
	}
	return email, password
}

func describeIdentity(who services.Identity) string {
	if who.IsAdmin {
		return fmt.Sprintf("%s (administrator)", who.Email)
	}
	return fmt.Sprintf("%s (user %d)", who.Email, who.UserID)
}

func newRegisterCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}
			email, password := credentials(cmd)
			who, err := app.Sessions.Register(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Welcome, %s\n", describeIdentity(who))
			return nil
		},
	}
	credentialFlags(cmd)
	return cmd
}

func newLoginCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}
			email, password := credentials(cmd)
			who, err := app.Sessions.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", describeIdentity(who))
			return nil
		},
	}
	credentialFlags(cmd)
	return cmd
}

func newLogoutCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := rt.App(cmd.Context())
			if err != nil {
				return err
			}
			if err := app.Sessions.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show who is logged in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, who, err := rt.Identity(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), describeIdentity(who))
			return nil
		},
	}
}
