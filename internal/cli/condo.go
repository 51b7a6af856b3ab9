package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"balancete/internal/core"
)

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, &core.ValidationError{Field: what, Reason: fmt.Sprintf("invalid %s id %q", what, s)}
	}
	return id, nil
}

func newCondoCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "condo",
		Aliases: []string{"condominium"},
		Short:   "Manage condominiums",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List the condominiums you can see",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				app, who, err := rt.Identity(cmd.Context())
				if err != nil {
					return err
				}
				condos := app.Ledger.Condominiums(cmd.Context(), who)
				if len(condos) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No condominiums yet")
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tMOVEMENTS\tOWNER")
				for _, c := range condos {
					fmt.Fprintf(tw, "%d\t%s\t%d\t%d\n", c.ID, c.Name, len(c.Movements), c.OwnerUserID)
				}
				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "add NAME",
			Short: "Create a condominium",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				app, who, err := rt.Identity(cmd.Context())
				if err != nil {
					return err
				}
				c, err := app.Ledger.CreateCondominium(cmd.Context(), who, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created condominium %d: %s\n", c.ID, c.Name)
				return nil
			},
		},
		&cobra.Command{
			Use:   "rename ID NAME",
			Short: "Rename a condominium",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0], "condominium")
				if err != nil {
					return err
				}
				app, who, err := rt.Identity(cmd.Context())
				if err != nil {
					return err
				}
				c, err := app.Ledger.RenameCondominium(cmd.Context(), who, id, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed condominium %d to %s\n", c.ID, c.Name)
				return nil
			},
		},
		&cobra.Command{
			Use:     "rm ID",
			Aliases: []string{"remove", "delete"},
			Short:   "Delete a condominium and all of its movements",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0], "condominium")
				if err != nil {
					return err
				}
				app, who, err := rt.Identity(cmd.Context())
				if err != nil {
					return err
				}
				if err := app.Ledger.DeleteCondominium(cmd.Context(), who, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted condominium %d\n", id)
				return nil
			},
		},
	)
	return cmd
}
