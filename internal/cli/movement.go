package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"balancete/internal/core"
	"balancete/internal/services"
)

func condoFlag(cmd *cobra.Command) {
	cmd.Flags().Int64P("condo", "c", 0, "Condominium id")
	_ = cmd.MarkFlagRequired("condo")
}

func periodFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("month", "m", 0, "Month 1-12 (default any)")
	cmd.Flags().IntP("year", "y", 0, "Year (default any)")
	cmd.Flags().Bool("current", false, "Use the current month and year")
}

func periodFilter(cmd *cobra.Command) core.PeriodFilter {
	if current, _ := cmd.Flags().GetBool("current"); current {
		return services.CurrentPeriod(time.Now())
	}
	month, _ := cmd.Flags().GetInt("month")
	year, _ := cmd.Flags().GetInt("year")
	return core.PeriodFilter{Month: month, Year: year}
}

func kindLabel(k core.Kind) string {
	if k == core.Income {
		return color.GreenString("income")
	}
	return color.RedString("expense")
}

func newMovementCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "movement",
		Aliases: []string{"mv"},
		Short:   "Record and list income and expenses",
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Record a movement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, who, err := rt.Identity(cmd.Context())
			if err != nil {
				return err
			}
			condoID, _ := cmd.Flags().GetInt64("condo")
			kind, _ := cmd.Flags().GetString("kind")
			category, _ := cmd.Flags().GetString("category")
			description, _ := cmd.Flags().GetString("description")
			amount, _ := cmd.Flags().GetString("amount")
			date, _ := cmd.Flags().GetString("date")
			if date == "" {
				date = time.Now().Format(core.DateLayout)
			}

			m, err := app.Ledger.AddMovement(cmd.Context(), who, core.MovementInput{
				Kind:          strings.ToLower(kind),
				Category:      category,
				Description:   description,
				Amount:        amount,
				Date:          date,
				CondominiumID: condoID,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s %d: %s %s on %s\n",
				kindLabel(m.Kind), m.ID, m.Description, app.Money(m.Amount), m.Date.Display())
			return nil
		},
	}
	condoFlag(add)
	add.Flags().StringP("kind", "k", "", "income or expense")
	add.Flags().String("category", "", "Category name")
	add.Flags().StringP("description", "d", "", "Description")
	add.Flags().StringP("amount", "a", "", "Amount, e.g. 1500.00 or 1500,00")
	add.Flags().String("date", "", "Date as YYYY-MM-DD (default today)")
	for _, name := range []string{"kind", "category", "description", "amount"} {
		_ = add.MarkFlagRequired(name)
	}

	rm := &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete a movement",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "movement")
			if err != nil {
				return err
			}
			app, who, err := rt.Identity(cmd.Context())
			if err != nil {
				return err
			}
			condoID, _ := cmd.Flags().GetInt64("condo")
			if err := app.Ledger.RemoveMovement(cmd.Context(), who, condoID, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted movement %d\n", id)
			return nil
		},
	}
	condoFlag(rm)

	list := &cobra.Command{
		Use:   "list",
		Short: "List movements, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, who, err := rt.Identity(cmd.Context())
			if err != nil {
				return err
			}
			condoID, _ := cmd.Flags().GetInt64("condo")
			kind, _ := cmd.Flags().GetString("kind")
			category, _ := cmd.Flags().GetString("category")

			movements, err := app.Ledger.Movements(cmd.Context(), who, condoID, core.MovementFilter{
				PeriodFilter: periodFilter(cmd),
				Kind:         core.Kind(strings.ToLower(kind)),
				Category:     category,
			})
			if err != nil {
				return err
			}
			if len(movements) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No movements found")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tKIND\tCATEGORY\tDESCRIPTION\tAMOUNT")
			for _, m := range movements {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
					m.ID, m.Date.Display(), m.Kind, m.Category, m.Description, app.Money(m.Amount))
			}
			return tw.Flush()
		},
	}
	condoFlag(list)
	periodFlags(list)
	list.Flags().StringP("kind", "k", "", "Only income or expense")
	list.Flags().String("category", "", "Only this category (exact match)")

	cmd.AddCommand(add, rm, list)
	return cmd
}
