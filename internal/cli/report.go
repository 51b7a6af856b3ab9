package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"balancete/internal/core"
)

// balanceString colors a balance by sign.
func (a *App) balanceString(m core.Money) string {
	s := a.Money(m)
	if m.IsNegative() {
		return color.RedString(s)
	}
	return color.GreenString(s)
}

func describePeriod(f core.PeriodFilter) string {
	switch {
	case f.IsZero():
		return "all periods"
	case f.Month != 0 && f.Year != 0:
		return core.NewPeriod(f.Year, f.Month).Label
	case f.Month != 0:
		return fmt.Sprintf("month %02d of every year", f.Month)
	default:
		return fmt.Sprintf("year %d", f.Year)
	}
}

func (a *App) writeStatistics(w io.Writer, s core.Statistics) {
	fmt.Fprintf(w, "Income:     %s\n", a.Money(s.Income))
	fmt.Fprintf(w, "Expense:    %s\n", a.Money(s.Expense))
	fmt.Fprintf(w, "Balance:    %s\n", a.balanceString(s.Balance))
	fmt.Fprintf(w, "Movements:  %d\n", s.Count)
}

func newStatsCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show income, expense and balance of a condominium",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, who, err := rt.Identity(cmd.Context())
			if err != nil {
				return err
			}
			condoID, _ := cmd.Flags().GetInt64("condo")
			f := periodFilter(cmd)

			stats, err := app.Ledger.Statistics(cmd.Context(), who, condoID, f)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Condominium %d, %s\n", condoID, describePeriod(f))
			app.writeStatistics(out, stats)

			if breakdown, _ := cmd.Flags().GetBool("by-category"); breakdown {
				cats, err := app.Ledger.ByCategory(cmd.Context(), who, condoID, f)
				if err != nil {
					return err
				}
				fmt.Fprintln(out)
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "CATEGORY\tKIND\tAMOUNT")
				for _, c := range cats {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Name, c.Kind, app.Money(c.Amount))
				}
				return tw.Flush()
			}
			return nil
		},
	}
	condoFlag(cmd)
	periodFlags(cmd)
	cmd.Flags().Bool("by-category", false, "Also break totals down by category")
	return cmd
}

func newPeriodsCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "periods",
		Short: "List the months that have movements, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, who, err := rt.Identity(cmd.Context())
			if err != nil {
				return err
			}
			condoID, _ := cmd.Flags().GetInt64("condo")
			periods, err := app.Ledger.Periods(cmd.Context(), who, condoID)
			if err != nil {
				return err
			}
			if len(periods) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No movements yet")
				return nil
			}
			for _, p := range periods {
				fmt.Fprintln(cmd.OutOrStdout(), p.Label)
			}
			return nil
		},
	}
	condoFlag(cmd)
	return cmd
}

func newOverviewCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Show the totals of every condominium you can see",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, who, err := rt.Identity(cmd.Context())
			if err != nil {
				return err
			}
			f := periodFilter(cmd)
			rows, err := app.Ledger.Overview(cmd.Context(), who, f)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No condominiums yet")
				return nil
			}

			fmt.Fprintf(out, "Overview, %s\n", describePeriod(f))
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tINCOME\tEXPENSE\tBALANCE\tMOVEMENTS")
			for _, r := range rows {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\n", r.ID, r.Name,
					app.Money(r.Statistics.Income), app.Money(r.Statistics.Expense),
					app.balanceString(r.Statistics.Balance), r.Statistics.Count)
			}
			return tw.Flush()
		},
	}
	periodFlags(cmd)
	return cmd
}

func newCategoryCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "List and add movement categories",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List categories",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				app, err := rt.App(cmd.Context())
				if err != nil {
					return err
				}
				for _, c := range app.Ledger.Categories(cmd.Context()) {
					fmt.Fprintln(cmd.OutOrStdout(), c)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "add NAME",
			Short: "Add a category",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				app, _, err := rt.Identity(cmd.Context())
				if err != nil {
					return err
				}
				added, err := app.Ledger.AddCategory(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !added {
					color.New(color.FgYellow).Fprintf(cmd.OutOrStdout(), "Category %q is blank or already exists\n", args[0])
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added category %s\n", args[0])
				return nil
			},
		},
	)
	return cmd
}
