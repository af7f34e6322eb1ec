package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var costListLimit int

// costCmd represents the base command for cost operations.
var costCmd = &cobra.Command{
	Use:   "cost",
	Short: "View estimated provider usage costs",
	Long:  `Provides subcommands to list recorded billing sessions and view the estimated cost summary against the configured budget.`,
}

// costListCmd represents the command to list billing sessions.
var costListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded billing sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		sessions, err := appInstance.CostStore.ListSessions(cmd.Context(), costListLimit)
		if err != nil {
			return fmt.Errorf("failed to list billing sessions: %w", err)
		}

		if len(sessions) == 0 {
			fmt.Println("No billing sessions recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "Timestamp\tKind\tUnits\tRate\tCost")
		fmt.Fprintln(w, "---------\t----\t-----\t----\t----")
		for _, s := range sessions {
			fmt.Fprintf(w, "%s\t%s\t%.2f\t%.4f\t$%.4f\n",
				s.Timestamp.Format("2006-01-02 15:04:05"),
				s.Kind,
				s.Units,
				s.Rate,
				s.Cost,
			)
		}
		w.Flush()

		fmt.Printf("\nDisplayed %d session(s).\n", len(sessions))
		return nil
	},
}

// costSummaryCmd represents the command to view the cost summary.
var costSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show estimated total costs and remaining budget",
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		summary, err := appInstance.CostStore.Summary(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get cost summary: %w", err)
		}

		fmt.Println("Estimated Usage Cost Summary:")
		fmt.Println("-----------------------------")
		fmt.Printf("Video processing:  $%.4f\n", summary.VideoProcessing)
		fmt.Printf("Search queries:    $%.4f\n", summary.SearchQueries)
		fmt.Printf("Total cost:        $%.4f (%d sessions)\n", summary.TotalCost, summary.SessionCount)
		if summary.BudgetUSD > 0 {
			remaining := summary.BudgetRemaining()
			label := fmt.Sprintf("$%.4f", remaining)
			if remaining < 0 {
				label = color.RedString("%s (over budget)", label)
			} else {
				label = color.GreenString(label)
			}
			fmt.Printf("Budget remaining:  %s of $%.2f\n", label, summary.BudgetUSD)
		}
		fmt.Println("-----------------------------")
		fmt.Println("Estimates only; the provider invoice is authoritative.")

		return nil
	},
}

func init() {
	costCmd.AddCommand(costListCmd)
	costCmd.AddCommand(costSummaryCmd)

	costListCmd.Flags().IntVarP(&costListLimit, "limit", "l", 50, "Number of sessions to display")

	rootCmd.AddCommand(costCmd)
}
