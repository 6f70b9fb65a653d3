package cmd

import (
	"fmt"
	"io"

	"scan-reconciler/core/config"
	"scan-reconciler/feature/report"

	"github.com/spf13/cobra"
)

var summaryJSON bool

// summaryCmd prints the content of a report before a session starts.
var summaryCmd = &cobra.Command{
	Use:   "summary <report>",
	Short: "Summarize a report file",
	Long:  `Shows row counts, detected columns, branch distribution, top sellers and prize totals of a report.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		rep, err := report.Load(args[0], cfg.Report.Options())
		if err != nil {
			return err
		}
		sum := report.Summarize(rep)

		out := cmd.OutOrStdout()
		if summaryJSON {
			return printJSON(out, sum)
		}
		printSummary(out, rep, sum)
		return nil
	},
}

func printSummary(out io.Writer, rep *report.Report, sum report.Summary) {
	fmt.Fprintf(out, "\n=== Report %s ===\n", rep.Path)
	fmt.Fprintf(out, "Rows: %d\n", sum.Rows)
	fmt.Fprintf(out, "Unique codes: %d\n", sum.UniqueCodes)
	fmt.Fprintf(out, "Blank codes: %d\n", sum.Blank)
	fmt.Fprintf(out, "Repeated codes: %d\n", sum.Duplicates)
	fmt.Fprintf(out, "Row errors: %d\n", sum.Errors)
	if rep.Restored > 0 {
		fmt.Fprintf(out, "Already scanned: %d\n", rep.Restored)
	}

	fmt.Fprintln(out, "\nColumns:")
	for _, role := range report.Roles() {
		if h, ok := sum.Columns[role]; ok {
			fmt.Fprintf(out, "  %-13s %s\n", role, h)
		}
	}

	fmt.Fprintln(out, "\nBranches:")
	for _, c := range sum.Branches {
		fmt.Fprintf(out, "  %-20s %d\n", c.Name, c.Count)
	}

	fmt.Fprintln(out, "\nTop sellers:")
	for _, c := range sum.TopSellers {
		fmt.Fprintf(out, "  %-30s %d\n", c.Name, c.Count)
	}

	fmt.Fprintln(out, "\nPrizes:")
	fmt.Fprintf(out, "  Total:   %s\n", sum.PrizeTotal.StringFixed(2))
	fmt.Fprintf(out, "  Average: %s\n", sum.PrizeAverage.StringFixed(2))
	fmt.Fprintf(out, "  Max:     %s\n", sum.PrizeMax.StringFixed(2))
	fmt.Fprintf(out, "  Min:     %s\n", sum.PrizeMin.StringFixed(2))

	for _, e := range rep.Errors {
		fmt.Fprintf(out, "! %s\n", e)
	}
}

func init() {
	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "Print the summary as JSON")

	RootCmd.AddCommand(summaryCmd)
}
