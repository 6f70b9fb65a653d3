package cmd

import (
	"fmt"
	"time"

	"scan-reconciler/core/config"
	"scan-reconciler/core/reconcile"
	"scan-reconciler/feature/report"

	"github.com/spf13/cobra"
)

var (
	convertTo     string
	convertReport string
)

// snapshotCmd is the parent command for progress file operations.
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Inspect and convert progress snapshots",
}

// snapshotInspectCmd prints the session stored in a snapshot.
var snapshotInspectCmd = &cobra.Command{
	Use:   "inspect <snapshot>",
	Short: "Show the session and statistics stored in a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, format, err := reconcile.RestoreSnapshot(args[0], nil)
		if err != nil {
			return err
		}

		info := struct {
			Format     reconcile.SnapshotFormat `json:"format"`
			SessionID  string                   `json:"session_id"`
			StartedAt  time.Time                `json:"started_at"`
			EndedAt    *time.Time               `json:"ended_at"`
			ReportPath string                   `json:"report_path"`
			CodeLength int                      `json:"code_length"`
			Statistics reconcile.Statistics     `json:"statistics"`
		}{
			Format:     format,
			SessionID:  sess.ID(),
			StartedAt:  sess.StartedAt(),
			EndedAt:    sess.EndedAt(),
			ReportPath: sess.ReportPath(),
			CodeLength: sess.CodeLength(),
			Statistics: sess.Statistics(),
		}
		return printJSON(cmd.OutOrStdout(), info)
	},
}

// snapshotConvertCmd rewrites a snapshot in another format.
var snapshotConvertCmd = &cobra.Command{
	Use:   "convert <input> <output>",
	Short: "Rewrite a snapshot as full or compact",
	Long: `Reads a snapshot in either format and writes it in the format given by --to.

A compact snapshot carries no item details. Pass --report to take them from
the report the session was loaded from when converting compact to full.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := reconcile.ParseFormat(convertTo)
		if err != nil {
			return err
		}

		var base *reconcile.Registry
		if convertReport != "" {
			cfg, err := config.LoadConfig(".")
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			rep, err := report.Load(convertReport, cfg.Report.Options())
			if err != nil {
				return err
			}
			if base, err = rep.Registry(); err != nil {
				return err
			}
		}

		sess, from, err := reconcile.RestoreSnapshot(args[0], base, reconcile.WithReportPath(convertReport))
		if err != nil {
			return err
		}
		if err := sess.SaveSnapshot(args[1], format); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s snapshot %s written as %s to %s\n", from, args[0], format, args[1])
		return nil
	},
}

func init() {
	snapshotConvertCmd.Flags().StringVar(&convertTo, "to", "full", "Output format (full or compact)")
	snapshotConvertCmd.Flags().StringVar(&convertReport, "report", "", "Report supplying item details for compact input")

	snapshotCmd.AddCommand(snapshotInspectCmd)
	snapshotCmd.AddCommand(snapshotConvertCmd)
	RootCmd.AddCommand(snapshotCmd)
}
