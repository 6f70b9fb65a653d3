package cmd

import (
	"fmt"

	"scan-reconciler/core/config"
	"scan-reconciler/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	exportOut         string
	exportArchive     bool
	exportResultShape string
)

// exportCmd writes a report with the results of a saved session.
var exportCmd = &cobra.Command{
	Use:   "export <report> <snapshot>",
	Short: "Export a report with the scan results of a snapshot",
	Long: `Loads the report, applies the scan state stored in the snapshot and writes
the report with the result columns. The output format follows the extension
of --out (.csv or .xlsx); without --out a workbook is written to the results
directory.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.LoadConfig(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		l, err := logger.New(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer l.Sync()

		svc := newSessionService(ctx, cfg, openBackends(cfg, l), l)
		if _, err := svc.LoadReport(ctx, args[0]); err != nil {
			return err
		}
		restored, err := svc.RestoreSnapshot(ctx, args[1])
		if err != nil {
			return err
		}

		saved, err := svc.Export(ctx, exportOut, exportResultShape, exportArchive)
		if err != nil {
			return err
		}

		st := restored.Statistics
		l.Info("Results exported",
			zap.String("path", saved.Path),
			zap.String("shape", saved.Format),
			zap.String("archive_key", saved.ArchiveKey),
			zap.Int("total", st.Total),
			zap.Int("scanned", st.Scanned),
			zap.Int("duplicates", st.Duplicates),
			zap.Int("pending", st.Pending))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (.csv or .xlsx)")
	exportCmd.Flags().StringVar(&exportResultShape, "shape", "", "Result columns (marker or full)")
	exportCmd.Flags().BoolVar(&exportArchive, "archive", false, "Upload the export to the configured storage")

	RootCmd.AddCommand(exportCmd)
}
