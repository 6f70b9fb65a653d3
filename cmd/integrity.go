package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"scan-reconciler/core/config"
	"scan-reconciler/core/logger"
	"scan-reconciler/feature/integrity"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	fixFlag  bool
	jsonFlag bool
)

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Check the directories, archive and audit database",
	Long:  `Checks that the reports, progress and results directories exist, that the snapshot archive bucket is reachable and that the scan audit table is complete.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd, true, true, true)
	},
}

// directoriesCmd represents the integrity directories command
var directoriesCmd = &cobra.Command{
	Use:   "directories",
	Short: "Check and fix the reports, progress and results directories",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd, true, false, false)
	},
}

// archiveCmd represents the integrity archive command
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Check and fix the snapshot archive bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd, false, true, false)
	},
}

// schemaCmd represents the integrity schema command
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Check and fix the scan audit table",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd, false, false, true)
	},
}

func init() {
	RootCmd.AddCommand(integrityCmd)
	integrityCmd.AddCommand(directoriesCmd, archiveCmd, schemaCmd)

	integrityCmd.PersistentFlags().BoolVar(&fixFlag, "fix", false, "Fix the problems found")
	integrityCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Print the reports as JSON")
}

func runIntegrityChecks(cmd *cobra.Command, dirs, archive, schema bool) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logg.Sync()

	svc := newIntegrityService(cfg, openBackends(cfg, logg), logg)
	report, err := integrityReport(cmd.Context(), svc, logg, dirs, archive, schema)
	if jsonFlag {
		if jerr := printJSON(cmd.OutOrStdout(), report); jerr != nil {
			return jerr
		}
	}
	return err
}

// integrityReport runs the selected checks, fixing problems when --fix is
// set. It keeps going after a failed check and returns the first error.
func integrityReport(ctx context.Context, svc *integrity.Service, logg *zap.Logger, dirs, archive, schema bool) (map[string]any, error) {
	report := make(map[string]any)
	var errs []error

	if dirs {
		logg.Info("Checking working directories...")
		missing, err := svc.CheckDirectories()
		switch {
		case err != nil:
			logg.Error("Directories check failed", zap.Error(err))
			errs = append(errs, err)
		case len(missing) == 0:
			logg.Info("Directories are present.")
		case fixFlag:
			if err := svc.FixDirectories(missing); err != nil {
				errs = append(errs, err)
			} else {
				logg.Info("Directories created successfully.")
				missing = nil
			}
		default:
			logg.Warn("Missing directories detected", zap.Strings("missing", missing))
			logg.Info("Run with --fix to create missing directories.")
		}
		report["directories"] = missing
	}

	if archive {
		logg.Info("Checking snapshot archive...")
		res, err := svc.CheckArchive(ctx)
		if err == nil && !res.Exists && fixFlag {
			if err = svc.FixArchive(ctx); err == nil {
				res, err = svc.CheckArchive(ctx)
			}
		}
		switch {
		case errors.Is(err, integrity.ErrArchiveDisabled):
			logg.Info("Archive disabled, skipped.")
		case err != nil:
			logg.Error("Archive check failed", zap.Error(err))
			errs = append(errs, err)
		case !res.Exists:
			logg.Warn("Archive bucket missing", zap.String("bucket", res.Bucket))
			logg.Info("Run with --fix to create the bucket.")
		default:
			logg.Info("Archive bucket is reachable.",
				zap.String("bucket", res.Bucket),
				zap.Int("sessions", len(res.Sessions)))
		}
		if res != nil {
			report["archive"] = res
		}
	}

	if schema {
		logg.Info("Checking scan audit schema...")
		res, err := svc.CheckSchema()
		if err == nil && !res.Matched && fixFlag {
			if err = svc.FixSchema(ctx); err == nil {
				res, err = svc.CheckSchema()
			}
		}
		switch {
		case errors.Is(err, integrity.ErrAuditDisabled):
			logg.Info("Scan audit disabled, skipped.")
		case err != nil:
			logg.Error("Schema check failed", zap.Error(err))
			errs = append(errs, err)
		case res.Matched:
			logg.Info("Audit schema matches expected definition.", zap.String("table", res.Table))
		default:
			logg.Warn("Audit schema mismatches found",
				zap.String("table", res.Table),
				zap.Strings("missing", res.MissingColumns))
			for _, e := range res.Errors {
				logg.Error("Inspection Error", zap.String("error", e))
			}
		}
		if res != nil {
			report["schema"] = res
		}
	}

	if len(errs) > 0 {
		return report, errs[0]
	}
	return report, nil
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
