package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"scan-reconciler/core/config"
	"scan-reconciler/core/logger"
	"scan-reconciler/core/reconcile"
	"scan-reconciler/core/utils"
	"scan-reconciler/feature/session"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the scan command
	resumeFrom     string
	snapshotFormat string
	exportShape    string
	archiveFiles   bool
)

// scanCmd runs an interactive scanning session on the terminal.
var scanCmd = &cobra.Command{
	Use:   "scan [report]",
	Short: "Scan tickets against a report interactively",
	Long: `Loads a CSV or XLSX report and reads one scanner input per line from stdin.

Lines starting with ':' are commands:
  :stats          show the statistics
  :pending [n]    list the first n pending items (default 20)
  :recent [n]     show the last n scans
  :save           save progress to the progress directory
  :export [path]  write the report with scan results
  :reset          discard the session and exit without saving
  :quit           end the session, export the results and exit

End of input and Ctrl+C save progress and end the session like :quit.

Examples:
  # Start a new session
  scan-reconciler scan reporte.xlsx

  # Continue from saved progress, applying a compact snapshot to the report
  scan-reconciler scan reporte.xlsx --resume progress/reporte_PROGRESO_20240105_101500.json

  # Continue from a full snapshot alone
  scan-reconciler scan --resume progress/reporte_PROGRESO_20240105_101500.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&resumeFrom, "resume", "", "Snapshot file to continue from")
	scanCmd.Flags().StringVar(&snapshotFormat, "format", "", "Snapshot format for :save (full or compact)")
	scanCmd.Flags().StringVar(&exportShape, "shape", "", "Export shape for :export (marker or full)")
	scanCmd.Flags().BoolVar(&archiveFiles, "archive", false, "Upload snapshots and exports to the configured storage")

	RootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && resumeFrom == "" {
		return fmt.Errorf("a report file or --resume snapshot is required")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := newSessionService(ctx, cfg, openBackends(cfg, l), l)
	if len(args) == 1 {
		res, err := svc.LoadReport(ctx, args[0])
		if err != nil {
			return err
		}
		l.Info("Report ready",
			zap.Int("items", res.Items),
			zap.Int("restored", res.Restored),
			zap.Int("row_errors", len(res.Errors)))
	}
	if resumeFrom != "" {
		res, err := svc.RestoreSnapshot(ctx, resumeFrom)
		if err != nil {
			return err
		}
		if res.Ended {
			return fmt.Errorf("snapshot %s belongs to a session that already ended", resumeFrom)
		}
	}

	desk := &scanDesk{
		svc:    svc,
		out:    cmd.OutOrStdout(),
		logger: l,
	}
	return desk.run(ctx, cmd.InOrStdin())
}

// scanDesk reads scanner input and commands line by line.
type scanDesk struct {
	svc    *session.Service
	out    io.Writer
	logger *zap.Logger
}

func (d *scanDesk) run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	d.printStats()
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(d.out)
			return d.finish(context.Background(), true)
		case line, ok := <-lines:
			if !ok {
				return d.finish(ctx, true)
			}
			done, err := d.handle(ctx, strings.TrimSpace(line))
			if err != nil {
				fmt.Fprintf(d.out, "error: %v\n", err)
			}
			if done {
				return nil
			}
		}
	}
}

// handle processes one input line and reports whether the desk should stop.
func (d *scanDesk) handle(ctx context.Context, line string) (bool, error) {
	if line == "" {
		return false, nil
	}
	if !strings.HasPrefix(line, ":") {
		res, err := d.svc.Scan(ctx, line)
		if err != nil {
			return false, err
		}
		d.printResult(res)
		return false, nil
	}

	fields := strings.Fields(line[1:])
	if len(fields) == 0 {
		return false, nil
	}
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch fields[0] {
	case "stats", "s":
		d.printStats()
	case "pending", "p":
		items, err := d.svc.PendingItems()
		if err != nil {
			return false, err
		}
		n := countArg(arg, 20)
		for i, item := range items {
			if i == n {
				fmt.Fprintf(d.out, "  ... %d more\n", len(items)-n)
				break
			}
			fmt.Fprintf(d.out, "  %s  %s  %s\n", item.Code, item.Branch, item.SellerName)
		}
		fmt.Fprintf(d.out, "%d pending\n", len(items))
	case "recent", "r":
		scans, err := d.svc.RecentScans(countArg(arg, 0))
		if err != nil {
			return false, err
		}
		for _, res := range scans {
			d.printResult(res)
		}
	case "save":
		saved, err := d.svc.SaveSnapshot(ctx, "", snapshotFormat, archiveFiles)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(d.out, "progress saved to %s\n", saved.Path)
	case "export", "e":
		saved, err := d.svc.Export(ctx, arg, exportShape, archiveFiles)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(d.out, "results written to %s\n", saved.Path)
	case "reset":
		d.svc.Reset()
		fmt.Fprintln(d.out, "session discarded")
		return true, nil
	case "quit", "q", "exit":
		return true, d.finish(ctx, false)
	default:
		return false, fmt.Errorf("unknown command %q", fields[0])
	}
	return false, nil
}

// finish ends the session. With save set, progress is written first so an
// interrupted desk can be resumed.
func (d *scanDesk) finish(ctx context.Context, save bool) error {
	if !d.svc.Active() {
		return nil
	}
	if save {
		if saved, err := d.svc.SaveSnapshot(ctx, "", snapshotFormat, archiveFiles); err != nil {
			d.logger.Error("Failed to save progress", zap.Error(err))
		} else {
			fmt.Fprintf(d.out, "progress saved to %s\n", saved.Path)
		}
	}

	res, err := d.svc.End(ctx)
	if err != nil {
		return err
	}
	st := res.Statistics
	fmt.Fprintf(d.out, "session %s ended after %s: %d/%d scanned (%.2f%%), %d duplicates, %d pending\n",
		res.SessionID, res.Duration, st.Scanned, st.Total, st.ScannedPercentage, st.Duplicates, st.Pending)
	if res.ExportPath != "" {
		fmt.Fprintf(d.out, "results written to %s\n", res.ExportPath)
	}
	return nil
}

func (d *scanDesk) printResult(res reconcile.ScanResult) {
	var mark string
	switch res.Kind {
	case reconcile.ResultSuccess:
		mark = "OK "
	case reconcile.ResultDuplicate:
		mark = "DUP"
	default:
		mark = "???"
	}
	line := fmt.Sprintf("[%s] %s  %s", mark, res.Timestamp.Format("15:04:05"), res.Message)
	if res.Item != nil && res.Kind != reconcile.ResultNotFound {
		line += fmt.Sprintf("  (%s %s)", res.Item.Branch, res.Item.SellerName)
	}
	fmt.Fprintln(d.out, line)
}

func (d *scanDesk) printStats() {
	st, err := d.svc.Statistics()
	if err != nil {
		fmt.Fprintf(d.out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(d.out, "total %d | scanned %d (%.2f%%) | duplicates %d | pending %d\n",
		st.Total, st.Scanned, st.ScannedPercentage, st.Duplicates, st.Pending)
}

func countArg(s string, def int) int {
	if n := utils.ToInt(s); n > 0 {
		return n
	}
	return def
}
