// Package logger builds the zap logger shared by the reconciliation CLI and
// the HTTP API.
//
// # Configuration
//
// Config is bound from the "log" section of the application config:
//   - Level: debug, info, warn, error. "debug" switches to zap's development preset.
//   - Format: console (colored levels, no stacktraces) or json.
//   - Output: comma separated sinks such as "stderr" or "stderr,logs/scan.log".
//
// # Correlation
//
// WithRayID tags an entry with the ray_id the HTTP middleware stores in the
// Fiber locals. ForSession tags it with the reconciliation session id so
// scans, snapshots and exports of one run can be grouped.
//
// # Usage
//
//	log, err := logger.New(&logger.Config{Level: "info", Format: "console", Output: "stderr"})
//	if err != nil {
//		return err
//	}
//	sessLog := logger.ForSession(log, sess.ID())
//	sessLog.Info("Report loaded", zap.Int("items", n))
//
//	// In a request handler:
//	logger.WithRayID(sessLog, c).Warn("Scan rejected", zap.Error(err))
package logger
