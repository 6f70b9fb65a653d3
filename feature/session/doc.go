// Package session implements the interactive reconciliation workflow.
//
// A Service holds at most one reconcile.Session together with the report it
// was loaded from. It adds the file conventions of the scanning desk on top of
// the core aggregate:
//
//   - Snapshots saved without a path go to <progress_dir>/<report>_PROGRESO_<timestamp>.json.
//   - Exports written without a path go to <results_dir>/<report>_RESULTADOS_<timestamp>.xlsx.
//   - Ending a session writes <results_dir>/<report>_AUTO_<timestamp>.xlsx when auto export is on.
//
// Scans can be recorded in the database through an Auditor, and snapshots and
// exports uploaded to object storage through an Archive.
//
// # HTTP Endpoints
//
//   - GET  /session            : Active session info.
//   - POST /session/load       : Load a report file and start a session.
//   - POST /session/items      : Start a session from records in the body.
//   - POST /session/scan       : Process one scanner input.
//   - GET  /session/statistics : Current statistics.
//   - GET  /session/pending    : Items not scanned yet.
//   - GET  /session/scans      : Tail of the scan log.
//   - GET  /session/summary    : Summary of the loaded report.
//   - GET  /session/audit      : Persisted scan history.
//   - POST /session/snapshot   : Save progress.
//   - POST /session/restore    : Restore progress.
//   - POST /session/end        : End the session.
//   - POST /session/export     : Write the report with scan results.
//   - POST /session/reset      : Discard the session.
package session
