// Package report reads ticket reports into reconciliation items and writes
// them back out with the scan results.
//
// # Loading
//
// Load accepts CSV and XLSX files. The first non-blank row holds the headers,
// which DetectColumns maps to seven roles (code, branch, seller id, seller
// name, payment date, prize amount, prize type) using ordered alias lists and
// a keyword fallback. Rows without a code are dropped, repeated codes keep
// their first occurrence and malformed rows are collected in Report.Errors.
//
// # Export
//
// Export copies the report and appends either a VALIDADO marker column or the
// full ESTADO_ESCANEO, FECHA_ESCANEO and ESCANEOS_REALIZADOS columns. A file
// written by Export can be loaded again with LoadOptions.RestoreMarkers to
// continue counting where the previous session stopped.
package report
