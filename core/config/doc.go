// Package config loads the settings of the scan reconciler.
//
// Values come from struct tag defaults and environment variables. A .env file
// in the working directory is loaded over the environment. Nested keys
// map to upper-case variables with dots replaced by underscores, so
// scan.code_length is set by SCAN_CODE_LENGTH.
//
// # Configuration Structure
//
//   - Server: HTTP listen address, API key and Swagger UI
//   - Log: level, encoding and output paths
//   - Database: audit database driver (sqlite or mysql) and connection
//   - Storage: S3/MinIO archive of snapshots and exports
//   - Scan: code length used to normalize scanner input
//   - Report: accepted extensions, worksheet and marker restore
//   - Session: reports, progress and results directories, formats, auto-save, auto-export and audit
package config
