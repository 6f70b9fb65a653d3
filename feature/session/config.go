package session

// Config holds the settings of the interactive session workflow.
type Config struct {
	// ReportsDir is where reports named in HTTP load requests are read from.
	ReportsDir string `mapstructure:"reports_dir" default:"reports"`
	// ProgressDir receives snapshots saved without an explicit path.
	ProgressDir string `mapstructure:"progress_dir" default:"progress"`
	// ResultsDir receives exports written without an explicit path.
	ResultsDir string `mapstructure:"results_dir" default:"results"`
	// SnapshotFormat is the default snapshot format, full or compact.
	SnapshotFormat string `mapstructure:"snapshot_format" default:"full"`
	// ExportShape is the default export shape, marker or full.
	ExportShape string `mapstructure:"export_shape" default:"marker"`
	// AutoSaveEvery saves a snapshot after that many scans. 0 disables it.
	AutoSaveEvery int `mapstructure:"autosave_every" default:"0"`
	// AutoExport writes the results workbook when a session ends.
	AutoExport bool `mapstructure:"auto_export" default:"true"`
	// AuditEnabled persists every scan to the database.
	AuditEnabled bool `mapstructure:"audit_enabled" default:"false"`
	// RecentScans is the default length of the scan log tail.
	RecentScans int `mapstructure:"recent_scans" default:"10"`
}
