// Package utils provides common utility functions for the scan reconciler.
// It includes lenient type conversion helpers used when reading spreadsheet
// cells and decoding snapshot files whose fields may not have the expected type.
package utils
