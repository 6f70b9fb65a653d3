package report

import "strings"

// Config holds report loading settings.
type Config struct {
	AllowedExtensions string `mapstructure:"allowed_extensions" default:".csv,.xlsx,.xls"`
	Sheet             string `mapstructure:"sheet" default:""`
	RestoreMarkers    bool   `mapstructure:"restore_markers" default:"true"`
}

// Extensions returns the allowed extensions, lower-cased with a leading dot.
func (c Config) Extensions() []string {
	var out []string
	for _, ext := range strings.Split(c.AllowedExtensions, ",") {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

// Options converts the configuration into load options.
func (c Config) Options() LoadOptions {
	return LoadOptions{
		Extensions:     c.Extensions(),
		Sheet:          c.Sheet,
		RestoreMarkers: c.RestoreMarkers,
	}
}
