package storage

import "testing"

func TestExportExtension(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"structured-json", "json"},
		{"tabular-csv", "csv"},
		{"tabular-excel", "xlsx"},
		{"subtitles-only", "json"},
		{"scene-summary", "json"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			if got := exportExtension(tt.format); got != tt.want {
				t.Errorf("exportExtension(%q) = %q, want %q", tt.format, got, tt.want)
			}
		})
	}
}

func TestExportContentType(t *testing.T) {
	if got := exportContentType("tabular-csv"); got != "text/csv" {
		t.Errorf("Expected text/csv, got %s", got)
	}
	if got := exportContentType("structured-json"); got != "application/json" {
		t.Errorf("Expected application/json, got %s", got)
	}
}
