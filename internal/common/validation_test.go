package common

import (
	"testing"
)

func TestValidateOutputFormat(t *testing.T) {
	supported := []string{"json", "text", "markdown"}

	tests := []struct {
		name      string
		format    string
		supported []string
		wantErr   bool
		errText   string
	}{
		{name: "json accepted", format: "json", supported: supported},
		{name: "markdown accepted", format: "markdown", supported: supported},
		{
			name:      "unknown format rejected",
			format:    "xml",
			supported: supported,
			wantErr:   true,
			errText:   `unknown output format "xml" (supported: json, text, markdown)`,
		},
		{
			name:      "matching is case sensitive",
			format:    "JSON",
			supported: supported,
			wantErr:   true,
			errText:   `unknown output format "JSON" (supported: json, text, markdown)`,
		},
		{
			name:      "empty format rejected",
			format:    "",
			supported: supported,
			wantErr:   true,
		},
		{
			name:      "empty allow-list accepts anything",
			format:    "xml",
			supported: nil,
		},
		{
			name:      "single-entry allow-list",
			format:    "text",
			supported: []string{"json"},
			wantErr:   true,
			errText:   `unknown output format "text" (supported: json)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supported)

			if !tt.wantErr {
				if err != nil {
					t.Fatalf("ValidateOutputFormat(%q) = %v, want nil", tt.format, err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateOutputFormat(%q) = nil, want error", tt.format)
			}
			if tt.errText != "" && err.Error() != tt.errText {
				t.Errorf("error = %q, want %q", err.Error(), tt.errText)
			}
		})
	}
}

func TestGetSupportedFormats(t *testing.T) {
	got := GetSupportedFormats([]string{"json", "text"})
	if len(got) != 2 || got[0] != "json" || got[1] != "text" {
		t.Errorf("GetSupportedFormats returned %v", got)
	}
	if got := GetSupportedFormats(nil); len(got) != 0 {
		t.Errorf("GetSupportedFormats(nil) returned %v", got)
	}
}

func BenchmarkValidateOutputFormat(b *testing.B) {
	supported := []string{"json", "text", "markdown"}

	b.Run("accepted", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("json", supported)
		}
	})

	b.Run("rejected", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("xml", supported)
		}
	})
}
