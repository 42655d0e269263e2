package common

import (
	"fmt"
	"slices"
	"strings"
)

// ValidateOutputFormat checks a requested output format against the
// configured allow-list. An empty allow-list accepts any format.
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil
	}
	if slices.Contains(supportedFormats, format) {
		return nil
	}
	return fmt.Errorf("unknown output format %q (supported: %s)",
		format, strings.Join(supportedFormats, ", "))
}

// GetSupportedFormats returns the configured format allow-list, for flag
// completion and error messages.
func GetSupportedFormats(supportedFormats []string) []string {
	return supportedFormats
}
