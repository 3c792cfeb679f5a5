package middleware

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Input validation and sanitization utilities

// CaptureExtensions are the accepted upload suffixes.
var CaptureExtensions = []string{".pcap", ".pcapng"}

// ValidateCaptureName checks the upload name ends in a capture suffix,
// case-insensitively.
func ValidateCaptureName(name string) error {
	if name == "" {
		return fmt.Errorf("no file uploaded")
	}
	ext := strings.ToLower(path.Ext(name))
	for _, allowed := range CaptureExtensions {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("only .pcap and .pcapng files are allowed")
}

// SanitizeFilename strips directories and control characters from an
// uploaded file name.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(SanitizeString(name))
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 && r != 127 {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// ValidateAnalysisID checks the id is a UUID as generated by the stores.
func ValidateAnalysisID(id string) error {
	if id == "" {
		return fmt.Errorf("analysis ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid analysis ID format")
	}
	return nil
}
