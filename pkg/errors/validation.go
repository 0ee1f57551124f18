package errors

import (
	"strings"
	"unicode"
)

// ValidateOutputFilename checks that name is a plain file name that can be
// placed under the target directory. Path separators are rejected so the
// artifact always lands inside the target directory.
func ValidateOutputFilename(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "output filename cannot be empty")
	}
	if len(name) > 255 {
		return New(ErrCodeInvalidInput, "output filename too long (max 255 characters)")
	}
	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidInput, "output filename cannot contain path separators: %q", name)
	}
	if name == "." || name == ".." {
		return New(ErrCodeInvalidInput, "invalid output filename: %q", name)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "output filename contains invalid control characters")
		}
	}
	return nil
}

// ValidateFlowName checks a flow name given on the command line.
// Mule accepts almost any character in flow names (APIkit generates names
// like "get:\customers:api-config"), so only blank names and control
// characters are rejected.
func ValidateFlowName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidFlowName, "flow name cannot be empty")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidFlowName, "flow name contains invalid control characters")
		}
	}
	return nil
}
