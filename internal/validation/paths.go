// Package validation checks names taken from dashboard URLs before they
// touch the local filesystem.
package validation

import (
	"fmt"
	"strings"
)

// ValidateFilename rejects a filename (not a full path) that could escape
// the directory it is joined to: empty names, path separators of either
// platform, the literal "." and ".." entries, and null bytes.
//
// Names such as "foo..bar.txt" are allowed.
func ValidateFilename(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	if strings.ContainsRune(filename, 0) {
		return fmt.Errorf("filename contains null byte: %q", filename)
	}

	if strings.ContainsAny(filename, `/\`) {
		return fmt.Errorf("filename cannot contain path separators: %s", filename)
	}

	if filename == "." || filename == ".." {
		return fmt.Errorf("filename cannot be %q", filename)
	}

	return nil
}
