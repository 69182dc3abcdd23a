package application

import (
	"fmt"
	"os"
	"strings"
)

// ValidateRequired checks if a string field is non-empty (after trimming whitespace).
// Returns a ValidationError if the field is empty.
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s is required", fieldName),
		}
	}
	return nil
}

// ValidateDirectory checks that a path exists and is a directory.
func ValidateDirectory(fieldName, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("directory does not exist: %s", path),
		}
	}
	if !info.IsDir() {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("not a directory: %s", path),
		}
	}
	return nil
}
