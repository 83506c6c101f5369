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
		displayName := formatFieldName(fieldName)
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s is required", displayName),
		}
	}
	return nil
}

// formatFieldName converts camelCase field names to space-separated words
// for more readable error messages (e.g., "rootDir" -> "root directory")
func formatFieldName(fieldName string) string {
	replacements := map[string]string{
		"rootDir":  "root directory",
		"filename": "filename",
		"runID":    "run ID",
		"since":    "since",
	}

	if formatted, ok := replacements[fieldName]; ok {
		return formatted
	}

	return fieldName
}

// ValidateDirectory checks that path names an existing directory
func ValidateDirectory(fieldName, path string) error {
	if err := ValidateRequired(fieldName, path); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s %s does not exist", formatFieldName(fieldName), path),
		}
	}
	if !info.IsDir() {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s %s is not a directory", formatFieldName(fieldName), path),
		}
	}
	return nil
}
