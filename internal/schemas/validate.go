// Package schemas validates decrypted snapshot documents against a JSON
// Schema before the rest of the run trusts their contents.
package schemas

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed snapshot_schema.json
var snapshotSchema string

// ValidationError reports the fields of a document that failed validation.
type ValidationError struct {
	Errors []FieldError
}

// FieldError is a single validation failure at a specific field.
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("snapshot validation failed:")
	for _, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("\n  %s: %s", err.Field, err.Message))
	}
	return sb.String()
}

// ValidateSnapshotDocument validates one decrypted course snapshot document.
func ValidateSnapshotDocument(document []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(snapshotSchema)
	documentLoader := gojsonschema.NewBytesLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("failed to run snapshot schema validation: %w", err)
	}
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}
