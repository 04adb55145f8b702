package keywords

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed record.schema.json
var recordSchema string

var schemaLoader = gojsonschema.NewStringLoader(recordSchema)

// validate checks a decoded document against the record schema.
func validate(doc map[string]any) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validating record: %w", err)
	}
	if result.Valid() {
		return nil
	}

	fields := make([]string, 0, len(result.Errors()))
	keywordsInvalid := false
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		if field == "(root)" || strings.HasPrefix(field, "extracted_keywords") ||
			strings.Contains(desc.Description(), "extracted_keywords") {
			keywordsInvalid = true
		}
		fields = append(fields, FieldError{Field: field, Message: desc.Description()}.String())
	}

	cause := errors.New(strings.Join(fields, "; "))
	if keywordsInvalid {
		cause = fmt.Errorf("%w: %s", ErrMissingKeywords, strings.Join(fields, "; "))
	}
	return &MalformedInputError{Message: "schema validation failed", Cause: cause}
}
