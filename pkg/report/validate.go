package report

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/report.schema.json
var schemaJSON []byte

// ErrInvalidReport is returned when a report does not match the schema.
var ErrInvalidReport = errors.New("invalid report")

// Schema returns the JSON schema reports are validated against.
func Schema() []byte {
	return schemaJSON
}

// Validate checks a JSON-encoded report against the embedded schema.
func Validate(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidReport, err)
	}

	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, resultErr := range result.Errors() {
		msgs = append(msgs, resultErr.String())
	}

	return fmt.Errorf("%w: %s", ErrInvalidReport, strings.Join(msgs, "; "))
}
