package config

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	slerrors "github.com/gxo-labs/scopelog/pkg/scopelog/v1/errors"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed scopelog_schema_v1.0.0.json
var schemaV1Bytes []byte

var (
	schemaV1   *gojsonschema.Schema
	schemaOnce sync.Once
	schemaErr  error
)

// loadSchema compiles the embedded schema once.
func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		if len(schemaV1Bytes) == 0 {
			schemaErr = slerrors.NewConfigError("embedded schema 'scopelog_schema_v1.0.0.json' is empty", nil)
			return
		}
		schemaV1, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaV1Bytes))
		if schemaErr != nil {
			schemaErr = slerrors.NewConfigError("failed to compile embedded schema 'scopelog_schema_v1.0.0.json'", schemaErr)
		}
	})
	return schemaV1, schemaErr
}

// ValidateWithSchema checks a YAML document against the embedded v1 schema.
func ValidateWithSchema(documentYAML []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return err
	}

	// gojsonschema validates JSON-like Go values, so the YAML is decoded
	// loosely first.
	var doc any
	if err := yaml.Unmarshal(documentYAML, &doc); err != nil {
		return slerrors.NewConfigError("failed to parse configuration YAML for schema validation", err)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return slerrors.NewConfigError("schema validation process failed", err)
	}
	if result.Valid() {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("configuration failed JSON schema validation:")
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "(root)" || field == "" {
			field = desc.Context().String()
		}
		fmt.Fprintf(&sb, "\n  - Field '%s': %s", field, desc.Description())
	}
	return slerrors.NewValidationError(sb.String(), nil)
}
