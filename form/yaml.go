package form

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ParseSchemaYAML decodes and validates a schema definition payload.
// The returned schema is normalized (defaults filled in).
func ParseSchemaYAML(data []byte) (*Schema, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("form: schema payload is empty")
	}
	var schema Schema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("form: decode schema: %w", err)
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return schema.Normalized(), nil
}

// LoadSchemaFile reads a YAML schema definition from disk.
func LoadSchemaFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("form: read %s: %w", path, err)
	}
	schema, err := ParseSchemaYAML(data)
	if err != nil {
		return nil, fmt.Errorf("form: %s: %w", path, err)
	}
	return schema, nil
}

// LoadFormFile builds a fresh form from a YAML schema file.
func LoadFormFile(path string) (*Form, error) {
	schema, err := LoadSchemaFile(path)
	if err != nil {
		return nil, err
	}
	return New(schema)
}
