package contraptions

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed properties.schema.json
var propertiesSchemaSource string

var propertiesSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return jsonschema.CompileString("properties.schema.json", propertiesSchemaSource)
})

// propertiesExt lists the file extensions read from a configuration directory.
var propertiesExt = map[string]bool{
	".json": true,
	".yaml": true,
	".yml":  true,
}

// ParseProperties decodes and validates one properties document. YAML is
// accepted when yamlDoc is set; both forms are checked against the same
// JSON Schema.
func ParseProperties(raw []byte, yamlDoc bool, m *Materials) (Properties, error) {
	if yamlDoc {
		var doc any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("%w: yaml: %w", ErrInvalidProperties, err)
		}
		b, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("%w: yaml: %w", ErrInvalidProperties, err)
		}
		raw = b
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: json: %w", ErrInvalidProperties, err)
	}
	schema, err := propertiesSchema()
	if err != nil {
		return nil, fmt.Errorf("contraptions: compile properties schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProperties, err)
	}

	var cfg PropertiesConfig
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: json: %w", ErrInvalidProperties, err)
	}
	return NewProperties(cfg, m)
}

// ReadProperties reads one properties file.
func ReadProperties(path string, m *Materials) (Properties, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	return ParseProperties(raw, ext == ".yaml" || ext == ".yml", m)
}
