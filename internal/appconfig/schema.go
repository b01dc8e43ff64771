// internal/appconfig/schema.go
package appconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"go.yaml.in/yaml/v3"
)

var durationSchema = map[string]any{
	"oneOf": []any{
		map[string]any{"type": "string", "pattern": `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`},
		map[string]any{"type": "integer", "minimum": 0},
	},
}

var sizeSchema = map[string]any{
	"oneOf": []any{
		map[string]any{"type": "integer", "minimum": 1},
		map[string]any{"type": "string", "pattern": `(?i)^\s*[0-9]+\s*(b|k|kb|kib|m|mb|mib|g|gb|gib)?\s*(,\s*[0-9]+\s*(b|k|kb|kib|m|mb|mib|g|gb|gib)?\s*)*$`},
	},
}

// Schema describes every key a config file may set.
func Schema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"port":         map[string]any{"type": "integer", "minimum": 1, "maximum": 65535},
			"host":         map[string]any{"type": "string"},
			"headerSize":   map[string]any{"type": "integer", "minimum": 0},
			"dataSize":     map[string]any{"type": "integer", "minimum": 0},
			"runs":         map[string]any{"type": "integer", "minimum": 1},
			"chunkSizes":   map[string]any{"type": "array", "minItems": 1, "items": sizeSchema},
			"pause":        durationSchema,
			"startupDelay": durationSchema,
			"progress":     map[string]any{"type": "boolean"},
			"jsonMode":     map[string]any{"type": "boolean"},
			"debug":        map[string]any{"type": "boolean"},
			"logFile":      map[string]any{"type": "string"},
		},
	}
}

// ValidateFile checks a JSON or YAML config file against Schema.
func ValidateFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %q: %w", path, err)
	}

	var doc map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &doc)
	default:
		err = json.Unmarshal(raw, &doc)
	}
	if err != nil {
		return fmt.Errorf("parse config %q: %w", path, err)
	}
	if doc == nil {
		// an empty file sets nothing
		return nil
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(Schema()), gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var errs []string
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return fmt.Errorf("config %q failed validation: %s", path, strings.Join(errs, ", "))
}
