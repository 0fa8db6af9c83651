package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/phrazzld/careerpath-api/internal/domain"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Table maps question id -> trait name -> answer option -> points.
type Table map[string]map[string]map[string]float64

// Format identifies the encoding of a scoring table file.
type Format string

// Supported table formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnsupportedFormat is returned for table files that are neither JSON nor YAML.
var ErrUnsupportedFormat = errors.New("unsupported scoring table format")

// tableSchema describes the only accepted table shape: nested objects down to
// numbers. Negative points are allowed; normalization clamps the result.
const tableSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "minProperties": 1,
  "additionalProperties": {
    "type": "object",
    "additionalProperties": {
      "type": "object",
      "additionalProperties": {
        "type": "number"
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(tableSchema)

// FormatFromPath infers the table format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// LoadTable reads and validates a scoring table file.
// Every failure is reported as a domain.ErrConfiguration.
func LoadTable(path string) (Table, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read scoring table: %v", domain.ErrConfiguration, err)
	}

	return ParseTable(data, format)
}

// ParseTable decodes and validates a scoring table.
func ParseTable(data []byte, format Format) (Table, error) {
	jsonData, err := toJSON(data, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("%w: scoring table is not valid JSON: %v", domain.ErrConfiguration, err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, fmt.Errorf("%w: scoring table shape: %s",
			domain.ErrConfiguration, strings.Join(errs, "; "))
	}

	var table Table
	if err := json.Unmarshal(jsonData, &table); err != nil {
		return nil, fmt.Errorf("%w: failed to decode scoring table: %v", domain.ErrConfiguration, err)
	}
	return table, nil
}

func toJSON(data []byte, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return data, nil
	case FormatYAML:
		var doc interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML scoring table: %w", err)
		}
		out, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to convert YAML scoring table: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Traits returns every trait name mentioned anywhere in the table.
func (t Table) Traits() map[string]struct{} {
	traits := make(map[string]struct{})
	for _, byTrait := range t {
		for trait := range byTrait {
			traits[trait] = struct{}{}
		}
	}
	return traits
}
