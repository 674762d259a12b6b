package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Err flattens an invalid result into one error.
func (r *ValidationResult) Err() error {
	if r == nil || r.Valid {
		return nil
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
}

// Schema is a compiled JSON schema.
type Schema struct {
	schema *gojsonschema.Schema
}

func Compile(definition string) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(definition))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Schema{schema: s}, nil
}

func MustCompile(definition string) *Schema {
	s, err := Compile(definition)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks any JSON-marshalable document against the schema.
func (s *Schema) Validate(document interface{}) *ValidationResult {
	result, err := s.schema.Validate(gojsonschema.NewGoLoader(document))
	if err != nil {
		return &ValidationResult{
			Errors: []ValidationError{{Field: "(root)", Message: err.Error(), Code: "INVALID_DOCUMENT"}},
		}
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out
}

// ChartSpecSchema describes the loose shape accepted from generated text
// before it is decoded into a typed chart spec.
const ChartSpecSchema = `{
  "type": "object",
  "required": ["chartType", "dataField", "aggregation"],
  "properties": {
    "chartType": {"type": "string", "enum": ["pie", "line", "bar"]},
    "title": {"type": ["string", "null"]},
    "dataField": {"type": "string", "minLength": 1},
    "aggregation": {"type": "string", "enum": ["sum", "count", "average", "max", "min"]},
    "groupBy": {"type": ["string", "null"]},
    "timeGrouping": {"enum": ["daily", "weekly", "monthly", "quarterly", "yearly", "", null]},
    "sortBy": {"enum": ["value", "label", "none", "", null]},
    "sortOrder": {"enum": ["asc", "desc", "", null]},
    "limit": {"type": ["integer", "null"], "minimum": 0},
    "filters": {
      "type": ["object", "null"],
      "properties": {
        "category": {"type": ["string", "null"]},
        "dateRange": {"type": ["string", "null"]},
        "valueThreshold": {"type": ["number", "null"]}
      }
    },
    "visualization": {"type": ["object", "null"]},
    "insights": {"type": ["string", "null"]}
  }
}`

// ChartBundleSchema is the renderer contract.
const ChartBundleSchema = `{
  "type": "object",
  "required": ["chartType", "title", "series", "visualization"],
  "properties": {
    "chartType": {"type": "string", "enum": ["pie", "line", "bar"]},
    "title": {"type": "string"},
    "insights": {"type": "string"},
    "visualization": {"type": "object"},
    "series": {
      "type": "object",
      "required": ["kind", "field", "aggregation", "points"],
      "properties": {
        "kind": {"type": "string", "enum": ["category", "time", "single"]},
        "field": {"type": "string", "minLength": 1},
        "aggregation": {"type": "string"},
        "points": {
          "type": "array",
          "minItems": 1,
          "items": {
            "type": "object",
            "required": ["label", "value", "displayValue", "metadata"],
            "properties": {
              "label": {"type": "string"},
              "value": {"type": "number"},
              "displayValue": {"type": "string"},
              "metadata": {
                "type": "object",
                "required": ["originalKey", "field"],
                "properties": {
                  "originalKey": {"type": "string"},
                  "field": {"type": "string"}
                }
              }
            }
          }
        }
      }
    }
  }
}`

var (
	chartSpecSchema   = MustCompile(ChartSpecSchema)
	chartBundleSchema = MustCompile(ChartBundleSchema)
)

func ValidateChartSpec(document interface{}) *ValidationResult {
	return chartSpecSchema.Validate(document)
}

func ValidateChartBundle(bundle interface{}) *ValidationResult {
	return chartBundleSchema.Validate(bundle)
}
