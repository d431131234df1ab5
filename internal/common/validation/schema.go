package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// cellGridDefinitions is shared by every envelope schema below.
const cellGridDefinitions = `
	"definitions": {
		"grid": {
			"type": "array",
			"items": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"value": {"type": ["string", "number", "boolean", "null"]}
					}
				}
			}
		},
		"namedRange": {
			"type": "object",
			"required": ["ref", "value"],
			"properties": {
				"ref":   {"type": "string"},
				"value": {"$ref": "#/definitions/grid"}
			}
		},
		"calculationRequest": {
			"type": "object",
			"required": ["inputs"],
			"properties": {
				"requestId": {"type": "string"},
				"inputs": {"type": "array", "items": {"$ref": "#/definitions/namedRange"}}
			}
		},
		"calculationResponse": {
			"type": "object",
			"required": ["outputs"],
			"properties": {
				"outputs": {"type": "array", "items": {"$ref": "#/definitions/namedRange"}}
			}
		}
	}`

// EnvelopeSchema describes the HTTP hook invocation body.
var EnvelopeSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["request", "response"],
	"properties": {
		"request":  {"$ref": "#/definitions/calculationRequest"},
		"response": {"$ref": "#/definitions/calculationResponse"}
	},` + cellGridDefinitions + `
}`

// JobVariablesSchema describes the Zeebe job variables of a hook job.
var JobVariablesSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["calculationRequest", "calculationResponse"],
	"properties": {
		"calculationRequest":  {"$ref": "#/definitions/calculationRequest"},
		"calculationResponse": {"$ref": "#/definitions/calculationResponse"}
	},` + cellGridDefinitions + `
}`

var (
	envelopeSchema     = mustCompile(EnvelopeSchema)
	jobVariablesSchema = mustCompile(JobVariablesSchema)
)

func mustCompile(schema string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic(fmt.Sprintf("invalid embedded schema: %v", err))
	}
	return s
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidateEnvelope validates a raw HTTP request body.
func ValidateEnvelope(body []byte) (*ValidationResult, error) {
	return validate(envelopeSchema, gojsonschema.NewBytesLoader(body))
}

// ValidateJobVariables validates decoded Zeebe job variables.
func ValidateJobVariables(vars map[string]interface{}) (*ValidationResult, error) {
	return validate(jobVariablesSchema, gojsonschema.NewGoLoader(vars))
}

func validate(schema *gojsonschema.Schema, doc gojsonschema.JSONLoader) (*ValidationResult, error) {
	result, err := schema.Validate(doc)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	errs := make([]ValidationError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errs = append(errs, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}

	return &ValidationResult{
		Valid:  result.Valid(),
		Errors: errs,
	}, nil
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// GetErrorsForField returns errors for a field and its children.
func (vr *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var fieldErrors []ValidationError
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") {
			fieldErrors = append(fieldErrors, err)
		}
	}
	return fieldErrors
}
