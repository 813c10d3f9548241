package scoring

import (
	"github.com/xeipuuv/gojsonschema"
)

// breakdownSchema is the JSON Schema the model's output must satisfy. It is
// embedded in the prompt and enforced on the response; an out-of-range score
// or missing reasoning fails the whole attempt.
const breakdownSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["skillsMatch", "experienceFit", "educationMatch", "overallRecommendation"],
  "properties": {
    "skillsMatch": {"$ref": "#/definitions/categoryScore"},
    "experienceFit": {"$ref": "#/definitions/categoryScore"},
    "educationMatch": {"$ref": "#/definitions/categoryScore"},
    "overallRecommendation": {"type": "string", "minLength": 1}
  },
  "definitions": {
    "categoryScore": {
      "type": "object",
      "additionalProperties": false,
      "required": ["score", "reasoning"],
      "properties": {
        "score": {"type": "integer", "minimum": 0, "maximum": 100},
        "reasoning": {"type": "string", "minLength": 1}
      }
    }
  }
}`

// validateBreakdownJSON checks raw model output against breakdownSchema.
func validateBreakdownJSON(raw string) error {
	schemaLoader := gojsonschema.NewStringLoader(breakdownSchema)
	documentLoader := gojsonschema.NewStringLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &InvalidOutputError{Message: "score breakdown is not valid JSON", Cause: err}
	}
	if result.Valid() {
		return nil
	}

	fields := make([]FieldError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		fields = append(fields, FieldError{Field: field, Message: desc.Description()})
	}
	return &SchemaViolationError{Errors: fields}
}
