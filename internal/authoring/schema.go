package authoring

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schemas the model's output must satisfy. Embedded in the prompt and
// enforced on the response.
const (
	skillsSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["skills"],
  "properties": {
    "skills": {"type": "array", "items": {"type": "string"}}
  }
}`

	requirementsSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["requirements"],
  "properties": {
    "requirements": {"type": "array", "items": {"type": "string"}}
  }
}`

	enhanceSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["description"],
  "properties": {
    "description": {"type": "string", "minLength": 1}
  }
}`
)

// validateAgainst checks raw model output against a schema.
func validateAgainst(schema, raw string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewStringLoader(raw))
	if err != nil {
		return fmt.Errorf("model output is not valid JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("model output failed schema validation:")
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		sb.WriteString(fmt.Sprintf(" %s: %s;", field, desc.Description()))
	}
	return fmt.Errorf("%s", strings.TrimSuffix(sb.String(), ";"))
}
