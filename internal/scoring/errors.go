package scoring

import (
	"fmt"
	"strings"
)

// CapabilityError indicates the scoring call itself failed (network, quota,
// provider error). Retryable by the queue.
type CapabilityError struct {
	Message string
	Cause   error
}

func (e *CapabilityError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CapabilityError) Unwrap() error {
	return e.Cause
}

// InvalidOutputError indicates the model returned something that is not
// parseable JSON at all.
type InvalidOutputError struct {
	Message string
	Cause   error
}

func (e *InvalidOutputError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InvalidOutputError) Unwrap() error {
	return e.Cause
}

// FieldError is a single schema violation at a specific field.
type FieldError struct {
	Field   string
	Message string
}

// SchemaViolationError indicates the model returned JSON that does not match
// the required breakdown shape.
type SchemaViolationError struct {
	Errors []FieldError
}

func (e *SchemaViolationError) Error() string {
	var sb strings.Builder
	sb.WriteString("score breakdown failed schema validation:")
	for _, fe := range e.Errors {
		sb.WriteString(fmt.Sprintf(" %s: %s;", fe.Field, fe.Message))
	}
	return strings.TrimSuffix(sb.String(), ";")
}
