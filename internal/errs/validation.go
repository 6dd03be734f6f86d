package errs

import (
	"fmt"
	"strings"
)

// FieldError points at a single offending input field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError describes rejected input. It matches ErrValidation via errors.Is.
type ValidationError struct {
	Msg    string
	Fields []FieldError
}

// Invalidf builds a ValidationError with a formatted message.
func Invalidf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// InvalidFields builds a ValidationError from field-level failures.
func InvalidFields(fields ...FieldError) error {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("validation")
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	for i, f := range e.Fields {
		if i == 0 && e.Msg == "" {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(f.Field)
		b.WriteString(" ")
		b.WriteString(f.Error)
	}
	return b.String()
}

// Is reports ErrValidation as the sentinel for every ValidationError.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
