// Package validate wraps go-playground/validator and converts its failures into errs.ValidationError.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/and161185/cadetcorps/internal/errs"
	"github.com/and161185/cadetcorps/internal/model"
)

// custom validation tags
const ymdTag = "ymd"

// Validator checks tagged input structs.
type Validator struct {
	v *validator.Validate
}

// New builds a Validator reporting JSON field names.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Use JSON tag names for errors instead of Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation(ymdTag, ymdValidation)
	return &Validator{v: v}
}

// Struct validates s and returns an error matching errs.ErrValidation on failure.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return errs.Invalidf("%v", err)
	}
	fields := make([]errs.FieldError, 0, len(ves))
	for _, fe := range ves {
		fields = append(fields, errs.FieldError{Field: fe.Field(), Error: describe(fe)})
	}
	return errs.InvalidFields(fields...)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case ymdTag:
		return "must be a calendar date (YYYY-MM-DD)"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must not be less than " + fe.Param()
	case "min":
		return "must have at least " + fe.Param() + " item(s)"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "email":
		return "must be a valid email"
	default:
		return fmt.Sprintf("failed %q", fe.Tag())
	}
}

// ymdValidation accepts real calendar dates only ("2024-02-30" is rejected).
func ymdValidation(fl validator.FieldLevel) bool {
	_, err := time.Parse(model.DateLayout, fl.Field().String())
	return err == nil
}
