package infrastructure

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	listing "bistroPulse/internal/modules/listing/domain"
)

// RecordValidator checks catalog records against their validate tags. Field errors are
// keyed by JSON name.
type RecordValidator struct {
	validate *validator.Validate
}

func NewRecordValidator() *RecordValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return &RecordValidator{validate: v}
}

// Validate implements port.Validator.
func (v *RecordValidator) Validate(entity listing.Entity) map[string]string {
	return fieldErrors(v.validate.Struct(entity))
}

// ValidateFields checks the named struct fields only.
func (v *RecordValidator) ValidateFields(entity listing.Entity, fields ...string) map[string]string {
	if len(fields) == 0 {
		return nil
	}
	return fieldErrors(v.validate.StructPartial(entity, fields...))
}

func fieldErrors(err error) map[string]string {
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return map[string]string{"_": err.Error()}
	}
	out := make(map[string]string, len(validationErrs))
	for _, fieldErr := range validationErrs {
		out[fieldErr.Field()] = describe(fieldErr)
	}
	return out
}

func describe(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fieldErr.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fieldErr.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fieldErr.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fieldErr.Param())
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fieldErr.Param(), " ", ", ")
	default:
		return "is invalid"
	}
}
