// Package validation validates API and CLI input structs using the validator/v10 library.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/listenupapp/bookfinder/internal/errors"
)

// TagGenreID is the custom tag for genre IDs. A genre ID must be non-empty
// and free of the characters used by the bracketed genre literal.
const TagGenreID = "genreid"

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator configured for our domain.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation(TagGenreID, validGenreID)

	return &Validator{v: v}
}

// Validate validates a struct and returns a domain validation error whose
// details map field names to messages.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

func validGenreID(fl validator.FieldLevel) bool {
	id := fl.Field().String()
	return id != "" && !strings.ContainsAny(id, `",[] `)
}

// formatError converts validator errors to domain errors.
func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make(map[string]string, len(validationErrs))
	fields := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		fieldErrors[e.Field()] = v.friendlyMessage(e)
		fields = append(fields, e.Field())
	}

	return domainerrors.ValidationWithDetails(
		"validation failed: "+strings.Join(fields, ", "),
		fieldErrors,
	)
}

func (v *Validator) friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", e.Param())
		}
		return "must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must not exceed %s characters", e.Param())
		}
		return "must not exceed " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "url":
		return "must be a valid URL"
	case TagGenreID:
		return "must be a genre id without quotes, commas, brackets or spaces"
	default:
		return "is invalid"
	}
}
