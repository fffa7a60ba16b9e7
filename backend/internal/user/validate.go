package user

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/Amaan-N-K/suitemate/backend/pkg/errors"
)

var validate = validator.New()

// Validate checks that every preference dimension carries a usable value.
// Records that fail cannot be inserted into the preference tree.
func (r Record) Validate() error {
	if err := validate.Struct(r); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		fields := make([]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			fields = append(fields, formatFieldError(e))
		}
		return apperrors.NewValidationError(r.ID, fields)
	}
	return nil
}

// formatFieldError formats a single field validation error
func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.StructNamespace())
	field = strings.TrimPrefix(field, "record.")

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "gtefield":
		return fmt.Sprintf("%s must not be below %s", field, strings.ToLower(e.Param()))
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
