package render

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

func configureValidator(validate *validator.Validate) {
	validate.RegisterTagNameFunc(useJSONTagNames)
}

// Report fields by 'json' tag name instead of struct field name
func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}

// User-friendly message for failed validation tag
func fieldMessage(fieldError validator.FieldError) string {
	switch fieldError.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return fmt.Sprintf("Value is too short (minimum %s)", fieldError.Param())
	case "max":
		return fmt.Sprintf("Value is too long (maximum %s)", fieldError.Param())
	case "uuid":
		return "Value must be a valid UUID"
	case "email":
		return "Value must be a valid email"
	default:
		return "Invalid value"
	}
}
