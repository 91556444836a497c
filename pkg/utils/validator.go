package utils

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their json name so errors line up with the
// request body and checkout metadata keys.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	return v
}

// ValidateStruct returns field -> message. Messages describe the rule only and
// never echo the submitted value; callers log them next to customer data.
func ValidateStruct(data any) map[string]string {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return map[string]string{"_": "Invalid input"}
	}

	out := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[fe.Field()] = ruleMessage(fe)
	}
	return out
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min", "max":
		return boundMessage(fe)
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "uuid", "uuid4":
		return "Must be a valid UUID"
	case "datetime":
		return "Must be a date in " + fe.Param() + " format"
	case "numeric":
		return "Must be a number"
	default:
		return "Invalid value"
	}
}

func boundMessage(fe validator.FieldError) string {
	least := fe.Tag() == "min"
	switch fe.Kind() {
	case reflect.String:
		if least {
			return fmt.Sprintf("Minimum length is %s", fe.Param())
		}
		return fmt.Sprintf("Maximum length is %s", fe.Param())
	case reflect.Slice, reflect.Map:
		if least {
			return fmt.Sprintf("At least %s items", fe.Param())
		}
		return fmt.Sprintf("At most %s items", fe.Param())
	default:
		if least {
			return fmt.Sprintf("Must be at least %s", fe.Param())
		}
		return fmt.Sprintf("Must be at most %s", fe.Param())
	}
}

// FormatValidationErrors joins field messages in field order.
func FormatValidationErrors(errs map[string]string) string {
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, field := range fields {
		msgs = append(msgs, field+": "+errs[field])
	}
	return strings.Join(msgs, "; ")
}
