package validator

import (
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func oneOf(values ...string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		for _, allowed := range values {
			if v == allowed {
				return true
			}
		}
		return false
	}
}

func registerCustomValidations() {
	validate.RegisterValidation("room_type", oneOf("public", "private", "group"))
	validate.RegisterValidation("report_action", oneOf("delete_message", "dismiss"))
	validate.RegisterValidation("user_role", oneOf("student", "admin"))

	// Rejects whitespace-only strings
	validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": "Invalid request"}
	}

	errors := make(map[string]string)
	for _, err := range verrs {
		field := err.Field()
		switch err.Tag() {
		case "required", "notblank":
			errors[field] = "This field is required"
		case "email":
			errors[field] = "Invalid email format"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "ne":
			errors[field] = "Value must not be " + err.Param()
		case "url":
			errors[field] = "Invalid URL format"
		case "room_type":
			errors[field] = "Invalid room type. Must be: public, private, or group"
		case "report_action":
			errors[field] = "Invalid action. Must be: delete_message or dismiss"
		case "user_role":
			errors[field] = "Invalid role. Must be: student or admin"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// Messages flattens field errors into sorted "field: message" lines.
func Messages(fieldErrors map[string]string) []string {
	if len(fieldErrors) == 0 {
		return nil
	}
	out := make([]string, 0, len(fieldErrors))
	for field, msg := range fieldErrors {
		out = append(out, field+": "+msg)
	}
	sort.Strings(out)
	return out
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
