package validator

import (
	"reflect"
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

func registerCustomValidations() {
	// Brands the pricing model was trained on; anything else is rejected
	validate.RegisterValidation("brand", func(fl validator.FieldLevel) bool {
		brand := strings.ToLower(strings.TrimSpace(fl.Field().String()))
		validBrands := []string{"apple", "oneplus", "redmi", "samsung", "xiaomi", "other"}
		for _, b := range validBrands {
			if brand == b {
				return true
			}
		}
		return false
	})

	// Damage class validation
	validate.RegisterValidation("damage_class", func(fl validator.FieldLevel) bool {
		damage := fl.Field().String()
		validClasses := []string{"no_broken", "light_broken", "moderately_broken", "severe_broken"}
		for _, d := range validClasses {
			if damage == d {
				return true
			}
		}
		return false
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "email":
			errors[field] = "Invalid email format"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gt":
			errors[field] = "Value must be greater than " + err.Param()
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "brand":
			errors[field] = "Unknown brand. Must be: apple, oneplus, redmi, samsung, xiaomi, or other"
		case "damage_class":
			errors[field] = "Invalid damage class"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
