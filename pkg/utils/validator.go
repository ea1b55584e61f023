package utils

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/turtacn/vaultgate/pkg/constants"
	"github.com/turtacn/vaultgate/pkg/errors"
)

var (
	defaultValidator = validator.New()
	matchFirstCap    = regexp.MustCompile("(.)([A-Z][a-z]+)")
	matchAllCap      = regexp.MustCompile("([a-z0-9])([A-Z])")
)

func init() {
	_ = defaultValidator.RegisterValidation("uuid_str", validateUUID)
	_ = defaultValidator.RegisterValidation("device_type", validateDeviceType)
}

// ValidateStruct validates a struct using the default validator.
// It returns an invalid_request APIError with per-field details if validation fails.
func ValidateStruct(s interface{}) errors.APIError {
	err := defaultValidator.Struct(s)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.ErrInvalidRequest(err.Error())
	}
	apiErr := errors.ErrInvalidRequest("validation failed")
	for _, fe := range validationErrors {
		apiErr.WithMetadata(toSnakeCase(fe.Field()), formatValidationError(fe))
	}
	return apiErr
}

// validateUUID is a custom validation function for UUID strings.
func validateUUID(fl validator.FieldLevel) bool {
	_, err := uuid.Parse(fl.Field().String())
	return err == nil
}

func validateDeviceType(fl validator.FieldLevel) bool {
	return slices.Contains(constants.DeviceTypes, fl.Field().String())
}

// formatValidationError creates a user-friendly error message for a validation error.
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid_str":
		return "must be a valid UUID"
	case "device_type":
		return "must be a known device type"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed on the '%s' tag", fe.Tag())
	}
}

// toSnakeCase converts a string from CamelCase to snake_case.
func toSnakeCase(str string) string {
	snake := matchFirstCap.ReplaceAllString(str, "${1}_${2}")
	snake = matchAllCap.ReplaceAllString(snake, "${1}_${2}")
	return strings.ToLower(snake)
}

// ValidateEmail checks if a string is a valid email address.
func ValidateEmail(email string) bool {
	return defaultValidator.Var(email, "required,email") == nil
}
