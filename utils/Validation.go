package utils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var rowValidator = validator.New(validator.WithRequiredStructEnabled())

// ValidateRow checks the validate tags of a row decoded from the database.
func ValidateRow(row interface{}) error {
	err := rowValidator.Struct(row)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	problems := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		problems = append(problems, fmt.Sprintf("%s failed '%s'", fieldError.Field(), fieldError.Tag()))
	}
	return fmt.Errorf("%s", strings.Join(problems, ", "))
}
