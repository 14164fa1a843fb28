package utils

import (
	"strings"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidations installs the custom binding validators on gin's
// validator engine. Called once at server startup.
func RegisterValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("phone", isValidPhone)
	}
}

// isValidPhone accepts an international phone number: an optional leading
// plus followed by 10 to 15 digits.
func isValidPhone(fl validator.FieldLevel) bool {
	phone := strings.TrimSpace(fl.Field().String())
	phone = strings.TrimPrefix(phone, "+")
	if len(phone) < 10 || len(phone) > 15 {
		return false
	}
	for _, r := range phone {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
