// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("movement_type", validateMovementType)
		_ = v.RegisterValidation("hue", validateHue)
		_ = v.RegisterValidation("notblank", validateNotBlank)
	}
}

func validateMovementType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "income", "expense":
		return true
	}
	return false
}

// validateHue accepts integer hues on the color wheel, 0 through 359.
func validateHue(fl validator.FieldLevel) bool {
	hue := fl.Field().Int()
	return hue >= 0 && hue <= 359
}

// validateNotBlank rejects strings that are empty after trimming, which the
// plain "required" tag lets through.
func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
