package tiktokurl

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Tag is the struct tag name under which IsValid is registered with the validator.
const Tag = "tiktokurl"

// Optional scheme, optional "www.", host tiktok.com or vm.tiktok.com, then "/" and at least one character.
var pattern = regexp.MustCompile(`^(https?://)?(www\.)?(tiktok\.com|vm\.tiktok\.com)/.+`)

// IsValid reports whether raw looks like a TikTok page link.
func IsValid(raw string) bool {
	return pattern.MatchString(raw)
}

// Register installs the tiktokurl tag on v.
func Register(v *validator.Validate) error {
	return v.RegisterValidation(Tag, func(fl validator.FieldLevel) bool {
		return IsValid(fl.Field().String())
	})
}

// NewValidator returns a validator with the tiktokurl tag installed.
func NewValidator() *validator.Validate {
	v := validator.New()
	if err := Register(v); err != nil {
		panic(err)
	}
	return v
}
