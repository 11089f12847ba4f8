package validate

import "github.com/go-playground/validator/v10"

var instance = validator.New(validator.WithRequiredStructEnabled())

// Struct validates the exported fields of s by their validate tags.
func Struct(s any) error {
	return instance.Struct(s)
}
