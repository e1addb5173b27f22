package invite

import (
	"github.com/go-playground/validator/v10"
)

var emailValidator = validator.New()

// IsValidEmail reports whether s is a syntactically valid email address.
func IsValidEmail(s string) bool {
	if s == "" {
		return false
	}
	return emailValidator.Var(s, "email") == nil
}
