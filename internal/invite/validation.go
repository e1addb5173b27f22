package invite

import (
	"errors"
	"fmt"
)

// ErrNoUsers is recorded on the form when there is nothing to submit.
var ErrNoUsers = errors.New("no users to invite")

// ErrorKind identifies why a candidate failed validation.
// More kinds may be added; callers should handle unknown kinds.
type ErrorKind string

const (
	// KindInvalidFormat marks a candidate that is not a valid email address.
	KindInvalidFormat ErrorKind = "email"
)

// ValidationError describes one candidate that failed validation.
type ValidationError struct {
	Subject string
	Kind    ErrorKind
}

func (e ValidationError) Error() string {
	switch e.Kind {
	case KindInvalidFormat:
		return fmt.Sprintf("%s is not a valid email.", e.Subject)
	default:
		return fmt.Sprintf("%s is invalid (%s).", e.Subject, e.Kind)
	}
}

// Result is the outcome of validating a set of candidates.
// The zero value is a valid result.
type Result struct {
	Errors []ValidationError
}

// Valid reports whether no candidate failed validation.
func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// Evaluate turns the invalid candidates into a Result, one InvalidFormat
// error per candidate in the given order.
func Evaluate(invalid []string) Result {
	if len(invalid) == 0 {
		return Result{}
	}

	errs := make([]ValidationError, 0, len(invalid))
	for _, subject := range invalid {
		errs = append(errs, ValidationError{Subject: subject, Kind: KindInvalidFormat})
	}
	return Result{Errors: errs}
}
