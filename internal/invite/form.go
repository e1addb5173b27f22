package invite

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// usersProperty is the field name messages are recorded against.
const usersProperty = "users"

// ButtonStyle is the presentation hint for the submit button.
type ButtonStyle string

const (
	// StylePrimary is used when the input is ready to submit.
	StylePrimary ButtonStyle = "primary"
	// StyleMinor is used while the input is empty or invalid.
	StyleMinor ButtonStyle = "minor"
)

// Message is a user-facing validation message recorded on a Form.
type Message struct {
	Property string
	Text     string
	Err      error
}

type formKey struct {
	raw   string
	owner string
}

// Form holds the raw invitation input and the validation state bound to it.
// Candidates and their classification are derived from the input and the
// owner address, and recomputed only when either changes.
// A Form is safe for concurrent use.
type Form struct {
	mu sync.Mutex

	raw     string
	owner   string
	isValid func(string) bool

	derivedKey formKey
	derived    bool
	candidates []string
	classified ClassifiedSet

	messages  []Message
	validated map[string]struct{}
}

// NewForm creates an empty form using isValid as the email predicate.
// A nil predicate falls back to IsValidEmail.
func NewForm(isValid func(string) bool) *Form {
	if isValid == nil {
		isValid = IsValidEmail
	}
	return &Form{
		isValid:   isValid,
		validated: make(map[string]struct{}),
	}
}

// SetInput replaces the raw multi-line input.
// If the new input has candidates and the only recorded message is the
// "no users" one, that message is dropped.
func (f *Form) SetInput(raw string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.raw = raw
	f.derive()

	if len(f.candidates) > 0 && len(f.messages) == 1 && errors.Is(f.messages[0].Err, ErrNoUsers) {
		f.messages = nil
	}
}

// SetOwner sets the sender's own address, which is never invited.
func (f *Form) SetOwner(owner string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.owner = owner
}

// Input returns the raw input.
func (f *Form) Input() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.raw
}

// Owner returns the excluded sender address.
func (f *Form) Owner() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.owner
}

// Candidates returns the normalized, deduplicated input.
func (f *Form) Candidates() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.derive()
	return slices.Clone(f.candidates)
}

// Valid returns the candidates that will be submitted.
func (f *Form) Valid() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.derive()
	return slices.Clone(f.classified.Valid)
}

// Invalid returns the candidates that failed the email predicate.
func (f *Form) Invalid() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.derive()
	return slices.Clone(f.classified.Invalid)
}

// Result evaluates the current input without touching recorded messages.
func (f *Form) Result() Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.derive()
	return Evaluate(f.classified.Invalid)
}

// Validate clears previously recorded messages, marks the field as validated
// and records one message per invalid candidate.
// Returns true if every candidate passed validation.
func (f *Form) Validate() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.derive()
	result := Evaluate(f.classified.Invalid)

	f.messages = nil
	f.validated[usersProperty] = struct{}{}

	if result.Valid() {
		return true
	}

	for _, verr := range result.Errors {
		switch verr.Kind {
		case KindInvalidFormat:
			f.messages = append(f.messages, Message{
				Property: usersProperty,
				Text:     verr.Error(),
				Err:      verr,
			})
		}
	}

	return false
}

// AddError records a caller-side message such as ErrNoUsers.
func (f *Form) AddError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, Message{
		Property: usersProperty,
		Text:     messageText(err),
		Err:      err,
	})
}

// Messages returns the recorded messages in the order they were added.
func (f *Form) Messages() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.messages)
}

// Err joins all recorded messages into one error, or returns nil.
func (f *Form) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	errs := make([]error, 0, len(f.messages))
	for _, m := range f.messages {
		errs = append(errs, m.Err)
	}
	return errors.Join(errs...)
}

// HasValidated reports whether Validate has run at least once.
func (f *Form) HasValidated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.validated[usersProperty]
	return ok
}

// ButtonText returns the label for the submit button.
func (f *Form) ButtonText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.derive()

	if len(f.messages) > 0 && errors.Is(f.messages[0].Err, ErrNoUsers) {
		return f.messages[0].Text
	}

	if n := len(f.classified.Invalid); n > 0 {
		return fmt.Sprintf("%d invalid %s", n, plural(n, "email address", "email addresses"))
	}

	if n := len(f.classified.Valid); n > 0 {
		return fmt.Sprintf("Invite %d %s", n, plural(n, "user", "users"))
	}

	return "Invite some users"
}

// ButtonStyle returns StylePrimary when the input is valid and non-empty.
func (f *Form) ButtonStyle() ButtonStyle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.derive()

	if len(f.classified.Invalid) == 0 && len(f.candidates) > 0 {
		return StylePrimary
	}
	return StyleMinor
}

// derive recomputes candidates and their classification when the input or
// owner changed since the last call. Caller must hold f.mu.
func (f *Form) derive() {
	key := formKey{raw: f.raw, owner: f.owner}
	if f.derived && f.derivedKey == key {
		return
	}

	f.candidates = Normalize(f.raw)
	f.classified = Classify(f.candidates, f.isValid, f.owner)
	f.derivedKey = key
	f.derived = true
}

func messageText(err error) string {
	if errors.Is(err, ErrNoUsers) {
		return "No users to invite"
	}
	return err.Error()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
