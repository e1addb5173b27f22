package invite

import (
	"fmt"
	"strings"
)

// Severity is the presentation level of a notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notification keys. Per-rejection keys append the rejected address.
const (
	KeyRejectedPrefix = "invite.send."
	KeyFailed         = "invite.send.failed"
	KeySuccess        = "invite.send.success"
)

// Notification is a user-facing message produced by a submission run.
// Delayed notifications are shown after immediate ones. A later notification
// with the same Key replaces an earlier one.
type Notification struct {
	Message  string
	Severity Severity
	Delayed  bool
	Key      string
}

// Outcome is the result of submitting one address.
type Outcome struct {
	Subject string
	Success bool
	Err     error
}

// RejectionFunc reports whether err is a remote rejection of the address as
// invalid, and if so the remote-supplied reason.
type RejectionFunc func(err error) (detail string, ok bool)

// Rejection is an address the remote store refused as invalid.
type Rejection struct {
	Subject string
	Detail  string
}

// Summary is the reduced view of a run's outcomes.
type Summary struct {
	SuccessCount int
	Rejected     []Rejection
	Errored      []string
}

// Aggregate reduces outcomes into a Summary. Failures that classify reports
// as rejections go to Rejected; every other failure, including an
// unsuccessful outcome with no error, goes to Errored.
func Aggregate(outcomes []Outcome, classify RejectionFunc) Summary {
	summary := Summary{
		Rejected: []Rejection{},
		Errored:  []string{},
	}

	for _, o := range outcomes {
		if o.Success {
			summary.SuccessCount++
			continue
		}

		if o.Err != nil && classify != nil {
			if detail, ok := classify(o.Err); ok {
				summary.Rejected = append(summary.Rejected, Rejection{Subject: o.Subject, Detail: detail})
				continue
			}
		}

		summary.Errored = append(summary.Errored, o.Subject)
	}

	return summary
}

// HasFailures reports whether any address was rejected or errored.
func (s Summary) HasFailures() bool {
	return len(s.Rejected) > 0 || len(s.Errored) > 0
}

// Notifications renders the summary as user-facing messages: one per
// rejection, one batch for all other failures and one success summary.
// Failure notices are delayed whenever something succeeded so that the
// success notice is shown first.
func (s Summary) Notifications() []Notification {
	var out []Notification

	for _, r := range s.Rejected {
		out = append(out, Notification{
			Message:  fmt.Sprintf("%s was invalid: %s", r.Subject, r.Detail),
			Severity: SeverityError,
			Delayed:  true,
			Key:      KeyRejectedPrefix + r.Subject,
		})
	}

	if n := len(s.Errored); n > 0 {
		out = append(out, Notification{
			Message: fmt.Sprintf("Failed to send %d %s: %s. Please check your email configuration.",
				n, plural(n, "invitation", "invitations"), strings.Join(s.Errored, ", ")),
			Severity: SeverityError,
			Delayed:  s.SuccessCount > 0,
			Key:      KeyFailed,
		})
	}

	if s.SuccessCount > 0 {
		out = append(out, Notification{
			Message:  fmt.Sprintf("%d %s sent!", s.SuccessCount, plural(s.SuccessCount, "invitation", "invitations")),
			Severity: SeveritySuccess,
			Delayed:  true,
			Key:      KeySuccess,
		})
	}

	return out
}
