// Package invite implements the bulk invitation workflow.
//
// # Overview
//
// A sender pastes a list of email addresses, one per line. The workflow
// normalizes that text into candidates, classifies them against an email
// predicate and the sender's own address, records validation messages on a
// Form, and then submits every valid address as an independent remote
// operation.
//
// # Concurrency
//
// Task.Perform is single-flight: a call made while another run is in
// progress is dropped and returns ErrDropped. Submissions fan out one
// goroutine per address and are joined before aggregation; a failing
// submission never cancels its siblings.
//
// A fallback timer races the submissions. Whichever of normal completion or
// the timer reaches the terminal transition first performs it; the other is
// a no-op. Submissions still in flight when the timer fires keep running and
// their outcomes are reported once they resolve.
//
// # Results
//
// Outcomes are reduced by Aggregate into a Summary: a success count, the
// addresses the remote store rejected as invalid (with its reason), and the
// addresses that failed for any other reason. Summary.Notifications turns
// that into at most one message per rejection, one batched failure message
// and one success message.
package invite
