package invite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// DefaultFallbackTimeout bounds how long a caller waits for the terminal
// transition when submissions are slow.
const DefaultFallbackTimeout = 4 * time.Second

// StatusSent is the remote status of an invitation that was delivered.
const StatusSent = "sent"

// ErrDropped is returned when Perform is called while a run is in progress.
var ErrDropped = errors.New("invite run already in progress")

// ResolutionError reports that the role needed to build submissions could
// not be resolved. No submissions are made when it occurs.
type ResolutionError struct {
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve invite role: %v", e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Role is the role granted to invited users.
type Role struct {
	ID   string
	Name string
}

// Receipt is the remote store's answer to one submission.
type Receipt struct {
	InviteID string
	Status   string
}

// RoleResolver looks up the role attached to every submission of a run.
type RoleResolver interface {
	ResolveRole(ctx context.Context) (Role, error)
}

// Submitter sends one invitation.
type Submitter interface {
	Submit(ctx context.Context, email string, role Role) (Receipt, error)
}

// Notifier displays notifications produced by a run.
type Notifier interface {
	Notify(n Notification)
}

// RunState is the lifecycle state of a Task.
type RunState int32

const (
	StateIdle RunState = iota
	StateRunning
	// StateSuperseded marks a run whose terminal transition had already been
	// performed by the fallback timer when its submissions finished.
	StateSuperseded
	StateCompleted
)

func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateSuperseded:
		return "superseded"
	case StateCompleted:
		return "completed"
	default:
		return fmt.Sprintf("RunState(%d)", int32(s))
	}
}

// Trigger records what performed a run's terminal transition.
type Trigger int32

const (
	TriggerNone Trigger = iota
	TriggerCompletion
	TriggerFallback
)

func (t Trigger) String() string {
	switch t {
	case TriggerNone:
		return "none"
	case TriggerCompletion:
		return "completion"
	case TriggerFallback:
		return "fallback"
	default:
		return fmt.Sprintf("Trigger(%d)", int32(t))
	}
}

// Config wires a Task to its collaborators.
type Config struct {
	Roles     RoleResolver
	Submitter Submitter

	// Notifier receives the run's notifications. Optional.
	Notifier Notifier

	// Rejection classifies submission errors. Optional; without it every
	// failure is reported in the batched failure message.
	Rejection RejectionFunc

	// Transition advances the caller to its next stage. It is called at most
	// once per run, by completion or by the fallback timer. Optional.
	Transition func()

	// FallbackTimeout defaults to DefaultFallbackTimeout.
	FallbackTimeout time.Duration

	// InstanceName tags log events.
	InstanceName string
}

// Report describes one completed run.
type Report struct {
	RunID          string
	State          RunState
	Validation     Result
	Submitted      []string
	Outcomes       []Outcome
	Summary        Summary
	TransitionedBy Trigger
	StartedAt      time.Time
	Duration       time.Duration
}

// Task submits the valid addresses of a Form. Only one run is in progress
// at a time; concurrent calls are dropped.
type Task struct {
	cfg Config

	running  atomic.Bool
	state    atomic.Int32
	fallback fallbackTimer
}

// NewTask creates a Task. Roles and Submitter are required.
func NewTask(cfg Config) (*Task, error) {
	if cfg.Roles == nil {
		return nil, fmt.Errorf("role resolver cannot be nil")
	}
	if cfg.Submitter == nil {
		return nil, fmt.Errorf("submitter cannot be nil")
	}
	if cfg.FallbackTimeout <= 0 {
		cfg.FallbackTimeout = DefaultFallbackTimeout
	}

	return &Task{cfg: cfg}, nil
}

// State returns the state of the current or most recent run.
func (t *Task) State() RunState {
	return RunState(t.state.Load())
}

// Running reports whether a run is in progress.
func (t *Task) Running() bool {
	return t.running.Load()
}

// Perform validates the form and submits every valid address concurrently.
//
// Validation failures and empty input are recorded on the form and reported
// with a nil error. A role resolution failure aborts the run before anything
// is submitted and is returned as a *ResolutionError. Individual submission
// failures never fail the run; they are aggregated into the report.
//
// If a run is already in progress Perform returns ErrDropped immediately.
func (t *Task) Perform(ctx context.Context, form *Form) (*Report, error) {
	if !t.running.CompareAndSwap(false, true) {
		t.logEvent("invite_run_dropped", map[string]interface{}{})
		return nil, ErrDropped
	}
	defer t.running.Store(false)

	t.state.Store(int32(StateRunning))

	guard := &transitionGuard{}
	report := &Report{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
	}

	t.logEvent("invite_run_started", map[string]interface{}{
		"run_id":     report.RunID,
		"candidates": len(form.Candidates()),
	})

	valid := form.Validate()
	report.Validation = form.Result()
	users := form.Valid()

	if !valid {
		t.logEvent("invite_validation_failed", map[string]interface{}{
			"run_id":  report.RunID,
			"invalid": len(report.Validation.Errors),
		})
		return t.finish(report, StateCompleted), nil
	}

	if len(users) == 0 {
		form.AddError(ErrNoUsers)
		t.logEvent("invite_validation_failed", map[string]interface{}{
			"run_id": report.RunID,
			"reason": "no_users",
		})
		return t.finish(report, StateCompleted), nil
	}

	t.fallback.start(t.cfg.FallbackTimeout, func() {
		if guard.fire(TriggerFallback, t.cfg.Transition) {
			t.logEvent("invite_fallback_fired", map[string]interface{}{
				"run_id":     report.RunID,
				"timeout_ms": t.cfg.FallbackTimeout.Milliseconds(),
			})
		}
	})

	role, err := t.cfg.Roles.ResolveRole(ctx)
	if err != nil {
		t.fallback.cancel()
		log.Printf("[Invite] Role resolution failed for run %s: %v", report.RunID, err)
		t.finish(report, StateCompleted)
		return report, &ResolutionError{Err: err}
	}

	t.logEvent("invite_role_resolved", map[string]interface{}{
		"run_id": report.RunID,
		"role":   role.Name,
	})

	report.Submitted = users
	report.Outcomes = t.submitAll(ctx, report.RunID, users, role)

	t.fallback.cancel()

	report.Summary = Aggregate(report.Outcomes, t.cfg.Rejection)
	if t.cfg.Notifier != nil {
		for _, n := range report.Summary.Notifications() {
			t.cfg.Notifier.Notify(n)
		}
	}

	state := StateCompleted
	if !guard.fire(TriggerCompletion, t.cfg.Transition) {
		state = StateSuperseded
	}
	report.TransitionedBy = guard.trigger()

	return t.finish(report, state), nil
}

// submitAll submits every address in its own goroutine and waits for all of
// them. Outcomes are returned in the order of users. Submissions run on a
// context detached from ctx's cancellation: once issued they are never
// aborted.
func (t *Task) submitAll(ctx context.Context, runID string, users []string, role Role) []Outcome {
	submitCtx := context.WithoutCancel(ctx)
	outcomes := make([]Outcome, len(users))

	var wg sync.WaitGroup
	for i, email := range users {
		wg.Add(1)
		go func(i int, email string) {
			defer wg.Done()

			start := time.Now()
			receipt, err := t.cfg.Submitter.Submit(submitCtx, email, role)
			outcomes[i] = Outcome{
				Subject: email,
				Success: err == nil && receipt.Status == StatusSent,
				Err:     err,
			}

			fields := map[string]interface{}{
				"run_id":     runID,
				"email":      email,
				"success":    outcomes[i].Success,
				"latency_ms": time.Since(start).Milliseconds(),
			}
			if err != nil {
				fields["error"] = err.Error()
			} else {
				fields["invite_id"] = receipt.InviteID
				fields["status"] = receipt.Status
			}
			t.logEvent("invite_submitted", fields)
		}(i, email)
	}
	wg.Wait()

	return outcomes
}

func (t *Task) finish(report *Report, state RunState) *Report {
	report.State = state
	report.Duration = time.Since(report.StartedAt)
	t.state.Store(int32(state))

	t.logEvent("invite_run_completed", map[string]interface{}{
		"run_id":          report.RunID,
		"state":           state.String(),
		"submitted":       len(report.Submitted),
		"success_count":   report.Summary.SuccessCount,
		"rejected_count":  len(report.Summary.Rejected),
		"errored_count":   len(report.Summary.Errored),
		"transitioned_by": report.TransitionedBy.String(),
		"duration_ms":     report.Duration.Milliseconds(),
	})

	return report
}

// logEvent logs a structured event in JSON format.
func (t *Task) logEvent(eventType string, data map[string]interface{}) {
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	data["level"] = "info"
	data["component"] = "invite"
	data["event_type"] = eventType
	data["instance"] = t.cfg.InstanceName

	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("[Invite] Failed to marshal log event: %v", err)
		return
	}

	log.Println(string(jsonData))
}
