package invite

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRoles struct {
	role  Role
	err   error
	calls atomic.Int32
}

func (f *fakeRoles) ResolveRole(ctx context.Context) (Role, error) {
	f.calls.Add(1)
	if f.err != nil {
		return Role{}, f.err
	}
	return f.role, nil
}

type fakeResult struct {
	status string
	err    error
}

// fakeSubmitter answers from results (default: sent). When release is set,
// every Submit blocks until it is closed.
type fakeSubmitter struct {
	mu      sync.Mutex
	calls   []string
	ctxErrs []error
	results map[string]fakeResult
	release chan struct{}
	started chan string
}

func (f *fakeSubmitter) Submit(ctx context.Context, email string, role Role) (Receipt, error) {
	f.mu.Lock()
	f.calls = append(f.calls, email)
	f.mu.Unlock()

	if f.started != nil {
		f.started <- email
	}
	if f.release != nil {
		<-f.release
	}

	f.mu.Lock()
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	res, ok := f.results[email]
	f.mu.Unlock()

	if !ok {
		res = fakeResult{status: StatusSent}
	}
	if res.err != nil {
		return Receipt{}, res.err
	}
	return Receipt{InviteID: "id-" + email, Status: res.status}, nil
}

func (f *fakeSubmitter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []Notification
}

func (r *recordingNotifier) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recordingNotifier) all() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notes...)
}

type transitionCounter struct {
	count atomic.Int32
}

func (c *transitionCounter) transition() {
	c.count.Add(1)
}

func newTestTask(t *testing.T, sub *fakeSubmitter, roles *fakeRoles, timeout time.Duration) (*Task, *transitionCounter, *recordingNotifier) {
	t.Helper()

	counter := &transitionCounter{}
	notifier := &recordingNotifier{}

	task, err := NewTask(Config{
		Roles:           roles,
		Submitter:       sub,
		Notifier:        notifier,
		Rejection:       classifyRejected,
		Transition:      counter.transition,
		FallbackTimeout: timeout,
		InstanceName:    "test-instance",
	})
	require.NoError(t, err)

	return task, counter, notifier
}

func TestNewTask(t *testing.T) {
	t.Run("requires role resolver", func(t *testing.T) {
		_, err := NewTask(Config{Submitter: &fakeSubmitter{}})
		assert.Error(t, err)
	})

	t.Run("requires submitter", func(t *testing.T) {
		_, err := NewTask(Config{Roles: &fakeRoles{}})
		assert.Error(t, err)
	})

	t.Run("applies default fallback timeout", func(t *testing.T) {
		task, err := NewTask(Config{Roles: &fakeRoles{}, Submitter: &fakeSubmitter{}})
		require.NoError(t, err)
		assert.Equal(t, DefaultFallbackTimeout, task.cfg.FallbackTimeout)
		assert.Equal(t, StateIdle, task.State())
	})
}

func TestTask_Perform_Success(t *testing.T) {
	sub := &fakeSubmitter{}
	roles := &fakeRoles{role: Role{ID: "r1", Name: "Author"}}
	task, counter, notifier := newTestTask(t, sub, roles, time.Minute)

	form := newTestForm("a@b.com\nc@d.com\nowner@site\na@b.com", "owner@site")

	report, err := task.Perform(context.Background(), form)
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, report.State)
	assert.Equal(t, StateCompleted, task.State())
	assert.False(t, task.Running())
	assert.Equal(t, TriggerCompletion, report.TransitionedBy)
	assert.Equal(t, int32(1), counter.count.Load())
	assert.False(t, task.fallback.pending(), "fallback should be cancelled")

	assert.Equal(t, []string{"a@b.com", "c@d.com"}, report.Submitted)
	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, "a@b.com", report.Outcomes[0].Subject)
	assert.Equal(t, "c@d.com", report.Outcomes[1].Subject)
	assert.Equal(t, 2, report.Summary.SuccessCount)
	assert.NotEmpty(t, report.RunID)

	assert.Equal(t, []Notification{{
		Message:  "2 invitations sent!",
		Severity: SeveritySuccess,
		Delayed:  true,
		Key:      KeySuccess,
	}}, notifier.all())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), counter.count.Load())
}

func TestTask_Perform_InvalidInput(t *testing.T) {
	sub := &fakeSubmitter{}
	roles := &fakeRoles{}
	task, counter, _ := newTestTask(t, sub, roles, time.Minute)

	form := newTestForm("a@b.com\nbad", "")

	report, err := task.Perform(context.Background(), form)
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, report.State)
	assert.False(t, report.Validation.Valid())
	assert.Zero(t, sub.callCount())
	assert.Zero(t, roles.calls.Load())
	assert.Zero(t, counter.count.Load())
	assert.Len(t, form.Messages(), 1)
	assert.False(t, task.fallback.pending())
}

func TestTask_Perform_EmptyInput(t *testing.T) {
	sub := &fakeSubmitter{}
	roles := &fakeRoles{}
	task, counter, notifier := newTestTask(t, sub, roles, time.Minute)

	form := newTestForm("  \n\n\t\n", "")

	report, err := task.Perform(context.Background(), form)
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, report.State)
	assert.ErrorIs(t, form.Err(), ErrNoUsers)
	assert.Zero(t, sub.callCount())
	assert.Zero(t, report.Summary.SuccessCount)
	assert.Zero(t, counter.count.Load())
	assert.Empty(t, notifier.all())

	t.Run("owner only counts as empty", func(t *testing.T) {
		form := newTestForm("owner@site", "owner@site")
		_, err := task.Perform(context.Background(), form)
		require.NoError(t, err)
		assert.ErrorIs(t, form.Err(), ErrNoUsers)
		assert.Zero(t, sub.callCount())
	})
}

func TestTask_Perform_ResolutionError(t *testing.T) {
	sub := &fakeSubmitter{}
	cause := errors.New("roles unavailable")
	roles := &fakeRoles{err: cause}
	task, counter, _ := newTestTask(t, sub, roles, 20*time.Millisecond)

	report, err := task.Perform(context.Background(), newTestForm("a@b.com", ""))
	require.Error(t, err)

	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, StateCompleted, report.State)
	assert.Zero(t, sub.callCount())
	assert.False(t, task.fallback.pending())

	// The fallback must not fire after an aborted run.
	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, counter.count.Load())
}

func TestTask_Perform_PartialFailure(t *testing.T) {
	sub := &fakeSubmitter{
		results: map[string]fakeResult{
			"dup@b.com":     {err: rejectedErr{detail: "already invited"}},
			"smtp@b.com":    {err: errors.New("mail server down")},
			"pending@b.com": {status: "pending"},
		},
	}
	task, counter, notifier := newTestTask(t, sub, &fakeRoles{role: Role{Name: "Author"}}, time.Minute)

	report, err := task.Perform(context.Background(), newTestForm("ok@b.com\ndup@b.com\nsmtp@b.com\npending@b.com", ""))
	require.NoError(t, err)

	assert.Equal(t, 4, sub.callCount())
	assert.Equal(t, 1, report.Summary.SuccessCount)
	assert.Len(t, report.Summary.Rejected, 1)
	assert.Equal(t, []string{"smtp@b.com", "pending@b.com"}, report.Summary.Errored)
	assert.Equal(t, int32(1), counter.count.Load())

	notes := notifier.all()
	require.Len(t, notes, 3)
	for _, n := range notes {
		assert.True(t, n.Delayed, n.Message)
	}
}

func TestTask_Perform_Dropped(t *testing.T) {
	sub := &fakeSubmitter{
		release: make(chan struct{}),
		started: make(chan string, 4),
	}
	task, counter, _ := newTestTask(t, sub, &fakeRoles{role: Role{Name: "Author"}}, time.Minute)

	done := make(chan *Report, 1)
	go func() {
		report, err := task.Perform(context.Background(), newTestForm("a@b.com", ""))
		assert.NoError(t, err)
		done <- report
	}()

	<-sub.started
	assert.True(t, task.Running())
	assert.Equal(t, StateRunning, task.State())

	report, err := task.Perform(context.Background(), newTestForm("c@d.com\ne@f.com", ""))
	assert.ErrorIs(t, err, ErrDropped)
	assert.Nil(t, report)
	assert.Equal(t, 1, sub.callCount())
	assert.Equal(t, StateRunning, task.State())

	close(sub.release)
	first := <-done
	assert.Equal(t, StateCompleted, first.State)
	assert.Equal(t, int32(1), counter.count.Load())

	t.Run("accepts a new run once idle", func(t *testing.T) {
		report, err := task.Perform(context.Background(), newTestForm("c@d.com", ""))
		require.NoError(t, err)
		assert.Equal(t, StateCompleted, report.State)
		assert.Equal(t, 2, sub.callCount())
		assert.Equal(t, int32(2), counter.count.Load())
	})
}

func TestTask_Perform_FallbackFires(t *testing.T) {
	sub := &fakeSubmitter{release: make(chan struct{})}
	task, counter, notifier := newTestTask(t, sub, &fakeRoles{role: Role{Name: "Author"}}, 30*time.Millisecond)

	done := make(chan *Report, 1)
	go func() {
		report, err := task.Perform(context.Background(), newTestForm("a@b.com\nc@d.com", ""))
		assert.NoError(t, err)
		done <- report
	}()

	assert.Eventually(t, func() bool {
		return counter.count.Load() == 1
	}, time.Second, 5*time.Millisecond, "fallback should perform the transition")
	assert.True(t, task.Running(), "submissions are still in flight")

	close(sub.release)
	report := <-done

	assert.Equal(t, StateSuperseded, report.State)
	assert.Equal(t, TriggerFallback, report.TransitionedBy)
	assert.Equal(t, int32(1), counter.count.Load(), "completion must not transition again")
	assert.Equal(t, 2, report.Summary.SuccessCount)
	assert.Len(t, notifier.all(), 1, "late outcomes are still reported")
}

func TestTask_Perform_SubmissionsOutliveCancellation(t *testing.T) {
	sub := &fakeSubmitter{
		release: make(chan struct{}),
		started: make(chan string, 1),
	}
	task, _, _ := newTestTask(t, sub, &fakeRoles{role: Role{Name: "Author"}}, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan *Report, 1)
	go func() {
		report, _ := task.Perform(ctx, newTestForm("a@b.com", ""))
		done <- report
	}()

	<-sub.started
	cancel()
	close(sub.release)

	report := <-done
	assert.Equal(t, 1, report.Summary.SuccessCount)
	sub.mu.Lock()
	defer sub.mu.Unlock()
	assert.Equal(t, []error{nil}, sub.ctxErrs)
}

func TestFallbackTimer(t *testing.T) {
	t.Run("cancel before deadline prevents firing", func(t *testing.T) {
		var f fallbackTimer
		var fired atomic.Bool

		require.True(t, f.start(20*time.Millisecond, func() { fired.Store(true) }))
		f.cancel()
		time.Sleep(50 * time.Millisecond)

		assert.False(t, fired.Load())
		assert.False(t, f.pending())
	})

	t.Run("second start is dropped while pending", func(t *testing.T) {
		var f fallbackTimer
		var count atomic.Int32

		require.True(t, f.start(20*time.Millisecond, func() { count.Add(1) }))
		assert.False(t, f.start(time.Millisecond, func() { count.Add(10) }))

		assert.Eventually(t, func() bool { return count.Load() == 1 }, time.Second, 5*time.Millisecond)
		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, int32(1), count.Load())
		assert.False(t, f.pending())
	})

	t.Run("cancel after firing is a no-op", func(t *testing.T) {
		var f fallbackTimer
		fired := make(chan struct{})

		f.start(time.Millisecond, func() { close(fired) })
		<-fired
		f.cancel()
		assert.True(t, f.start(time.Millisecond, func() {}))
		f.cancel()
	})
}

func TestTransitionGuard(t *testing.T) {
	var g transitionGuard
	var count atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			trigger := TriggerCompletion
			if i%2 == 0 {
				trigger = TriggerFallback
			}
			g.fire(trigger, func() { count.Add(1) })
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), count.Load())
	assert.NotEqual(t, TriggerNone, g.trigger())
}

func TestRunStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "superseded", StateSuperseded.String())
	assert.Equal(t, "completed", StateCompleted.String())
	assert.Equal(t, "fallback", TriggerFallback.String())
}
