package fetch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// pendingCall is one invocation of a controllable operation.
type pendingCall struct {
	args string
	ctx  context.Context
	res  chan callResult
}

type callResult struct {
	value string
	err   error
}

// controlledOp hands every call to the test, which settles it explicitly.
type controlledOp struct {
	calls chan *pendingCall
}

func newControlledOp() *controlledOp {
	return &controlledOp{calls: make(chan *pendingCall, 16)}
}

func (c *controlledOp) op(ctx context.Context, args string) (string, error) {
	call := &pendingCall{args: args, ctx: ctx, res: make(chan callResult, 1)}
	c.calls <- call
	r := <-call.res
	return r.value, r.err
}

func (c *controlledOp) next(t *testing.T) *pendingCall {
	t.Helper()
	select {
	case call := <-c.calls:
		return call
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for operation call")
		return nil
	}
}

// manualLoop collects dispatched resolutions so the test decides when they run.
type manualLoop struct {
	fns chan func()
}

func newManualLoop() *manualLoop {
	return &manualLoop{fns: make(chan func(), 16)}
}

func (l *manualLoop) Dispatch(fn func()) {
	l.fns <- fn
}

func (l *manualLoop) step(t *testing.T) {
	t.Helper()
	select {
	case fn := <-l.fns:
		fn()
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for dispatched resolution")
	}
}

func newTestManager(opts ...Option) (*Manager[string, string], *controlledOp, *manualLoop) {
	op := newControlledOp()
	loop := newManualLoop()
	opts = append([]Option{WithDispatcher(loop)}, opts...)
	return New(op.op, opts...), op, loop
}

var snapshotOpts = cmp.Options{
	cmpopts.EquateErrors(),
}

func TestManagerInitialState(t *testing.T) {
	m, _, _ := newTestManager()

	want := Snapshot[string, string]{}
	if diff := cmp.Diff(want, m.Snapshot(), snapshotOpts); diff != "" {
		t.Errorf("initial snapshot mismatch (-want +got):\n%s", diff)
	}
	if m.Status() != StatusIdle {
		t.Errorf("Status() = %v, want %v", m.Status(), StatusIdle)
	}
}

func TestManagerTriggerResolves(t *testing.T) {
	m, op, loop := newTestManager()

	token := m.Trigger("a")
	if token != 1 {
		t.Errorf("Trigger() token = %d, want 1", token)
	}

	loading := m.Snapshot()
	if !loading.IsLoading || !loading.HasPending || loading.PendingArgs != "a" {
		t.Errorf("after Trigger: %+v", loading)
	}

	call := op.next(t)
	if call.args != "a" {
		t.Errorf("operation args = %q, want %q", call.args, "a")
	}
	call.res <- callResult{value: "result-a"}
	loop.step(t)

	want := Snapshot[string, string]{
		LoadCount: 1,
		Data:      "result-a",
		HasData:   true,
	}
	if diff := cmp.Diff(want, m.Snapshot(), snapshotOpts); diff != "" {
		t.Errorf("resolved snapshot mismatch (-want +got):\n%s", diff)
	}
	if m.Status() != StatusResolved {
		t.Errorf("Status() = %v, want %v", m.Status(), StatusResolved)
	}
}

func TestManagerDiscardsSupersededResults(t *testing.T) {
	tests := []struct {
		name       string
		firstDone  bool // settle the first call before the second
		wantData   string
		wantLoaded uint64
	}{
		{name: "older settles first", firstDone: true, wantData: "result-b", wantLoaded: 2},
		{name: "older settles last", firstDone: false, wantData: "result-b", wantLoaded: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, op, loop := newTestManager()

			var seen []string
			m.Subscribe(func(s Snapshot[string, string]) {
				if s.HasData {
					seen = append(seen, s.Data)
				}
			})

			m.Trigger("a")
			callA := op.next(t)
			m.Trigger("b")
			callB := op.next(t)

			settle := func(c *pendingCall) {
				c.res <- callResult{value: "result-" + c.args}
				loop.step(t)
			}
			if tt.firstDone {
				settle(callA)
				if !m.Snapshot().IsLoading {
					t.Fatal("stale result ended loading")
				}
				settle(callB)
			} else {
				settle(callB)
				settle(callA)
			}

			got := m.Snapshot()
			if got.Data != tt.wantData {
				t.Errorf("Data = %q, want %q", got.Data, tt.wantData)
			}
			if got.LoadCount != tt.wantLoaded {
				t.Errorf("LoadCount = %d, want %d", got.LoadCount, tt.wantLoaded)
			}
			if got.IsLoading {
				t.Error("IsLoading should be false")
			}
			if diff := cmp.Diff([]string{"result-b"}, seen); diff != "" {
				t.Errorf("observed data mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestManagerCancel(t *testing.T) {
	m, op, loop := newTestManager()

	m.Trigger("a")
	call := op.next(t)
	m.Cancel()

	canceled := m.Snapshot()
	if canceled.IsLoading {
		t.Error("IsLoading should be false after Cancel")
	}
	if !canceled.IsCanceled {
		t.Error("IsCanceled should be true after Cancel while loading")
	}
	if canceled.HasPending {
		t.Error("pending args should be cleared by Cancel")
	}
	if canceled.Status() != StatusCanceled {
		t.Errorf("Status() = %v, want %v", canceled.Status(), StatusCanceled)
	}

	// Cancellation is cooperative: the operation still runs.
	if call.ctx.Err() != nil {
		t.Error("operation context should not be canceled by default")
	}

	call.res <- callResult{value: "result-a"}
	loop.step(t)

	if diff := cmp.Diff(canceled, m.Snapshot(), snapshotOpts); diff != "" {
		t.Errorf("late resolution changed state (-before +after):\n%s", diff)
	}
}

func TestManagerCancelWhileIdle(t *testing.T) {
	m, _, _ := newTestManager()
	m.Cancel()

	s := m.Snapshot()
	if s.IsCanceled {
		t.Error("Cancel while idle should not mark IsCanceled")
	}
	if s.Status() != StatusIdle {
		t.Errorf("Status() = %v, want %v", s.Status(), StatusIdle)
	}
}

func TestManagerCancelKeepsCanceledFlag(t *testing.T) {
	m, op, _ := newTestManager()

	m.Trigger("a")
	op.next(t)
	m.Cancel()
	m.Cancel()

	if !m.Snapshot().IsCanceled {
		t.Error("second Cancel cleared IsCanceled")
	}
}

func TestManagerTriggerAfterCancel(t *testing.T) {
	m, op, loop := newTestManager()

	m.Trigger("a")
	op.next(t)
	m.Cancel()

	m.Trigger("b")
	if m.Snapshot().IsCanceled {
		t.Error("Trigger should clear IsCanceled")
	}
	call := op.next(t)
	call.res <- callResult{value: "result-b"}
	loop.step(t)

	if got := m.Snapshot().Data; got != "result-b" {
		t.Errorf("Data = %q, want %q", got, "result-b")
	}
}

func TestManagerFailure(t *testing.T) {
	m, op, loop := newTestManager()
	boom := errors.New("boom")

	m.Trigger("a")
	op.next(t).res <- callResult{value: "result-a"}
	loop.step(t)

	m.Trigger("b")
	op.next(t).res <- callResult{err: boom}
	loop.step(t)

	s := m.Snapshot()
	if s.Status() != StatusFailed {
		t.Fatalf("Status() = %v, want %v", s.Status(), StatusFailed)
	}
	if !errors.Is(s.Err, ErrOperationFailed) {
		t.Errorf("Err = %v, want ErrOperationFailed", s.Err)
	}
	if !errors.Is(s.Err, boom) {
		t.Errorf("Err = %v, want wrapped %v", s.Err, boom)
	}
	var opErr *OperationError
	if !errors.As(s.Err, &opErr) || opErr.Token != 2 {
		t.Errorf("Err = %#v, want *OperationError for token 2", s.Err)
	}
	if s.HasData {
		t.Error("data should be cleared on failure")
	}

	m.Trigger("c")
	if m.Snapshot().Err != nil {
		t.Error("Trigger should clear Err")
	}
}

func TestManagerRecoversPanics(t *testing.T) {
	m := New(func(ctx context.Context, args string) (string, error) {
		panic("kaboom")
	})

	done := make(chan Snapshot[string, string], 1)
	m.Subscribe(func(s Snapshot[string, string]) {
		if !s.IsLoading {
			done <- s
		}
	})
	m.Trigger("x")

	select {
	case s := <-done:
		if !errors.Is(s.Err, ErrOperationFailed) {
			t.Errorf("Err = %v, want ErrOperationFailed", s.Err)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for panic to be recovered")
	}
}

func TestManagerAbortOnCancel(t *testing.T) {
	m, op, _ := newTestManager(WithAbortOnCancel(true))

	m.Trigger("a")
	first := op.next(t)
	m.Trigger("b")
	second := op.next(t)

	if first.ctx.Err() == nil {
		t.Error("superseded operation context should be canceled")
	}
	if second.ctx.Err() != nil {
		t.Error("current operation context should be live")
	}

	m.Cancel()
	if second.ctx.Err() == nil {
		t.Error("canceled operation context should be canceled")
	}
}

func TestManagerCallbacks(t *testing.T) {
	m, op, loop := newTestManager()

	var gotData string
	var gotErr error
	m.OnSuccess(func(s string) { gotData = s }).OnError(func(err error) { gotErr = err })

	m.Trigger("a")
	op.next(t).res <- callResult{value: "ok"}
	loop.step(t)
	if gotData != "ok" {
		t.Errorf("OnSuccess got %q, want %q", gotData, "ok")
	}

	m.Trigger("b")
	op.next(t).res <- callResult{err: errors.New("nope")}
	loop.step(t)
	if !errors.Is(gotErr, ErrOperationFailed) {
		t.Errorf("OnError got %v", gotErr)
	}
}

func TestManagerUnsubscribe(t *testing.T) {
	m, _, _ := newTestManager()

	calls := 0
	unsubscribe := m.Subscribe(func(Snapshot[string, string]) { calls++ })
	m.Cancel()
	unsubscribe()
	m.Cancel()

	if calls != 1 {
		t.Errorf("listener called %d times, want 1", calls)
	}
}

type recordingObserver struct {
	mu       sync.Mutex
	started  int
	canceled int
	outcomes []Outcome
}

func (o *recordingObserver) FetchStarted(string) {
	o.mu.Lock()
	o.started++
	o.mu.Unlock()
}

func (o *recordingObserver) FetchSettled(_ string, outcome Outcome, _ time.Duration) {
	o.mu.Lock()
	o.outcomes = append(o.outcomes, outcome)
	o.mu.Unlock()
}

func (o *recordingObserver) FetchCanceled(string) {
	o.mu.Lock()
	o.canceled++
	o.mu.Unlock()
}

func TestManagerObserver(t *testing.T) {
	obs := &recordingObserver{}
	m, op, loop := newTestManager(WithObserver(obs), WithName("search"))

	m.Trigger("a")
	a := op.next(t)
	m.Trigger("b")
	b := op.next(t)
	a.res <- callResult{value: "a"}
	loop.step(t)
	b.res <- callResult{err: errors.New("bad")}
	loop.step(t)

	m.Trigger("c")
	c := op.next(t)
	m.Cancel()
	c.res <- callResult{value: "c"}
	loop.step(t)

	if obs.started != 3 {
		t.Errorf("started = %d, want 3", obs.started)
	}
	if obs.canceled != 1 {
		t.Errorf("canceled = %d, want 1", obs.canceled)
	}
	want := []Outcome{OutcomeStale, OutcomeError, OutcomeStale}
	if diff := cmp.Diff(want, obs.outcomes); diff != "" {
		t.Errorf("outcomes mismatch (-want +got):\n%s", diff)
	}
}

func TestManagerTimedRace(t *testing.T) {
	delays := map[string]time.Duration{
		"a": 30 * time.Millisecond,
		"b": 60 * time.Millisecond,
	}
	m := New(func(ctx context.Context, args string) (string, error) {
		time.Sleep(delays[args])
		return "result-" + args, nil
	})

	var mu sync.Mutex
	var seen []string
	done := make(chan struct{})
	m.Subscribe(func(s Snapshot[string, string]) {
		mu.Lock()
		defer mu.Unlock()
		if s.HasData {
			seen = append(seen, s.Data)
			close(done)
		}
	})

	m.Trigger("b")
	m.Trigger("a")
	// "a" settles first but "b" is no longer current; "a" is current.
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for resolution")
	}
	time.Sleep(80 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff([]string{"result-a"}, seen); diff != "" {
		t.Errorf("observed data mismatch (-want +got):\n%s", diff)
	}
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusIdle, "idle"},
		{StatusLoading, "loading"},
		{StatusResolved, "resolved"},
		{StatusFailed, "failed"},
		{StatusCanceled, "canceled"},
		{Status(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}
