package server

import (
	"context"
	"testing"
	"time"
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

func (c *pendingCall) succeed(v string) { c.res <- callResult{value: v} }
func (c *pendingCall) fail(err error)   { c.res <- callResult{err: err} }

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
	select {
	case r := <-call.res:
		return r.value, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *controlledOp) next(t *testing.T) *pendingCall {
	t.Helper()
	select {
	case call := <-c.calls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for operation call")
		return nil
	}
}

func (c *controlledOp) expectNoCall(t *testing.T) {
	t.Helper()
	select {
	case call := <-c.calls:
		t.Fatalf("unexpected operation call with %q", call.args)
	case <-time.After(20 * time.Millisecond):
	}
}

// waitView polls the session until cond holds.
func waitView(t *testing.T, s *Session, cond func(View) bool) View {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		v, err := s.View(context.Background())
		if err != nil {
			t.Fatalf("View: %v", err)
		}
		if cond(v) {
			return v
		}
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for view, last: %+v", v)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
