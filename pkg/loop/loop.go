// Package loop provides a single-goroutine event loop.
//
// All work dispatched to a Loop runs sequentially on the goroutine that
// called Run, in dispatch order. UI state owners use it so that state is
// only ever mutated from one thread, with asynchronous completions
// re-entering through Dispatch.
package loop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// DefaultQueueSize is the dispatch buffer size used when none is given.
const DefaultQueueSize = 256

// ErrClosed is returned by Run when the loop was already closed.
var ErrClosed = errors.New("loop: closed")

// Loop executes dispatched functions one at a time.
type Loop struct {
	dispatchCh chan func()
	done       chan struct{}
	closed     atomic.Bool
	closeOnce  sync.Once
	logger     *slog.Logger
}

// New creates a Loop with a dispatch buffer of size queueSize.
func New(queueSize int, logger *slog.Logger) *Loop {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		dispatchCh: make(chan func(), queueSize),
		done:       make(chan struct{}),
		logger:     logger.With("component", "loop"),
	}
}

// Dispatch queues fn to run on the loop. Calls after Close are discarded,
// as are calls made while the queue is full.
func (l *Loop) Dispatch(fn func()) {
	if l.closed.Load() {
		return
	}
	select {
	case l.dispatchCh <- fn:
	case <-l.done:
	default:
		l.logger.Warn("dispatch queue full, discarding callback")
	}
}

// Run processes dispatched functions until ctx is done or Close is called.
// A panicking function is logged and does not stop the loop.
func (l *Loop) Run(ctx context.Context) error {
	if l.closed.Load() {
		return ErrClosed
	}
	for {
		select {
		case <-ctx.Done():
			l.Close()
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.dispatchCh:
			l.exec(fn)
		}
	}
}

// Do dispatches fn and waits for it to finish running on the loop.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	l.Dispatch(func() {
		defer close(finished)
		fn()
	})
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the loop. Pending functions are dropped.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.done)
	})
}

// Done is closed when the loop stops.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("dispatched function panicked",
				"error", fmt.Sprint(r), "stack", string(debug.Stack()))
		}
	}()
	fn()
}
