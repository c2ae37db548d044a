package fetch

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Dispatcher runs resolution callbacks on the owner's event loop.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(fn func())

// Dispatch calls f(fn).
func (f DispatcherFunc) Dispatch(fn func()) {
	f(fn)
}

// Inline runs resolutions on the goroutine that settled the operation.
var Inline Dispatcher = DispatcherFunc(func(fn func()) { fn() })

// Outcome classifies how a settled operation was handled.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
	OutcomeStale   Outcome = "stale"
)

// Observer receives lifecycle notifications, typically for metrics.
type Observer interface {
	FetchStarted(name string)
	FetchSettled(name string, outcome Outcome, elapsed time.Duration)
	FetchCanceled(name string)
}

// Option configures a Manager.
type Option func(*managerConfig)

type managerConfig struct {
	name          string
	ctx           context.Context
	logger        *slog.Logger
	dispatcher    Dispatcher
	observer      Observer
	tracer        trace.Tracer
	abortOnCancel bool
}

// WithName sets the name used in logs, spans and metrics labels.
func WithName(name string) Option {
	return func(c *managerConfig) {
		c.name = name
	}
}

// WithContext sets the parent context of every operation.
func WithContext(ctx context.Context) Option {
	return func(c *managerConfig) {
		c.ctx = ctx
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *managerConfig) {
		c.logger = logger
	}
}

// WithDispatcher routes resolutions through d, usually an event loop.
func WithDispatcher(d Dispatcher) Option {
	return func(c *managerConfig) {
		c.dispatcher = d
	}
}

// WithObserver registers a lifecycle observer.
func WithObserver(o Observer) Option {
	return func(c *managerConfig) {
		c.observer = o
	}
}

// WithTracer sets the tracer used to span each operation.
// Default: otel.Tracer("querybind/fetch") from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(c *managerConfig) {
		c.tracer = t
	}
}

// WithAbortOnCancel also cancels the operation's context when it is
// canceled or superseded. Results are discarded either way.
func WithAbortOnCancel(abort bool) Option {
	return func(c *managerConfig) {
		c.abortOnCancel = abort
	}
}

// OnSuccess registers a callback to be called when a current operation succeeds.
func (m *Manager[A, R]) OnSuccess(fn func(R)) *Manager[A, R] {
	m.mu.Lock()
	m.onSuccess = fn
	m.mu.Unlock()
	return m
}

// OnError registers a callback to be called when a current operation fails.
func (m *Manager[A, R]) OnError(fn func(error)) *Manager[A, R] {
	m.mu.Lock()
	m.onError = fn
	m.mu.Unlock()
	return m
}
