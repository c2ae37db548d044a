package fetch

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "querybind/fetch"

// Operation is the injected asynchronous capability. It eventually returns a
// result or fails; the Manager treats it as opaque.
type Operation[A any, R any] func(ctx context.Context, args A) (R, error)

// Manager owns the fetch state for one logical request.
type Manager[A any, R any] struct {
	op            Operation[A, R]
	name          string
	ctx           context.Context
	logger        *slog.Logger
	dispatcher    Dispatcher
	observer      Observer
	tracer        trace.Tracer
	abortOnCancel bool

	mu         sync.Mutex
	loadCount  uint64
	token      uint64 // 0 means no operation is current
	isLoading  bool
	isCanceled bool
	data       R
	hasData    bool
	err        error
	pending    A
	hasPending bool
	abort      context.CancelFunc

	onSuccess func(R)
	onError   func(error)

	listeners    []listener[A, R]
	nextListener uint64
}

type listener[A any, R any] struct {
	id uint64
	fn func(Snapshot[A, R])
}

// New creates an idle Manager for op.
func New[A any, R any](op Operation[A, R], opts ...Option) *Manager[A, R] {
	cfg := managerConfig{
		name:       "fetch",
		ctx:        context.Background(),
		dispatcher: Inline,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.tracer == nil {
		cfg.tracer = otel.Tracer(tracerName)
	}
	if cfg.dispatcher == nil {
		cfg.dispatcher = Inline
	}

	return &Manager[A, R]{
		op:            op,
		name:          cfg.name,
		ctx:           cfg.ctx,
		logger:        cfg.logger.With("component", "fetch", "fetch", cfg.name),
		dispatcher:    cfg.dispatcher,
		observer:      cfg.observer,
		tracer:        cfg.tracer,
		abortOnCancel: cfg.abortOnCancel,
	}
}

// Trigger starts a new operation with args and returns its generation token.
// Any operation still in flight is superseded and its result will be ignored.
func (m *Manager[A, R]) Trigger(args A) uint64 {
	m.mu.Lock()
	if m.abortOnCancel && m.abort != nil {
		m.abort()
	}
	m.loadCount++
	token := m.loadCount
	m.token = token
	m.pending = args
	m.hasPending = true
	m.isLoading = true
	m.isCanceled = false
	m.err = nil

	ctx, cancel := context.WithCancel(m.ctx)
	m.abort = cancel
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.logger.Debug("fetch triggered", "token", token)
	if m.observer != nil {
		m.observer.FetchStarted(m.name)
	}
	m.notify(snap)

	go m.run(ctx, cancel, token, args)
	return token
}

// Cancel stops tracking the outstanding operation. The operation itself keeps
// running unless WithAbortOnCancel is set; its result is discarded.
func (m *Manager[A, R]) Cancel() {
	m.mu.Lock()
	wasLoading := m.isLoading
	m.token = 0
	m.isCanceled = m.isCanceled || m.isLoading
	m.isLoading = false
	var zero A
	m.pending = zero
	m.hasPending = false
	if m.abortOnCancel && m.abort != nil {
		m.abort()
	}
	m.abort = nil
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if wasLoading {
		m.logger.Debug("fetch canceled", "load_count", snap.LoadCount)
		if m.observer != nil {
			m.observer.FetchCanceled(m.name)
		}
	}
	m.notify(snap)
}

// Snapshot returns a copy of the current state.
func (m *Manager[A, R]) Snapshot() Snapshot[A, R] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Status is shorthand for Snapshot().Status().
func (m *Manager[A, R]) Status() Status {
	return m.Snapshot().Status()
}

// Subscribe registers fn to receive a snapshot after every state change.
// The returned function removes the subscription.
func (m *Manager[A, R]) Subscribe(fn func(Snapshot[A, R])) func() {
	m.mu.Lock()
	m.nextListener++
	id := m.nextListener
	m.listeners = append(m.listeners, listener[A, R]{id: id, fn: fn})
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, l := range m.listeners {
			if l.id == id {
				m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

func (m *Manager[A, R]) run(ctx context.Context, cancel context.CancelFunc, token uint64, args A) {
	defer cancel()

	ctx, span := m.tracer.Start(ctx, "fetch."+m.name, trace.WithAttributes(
		attribute.String("fetch.name", m.name),
		attribute.String("fetch.token", strconv.FormatUint(token, 10)),
	))
	start := time.Now()
	result, err := m.call(ctx, args)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()

	m.dispatcher.Dispatch(func() {
		m.resolve(token, result, err, elapsed)
	})
}

func (m *Manager[A, R]) call(ctx context.Context, args A) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r}
		}
	}()
	return m.op(ctx, args)
}

// resolve applies a settled operation if its token is still current.
func (m *Manager[A, R]) resolve(token uint64, result R, err error, elapsed time.Duration) {
	m.mu.Lock()
	if m.token != token {
		current := m.token
		m.mu.Unlock()
		m.logger.Debug("discarding stale fetch result",
			"token", token, "current", current, "error", ErrStaleResult)
		if m.observer != nil {
			m.observer.FetchSettled(m.name, OutcomeStale, elapsed)
		}
		return
	}

	m.isLoading = false
	m.isCanceled = false
	var zeroArgs A
	m.pending = zeroArgs
	m.hasPending = false
	m.abort = nil

	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
		var zero R
		m.data = zero
		m.hasData = false
		m.err = wrapOperationError(token, err)
		err = m.err
	} else {
		m.data = result
		m.hasData = true
		m.err = nil
	}
	onSuccess, onError := m.onSuccess, m.onError
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if err != nil {
		m.logger.Warn("fetch failed", "token", token, "error", err)
	} else {
		m.logger.Debug("fetch resolved", "token", token, "elapsed", elapsed)
	}
	if m.observer != nil {
		m.observer.FetchSettled(m.name, outcome, elapsed)
	}
	m.notify(snap)

	if err != nil {
		if onError != nil {
			onError(err)
		}
	} else if onSuccess != nil {
		onSuccess(result)
	}
}

func (m *Manager[A, R]) snapshotLocked() Snapshot[A, R] {
	return Snapshot[A, R]{
		IsLoading:   m.isLoading,
		IsCanceled:  m.isCanceled,
		LoadCount:   m.loadCount,
		Data:        m.data,
		HasData:     m.hasData,
		Err:         m.err,
		PendingArgs: m.pending,
		HasPending:  m.hasPending,
	}
}

func (m *Manager[A, R]) notify(snap Snapshot[A, R]) {
	m.mu.Lock()
	ls := make([]listener[A, R], len(m.listeners))
	copy(ls, m.listeners)
	m.mu.Unlock()

	for _, l := range ls {
		l.fn(snap)
	}
}
