// Package binder keeps UI inputs in sync with a URL query string.
//
// A Binder is an explicit effect keyed on the query string: whenever the
// query changes, the cancel callback for the previous query runs first, then
// every Transformation's sink receives its decoded parameter and finally the
// apply callback runs for the new query.
//
//	b := binder.New(nav.CurrentQuery(),
//	    []binder.Transformation{{Param: "search", Sink: setInput}},
//	    func(string) { manager.Trigger(input) },
//	    func(string) { manager.Cancel() },
//	)
//	defer b.Close()
//	history.Subscribe(b.Update)
package binder

import (
	"log/slog"
	"sync"

	"github.com/vango-dev/querybind/pkg/urlparam"
)

// Transformation pushes one query parameter into UI input state.
type Transformation struct {
	// Param is the query parameter key.
	Param string

	// Sink receives the decoded value every time the query is applied.
	Sink func(value string)
}

// Callback receives the query string the effect was applied for.
type Callback func(query string)

// Option configures a Binder.
type Option func(*Binder)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Binder) {
		b.logger = logger
	}
}

// WithDecoder replaces urlparam.Decode for parameter extraction.
func WithDecoder(decode func(query, param string) string) Option {
	return func(b *Binder) {
		b.decode = decode
	}
}

// Binder re-applies transformations and callbacks on every query change.
type Binder struct {
	mu              sync.Mutex
	query           string
	transformations []Transformation
	apply           Callback
	cancel          Callback
	decode          func(query, param string) string
	logger          *slog.Logger

	// cleanup is the cancel callback bound to the last applied query.
	cleanup func()
	closed  bool
}

// New creates a Binder and applies query immediately. transformations is
// copied; apply and cancel may be nil.
func New(query string, transformations []Transformation, apply, cancel Callback, opts ...Option) *Binder {
	b := &Binder{
		query:           query,
		transformations: append([]Transformation(nil), transformations...),
		apply:           apply,
		cancel:          cancel,
		decode:          urlparam.Decode,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With("component", "binder")

	b.mu.Lock()
	defer b.mu.Unlock()
	b.run(query)
	return b
}

// Query returns the query string that was applied last.
func (b *Binder) Query() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.query
}

// Update applies query if it differs from the last applied one. The cancel
// callback for the previous query always runs before the new apply.
func (b *Binder) Update(query string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || query == b.query {
		return
	}
	b.runCleanup()
	b.query = query
	b.run(query)
}

// Close runs the outstanding cancel callback. Later updates are ignored.
func (b *Binder) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	b.runCleanup()
}

// run must be called with mu held.
func (b *Binder) run(query string) {
	b.logger.Debug("applying query", "query", query)
	for _, t := range b.transformations {
		if t.Sink == nil {
			continue
		}
		t.Sink(b.decode(query, t.Param))
	}
	if b.apply != nil {
		b.apply(query)
	}
	if b.cancel != nil {
		cancel := b.cancel
		b.cleanup = func() { cancel(query) }
	}
}

func (b *Binder) runCleanup() {
	if b.cleanup == nil {
		return
	}
	cleanup := b.cleanup
	b.cleanup = nil
	cleanup()
}
