package server

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/querybind/pkg/binder"
	"github.com/vango-dev/querybind/pkg/fetch"
	"github.com/vango-dev/querybind/pkg/loop"
	"github.com/vango-dev/querybind/pkg/urlparam"
)

// SampleQueryText is pushed by the "Set some query" action.
const SampleQueryText = "check if field updates"

// View is the rendered state of a session.
type View struct {
	Status     string `json:"status"`
	IsLoading  bool   `json:"isLoading"`
	IsCanceled bool   `json:"isCanceled"`
	LoadCount  uint64 `json:"loadCount"`
	Data       string `json:"data,omitempty"`
	HasData    bool   `json:"hasData"`
	Error      string `json:"error,omitempty"`
	Pending    string `json:"pending,omitempty"`
	Input      string `json:"input"`
	Query      string `json:"query"`
	Param      string `json:"param"`
}

// SessionConfig configures a Session.
type SessionConfig struct {
	// Param is the query parameter bound to the input.
	Param string

	// InitialQuery is the query string the session starts with.
	InitialQuery string

	// QueueSize is the event loop buffer size.
	QueueSize int

	// AbortOnCancel cancels the fetch context on cancel or supersede.
	AbortOnCancel bool

	Logger   *slog.Logger
	Observer fetch.Observer
	Tracer   trace.Tracer
}

// Session is one UI session. All state lives on its event loop.
type Session struct {
	param   string
	loop    *loop.Loop
	history *urlparam.History
	binder  *binder.Binder
	fetcher *fetch.Manager[string, string]
	logger  *slog.Logger

	// Owned by the loop goroutine.
	input string
	query string

	subsMu sync.Mutex
	subs   map[int]chan View
	nextID int

	startOnce sync.Once
	stop      context.CancelFunc
}

// NewSession wires a Session around op. Call Start before use.
func NewSession(cfg SessionConfig, op fetch.Operation[string, string]) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Param == "" {
		cfg.Param = "search"
	}

	s := &Session{
		param:  cfg.Param,
		loop:   loop.New(cfg.QueueSize, logger),
		logger: logger.With("component", "session"),
		subs:   make(map[int]chan View),
	}

	initial := &urlparam.InitialURLState{Query: cfg.InitialQuery}
	s.history = urlparam.NewHistory(initial.Consume())
	s.history.SetLogger(logger)

	opts := []fetch.Option{
		fetch.WithName(cfg.Param),
		fetch.WithDispatcher(s.loop),
		fetch.WithLogger(logger),
		fetch.WithAbortOnCancel(cfg.AbortOnCancel),
	}
	if cfg.Observer != nil {
		opts = append(opts, fetch.WithObserver(cfg.Observer))
	}
	if cfg.Tracer != nil {
		opts = append(opts, fetch.WithTracer(cfg.Tracer))
	}
	s.fetcher = fetch.New(op, opts...)
	s.fetcher.Subscribe(func(fetch.Snapshot[string, string]) {
		s.publish()
	})

	// The loop is not running yet, so the initial apply runs inline.
	s.binder = binder.New(s.history.CurrentQuery(),
		[]binder.Transformation{{Param: s.param, Sink: s.setInput}},
		s.applyQuery,
		s.cancelQuery,
		binder.WithLogger(logger),
	)

	s.history.Subscribe(func(query string) {
		s.loop.Dispatch(func() { s.binder.Update(query) })
	})
	return s
}

// Start runs the event loop in the background.
func (s *Session) Start() {
	s.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		s.stop = cancel
		go func() {
			if err := s.loop.Run(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("event loop stopped", "error", err)
			}
		}()
	})
}

// Close tears the binder down, cancelling any outstanding fetch, and stops
// the loop.
func (s *Session) Close(ctx context.Context) {
	if s.stop == nil {
		s.binder.Close()
	} else {
		_ = s.loop.Do(ctx, s.binder.Close)
		s.stop()
	}
	s.loop.Close()

	s.subsMu.Lock()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.subsMu.Unlock()
}

// Param returns the bound query parameter name.
func (s *Session) Param() string {
	return s.param
}

// Navigator exposes the session's history.
func (s *Session) Navigator() urlparam.Navigator {
	return s.history
}

// View returns the current view.
func (s *Session) View(ctx context.Context) (View, error) {
	var v View
	err := s.loop.Do(ctx, func() { v = s.buildView() })
	return v, err
}

// SetInput replaces the input value.
func (s *Session) SetInput(ctx context.Context, value string) error {
	return s.loop.Do(ctx, func() {
		s.input = value
		s.publish()
	})
}

// Fetch triggers a fetch with the current input value.
func (s *Session) Fetch(ctx context.Context) error {
	return s.loop.Do(ctx, func() {
		s.fetcher.Trigger(s.input)
	})
}

// Cancel cancels the outstanding fetch.
func (s *Session) Cancel(ctx context.Context) error {
	return s.loop.Do(ctx, s.fetcher.Cancel)
}

// PushValue pushes ?<param>=<value> through the navigator. An empty value
// uses the current input. It returns once the binder has seen the change.
func (s *Session) PushValue(ctx context.Context, value string) error {
	if value == "" {
		if err := s.loop.Do(ctx, func() { value = s.input }); err != nil {
			return err
		}
	}
	return s.Navigate(ctx, urlparam.Encode(s.param, value))
}

// Navigate pushes a raw query string through the navigator.
func (s *Session) Navigate(ctx context.Context, query string) error {
	s.history.PushQuery(query)
	return s.barrier(ctx)
}

// Back moves the history back one entry. It reports false at the start of
// the history.
func (s *Session) Back(ctx context.Context) (bool, error) {
	ok := s.history.Back()
	return ok, s.barrier(ctx)
}

// Subscribe returns a channel receiving the view after every change and a
// function that ends the subscription.
func (s *Session) Subscribe() (<-chan View, func()) {
	ch := make(chan View, 8)

	s.subsMu.Lock()
	s.nextID++
	id := s.nextID
	s.subs[id] = ch
	s.subsMu.Unlock()

	return ch, func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		if c, ok := s.subs[id]; ok {
			close(c)
			delete(s.subs, id)
		}
	}
}

// barrier waits until everything dispatched so far has run.
func (s *Session) barrier(ctx context.Context) error {
	return s.loop.Do(ctx, func() {})
}

func (s *Session) setInput(value string) {
	s.input = value
}

func (s *Session) applyQuery(query string) {
	s.query = query
	if s.input == "" {
		s.publish()
		return
	}
	s.fetcher.Trigger(s.input)
}

func (s *Session) cancelQuery(string) {
	s.fetcher.Cancel()
}

func (s *Session) buildView() View {
	snap := s.fetcher.Snapshot()
	v := View{
		Status:     snap.Status().String(),
		IsLoading:  snap.IsLoading,
		IsCanceled: snap.IsCanceled,
		LoadCount:  snap.LoadCount,
		Data:       snap.Data,
		HasData:    snap.HasData,
		Input:      s.input,
		Query:      s.query,
		Param:      s.param,
	}
	if snap.Err != nil {
		v.Error = snap.Err.Error()
	}
	if snap.HasPending {
		v.Pending = snap.PendingArgs
	}
	return v
}

// publish fans the current view out to subscribers. Slow subscribers lose
// their oldest view.
func (s *Session) publish() {
	v := s.buildView()

	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- v:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}
