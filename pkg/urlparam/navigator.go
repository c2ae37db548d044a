package urlparam

import (
	"log/slog"
	"sync"
)

// Navigator is the host navigation mechanism that owns the current query
// string. Owners pass it explicitly; there is no process-wide instance.
type Navigator interface {
	// CurrentQuery returns the current query string, "" or "?...".
	CurrentQuery() string

	// PushQuery makes query current and notifies subscribers.
	PushQuery(query string)
}

// InitialURLState holds the query string a session started with, with
// consume-once semantics so it hydrates state only once.
type InitialURLState struct {
	Query    string
	consumed bool
}

// IsConsumed returns whether the initial state has been consumed.
func (s *InitialURLState) IsConsumed() bool {
	return s.consumed
}

// Consume marks the initial state as consumed and returns the query.
// Subsequent calls return "".
func (s *InitialURLState) Consume() string {
	if s.consumed {
		return ""
	}
	s.consumed = true
	return s.Query
}

// History is an in-memory Navigator with a back stack.
type History struct {
	mu        sync.Mutex
	entries   []string
	listeners []func(string)
	logger    *slog.Logger
}

// NewHistory creates a History whose first entry is initial.
func NewHistory(initial string) *History {
	return &History{
		entries: []string{Normalize(initial)},
		logger:  slog.Default().With("component", "history"),
	}
}

// SetLogger replaces the logger.
func (h *History) SetLogger(logger *slog.Logger) {
	h.mu.Lock()
	h.logger = logger.With("component", "history")
	h.mu.Unlock()
}

// CurrentQuery returns the query string of the top entry.
func (h *History) CurrentQuery() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[len(h.entries)-1]
}

// PushQuery adds a new entry. Pushing the current query again is a no-op.
func (h *History) PushQuery(query string) {
	h.navigate(Normalize(query), false)
}

// ReplaceQuery overwrites the top entry without growing the stack.
func (h *History) ReplaceQuery(query string) {
	h.navigate(Normalize(query), true)
}

// Back pops the top entry. It returns false when there is nothing to go
// back to.
func (h *History) Back() bool {
	h.mu.Lock()
	if len(h.entries) < 2 {
		h.mu.Unlock()
		return false
	}
	h.entries = h.entries[:len(h.entries)-1]
	current := h.entries[len(h.entries)-1]
	listeners := h.snapshotListeners()
	h.mu.Unlock()

	h.logger.Debug("history back", "query", current)
	for _, fn := range listeners {
		fn(current)
	}
	return true
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Subscribe registers fn to be called with the new query after every change.
func (h *History) Subscribe(fn func(query string)) {
	h.mu.Lock()
	h.listeners = append(h.listeners, fn)
	h.mu.Unlock()
}

func (h *History) navigate(query string, replace bool) {
	h.mu.Lock()
	top := len(h.entries) - 1
	if h.entries[top] == query {
		h.mu.Unlock()
		return
	}
	if replace {
		h.entries[top] = query
	} else {
		h.entries = append(h.entries, query)
	}
	listeners := h.snapshotListeners()
	h.mu.Unlock()

	h.logger.Debug("history navigate", "query", query, "replace", replace)
	for _, fn := range listeners {
		fn(query)
	}
}

func (h *History) snapshotListeners() []func(string) {
	ls := make([]func(string), len(h.listeners))
	copy(ls, h.listeners)
	return ls
}
