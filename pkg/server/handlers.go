package server

import (
	"encoding/json"
	"net/http"
	"strings"

	qerrors "github.com/vango-dev/querybind/internal/errors"
	"github.com/vango-dev/querybind/pkg/urlparam"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, nil)
}

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.badRequest(w, err)
		return
	}
	s.respond(w, r, s.session.SetInput(r.Context(), r.PostForm.Get("value")))
}

// handleQuery pushes ?<param>=<value>. Without a value field the current
// input is used.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.badRequest(w, err)
		return
	}
	s.respond(w, r, s.session.PushValue(r.Context(), r.PostForm.Get("value")))
}

func (s *Server) handleSampleQuery(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, s.session.PushValue(r.Context(), SampleQueryText))
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, s.session.Fetch(r.Context()))
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, s.session.Cancel(r.Context()))
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	_, err := s.session.Back(r.Context())
	s.respond(w, r, err)
}

// respond writes the current view as JSON for API clients. Browser form
// posts are redirected back to the page at the current query.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		s.logger.Error("session action failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusServiceUnavailable, qerrors.FromError(err, "Q003"))
		return
	}

	v, err := s.session.View(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, qerrors.FromError(err, "Q003"))
		return
	}

	if r.Method == http.MethodPost && !wantsJSON(r) {
		http.Redirect(w, r, "/"+urlparam.Normalize(v.Query), http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) badRequest(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, qerrors.New("Q400").Wrap(err))
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err *qerrors.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(err.FormatJSON()))
}
