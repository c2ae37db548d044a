package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestOpenTelemetryPassesThrough(t *testing.T) {
	called := false
	r := chi.NewRouter()
	r.Use(OpenTelemetry(WithTracerName("test"), WithTracerProvider(noop.NewTracerProvider())))
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		called = true
		// The request context carries a span (non-recording with noop).
		_ = trace.SpanFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))

	if !called {
		t.Error("handler not called")
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func TestOpenTelemetryFilter(t *testing.T) {
	filtered := 0
	mw := OpenTelemetry(WithRequestFilter(func(r *http.Request) bool {
		filtered++
		return r.URL.Path != "/healthz"
	}))
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for _, p := range []string{"/healthz", "/"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}
	if filtered != 2 {
		t.Errorf("filter called %d times, want 2", filtered)
	}
}
