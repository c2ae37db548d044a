package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"github.com/vango-dev/querybind/internal/config"
	qerrors "github.com/vango-dev/querybind/internal/errors"
	"github.com/vango-dev/querybind/pkg/fetch"
	"github.com/vango-dev/querybind/pkg/middleware"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithOperation replaces the simulated fetcher.
func WithOperation(op fetch.Operation[string, string]) Option {
	return func(s *Server) {
		s.op = op
	}
}

// WithRegistry sets the Prometheus registry used for /metrics.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = registry
	}
}

// WithInitialQuery sets the query string the session starts with.
func WithInitialQuery(query string) Option {
	return func(s *Server) {
		s.initialQuery = query
	}
}

// Server serves one Session over HTTP and WebSocket.
type Server struct {
	config       *config.Config
	logger       *slog.Logger
	op           fetch.Operation[string, string]
	registry     *prometheus.Registry
	initialQuery string

	session    *Session
	metrics    *middleware.Metrics
	router     chi.Router
	upgrader   websocket.Upgrader
	httpServer *http.Server
}

// New builds a Server from cfg and starts its session loop.
func New(cfg *config.Config, opts ...Option) *Server {
	if cfg == nil {
		cfg = config.New()
	}
	s := &Server{config: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "server")
	if s.op == nil {
		s.op = SimulatedFetcher(cfg.FetchDelay())
	}

	sessionCfg := SessionConfig{
		Param:         cfg.Query.Param,
		InitialQuery:  s.initialQuery,
		QueueSize:     cfg.Fetch.QueueSize,
		AbortOnCancel: cfg.Fetch.AbortOnCancel,
		Logger:        s.logger,
		Tracer:        otel.Tracer("querybind/server"),
	}

	if cfg.Metrics.Enabled {
		if s.registry == nil {
			s.registry = prometheus.NewRegistry()
			s.registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
		}
		s.metrics = middleware.NewMetrics(
			middleware.WithNamespace(cfg.Metrics.Namespace),
			middleware.WithRegistry(s.registry),
		)
		sessionCfg.Observer = s.metrics
	}

	s.session = NewSession(sessionCfg, s.op)
	s.session.Start()

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	s.router = s.routes()
	return s
}

// Session returns the server's session.
func (s *Server) Session() *Session {
	return s.session
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chimw.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.HTTP)
	}
	r.Use(middleware.OpenTelemetry(
		middleware.WithTracerName("querybind/http"),
		middleware.WithRequestFilter(func(r *http.Request) bool {
			return r.URL.Path != "/healthz" && r.URL.Path != "/metrics"
		}),
	))

	r.Get("/", s.handlePage)
	r.Get("/healthz", s.handleHealth)
	r.Get("/ws", s.handleWebSocket)
	if s.metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Post("/input", s.handleInput)
		r.Post("/query", s.handleQuery)
		r.Post("/sample-query", s.handleSampleQuery)
		r.Post("/fetch", s.handleFetch)
		r.Post("/cancel", s.handleCancel)
		r.Post("/back", s.handleBack)
	})
	return r
}

// Run listens on the configured address until ctx is done or the process
// receives SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address())
	if err != nil {
		return qerrors.New("Q300").
			WithDetail("Could not listen on " + s.config.Address()).
			Wrap(err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String(), "param", s.session.Param())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.session.Close(context.Background())
			return qerrors.New("Q300").Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout())
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown stops the HTTP server and the session.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	s.session.Close(ctx)
	if err != nil {
		s.logger.Error("shutdown error", "error", err)
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", chimw.GetReqID(r.Context()),
			)
		})
	}
}
