// Package middleware provides observability for querybind: Prometheus
// metrics for HTTP requests and fetch lifecycles, and OpenTelemetry tracing
// for HTTP requests.
//
// The HTTP middleware has the standard func(http.Handler) http.Handler shape
// and plugs into chi:
//
//	m := middleware.NewMetrics(middleware.WithNamespace("myapp"))
//
//	r := chi.NewRouter()
//	r.Use(m.HTTP)
//	r.Use(middleware.OpenTelemetry(middleware.WithTracerName("myapp")))
//
// Metrics also implements fetch.Observer:
//
//	manager := fetch.New(op, fetch.WithObserver(m))
package middleware
