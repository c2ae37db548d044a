// Package server hosts the query-bound fetch demo over HTTP.
//
// A single Session owns the UI state: the input value, an in-memory
// navigation History, a Binder tied to one query parameter and a fetch
// Manager over a simulated fetcher. Everything runs on the session's event
// loop; HTTP handlers and the WebSocket stream interact with it only through
// Session methods.
//
// Routes:
//
//	GET  /                  HTML page
//	GET  /api/state         JSON view of the session
//	POST /api/input         set the input value (form field "value")
//	POST /api/query         push ?<param>=<value or input> to the history
//	POST /api/sample-query  push the sample text to the history
//	POST /api/fetch         trigger a fetch with the input value
//	POST /api/cancel        cancel the outstanding fetch
//	POST /api/back          go back in the history
//	GET  /ws                stream views as JSON text frames
//	GET  /metrics           Prometheus metrics (when enabled)
//	GET  /healthz           liveness
package server
