package server

import (
	"html/template"
	"net/http"

	"github.com/vango-dev/querybind/pkg/urlparam"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>querybind</title>
<style>
body { font-family: sans-serif; max-width: 40rem; margin: 2rem auto; }
form { display: inline; }
#result { margin: 1rem 0; padding: .5rem; border: 1px solid #ccc; }
</style>
</head>
<body>
<h1>Query-bound fetch</h1>
<div id="result">
{{- if .IsLoading}}Loading...
{{- else if .Error}}Error occurred: {{.Error}}
{{- else if .HasData}}Data: {{.Data}}
{{- else if .IsCanceled}}Canceled
{{- else}}No data yet{{end -}}
</div>
<p>Query: <code id="query">{{.Query}}</code> &middot; loads: <span id="loads">{{.LoadCount}}</span></p>

<form method="post" action="/api/input">
<input name="value" value="{{.Input}}" placeholder="{{.Param}}">
<button>Set input</button>
</form>
<form method="post" action="/api/query"><button>Push to URL</button></form>
<form method="post" action="/api/sample-query"><button>Set some query</button></form>
<form method="post" action="/api/fetch"><button>Fetch</button></form>
<form method="post" action="/api/cancel"><button>Cancel</button></form>
<form method="post" action="/api/back"><button>Back</button></form>

<script>
(function () {
  var ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
  ws.onmessage = function (ev) {
    var v = JSON.parse(ev.data);
    var text = "No data yet";
    if (v.isLoading) text = "Loading...";
    else if (v.error) text = "Error occurred: " + v.error;
    else if (v.hasData) text = "Data: " + v.data;
    else if (v.isCanceled) text = "Canceled";
    document.getElementById("result").textContent = text;
    document.getElementById("query").textContent = v.query;
    document.getElementById("loads").textContent = v.loadCount;
    if (location.search !== v.query) history.replaceState(null, "", "/" + v.query);
  };
})();
</script>
</body>
</html>
`))

// handlePage renders the page. A query string on the request is treated as
// host navigation and pushed into the session history first.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	query := urlparam.Normalize(r.URL.RawQuery)
	if query != s.session.Navigator().CurrentQuery() {
		if err := s.session.Navigate(r.Context(), query); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
	}

	v, err := s.session.View(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, v); err != nil {
		s.logger.Error("render page", "error", err)
	}
}
