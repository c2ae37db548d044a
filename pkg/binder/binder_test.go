package binder

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// recorder logs every callback in order.
type recorder struct {
	events []string
}

func (r *recorder) sink(name string) func(string) {
	return func(v string) { r.events = append(r.events, "sink:"+name+"="+v) }
}

func (r *recorder) apply(q string)  { r.events = append(r.events, "apply:"+q) }
func (r *recorder) cancel(q string) { r.events = append(r.events, "cancel:"+q) }

func (r *recorder) take() []string {
	ev := r.events
	r.events = nil
	return ev
}

func newRecorded(query string) (*Binder, *recorder) {
	r := &recorder{}
	b := New(query, []Transformation{
		{Param: "search", Sink: r.sink("search")},
		{Param: "page", Sink: r.sink("page")},
	}, r.apply, r.cancel)
	return b, r
}

func TestBinderAppliesOnConstruction(t *testing.T) {
	_, r := newRecorded("?search=hello%20world")

	want := []string{
		"sink:search=hello world",
		"sink:page=",
		"apply:?search=hello%20world",
	}
	if diff := cmp.Diff(want, r.take()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestBinderCancelRunsBeforeApply(t *testing.T) {
	b, r := newRecorded("?search=a")
	r.take()

	b.Update("?search=b&page=2")

	want := []string{
		"cancel:?search=a",
		"sink:search=b",
		"sink:page=2",
		"apply:?search=b&page=2",
	}
	if diff := cmp.Diff(want, r.take()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if b.Query() != "?search=b&page=2" {
		t.Errorf("Query() = %q", b.Query())
	}
}

func TestBinderIgnoresUnchangedQuery(t *testing.T) {
	b, r := newRecorded("?search=a")
	r.take()

	b.Update("?search=a")
	if ev := r.take(); len(ev) != 0 {
		t.Errorf("unchanged query produced events: %v", ev)
	}
}

func TestBinderClose(t *testing.T) {
	b, r := newRecorded("?search=a")
	r.take()

	b.Close()
	b.Close()
	b.Update("?search=b")

	want := []string{"cancel:?search=a"}
	if diff := cmp.Diff(want, r.take()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestBinderNilCallbacks(t *testing.T) {
	var got string
	b := New("?q=1", []Transformation{{Param: "q", Sink: func(v string) { got = v }}, {Param: "x"}}, nil, nil)
	b.Update("?q=2")
	b.Close()

	if got != "2" {
		t.Errorf("sink value = %q, want %q", got, "2")
	}
}

func TestBinderCopiesTransformations(t *testing.T) {
	r := &recorder{}
	ts := []Transformation{{Param: "search", Sink: r.sink("search")}}
	b := New("", ts, nil, nil)
	ts[0] = Transformation{Param: "other", Sink: r.sink("other")}
	r.take()

	b.Update("?search=x")
	want := []string{"sink:search=x"}
	if diff := cmp.Diff(want, r.take()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestBinderWithDecoder(t *testing.T) {
	var got string
	New("?anything", []Transformation{{Param: "p", Sink: func(v string) { got = v }}}, nil, nil,
		WithDecoder(func(query, param string) string { return param + query }))
	if got != "p?anything" {
		t.Errorf("custom decoder result = %q", got)
	}
}
