package urlparam

import "testing"

func TestHistoryPushAndBack(t *testing.T) {
	h := NewHistory("search=go")
	if got := h.CurrentQuery(); got != "?search=go" {
		t.Fatalf("CurrentQuery() = %q, want %q", got, "?search=go")
	}

	var seen []string
	h.Subscribe(func(q string) { seen = append(seen, q) })

	h.PushQuery(Encode("search", "rust"))
	h.PushQuery("?search=rust") // unchanged, no notification
	h.PushQuery("")

	if h.Len() != 3 {
		t.Errorf("Len() = %d, want 3", h.Len())
	}
	if !h.Back() {
		t.Fatal("Back() = false, want true")
	}
	if got := h.CurrentQuery(); got != "?search=rust" {
		t.Errorf("CurrentQuery() after Back = %q", got)
	}
	h.Back()
	if h.Back() {
		t.Error("Back() on the first entry should return false")
	}

	want := []string{"?search=rust", "", "?search=rust", "?search=go"}
	if len(seen) != len(want) {
		t.Fatalf("notifications = %q, want %q", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("notification %d = %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestHistoryReplace(t *testing.T) {
	h := NewHistory("")
	notified := 0
	h.Subscribe(func(string) { notified++ })

	h.ReplaceQuery("?q=1")
	h.ReplaceQuery("?q=2")

	if h.Len() != 1 {
		t.Errorf("Len() = %d, want 1", h.Len())
	}
	if h.CurrentQuery() != "?q=2" {
		t.Errorf("CurrentQuery() = %q", h.CurrentQuery())
	}
	if notified != 2 {
		t.Errorf("notified %d times, want 2", notified)
	}
}

func TestHistoryImplementsNavigator(t *testing.T) {
	var nav Navigator = NewHistory("")
	nav.PushQuery("?a=b")
	if Decode(nav.CurrentQuery(), "a") != "b" {
		t.Error("navigator round trip failed")
	}
}

func TestInitialURLState(t *testing.T) {
	s := &InitialURLState{Query: "?search=x"}
	if s.IsConsumed() {
		t.Error("should not be consumed initially")
	}
	if got := s.Consume(); got != "?search=x" {
		t.Errorf("Consume() = %q", got)
	}
	if got := s.Consume(); got != "" {
		t.Errorf("second Consume() = %q, want empty", got)
	}
	if !s.IsConsumed() {
		t.Error("should be consumed")
	}
}
