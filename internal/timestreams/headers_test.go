package timestreams

import "testing"

func TestHeaders(t *testing.T) {
	h := &Headers{}
	h.Set("post-time", "a")
	h.Set(HeaderVersion, FormatVersion)
	h.Add("link", "<x>; rel=\"self\"")
	h.Add("Link", "<y>; rel=\"previous\"")

	if got := h.Get("POST-TIME"); got != "a" {
		t.Errorf("Get(POST-TIME) = %q, want a", got)
	}
	if got := h.Values(HeaderLink); len(got) != 2 {
		t.Fatalf("Values(Link) = %v, want 2 values", got)
	}

	h.Set(HeaderLink, "<z>; rel=\"self\"")
	h.Set(HeaderPostTime, "b")

	fields := h.Fields()
	want := []Field{
		{HeaderPostTime, "b"},
		{HeaderVersion, FormatVersion},
		{HeaderLink, "<z>; rel=\"self\""},
	}
	if len(fields) != len(want) {
		t.Fatalf("Fields() = %v, want %v", fields, want)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("Fields()[%d] = %v, want %v", i, fields[i], want[i])
		}
	}

	if h.Get("Missing") != "" {
		t.Error("Get(Missing) should be empty")
	}

	fields[0].Value = "mutated"
	if h.Get(HeaderPostTime) != "b" {
		t.Error("Fields() should return a copy")
	}
}
