package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"timestreams/internal/linkheader"
	"timestreams/internal/provider"
	"timestreams/internal/testutil"
	"timestreams/internal/timestreams"
)

// memHistory keeps records in a slice.
type memHistory struct {
	mu      sync.Mutex
	records []timestreams.RequestRecord
	err     error
}

func (h *memHistory) Record(_ context.Context, r timestreams.RequestRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.records = append(h.records, r)
	return nil
}

func (h *memHistory) Recent(_ context.Context, limit int) ([]timestreams.RequestRecord, error) {
	return nil, nil
}

func (h *memHistory) Close() error { return nil }

func (h *memHistory) last(t *testing.T) timestreams.RequestRecord {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.records) == 0 {
		t.Fatal("no request recorded")
	}
	return h.records[len(h.records)-1]
}

type brokenBackend struct{}

func (brokenBackend) Stream(context.Context, string, bool) (timestreams.Store, error) {
	return nil, errors.New("bucket unreachable")
}

func newTestServer(t *testing.T, baseURL string) (*Server, *memHistory) {
	t.Helper()
	hist := &memHistory{}
	backend := provider.NewMemoryBackend(nil, testutil.FixtureStream())
	s := New(backend, hist, timestreams.NewNopLogger(), testutil.NewStubClock(testutil.FixtureTime), testutil.NewStubIDGenerator(), baseURL, 0)
	return s, hist
}

func serve(s *Server, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestPostHandler_ByID(t *testing.T) {
	s, hist := newTestServer(t, "")

	rec := serve(s, http.MethodGet, "/fixture/20200701000000Z-hello.txt")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %q", rec.Code, rec.Body.String())
	}
	if got := rec.Body.String(); got != "Hello, world" {
		t.Errorf("body = %q", got)
	}

	h := rec.Header()
	checks := map[string]string{
		"Content-Type":         "text/plain",
		"Content-Length":       "12",
		"Post-Time":            "Wed, 01 Jul 2020 00:00:00 GMT",
		"Time-Streams-Version": "1",
		HeaderRequestID:        "req-1",
	}
	for name, want := range checks {
		if got := h.Get(name); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}

	wantLink := `<http://example.com/fixture/20200701000000Z-hello.txt>; rel="self"; type="text/plain"; title="test post", ` +
		`<http://example.com/fixture/20200701000000Z-hello.txt$describedby.txt>; rel="describedby"; type="text/plain"; title="Description", ` +
		`<http://example.com/fixture/20200701000000Z-z.txt>; rel="previous"`
	if got := h.Get("Link"); got != wantLink {
		t.Errorf("Link =\n  %s\nwant\n  %s", got, wantLink)
	}

	r := hist.last(t)
	if r.Status != http.StatusOK || r.Stream != "fixture" || r.PostID != "20200701000000Z-hello.txt" || r.FilePath != "2020/07/01/hello.txt" {
		t.Errorf("recorded %+v", r)
	}
	if !r.CreatedAt.Equal(testutil.FixtureTime) {
		t.Errorf("CreatedAt = %v", r.CreatedAt)
	}
}

func TestPostHandler_Head(t *testing.T) {
	s, _ := newTestServer(t, "")

	rec := serve(s, http.MethodHead, "/fixture/20200601000000Z-a.txt")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("HEAD body = %q, want empty", rec.Body.String())
	}
	if got := rec.Header().Get("Content-Length"); got != "14" {
		t.Errorf("Content-Length = %q, want 14", got)
	}
	if rec.Header().Get("Link") == "" {
		t.Error("HEAD response missing Link header")
	}
}

func TestPostHandler_Latest(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		wantCode int
		wantBody string
	}{
		{"now", "/fixture", http.StatusOK, "Hello, world"},
		{"before date", "/fixture?before=2020-06-05", http.StatusOK, "The first word"},
		{"before timestamp", "/fixture?before=2020-07-01T08:00:00Z", http.StatusOK, "Hello, world"},
		{"before earliest", "/fixture?before=2020-01-01", http.StatusNotFound, "Post not found\n"},
		{"bad before", "/fixture?before=yesterday", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, hist := newTestServer(t, "")
			rec := serve(s, http.MethodGet, tt.target)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d; body %q", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
			if got := hist.last(t).Status; got != tt.wantCode {
				t.Errorf("recorded status = %d, want %d", got, tt.wantCode)
			}
		})
	}
}

func TestPostHandler_NotFound(t *testing.T) {
	targets := []string{
		"/fixture/blah",
		"/fixture/20200701000000Z-missing.txt",
		"/nope/20200701000000Z-hello.txt",
		"/nope",
	}
	for _, target := range targets {
		t.Run(target, func(t *testing.T) {
			s, hist := newTestServer(t, "")
			rec := serve(s, http.MethodGet, target)
			if rec.Code != http.StatusNotFound {
				t.Fatalf("status = %d, want 404", rec.Code)
			}
			if got := rec.Body.String(); got != "Post not found\n" {
				t.Errorf("body = %q", got)
			}
			if hist.last(t).FilePath != "" {
				t.Error("404 recorded a file path")
			}
		})
	}
}

func TestPostHandler_ProviderFailure(t *testing.T) {
	hist := &memHistory{}
	s := New(brokenBackend{}, hist, timestreams.NewNopLogger(), testutil.FixedClock(), testutil.NewStubIDGenerator(), "", 0)

	rec := serve(s, http.MethodGet, "/blog/20200701000000Z-hello.txt")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if hist.last(t).Status != http.StatusInternalServerError {
		t.Error("500 not recorded")
	}
}

func TestPostHandler_HistoryFailureStillServes(t *testing.T) {
	s, hist := newTestServer(t, "")
	hist.err = errors.New("disk full")

	rec := serve(s, http.MethodGet, "/fixture/20200701000000Z-z.txt")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestPostHandler_ConfiguredBaseURL(t *testing.T) {
	s, _ := newTestServer(t, "https://posts.example.org/")

	rec := serve(s, http.MethodGet, "/fixture/20200701000000Z-z.txt")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	links := linkheader.Parse(rec.Header().Get("Link"))
	if len(links) != 2 {
		t.Fatalf("links = %v", rec.Header().Get("Link"))
	}
	for _, l := range links {
		if !strings.HasPrefix(l.URL, "https://posts.example.org/fixture/") {
			t.Errorf("link %s url = %q", l.Rel, l.URL)
		}
	}
	if links[1].URL != "https://posts.example.org/fixture/20200601000000Z-a.txt" {
		t.Errorf("previous = %q", links[1].URL)
	}
}

func TestAbsoluteLinks(t *testing.T) {
	req := &Request{Stream: "my stream", BaseURL: "http://h"}
	links := []*linkheader.Link{
		linkheader.NewLink("self", "20200701000000Z-a b.txt"),
		linkheader.NewLink("related", "https://elsewhere.example/x"),
	}
	absoluteLinks(links, req)
	if links[0].URL != "http://h/my%20stream/20200701000000Z-a%20b.txt" {
		t.Errorf("relative url = %q", links[0].URL)
	}
	if links[1].URL != "https://elsewhere.example/x" {
		t.Errorf("absolute url changed to %q", links[1].URL)
	}
}

func TestServe_StopsOnCancel(t *testing.T) {
	s, _ := newTestServer(t, "")
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() { errc <- s.Serve(ctx, "127.0.0.1:0", time.Second) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}

func TestPostHandler_RequestTimeout(t *testing.T) {
	hist := &memHistory{}
	backend := provider.NewMemoryBackend(nil, testutil.FixtureStream())
	s := New(backend, hist, timestreams.NewNopLogger(), testutil.NewStubClock(testutil.FixtureTime),
		testutil.NewStubIDGenerator(), "", 20*time.Millisecond)

	// Millions of empty days lie between the year 9999 and the fixture posts.
	start := time.Now()
	rec := serve(s, http.MethodGet, "/fixture?before=9999-12-31")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("scan ran for %v after its deadline", elapsed)
	}
	if hist.last(t).Status != http.StatusServiceUnavailable {
		t.Error("503 not recorded")
	}
}

func TestPostHandler_TimeoutAllowsQuickRequests(t *testing.T) {
	backend := provider.NewMemoryBackend(nil, testutil.FixtureStream())
	s := New(backend, &memHistory{}, timestreams.NewNopLogger(), testutil.NewStubClock(testutil.FixtureTime),
		testutil.NewStubIDGenerator(), "", 10*time.Second)

	rec := serve(s, http.MethodGet, "/fixture/20200701000000Z-hello.txt")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "Hello, world" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestPostHandler_BeforeIgnoredForPostID(t *testing.T) {
	s, _ := newTestServer(t, "")

	rec := serve(s, http.MethodGet, "/fixture/20200701000000Z-hello.txt?before=yesterday")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
