package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
)

// Request is what the responder needs from an incoming HTTP request.
type Request struct {
	ID      string
	Method  string
	Stream  string
	PostID  string     // empty asks for the latest post
	Before  *time.Time // only for latest
	BaseURL string     // scheme://host[/prefix], no trailing slash
}

// beforeLayouts are tried in order for the ?before= parameter.
var beforeLayouts = []string{time.RFC3339, "2006-01-02"}

// NewRequest builds a Request from r. baseURL overrides the one derived
// from the Host header when set.
func NewRequest(r *http.Request, ps httprouter.Params, id, baseURL string) (*Request, error) {
	req := &Request{
		ID:      id,
		Method:  r.Method,
		Stream:  ps.ByName("stream"),
		PostID:  ps.ByName("post"),
		BaseURL: strings.TrimSuffix(baseURL, "/"),
	}
	if req.BaseURL == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		req.BaseURL = scheme + "://" + r.Host
	}

	if raw := r.URL.Query().Get("before"); raw != "" && req.PostID == "" {
		t, err := parseBefore(raw)
		if err != nil {
			return req, err
		}
		req.Before = &t
	}
	return req, nil
}

func parseBefore(raw string) (time.Time, error) {
	for _, layout := range beforeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid before %q: want RFC 3339 or YYYY-MM-DD", raw)
}
