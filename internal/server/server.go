// Package server answers HTTP requests for posts. Every response carries
// the post's Link header, with relative link targets made absolute.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/facebookgo/httpdown"
	"github.com/julienschmidt/httprouter"

	"timestreams/internal/linkheader"
	"timestreams/internal/provider"
	"timestreams/internal/timestreams"
)

// HeaderRequestID echoes the id a request is recorded under.
const HeaderRequestID = "X-Request-Id"

// Server resolves posts from a provider backend and records each outcome.
type Server struct {
	backend provider.Backend
	history timestreams.History
	logger  timestreams.Logger
	clock   timestreams.Clock
	ids     timestreams.IDGenerator
	baseURL string
	timeout time.Duration
}

// New creates a Server. baseURL may be empty to derive it per request.
// timeout bounds how long one request may spend resolving its post; zero
// means no limit.
func New(backend provider.Backend, history timestreams.History, logger timestreams.Logger,
	clock timestreams.Clock, ids timestreams.IDGenerator, baseURL string, timeout time.Duration) *Server {
	if history == nil {
		history = timestreams.NopHistory{}
	}
	return &Server{
		backend: backend,
		history: history,
		logger:  logger,
		clock:   clock,
		ids:     ids,
		baseURL: baseURL,
		timeout: timeout,
	}
}

// Handler returns the routes.
func (s *Server) Handler() http.Handler {
	var routes = []struct {
		method  string
		route   string
		handler httprouter.Handle
	}{
		{"GET", "/:stream", s.PostHandler},
		{"HEAD", "/:stream", s.PostHandler},
		{"GET", "/:stream/:post", s.PostHandler},
		{"HEAD", "/:stream/:post", s.PostHandler},
	}

	r := httprouter.New()
	for _, route := range routes {
		r.Handle(route.method, route.route, route.handler)
	}
	return r
}

// Serve listens on addr until ctx is done, then stops accepting requests
// and waits up to stopTimeout for in-flight ones.
func (s *Server) Serve(ctx context.Context, addr string, stopTimeout time.Duration) error {
	hd := httpdown.HTTP{StopTimeout: stopTimeout, KillTimeout: stopTimeout}
	srv, err := hd.ListenAndServe(&http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.logger.Info("listening", "addr", addr)

	done := make(chan error, 1)
	go func() { done <- srv.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
	}
	s.logger.Info("stopping server", "timeout", stopTimeout.String())
	if err := srv.Stop(); err != nil {
		return fmt.Errorf("stopping server: %w", err)
	}
	return <-done
}

// PostHandler serves a post by id, or the latest post when the route has
// no id.
func (s *Server) PostHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	req, err := NewRequest(r, ps, s.ids.New(), s.baseURL)
	w.Header().Set(HeaderRequestID, req.ID)
	if err != nil {
		s.finish(r.Context(), w, req, nil, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := r.Context(), context.CancelFunc(func() {})
	if s.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
	}
	post, store, err := s.resolve(ctx, req)
	cancel()
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded):
		s.logger.Warn("resolving post timed out", "request", req.ID, "stream", req.Stream, "post", req.PostID, "timeout", s.timeout.String())
		s.finish(r.Context(), w, req, nil, http.StatusServiceUnavailable, "Request timed out")
		return
	case errors.Is(err, provider.ErrUnknownStream),
		errors.Is(err, timestreams.ErrNotFound),
		errors.Is(err, timestreams.ErrInvalidIdentifier):
		s.logger.Debug("post not found", "request", req.ID, "stream", req.Stream, "post", req.PostID, "error", err)
		s.finish(r.Context(), w, req, nil, http.StatusNotFound, "Post not found")
		return
	default:
		s.logger.Error("resolving post failed", "request", req.ID, "stream", req.Stream, "post", req.PostID, "error", err)
		s.finish(r.Context(), w, req, nil, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	body, size, err := store.Open(r.Context(), post.FilePath)
	if err != nil {
		s.logger.Error("opening post failed", "request", req.ID, "path", post.FilePath, "error", err)
		s.finish(r.Context(), w, req, post, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	defer body.Close()

	h := w.Header()
	for _, f := range post.Headers.Fields() {
		value := f.Value
		if f.Name == timestreams.HeaderLink {
			value = linkheader.Serialize(absoluteLinks(linkheader.Parse(value), req))
		}
		h.Add(f.Name, value)
	}
	h.Set("Content-Length", strconv.FormatInt(size, 10))
	w.WriteHeader(http.StatusOK)
	if req.Method != http.MethodHead {
		if _, err := io.Copy(w, body); err != nil {
			s.logger.Warn("writing post body failed", "request", req.ID, "error", err)
		}
	}
	s.record(r.Context(), req, post, http.StatusOK)
}

func (s *Server) resolve(ctx context.Context, req *Request) (*timestreams.Post, timestreams.Store, error) {
	store, err := s.backend.Stream(ctx, req.Stream, false)
	if err != nil {
		return nil, nil, err
	}
	svc := timestreams.NewService(store, s.logger, s.clock)
	var post *timestreams.Post
	if req.PostID == "" {
		post, err = svc.LatestOnOrBefore(ctx, req.Before)
	} else {
		post, err = svc.ResolvePost(ctx, req.PostID)
	}
	if err != nil {
		return nil, nil, err
	}
	return post, store, nil
}

// finish writes a plain-text error response and records it.
func (s *Server) finish(ctx context.Context, w http.ResponseWriter, req *Request, post *timestreams.Post, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if req.Method != http.MethodHead {
		fmt.Fprintln(w, msg)
	}
	s.record(ctx, req, post, status)
}

func (s *Server) record(ctx context.Context, req *Request, post *timestreams.Post, status int) {
	rec := timestreams.RequestRecord{
		RequestID: req.ID,
		Stream:    req.Stream,
		PostID:    req.PostID,
		Status:    status,
		CreatedAt: s.clock.Now(),
	}
	if post != nil {
		rec.PostID = post.ID
		rec.FilePath = post.FilePath
	}
	if err := s.history.Record(context.WithoutCancel(ctx), rec); err != nil {
		s.logger.Warn("recording request failed", "request", req.ID, "error", err)
	}
	s.logger.Info("request", "request", req.ID, "method", req.Method, "stream", req.Stream, "post", rec.PostID, "status", status)
}

// absoluteLinks points relative link targets at this server.
func absoluteLinks(links []*linkheader.Link, req *Request) []*linkheader.Link {
	for _, l := range links {
		if !strings.HasPrefix(l.URL, "http") {
			l.URL = req.BaseURL + "/" + url.PathEscape(req.Stream) + "/" + url.PathEscape(l.URL)
		}
	}
	return links
}
