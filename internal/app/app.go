package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"timestreams/internal/config"
	"timestreams/internal/database"
	"timestreams/internal/provider"
	"timestreams/internal/server"
	"timestreams/internal/timestreams"
)

// Defaults for unset server durations.
const (
	DefaultStopTimeout    = 10 * time.Second
	DefaultRequestTimeout = 5 * time.Second
)

// migrationChecker is implemented by history stores with a versioned schema.
type migrationChecker interface {
	CheckMigrations() error
}

var _ migrationChecker = (*database.SQLiteHistory)(nil)

// App is the application layer between the CLI and the timestreams engine.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw strings, and closes the history database on Close.
type App struct {
	cfg     *config.Config
	backend provider.Backend
	history timestreams.History
	logger  timestreams.Logger
	clock   timestreams.Clock
	ids     timestreams.IDGenerator
	op      *Operation
	logFile *os.File
}

// New creates a fully wired App from the given config.
// operation names the CLI command being run (e.g. "serve", "publish").
// The caller must call Close when done.
func New(ctx context.Context, cfg *config.Config, operation, parameters string) (*App, error) {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	backend, err := provider.NewBackendFromConfig(ctx, cfg.Provider, cfg.Mime, cfg.Ignore)
	if err != nil {
		return nil, fmt.Errorf("creating provider: %w", err)
	}

	history, err := database.NewHistoryFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating history: %w", err)
	}
	if db, ok := history.(migrationChecker); ok {
		if err := db.CheckMigrations(); err != nil {
			history.Close()
			return nil, fmt.Errorf("history schema out of date: %w", err)
		}
	}

	ids := timestreams.UUIDGenerator{}
	clock := timestreams.RealClock{}
	op := NewOperation(ids.New(), operation, parameters, clock.Now())

	l, logFile, err := newLogger(cfg.LogDir, op.ID, level)
	if err != nil {
		history.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: l}
	logger.Debug("operation started", "operation", op.Name, "parameters", op.Parameters)

	return &App{
		cfg:     cfg,
		backend: backend,
		history: history,
		logger:  logger,
		clock:   clock,
		ids:     ids,
		op:      op,
		logFile: logFile,
	}, nil
}

// service opens stream and returns a Service over it.
func (a *App) service(ctx context.Context, stream string) (*timestreams.Service, timestreams.Store, error) {
	store, err := a.backend.Stream(ctx, stream, false)
	if err != nil {
		return nil, nil, a.op.Fail(err)
	}
	return timestreams.NewService(store, a.logger, a.clock), store, nil
}

// Resolve looks up a post by id in stream.
func (a *App) Resolve(ctx context.Context, stream, id string) (*timestreams.Post, timestreams.Store, error) {
	svc, store, err := a.service(ctx, stream)
	if err != nil {
		return nil, nil, err
	}
	post, err := svc.ResolvePost(ctx, id)
	if err != nil {
		return nil, nil, a.op.Fail(err)
	}
	return post, store, nil
}

// Latest returns the newest post in stream at or before before, or before
// now when before is nil.
func (a *App) Latest(ctx context.Context, stream string, before *time.Time) (*timestreams.Post, timestreams.Store, error) {
	svc, store, err := a.service(ctx, stream)
	if err != nil {
		return nil, nil, err
	}
	post, err := svc.LatestOnOrBefore(ctx, before)
	if err != nil {
		return nil, nil, a.op.Fail(err)
	}
	return post, store, nil
}

// Body reads a post's content. Only text posts are read; other types
// return nil.
func (a *App) Body(ctx context.Context, store timestreams.Store, post *timestreams.Post) ([]byte, error) {
	if !strings.HasPrefix(post.Headers.Get(timestreams.HeaderContentType), "text/") {
		return nil, nil
	}
	rc, _, err := store.Open(ctx, post.FilePath)
	if err != nil {
		return nil, a.op.Fail(fmt.Errorf("opening %s: %w", post.FilePath, err))
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, a.op.Fail(fmt.Errorf("reading %s: %w", post.FilePath, err))
	}
	return b, nil
}

// Publish copies the file at rawPath into stream as a new post timed at
// at, or now when at is nil. The stream is created if needed. Returns the
// new post's identifier.
func (a *App) Publish(ctx context.Context, stream, rawPath string, at *time.Time) (string, error) {
	f, err := os.Open(rawPath)
	if err != nil {
		return "", a.op.Fail(fmt.Errorf("opening %s: %w", rawPath, err))
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", a.op.Fail(fmt.Errorf("stat %s: %w", rawPath, err))
	}
	if !info.Mode().IsRegular() {
		return "", a.op.Fail(fmt.Errorf("%s is not a regular file", rawPath))
	}

	store, err := a.backend.Stream(ctx, stream, true)
	if err != nil {
		return "", a.op.Fail(err)
	}

	when := a.clock.Now()
	if at != nil {
		when = *at
	}
	id, err := timestreams.Publish(ctx, store, when, filepath.Base(rawPath), f, info.Size())
	if err != nil {
		return "", a.op.Fail(err)
	}
	a.logger.Info("post published", "stream", stream, "post", id, "size", info.Size())
	return id, nil
}

// History returns the most recent served requests, newest first.
func (a *App) History(ctx context.Context, limit int) ([]timestreams.RequestRecord, error) {
	records, err := a.history.Recent(ctx, limit)
	if err != nil {
		return nil, a.op.Fail(fmt.Errorf("reading history: %w", err))
	}
	return records, nil
}

// Serve runs the HTTP responder until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	stop, err := duration("server.stop_timeout", a.cfg.Server.StopTimeout, DefaultStopTimeout)
	if err != nil {
		return a.op.Fail(err)
	}
	timeout, err := duration("server.request_timeout", a.cfg.Server.RequestTimeout, DefaultRequestTimeout)
	if err != nil {
		return a.op.Fail(err)
	}

	srv := server.New(a.backend, a.history, a.logger, a.clock, a.ids, a.cfg.Server.BaseURL, timeout)
	return a.op.Fail(srv.Serve(ctx, a.cfg.Server.Listen, stop))
}

// duration parses a config duration, returning def when raw is empty.
func duration(key, raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", key, raw)
	}
	return d, nil
}

// Close logs the operation outcome and closes the history database and
// log file.
func (a *App) Close() error {
	a.logger.Debug("operation finished", "operation", a.op.Name, "status", a.op.Status, "elapsed", a.op.Elapsed(a.clock.Now()))

	var firstErr error
	if err := a.history.Close(); err != nil {
		firstErr = fmt.Errorf("closing history: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
