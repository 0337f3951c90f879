package provider

import (
	"context"
	"path"
	"strings"

	"github.com/gobwas/glob"

	"timestreams/internal/timestreams"
)

// DefaultIgnorePatterns hide editor and OS droppings from day listings.
var DefaultIgnorePatterns = []string{".DS_Store", "Thumbs.db", ".tmp-*", "*.swp", "*~"}

type ignorePattern struct {
	glob      glob.Glob
	matchPath bool // true = match against the stream-relative path; false = basename only
}

// IgnoreMatcher checks stream paths against a set of glob patterns.
// Patterns without '/' match the basename only; patterns with '/' match
// the whole path, and '*' does not cross a '/'.
type IgnoreMatcher struct {
	patterns []ignorePattern
}

// NewIgnoreMatcher compiles raw patterns. Blank lines and lines starting
// with '#' are skipped; patterns that do not compile are dropped.
func NewIgnoreMatcher(rawPatterns []string) *IgnoreMatcher {
	var patterns []ignorePattern
	for _, raw := range rawPatterns {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		g, err := glob.Compile(raw, '/')
		if err != nil {
			continue
		}
		patterns = append(patterns, ignorePattern{
			glob:      g,
			matchPath: strings.Contains(raw, "/"),
		})
	}
	return &IgnoreMatcher{patterns: patterns}
}

// Match reports whether the stream-relative path should be hidden.
func (m *IgnoreMatcher) Match(rel string) bool {
	base := path.Base(rel)
	for _, p := range m.patterns {
		subject := base
		if p.matchPath {
			subject = rel
		}
		if p.glob.Match(subject) {
			return true
		}
	}
	return false
}

// Filter returns the paths that are not ignored.
func (m *IgnoreMatcher) Filter(paths []string) []string {
	if len(m.patterns) == 0 {
		return paths
	}
	out := paths[:0:0]
	for _, p := range paths {
		if !m.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// ignoringStore hides ignored paths from a Store's listings and lookups.
type ignoringStore struct {
	timestreams.Store
	matcher *IgnoreMatcher
}

// WithIgnore wraps store so that ignored paths are never listed or found.
func WithIgnore(store timestreams.Store, matcher *IgnoreMatcher) timestreams.Store {
	if matcher == nil || len(matcher.patterns) == 0 {
		return store
	}
	return &ignoringStore{Store: store, matcher: matcher}
}

func (s *ignoringStore) FileExists(ctx context.Context, rel string) (bool, error) {
	if s.matcher.Match(rel) {
		return false, nil
	}
	return s.Store.FileExists(ctx, rel)
}

func (s *ignoringStore) FilesWithPrefix(ctx context.Context, rel string) ([]string, error) {
	files, err := s.Store.FilesWithPrefix(ctx, rel)
	if err != nil {
		return nil, err
	}
	return s.matcher.Filter(files), nil
}

func (s *ignoringStore) FilesForDay(ctx context.Context, day timestreams.DateParts) ([]string, error) {
	files, err := s.Store.FilesForDay(ctx, day)
	if err != nil {
		return nil, err
	}
	return s.matcher.Filter(files), nil
}
