package timestreams

import (
	"context"
	"sort"
	"time"
)

// FilesOnOrBeforeDay walks backward from day until it finds a day bucket
// with entries, and returns that bucket's entries sorted by byte order. It
// gives up with an empty list once the day falls before the provider's
// earliest day.
//
// Each step costs one FilesForDay call, including steps onto days that do
// not exist in the calendar (see SubtractDay). Callers bound the cost by
// keeping EarliestDay close to the real first post.
func (s *Service) FilesOnOrBeforeDay(ctx context.Context, day DateParts) ([]string, error) {
	earliest, err := s.provider.EarliestDay(ctx)
	if err != nil {
		return nil, providerError("earliest day", "", err)
	}
	floor := earliest.compact()

	var files []string
	probes := 0
	for d := day.DayOnly(); len(files) == 0 && d.compact() >= floor; d = SubtractDay(d) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		files, err = s.provider.FilesForDay(ctx, d)
		if err != nil {
			return nil, providerError("list day", dayPath(d, s.provider.Separator()), err)
		}
		probes++
	}
	s.logger.Debug("scanned days", "from", day.DayOnly().String(), "probes", probes, "found", len(files))

	sort.Strings(files)
	return files, nil
}

// AdjacentIdentifier returns the identifier of the post that follows meta in
// traversal order: the next post file after it on the same day in ascending
// path order, or failing that the first post file of the nearest earlier day
// with any entries. It returns "" when there is none.
//
// The order is deterministic but not strictly chronological when a day has
// several posts: within a day it ascends, across days it descends.
func (s *Service) AdjacentIdentifier(ctx context.Context, meta TimeAndName) (string, error) {
	sep := s.provider.Separator()
	sameDay, err := s.FilesOnOrBeforeDay(ctx, meta.DateParts)
	if err != nil {
		return "", err
	}
	self := PathFor(meta, sep)

	var next string
	found := false
	for _, f := range withoutSidecars(sameDay) {
		if found {
			next = f
			break
		}
		if f == self {
			found = true
		}
	}

	if next == "" {
		earlier, err := s.FilesOnOrBeforeDay(ctx, SubtractDay(meta.DateParts))
		if err != nil {
			return "", err
		}
		if posts := withoutSidecars(earlier); len(posts) > 0 {
			next = posts[0]
		}
	}
	if next == "" {
		return "", nil
	}
	id, ok := IdentifierForPath(next, sep)
	if !ok {
		s.logger.Warn("post path is not in a day bucket", "path", next)
		return "", nil
	}
	return id, nil
}

// LatestOnOrBefore resolves the first post, in ascending path order, of the
// most recent day with entries on or before ref. A nil ref means now. It
// returns ErrNotFound when no such day exists.
//
// Following previous links from the returned post uses the same ordering, so
// pagination from here is stable.
func (s *Service) LatestOnOrBefore(ctx context.Context, ref *time.Time) (*Post, error) {
	at := s.clock.Now()
	if ref != nil {
		at = *ref
	}
	files, err := s.FilesOnOrBeforeDay(ctx, DatePartsFromTime(at))
	if err != nil {
		return nil, err
	}
	posts := withoutSidecars(files)
	if len(posts) == 0 {
		return nil, ErrNotFound
	}
	id, ok := IdentifierForPath(posts[0], s.provider.Separator())
	if !ok {
		return nil, ErrNotFound
	}
	return s.ResolvePost(ctx, id)
}

func withoutSidecars(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !IsSidecar(p) {
			out = append(out, p)
		}
	}
	return out
}
