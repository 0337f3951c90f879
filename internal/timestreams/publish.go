package timestreams

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// Publish stores a new post named name at time at, truncated to the
// second, and returns its identifier. The post lands in the day bucket for
// at; a midnight time gets no time segment.
func Publish(ctx context.Context, store Store, at time.Time, name string, r io.Reader, size int64) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, store.Separator()) {
		return "", fmt.Errorf("%w: post name %q", ErrInvalidIdentifier, name)
	}
	meta := TimeAndName{DateParts: DatePartsFromTime(at), Name: name}
	path := PathFor(meta, store.Separator())
	if err := store.Put(ctx, path, r, size); err != nil {
		return "", fmt.Errorf("publishing %s: %w", path, err)
	}
	return IdentifierFor(meta), nil
}
