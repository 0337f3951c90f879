package timestreams

import (
	"context"
	"io"
)

// DefaultSeparator delimits storage path segments unless a provider says
// otherwise.
const DefaultSeparator = "/"

// Provider gives the engine read access to one stream's file tree. Paths are
// relative to the stream root and use Separator between segments.
// Implementations may block on I/O; every call finishes before the engine
// issues the next dependent one.
type Provider interface {
	// FileExists reports whether a regular file exists at path.
	FileExists(ctx context.Context, path string) (bool, error)

	// FileText returns the content of path. ok is false if the file does
	// not exist.
	FileText(ctx context.Context, path string) (text string, ok bool, err error)

	// FilesWithPrefix returns every path beginning with path, including path
	// itself if it exists. A missing directory yields an empty list.
	FilesWithPrefix(ctx context.Context, path string) ([]string, error)

	// FilesForDay returns every entry in the day's bucket, sidecars
	// included. A missing bucket yields an empty list.
	FilesForDay(ctx context.Context, day DateParts) ([]string, error)

	// EarliestDay is the floor for backward scans.
	EarliestDay(ctx context.Context) (DateParts, error)

	// TypeForExtension maps ".ext" to a media type.
	TypeForExtension(ext string) (string, bool)

	// Separator delimits path segments.
	Separator() string
}

// Store is a Provider that can also hand out post content and accept new
// posts. Posts are immutable: Put fails if path already exists.
type Store interface {
	Provider

	// Open returns the content of path and its size in bytes.
	Open(ctx context.Context, path string) (io.ReadCloser, int64, error)

	// Put writes size bytes from r to path.
	Put(ctx context.Context, path string, r io.Reader, size int64) error
}
