// Package provider holds the storage backends a stream can live in.
package provider

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownStream is returned when a stream does not exist in a backend.
	ErrUnknownStream = errors.New("unknown stream")
	// ErrExists is returned by Put when the target path is taken.
	ErrExists = errors.New("file already exists")
)

// noPostsYear is the earliest year reported by an empty stream.
const noPostsYear = 9999

// DefaultMimeTypes maps extensions to the types served when config names none.
var DefaultMimeTypes = map[string]string{
	".txt":  "text/plain",
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".html": "text/html",
	".js":   "application/javascript",
	".json": "application/json",
	".css":  "text/css",
	".md":   "text/markdown",
}

func lookupType(mimes map[string]string, ext string) (string, bool) {
	if mimes == nil {
		mimes = DefaultMimeTypes
	}
	t, ok := mimes[strings.ToLower(ext)]
	return t, ok
}

// ValidateStreamName rejects names that cannot be a single path segment.
func ValidateStreamName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrUnknownStream, name)
	}
	return nil
}
