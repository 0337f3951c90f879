package timestreams

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidIdentifier means the identifier is not YYYYMMDDHHMMSSZ-name.
	ErrInvalidIdentifier = errors.New("invalid post identifier")

	// ErrNotFound means the identifier is well formed but no post file exists.
	ErrNotFound = errors.New("post not found")
)

// ProviderError wraps a failure reported by a Provider.
type ProviderError struct {
	Op   string
	Path string
	Err  error
}

func (e *ProviderError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("provider %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func providerError(op, path string, err error) error {
	return &ProviderError{Op: op, Path: path, Err: err}
}
