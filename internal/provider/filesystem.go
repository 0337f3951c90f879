package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"timestreams/internal/timestreams"
)

// StreamDirSuffix is appended to a stream name to get its directory.
const StreamDirSuffix = ".timestream"

// OSProvider is a filesystem-based implementation of the timestreams.Store
// interface. A stream lives in a directory of day buckets:
//
//	<root>/<stream>.timestream/
//	  2020/07/01/
//	    hello.txt                  (post)
//	    hello.txt$self.attributes  (sidecar)
//
// Paths passed to and returned from the provider always use "/".
type OSProvider struct {
	name  string
	dir   string
	mimes map[string]string
}

// StreamDir returns the directory holding stream under root.
func StreamDir(root, stream string) string {
	return filepath.Join(root, stream+StreamDirSuffix)
}

// NewOSProvider opens the stream directory for name under root. It returns
// ErrUnknownStream when the directory does not exist.
func NewOSProvider(root, name string, mimes map[string]string) (*OSProvider, error) {
	if err := ValidateStreamName(name); err != nil {
		return nil, err
	}
	dir := StreamDir(root, name)
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownStream, name)
		}
		return nil, fmt.Errorf("stream directory not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("stream path is not a directory: %s", dir)
	}
	return &OSProvider{name: name, dir: dir, mimes: mimes}, nil
}

func (p *OSProvider) abs(rel string) string {
	return filepath.Join(p.dir, filepath.FromSlash(rel))
}

func (p *OSProvider) FileExists(_ context.Context, rel string) (bool, error) {
	info, err := os.Stat(p.abs(rel))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", rel, err)
	}
	return info.Mode().IsRegular(), nil
}

func (p *OSProvider) FileText(_ context.Context, rel string) (string, bool, error) {
	data, err := os.ReadFile(p.abs(rel))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading %s: %w", rel, err)
	}
	return string(data), true, nil
}

// FilesWithPrefix lists the directory containing rel and returns the
// entries whose path starts with rel.
func (p *OSProvider) FilesWithPrefix(_ context.Context, rel string) ([]string, error) {
	dir := path.Dir(rel)
	entries, err := os.ReadDir(p.abs(dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading directory: %w", err)
	}
	var out []string
	for _, e := range entries {
		full := path.Join(dir, e.Name())
		if strings.HasPrefix(full, rel) {
			out = append(out, full)
		}
	}
	return out, nil
}

// FilesForDay returns the regular files in the day's bucket. A missing
// bucket is an empty day.
func (p *OSProvider) FilesForDay(_ context.Context, day timestreams.DateParts) ([]string, error) {
	dir := timestreams.DayPath(day)
	entries, err := os.ReadDir(p.abs(dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading day directory: %w", err)
	}
	var out []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		out = append(out, path.Join(dir, e.Name()))
	}
	return out, nil
}

// EarliestDay is January 1st of the smallest year directory. A stream
// without year directories reports a day past any post, so scans stop
// at once.
func (p *OSProvider) EarliestDay(_ context.Context) (timestreams.DateParts, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return timestreams.DateParts{}, fmt.Errorf("reading stream directory: %w", err)
	}
	minYear := noPostsYear
	for _, e := range entries {
		if !e.IsDir() || len(e.Name()) != 4 {
			continue
		}
		if n, err := strconv.Atoi(e.Name()); err == nil && n < minYear {
			minYear = n
		}
	}
	return timestreams.Date(minYear, 1, 1), nil
}

func (p *OSProvider) TypeForExtension(ext string) (string, bool) {
	return lookupType(p.mimes, ext)
}

func (p *OSProvider) Separator() string { return timestreams.DefaultSeparator }

func (p *OSProvider) Open(_ context.Context, rel string) (io.ReadCloser, int64, error) {
	f, err := os.Open(p.abs(rel))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, fmt.Errorf("file not found: %s", rel)
		}
		return nil, 0, fmt.Errorf("failed to open file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("stat %s: %w", rel, err)
	}
	return f, info.Size(), nil
}

// Put writes a new file at rel. It refuses to replace an existing file.
func (p *OSProvider) Put(_ context.Context, rel string, r io.Reader, size int64) error {
	destPath := p.abs(rel)
	if _, err := os.Stat(destPath); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, rel)
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create day directory: %w", err)
	}
	return writeFile(destPath, r, size)
}

// writeFile writes data from r to destPath using a temp file and rename.
func writeFile(destPath string, r io.Reader, expectedSize int64) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Compile-time check that OSProvider implements timestreams.Store interface
var _ timestreams.Store = (*OSProvider)(nil)
