package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"timestreams/internal/timestreams"
)

// MemoryProvider is an in-memory stream, useful for tests and demos.
// This implementation is safe for concurrent use.
type MemoryProvider struct {
	name     string
	files    map[string][]byte // relative path -> content
	mimes    map[string]string
	earliest *timestreams.DateParts
	mu       sync.RWMutex
}

// NewMemoryProvider creates an empty in-memory stream.
func NewMemoryProvider(name string, mimes map[string]string) *MemoryProvider {
	return &MemoryProvider{
		name:  name,
		files: make(map[string][]byte),
		mimes: mimes,
	}
}

// AddFile stores content at path, replacing anything already there.
func (m *MemoryProvider) AddFile(path string, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = []byte(content)
}

// SetEarliestDay overrides the earliest day, which otherwise is January 1st
// of the smallest year holding a file.
func (m *MemoryProvider) SetEarliestDay(d timestreams.DateParts) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.earliest = &d
}

func (m *MemoryProvider) FileExists(_ context.Context, path string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[path]
	return ok, nil
}

func (m *MemoryProvider) FileText(_ context.Context, path string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[path]
	if !ok {
		return "", false, nil
	}
	return string(data), true, nil
}

func (m *MemoryProvider) FilesWithPrefix(_ context.Context, path string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for p := range m.files {
		if strings.HasPrefix(p, path) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryProvider) FilesForDay(_ context.Context, day timestreams.DateParts) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	prefix := timestreams.DayPath(day) + timestreams.DefaultSeparator
	var out []string
	for p := range m.files {
		if strings.HasPrefix(p, prefix) && !strings.Contains(p[len(prefix):], timestreams.DefaultSeparator) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryProvider) EarliestDay(_ context.Context) (timestreams.DateParts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.earliest != nil {
		return *m.earliest, nil
	}
	minYear := noPostsYear
	for p := range m.files {
		year, _, _ := strings.Cut(p, timestreams.DefaultSeparator)
		if n, err := strconv.Atoi(year); err == nil && len(year) == 4 && n < minYear {
			minYear = n
		}
	}
	return timestreams.Date(minYear, 1, 1), nil
}

func (m *MemoryProvider) TypeForExtension(ext string) (string, bool) {
	return lookupType(m.mimes, ext)
}

func (m *MemoryProvider) Separator() string { return timestreams.DefaultSeparator }

func (m *MemoryProvider) Open(_ context.Context, path string) (io.ReadCloser, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[path]
	if !ok {
		return nil, 0, fmt.Errorf("file not found: %s", path)
	}
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

func (m *MemoryProvider) Put(_ context.Context, path string, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[path]; ok {
		return fmt.Errorf("%w: %s", ErrExists, path)
	}
	m.files[path] = data
	return nil
}

// Compile-time check that MemoryProvider implements timestreams.Store interface
var _ timestreams.Store = (*MemoryProvider)(nil)
