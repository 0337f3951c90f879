package provider

import (
	"context"
	"fmt"
	"os"
	"sync"

	"timestreams/internal/config"
	"timestreams/internal/timestreams"
)

// Backend hands out one Store per stream. With create set, a missing
// stream is made empty instead of reported as ErrUnknownStream.
type Backend interface {
	Stream(ctx context.Context, name string, create bool) (timestreams.Store, error)
}

// NewBackendFromConfig creates a Backend implementation based on the
// provider config type. Every store it returns hides ignored paths.
func NewBackendFromConfig(ctx context.Context, cfg config.ProviderConfig, mimes map[string]string, ignore []string) (Backend, error) {
	matcher := NewIgnoreMatcher(append(append([]string{}, DefaultIgnorePatterns...), ignore...))
	switch cfg.Type {
	case "memory":
		return &MemoryBackend{mimes: mimes, matcher: matcher, streams: make(map[string]*MemoryProvider)}, nil
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 provider requires s3_bucket to be set")
		}
		client, err := NewS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewS3Backend(client, cfg.S3Bucket, cfg.S3Prefix, mimes, matcher), nil
	case "filesystem":
		if cfg.Root == "" {
			return nil, fmt.Errorf("filesystem provider requires root to be set")
		}
		return &FilesystemBackend{root: cfg.Root, mimes: mimes, matcher: matcher}, nil
	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}
}

// FilesystemBackend serves <root>/<stream>.timestream directories.
type FilesystemBackend struct {
	root    string
	mimes   map[string]string
	matcher *IgnoreMatcher
}

// NewFilesystemBackend creates a backend over root.
func NewFilesystemBackend(root string, mimes map[string]string, matcher *IgnoreMatcher) *FilesystemBackend {
	return &FilesystemBackend{root: root, mimes: mimes, matcher: matcher}
}

func (b *FilesystemBackend) Stream(_ context.Context, name string, create bool) (timestreams.Store, error) {
	if err := ValidateStreamName(name); err != nil {
		return nil, err
	}
	if create {
		if err := os.MkdirAll(StreamDir(b.root, name), 0755); err != nil {
			return nil, fmt.Errorf("failed to create stream directory: %w", err)
		}
	}
	p, err := NewOSProvider(b.root, name, b.mimes)
	if err != nil {
		return nil, err
	}
	return WithIgnore(p, b.matcher), nil
}

// MemoryBackend keeps every stream in memory for the life of the process.
type MemoryBackend struct {
	mimes   map[string]string
	matcher *IgnoreMatcher
	streams map[string]*MemoryProvider
	mu      sync.Mutex
}

// NewMemoryBackend creates a backend holding the given streams.
func NewMemoryBackend(mimes map[string]string, streams ...*MemoryProvider) *MemoryBackend {
	b := &MemoryBackend{mimes: mimes, streams: make(map[string]*MemoryProvider)}
	for _, s := range streams {
		b.streams[s.name] = s
	}
	return b
}

func (b *MemoryBackend) Stream(_ context.Context, name string, create bool) (timestreams.Store, error) {
	if err := ValidateStreamName(name); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.streams[name]
	if !ok {
		if !create {
			return nil, fmt.Errorf("%w: %s", ErrUnknownStream, name)
		}
		p = NewMemoryProvider(name, b.mimes)
		b.streams[name] = p
	}
	return WithIgnore(p, b.matcher), nil
}

// S3Backend serves streams stored under a bucket prefix.
type S3Backend struct {
	client  S3Client
	bucket  string
	prefix  string
	mimes   map[string]string
	matcher *IgnoreMatcher
}

// NewS3Backend creates a backend over bucket.
func NewS3Backend(client S3Client, bucket, prefix string, mimes map[string]string, matcher *IgnoreMatcher) *S3Backend {
	return &S3Backend{client: client, bucket: bucket, prefix: prefix, mimes: mimes, matcher: matcher}
}

func (b *S3Backend) Stream(ctx context.Context, name string, create bool) (timestreams.Store, error) {
	if err := ValidateStreamName(name); err != nil {
		return nil, err
	}
	p := NewS3Provider(b.client, b.bucket, b.prefix, name, b.mimes)
	if !create {
		exists, err := p.Exists(ctx)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("%w: %s", ErrUnknownStream, name)
		}
	}
	return WithIgnore(p, b.matcher), nil
}

var (
	_ Backend = (*FilesystemBackend)(nil)
	_ Backend = (*MemoryBackend)(nil)
	_ Backend = (*S3Backend)(nil)
)
