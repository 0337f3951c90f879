package timestreams

import (
	"context"
	"fmt"
	"net/http"

	"timestreams/internal/linkheader"
)

// DefaultContentType is served for posts whose extension has no known type.
const DefaultContentType = "application/octet-stream"

// Post is a resolved post: its headers and where its content lives.
type Post struct {
	ID       string
	Headers  *Headers
	FilePath string
}

// Links parses the post's Link header.
func (p *Post) Links() []*linkheader.Link {
	return linkheader.Parse(p.Headers.Get(HeaderLink))
}

// Service resolves posts for one stream. It keeps no state between calls;
// every answer reflects the provider's contents at the time of the call.
type Service struct {
	provider Provider
	logger   Logger
	clock    Clock
}

// NewService creates a Service reading from provider.
func NewService(provider Provider, logger Logger, clock Clock) *Service {
	return &Service{
		provider: provider,
		logger:   logger,
		clock:    clock,
	}
}

// ResolvePost looks up the post for id. It returns ErrInvalidIdentifier for a
// malformed id, ErrNotFound when the post file does not exist, and a
// *ProviderError when the provider fails.
func (s *Service) ResolvePost(ctx context.Context, id string) (*Post, error) {
	meta, err := ParseIdentifier(id)
	if err != nil {
		return nil, err
	}
	path := PathFor(meta, s.provider.Separator())

	exists, err := s.provider.FileExists(ctx, path)
	if err != nil {
		return nil, providerError("stat", path, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	mediaType := DefaultContentType
	if ext := extension(path); ext != "" {
		if t, ok := s.provider.TypeForExtension(ext); ok {
			mediaType = t
		}
	}

	headers := &Headers{}
	headers.Set(HeaderPostTime, meta.DateParts.Time().Format(http.TimeFormat))
	headers.Set(HeaderVersion, FormatVersion)
	headers.Set(HeaderContentType, mediaType)

	links, err := s.BuildLinks(ctx, meta, mediaType, path)
	if err != nil {
		return nil, fmt.Errorf("building links for %s: %w", id, err)
	}
	headers.Set(HeaderLink, linkheader.Serialize(links))

	s.logger.Debug("post resolved", "id", id, "path", path, "links", len(links))
	return &Post{
		ID:       id,
		Headers:  headers,
		FilePath: path,
	}, nil
}
