package timestreams

import (
	"context"
	"sort"
	"strings"

	"timestreams/internal/linkheader"
)

// SidecarDelimiter separates a post's path from a sidecar suffix, as in
// hello.txt$describedby.txt.
const SidecarDelimiter = "$"

const attributesSuffix = "attributes"

// IsSidecar reports whether path names a sidecar rather than a post.
func IsSidecar(path string) bool {
	return strings.Contains(path, SidecarDelimiter)
}

// BuildLinks assembles the link set for the post at path: self first, then
// one link per alternate sidecar in path order with any .attributes
// overlays merged in, then previous when there is an adjacent post.
//
// Sidecars are optional. If they cannot be listed or read the post is
// still linked, just without them.
func (s *Service) BuildLinks(ctx context.Context, meta TimeAndName, mediaType, path string) ([]*linkheader.Link, error) {
	id := IdentifierFor(meta)
	self := linkheader.NewLink("self", id)
	self.Set("type", mediaType)
	links := []*linkheader.Link{self}

	files, err := s.provider.FilesWithPrefix(ctx, path)
	if err != nil {
		s.logger.Warn("listing sidecars failed", "path", path, "error", err)
		files = nil
	}
	// The listing also holds other posts sharing the prefix, such as
	// hello.txt next to hello; only path$... belongs to this post.
	own := path + SidecarDelimiter
	sidecars := make([]string, 0, len(files))
	for _, f := range files {
		if strings.HasPrefix(f, own) && len(f) > len(own) {
			sidecars = append(sidecars, f)
		}
	}
	sort.Strings(sidecars)

	for _, f := range sidecars {
		suffix := f[len(own):]
		segs := strings.Split(suffix, ".")
		first, second, third := segs[0], "", ""
		if len(segs) > 1 {
			second = segs[1]
		}
		if len(segs) > 2 {
			third = segs[2]
		}

		switch {
		case first == "self":
			if second == attributesSuffix {
				s.mergeAttribute(ctx, self, f)
			}
		case first == "" || second == "":
			continue
		case third == "":
			l := linkheader.NewLink(first, id+SidecarDelimiter+suffix)
			if t, ok := s.provider.TypeForExtension("." + second); ok {
				l.Set("type", t)
			}
			links = append(links, l)
		case third == attributesSuffix:
			t, _ := s.provider.TypeForExtension("." + second)
			for _, l := range links {
				if l.Rel == first && l.Type == t {
					s.mergeAttribute(ctx, l, f)
					break
				}
			}
		}
	}

	prev, err := s.AdjacentIdentifier(ctx, meta)
	if err != nil {
		return nil, err
	}
	if prev != "" {
		links = append(links, linkheader.NewLink("previous", prev))
	}
	return links, nil
}

// mergeAttribute reads one attribute pair from the sidecar at path into l.
func (s *Service) mergeAttribute(ctx context.Context, l *linkheader.Link, path string) {
	text, ok, err := s.provider.FileText(ctx, path)
	if err != nil {
		s.logger.Warn("reading sidecar failed", "path", path, "error", err)
		return
	}
	if !ok || text == "" {
		return
	}
	if k, v, ok := linkheader.ParseAttribute(text); ok {
		l.Set(k, v)
	}
}
