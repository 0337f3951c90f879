// Package linkheader reads and writes the link-set format carried in a post's
// Link header and in sidecar attribute files:
//
//	<url>; rel="self"; type="text/plain", <other>; rel="previous"
package linkheader

import (
	"regexp"
	"strings"
)

// Attr is an attribute outside the well-known set, kept in insertion order.
type Attr struct {
	Key   string
	Value string
}

// Link is one entry of a link set.
type Link struct {
	Rel   string
	URL   string
	Type  string
	Title string
	Extra []Attr

	// order records the order well-known attributes were first set in, so
	// Serialize reproduces insertion order.
	order []string
}

// NewLink returns a link with rel and url set.
func NewLink(rel, url string) *Link {
	l := &Link{URL: url}
	l.Set("rel", rel)
	return l
}

// Set assigns an attribute, overwriting any earlier value for the same key.
// The "url" key sets the target URL and is never serialized as an attribute.
func (l *Link) Set(key, value string) {
	switch key {
	case "url":
		l.URL = value
		return
	case "rel":
		l.Rel = value
	case "type":
		l.Type = value
	case "title":
		l.Title = value
	default:
		for i := range l.Extra {
			if l.Extra[i].Key == key {
				l.Extra[i].Value = value
				return
			}
		}
		l.Extra = append(l.Extra, Attr{Key: key, Value: value})
		return
	}
	for _, k := range l.order {
		if k == key {
			return
		}
	}
	l.order = append(l.order, key)
}

// Get returns the value of an attribute and whether it is set.
func (l *Link) Get(key string) (string, bool) {
	switch key {
	case "url":
		return l.URL, l.URL != ""
	case "rel":
		return l.Rel, l.has("rel")
	case "type":
		return l.Type, l.has("type")
	case "title":
		return l.Title, l.has("title")
	}
	for _, a := range l.Extra {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

func (l *Link) has(key string) bool {
	for _, k := range l.order {
		if k == key {
			return true
		}
	}
	return false
}

// attrs returns every attribute except url in insertion order. Well-known
// attributes set directly on the struct without Set are appended after the
// recorded ones.
func (l *Link) attrs() []Attr {
	var out []Attr
	seen := make(map[string]bool, 3)
	for _, k := range l.order {
		v, _ := l.Get(k)
		out = append(out, Attr{Key: k, Value: v})
		seen[k] = true
	}
	for _, a := range []Attr{{"rel", l.Rel}, {"type", l.Type}, {"title", l.Title}} {
		if !seen[a.Key] && a.Value != "" {
			out = append(out, a)
		}
	}
	return append(out, l.Extra...)
}

var (
	entrySplit   = regexp.MustCompile(`,\s*<`)
	entryPattern = regexp.MustCompile(`^<?([^>]*)>(.*)$`)
	attrPattern  = regexp.MustCompile(`^\s*([^=]+?)\s*=\s*"?([^"]+)"?`)
)

// ParseAttribute extracts a single key=value or key="value" pair from text.
// Anything after the value is ignored, so `title="a"; type="b"` yields only
// title.
func ParseAttribute(text string) (key, value string, ok bool) {
	m := attrPattern.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// Parse reads a serialized link set. Entries without a URL or a rel
// attribute are dropped. Values must not contain the sequence ",<".
func Parse(header string) []*Link {
	if header == "" {
		return nil
	}
	var links []*Link
	for _, entry := range entrySplit.Split(header, -1) {
		if l := parseLink(entry); l != nil {
			links = append(links, l)
		}
	}
	return links
}

func parseLink(entry string) *Link {
	m := entryPattern.FindStringSubmatch(strings.TrimSpace(entry))
	if m == nil || m[2] == "" {
		return nil
	}
	l := &Link{}
	parts := strings.Split(m[2], ";")
	for _, p := range parts[1:] {
		if k, v, ok := ParseAttribute(p); ok {
			l.Set(k, v)
		}
	}
	if m[1] != "" {
		l.URL = m[1]
	}
	if l.URL == "" || l.Rel == "" {
		return nil
	}
	return l
}

// Serialize writes links in order. Every attribute value is quoted and
// terminated; Parse also accepts the older unterminated form.
func Serialize(links []*Link) string {
	entries := make([]string, 0, len(links))
	for _, l := range links {
		parts := []string{"<" + l.URL + ">"}
		for _, a := range l.attrs() {
			parts = append(parts, a.Key+`="`+a.Value+`"`)
		}
		entries = append(entries, strings.Join(parts, "; "))
	}
	return strings.Join(entries, ", ")
}
