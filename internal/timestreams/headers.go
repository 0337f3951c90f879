package timestreams

import "net/textproto"

// Header names set on every post.
const (
	HeaderContentType = "Content-Type"
	HeaderPostTime    = "Post-Time"
	HeaderVersion     = "Time-Streams-Version"
	HeaderLink        = "Link"
)

// FormatVersion is the value of the Time-Streams-Version header.
const FormatVersion = "1"

// Field is one header line.
type Field struct {
	Name  string
	Value string
}

// Headers is an ordered multimap of header fields. Names are canonicalized
// the way net/http does; lookups are case-insensitive.
type Headers struct {
	fields []Field
}

// Add appends a field.
func (h *Headers) Add(name, value string) {
	h.fields = append(h.fields, Field{Name: textproto.CanonicalMIMEHeaderKey(name), Value: value})
}

// Set replaces every field called name with a single one. The replacement
// keeps the position of the first existing field, or goes last.
func (h *Headers) Set(name, value string) {
	name = textproto.CanonicalMIMEHeaderKey(name)
	out := h.fields[:0]
	placed := false
	for _, f := range h.fields {
		if f.Name != name {
			out = append(out, f)
			continue
		}
		if !placed {
			out = append(out, Field{Name: name, Value: value})
			placed = true
		}
	}
	if !placed {
		out = append(out, Field{Name: name, Value: value})
	}
	h.fields = out
}

// Get returns the first value for name, or "".
func (h *Headers) Get(name string) string {
	name = textproto.CanonicalMIMEHeaderKey(name)
	for _, f := range h.fields {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

// Values returns every value for name in order.
func (h *Headers) Values(name string) []string {
	name = textproto.CanonicalMIMEHeaderKey(name)
	var vs []string
	for _, f := range h.fields {
		if f.Name == name {
			vs = append(vs, f.Value)
		}
	}
	return vs
}

// Fields returns a copy of all fields in insertion order.
func (h *Headers) Fields() []Field {
	return append([]Field(nil), h.fields...)
}
