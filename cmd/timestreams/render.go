package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"timestreams/internal/config"
	"timestreams/internal/timestreams"
)

const defaultWidth = 80

// terminalWidth is stdout's column count, or 80 when stdout is not a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}

// printPost writes the post's headers, one line per link, and the body
// wrapped to width when there is one.
func printPost(w io.Writer, post *timestreams.Post, body []byte, width int) {
	fmt.Fprintf(w, "%s\n\n", post.ID)
	for _, f := range post.Headers.Fields() {
		if f.Name == timestreams.HeaderLink {
			continue
		}
		fmt.Fprintf(w, "%s: %s\n", f.Name, f.Value)
	}
	for _, l := range post.Links() {
		fmt.Fprintf(w, "  %-12s %s", l.Rel, l.URL)
		if l.Title != "" {
			fmt.Fprintf(w, "  %q", l.Title)
		}
		fmt.Fprintln(w)
	}
	if body != nil {
		fmt.Fprintf(w, "\n%s\n", wrap(string(body), width))
	}
}

// wrap breaks each line of s at spaces so no line exceeds width, unless a
// single word is longer.
func wrap(s string, width int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		words := strings.Fields(line)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		cur := words[0]
		for _, word := range words[1:] {
			if len(cur)+1+len(word) > width {
				out = append(out, cur)
				cur = word
				continue
			}
			cur += " " + word
		}
		out = append(out, cur)
	}
	return strings.Join(out, "\n")
}

func printHistory(w io.Writer, records []timestreams.RequestRecord) {
	for _, r := range records {
		post := r.PostID
		if post == "" {
			post = "-"
		}
		fmt.Fprintf(w, "%s  %d  %-15s  %s\n", r.CreatedAt.UTC().Format("2006-01-02 15:04:05"), r.Status, r.Stream, post)
	}
}

func describeProvider(p config.ProviderConfig) string {
	switch p.Type {
	case "s3":
		return fmt.Sprintf("s3://%s/%s", p.S3Bucket, p.S3Prefix)
	case "filesystem":
		return p.Root
	default:
		return p.Type
	}
}

func describeDatabase(d config.DatabaseConfig) string {
	switch d.Type {
	case "":
		return "disabled"
	case "sqlite":
		return d.DataDir
	default:
		return d.Type
	}
}
