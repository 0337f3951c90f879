package provider

import (
	"context"
	"testing"

	"timestreams/internal/timestreams"
)

func TestNewIgnoreMatcher(t *testing.T) {
	t.Run("skips blank lines and comments", func(t *testing.T) {
		t.Parallel()
		m := NewIgnoreMatcher([]string{"", "  ", "# comment", "*.log"})
		if len(m.patterns) != 1 {
			t.Fatalf("expected 1 pattern, got %d", len(m.patterns))
		}
	})

	t.Run("classifies path vs basename patterns", func(t *testing.T) {
		t.Parallel()
		m := NewIgnoreMatcher([]string{"*.log", "2020/*/drafts.txt"})
		if m.patterns[0].matchPath {
			t.Error("*.log should not be a path pattern")
		}
		if !m.patterns[1].matchPath {
			t.Error("2020/*/drafts.txt should be a path pattern")
		}
	})
}

func TestIgnoreMatcher_Match(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		path     string
		want     bool
	}{
		{"basename glob in day bucket", []string{"*.swp"}, "2020/07/01/.hello.txt.swp", true},
		{"basename glob misses other extension", []string{"*.swp"}, "2020/07/01/hello.txt", false},
		{"exact basename", []string{".DS_Store"}, "2020/07/01/.DS_Store", true},
		{"path pattern matches", []string{"2020/07/*/draft.txt"}, "2020/07/01/draft.txt", true},
		{"path star does not cross separator", []string{"2020/*/draft.txt"}, "2020/07/01/draft.txt", false},
		{"alternation", []string{"*.{bak,tmp}"}, "2020/07/01/a.bak", true},
		{"no patterns", nil, "2020/07/01/a.txt", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := NewIgnoreMatcher(tt.patterns)
			if got := m.Match(tt.path); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestWithIgnore(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryProvider("s", nil)
	mem.AddFile("2020/07/01/hello.txt", "hi")
	mem.AddFile("2020/07/01/hello.txt~", "old")
	mem.AddFile("2020/07/01/.DS_Store", "")

	store := WithIgnore(mem, NewIgnoreMatcher(DefaultIgnorePatterns))

	files, err := store.FilesForDay(ctx, timestreams.Date(2020, 7, 1))
	if err != nil {
		t.Fatalf("FilesForDay() error = %v", err)
	}
	if len(files) != 1 || files[0] != "2020/07/01/hello.txt" {
		t.Errorf("FilesForDay() = %v, want only hello.txt", files)
	}

	prefixed, err := store.FilesWithPrefix(ctx, "2020/07/01/hello.txt")
	if err != nil {
		t.Fatalf("FilesWithPrefix() error = %v", err)
	}
	if len(prefixed) != 1 {
		t.Errorf("FilesWithPrefix() = %v, want only hello.txt", prefixed)
	}

	exists, err := store.FileExists(ctx, "2020/07/01/.DS_Store")
	if err != nil {
		t.Fatalf("FileExists() error = %v", err)
	}
	if exists {
		t.Error("FileExists() = true for ignored path")
	}

	if got := WithIgnore(mem, NewIgnoreMatcher(nil)); got != timestreams.Store(mem) {
		t.Error("WithIgnore() with no patterns should return the store unchanged")
	}
}
