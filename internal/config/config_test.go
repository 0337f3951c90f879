package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		BaseDir: "/home/user/.local/share/timestreams",
		LogDir:  "/home/user/.local/share/timestreams/log",
		Provider: ProviderConfig{
			Type:       "s3",
			S3Bucket:   "posts",
			S3Prefix:   "streams/",
			S3Region:   "us-east-1",
			S3Endpoint: "http://localhost:9000",
		},
		Server:   ServerConfig{Listen: ":9090", StopTimeout: "5s", RequestTimeout: "2s"},
		Database: DatabaseConfig{Type: "sqlite", DataDir: "/home/user/.local/share/timestreams/db"},
		Ignore:   []string{"*.log", "drafts/*"},
		Mime:     map[string]string{".txt": "text/plain", ".gmi": "text/gemini"},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.BaseDir != original.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, original.BaseDir)
	}
	if got.LogDir != original.LogDir {
		t.Errorf("LogDir = %q, want %q", got.LogDir, original.LogDir)
	}
	if got.Provider != original.Provider {
		t.Errorf("Provider = %+v, want %+v", got.Provider, original.Provider)
	}
	if got.Server != original.Server {
		t.Errorf("Server = %+v, want %+v", got.Server, original.Server)
	}
	if got.Database.Type != "sqlite" {
		t.Errorf("Database.Type = %q, want %q", got.Database.Type, "sqlite")
	}
	if len(got.Ignore) != 2 {
		t.Fatalf("len(Ignore) = %d, want 2", len(got.Ignore))
	}
	if got.Mime[".gmi"] != "text/gemini" {
		t.Errorf("Mime[.gmi] = %q, want %q", got.Mime[".gmi"], "text/gemini")
	}
}

func TestManager_Read_ProviderSection(t *testing.T) {
	input := `
log_dir = "/var/log/timestreams"

[provider]
type = "filesystem"
root = "/srv/streams"

[mime]
".txt" = "text/plain"
`
	m := &Manager{}
	cfg, err := m.Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if cfg.Provider.Type != "filesystem" || cfg.Provider.Root != "/srv/streams" {
		t.Errorf("Provider = %+v", cfg.Provider)
	}
	if cfg.Database.Type != "" {
		t.Errorf("Database.Type = %q, want empty", cfg.Database.Type)
	}
	if cfg.Mime[".txt"] != "text/plain" {
		t.Errorf("Mime = %v", cfg.Mime)
	}
}

func TestManager_Read_Invalid(t *testing.T) {
	m := &Manager{}
	if _, err := m.Read(strings.NewReader("provider = [")); err == nil {
		t.Fatal("Read() expected error for malformed toml")
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/data/ts")

	if cfg.BaseDir != "/data/ts" {
		t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, "/data/ts")
	}
	if cfg.LogDir != "/data/ts/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/ts/log")
	}
	if cfg.Provider.Type != "filesystem" || cfg.Provider.Root != "/data/ts/streams" {
		t.Errorf("Provider = %+v", cfg.Provider)
	}
	if cfg.Database.Type != "sqlite" || cfg.Database.DataDir != "/data/ts/db" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Server.Listen == "" {
		t.Error("Server.Listen is empty")
	}
	if cfg.Server.RequestTimeout != "5s" {
		t.Errorf("Server.RequestTimeout = %q, want 5s", cfg.Server.RequestTimeout)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	for _, ext := range []string{".txt", ".jpeg", ".jpg", ".png", ".html", ".js", ".json", ".css", ".md"} {
		if _, ok := cfg.Mime[ext]; !ok {
			t.Errorf("Mime missing %s", ext)
		}
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "nested", "timestreams.toml")

		if err := Init(path, NewConfig(dir)); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "timestreams.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		if err := Init(path, cfg); err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "timestreams.toml")
		cfg := NewConfig(dir)
		cfg.Database = DatabaseConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.Database.Type != "memory" {
			t.Errorf("Database.Type = %q, want %q", got.Database.Type, "memory")
		}
		if got.Provider.Root != cfg.Provider.Root {
			t.Errorf("Provider.Root = %q, want %q", got.Provider.Root, cfg.Provider.Root)
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		if _, err := ReadFromFile("/nonexistent/path/timestreams.toml"); err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
