package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for timestreams.
type Config struct {
	BaseDir  string            `toml:"base_dir"`
	LogDir   string            `toml:"log_dir"`
	LogLevel string            `toml:"log_level"` // debug, info, warn or error; defaults to info
	Provider ProviderConfig    `toml:"provider"`
	Server   ServerConfig      `toml:"server"`
	Database DatabaseConfig    `toml:"database"`
	Ignore   []string          `toml:"ignore"`
	Mime     map[string]string `toml:"mime"`
}

// ProviderConfig represents configuration for the backend streams live in.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type ProviderConfig struct {
	Type string `toml:"type"` // "filesystem", "memory", or "s3"

	// FileSystem-specific fields (only used when Type == "filesystem")
	Root string `toml:"root,omitempty"` // directory holding <stream>.timestream dirs

	// S3-specific fields (only used when Type == "s3")
	S3Bucket          string `toml:"s3_bucket,omitempty"`
	S3Prefix          string `toml:"s3_prefix,omitempty"`
	S3Region          string `toml:"s3_region,omitempty"`
	S3Endpoint        string `toml:"s3_endpoint,omitempty"`          // set for MinIO and other S3-compatible stores
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`     // empty uses the default credential chain
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`
}

// ServerConfig holds settings for the HTTP responder.
type ServerConfig struct {
	Listen         string `toml:"listen"`          // host:port, defaults to 127.0.0.1:8080
	BaseURL        string `toml:"base_url"`        // prefix for rewritten link URLs; empty derives it from the request
	StopTimeout    string `toml:"stop_timeout"`    // Go duration, defaults to 10s
	RequestTimeout string `toml:"request_timeout"` // Go duration bounding post resolution, defaults to 5s; "0s" disables
}

// DatabaseConfig represents configuration for the request history database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite", "memory", or "" to disable history
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// NewConfig creates a new Config rooted at baseDir, serving streams from
// baseDir/streams with history in baseDir/db.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir:  baseDir,
		LogDir:   filepath.Join(baseDir, "log"),
		LogLevel: "info",
		Provider: ProviderConfig{
			Type: "filesystem",
			Root: filepath.Join(baseDir, "streams"),
		},
		Server: ServerConfig{
			Listen:         "127.0.0.1:8080",
			StopTimeout:    "10s",
			RequestTimeout: "5s",
		},
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Ignore: []string{".DS_Store", "*.swp", "*~"},
		Mime: map[string]string{
			".txt":  "text/plain",
			".jpeg": "image/jpeg",
			".jpg":  "image/jpeg",
			".png":  "image/png",
			".html": "text/html",
			".js":   "application/javascript",
			".json": "application/json",
			".css":  "text/css",
			".md":   "text/markdown",
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes cfg to path. It refuses to replace an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
