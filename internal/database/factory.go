package database

import (
	"fmt"
	"os"
	"path/filepath"

	"timestreams/internal/config"
	"timestreams/internal/timestreams"
)

// HistoryFile is the database file name inside data_dir.
const HistoryFile = "history.db"

// NewHistoryFromConfig creates a History implementation based on the database config type.
// An empty type disables history.
func NewHistoryFromConfig(cfg config.DatabaseConfig) (timestreams.History, error) {
	var path string
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		path = filepath.Join(cfg.DataDir, HistoryFile)
	case "memory":
		path = MemoryPath
	case "":
		return timestreams.NopHistory{}, nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}

	h, err := NewSQLiteHistory(path)
	if err != nil {
		return nil, err
	}
	return h, nil
}
