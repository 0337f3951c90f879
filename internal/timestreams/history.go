package timestreams

import (
	"context"
	"time"
)

// RequestRecord is one served request and its outcome.
type RequestRecord struct {
	ID        int64
	RequestID string
	Stream    string
	PostID    string
	Status    int
	FilePath  string
	CreatedAt time.Time
}

// History stores served requests.
type History interface {
	Record(ctx context.Context, r RequestRecord) error
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]RequestRecord, error)
	Close() error
}

// NopHistory drops every record. It is used when history is disabled.
type NopHistory struct{}

func (NopHistory) Record(context.Context, RequestRecord) error { return nil }

func (NopHistory) Recent(context.Context, int) ([]RequestRecord, error) { return nil, nil }

func (NopHistory) Close() error { return nil }
