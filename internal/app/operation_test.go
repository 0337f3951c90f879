package app

import (
	"errors"
	"testing"
	"time"
)

func TestNewOperation(t *testing.T) {
	started := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	tests := []struct {
		name       string
		operation  string
		parameters string
	}{
		{
			name:       "with parameters",
			operation:  "publish",
			parameters: "blog ./post.txt",
		},
		{
			name:       "empty parameters",
			operation:  "serve",
			parameters: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := NewOperation("run-1", tt.operation, tt.parameters, started)

			if op.ID != "run-1" {
				t.Errorf("ID = %q, want %q", op.ID, "run-1")
			}
			if op.Name != tt.operation {
				t.Errorf("Name = %q, want %q", op.Name, tt.operation)
			}
			if op.Parameters != tt.parameters {
				t.Errorf("Parameters = %q, want %q", op.Parameters, tt.parameters)
			}
			if op.Status != "success" {
				t.Errorf("Status = %q, want %q", op.Status, "success")
			}
		})
	}
}

func TestOperation_Fail(t *testing.T) {
	op := NewOperation("run-1", "show", "", time.Time{})

	if err := op.Fail(nil); err != nil {
		t.Fatalf("Fail(nil) = %v", err)
	}
	if op.Status != "success" {
		t.Errorf("Status after Fail(nil) = %q, want success", op.Status)
	}

	boom := errors.New("boom")
	if err := op.Fail(boom); err != boom {
		t.Fatalf("Fail(boom) = %v, want boom", err)
	}
	if op.Status != "error" {
		t.Errorf("Status = %q, want error", op.Status)
	}
}

func TestOperation_Elapsed(t *testing.T) {
	started := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	op := NewOperation("run-1", "serve", "", started)

	if got := op.Elapsed(started.Add(1500*time.Millisecond + 400*time.Microsecond)); got != "1.5s" {
		t.Errorf("Elapsed() = %q, want 1.5s", got)
	}
}
