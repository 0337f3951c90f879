package app

import (
	"fmt"
	"time"
)

// Operation tracks one CLI command from start to finish. Its ID tags
// every log line written during the run.
type Operation struct {
	ID         string
	Name       string
	Parameters string
	Status     string // "success" or "error"
	Started    time.Time
}

// NewOperation creates an operation that is assumed to succeed until Fail is called.
func NewOperation(id, name, parameters string, started time.Time) *Operation {
	return &Operation{
		ID:         id,
		Name:       name,
		Parameters: parameters,
		Status:     "success",
		Started:    started,
	}
}

// Fail marks the operation as failed when err is non-nil and returns err.
func (op *Operation) Fail(err error) error {
	if err != nil {
		op.Status = "error"
	}
	return err
}

// Elapsed renders the time since the operation started, to the millisecond.
func (op *Operation) Elapsed(now time.Time) string {
	return fmt.Sprint(now.Sub(op.Started).Round(time.Millisecond))
}
