package timestreams

import (
	"time"

	"github.com/google/uuid"
)

// Clock supplies "now" for LatestOnOrBefore without a reference time and
// for publish without an explicit post time.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator names served requests and CLI runs in logs and history.
type IDGenerator interface {
	New() string
}

// UUIDGenerator issues random version 4 UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.New().String() }
