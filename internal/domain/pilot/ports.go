package pilot

import (
	"time"

	"github.com/google/uuid"
)

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// IDGenerator produces product and correlation identifiers.
type IDGenerator interface {
	ProductID() ProductID
	CorrelationID() string
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// UUIDGenerator generates random UUIDv4 identifiers.
type UUIDGenerator struct{}

func (UUIDGenerator) ProductID() ProductID  { return ProductID(uuid.NewString()) }
func (UUIDGenerator) CorrelationID() string { return uuid.NewString() }
