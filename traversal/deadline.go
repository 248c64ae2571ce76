package traversal

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Deadline bounds the wall time a traversal may take. Nodes consult it from CanStop, so an expired
// deadline ends the traversal at the next stop check and leaves a partial result.
type Deadline struct {
	clock clock.Clock
	at    time.Time
}

// NewDeadline returns a deadline timeout from now on the given clock. A nil clock uses the wall clock.
func NewDeadline(c clock.Clock, timeout time.Duration) *Deadline {
	if c == nil {
		c = clock.New()
	}
	return &Deadline{clock: c, at: c.Now().Add(timeout)}
}

// Expired reports whether the deadline has passed. A nil deadline never expires.
func (d *Deadline) Expired() bool {
	if d == nil {
		return false
	}
	return !d.clock.Now().Before(d.at)
}
