package output

import (
	"time"

	"github.com/Hetavshah1/hand-rehab-tracking/pkg/flex"
)

// Line is one cycle's worth of angle readings.
// Readings and Text are only valid during Publish; the orchestrator reuses
// the backing buffers on the next cycle, so sinks that keep them must copy.
type Line struct {
	Timestamp time.Time
	Readings  []flex.Reading
	Text      string // wire form without the terminator
}

// Output receives every emitted line.
type Output interface {
	Publish(Line) error
	Close() error
}
