package reference

import (
	"log"
	"time"

	"github.com/Hetavshah1/hand-rehab-tracking/pkg/link"
)

// Comparator is a function type that converts a frame channel into a
// comparison channel.
type Comparator func(in <-chan link.Frame) <-chan Comparison

// NewComparator compares each frame against ref at the time elapsed since
// the first frame. The first frame lines up with the first reference row.
// Frames past the end of the reference are dropped.
func NewComparator(ref *Reference, bufSize int) Comparator {
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan link.Frame) <-chan Comparison {
		out := make(chan Comparison, bufSize)

		go func() {
			defer close(out)

			var start time.Time
			for f := range in {
				if start.IsZero() {
					start = f.Timestamp
				}
				elapsed := f.Timestamp.Sub(start)
				if elapsed > ref.Duration() {
					continue
				}
				row, err := ref.At(ref.Start() + elapsed)
				if err != nil {
					log.Printf("Failed to compare frame: %v", err)
					continue
				}

				c := Compare(row, f.Readings)
				c.Timestamp = f.Timestamp
				c.Elapsed = elapsed
				select {
				case out <- c:
				case <-time.After(time.Second):
					log.Printf("Comparator output channel full, dropping comparison")
				}
			}
		}()

		return out
	}
}
