package scope

import (
	"strings"
	"time"

	"github.com/chewxy/math32"

	"github.com/Hetavshah1/hand-rehab-tracking/pkg/flex"
)

// Sample is one received line as plotted: angles in label order and, when
// a reference is loaded, the expected angles (NaN where the reference has
// no column for a label).
type Sample struct {
	Timestamp time.Time
	Angles    []float32
	Expected  []float32
}

// History keeps the samples of a sliding time window.
// It is not safe for concurrent use; ScopeWidget guards it.
type History struct {
	window  time.Duration
	labels  []string
	samples []Sample
}

// NewHistory creates a history covering the given window.
func NewHistory(window time.Duration) *History {
	if window <= 0 {
		window = 10 * time.Second
	}
	return &History{window: window}
}

// Add appends readings taken at ts. expected may be nil. A change in the
// label set starts a new trace.
func (h *History) Add(ts time.Time, readings []flex.Reading, expected map[string]float32) {
	if !h.sameLabels(readings) {
		h.labels = h.labels[:0]
		for _, r := range readings {
			h.labels = append(h.labels, r.Label)
		}
		h.samples = h.samples[:0]
	}

	s := Sample{Timestamp: ts, Angles: make([]float32, len(readings))}
	for i, r := range readings {
		s.Angles[i] = r.Angle
	}
	if expected != nil {
		s.Expected = make([]float32, len(readings))
		for i, r := range readings {
			if v, ok := lookup(expected, r.Label); ok {
				s.Expected[i] = v
			} else {
				s.Expected[i] = math32.NaN()
			}
		}
	}
	h.samples = append(h.samples, s)
	h.trim(ts)
}

// Labels returns the labels of the current trace.
func (h *History) Labels() []string {
	return h.labels
}

// Samples returns the samples inside the window, oldest first.
func (h *History) Samples() []Sample {
	return h.samples
}

// Reset drops all samples.
func (h *History) Reset() {
	h.labels = h.labels[:0]
	h.samples = h.samples[:0]
}

func (h *History) sameLabels(readings []flex.Reading) bool {
	if len(readings) != len(h.labels) {
		return false
	}
	for i, r := range readings {
		if r.Label != h.labels[i] {
			return false
		}
	}
	return true
}

// trim drops samples older than the window, measured from now.
func (h *History) trim(now time.Time) {
	cut := 0
	for cut < len(h.samples) && now.Sub(h.samples[cut].Timestamp) > h.window {
		cut++
	}
	if cut > 0 {
		h.samples = append(h.samples[:0], h.samples[cut:]...)
	}
}

// lookup finds a label in a reference row, whose keys are lower case.
func lookup(expected map[string]float32, label string) (float32, bool) {
	if v, ok := expected[label]; ok {
		return v, true
	}
	for k, v := range expected {
		if strings.EqualFold(k, label) {
			return v, true
		}
	}
	return 0, false
}

// Downsample reduces samples to at most maxPoints by decimation.
// Destination-based: reuses dst if it has sufficient capacity, otherwise allocates new.
func Downsample(dst []Sample, samples []Sample, maxPoints int) []Sample {
	if len(samples) <= maxPoints {
		if cap(dst) >= len(samples) {
			dst = dst[:len(samples)]
			copy(dst, samples)
			return dst
		}
		result := make([]Sample, len(samples))
		copy(result, samples)
		return result
	}

	if cap(dst) >= maxPoints {
		dst = dst[:0]
	} else {
		dst = make([]Sample, 0, maxPoints)
	}

	step := float64(len(samples)) / float64(maxPoints)
	for i := 0; i < maxPoints; i++ {
		idx := int(float64(i) * step)
		if idx < len(samples) {
			dst = append(dst, samples[idx])
		}
	}
	return dst
}
