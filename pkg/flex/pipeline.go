package flex

import (
	"errors"
	"fmt"
)

// ErrChannelCount is returned when a sample set does not match the configured channels.
var ErrChannelCount = errors.New("sample count does not match channel count")

// Settings configures the signal pipeline.
type Settings struct {
	// Alpha is the EMA smoothing factor, in (0, 1).
	Alpha float32 `yaml:"alpha"`
	// Limits is the global angle clamp applied after mapping.
	Limits   Range           `yaml:"limits"`
	Channels []ChannelConfig `yaml:"channels"`
}

// Validate checks the settings without building a pipeline.
func (s Settings) Validate() error {
	_, err := NewPipeline(s)
	return err
}

// Reading is the calibrated angle of one channel for one cycle.
type Reading struct {
	Label string  `json:"label"`
	Angle float32 `json:"angle"`
}

// Pipeline turns raw sample sets into clamped angle readings.
// It is not safe for concurrent use; one goroutine owns it.
type Pipeline struct {
	limits   Range
	channels []*Channel
}

// NewPipeline validates s and creates fresh, uninitialized channel state.
func NewPipeline(s Settings) (*Pipeline, error) {
	if !(s.Alpha > 0 && s.Alpha < 1) {
		return nil, fmt.Errorf("alpha %g: must be in (0, 1)", s.Alpha)
	}
	if !s.Limits.finite() || !s.Limits.spanFinite() || s.Limits.Min >= s.Limits.Max {
		return nil, fmt.Errorf("limits [%g, %g]: %w", s.Limits.Min, s.Limits.Max, ErrInvalidRange)
	}
	if len(s.Channels) == 0 {
		return nil, errors.New("no channels configured")
	}

	p := &Pipeline{
		limits:   s.Limits,
		channels: make([]*Channel, 0, len(s.Channels)),
	}
	seen := make(map[string]int, len(s.Channels))
	for i, cfg := range s.Channels {
		if j, ok := seen[cfg.Label]; ok {
			return nil, fmt.Errorf("channel %d: %w: %q already used by channel %d", i, ErrInvalidLabel, cfg.Label, j)
		}
		seen[cfg.Label] = i

		ch, err := NewChannel(i, cfg, s.Alpha, s.Limits)
		if err != nil {
			return nil, err
		}
		p.channels = append(p.channels, ch)
	}
	return p, nil
}

// Len returns the number of channels.
func (p *Pipeline) Len() int {
	return len(p.channels)
}

// Channel returns the channel at index i.
func (p *Pipeline) Channel(i int) *Channel {
	return p.channels[i]
}

// Limits returns the global clamp range.
func (p *Pipeline) Limits() Range {
	return p.limits
}

// Process runs one cycle: every channel, in index order, consumes its raw
// sample. Readings are appended to dst[:0] so callers can reuse the slice
// between cycles.
func (p *Pipeline) Process(dst []Reading, raw []uint16) ([]Reading, error) {
	if len(raw) != len(p.channels) {
		return dst[:0], fmt.Errorf("%w: got %d, want %d", ErrChannelCount, len(raw), len(p.channels))
	}

	dst = dst[:0]
	for i, ch := range p.channels {
		dst = append(dst, Reading{
			Label: ch.Label,
			Angle: ch.Step(float32(raw[i]), p.limits),
		})
	}
	return dst, nil
}

// Reset returns every channel to the uninitialized state.
func (p *Pipeline) Reset() {
	for _, ch := range p.channels {
		ch.Reset()
	}
}
