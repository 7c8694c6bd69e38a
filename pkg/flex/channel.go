package flex

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidLabel is returned for labels that cannot be carried by the line format.
var ErrInvalidLabel = errors.New("invalid channel label")

// ChannelConfig describes one flex sensor.
type ChannelConfig struct {
	Label string `yaml:"label"`
	Raw   Range  `yaml:"raw"`
	// Target is the angle range the raw domain maps onto. Nil means the
	// global limits.
	Target *Range `yaml:"target,omitempty"`
}

// Channel holds the calibration and smoothing state of one sensor.
type Channel struct {
	Index       int
	Label       string
	Calibration Calibration

	ema EMA
}

// NewChannel validates cfg and builds the channel state.
func NewChannel(index int, cfg ChannelConfig, alpha float32, limits Range) (*Channel, error) {
	if err := validateLabel(cfg.Label); err != nil {
		return nil, fmt.Errorf("channel %d: %w", index, err)
	}

	target := limits
	if cfg.Target != nil {
		target = *cfg.Target
	}
	cal := Calibration{Raw: cfg.Raw, Target: target}
	if err := cal.Validate(); err != nil {
		return nil, fmt.Errorf("channel %d (%s): %w", index, cfg.Label, err)
	}

	return &Channel{
		Index:       index,
		Label:       cfg.Label,
		Calibration: cal,
		ema:         NewEMA(alpha),
	}, nil
}

// Step smooths raw, maps it through the calibration and clamps the result
// to limits.
func (c *Channel) Step(raw float32, limits Range) float32 {
	smoothed := c.ema.Update(raw)
	return limits.Clamp(c.Calibration.Map(smoothed))
}

// Smoothed returns the current EMA value.
func (c *Channel) Smoothed() float32 {
	return c.ema.Value()
}

// Initialized reports whether the channel has seen its first sample.
func (c *Channel) Initialized() bool {
	return c.ema.Initialized()
}

// Reset drops the smoothing state.
func (c *Channel) Reset() {
	c.ema.Reset()
}

func validateLabel(label string) error {
	if label == "" {
		return fmt.Errorf("%w: empty", ErrInvalidLabel)
	}
	if strings.ContainsAny(label, ": \t\r\n") {
		return fmt.Errorf("%w: %q contains a separator", ErrInvalidLabel, label)
	}
	return nil
}
