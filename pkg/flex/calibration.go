package flex

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
)

var (
	// ErrDegenerateCalibration is returned for a raw domain whose bounds are equal or not finite.
	ErrDegenerateCalibration = errors.New("degenerate calibration domain")
	// ErrInvalidRange is returned for limits or target ranges that cannot be used.
	ErrInvalidRange = errors.New("invalid range")
)

// Range is an interval of values. Min may be greater than Max for raw
// calibration domains (a sensor that reads lower when bent).
type Range struct {
	Min float32 `yaml:"min"`
	Max float32 `yaml:"max"`
}

// Clamp bounds v to [Min, Max]. Min must not exceed Max. NaN clamps to Min.
func (r Range) Clamp(v float32) float32 {
	if math32.IsNaN(v) {
		return r.Min
	}
	return math32.Min(math32.Max(v, r.Min), r.Max)
}

// Contains reports whether v lies inside the inclusive range.
func (r Range) Contains(v float32) bool {
	return v >= r.Min && v <= r.Max
}

func (r Range) finite() bool {
	return !math32.IsNaN(r.Min) && !math32.IsNaN(r.Max) &&
		!math32.IsInf(r.Min, 0) && !math32.IsInf(r.Max, 0)
}

// spanFinite reports whether Max-Min is representable in float32.
func (r Range) spanFinite() bool {
	return !math32.IsInf(r.Max-r.Min, 0)
}

// Calibration maps a channel's raw reading domain onto its target angle range.
type Calibration struct {
	Raw    Range
	Target Range
}

// Validate rejects raw domains that would divide by zero or produce NaN.
func (c Calibration) Validate() error {
	if !c.Raw.finite() || !c.Raw.spanFinite() || c.Raw.Min == c.Raw.Max {
		return fmt.Errorf("%w: raw [%g, %g]", ErrDegenerateCalibration, c.Raw.Min, c.Raw.Max)
	}
	if !c.Target.finite() || !c.Target.spanFinite() {
		return fmt.Errorf("%w: target [%g, %g]", ErrInvalidRange, c.Target.Min, c.Target.Max)
	}
	return nil
}

// Map applies the affine transform from Raw to Target. The result is not clamped.
func (c Calibration) Map(v float32) float32 {
	return (v-c.Raw.Min)*(c.Target.Max-c.Target.Min)/(c.Raw.Max-c.Raw.Min) + c.Target.Min
}
