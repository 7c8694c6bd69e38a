package flex

// EMA is an exponential moving average filter.
// The first sample seeds the value directly; every later sample is blended
// as alpha*x + (1-alpha)*prev.
type EMA struct {
	alpha       float32
	value       float32
	initialized bool
}

// NewEMA creates an uninitialized filter with the given smoothing factor.
func NewEMA(alpha float32) EMA {
	return EMA{alpha: alpha}
}

// Update feeds a sample into the filter and returns the new smoothed value.
func (e *EMA) Update(x float32) float32 {
	if !e.initialized {
		e.value = x
		e.initialized = true
		return e.value
	}
	e.value = e.alpha*x + (1-e.alpha)*e.value
	return e.value
}

// Value returns the current smoothed value (zero before the first sample).
func (e *EMA) Value() float32 {
	return e.value
}

// Initialized reports whether the filter has seen a sample.
func (e *EMA) Initialized() bool {
	return e.initialized
}

// Reset drops the filter state so the next sample seeds it again.
func (e *EMA) Reset() {
	e.value = 0
	e.initialized = false
}
