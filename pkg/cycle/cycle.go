package cycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Hetavshah1/hand-rehab-tracking/pkg/flex"
	"github.com/Hetavshah1/hand-rehab-tracking/pkg/output"
	"github.com/Hetavshah1/hand-rehab-tracking/pkg/sensor"
)

// Reader is the part of a sensor.Source the loop needs.
type Reader interface {
	Read(ctx context.Context) (sensor.Frame, error)
}

// Loop is the cycle orchestrator. Once per interval it reads one frame,
// runs it through the pipeline and publishes the resulting line to every
// output, in order. A cycle always completes before the next tick is
// considered; ticks missed while a cycle runs are dropped, not queued.
type Loop struct {
	src      Reader
	pipeline *flex.Pipeline
	outputs  []output.Output
	interval time.Duration

	readings []flex.Reading
	text     []byte
	cycles   uint64
}

// New creates a loop. The pipeline is owned by the loop from here on.
func New(src Reader, p *flex.Pipeline, interval time.Duration, outputs ...output.Output) *Loop {
	return &Loop{
		src:      src,
		pipeline: p,
		outputs:  outputs,
		interval: interval,
		readings: make([]flex.Reading, 0, p.Len()),
		text:     make([]byte, 0, 16*p.Len()),
	}
}

// Step runs exactly one cycle.
func (l *Loop) Step(ctx context.Context) (output.Line, error) {
	frame, err := l.src.Read(ctx)
	if err != nil {
		return output.Line{}, fmt.Errorf("read: %w", err)
	}

	l.readings, err = l.pipeline.Process(l.readings, frame.Raw)
	if err != nil {
		return output.Line{}, err
	}
	l.text = flex.AppendLine(l.text[:0], l.readings)

	line := output.Line{
		Timestamp: frame.Timestamp,
		Readings:  l.readings,
		Text:      string(l.text),
	}
	for i, o := range l.outputs {
		if err := o.Publish(line); err != nil {
			return line, fmt.Errorf("output %d: %w", i, err)
		}
	}
	l.cycles++
	return line, nil
}

// Run steps once immediately and then on every tick until ctx is done or a
// cycle fails. Cancellation is not an error.
func (l *Loop) Run(ctx context.Context) error {
	if l.interval <= 0 {
		return fmt.Errorf("interval %s: must be positive", l.interval)
	}

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		if _, err := l.Step(ctx); err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return nil
			}
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Cycles returns the number of completed cycles.
func (l *Loop) Cycles() uint64 {
	return l.cycles
}
