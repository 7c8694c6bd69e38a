package sensor

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/chewxy/math32"

	"github.com/Hetavshah1/hand-rehab-tracking/pkg/config"
	"github.com/Hetavshah1/hand-rehab-tracking/pkg/flex"
)

// Mock simulates a glove whose fingers slowly bend and release.
// Each channel sweeps across its raw calibration domain with a phase offset,
// plus uniform noise.
type Mock struct {
	cfg     config.MockConfig
	domains []flex.Range

	mu        sync.Mutex
	rng       *rand.Rand
	connected bool
	startTime time.Time
	now       func() time.Time
}

// NewMock creates a simulated source producing one value per domain.
func NewMock(cfg config.MockConfig, domains []flex.Range) *Mock {
	if cfg.Period <= 0 {
		cfg.Period = config.Default().Mock.Period
	}
	return &Mock{
		cfg:     cfg,
		domains: domains,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		now:     time.Now,
	}
}

// Connect starts the simulation clock.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}
	m.connected = true
	m.startTime = m.now()
	return nil
}

// Close stops the simulation.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	return nil
}

// Read generates a frame for the current instant.
func (m *Mock) Read(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return Frame{}, fmt.Errorf("not connected")
	}

	now := m.now()
	phase := float32(now.Sub(m.startTime).Seconds() / m.cfg.Period.Seconds())

	raw := make([]uint16, len(m.domains))
	for i, d := range m.domains {
		raw[i] = m.generate(d, phase+float32(i)/float32(len(m.domains)))
	}
	return Frame{Timestamp: now, Raw: raw}, nil
}

// generate returns the simulated reading of one sensor at the given phase
// (in periods).
func (m *Mock) generate(d flex.Range, phase float32) uint16 {
	lo := math32.Min(d.Min, d.Max)
	hi := math32.Max(d.Min, d.Max)
	mid := (lo + hi) / 2
	half := (hi - lo) / 2

	v := mid + half*math32.Sin(2*math32.Pi*phase)
	v += (m.rng.Float32()*2 - 1) * m.cfg.NoiseLevel * (hi - lo)

	v = math32.Round(v)
	if v < 0 {
		return 0
	}
	if v > 65535 {
		return 65535
	}
	return uint16(v)
}
