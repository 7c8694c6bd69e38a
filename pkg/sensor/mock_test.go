package sensor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hetavshah1/hand-rehab-tracking/pkg/config"
	"github.com/Hetavshah1/hand-rehab-tracking/pkg/flex"
)

func TestMock_StaysInsideDomains(t *testing.T) {
	domains := []flex.Range{{Min: 300, Max: 700}, {Min: 900, Max: 100}, {Min: 0, Max: 1023}}
	m := NewMock(config.MockConfig{Period: time.Second, NoiseLevel: 0, Seed: 7}, domains)

	clock := time.Unix(1000, 0)
	m.now = func() time.Time { return clock }
	require.NoError(t, m.Connect())
	defer m.Close()

	for i := 0; i < 50; i++ {
		clock = clock.Add(37 * time.Millisecond)
		f, err := m.Read(context.Background())
		require.NoError(t, err)
		require.Len(t, f.Raw, len(domains))
		assert.Equal(t, clock, f.Timestamp)

		for j, d := range domains {
			lo, hi := d.Min, d.Max
			if lo > hi {
				lo, hi = hi, lo
			}
			assert.True(t, float32(f.Raw[j]) >= lo && float32(f.Raw[j]) <= hi,
				"channel %d value %d outside [%g, %g]", j, f.Raw[j], lo, hi)
		}
	}
}

func TestMock_SweepsAtPhase(t *testing.T) {
	m := NewMock(config.MockConfig{Period: 4 * time.Second}, []flex.Range{{Min: 0, Max: 1000}})
	clock := time.Unix(0, 0)
	m.now = func() time.Time { return clock }
	require.NoError(t, m.Connect())

	f, err := m.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint16(500), f.Raw[0])

	clock = clock.Add(time.Second) // quarter period: fully bent
	f, err = m.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint16(1000), f.Raw[0])
}

func TestMock_NotConnected(t *testing.T) {
	m := NewMock(config.MockConfig{}, []flex.Range{{Min: 0, Max: 1}})
	_, err := m.Read(context.Background())
	assert.Error(t, err)

	require.NoError(t, m.Connect())
	assert.Error(t, m.Connect(), "second connect must fail")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Read(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
