package scope

import (
	"testing"
	"time"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hetavshah1/hand-rehab-tracking/pkg/flex"
)

func readings(angles ...float32) []flex.Reading {
	labels := []string{"Thumb", "index", "middle", "ring", "pinky"}
	out := make([]flex.Reading, len(angles))
	for i, a := range angles {
		out[i] = flex.Reading{Label: labels[i], Angle: a}
	}
	return out
}

func TestHistory_Add(t *testing.T) {
	h := NewHistory(time.Second)
	t0 := time.Unix(100, 0)

	h.Add(t0, readings(160, 90), nil)
	h.Add(t0.Add(100*time.Millisecond), readings(161, 91), nil)

	assert.Equal(t, []string{"Thumb", "index"}, h.Labels())
	require.Len(t, h.Samples(), 2)
	assert.Equal(t, []float32{161, 91}, h.Samples()[1].Angles)
	assert.Nil(t, h.Samples()[1].Expected)
}

func TestHistory_TrimsToWindow(t *testing.T) {
	h := NewHistory(time.Second)
	t0 := time.Unix(100, 0)

	for i := 0; i < 30; i++ {
		h.Add(t0.Add(time.Duration(i)*100*time.Millisecond), readings(float32(i)), nil)
	}

	samples := h.Samples()
	require.Len(t, samples, 11, "samples within one second of the newest are kept")
	assert.Equal(t, float32(19), samples[0].Angles[0])
	assert.Equal(t, float32(29), samples[10].Angles[0])
}

func TestHistory_LabelChangeRestarts(t *testing.T) {
	h := NewHistory(time.Minute)
	t0 := time.Unix(100, 0)

	h.Add(t0, readings(160, 90), nil)
	h.Add(t0.Add(time.Millisecond), readings(160, 90, 100), nil)

	assert.Equal(t, []string{"Thumb", "index", "middle"}, h.Labels())
	assert.Len(t, h.Samples(), 1)
}

func TestHistory_Expected(t *testing.T) {
	h := NewHistory(time.Minute)

	h.Add(time.Unix(100, 0), readings(160, 90), map[string]float32{"thumb": 170})

	s := h.Samples()[0]
	require.Len(t, s.Expected, 2)
	assert.Equal(t, float32(170), s.Expected[0], "reference keys match labels case-insensitively")
	assert.True(t, math32.IsNaN(s.Expected[1]), "labels missing from the reference are NaN")
}

func TestHistory_Reset(t *testing.T) {
	h := NewHistory(0)
	h.Add(time.Unix(100, 0), readings(160), nil)
	h.Reset()
	assert.Empty(t, h.Samples())
	assert.Empty(t, h.Labels())
}

func TestDownsample(t *testing.T) {
	samples := make([]Sample, 100)
	for i := range samples {
		samples[i] = Sample{Angles: []float32{float32(i)}}
	}

	t.Run("fewer than max copies", func(t *testing.T) {
		dst := make([]Sample, 0, 200)
		got := Downsample(dst, samples, 200)
		assert.Len(t, got, 100)
		assert.Equal(t, cap(dst), cap(got), "dst reused")
	})

	t.Run("decimates", func(t *testing.T) {
		got := Downsample(nil, samples, 10)
		require.Len(t, got, 10)
		assert.Equal(t, float32(0), got[0].Angles[0])
		assert.Equal(t, float32(90), got[9].Angles[0])
	})

	t.Run("reuses capacity", func(t *testing.T) {
		dst := make([]Sample, 5, 20)
		got := Downsample(dst, samples, 20)
		assert.Len(t, got, 20)
		assert.Equal(t, 20, cap(got))
	})
}
