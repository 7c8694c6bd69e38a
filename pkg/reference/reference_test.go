package reference

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hetavshah1/hand-rehab-tracking/pkg/flex"
	"github.com/Hetavshah1/hand-rehab-tracking/pkg/link"
)

const sampleCSV = `time_sec,Thumb,Index
0.0,170,90
0.5,160,120
1.0,150,150
`

func TestParse(t *testing.T) {
	ref, err := Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"thumb", "index"}, ref.Labels)
	require.Len(t, ref.Rows, 3)
	assert.Equal(t, 500*time.Millisecond, ref.Rows[1].Time)
	assert.Equal(t, float32(120), ref.Rows[1].Angles["index"])
	assert.Equal(t, time.Second, ref.Duration())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"empty", ""},
		{"header only", "time_sec,thumb\n"},
		{"no time column", "t,thumb\n0,1\n"},
		{"no angle columns", "time_sec\n0\n"},
		{"bad time", "time_sec,thumb\nx,1\n"},
		{"bad angle", "time_sec,thumb\n0,bent\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.csv))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ref.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0644))

	ref, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, ref.Rows, 3)

	_, err = Load(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestAt(t *testing.T) {
	ref, err := Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	row, err := ref.At(0)
	require.NoError(t, err)
	assert.Equal(t, float32(170), row.Angles["thumb"])

	row, err = ref.At(700 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, float32(160), row.Angles["thumb"], "row at or before elapsed")

	row, err = ref.At(5 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, float32(150), row.Angles["thumb"])

	_, err = ref.At(-time.Millisecond)
	assert.ErrorIs(t, err, ErrNoRow)
}

func TestCompare(t *testing.T) {
	row := Row{Angles: map[string]float32{"thumb": 170, "index": 90}}
	readings := []flex.Reading{
		{Label: "Thumb", Angle: 161},
		{Label: "index", Angle: 99},
		{Label: "pinky", Angle: 40},
	}

	c := Compare(row, readings)

	assert.Len(t, c.Errors, 2, "labels missing from the reference are skipped")
	assert.InDelta(t, 9, c.Errors["thumb"], 1e-4)
	assert.InDelta(t, -9, c.Errors["index"], 1e-4)
	assert.InDelta(t, 9, c.MeanAbsError, 1e-4)
	assert.InDelta(t, 95, c.Similarity, 1e-3)
}

func TestCompare_NoOverlap(t *testing.T) {
	c := Compare(Row{Angles: map[string]float32{"thumb": 170}}, []flex.Reading{{Label: "ring", Angle: 50}})
	assert.Empty(t, c.Errors)
	assert.Zero(t, c.Similarity)
}

func TestComparator(t *testing.T) {
	ref, err := Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	in := make(chan link.Frame, 4)
	start := time.Unix(100, 0)
	in <- link.Frame{Timestamp: start, Readings: []flex.Reading{{Label: "Thumb", Angle: 170}, {Label: "index", Angle: 90}}}
	in <- link.Frame{Timestamp: start.Add(600 * time.Millisecond), Readings: []flex.Reading{{Label: "Thumb", Angle: 142}, {Label: "index", Angle: 120}}}
	in <- link.Frame{Timestamp: start.Add(2 * time.Second), Readings: []flex.Reading{{Label: "Thumb", Angle: 0}}}
	close(in)

	var got []Comparison
	for c := range NewComparator(ref, 0)(in) {
		got = append(got, c)
	}

	require.Len(t, got, 2, "frames past the reference are dropped")
	assert.Equal(t, time.Duration(0), got[0].Elapsed)
	assert.Equal(t, start, got[0].Timestamp)
	assert.Equal(t, float32(170), got[0].Expected["thumb"])
	assert.Len(t, got[0].Readings, 2)
	assert.InDelta(t, 100, got[0].Similarity, 1e-4)
	assert.Equal(t, 600*time.Millisecond, got[1].Elapsed)
	assert.InDelta(t, 18, got[1].Errors["thumb"], 1e-4)
	assert.InDelta(t, 9, got[1].MeanAbsError, 1e-4)
}

func TestComparator_ReferenceStartingAtOneSecond(t *testing.T) {
	ref, err := Parse(strings.NewReader("time_sec,thumb\n1,170\n2,160\n3,150\n"))
	require.NoError(t, err)
	assert.Equal(t, time.Second, ref.Start())
	assert.Equal(t, 2*time.Second, ref.Duration())

	in := make(chan link.Frame, 4)
	start := time.Unix(100, 0)
	in <- link.Frame{Timestamp: start, Readings: []flex.Reading{{Label: "Thumb", Angle: 170}}}
	in <- link.Frame{Timestamp: start.Add(500 * time.Millisecond), Readings: []flex.Reading{{Label: "Thumb", Angle: 170}}}
	in <- link.Frame{Timestamp: start.Add(1500 * time.Millisecond), Readings: []flex.Reading{{Label: "Thumb", Angle: 170}}}
	in <- link.Frame{Timestamp: start.Add(2500 * time.Millisecond), Readings: []flex.Reading{{Label: "Thumb", Angle: 170}}}
	close(in)

	var got []Comparison
	for c := range NewComparator(ref, 0)(in) {
		got = append(got, c)
	}

	require.Len(t, got, 3, "the first second is covered by row 0")
	assert.Equal(t, float32(170), got[0].Expected["thumb"])
	assert.Equal(t, float32(170), got[1].Expected["thumb"])
	assert.InDelta(t, 10, got[2].Errors["thumb"], 1e-4, "1.5s after the first frame is the 2s row")
}
