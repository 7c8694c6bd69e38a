package flex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatLine(t *testing.T) {
	readings := []Reading{
		{"Thumb", 172.5},
		{"index", 130.2},
		{"middle", 95},
		{"ring", 88.75},
		{"pinky", 60.1},
	}
	assert.Equal(t, "Thumb:172.50 index:130.20 middle:95.00 ring:88.75 pinky:60.10", FormatLine(readings))
	assert.Equal(t, "", FormatLine(nil))
	assert.Equal(t, "Thumb:25.00", FormatLine([]Reading{{"Thumb", 25}}))
}

func TestAppendLine_ReusesBuffer(t *testing.T) {
	buf := make([]byte, 0, 64)
	buf = AppendLine(buf, []Reading{{"a", 1}, {"b", 2.005}})
	assert.Equal(t, "a:1.00 b:2.00", string(buf))

	buf = AppendLine(buf[:0], []Reading{{"a", 179.999}})
	assert.Equal(t, "a:180.00", string(buf))
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    []Reading
		wantErr bool
	}{
		{
			name: "canonical",
			line: "Thumb:172.50 index:130.20 middle:95.00 ring:88.75 pinky:60.10",
			want: []Reading{{"Thumb", 172.5}, {"index", 130.2}, {"middle", 95}, {"ring", 88.75}, {"pinky", 60.1}},
		},
		{
			name: "double spaces and trailing blank",
			line: "Thumb:150.00  index:25.00 \r",
			want: []Reading{{"Thumb", 150}, {"index", 25}},
		},
		{
			name: "single channel",
			line: "Thumb:163.33",
			want: []Reading{{"Thumb", 163.33}},
		},
		{name: "empty", line: "   ", wantErr: true},
		{name: "bare integer", line: "512", wantErr: true},
		{name: "missing label", line: ":12.00", wantErr: true},
		{name: "bad angle", line: "Thumb:abc", wantErr: true},
		{name: "one bad token", line: "Thumb:150.00 index", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLine(tt.line)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedLine)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLine_FormatRoundTrip(t *testing.T) {
	line := "Thumb:163.33 index:87.00 middle:102.50"
	readings, err := ParseLine(line)
	require.NoError(t, err)
	assert.Equal(t, line, FormatLine(readings))
}
