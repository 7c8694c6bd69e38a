package flex

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedLine is returned by ParseLine for text that is not a reading line.
var ErrMalformedLine = errors.New("malformed reading line")

// AppendLine appends the wire form of readings to dst, without the line
// terminator: "label:angle" tokens separated by single spaces, angles with
// exactly two decimals.
func AppendLine(dst []byte, readings []Reading) []byte {
	for i, r := range readings {
		if i > 0 {
			dst = append(dst, ' ')
		}
		dst = append(dst, r.Label...)
		dst = append(dst, ':')
		dst = strconv.AppendFloat(dst, float64(r.Angle), 'f', 2, 32)
	}
	return dst
}

// FormatLine returns the wire form of readings without the terminator.
func FormatLine(readings []Reading) string {
	return string(AppendLine(make([]byte, 0, 16*len(readings)), readings))
}

// ParseLine parses a reading line. Runs of whitespace between tokens are
// accepted since older firmware printed a double space between fields.
func ParseLine(line string) ([]Reading, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrMalformedLine)
	}

	readings := make([]Reading, 0, len(fields))
	for _, f := range fields {
		label, value, ok := strings.Cut(f, ":")
		if !ok || label == "" {
			return nil, fmt.Errorf("%w: token %q", ErrMalformedLine, f)
		}
		angle, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: token %q: %v", ErrMalformedLine, f, err)
		}
		readings = append(readings, Reading{Label: label, Angle: float32(angle)})
	}
	return readings, nil
}
