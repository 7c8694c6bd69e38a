package reference

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Hetavshah1/hand-rehab-tracking/pkg/flex"
)

// timeColumn is the header of the elapsed-time column, in seconds.
const timeColumn = "time_sec"

// maxAngle normalizes the mean error into a similarity percentage.
const maxAngle = 180

// ErrNoRow is returned when no reference row covers the requested time.
var ErrNoRow = errors.New("no reference row")

// Row is the expected angle per label at one point of an exercise.
type Row struct {
	Time   time.Duration
	Angles map[string]float32 // keyed by lower-case label
}

// Reference is a recorded exercise: rows sorted by time.
type Reference struct {
	Labels []string // lower-case, in column order
	Rows   []Row
}

// Comparison is the result of comparing measured angles to a reference row.
type Comparison struct {
	Timestamp time.Time
	Elapsed   time.Duration
	// Readings are the measured angles compared.
	Readings []flex.Reading
	// Expected is the reference row's angles, keyed by lower-case label.
	Expected map[string]float32
	// Errors is reference minus measured, per lower-case label present in both.
	Errors map[string]float32
	// MeanAbsError is the mean of |error| over Errors.
	MeanAbsError float32
	// Similarity is (1 - MeanAbsError/180) * 100.
	Similarity float32
}

// Load reads a reference CSV from a file.
func Load(path string) (*Reference, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a reference CSV with a time_sec column and one column per
// finger label. Label matching is case-insensitive.
func Parse(r io.Reader) (*Reference, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read reference: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("reference has no rows")
	}

	header := records[0]
	timeIdx := -1
	ref := &Reference{}
	cols := make([]int, 0, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if name == timeColumn {
			timeIdx = i
			continue
		}
		ref.Labels = append(ref.Labels, name)
		cols = append(cols, i)
	}
	if timeIdx < 0 {
		return nil, fmt.Errorf("reference missing %s column", timeColumn)
	}
	if len(ref.Labels) == 0 {
		return nil, fmt.Errorf("reference has no angle columns")
	}

	for n, rec := range records[1:] {
		line := n + 2
		sec, err := strconv.ParseFloat(strings.TrimSpace(rec[timeIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("reference line %d: time: %w", line, err)
		}
		row := Row{
			Time:   time.Duration(sec * float64(time.Second)),
			Angles: make(map[string]float32, len(cols)),
		}
		for j, c := range cols {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[c]), 32)
			if err != nil {
				return nil, fmt.Errorf("reference line %d: %s: %w", line, ref.Labels[j], err)
			}
			row.Angles[ref.Labels[j]] = float32(v)
		}
		ref.Rows = append(ref.Rows, row)
	}

	sort.SliceStable(ref.Rows, func(i, j int) bool { return ref.Rows[i].Time < ref.Rows[j].Time })
	return ref, nil
}

// At returns the last row at or before elapsed.
func (r *Reference) At(elapsed time.Duration) (Row, error) {
	i := sort.Search(len(r.Rows), func(i int) bool { return r.Rows[i].Time > elapsed })
	if i == 0 {
		return Row{}, fmt.Errorf("%w at %s", ErrNoRow, elapsed)
	}
	return r.Rows[i-1], nil
}

// Start returns the time of the first row. Recordings may start at 0 or at
// the first whole second.
func (r *Reference) Start() time.Duration {
	if len(r.Rows) == 0 {
		return 0
	}
	return r.Rows[0].Time
}

// Duration returns the time span from the first row to the last.
func (r *Reference) Duration() time.Duration {
	if len(r.Rows) == 0 {
		return 0
	}
	return r.Rows[len(r.Rows)-1].Time - r.Start()
}

// Compare computes per-label errors and the similarity score.
func Compare(row Row, readings []flex.Reading) Comparison {
	c := Comparison{
		Readings: readings,
		Expected: row.Angles,
		Errors:   make(map[string]float32, len(readings)),
	}
	var sum float32
	for _, rd := range readings {
		label := strings.ToLower(rd.Label)
		want, ok := row.Angles[label]
		if !ok {
			continue
		}
		e := want - rd.Angle
		c.Errors[label] = e
		if e < 0 {
			e = -e
		}
		sum += e
	}
	if len(c.Errors) > 0 {
		c.MeanAbsError = sum / float32(len(c.Errors))
		c.Similarity = (1 - c.MeanAbsError/maxAngle) * 100
	}
	return c
}
