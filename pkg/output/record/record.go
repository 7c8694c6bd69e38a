package record

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/Hetavshah1/hand-rehab-tracking/pkg/output"
)

// timestampLayout matches the session logs recorded on the Raspberry Pi.
const timestampLayout = "2006-01-02 15:04:05.000"

// Recorder appends every line to a CSV file: a timestamp column followed by
// one column per channel label. The header is written from the first line.
type Recorder struct {
	w      *csv.Writer
	closer io.Closer
	header []string
	row    []string
}

// Open appends to the file at path, creating it if needed. An existing,
// non-empty file is assumed to already carry a header.
func Open(path string) (*Recorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open record file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat record file: %w", err)
	}
	r := New(f)
	if info.Size() > 0 {
		r.header = []string{}
	}
	return r, nil
}

// New records to w.
func New(w io.Writer) *Recorder {
	r := &Recorder{w: csv.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		r.closer = c
	}
	return r
}

// Publish writes one row and flushes it so a crash loses at most one line.
func (r *Recorder) Publish(l output.Line) error {
	if r.header == nil {
		r.header = make([]string, 0, len(l.Readings)+1)
		r.header = append(r.header, "timestamp")
		for _, rd := range l.Readings {
			r.header = append(r.header, rd.Label)
		}
		if err := r.w.Write(r.header); err != nil {
			return err
		}
	}

	r.row = r.row[:0]
	r.row = append(r.row, l.Timestamp.Format(timestampLayout))
	for _, rd := range l.Readings {
		r.row = append(r.row, strconv.FormatFloat(float64(rd.Angle), 'f', 2, 32))
	}
	if err := r.w.Write(r.row); err != nil {
		return err
	}
	r.w.Flush()
	return r.w.Error()
}

// Close flushes and closes the file.
func (r *Recorder) Close() error {
	r.w.Flush()
	err := r.w.Error()
	if r.closer != nil {
		if cerr := r.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Ensure Recorder implements output.Output.
var _ output.Output = (*Recorder)(nil)
