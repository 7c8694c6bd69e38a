package stream

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"go.bug.st/serial"

	"github.com/Hetavshah1/hand-rehab-tracking/pkg/output"
)

// Stream writes each line followed by "\n" and flushes it immediately.
type Stream struct {
	w      *bufio.Writer
	closer io.Closer
}

// New writes to w. If w is an io.Closer it is closed by Close.
func New(w io.Writer) *Stream {
	s := &Stream{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// NewConsole writes to stdout without ever closing it.
func NewConsole() output.Output {
	return &Stream{w: bufio.NewWriter(os.Stdout)}
}

// OpenSerial opens a serial port and streams lines to it.
func OpenSerial(port string, baud int) (*Stream, error) {
	conn, err := serial.Open(port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", port, err)
	}
	return New(conn), nil
}

// Publish writes the line, its terminator, and flushes.
func (s *Stream) Publish(l output.Line) error {
	if _, err := s.w.WriteString(l.Text); err != nil {
		return err
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return err
	}
	return s.w.Flush()
}

// Close flushes and closes the underlying writer when it owns one.
func (s *Stream) Close() error {
	err := s.w.Flush()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
