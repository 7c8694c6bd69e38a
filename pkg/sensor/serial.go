package sensor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

// ErrClosed is returned by Read once the source has been closed or the
// port stopped delivering data.
var ErrClosed = errors.New("source closed")

// Serial reads raw ADC counts streamed by a microcontroller that does no
// processing of its own. Each line carries one count per channel, separated
// by spaces or commas. A line with a single count is the legacy
// single-sensor sketch output.
type Serial struct {
	port     string
	baudRate int
	channels int

	conn      io.ReadCloser
	mu        sync.Mutex
	latest    Frame
	have      bool
	ready     chan struct{} // closed when the first frame arrives
	done      chan struct{} // closed when the reader goroutine exits
	connected bool
}

// NewSerial creates a source expecting the given number of values per line.
func NewSerial(port string, baudRate int, channels int) *Serial {
	if baudRate == 0 {
		baudRate = 9600
	}
	return &Serial{
		port:     port,
		baudRate: baudRate,
		channels: channels,
	}
}

// Connect opens the serial port and starts reading lines.
func (s *Serial) Connect() error {
	port, err := serial.Open(s.port, &serial.Mode{BaudRate: s.baudRate})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", s.port, err)
	}
	return s.attach(port)
}

// attach starts the reader on an already open stream.
func (s *Serial) attach(conn io.ReadCloser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		conn.Close()
		return fmt.Errorf("already connected")
	}

	s.conn = conn
	s.have = false
	s.ready = make(chan struct{})
	s.done = make(chan struct{})
	s.connected = true

	go s.readFrames(conn, s.ready, s.done)

	return nil
}

// Close closes the port and stops the reader.
func (s *Serial) Close() error {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return nil
	}
	conn := s.conn
	done := s.done
	s.connected = false
	s.conn = nil
	s.mu.Unlock()

	err := conn.Close()
	<-done
	if err != nil {
		return fmt.Errorf("failed to close serial port %s: %w", s.port, err)
	}
	return nil
}

// Read returns the most recent frame. Before the first line has arrived it
// blocks until one does, the port fails or ctx is done.
func (s *Serial) Read(ctx context.Context) (Frame, error) {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return Frame{}, fmt.Errorf("not connected")
	}
	ready, done := s.ready, s.done
	s.mu.Unlock()

	select {
	case <-ready:
	case <-done:
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.have {
		return Frame{}, ErrClosed
	}
	select {
	case <-done:
		return Frame{}, ErrClosed
	default:
	}

	raw := make([]uint16, len(s.latest.Raw))
	copy(raw, s.latest.Raw)
	return Frame{Timestamp: s.latest.Timestamp, Raw: raw}, nil
}

// readFrames scans lines until the stream ends.
func (s *Serial) readFrames(r io.Reader, ready, done chan struct{}) {
	defer close(done)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		raw, err := parseRawLine(line, s.channels)
		if err != nil {
			log.Printf("Failed to parse line '%s': %v", line, err)
			continue
		}

		s.mu.Lock()
		s.latest = Frame{Timestamp: time.Now(), Raw: raw}
		if !s.have {
			s.have = true
			close(ready)
		}
		s.mu.Unlock()
	}

	if err := scanner.Err(); err != nil {
		log.Printf("Error reading from serial port: %v", err)
	}
}

// parseRawLine parses a line of unsigned counts separated by spaces or commas.
func parseRawLine(line string, channels int) ([]uint16, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) != channels {
		return nil, fmt.Errorf("expected %d values, got %d", channels, len(fields))
	}

	raw := make([]uint16, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", f, err)
		}
		raw[i] = uint16(v)
	}
	return raw, nil
}
