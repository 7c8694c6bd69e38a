package link

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/Hetavshah1/hand-rehab-tracking/pkg/flex"
)

const (
	// DefaultBaudRate matches the glove firmware.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the default size for the frames channel buffer.
	DefaultBufferSize = 100
)

// Frame is one received line of angle readings.
type Frame struct {
	Timestamp time.Time // Host receive time
	Readings  []flex.Reading
}

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial receives the glove's angle stream from a serial port.
type Serial struct {
	port     string
	baudRate int
	bufSize  int
	channels int // expected readings per line, 0 accepts any

	conn      io.ReadCloser
	frames    chan Frame
	mu        sync.RWMutex
	cancel    context.CancelFunc
	connected bool
	started   bool // a reader has been attached at least once
	dropped   uint64
}

// New creates a receiver for the given port. channels is the expected number
// of readings per line; lines with a different count are dropped.
func New(port string, baudRate int, bufSize int, channels int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	return &Serial{
		port:     port,
		baudRate: baudRate,
		bufSize:  bufSize,
		channels: channels,
		frames:   make(chan Frame, bufSize),
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{Name: name, Description: name})
	}
	return result, nil
}

// Connect opens the serial port and starts reading frames.
func (d *Serial) Connect() error {
	port, err := serial.Open(d.port, &serial.Mode{BaudRate: d.baudRate})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}
	return d.attach(port)
}

func (d *Serial) attach(conn io.ReadCloser) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		conn.Close()
		return fmt.Errorf("already connected")
	}

	// Every connection gets its own channel; the previous reader closes
	// the old one on exit.
	if d.started {
		d.frames = make(chan Frame, d.bufSize)
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.conn = conn
	d.connected = true
	d.started = true

	go d.readFrames(ctx, conn, d.frames)

	return nil
}

// Close closes the connection and stops reading. The frames channel is
// closed once the reader has exited.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	d.cancel()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		d.conn = nil
	}

	d.connected = false
	return nil
}

// Frames returns the channel of received frames for the current
// connection. It is closed when that connection's reader exits; call Frames
// again after reconnecting.
func (d *Serial) Frames() <-chan Frame {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.frames
}

// IsConnected returns whether the port is open.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// Dropped returns how many frames were discarded because the channel was full.
func (d *Serial) Dropped() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.dropped
}

// readFrames reads lines and parses them into frames until the stream ends
// or the receiver is closed.
func (d *Serial) readFrames(ctx context.Context, r io.Reader, frames chan<- Frame) {
	defer close(frames)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		readings, err := flex.ParseLine(line)
		if err != nil {
			log.Printf("Failed to parse line '%s': %v", line, err)
			continue
		}
		if d.channels > 0 && len(readings) != d.channels {
			log.Printf("Incomplete line '%s': %d of %d readings", line, len(readings), d.channels)
			continue
		}

		frame := Frame{Timestamp: time.Now(), Readings: readings}
		select {
		case frames <- frame:
		case <-ctx.Done():
			return
		default:
			d.mu.Lock()
			d.dropped++
			d.mu.Unlock()
			log.Printf("Frames channel full, dropping frame")
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		log.Printf("Error reading from serial port: %v", err)
	}
}
