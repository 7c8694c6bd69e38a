package sensor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// MCP3008 reads a 10-bit, 8 input SPI ADC. Counts are 0..1023.
type MCP3008 struct {
	device   string
	speed    physic.Frequency
	channels []int

	mu   sync.Mutex
	port spi.PortCloser
	conn Tx
}

// NewMCP3008 creates a source reading the given ADC inputs in order.
func NewMCP3008(device string, speedHz int64, channels []int) *MCP3008 {
	return &MCP3008{
		device:   device,
		speed:    physic.Frequency(speedHz) * physic.Hertz,
		channels: channels,
	}
}

// Connect initializes periph and opens the SPI port.
func (m *MCP3008) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != nil {
		return fmt.Errorf("already connected")
	}
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("periph host init: %w", err)
	}
	port, err := spireg.Open(m.device)
	if err != nil {
		return fmt.Errorf("open spi %s: %w", m.device, err)
	}
	conn, err := port.Connect(m.speed, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return fmt.Errorf("connect spi %s: %w", m.device, err)
	}
	m.port = port
	m.conn = conn
	return nil
}

// Close releases the SPI port.
func (m *MCP3008) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.conn = nil
	if m.port != nil {
		err := m.port.Close()
		m.port = nil
		return err
	}
	return nil
}

// Read converts every configured input once.
func (m *MCP3008) Read(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil {
		return Frame{}, fmt.Errorf("not connected")
	}

	now := time.Now()
	raw := make([]uint16, len(m.channels))
	w := make([]byte, 3)
	r := make([]byte, 3)
	for i, ch := range m.channels {
		if err := mcp3008Command(w, ch); err != nil {
			return Frame{}, err
		}
		if err := m.conn.Tx(w, r); err != nil {
			return Frame{}, fmt.Errorf("mcp3008 channel %d: %w", ch, err)
		}
		raw[i] = mcp3008Value(r)
	}
	return Frame{Timestamp: now, Raw: raw}, nil
}

// mcp3008Command fills w with a single-ended conversion request:
// start bit, then SGL/DIFF=1 and the 3 channel bits, then a padding byte.
func mcp3008Command(w []byte, channel int) error {
	if channel < 0 || channel > 7 {
		return fmt.Errorf("invalid channel %d", channel)
	}
	w[0] = 0x01
	w[1] = byte(0x08|channel) << 4
	w[2] = 0x00
	return nil
}

// mcp3008Value extracts the 10-bit result from the response.
func mcp3008Value(r []byte) uint16 {
	return uint16(r[1]&0x03)<<8 | uint16(r[2])
}
