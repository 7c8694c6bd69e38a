package sensor

import (
	"context"
	"time"
)

// Frame is one raw sample per channel, taken at the same instant.
type Frame struct {
	Timestamp time.Time
	Raw       []uint16 // ADC counts in pipeline channel order
}

// Source is the analog input boundary. Read returns the current sample set;
// it may block until one is available.
type Source interface {
	Connect() error
	Read(ctx context.Context) (Frame, error)
	Close() error
}

// Ensure implementations satisfy Source.
var (
	_ Source = (*Mock)(nil)
	_ Source = (*Serial)(nil)
	_ Source = (*MCP3008)(nil)
	_ Source = (*ADS1115)(nil)
)

// Tx is a half-duplex bus transaction, implemented by periph's spi.Conn and i2c.Dev.
type Tx interface {
	Tx(w, r []byte) error
}
