package sensor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

const (
	pointerConv   = 0x00
	pointerConfig = 0x01
)

// ADS1115 reads a 16-bit, 4 input I2C ADC in single-shot mode.
// Single-ended readings are 0..32767; small negative offsets read as 0.
type ADS1115 struct {
	busName    string
	addr       uint16
	sampleRate int
	channels   []int

	mu    sync.Mutex
	bus   i2c.BusCloser
	dev   Tx
	sleep func(time.Duration)
}

// NewADS1115 creates a source reading the given ADC inputs in order.
func NewADS1115(bus string, addr uint16, sampleRate int, channels []int) *ADS1115 {
	return &ADS1115{
		busName:    bus,
		addr:       addr,
		sampleRate: sampleRate,
		channels:   channels,
		sleep:      time.Sleep,
	}
}

// Connect initializes periph and opens the I2C bus.
func (a *ADS1115) Connect() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.dev != nil {
		return fmt.Errorf("already connected")
	}
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("host init: %w", err)
	}
	bus, err := i2creg.Open(a.busName)
	if err != nil {
		return fmt.Errorf("open i2c: %w", err)
	}
	a.bus = bus
	a.dev = &i2c.Dev{Addr: a.addr, Bus: bus}
	return nil
}

// Close releases the I2C bus.
func (a *ADS1115) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.dev = nil
	if a.bus != nil {
		err := a.bus.Close()
		a.bus = nil
		return err
	}
	return nil
}

// Read triggers and reads one conversion per configured input.
func (a *ADS1115) Read(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.dev == nil {
		return Frame{}, fmt.Errorf("not connected")
	}

	now := time.Now()
	// wait for conversion: one sample period plus margin
	delay := time.Duration(1000/a.rate()+2) * time.Millisecond
	raw := make([]uint16, len(a.channels))
	for i, ch := range a.channels {
		msb, lsb, err := ads1115Config(ch, a.rate())
		if err != nil {
			return Frame{}, err
		}
		if err := a.dev.Tx([]byte{pointerConfig, msb, lsb}, nil); err != nil {
			return Frame{}, fmt.Errorf("write config: %w", err)
		}
		a.sleep(delay)
		buf := make([]byte, 2)
		if err := a.dev.Tx([]byte{pointerConv}, buf); err != nil {
			return Frame{}, fmt.Errorf("read conv: %w", err)
		}
		raw[i] = ads1115Value(buf)
	}
	return Frame{Timestamp: now, Raw: raw}, nil
}

func (a *ADS1115) rate() int {
	if _, ok := ads1115DataRates[a.sampleRate]; ok {
		return a.sampleRate
	}
	return 128
}

var ads1115DataRates = map[int]byte{
	8: 0x0, 16: 0x1, 32: 0x2, 64: 0x3, 128: 0x4, 250: 0x5, 475: 0x6, 860: 0x7,
}

// ads1115Config builds the config register for a single-ended, single-shot
// conversion at ±4.096V full scale with the comparator disabled.
func ads1115Config(channel, sampleRate int) (byte, byte, error) {
	if channel < 0 || channel > 3 {
		return 0, 0, fmt.Errorf("invalid channel %d", channel)
	}
	mux := byte(0x4 + channel) // AINx vs GND
	pga := byte(0x1)
	dr, ok := ads1115DataRates[sampleRate]
	if !ok {
		dr = ads1115DataRates[128]
	}

	var config uint16 = 0x8000 // OS = 1 (start single conversion)
	config |= uint16(mux) << 12
	config |= uint16(pga) << 9
	config |= 1 << 8 // single-shot mode
	config |= uint16(dr) << 5
	config |= 0x3
	return byte(config >> 8), byte(config & 0xFF), nil
}

// ads1115Value decodes the conversion register, flooring negatives at 0.
func ads1115Value(buf []byte) uint16 {
	v := int16(buf[0])<<8 | int16(buf[1])
	if v < 0 {
		return 0
	}
	return uint16(v)
}
