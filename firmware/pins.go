//go:build tinygo

package main

import (
	"machine"
	"time"

	"github.com/Hetavshah1/hand-rehab-tracking/pkg/flex"
)

const (
	// ADC configuration
	ADC_REFERENCE_MV = 3300 // Reference voltage in millivolts (3.3V)
	ADC_RESOLUTION   = 10   // Counts are reported in the 0-1023 range the calibration expects

	// Cycle period: ~20 lines per second for five sensors
	CYCLE_INTERVAL = 48 * time.Millisecond

	// Line: "Thumb:180.00 index:180.00 middle:180.00 ring:180.00 pinky:180.00\n" = 66 bytes
	// 20 lines/sec * 66 bytes = 1,320 bytes/sec, 115200 baud gives ~8.7x headroom
	UART_BAUD_RATE = 115200
)

// Flex sensor pins, in channel order.
var sensorPins = [...]machine.Pin{
	machine.A0,
	machine.A1,
	machine.A2,
	machine.A3,
	machine.A4,
}

// thumbTarget narrows the thumb to its physical range of motion.
var thumbTarget = flex.Range{Min: 150, Max: 180}

// settings is the calibration of the reference glove.
var settings = flex.Settings{
	Alpha:  0.1,
	Limits: flex.Range{Min: 25, Max: 180},
	Channels: []flex.ChannelConfig{
		{Label: "Thumb", Raw: flex.Range{Min: 0.2, Max: 2}, Target: &thumbTarget},
		{Label: "index", Raw: flex.Range{Min: 59, Max: 64}},
		{Label: "middle", Raw: flex.Range{Min: 160, Max: 164}},
		{Label: "ring", Raw: flex.Range{Min: 19.5, Max: 21}},
		{Label: "pinky", Raw: flex.Range{Min: 8, Max: 34}},
	},
}
