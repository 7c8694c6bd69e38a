//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"machine"
	"time"

	"github.com/Hetavshah1/hand-rehab-tracking/pkg/flex"
)

var (
	adcs [len(sensorPins)]machine.ADC
	uart = machine.UART0

	// Reused every cycle to keep the loop allocation free
	raw      [len(sensorPins)]uint16
	readings []flex.Reading
	line     []byte
)

func main() {
	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	pipeline, err := flex.NewPipeline(settings)
	if err != nil {
		// Refuse to run with a broken calibration
		for {
			print("config error: ")
			println(err.Error())
			time.Sleep(time.Second)
		}
	}
	if pipeline.Len() != len(sensorPins) {
		for {
			println("config error: channel count does not match sensor pins")
			time.Sleep(time.Second)
		}
	}

	adcConfig := machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	}
	for i, pin := range sensorPins {
		pin.Configure(machine.PinConfig{Mode: machine.PinInput})
		adcs[i] = machine.ADC{Pin: pin}
		adcs[i].Configure(adcConfig)
	}

	readings = make([]flex.Reading, 0, len(sensorPins))
	line = make([]byte, 0, 128)

	for {
		sample()

		readings, err = pipeline.Process(readings[:0], raw[:])
		if err != nil {
			println(err.Error())
		} else {
			line = flex.AppendLine(line[:0], readings)
			line = append(line, '\n')
			uart.Write(line)
		}

		time.Sleep(CYCLE_INTERVAL)
	}
}

// sample reads all sensors. machine.ADC.Get always scales to 16 bits.
func sample() {
	for i := range adcs {
		raw[i] = adcs[i].Get() >> 6
	}
}
