package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Hetavshah1/hand-rehab-tracking/pkg/config"
	"github.com/Hetavshah1/hand-rehab-tracking/pkg/cycle"
	"github.com/Hetavshah1/hand-rehab-tracking/pkg/flex"
	"github.com/Hetavshah1/hand-rehab-tracking/pkg/output"
	"github.com/Hetavshah1/hand-rehab-tracking/pkg/output/mqtt"
	"github.com/Hetavshah1/hand-rehab-tracking/pkg/output/record"
	"github.com/Hetavshah1/hand-rehab-tracking/pkg/output/stream"
	"github.com/Hetavshah1/hand-rehab-tracking/pkg/output/web"
	"github.com/Hetavshah1/hand-rehab-tracking/pkg/sensor"
)

func main() {
	var (
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		portFlag   = flag.String("p", "", "Serial port override for the serial source (e.g., COM3 or /dev/ttyACM0)")
		sourceFlag = flag.String("source", "", "Source override: mock, serial, mcp3008 or ads1115")
		onceFlag   = flag.Bool("once", false, "Run a single cycle and exit")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Command line overrides
	if *sourceFlag != "" {
		cfg.Source.Type = strings.ToLower(*sourceFlag)
	}
	if *portFlag != "" {
		cfg.Source.Serial.Port = *portFlag
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	pipeline, err := flex.NewPipeline(cfg.Pipeline)
	if err != nil {
		log.Fatalf("Failed to create pipeline: %v", err)
	}

	os.Exit(run(cfg, pipeline, *onceFlag))
}

// run drives the loop until it stops and returns the process exit code.
func run(cfg *config.Config, pipeline *flex.Pipeline, once bool) int {
	src := newSource(cfg)
	if err := src.Connect(); err != nil {
		log.Printf("Failed to connect %s source: %v", cfg.Source.Type, err)
		return 1
	}
	defer src.Close()

	outputs, err := newOutputs(cfg)
	if err != nil {
		log.Printf("Failed to open outputs: %v", err)
		return 1
	}
	defer func() {
		for _, o := range outputs {
			if err := o.Close(); err != nil {
				log.Printf("Failed to close output: %v", err)
			}
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := cycle.New(src, pipeline, cfg.Cycle.Interval, outputs...)
	if once {
		_, err = loop.Step(ctx)
	} else {
		err = loop.Run(ctx)
	}
	if err != nil {
		log.Printf("Stopped after %d cycles: %v", loop.Cycles(), err)
		return 1
	}
	return 0
}

func newSource(cfg *config.Config) sensor.Source {
	n := len(cfg.Pipeline.Channels)
	switch strings.ToLower(cfg.Source.Type) {
	case config.SourceSerial:
		return sensor.NewSerial(cfg.Source.Serial.Port, cfg.Source.Serial.Baud, n)
	case config.SourceMCP3008:
		c := cfg.Source.MCP3008
		return sensor.NewMCP3008(c.Device, c.SpeedHz, c.Channels)
	case config.SourceADS1115:
		c := cfg.Source.ADS1115
		return sensor.NewADS1115(c.Bus, c.Address, c.SampleRate, c.Channels)
	default:
		domains := make([]flex.Range, n)
		for i, ch := range cfg.Pipeline.Channels {
			domains[i] = ch.Raw
		}
		return sensor.NewMock(cfg.Mock, domains)
	}
}

// newOutputs opens every configured sink. On failure the ones already
// opened are closed.
func newOutputs(cfg *config.Config) (outputs []output.Output, err error) {
	defer func() {
		if err != nil {
			for _, o := range outputs {
				o.Close()
			}
			outputs = nil
		}
	}()

	if cfg.Output.Console {
		outputs = append(outputs, stream.NewConsole())
	}
	if cfg.Output.Serial.Port != "" {
		s, err := stream.OpenSerial(cfg.Output.Serial.Port, cfg.Output.Serial.Baud)
		if err != nil {
			return outputs, err
		}
		outputs = append(outputs, s)
	}
	if cfg.Output.MQTT.Server != "" {
		m, err := mqtt.NewMQTT(cfg.Output.MQTT)
		if err != nil {
			return outputs, err
		}
		outputs = append(outputs, m)
	}
	if cfg.Output.Web.Addr != "" {
		w, err := web.New(cfg.Output.Web.Addr)
		if err != nil {
			return outputs, err
		}
		outputs = append(outputs, w)
	}
	if cfg.Output.Record.Path != "" {
		r, err := record.Open(cfg.Output.Record.Path)
		if err != nil {
			return outputs, err
		}
		outputs = append(outputs, r)
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("no outputs enabled")
	}
	return outputs, nil
}
