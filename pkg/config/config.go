package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Hetavshah1/hand-rehab-tracking/pkg/flex"
)

// Source types.
const (
	SourceMock    = "mock"
	SourceSerial  = "serial"
	SourceMCP3008 = "mcp3008"
	SourceADS1115 = "ads1115"
)

// Config represents the application configuration.
type Config struct {
	Pipeline flex.Settings `yaml:"pipeline"`
	Cycle    CycleConfig   `yaml:"cycle"`
	Source   SourceConfig  `yaml:"source"`
	Output   OutputConfig  `yaml:"output"`
	Mock     MockConfig    `yaml:"mock"`
}

// CycleConfig contains the orchestrator timing.
type CycleConfig struct {
	Interval time.Duration `yaml:"interval"` // Fixed period between cycles
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// SourceConfig selects and configures the analog input.
type SourceConfig struct {
	Type    string        `yaml:"type"` // mock, serial, mcp3008 or ads1115
	Serial  SerialConfig  `yaml:"serial"`
	MCP3008 MCP3008Config `yaml:"mcp3008"`
	ADS1115 ADS1115Config `yaml:"ads1115"`
}

// MCP3008Config contains SPI ADC configuration.
type MCP3008Config struct {
	Device   string `yaml:"device"`   // SPI port name, e.g. "/dev/spidev0.0" or "SPI0.0"
	SpeedHz  int64  `yaml:"speed_hz"` // SPI clock
	Channels []int  `yaml:"channels"` // ADC inputs, in pipeline channel order
}

// ADS1115Config contains I2C ADC configuration.
type ADS1115Config struct {
	Bus        string `yaml:"bus"`
	Address    uint16 `yaml:"address"`
	SampleRate int    `yaml:"sample_rate"` // Samples per second (8..860)
	Channels   []int  `yaml:"channels"`    // ADC inputs, in pipeline channel order
}

// OutputConfig selects the sinks that receive every line.
type OutputConfig struct {
	Console bool         `yaml:"console"`
	Serial  SerialConfig `yaml:"serial"` // Empty port disables the serial sink
	MQTT    MQTTConfig   `yaml:"mqtt"`
	Web     WebConfig    `yaml:"web"`
	Record  RecordConfig `yaml:"record"`
}

// MQTTConfig contains MQTT sink configuration. Empty server disables it.
type MQTTConfig struct {
	Server   string `yaml:"server"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Topic    string `yaml:"topic"`
}

// WebConfig contains the HTTP/websocket sink configuration. Empty addr disables it.
type WebConfig struct {
	Addr string `yaml:"addr"`
}

// RecordConfig contains the CSV recorder configuration. Empty path disables it.
type RecordConfig struct {
	Path string `yaml:"path"`
}

// MockConfig contains simulated sensor configuration.
type MockConfig struct {
	Period     time.Duration `yaml:"period"`      // Duration of one full bend/release sweep
	NoiseLevel float32       `yaml:"noise_level"` // Noise amplitude as a fraction of each raw domain
	Seed       int64         `yaml:"seed"`
}

// Default returns the reference five sensor glove.
func Default() *Config {
	thumb := flex.Range{Min: 150, Max: 180}
	return &Config{
		Pipeline: flex.Settings{
			Alpha:  0.1,
			Limits: flex.Range{Min: 25, Max: 180},
			Channels: []flex.ChannelConfig{
				{Label: "Thumb", Raw: flex.Range{Min: 0.2, Max: 2}, Target: &thumb},
				{Label: "index", Raw: flex.Range{Min: 59, Max: 64}},
				{Label: "middle", Raw: flex.Range{Min: 160, Max: 164}},
				{Label: "ring", Raw: flex.Range{Min: 19.5, Max: 21}},
				{Label: "pinky", Raw: flex.Range{Min: 8, Max: 34}},
			},
		},
		Cycle: CycleConfig{
			Interval: 48 * time.Millisecond, // ~20 lines per second
		},
		Source: SourceConfig{
			Type: SourceMock,
			Serial: SerialConfig{
				Port: "/dev/ttyACM0",
				Baud: 9600,
			},
			MCP3008: MCP3008Config{
				Device:   "/dev/spidev0.0",
				SpeedHz:  1350000,
				Channels: []int{0, 1, 2, 3, 4},
			},
			// Four inputs only: selecting this source needs a pipeline of
			// four channels or fewer.
			ADS1115: ADS1115Config{
				Bus:        "1",
				Address:    0x48,
				SampleRate: 860,
				Channels:   []int{0, 1, 2, 3},
			},
		},
		Output: OutputConfig{
			Console: true,
			Serial: SerialConfig{
				Baud: 115200,
			},
			MQTT: MQTTConfig{
				ClientID: "flexglove",
				Topic:    "flexglove/angles",
			},
		},
		Mock: MockConfig{
			Period:     4 * time.Second,
			NoiseLevel: 0.05,
			Seed:       1,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values. The result is validated.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	var set presence
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults(set)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filename, err)
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the whole configuration. A config that fails validation
// must not be used to start the pipeline.
func (c *Config) Validate() error {
	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if c.Cycle.Interval <= 0 {
		return fmt.Errorf("cycle interval %s: must be positive", c.Cycle.Interval)
	}

	n := len(c.Pipeline.Channels)
	switch strings.ToLower(c.Source.Type) {
	case SourceMock:
		if c.Mock.Period <= 0 {
			return fmt.Errorf("mock period %s: must be positive", c.Mock.Period)
		}
	case SourceSerial:
		if c.Source.Serial.Port == "" {
			return fmt.Errorf("serial source: port is required")
		}
	case SourceMCP3008:
		if err := checkADCChannels(c.Source.MCP3008.Channels, n, 8); err != nil {
			return fmt.Errorf("mcp3008 source: %w", err)
		}
	case SourceADS1115:
		if n > 4 {
			return fmt.Errorf("ads1115 source: %d pipeline channels, the ADC has 4 inputs", n)
		}
		if err := checkADCChannels(c.Source.ADS1115.Channels, n, 4); err != nil {
			return fmt.Errorf("ads1115 source: %w", err)
		}
	default:
		return fmt.Errorf("unknown source type %q", c.Source.Type)
	}

	return nil
}

func checkADCChannels(channels []int, want, inputs int) error {
	if len(channels) != want {
		return fmt.Errorf("%d ADC channels configured for %d pipeline channels", len(channels), want)
	}
	for _, ch := range channels {
		if ch < 0 || ch >= inputs {
			return fmt.Errorf("ADC channel %d out of range 0..%d", ch, inputs-1)
		}
	}
	return nil
}

// presence records which fields the file sets explicitly, so that an
// explicit zero is validated instead of replaced by a default.
type presence struct {
	Pipeline struct {
		Alpha  *float32    `yaml:"alpha"`
		Limits *flex.Range `yaml:"limits"`
	} `yaml:"pipeline"`
	Cycle struct {
		Interval *time.Duration `yaml:"interval"`
	} `yaml:"cycle"`
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults(set presence) {
	def := Default()

	if set.Pipeline.Alpha == nil {
		c.Pipeline.Alpha = def.Pipeline.Alpha
	}
	if set.Pipeline.Limits == nil {
		c.Pipeline.Limits = def.Pipeline.Limits
	}
	if len(c.Pipeline.Channels) == 0 {
		c.Pipeline.Channels = def.Pipeline.Channels
	}

	if set.Cycle.Interval == nil {
		c.Cycle.Interval = def.Cycle.Interval
	}

	if c.Source.Type == "" {
		c.Source.Type = def.Source.Type
	}
	if c.Source.Serial.Baud == 0 {
		c.Source.Serial.Baud = def.Source.Serial.Baud
	}
	if c.Source.MCP3008.Device == "" {
		c.Source.MCP3008.Device = def.Source.MCP3008.Device
	}
	if c.Source.MCP3008.SpeedHz == 0 {
		c.Source.MCP3008.SpeedHz = def.Source.MCP3008.SpeedHz
	}
	if c.Source.ADS1115.Bus == "" {
		c.Source.ADS1115.Bus = def.Source.ADS1115.Bus
	}
	if c.Source.ADS1115.Address == 0 {
		c.Source.ADS1115.Address = def.Source.ADS1115.Address
	}
	if c.Source.ADS1115.SampleRate == 0 {
		c.Source.ADS1115.SampleRate = def.Source.ADS1115.SampleRate
	}

	if c.Output.Serial.Baud == 0 {
		c.Output.Serial.Baud = def.Output.Serial.Baud
	}
	if c.Output.MQTT.ClientID == "" {
		c.Output.MQTT.ClientID = def.Output.MQTT.ClientID
	}
	if c.Output.MQTT.Topic == "" {
		c.Output.MQTT.Topic = def.Output.MQTT.Topic
	}

	if c.Mock.Period == 0 {
		c.Mock.Period = def.Mock.Period
	}
}
