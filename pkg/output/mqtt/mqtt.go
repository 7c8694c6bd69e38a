package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/Hetavshah1/hand-rehab-tracking/pkg/config"
	"github.com/Hetavshah1/hand-rehab-tracking/pkg/output"
)

const (
	// DefaultServer is used when the config names no broker.
	DefaultServer = "tcp://localhost:1883"
	// anglesSuffix is appended to the topic for the JSON form of each line.
	anglesSuffix = "/angles"
	// disconnectQuiesceMs is how long Close waits for in-flight messages.
	disconnectQuiesceMs = 250
)

// MQTTOutput publishes each line twice: the raw text on the base topic and
// a JSON object on <topic>/angles.
type MQTTOutput struct {
	client      publisher
	topic       string
	anglesTopic string
}

// publisher is the part of mqtt.Client the output uses.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// Payload is the JSON form of a line.
type Payload struct {
	Timestamp time.Time          `json:"timestamp"`
	Angles    map[string]float32 `json:"angles"`
}

// NewMQTT connects to the broker.
func NewMQTT(cfg config.MQTTConfig) (output.Output, error) {
	server := cfg.Server
	if server == "" {
		server = DefaultServer
	}
	opts := mqtt.NewClientOptions().AddBroker(server).SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}

	return &MQTTOutput{
		client:      client,
		topic:       cfg.Topic,
		anglesTopic: cfg.Topic + anglesSuffix,
	}, nil
}

// Publish sends the line text and its JSON form.
func (m *MQTTOutput) Publish(l output.Line) error {
	token := m.client.Publish(m.topic, 0, false, l.Text)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", m.topic, err)
	}

	b, err := json.Marshal(newPayload(l))
	if err != nil {
		return fmt.Errorf("mqtt payload: %w", err)
	}
	token = m.client.Publish(m.anglesTopic, 0, false, b)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", m.anglesTopic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (m *MQTTOutput) Close() error {
	if m.client != nil {
		m.client.Disconnect(disconnectQuiesceMs)
	}
	return nil
}

func newPayload(l output.Line) Payload {
	angles := make(map[string]float32, len(l.Readings))
	for _, r := range l.Readings {
		angles[r.Label] = r.Angle
	}
	return Payload{Timestamp: l.Timestamp, Angles: angles}
}
