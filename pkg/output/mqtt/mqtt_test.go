package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hetavshah1/hand-rehab-tracking/pkg/flex"
	"github.com/Hetavshah1/hand-rehab-tracking/pkg/output"
)

func TestPayloadJSON(t *testing.T) {
	ts := time.Date(2026, 10, 19, 14, 41, 54, 0, time.UTC)
	l := output.Line{
		Timestamp: ts,
		Readings:  []flex.Reading{{Label: "Thumb", Angle: 163.5}, {Label: "index", Angle: 25}},
		Text:      "Thumb:163.50 index:25.00",
	}

	b, err := json.Marshal(newPayload(l))
	require.NoError(t, err)
	assert.JSONEq(t, `{"timestamp":"2026-10-19T14:41:54Z","angles":{"Thumb":163.5,"index":25}}`, string(b))
}

func TestPayloadEmpty(t *testing.T) {
	p := newPayload(output.Line{})
	assert.NotNil(t, p.Angles)
	assert.Empty(t, p.Angles)
}

type fakeToken struct{ err error }

func (t fakeToken) Wait() bool                     { return true }
func (t fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t fakeToken) Error() error { return t.err }

type message struct {
	topic   string
	payload interface{}
}

// fakeClient records publishes and fails the topics listed in failOn.
type fakeClient struct {
	published    []message
	failOn       map[string]error
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	if err := c.failOn[topic]; err != nil {
		return fakeToken{err: err}
	}
	c.published = append(c.published, message{topic: topic, payload: payload})
	return fakeToken{}
}

func (c *fakeClient) Disconnect(quiesce uint) { c.disconnected = true }

func newTestOutput(c *fakeClient) *MQTTOutput {
	return &MQTTOutput{client: c, topic: "glove", anglesTopic: "glove" + anglesSuffix}
}

func TestPublish(t *testing.T) {
	c := &fakeClient{}
	m := newTestOutput(c)

	l := output.Line{
		Timestamp: time.Date(2026, 10, 19, 14, 41, 54, 0, time.UTC),
		Readings:  []flex.Reading{{Label: "Thumb", Angle: 163.33}},
		Text:      "Thumb:163.33",
	}
	require.NoError(t, m.Publish(l))

	require.Len(t, c.published, 2)
	assert.Equal(t, "glove", c.published[0].topic)
	assert.Equal(t, "Thumb:163.33", c.published[0].payload)
	assert.Equal(t, "glove/angles", c.published[1].topic)
	b, ok := c.published[1].payload.([]byte)
	require.True(t, ok)
	assert.JSONEq(t, `{"timestamp":"2026-10-19T14:41:54Z","angles":{"Thumb":163.33}}`, string(b))

	require.NoError(t, m.Close())
	assert.True(t, c.disconnected)
}

func TestPublish_Errors(t *testing.T) {
	brokerDown := errors.New("not connected")

	t.Run("text topic", func(t *testing.T) {
		c := &fakeClient{failOn: map[string]error{"glove": brokerDown}}
		err := newTestOutput(c).Publish(output.Line{Text: "Thumb:25.00"})
		assert.ErrorIs(t, err, brokerDown)
		assert.Empty(t, c.published, "angles are not sent after the text fails")
	})

	t.Run("angles topic", func(t *testing.T) {
		c := &fakeClient{failOn: map[string]error{"glove/angles": brokerDown}}
		err := newTestOutput(c).Publish(output.Line{Text: "Thumb:25.00"})
		assert.ErrorIs(t, err, brokerDown)
		assert.Len(t, c.published, 1)
	})
}
