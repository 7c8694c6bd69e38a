package link

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hetavshah1/hand-rehab-tracking/pkg/flex"
)

type nopCloser struct{ io.Reader }

func (nopCloser) Close() error { return nil }

func collect(t *testing.T, frames <-chan Frame) []Frame {
	t.Helper()
	var out []Frame
	timeout := time.After(5 * time.Second)
	for {
		select {
		case f, ok := <-frames:
			if !ok {
				return out
			}
			out = append(out, f)
		case <-timeout:
			t.Fatal("frames channel did not close")
		}
	}
}

func TestNew_Defaults(t *testing.T) {
	d := New("/dev/ttyACM0", 0, 0, 5)
	assert.Equal(t, DefaultBaudRate, d.baudRate)
	assert.Equal(t, DefaultBufferSize, d.bufSize)
	assert.False(t, d.IsConnected())
}

func TestReadFrames(t *testing.T) {
	stream := strings.Join([]string{
		"Thumb:163.33 index:87.00",
		"",
		"garbage",
		"Thumb:150.00",
		"Thumb:150.00  index:25.00 ",
	}, "\r\n") + "\r\n"

	d := New("test", 0, 10, 2)
	require.NoError(t, d.attach(nopCloser{strings.NewReader(stream)}))
	assert.True(t, d.IsConnected())

	frames := collect(t, d.Frames())
	require.Len(t, frames, 2)
	assert.Equal(t, []flex.Reading{{Label: "Thumb", Angle: 163.33}, {Label: "index", Angle: 87}}, frames[0].Readings)
	assert.Equal(t, []flex.Reading{{Label: "Thumb", Angle: 150}, {Label: "index", Angle: 25}}, frames[1].Readings)
	assert.False(t, frames[1].Timestamp.IsZero())
	assert.NoError(t, d.Close())
}

func TestReadFrames_AnyChannelCount(t *testing.T) {
	d := New("test", 0, 10, 0)
	require.NoError(t, d.attach(nopCloser{strings.NewReader("a:1.00\na:1.00 b:2.00\n")}))
	assert.Len(t, collect(t, d.Frames()), 2)
}

func TestReadFrames_DropsWhenFull(t *testing.T) {
	d := New("test", 0, 1, 1)
	require.NoError(t, d.attach(nopCloser{strings.NewReader("a:1.00\na:2.00\na:3.00\n")}))

	// Nobody reads until the stream is consumed, so only the first frame fits.
	require.Eventually(t, func() bool { return d.Dropped() == 2 }, 2*time.Second, time.Millisecond)
	frames := collect(t, d.Frames())
	require.Len(t, frames, 1)
	assert.Equal(t, float32(1), frames[0].Readings[0].Angle)
}

func TestAttachTwice(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	d := New("test", 0, 1, 1)
	require.NoError(t, d.attach(pr))
	assert.Error(t, d.attach(nopCloser{strings.NewReader("")}))
	assert.NoError(t, d.Close())
	assert.False(t, d.IsConnected())
}

func TestReconnect(t *testing.T) {
	d := New("test", 0, 10, 1)

	require.NoError(t, d.attach(nopCloser{strings.NewReader("a:1.00\n")}))
	first := collect(t, d.Frames())
	require.Len(t, first, 1)
	require.NoError(t, d.Close())

	require.NoError(t, d.attach(nopCloser{strings.NewReader("a:2.00\na:3.00\n")}))
	assert.True(t, d.IsConnected())
	second := collect(t, d.Frames())
	require.Len(t, second, 2)
	assert.Equal(t, float32(3), second[1].Readings[0].Angle)
	assert.NoError(t, d.Close())
}

func TestReconnect_WhileReaderBlocked(t *testing.T) {
	pr, pw := io.Pipe()
	d := New("test", 0, 10, 1)
	require.NoError(t, d.attach(pr))
	old := d.Frames()

	// Closing the pipe unblocks the old reader, which closes its own channel.
	require.NoError(t, d.Close())
	pw.Close()
	collect(t, old)

	require.NoError(t, d.attach(nopCloser{strings.NewReader("a:4.00\n")}))
	frames := collect(t, d.Frames())
	require.Len(t, frames, 1)
	assert.Equal(t, float32(4), frames[0].Readings[0].Angle)
}
