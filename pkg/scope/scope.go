package scope

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/Hetavshah1/hand-rehab-tracking/pkg/flex"
	"github.com/Hetavshah1/hand-rehab-tracking/pkg/link"
	"github.com/Hetavshah1/hand-rehab-tracking/pkg/reference"
)

// ScopeWidget is a custom Fyne widget that plots per-finger angle traces,
// optionally over the reference exercise, with the current similarity.
type ScopeWidget struct {
	widget.BaseWidget

	limits flex.Range

	// Data (protected by mu)
	mu            sync.RWMutex
	history       *History
	similarity    float32
	hasSimilarity bool

	// Display buffer (reused for downsampling)
	display []Sample
	labels  []string

	xMin, xMax time.Time
	window     time.Duration

	maxDisplayPoints int
}

// New creates a scope showing the last window of data on a fixed angle axis.
func New(window time.Duration, limits flex.Range) *ScopeWidget {
	s := &ScopeWidget{
		limits:           limits,
		history:          NewHistory(window),
		window:           window,
		display:          make([]Sample, 0, 1000),
		maxDisplayPoints: 1000, // Limit points for efficient rendering
	}
	if s.window <= 0 {
		s.window = 10 * time.Second
	}
	s.ExtendBaseWidget(s)
	s.Refresh()
	return s
}

// AddFrame plots a received line. Call it on the Fyne thread (fyne.Do).
func (s *ScopeWidget) AddFrame(f link.Frame) {
	s.mu.Lock()
	s.history.Add(f.Timestamp, f.Readings, nil)
	s.updateDisplay()
	s.mu.Unlock()

	s.Refresh()
}

// AddComparison plots a received line with its reference row and updates
// the similarity. Call it on the Fyne thread (fyne.Do).
func (s *ScopeWidget) AddComparison(c reference.Comparison) {
	s.mu.Lock()
	s.history.Add(c.Timestamp, c.Readings, c.Expected)
	s.similarity = c.Similarity
	s.hasSimilarity = len(c.Errors) > 0
	s.updateDisplay()
	s.mu.Unlock()

	s.Refresh()
}

// Clear drops all plotted data.
func (s *ScopeWidget) Clear() {
	s.mu.Lock()
	s.history.Reset()
	s.hasSimilarity = false
	s.updateDisplay()
	s.mu.Unlock()

	s.Refresh()
}

// Similarity returns the last similarity and whether one was received.
func (s *ScopeWidget) Similarity() (float32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.similarity, s.hasSimilarity
}

// updateDisplay downsamples the history and recomputes the time axis.
// Caller holds mu.
func (s *ScopeWidget) updateDisplay() {
	s.display = Downsample(s.display, s.history.Samples(), s.maxDisplayPoints)
	s.labels = append(s.labels[:0], s.history.Labels()...)

	if len(s.display) == 0 {
		s.xMin = time.Now()
		s.xMax = s.xMin.Add(s.window)
		return
	}
	s.xMax = s.display[len(s.display)-1].Timestamp
	s.xMin = s.xMax.Add(-s.window)
	if first := s.display[0].Timestamp; first.After(s.xMin) {
		// Until the window fills, grow to the right from the first sample
		s.xMin = first
		s.xMax = first.Add(s.window)
	}
}

// CreateRenderer creates the widget renderer.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	grid := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255}) // Dark background
	return &scopeRenderer{
		scope:   s,
		grid:    grid,
		objects: []fyne.CanvasObject{grid},
	}
}
