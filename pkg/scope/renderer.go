package scope

import (
	"image/color"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/chewxy/math32"
)

// traceColors is indexed by channel; it wraps for gloves with more fingers.
var traceColors = []color.RGBA{
	{R: 255, G: 165, B: 0, A: 255},   // orange
	{R: 100, G: 200, B: 255, A: 255}, // light blue
	{R: 120, G: 220, B: 120, A: 255}, // green
	{R: 230, G: 100, B: 200, A: 255}, // magenta
	{R: 240, G: 230, B: 90, A: 255},  // yellow
}

var (
	gridColor = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	textColor = color.RGBA{R: 150, G: 150, B: 150, A: 255}
)

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope *ScopeWidget

	// Background
	grid *canvas.Rectangle

	// Objects list for Fyne
	objects []fyne.CanvasObject

	// Track last size to detect changes
	lastSize fyne.Size
}

// MinSize returns the minimum size of the widget.
func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	r.grid.Resize(size)

	if r.lastSize != size {
		r.lastSize = size
		r.scope.BaseWidget.Refresh()
	}
}

// plotArea is the rectangle inside the axis margins.
type plotArea struct {
	x, y, w, h float32
	yMin, yMax float32
	xMin, xMax time.Time
}

func (p plotArea) pos(ts time.Time, v float32) fyne.Position {
	span := p.xMax.Sub(p.xMin).Seconds()
	x := p.x + float32(ts.Sub(p.xMin).Seconds()/span)*p.w
	y := p.y + p.h - (v-p.yMin)/(p.yMax-p.yMin)*p.h
	return fyne.NewPos(x, y)
}

// Refresh rebuilds the canvas objects from the display buffer.
func (r *scopeRenderer) Refresh() {
	r.scope.mu.RLock()
	samples := r.scope.display
	labels := r.scope.labels
	similarity, hasSimilarity := r.scope.similarity, r.scope.hasSimilarity
	area := plotArea{
		yMin: r.scope.limits.Min,
		yMax: r.scope.limits.Max,
		xMin: r.scope.xMin,
		xMax: r.scope.xMax,
	}
	r.scope.mu.RUnlock()

	// Clear old objects (but keep grid)
	r.objects = []fyne.CanvasObject{r.grid}

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}
	if !(area.yMax > area.yMin) || !area.xMax.After(area.xMin) {
		return
	}

	// Calculate margins
	const (
		marginLeft   = 60
		marginRight  = 20
		marginTop    = 30
		marginBottom = 40
	)
	area.x = marginLeft
	area.y = marginTop
	area.w = size.Width - marginLeft - marginRight
	area.h = size.Height - marginTop - marginBottom

	r.drawGrid(area)
	for ch := range labels {
		c := traceColors[ch%len(traceColors)]
		r.drawTrace(area, samples, ch, false, c)
		r.drawTrace(area, samples, ch, true, dim(c))
	}
	r.drawLegend(area, labels, samples)
	if hasSimilarity {
		r.drawSimilarity(area, similarity)
	}
}

// drawGrid draws the oscilloscope-style grid with degree and second labels.
func (r *scopeRenderer) drawGrid(a plotArea) {
	numHLines := 6
	for i := 0; i < numHLines+1; i++ {
		y := a.y + float32(i)*a.h/float32(numHLines)
		r.addLine(fyne.NewPos(a.x, y), fyne.NewPos(a.x+a.w, y), gridColor, 1)

		value := a.yMax - float32(i)*(a.yMax-a.yMin)/float32(numHLines)
		text := canvas.NewText(formatFloat(value, 0)+"°", textColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(a.x-5, y-6))
		r.objects = append(r.objects, text)
	}

	numVLines := 10
	span := a.xMax.Sub(a.xMin)
	for i := 0; i < numVLines+1; i++ {
		x := a.x + float32(i)*a.w/float32(numVLines)
		r.addLine(fyne.NewPos(x, a.y), fyne.NewPos(x, a.y+a.h), gridColor, 1)

		offset := time.Duration(int64(span) * int64(i) / int64(numVLines))
		text := canvas.NewText(formatFloat(float32(offset.Seconds()), 1)+"s", textColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(x-20, a.y+a.h+5))
		r.objects = append(r.objects, text)
	}
}

// drawTrace draws one channel as connected segments. Reference traces skip
// gaps where the reference has no value.
func (r *scopeRenderer) drawTrace(a plotArea, samples []Sample, ch int, expected bool, c color.Color) {
	width := float32(1.5)
	if expected {
		width = 1
	}

	var prev fyne.Position
	havePrev := false
	for _, s := range samples {
		values := s.Angles
		if expected {
			values = s.Expected
		}
		if ch >= len(values) || math32.IsNaN(values[ch]) || s.Timestamp.Before(a.xMin) {
			havePrev = false
			continue
		}
		p := a.pos(s.Timestamp, a.clamp(values[ch]))
		if havePrev {
			r.addLine(prev, p, c, width)
		}
		prev, havePrev = p, true
	}
}

// drawLegend writes each label with its latest angle above the plot.
func (r *scopeRenderer) drawLegend(a plotArea, labels []string, samples []Sample) {
	x := a.x
	for ch, label := range labels {
		s := label
		if n := len(samples); n > 0 && ch < len(samples[n-1].Angles) {
			s += " " + formatFloat(samples[n-1].Angles[ch], 1) + "°"
		}
		text := canvas.NewText(s, traceColors[ch%len(traceColors)])
		text.TextSize = 11
		text.Move(fyne.NewPos(x, a.y-22))
		r.objects = append(r.objects, text)
		x += 110
	}
}

// drawSimilarity shows the latest similarity in the top right corner.
func (r *scopeRenderer) drawSimilarity(a plotArea, similarity float32) {
	text := canvas.NewText("similarity "+formatFloat(similarity, 1)+"%", color.RGBA{R: 200, G: 200, B: 200, A: 255})
	text.TextSize = 12
	text.Alignment = fyne.TextAlignTrailing
	text.Move(fyne.NewPos(a.x+a.w, a.y-22))
	r.objects = append(r.objects, text)
}

func (r *scopeRenderer) addLine(p1, p2 fyne.Position, c color.Color, width float32) {
	line := canvas.NewLine(c)
	line.Position1 = p1
	line.Position2 = p2
	line.StrokeWidth = width
	r.objects = append(r.objects, line)
}

// Objects returns all canvas objects for rendering.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *scopeRenderer) Destroy() {}

func (a plotArea) clamp(v float32) float32 {
	return math32.Min(math32.Max(v, a.yMin), a.yMax)
}

// dim returns a faded version of c for reference traces.
func dim(c color.RGBA) color.RGBA {
	return color.RGBA{R: c.R / 2, G: c.G / 2, B: c.B / 2, A: 160}
}

func formatFloat(v float32, decimals int) string {
	return strconv.FormatFloat(float64(v), 'f', decimals, 32)
}
