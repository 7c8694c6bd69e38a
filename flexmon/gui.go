package main

import (
	"context"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/Hetavshah1/hand-rehab-tracking/pkg/flex"
	"github.com/Hetavshah1/hand-rehab-tracking/pkg/link"
	"github.com/Hetavshah1/hand-rehab-tracking/pkg/reference"
	"github.com/Hetavshah1/hand-rehab-tracking/pkg/scope"
)

// plotRange is the vertical axis of the plot; it covers every angle the
// glove can emit.
var plotRange = flex.Range{Min: 0, Max: 180}

// runGUI shows the live plot until the window is closed or ctx is done.
func runGUI(ctx context.Context, glove *link.Serial, comparisons <-chan reference.Comparison, window time.Duration, stats *summary) {
	application := app.NewWithID("io.github.hetavshah1.flexmon")

	w := application.NewWindow("Flex Glove Monitor")
	w.Resize(fyne.NewSize(1000, 600))
	w.CenterOnScreen()

	scopeWidget := scope.New(window, plotRange)
	status := widget.NewLabel("Waiting for data...")
	clearBtn := widget.NewButtonWithIcon("", theme.ContentClearIcon(), scopeWidget.Clear)

	toolbar := container.NewBorder(nil, nil, clearBtn, nil, status)
	w.SetContent(container.NewBorder(toolbar, nil, nil, nil, scopeWidget))

	go feed(glove, comparisons, scopeWidget, status, stats)

	go func() {
		<-ctx.Done()
		fyne.Do(application.Quit)
	}()

	w.ShowAndRun()

	// Closing the port ends the frames channel and with it the feeder
	glove.Close()
}

// feed forwards the stream to the plot on the Fyne thread.
func feed(glove *link.Serial, comparisons <-chan reference.Comparison, s *scope.ScopeWidget, status *widget.Label, stats *summary) {
	if comparisons == nil {
		for f := range glove.Frames() {
			fyne.Do(func() {
				s.AddFrame(f)
				status.SetText(flex.FormatLine(f.Readings))
			})
		}
	} else {
		for c := range comparisons {
			stats.add(c)
			fyne.Do(func() {
				s.AddComparison(c)
				status.SetText(formatErrors(c.Errors))
			})
		}
	}
	fyne.Do(func() {
		status.SetText("Disconnected")
	})
}
