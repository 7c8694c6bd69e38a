package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/Hetavshah1/hand-rehab-tracking/pkg/flex"
	"github.com/Hetavshah1/hand-rehab-tracking/pkg/link"
	"github.com/Hetavshah1/hand-rehab-tracking/pkg/reference"
)

func main() {
	var (
		portFlag      = flag.String("p", "/dev/ttyACM0", "Serial port the glove is attached to")
		baudFlag      = flag.Int("b", link.DefaultBaudRate, "Baud rate")
		channelsFlag  = flag.Int("n", 0, "Expected readings per line (0 = any)")
		listFlag      = flag.Bool("list", false, "List serial ports and exit")
		referenceFlag = flag.String("reference", "", "Reference CSV (time_sec + one column per finger) to compare against")
		guiFlag       = flag.Bool("gui", false, "Plot the angles in a window instead of printing them")
		windowFlag    = flag.Duration("window", 10*time.Second, "Time span shown by the plot")
	)
	flag.Parse()

	if *listFlag {
		ports, err := link.Ports()
		if err != nil {
			log.Fatalf("Failed to list ports: %v", err)
		}
		for _, p := range ports {
			fmt.Println(p.Name)
		}
		return
	}

	var ref *reference.Reference
	if *referenceFlag != "" {
		var err error
		ref, err = reference.Load(*referenceFlag)
		if err != nil {
			log.Fatalf("Failed to load reference: %v", err)
		}
		log.Printf("Loaded reference %s: %d rows over %s", *referenceFlag, len(ref.Rows), ref.Duration())
	}

	glove := link.New(*portFlag, *baudFlag, link.DefaultBufferSize, *channelsFlag)
	if err := glove.Connect(); err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer glove.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var comparisons <-chan reference.Comparison
	if ref != nil {
		comparisons = reference.NewComparator(ref, link.DefaultBufferSize)(glove.Frames())
	}

	stats := &summary{}
	if *guiFlag {
		runGUI(ctx, glove, comparisons, *windowFlag, stats)
	} else {
		go func() {
			<-ctx.Done()
			glove.Close()
		}()
		printStream(glove.Frames(), comparisons, stats)
	}

	stats.log()
	if d := glove.Dropped(); d > 0 {
		log.Printf("Dropped %d frames", d)
	}
}

// printStream prints frames, or comparisons when a reference is loaded,
// until the stream ends.
func printStream(frames <-chan link.Frame, comparisons <-chan reference.Comparison, stats *summary) {
	if comparisons == nil {
		for f := range frames {
			fmt.Printf("%s %s\n", f.Timestamp.Format("15:04:05.000"), flex.FormatLine(f.Readings))
		}
		return
	}

	for c := range comparisons {
		stats.add(c)
		fmt.Printf("%7.3fs similarity %6.2f%% %s\n", c.Elapsed.Seconds(), c.Similarity, formatErrors(c.Errors))
	}
}

// summary accumulates the similarity over a session.
type summary struct {
	mu  sync.Mutex
	n   int
	sum float32
}

func (s *summary) add(c reference.Comparison) {
	if len(c.Errors) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	s.sum += c.Similarity
}

func (s *summary) log() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.n > 0 {
		log.Printf("Compared %d frames, mean similarity %.2f%%", s.n, s.sum/float32(s.n))
	}
}

// formatErrors prints per-finger errors in label order.
func formatErrors(errs map[string]float32) string {
	labels := make([]string, 0, len(errs))
	for l := range errs {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	var s string
	for i, l := range labels {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%s:%+.2f", l, errs[l])
	}
	return s
}
