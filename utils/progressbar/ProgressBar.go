// Package progressbar implements functionality of printing a progress
// bar to the terminal window
package progressbar

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gosuri/uilive"
)

// ProgressBar implements a progress bar that must be manually managed.
// That is, Display() must be called whenever an updated progress bar
// should be printed. The bar is redrawn in place using a uilive
// writer so that log lines printed to other streams are not mangled.
//
// ProgressBar does not use concurrency.
type ProgressBar struct {
	width           float64
	maxProgress     float64
	currentProgress float64
	status          string
	startTime       time.Time

	writer *uilive.Writer
}

// New returns a new ProgressBar that is width characters wide and
// reaches 100% after max calls to Increment. The bar is drawn to out.
func New(out io.Writer, width, max int) *ProgressBar {
	writer := uilive.New()
	writer.Out = out
	writer.Start()

	return &ProgressBar{
		width:       float64(width),
		maxProgress: float64(max),
		startTime:   time.Now(),
		writer:      writer,
	}
}

// Increment increments the interal progress counter. Each time an
// iteration is performed, Increment should be called.
func (p *ProgressBar) Increment() {
	if p.currentProgress < p.maxProgress {
		p.currentProgress++
	}
}

// SetStatus sets a message printed after the bar
func (p *ProgressBar) SetStatus(format string, args ...interface{}) {
	p.status = fmt.Sprintf(format, args...)
}

// String returns the current rendering of the bar
func (p *ProgressBar) String() string {
	var bar strings.Builder
	bar.WriteString("|")

	currentProg := p.currentProgress / p.maxProgress * p.width
	for i := 0.0; i < currentProg; i++ {
		bar.WriteString("█")
	}
	for i := currentProg; i < p.width; i++ {
		bar.WriteString(" ")
	}
	bar.WriteString(fmt.Sprintf("| [%.2f%% | elapsed: %v]",
		p.currentProgress/p.maxProgress*100,
		time.Since(p.startTime).Truncate(time.Second)))

	if p.status != "" {
		bar.WriteString(" " + p.status)
	}
	return bar.String()
}

// Display redraws the progress bar
func (p *ProgressBar) Display() {
	fmt.Fprintln(p.writer, p.String())
	p.writer.Flush()
}

// Close stops redrawing the progress bar
func (p *ProgressBar) Close() {
	p.writer.Stop()
}
