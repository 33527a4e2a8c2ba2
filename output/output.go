// Package output is where the driver packages write their diagnostics.
// Nothing is printed unless the consumer calls SetWriter.
package output

import (
	"fmt"
	"io"
	"time"

	"github.com/gosuri/uiprogress"
)

var outputWriter io.Writer = io.Discard

// SetWriter allows the consumer of this package to
// choose where this package writes output.
//
// Default is to discard all output
func SetWriter(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	outputWriter = w
}

// Writer returns the currently configured writer
func Writer() io.Writer {
	return outputWriter
}

// Print calls fmt.Fprint() with the configured writer
func Print(a ...interface{}) {
	fmt.Fprint(outputWriter, a...)
}

// Println calls fmt.Fprintln() with the configured writer
func Println(a ...interface{}) {
	fmt.Fprintln(outputWriter, a...)
}

// Printf calls fmt.Fprintf() with the configured writer
func Printf(f string, a ...interface{}) {
	fmt.Fprintf(outputWriter, f, a...)
}

// WaitBar renders the progress of a bounded wait on the configured writer.
type WaitBar struct {
	progress *uiprogress.Progress
	bar      *uiprogress.Bar
}

// NewWaitBar starts a bar with one step per poll round.
// label is shown in front of the bar.
func NewWaitBar(label string, steps int) *WaitBar {
	if steps < 1 {
		steps = 1
	}
	progress := uiprogress.New()
	progress.SetOut(outputWriter)
	progress.SetRefreshInterval(100 * time.Millisecond)
	progress.Start()
	bar := progress.AddBar(steps)
	bar.PrependFunc(func(*uiprogress.Bar) string {
		return label
	})
	bar.PrependElapsed()
	bar.AppendCompleted()

	return &WaitBar{
		progress: progress,
		bar:      bar,
	}
}

// Step advances the bar by one round. It stops at the last step.
func (w *WaitBar) Step() {
	if w == nil {
		return
	}
	if w.bar.Current() < w.bar.Total {
		w.bar.Incr()
	}
}

// Done fills the bar and stops rendering.
func (w *WaitBar) Done() {
	if w == nil {
		return
	}
	_ = w.bar.Set(w.bar.Total)
	w.progress.Stop()
}

// Countdown blocks for n intervals while rendering a bar.
func Countdown(n int, interval time.Duration) {
	w := NewWaitBar("", n)
	for i := 0; i < n; i++ {
		time.Sleep(interval)
		w.Step()
	}
	w.Done()
}
