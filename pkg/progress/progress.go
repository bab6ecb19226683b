// Package progress delivers per-document progress events to a UI or log.
package progress

import (
	"io"
	"log/slog"
	"sync"

	"github.com/gosuri/uiprogress"
)

// Event is emitted after each document of a batch is recorded.
type Event struct {
	Completed int    // documents finished so far, monotonic
	Total     int    // documents in the batch
	Index     int    // input position of the document just finished
	Name      string // document name
	Failed    bool
}

// Sink receives progress events. Implementations must be safe to call from
// worker goroutines.
type Sink interface {
	Report(Event)
}

// Func adapts a function to a Sink. It adds no locking; batch.Driver reports
// events one at a time.
type Func func(Event)

func (f Func) Report(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = Func(func(Event) {})

// Log writes one debug-level record per event.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Report(e Event) {
	l.Logger.Debug("Document processed",
		"completed", e.Completed, "total", e.Total, "index", e.Index, "document", e.Name, "failed", e.Failed)
}

// Multi fans one event out to several sinks.
type Multi []Sink

func (m Multi) Report(e Event) {
	for _, s := range m {
		s.Report(e)
	}
}

// Bar renders a terminal progress bar with the current document name.
type Bar struct {
	mu       sync.Mutex
	progress *uiprogress.Progress
	bar      *uiprogress.Bar
	current  string
}

// NewBar starts rendering a bar for total documents to w.
func NewBar(w io.Writer, total int) *Bar {
	b := &Bar{progress: uiprogress.New()}
	b.progress.SetOut(w)
	b.progress.Start()

	b.bar = b.progress.AddBar(total)
	b.bar.AppendCompleted()
	b.bar.PrependElapsed()
	b.bar.AppendFunc(func(*uiprogress.Bar) string {
		b.mu.Lock()
		defer b.mu.Unlock()
		return b.current
	})
	return b
}

func (b *Bar) Report(e Event) {
	b.mu.Lock()
	b.current = e.Name
	b.mu.Unlock()
	_ = b.bar.Set(e.Completed)
}

// Stop flushes and stops rendering.
func (b *Bar) Stop() {
	b.progress.Stop()
}
