// Package report carries lifecycle events from a fetch to whoever is
// watching it. Reporters never influence control flow: a fetch behaves the
// same with Nop as with any other implementation.
package report

import (
	"sync"
	"time"
)

// Kind identifies a lifecycle event.
type Kind string

const (
	KindFetching       Kind = "fetching"
	KindSaving         Kind = "saving"
	KindFetchProgress  Kind = "fetch_progress"
	KindExecutableIsOK Kind = "executable_is_ok"
	KindDone           Kind = "done"
	// KindFailed follows KindFetching when the fetch then returns an error.
	KindFailed         Kind = "failed"
)

// Event is a single lifecycle notification.
//
// Bytes, Total and Percent are set on fetch_progress events only.
// Elapsed is set on done events.
type Event struct {
	Message string
	Kind    Kind
	Target  string
	Verbose bool
	Bytes   int64
	Total   int64
	Percent int
	Elapsed time.Duration
}

// Reporter receives events. Implementations must be safe for concurrent use
// when shared between fetches of different targets.
type Reporter interface {
	Report(Event)
}

// Nop discards every event.
type Nop struct{}

// Report implements Reporter.
func (Nop) Report(Event) {}

// Func adapts a plain function to Reporter.
type Func func(Event)

// Report implements Reporter.
func (f Func) Report(e Event) { f(e) }

// Multi fans events out to every reporter in order.
func Multi(reporters ...Reporter) Reporter {
	return multi(reporters)
}

type multi []Reporter

func (m multi) Report(e Event) {
	for _, r := range m {
		if r != nil {
			r.Report(e)
		}
	}
}

// Recorder stores events in memory. It is used by tests and by callers
// that want to inspect a fetch after the fact.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Report implements Reporter.
func (r *Recorder) Report(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Kinds returns the kinds of the recorded events in order.
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]Kind, len(r.events))
	for i, e := range r.events {
		kinds[i] = e.Kind
	}
	return kinds
}

// Progress turns a byte count into throttled fetch_progress events.
// An event is emitted each time the integer percentage crosses the next
// multiple of Step. Nothing is emitted when Total is unknown (<= 0).
type Progress struct {
	Reporter Reporter
	Target   string
	Total    int64
	Step     int

	read int64
	next int
}

// DefaultProgressStep is the percentage interval between progress events.
const DefaultProgressStep = 5

// Add records n more bytes and reports if a threshold was crossed.
func (p *Progress) Add(n int) {
	if p.Total <= 0 || n <= 0 || p.Reporter == nil {
		return
	}
	step := p.Step
	if step <= 0 {
		step = DefaultProgressStep
	}

	p.read += int64(n)
	percent := int(p.read * 100 / p.Total)
	if percent > 100 {
		percent = 100
	}
	if percent < p.next {
		return
	}
	p.next = percent - percent%step + step

	p.Reporter.Report(Event{
		Message: "downloading",
		Kind:    KindFetchProgress,
		Target:  p.Target,
		Verbose: true,
		Bytes:   p.read,
		Total:   p.Total,
		Percent: percent,
	})
}
