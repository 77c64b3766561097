package report

import (
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Bar renders a terminal progress bar per target from fetch_progress events.
// A done event finishes the bar and a failed event erases it. All other
// events are ignored, so Bar is usually combined with Console via Multi.
type Bar struct {
	w io.Writer

	mu   sync.Mutex
	bars map[string]*progressbar.ProgressBar
}

// NewBar returns a Bar writing to w.
func NewBar(w io.Writer) *Bar {
	return &Bar{w: w, bars: make(map[string]*progressbar.ProgressBar)}
}

// Report implements Reporter.
func (b *Bar) Report(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch e.Kind {
	case KindFetchProgress:
		bar, ok := b.bars[e.Target]
		if !ok {
			bar = progressbar.NewOptions64(e.Total,
				progressbar.OptionSetWriter(b.w),
				progressbar.OptionSetWidth(30),
				progressbar.OptionShowBytes(true),
				progressbar.OptionSetDescription(filepath.Base(e.Target)),
				progressbar.OptionThrottle(100*time.Millisecond),
				progressbar.OptionOnCompletion(func() { _, _ = io.WriteString(b.w, "\n") }),
			)
			b.bars[e.Target] = bar
		}
		_ = bar.Set64(e.Bytes)
	case KindDone:
		if bar, ok := b.bars[e.Target]; ok {
			_ = bar.Finish()
			delete(b.bars, e.Target)
		}
	case KindFailed:
		if bar, ok := b.bars[e.Target]; ok {
			_ = bar.Clear()
			delete(b.bars, e.Target)
		}
	}
}
