package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

// Console writes one human-readable line per event.
//
// Verbose events (including progress) are dropped unless ShowVerbose is set.
type Console struct {
	w           io.Writer
	showVerbose bool

	mu    sync.Mutex
	ok    *color.Color
	info  *color.Color
	muted *color.Color
}

// NewConsole returns a Console writing to w. Colour is used only when
// colorEnabled is true.
func NewConsole(w io.Writer, showVerbose, colorEnabled bool) *Console {
	c := &Console{
		w:           w,
		showVerbose: showVerbose,
		ok:          color.New(color.FgGreen, color.Bold),
		info:        color.New(color.FgCyan),
		muted:       color.New(color.Faint),
	}
	if !colorEnabled {
		c.ok.DisableColor()
		c.info.DisableColor()
		c.muted.DisableColor()
	} else {
		c.ok.EnableColor()
		c.info.EnableColor()
		c.muted.EnableColor()
	}
	return c
}

// Report implements Reporter.
func (c *Console) Report(e Event) {
	if e.Verbose && !c.showVerbose {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch e.Kind {
	case KindExecutableIsOK, KindDone:
		line := e.Message
		if e.Kind == KindDone && e.Elapsed > 0 {
			line = fmt.Sprintf("%s (%s)", e.Message, e.Elapsed.Round(1e6))
		}
		fmt.Fprintf(c.w, "%s %s\n", c.ok.Sprint("✓"), line)
	case KindFailed:
		// the caller prints the error itself
	case KindFetchProgress:
		fmt.Fprintf(c.w, "  %s\n", c.muted.Sprintf("%s %3d%% (%d/%d bytes)", e.Target, e.Percent, e.Bytes, e.Total))
	default:
		fmt.Fprintf(c.w, "%s %s\n", c.info.Sprint("→"), e.Message)
	}
}
