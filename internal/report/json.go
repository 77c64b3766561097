package report

import (
	"context"
	"io"
	"log/slog"
)

// JSON emits every event as one JSON object per line using a slog JSON
// handler, for consumption by other programs.
type JSON struct {
	logger *slog.Logger
}

// NewJSON returns a JSON reporter writing to w.
func NewJSON(w io.Writer) *JSON {
	return &JSON{logger: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))}
}

// Report implements Reporter.
func (j *JSON) Report(e Event) {
	attrs := []slog.Attr{
		slog.String("kind", string(e.Kind)),
		slog.String("target", e.Target),
		slog.Bool("verbose", e.Verbose),
	}
	if e.Kind == KindFetchProgress {
		attrs = append(attrs,
			slog.Int64("bytes", e.Bytes),
			slog.Int64("total", e.Total),
			slog.Int("percent", e.Percent),
		)
	}
	if e.Elapsed > 0 {
		attrs = append(attrs, slog.Float64("elapsed_seconds", e.Elapsed.Seconds()))
	}

	level := slog.LevelInfo
	switch {
	case e.Kind == KindFailed:
		level = slog.LevelError
	case e.Verbose:
		level = slog.LevelDebug
	}
	j.logger.LogAttrs(context.Background(), level, e.Message, attrs...)
}
