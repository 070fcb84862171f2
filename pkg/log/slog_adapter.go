package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes protocol events to an slog.Logger.
// Useful for development when you want to see protocol events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("conn_id", event.ConnectionID),
		slog.String("direction", event.Direction.String()),
		slog.String("category", event.Category.String()),
	}

	if event.Op != OpNone {
		attrs = append(attrs, slog.String("op", event.Op.String()))
	}
	if event.Domain != "" {
		attrs = append(attrs, slog.String("domain", event.Domain))
	}
	if event.Variable != "" {
		attrs = append(attrs, slog.String("variable", event.Variable))
	}

	// Add type-specific attributes
	switch {
	case event.Data != nil:
		if event.Data.Value != "" {
			attrs = append(attrs, slog.String("value", event.Data.Value))
		}
		if event.Data.Quality != nil {
			attrs = append(attrs, slog.Uint64("quality", uint64(*event.Data.Quality)))
		}
		if event.Data.Count > 0 {
			attrs = append(attrs, slog.Int("count", event.Data.Count))
		}
	case event.Control != nil:
		if event.Control.Value != "" {
			attrs = append(attrs, slog.String("value", event.Control.Value))
		}
		if event.Control.Candidate != "" {
			attrs = append(attrs, slog.String("candidate", event.Control.Candidate))
		}
		if event.Control.Implicit {
			attrs = append(attrs, slog.Bool("implicit", true))
		}
		if event.Control.Elapsed != nil {
			attrs = append(attrs, slog.Duration("elapsed", *event.Control.Elapsed))
		}
	case event.Report != nil:
		attrs = append(attrs,
			slog.String("transfer_set", event.Report.TransferSet),
			slog.Int("points", event.Report.Points),
			slog.Uint64("seq", event.Report.Sequence),
		)
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs, slog.String("error_msg", event.Error.Message))
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("error_context", event.Error.Context))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "tase2", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
