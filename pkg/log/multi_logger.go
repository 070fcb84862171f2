package log

// MultiLogger fans one protocol event stream out to several sinks, so
// a session can be captured to a .tlog file while a console summary
// (SlogAdapter) follows along. Nil sinks are dropped at construction,
// which lets callers pass an optional FileLogger unconditionally.
type MultiLogger struct {
	sinks []Logger
}

// NewMultiLogger creates a MultiLogger over the non-nil sinks.
func NewMultiLogger(sinks ...Logger) *MultiLogger {
	kept := make([]Logger, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &MultiLogger{sinks: kept}
}

// Log forwards the event to every sink in registration order.
func (m *MultiLogger) Log(event Event) {
	for _, s := range m.sinks {
		s.Log(event)
	}
}

// Compile-time interface satisfaction check.
var _ Logger = (*MultiLogger)(nil)
