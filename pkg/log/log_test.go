package log

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func dataEvent(conn, domain, variable, value string) Event {
	return Event{
		Timestamp:    time.Now().UTC(),
		ConnectionID: conn,
		Direction:    DirectionOut,
		Category:     CategoryData,
		Op:           OpRead,
		Domain:       domain,
		Variable:     variable,
		Data:         &DataEvent{Value: value},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	q := uint8(8)
	elapsed := 31 * time.Second
	events := []Event{
		dataEvent("conn-1", "ICC1", "Voltage_A", "230.5"),
		{
			Timestamp:    time.Now().UTC(),
			ConnectionID: "conn-1",
			Direction:    DirectionIn,
			Category:     CategoryData,
			Op:           OpRead,
			Domain:       "ICC1",
			Variable:     "Flow",
			Data:         &DataEvent{Value: "100", Quality: &q},
		},
		{
			Timestamp:    time.Now().UTC(),
			ConnectionID: "conn-1",
			Direction:    DirectionOut,
			Category:     CategoryControl,
			Op:           OpOperate,
			Domain:       "ICC1",
			Variable:     "Breaker1",
			Control:      &ControlEvent{Value: "1", Elapsed: &elapsed},
		},
		{
			Timestamp:    time.Now().UTC(),
			ConnectionID: "conn-1",
			Category:     CategoryReport,
			Direction:    DirectionIn,
			Report:       &ReportEvent{TransferSet: "DSTS1", Points: 12, Sequence: 3},
		},
		{
			Timestamp:    time.Now().UTC(),
			ConnectionID: "conn-1",
			Category:     CategoryState,
			StateChange: &StateChangeEvent{
				Entity:   StateEntityAssociation,
				OldState: "DISCONNECTED",
				NewState: "CONNECTED",
			},
		},
		{
			Timestamp:    time.Now().UTC(),
			ConnectionID: "conn-1",
			Category:     CategoryError,
			Op:           OpWrite,
			Error:        &ErrorEventData{Message: "access denied", Context: "write ICC1/Sp1"},
		},
	}

	for _, want := range events {
		data, err := EncodeEvent(want)
		if err != nil {
			t.Fatalf("EncodeEvent: %v", err)
		}
		got, err := DecodeEvent(data)
		if err != nil {
			t.Fatalf("DecodeEvent: %v", err)
		}
		if got.ConnectionID != want.ConnectionID ||
			got.Category != want.Category ||
			got.Op != want.Op ||
			got.Domain != want.Domain ||
			got.Variable != want.Variable {
			t.Errorf("round trip mismatch: got %+v, want %+v", got, want)
		}
		if !got.Timestamp.Equal(want.Timestamp) {
			t.Errorf("timestamp: got %v, want %v", got.Timestamp, want.Timestamp)
		}
	}
}

func TestFileLoggerAppendAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "protocol.cborlog")

	l, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	l.Log(dataEvent("conn-1", "ICC1", "P1", "1"))
	l.Log(dataEvent("conn-2", "ICC2", "P2", "2"))
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Close twice is fine, logging after close is ignored.
	if err := l.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	l.Log(dataEvent("conn-3", "ICC3", "P3", "3"))

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()

	var got []Event
	for {
		e, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		got = append(got, e)
	}
	if len(got) != 2 {
		t.Fatalf("read %d events, want 2", len(got))
	}
	if got[0].Domain != "ICC1" || got[1].Domain != "ICC2" {
		t.Errorf("domains = %s, %s", got[0].Domain, got[1].Domain)
	}
}

func TestFilteredReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "protocol.cborlog")
	l, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	l.Log(dataEvent("conn-1", "ICC1", "P1", "1"))
	l.Log(dataEvent("conn-2", "ICC1", "P2", "2"))
	l.Log(dataEvent("conn-1", "ICC2", "P3", "3"))
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := NewFilteredReader(path, Filter{ConnectionID: "conn-1", Domain: "ICC2"})
	if err != nil {
		t.Fatalf("NewFilteredReader: %v", err)
	}
	defer r.Close()

	e, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if e.Variable != "P3" {
		t.Errorf("filtered event variable = %s, want P3", e.Variable)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestNoopAndMultiLogger(t *testing.T) {
	NoopLogger{}.Log(Event{}) // must not panic

	if OrNoop(nil) == nil {
		t.Fatal("OrNoop(nil) returned nil")
	}

	var captured []Event
	capture := loggerFunc(func(e Event) { captured = append(captured, e) })
	m := NewMultiLogger(NoopLogger{}, capture)
	m.Log(dataEvent("c", "d", "v", "1"))
	if len(captured) != 1 {
		t.Errorf("multi logger delivered %d events, want 1", len(captured))
	}

	// Nil sinks, e.g. an unset optional file logger, are dropped.
	m = NewMultiLogger(nil, capture, nil)
	m.Log(dataEvent("c", "d", "v", "2"))
	if len(captured) != 2 {
		t.Errorf("multi logger with nil sinks delivered %d events, want 2", len(captured))
	}
}

// loggerFunc adapts a function to the Logger interface for tests.
type loggerFunc func(Event)

func (f loggerFunc) Log(e Event) { f(e) }

func TestFileLoggerBadPath(t *testing.T) {
	if _, err := NewFileLogger(filepath.Join(string(os.PathSeparator), "no-such-dir-xyz", "f")); err == nil {
		t.Error("expected error for unwritable path")
	}
}
