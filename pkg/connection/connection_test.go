package connection

import (
	"errors"
	"testing"
	"time"
)

func TestBackoffSequence(t *testing.T) {
	b := NewBackoffWithConfig(BackoffConfig{Jitter: 0})

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		32 * time.Second,
		60 * time.Second,
		60 * time.Second, // capped
	}
	for i, w := range want {
		if got := b.Next(); got != w {
			t.Errorf("Next() #%d = %v, want %v", i, got, w)
		}
	}
	if b.Attempts() != len(want) {
		t.Errorf("Attempts() = %d, want %d", b.Attempts(), len(want))
	}

	b.Reset()
	if got := b.Next(); got != time.Second {
		t.Errorf("Next() after Reset = %v, want 1s", got)
	}
}

func TestBackoffJitterBounds(t *testing.T) {
	b := NewBackoffWithConfig(BackoffConfig{Initial: time.Second, Jitter: 0.25})
	for i := 0; i < 10; i++ {
		d := b.Peek()
		if d < time.Second || d > 1250*time.Millisecond {
			t.Errorf("Peek() = %v outside [1s, 1.25s]", d)
		}
	}
}

func TestOrderServers(t *testing.T) {
	servers := []ServerAddress{
		{Host: "backup1", Port: 102, Priority: PriorityBackup},
		{Host: "primary1", Port: 102, Priority: PriorityPrimary},
		{Host: "backup2", Port: 102, Priority: PriorityBackup},
		{Host: "primary2", Port: 102, Priority: PriorityPrimary},
	}

	ordered := OrderServers(servers)
	wantHosts := []string{"primary1", "primary2", "backup1", "backup2"}
	for i, w := range wantHosts {
		if ordered[i].Host != w {
			t.Fatalf("ordered[%d] = %s, want %s", i, ordered[i].Host, w)
		}
	}
	// Input untouched.
	if servers[0].Host != "backup1" {
		t.Error("OrderServers mutated its input")
	}
}

func TestFailoverFirstServerWins(t *testing.T) {
	var dialed []string
	m := NewManager(
		[]ServerAddress{{Host: "a", Port: 102}, {Host: "b", Port: 102}},
		func(host string, port int) error {
			dialed = append(dialed, host)
			return nil
		},
		ManagerConfig{Sleep: func(time.Duration) {}},
	)

	server, err := m.Connect()
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if server.Host != "a" || len(dialed) != 1 {
		t.Errorf("server = %s, dialed = %v", server.Host, dialed)
	}
}

func TestFailoverRotatesAndRetries(t *testing.T) {
	var dialed []string
	m := NewManager(
		[]ServerAddress{{Host: "a", Port: 102}, {Host: "b", Port: 102}},
		func(host string, port int) error {
			dialed = append(dialed, host)
			if host == "a" {
				return errors.New("refused")
			}
			return nil
		},
		ManagerConfig{RetryCount: 1, Sleep: func(time.Duration) {}},
	)

	server, err := m.Connect()
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if server.Host != "b" {
		t.Errorf("server = %s, want b", server.Host)
	}
	// a tried twice (1 + 1 retry), then b once.
	want := []string{"a", "a", "b"}
	if len(dialed) != len(want) {
		t.Fatalf("dialed = %v, want %v", dialed, want)
	}

	// Next Connect resumes from the last good server.
	dialed = nil
	if _, err := m.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if dialed[0] != "b" {
		t.Errorf("rotation did not resume from last good server: %v", dialed)
	}
}

func TestFailoverAllExhausted(t *testing.T) {
	m := NewManager(
		[]ServerAddress{{Host: "a", Port: 102}, {Host: "b", Port: 102}},
		func(host string, port int) error { return errors.New("refused") },
		ManagerConfig{Sleep: func(time.Duration) {}},
	)

	_, err := m.Connect()
	var fe *FailedError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FailedError", err)
	}
	if fe.Host != "b" {
		t.Errorf("last failure host = %s, want b", fe.Host)
	}
}

func TestFailoverNoServers(t *testing.T) {
	m := NewManager(nil, func(string, int) error { return nil }, ManagerConfig{})
	if _, err := m.Connect(); !errors.Is(err, ErrNoServers) {
		t.Errorf("err = %v, want ErrNoServers", err)
	}
}

func TestFailoverSleepsBetweenRetries(t *testing.T) {
	var slept []time.Duration
	m := NewManager(
		[]ServerAddress{{Host: "a", Port: 102}},
		func(string, int) error { return errors.New("refused") },
		ManagerConfig{
			RetryCount: 2,
			RetryDelay: 5 * time.Second,
			Sleep:      func(d time.Duration) { slept = append(slept, d) },
		},
	)

	_, _ = m.Connect()
	// 3 attempts, pauses only between them.
	if len(slept) != 2 || slept[0] != 5*time.Second {
		t.Errorf("slept = %v", slept)
	}
}

func TestFailoverBackoffGrowsAndResets(t *testing.T) {
	var slept []time.Duration
	b := NewBackoffWithConfig(BackoffConfig{
		Initial:    100 * time.Millisecond,
		Max:        time.Second,
		Multiplier: 2,
		Jitter:     0,
	})
	attempts := 0
	m := NewManager(
		[]ServerAddress{{Host: "a", Port: 102}},
		func(string, int) error {
			attempts++
			if attempts < 4 {
				return errors.New("refused")
			}
			return nil
		},
		ManagerConfig{
			RetryCount: 3,
			Backoff:    b,
			Sleep:      func(d time.Duration) { slept = append(slept, d) },
		},
	)

	if _, err := m.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}
	if len(slept) != len(want) {
		t.Fatalf("slept = %v, want %v", slept, want)
	}
	for i, w := range want {
		if slept[i] != w {
			t.Errorf("slept[%d] = %v, want %v", i, slept[i], w)
		}
	}
	// Success resets the schedule for the next outage.
	if got := b.Current(); got != 100*time.Millisecond {
		t.Errorf("backoff after success = %v, want 100ms", got)
	}
}

func TestFailoverNegativeRetryCountDisablesRetries(t *testing.T) {
	dialed := 0
	m := NewManager(
		[]ServerAddress{{Host: "a", Port: 102}, {Host: "b", Port: 102}},
		func(string, int) error {
			dialed++
			return errors.New("refused")
		},
		ManagerConfig{RetryCount: -1, Sleep: func(time.Duration) {}},
	)

	_, _ = m.Connect()
	// One attempt per server, no retries.
	if dialed != 2 {
		t.Errorf("dialed = %d, want 2", dialed)
	}
}
