package report

import (
	"sync"
	"testing"
	"time"

	"github.com/tase2-protocol/tase2-go/pkg/model"
)

func testReport(ts string) Report {
	return Report{
		Domain:      "ICC1",
		TransferSet: ts,
		Values:      []model.PointValue{{Name: "P1", Value: 1.0}},
	}
}

func TestPushAndPoll(t *testing.T) {
	q := NewQueue(4, nil)
	q.Start()

	if !q.Push(testReport("DSTS1")) {
		t.Fatal("push rejected on running queue")
	}
	r, ok := q.Next(0)
	if !ok {
		t.Fatal("Next(0) missed the buffered report")
	}
	if r.TransferSet != "DSTS1" || r.Sequence != 1 {
		t.Errorf("report = %+v", r)
	}
	if _, ok := q.Next(0); ok {
		t.Error("Next(0) on empty queue returned a report")
	}
}

func TestPushWhileStopped(t *testing.T) {
	q := NewQueue(4, nil)
	if q.Push(testReport("DSTS1")) {
		t.Error("push accepted before Start")
	}
	q.Start()
	q.Push(testReport("DSTS1"))
	q.Stop()
	if q.Len() != 0 {
		t.Error("Stop did not discard buffered reports")
	}
	if q.Push(testReport("DSTS2")) {
		t.Error("push accepted after Stop")
	}
}

func TestStartClearsStaleReports(t *testing.T) {
	q := NewQueue(4, nil)
	q.Start()
	q.Push(testReport("old"))
	q.Start()
	if q.Len() != 0 {
		t.Error("Start did not clear stale reports")
	}
}

func TestOverflowDropsOldest(t *testing.T) {
	q := NewQueue(2, nil)
	q.Start()

	q.Push(testReport("a"))
	q.Push(testReport("b"))
	q.Push(testReport("c"))

	if q.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", q.Dropped())
	}
	r, _ := q.Next(0)
	if r.TransferSet != "b" {
		t.Errorf("oldest surviving report = %s, want b", r.TransferSet)
	}
}

func TestSequenceNumbers(t *testing.T) {
	q := NewQueue(8, nil)
	q.Start()
	for i := 0; i < 3; i++ {
		q.Push(testReport("x"))
	}
	for want := uint64(1); want <= 3; want++ {
		r, ok := q.Next(0)
		if !ok || r.Sequence != want {
			t.Errorf("sequence = %d, %t; want %d", r.Sequence, ok, want)
		}
	}
}

func TestNextBlocksUntilPush(t *testing.T) {
	q := NewQueue(4, nil)
	q.Start()

	done := make(chan Report, 1)
	go func() {
		r, ok := q.Next(2 * time.Second)
		if ok {
			done <- r
		}
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	q.Push(testReport("late"))

	select {
	case r, ok := <-done:
		if !ok || r.TransferSet != "late" {
			t.Errorf("blocked Next returned %+v, %t", r, ok)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Next never woke up")
	}
}

func TestNextTimeout(t *testing.T) {
	q := NewQueue(4, nil)
	q.Start()

	start := time.Now()
	if _, ok := q.Next(50 * time.Millisecond); ok {
		t.Fatal("Next returned a report from an empty queue")
	}
	if time.Since(start) < 40*time.Millisecond {
		t.Error("Next returned before the timeout")
	}
}

func TestCallback(t *testing.T) {
	q := NewQueue(4, nil)
	q.Start()

	var mu sync.Mutex
	var got []string
	q.SetCallback(func(r Report) {
		mu.Lock()
		got = append(got, r.TransferSet)
		mu.Unlock()
	})

	q.Push(testReport("a"))
	q.Push(testReport("b"))

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("callback saw %v", got)
	}
	// Reports remain pollable alongside the callback.
	if q.Len() != 2 {
		t.Errorf("Len() = %d, want 2", q.Len())
	}
}
