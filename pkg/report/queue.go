// Package report buffers incoming Block 2 transfer reports.
//
// The transport invokes Push from its receive path; consumers either
// poll Next or register a callback. The queue is bounded and drops the
// oldest report on overflow, counting every drop.
package report

import (
	"sync"
	"time"

	"github.com/tase2-protocol/tase2-go/pkg/log"
	"github.com/tase2-protocol/tase2-go/pkg/model"
)

// DefaultCapacity is the queue bound when none is configured.
const DefaultCapacity = 256

// Report is one received transfer report.
type Report struct {
	// Domain and TransferSet identify the reporting transfer set.
	Domain      string
	TransferSet string

	// Values are the decoded point values carried by the report.
	Values []model.PointValue

	// Conditions are the detected DSConditions, when the report
	// carried them.
	Conditions model.Conditions

	// Sequence is the local receive sequence number, assigned by the queue.
	Sequence uint64

	// Received is the local receive time.
	Received time.Time
}

// Queue is a bounded, thread-safe report queue.
type Queue struct {
	logger log.Logger

	mu       sync.Mutex
	buf      []Report
	capacity int
	running  bool
	seq      uint64
	dropped  uint64
	callback func(Report)

	// notify wakes one blocked Next per pushed report.
	notify chan struct{}
}

// NewQueue creates a queue with the given capacity; zero or negative
// means DefaultCapacity.
func NewQueue(capacity int, logger log.Logger) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{
		logger:   log.OrNoop(logger),
		capacity: capacity,
		notify:   make(chan struct{}, capacity),
	}
}

// Start clears stale reports and begins accepting pushes.
func (q *Queue) Start() {
	q.mu.Lock()
	q.buf = nil
	q.running = true
	q.mu.Unlock()
	q.drainNotify()
}

// Stop stops accepting pushes and discards buffered reports.
func (q *Queue) Stop() {
	q.mu.Lock()
	q.running = false
	q.buf = nil
	q.mu.Unlock()
	q.drainNotify()
}

// Running reports whether the queue accepts pushes.
func (q *Queue) Running() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

// SetCallback registers a function invoked for every accepted report,
// in addition to queueing. Pass nil to remove it. The callback runs on
// the pusher's goroutine, outside the queue lock.
func (q *Queue) SetCallback(fn func(Report)) {
	q.mu.Lock()
	q.callback = fn
	q.mu.Unlock()
}

// Push hands a report to the queue. Reports pushed while the queue is
// stopped are discarded. On overflow the oldest buffered report is
// dropped. Returns whether the report was accepted.
func (q *Queue) Push(r Report) bool {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return false
	}

	q.seq++
	r.Sequence = q.seq
	if r.Received.IsZero() {
		r.Received = time.Now()
	}

	if len(q.buf) >= q.capacity {
		q.buf = q.buf[1:]
		q.dropped++
	}
	q.buf = append(q.buf, r)
	cb := q.callback
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}

	q.logger.Log(log.Event{
		Timestamp: r.Received,
		Direction: log.DirectionIn,
		Category:  log.CategoryReport,
		Domain:    r.Domain,
		Report: &log.ReportEvent{
			TransferSet: r.TransferSet,
			Points:      len(r.Values),
			Sequence:    r.Sequence,
		},
	})

	if cb != nil {
		cb(r)
	}
	return true
}

// Next returns the oldest buffered report, waiting up to timeout for
// one to arrive. A zero timeout polls without blocking. The second
// return is false when no report arrived in time.
func (q *Queue) Next(timeout time.Duration) (Report, bool) {
	if r, ok := q.pop(); ok {
		return r, true
	}
	if timeout <= 0 {
		return Report{}, false
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case <-q.notify:
			if r, ok := q.pop(); ok {
				return r, true
			}
			// Signal consumed by a concurrent pop; keep waiting.
		case <-deadline.C:
			return Report{}, false
		}
	}
}

// Len returns the number of buffered reports.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}

// Dropped returns the number of reports lost to overflow.
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

func (q *Queue) pop() (Report, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.buf) == 0 {
		return Report{}, false
	}
	r := q.buf[0]
	q.buf = q.buf[1:]
	return r, true
}

func (q *Queue) drainNotify() {
	for {
		select {
		case <-q.notify:
		default:
			return
		}
	}
}
