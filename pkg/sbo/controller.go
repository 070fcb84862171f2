// Package sbo implements the Select-Before-Operate state machine for
// Block 5 device control.
//
// A device key moves IDLE -> SELECTED on a successful select and back
// to IDLE when the device is operated, cancelled, or found expired.
// Expiry is evaluated lazily against the wall clock when operate is
// next invoked; there is no background timer.
package sbo

import (
	"fmt"
	"sync"
	"time"

	"github.com/tase2-protocol/tase2-go/pkg/log"
	"github.com/tase2-protocol/tase2-go/pkg/mms"
)

// Timeout is the protocol limit between select and operate.
const Timeout = 30 * time.Second

// selectCandidates are the select-variable name patterns, tried in
// order; the first write that succeeds wins.
var selectCandidates = []string{
	"%s$SBO",
	"%s_Select",
	"%s$Oper$ctlVal",
	"%s$SBOw",
}

// checkbackSuffix is appended to the device name for the checkback
// echo write before operating.
const checkbackSuffix = "_CheckBackID"

// State is the per-device select state.
type State uint8

const (
	// StateIdle means no select record exists for the device.
	StateIdle State = iota
	// StateSelected means a select record exists and has not been
	// consumed by an operate.
	StateSelected
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateSelected:
		return "SELECTED"
	default:
		return "UNKNOWN"
	}
}

// Clock abstracts wall-clock sampling so expiry is testable without
// sleeping.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Transport is the connection subset the controller drives.
type Transport interface {
	ReadVariable(domain, name string) (mms.Value, error)
	WriteVariable(domain, name string, value mms.Value) error
}

// Selection records a successful select.
type Selection struct {
	Domain string
	Device string

	// At is the select timestamp.
	At time.Time

	// Candidate is the select-variable name that accepted the write,
	// empty for implicit selects.
	Candidate string

	// Implicit is set when no select variable accepted a write and
	// selection was established by a plain read of the device.
	Implicit bool

	// checkback is the value read back from the select variable, echoed
	// to the checkback variable before operating.
	checkback    mms.Value
	hasCheckback bool
}

// Age returns the selection age at time now.
func (s Selection) Age(now time.Time) time.Duration {
	return now.Sub(s.At)
}

// Config holds controller settings.
type Config struct {
	// Clock for select timestamps and expiry checks. Default wall clock.
	Clock Clock

	// Logger for control events. Default NoopLogger.
	Logger log.Logger
}

// Controller tracks select state per device and enforces the SBO
// timeout. It is safe for concurrent use; select and operate for the
// same device are serialized.
type Controller struct {
	transport Transport
	clock     Clock
	logger    log.Logger

	mu         sync.Mutex
	selections map[string]Selection

	onStateChange func(domain, device string, state State)
}

// New creates a controller over the given transport with defaults.
func New(transport Transport) *Controller {
	return NewWithConfig(transport, Config{})
}

// NewWithConfig creates a controller with explicit settings.
func NewWithConfig(transport Transport, cfg Config) *Controller {
	if cfg.Clock == nil {
		cfg.Clock = systemClock{}
	}
	return &Controller{
		transport:  transport,
		clock:      cfg.Clock,
		logger:     log.OrNoop(cfg.Logger),
		selections: make(map[string]Selection),
	}
}

// OnStateChange registers a callback invoked after every state
// transition. The callback runs outside the controller lock.
func (c *Controller) OnStateChange(fn func(domain, device string, state State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onStateChange = fn
}

// Select establishes a select record for the device. Candidate select
// variables are written in fixed priority order with value 1; the
// first accepted write wins and later candidates are never tried. If
// every candidate write fails, a plain read of the device establishes
// an implicit select. Only when the fallback read also fails is a
// SelectError returned.
func (c *Controller) Select(domain, device string) (Selection, error) {
	if c.transport == nil {
		return Selection{}, ErrNoTransport
	}

	var causes []error
	for _, pattern := range selectCandidates {
		name := fmt.Sprintf(pattern, device)
		if err := c.transport.WriteVariable(domain, name, mms.NewInt64(1)); err != nil {
			causes = append(causes, fmt.Errorf("%s: %w", name, err))
			continue
		}

		sel := Selection{
			Domain:    domain,
			Device:    device,
			At:        c.clock.Now(),
			Candidate: name,
		}
		// Checkback read-back is best-effort; servers without a
		// readable select variable still select fine.
		if v, err := c.transport.ReadVariable(domain, name); err == nil {
			sel.checkback = v
			sel.hasCheckback = true
		}
		c.record(sel)
		return sel, nil
	}

	// Implicit-select fallback: a readable device is treated as
	// selectable on servers that expose no select variable.
	if _, err := c.transport.ReadVariable(domain, device); err != nil {
		causes = append(causes, fmt.Errorf("%s: %w", device, err))
		selErr := &SelectError{Domain: domain, Device: device, Causes: causes}
		c.logger.Log(log.Event{
			Timestamp: c.clock.Now(),
			Direction: log.DirectionOut,
			Category:  log.CategoryError,
			Op:        log.OpSelect,
			Domain:    domain,
			Variable:  device,
			Error:     &log.ErrorEventData{Message: selErr.Error(), Context: "select"},
		})
		return Selection{}, selErr
	}

	sel := Selection{
		Domain:   domain,
		Device:   device,
		At:       c.clock.Now(),
		Implicit: true,
	}
	c.record(sel)
	return sel, nil
}

// Operate writes the control value to the device. A live select record
// is consumed on success and kept on write failure so the caller may
// retry before expiry. An expired record is deleted and surfaced as an
// OperateError carrying the elapsed time. Operating without any select
// record performs a direct operate.
func (c *Controller) Operate(domain, device string, value mms.Value) error {
	if c.transport == nil {
		return ErrNoTransport
	}
	key := deviceKey(domain, device)
	now := c.clock.Now()

	c.mu.Lock()
	sel, selected := c.selections[key]
	if selected {
		if elapsed := sel.Age(now); elapsed > Timeout {
			delete(c.selections, key)
			c.mu.Unlock()
			opErr := &OperateError{Domain: domain, Device: device, Expired: true, Elapsed: elapsed}
			c.logger.Log(log.Event{
				Timestamp: now,
				Direction: log.DirectionOut,
				Category:  log.CategoryError,
				Op:        log.OpOperate,
				Domain:    domain,
				Variable:  device,
				Control:   &log.ControlEvent{Elapsed: &elapsed},
				Error:     &log.ErrorEventData{Message: opErr.Error(), Context: "operate"},
			})
			c.notify(domain, device, StateIdle)
			return opErr
		}
	}
	c.mu.Unlock()

	// Echo the checkback ID first, when the select captured one.
	// Servers without a checkback variable reject the write; that is
	// not a failure.
	if selected && sel.hasCheckback {
		_ = c.transport.WriteVariable(domain, device+checkbackSuffix, sel.checkback)
	}

	if err := c.transport.WriteVariable(domain, device, value); err != nil {
		return &OperateError{Domain: domain, Device: device, Cause: err}
	}

	if selected {
		c.mu.Lock()
		delete(c.selections, key)
		c.mu.Unlock()
		c.notify(domain, device, StateIdle)
	}

	elapsed := now.Sub(sel.At)
	ev := log.Event{
		Timestamp: now,
		Direction: log.DirectionOut,
		Category:  log.CategoryControl,
		Op:        log.OpOperate,
		Domain:    domain,
		Variable:  device,
		Control:   &log.ControlEvent{Value: value.String()},
	}
	if selected {
		ev.Control.Elapsed = &elapsed
		ev.Control.Candidate = sel.Candidate
		ev.Control.Implicit = sel.Implicit
	}
	c.logger.Log(ev)
	return nil
}

// Cancel deletes the select record without writing anything. It
// reports whether a record existed.
func (c *Controller) Cancel(domain, device string) bool {
	key := deviceKey(domain, device)

	c.mu.Lock()
	_, ok := c.selections[key]
	delete(c.selections, key)
	c.mu.Unlock()

	if ok {
		c.logger.Log(log.Event{
			Timestamp: c.clock.Now(),
			Direction: log.DirectionOut,
			Category:  log.CategoryControl,
			Op:        log.OpCancel,
			Domain:    domain,
			Variable:  device,
		})
		c.notify(domain, device, StateIdle)
	}
	return ok
}

// Selected returns the live select record for the device, if any.
// Expiry is not evaluated here; a stale record is still returned.
func (c *Controller) Selected(domain, device string) (Selection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sel, ok := c.selections[deviceKey(domain, device)]
	return sel, ok
}

// State returns the current state for the device key.
func (c *Controller) State(domain, device string) State {
	if _, ok := c.Selected(domain, device); ok {
		return StateSelected
	}
	return StateIdle
}

// Selections returns a snapshot of all live select records.
func (c *Controller) Selections() []Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Selection, 0, len(c.selections))
	for _, sel := range c.selections {
		out = append(out, sel)
	}
	return out
}

// Reset drops every select record.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.selections = make(map[string]Selection)
	c.mu.Unlock()
}

func (c *Controller) record(sel Selection) {
	key := deviceKey(sel.Domain, sel.Device)

	c.mu.Lock()
	c.selections[key] = sel
	c.mu.Unlock()

	c.logger.Log(log.Event{
		Timestamp: sel.At,
		Direction: log.DirectionOut,
		Category:  log.CategoryControl,
		Op:        log.OpSelect,
		Domain:    sel.Domain,
		Variable:  sel.Device,
		Control: &log.ControlEvent{
			Candidate: sel.Candidate,
			Implicit:  sel.Implicit,
		},
	})
	c.notify(sel.Domain, sel.Device, StateSelected)
}

// notify invokes the state-change callback outside the lock.
func (c *Controller) notify(domain, device string, state State) {
	c.mu.Lock()
	fn := c.onStateChange
	c.mu.Unlock()
	if fn != nil {
		fn(domain, device, state)
	}
}

func deviceKey(domain, device string) string {
	return domain + "/" + device
}
