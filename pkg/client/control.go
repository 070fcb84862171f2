package client

import (
	"fmt"

	"github.com/tase2-protocol/tase2-go/pkg/log"
	"github.com/tase2-protocol/tase2-go/pkg/mms"
	"github.com/tase2-protocol/tase2-go/pkg/model"
	"github.com/tase2-protocol/tase2-go/pkg/sbo"
)

// tagCandidates are the tag-variable name patterns, tried in order.
var tagCandidates = []string{
	"%s_TAG",
	"%s$Tag",
	"%s_Tag",
	"%s$TagValue",
	"Tag_%s",
}

// tagReasonCandidates are the tag-reason name patterns, best effort.
var tagReasonCandidates = []string{
	"%s$TagReason",
	"%s_TagReason",
}

// Select establishes a select-before-operate record for a device. The
// record expires SBOTimeout after the select; expiry is detected
// lazily on the next Operate.
func (c *Client) Select(domain, device string) (sbo.Selection, error) {
	if err := c.ensureConnected(); err != nil {
		return sbo.Selection{}, err
	}
	sel, err := c.controls.Select(domain, device)
	if err != nil {
		c.noteError(err)
		return sbo.Selection{}, err
	}
	c.noteSuccess()
	c.countControl()
	return sel, nil
}

// Operate operates a previously selected device. An expired select is
// reported as an OperateError and clears the record.
func (c *Client) Operate(domain, device string, value mms.Value) error {
	if err := c.ensureConnected(); err != nil {
		return err
	}
	if err := c.controls.Operate(domain, device, value); err != nil {
		c.noteError(err)
		return err
	}
	c.noteSuccess()
	c.countControl()
	return nil
}

// CancelSelect drops the select record for a device. Reports whether
// a record existed.
func (c *Client) CancelSelect(domain, device string) bool {
	return c.controls.Cancel(domain, device)
}

// SelectState returns the SBO state for a device.
func (c *Client) SelectState(domain, device string) sbo.State {
	return c.controls.State(domain, device)
}

// SendCommand operates a device with a discrete command value
// (0 = OFF, 1 = ON, or a device-specific code).
func (c *Client) SendCommand(domain, device string, command int64) error {
	return c.Operate(domain, device, mms.NewInt64(command))
}

// SendSetpointReal operates a device with a real setpoint.
func (c *Client) SendSetpointReal(domain, device string, value float64) error {
	return c.Operate(domain, device, mms.NewFloat64(value))
}

// SendSetpointDiscrete operates a device with a discrete setpoint.
func (c *Client) SendSetpointDiscrete(domain, device string, value int64) error {
	return c.Operate(domain, device, mms.NewInt64(value))
}

// SetTag applies a Block 5 tag to a device. The tag variable name is
// resolved by candidate fold; the reason text is written best effort
// and never fails the operation.
func (c *Client) SetTag(domain, device string, tag model.TagValue, reason string) error {
	if err := c.ensureConnected(); err != nil {
		return err
	}

	var lastErr error
	for _, pattern := range tagCandidates {
		variable := fmt.Sprintf(pattern, device)
		if err := c.conn.WriteVariable(domain, variable, mms.NewInt64(int64(tag))); err != nil {
			lastErr = err
			continue
		}

		c.noteSuccess()
		c.countControl()
		if reason != "" {
			c.writeTagReason(domain, device, reason)
		}
		c.event(log.Event{
			Direction: log.DirectionOut,
			Category:  log.CategoryControl,
			Op:        log.OpTag,
			Domain:    domain,
			Variable:  device,
			Control:   &log.ControlEvent{Value: tag.String(), Candidate: variable},
		})
		return nil
	}

	err := &TagError{Domain: domain, Device: device, Cause: lastErr}
	c.noteError(err)
	c.event(log.Event{
		Category: log.CategoryError,
		Op:       log.OpTag,
		Domain:   domain,
		Variable: device,
		Error:    &log.ErrorEventData{Message: err.Error(), Context: "set tag"},
	})
	return err
}

// writeTagReason writes the operator reason next to the tag.
func (c *Client) writeTagReason(domain, device, reason string) {
	for _, pattern := range tagReasonCandidates {
		variable := fmt.Sprintf(pattern, device)
		if err := c.conn.WriteVariable(domain, variable, mms.NewVisibleString(reason)); err == nil {
			return
		}
	}
}

// Tag reads the current tag of a device using the same candidate
// names as SetTag. The reason is read best effort.
func (c *Client) Tag(domain, device string) (model.TagState, error) {
	if err := c.ensureConnected(); err != nil {
		return model.TagState{}, err
	}

	var lastErr error
	for _, pattern := range tagCandidates {
		variable := fmt.Sprintf(pattern, device)
		raw, err := c.conn.ReadVariable(domain, variable)
		if err != nil {
			lastErr = err
			continue
		}
		value, err := raw.Int64()
		if err != nil {
			lastErr = err
			continue
		}

		c.noteSuccess()
		state := model.TagState{
			Domain: domain,
			Device: device,
			Tag:    model.TagValue(value),
		}
		for _, rp := range tagReasonCandidates {
			if rv, err := c.conn.ReadVariable(domain, fmt.Sprintf(rp, device)); err == nil {
				if reason, err := rv.Str(); err == nil {
					state.Reason = reason
					break
				}
			}
		}
		return state, nil
	}

	err := &TagError{Domain: domain, Device: device, Cause: lastErr}
	c.noteError(err)
	return model.TagState{}, err
}

// TestControlAccess probes whether a device is controllable by
// selecting it and immediately cancelling. No operate is issued.
func (c *Client) TestControlAccess(domain, device string) bool {
	if _, err := c.Select(domain, device); err != nil {
		return false
	}
	c.CancelSelect(domain, device)
	return true
}
