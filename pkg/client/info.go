package client

import (
	"fmt"
	"strings"
	"time"

	"github.com/tase2-protocol/tase2-go/pkg/log"
	"github.com/tase2-protocol/tase2-go/pkg/mms"
	"github.com/tase2-protocol/tase2-go/pkg/model"
)

// MaxInfoMessageSize is the protocol limit for outgoing information
// message content.
const MaxInfoMessageSize = 65535

// maxQueuedInfoMessages caps the incoming message buffer; the oldest
// message is dropped on overflow.
const maxQueuedInfoMessages = 256

// imEnableCandidates are the IM transfer set enable variable names,
// tried in order per domain.
var imEnableCandidates = []string{
	"IM_Transfer_Set_Status",
	"IMTransferSet_Status",
	"IM_Transfer_Set_Enable",
}

// Outgoing information message field variables.
const (
	infoRefVariable  = "InfoRef"
	localRefVariable = "LocalRef"
	msgIDVariable    = "MsgId"
	contentVariable  = "InfoContent"
)

// infoBufferMarkers identify information buffer variables by name.
var infoBufferMarkers = []string{"im_transfer", "information_buffer", "infobuffer"}

// InfoBuffer describes a Block 4 information buffer found on the
// server. Size and EntryCount are -1 when unreadable.
type InfoBuffer struct {
	Name       string
	Domain     string
	Size       int64
	EntryCount int64
}

// EnableIMTransferSet enables the association-scoped information
// message transfer set. An empty domain searches VCC scope first,
// then every ICC domain.
func (c *Client) EnableIMTransferSet(domain string) error {
	return c.setIMTransferSet(domain, true, log.OpEnable)
}

// DisableIMTransferSet disables the information message transfer set.
func (c *Client) DisableIMTransferSet(domain string) error {
	return c.setIMTransferSet(domain, false, log.OpDisable)
}

func (c *Client) setIMTransferSet(domain string, enabled bool, op log.Op) error {
	if err := c.ensureConnected(); err != nil {
		return err
	}

	for _, name := range c.imSearchDomains(domain) {
		for _, variable := range imEnableCandidates {
			if err := c.conn.WriteVariable(name, variable, mms.NewBool(enabled)); err != nil {
				continue
			}
			c.noteSuccess()
			c.event(log.Event{
				Direction: log.DirectionOut,
				Category:  log.CategoryReport,
				Op:        op,
				Domain:    name,
				Variable:  variable,
			})
			return nil
		}
	}
	return fmt.Errorf("client: IM transfer set: no enable variable accepted a write")
}

// IMTransferSetStatus reads the current IM transfer set enable state.
// An empty domain searches VCC scope first, then every ICC domain.
func (c *Client) IMTransferSetStatus(domain string) (bool, error) {
	if err := c.ensureConnected(); err != nil {
		return false, err
	}

	for _, name := range c.imSearchDomains(domain) {
		for _, variable := range imEnableCandidates {
			raw, err := c.conn.ReadVariable(name, variable)
			if err != nil {
				continue
			}
			if b, err := raw.Bool(); err == nil {
				return b, nil
			}
			if n, err := raw.Int64(); err == nil {
				return n != 0, nil
			}
		}
	}
	return false, fmt.Errorf("client: IM transfer set: no status variable readable")
}

// imSearchDomains orders the domains to probe for IM variables: the
// requested domain alone, or VCC scope first then every ICC domain.
func (c *Client) imSearchDomains(domain string) []string {
	if domain != "" {
		return []string{domain}
	}
	domains, err := c.catalog.Domains(false)
	if err != nil {
		return nil
	}

	var vcc, icc []string
	for _, d := range domains {
		if d.IsVCC() {
			vcc = append(vcc, d.Name)
		} else {
			icc = append(icc, d.Name)
		}
	}
	return append(vcc, icc...)
}

// InfoBuffers lists the information buffers visible in one domain.
// Buffer metadata is read best effort.
func (c *Client) InfoBuffers(domain string) ([]InfoBuffer, error) {
	d, err := c.Domain(domain)
	if err != nil {
		return nil, err
	}

	var out []InfoBuffer
	for _, name := range d.Variables {
		if !isInfoBufferName(name) {
			continue
		}
		buf := InfoBuffer{Name: name, Domain: domain, Size: -1, EntryCount: -1}
		if v, err := c.conn.ReadVariable(domain, "Information_Buffer_Size"); err == nil {
			if size, err := v.Int64(); err == nil {
				buf.Size = size
			}
		}
		if v, err := c.conn.ReadVariable(domain, "Buffer_Entry_Count"); err == nil {
			if count, err := v.Int64(); err == nil {
				buf.EntryCount = count
			}
		}
		out = append(out, buf)
	}
	return out, nil
}

// isInfoBufferName reports whether a variable name marks a Block 4
// information buffer.
func isInfoBufferName(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range infoBufferMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// SendInfoMessage writes an information message to the server. The
// reference fields and content are written individually; the send
// succeeds when at least one write is accepted, because servers vary
// in which message variables they expose.
func (c *Client) SendInfoMessage(domain string, infoRef, localRef, msgID int32, content []byte) error {
	if err := c.ensureConnected(); err != nil {
		return err
	}
	if len(content) > MaxInfoMessageSize {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrMessageTooLarge, len(content), MaxInfoMessageSize)
	}

	writes := 0
	refs := []struct {
		variable string
		value    int32
	}{
		{infoRefVariable, infoRef},
		{localRefVariable, localRef},
		{msgIDVariable, msgID},
	}
	for _, ref := range refs {
		if err := c.conn.WriteVariable(domain, ref.variable, mms.NewInt64(int64(ref.value))); err == nil {
			writes++
		}
	}
	var lastErr error
	if err := c.conn.WriteVariable(domain, contentVariable, mms.NewVisibleString(string(content))); err == nil {
		writes++
	} else {
		lastErr = err
	}

	if writes == 0 {
		err := &WriteError{Domain: domain, Name: contentVariable, Cause: lastErr}
		c.noteError(err)
		return err
	}

	c.noteSuccess()
	c.countWrite()
	c.event(log.Event{
		Direction: log.DirectionOut,
		Category:  log.CategoryReport,
		Op:        log.OpInfoMsg,
		Domain:    domain,
		Data:      &log.DataEvent{Count: len(content)},
	})
	return nil
}

// HandleInfoMessage queues an incoming information message delivered
// by the transport. The oldest message is dropped when the buffer is
// full.
func (c *Client) HandleInfoMessage(msg model.InfoMessage) {
	if msg.Received.IsZero() {
		msg.Received = time.Now()
	}

	c.infoMu.Lock()
	if len(c.infoMsgs) >= maxQueuedInfoMessages {
		c.infoMsgs = c.infoMsgs[1:]
	}
	c.infoMsgs = append(c.infoMsgs, msg)
	c.infoMu.Unlock()

	select {
	case c.infoNotify <- struct{}{}:
	default:
	}

	c.event(log.Event{
		Direction: log.DirectionIn,
		Category:  log.CategoryReport,
		Op:        log.OpInfoMsg,
		Data:      &log.DataEvent{Count: len(msg.Content)},
	})
}

// NextInfoMessage dequeues one information message, blocking up to
// timeout. A zero timeout polls.
func (c *Client) NextInfoMessage(timeout time.Duration) (model.InfoMessage, bool) {
	if msg, ok := c.popInfoMessage(); ok {
		return msg, true
	}
	if timeout <= 0 {
		return model.InfoMessage{}, false
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		select {
		case <-c.infoNotify:
			if msg, ok := c.popInfoMessage(); ok {
				return msg, true
			}
		case <-deadline.C:
			return model.InfoMessage{}, false
		}
	}
}

// PendingInfoMessages returns the number of buffered messages.
func (c *Client) PendingInfoMessages() int {
	c.infoMu.Lock()
	defer c.infoMu.Unlock()
	return len(c.infoMsgs)
}

func (c *Client) popInfoMessage() (model.InfoMessage, bool) {
	c.infoMu.Lock()
	defer c.infoMu.Unlock()
	if len(c.infoMsgs) == 0 {
		return model.InfoMessage{}, false
	}
	msg := c.infoMsgs[0]
	c.infoMsgs = c.infoMsgs[1:]
	return msg, true
}

func (c *Client) clearInfoMessages() {
	c.infoMu.Lock()
	c.infoMsgs = nil
	c.infoMu.Unlock()
}
