package client

import (
	"time"

	"github.com/tase2-protocol/tase2-go/pkg/log"
	"github.com/tase2-protocol/tase2-go/pkg/mms"
	"github.com/tase2-protocol/tase2-go/pkg/model"
	"github.com/tase2-protocol/tase2-go/pkg/report"
)

// ackVariable receives the transfer report acknowledgement write.
const ackVariable = "Transfer_Report_ACK"

// TransferSets discovers the Block 2 DS transfer sets of one domain by
// naming convention. Best effort; per-item failures degrade.
func (c *Client) TransferSets(domain string) ([]model.TransferSet, error) {
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}
	return c.resolver.Discover(domain)
}

// TransferSetsChained discovers transfer sets by walking the server's
// Next_DSTransfer_Set chain, falling back to name-based discovery when
// the chain is absent.
func (c *Client) TransferSetsChained(domain string) ([]model.TransferSet, error) {
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}
	return c.resolver.DiscoverChained(domain)
}

// TransferSetDetails resolves the configuration of one transfer set
// from its parameter-name variants. Unreadable fields stay zero.
func (c *Client) TransferSetDetails(domain, name string) (model.TransferSet, error) {
	if err := c.ensureConnected(); err != nil {
		return model.TransferSet{}, err
	}
	return c.resolver.Details(domain, name)
}

// EnableTransferSet enables reporting for a transfer set. Reports
// success; enable is a heuristic write fold and never errors.
func (c *Client) EnableTransferSet(domain, name string) bool {
	if c.ensureConnected() != nil {
		return false
	}
	return c.resolver.Enable(domain, name)
}

// DisableTransferSet disables reporting for a transfer set.
func (c *Client) DisableTransferSet(domain, name string) bool {
	if c.ensureConnected() != nil {
		return false
	}
	return c.resolver.Disable(domain, name)
}

// SendTransferReportAck acknowledges a received transfer report by
// writing the standard acknowledgement variable in the domain.
func (c *Client) SendTransferReportAck(domain string) error {
	if err := c.ensureConnected(); err != nil {
		return err
	}
	if err := c.conn.WriteVariable(domain, ackVariable, mms.NewInt64(1)); err != nil {
		c.noteError(err)
		return &WriteError{Domain: domain, Name: ackVariable, Cause: err}
	}
	c.noteSuccess()
	c.event(log.Event{
		Direction: log.DirectionOut,
		Category:  log.CategoryReport,
		Op:        log.OpAck,
		Domain:    domain,
	})
	return nil
}

// TestRBECapability reports whether a domain exposes any transfer
// sets, the prerequisite for report-by-exception delivery.
func (c *Client) TestRBECapability(domain string) bool {
	sets, err := c.TransferSets(domain)
	return err == nil && len(sets) > 0
}

// StartReports starts the report queue. Reports pushed by the
// transport are buffered until drained with NextReport or handed to
// the callback registered with OnReport.
func (c *Client) StartReports() {
	c.reports.Start()
}

// StopReports stops the report queue; buffered reports are dropped.
func (c *Client) StopReports() {
	c.reports.Stop()
}

// OnReport registers a callback invoked for every queued report.
func (c *Client) OnReport(fn func(report.Report)) {
	c.reports.SetCallback(fn)
}

// NextReport dequeues one report, blocking up to timeout. A zero
// timeout polls.
func (c *Client) NextReport(timeout time.Duration) (report.Report, bool) {
	return c.reports.Next(timeout)
}

// PendingReports returns the number of buffered reports.
func (c *Client) PendingReports() int {
	return c.reports.Len()
}

// ReportsDropped returns the number of reports discarded to overflow.
func (c *Client) ReportsDropped() uint64 {
	return c.reports.Dropped()
}

// HandleReport decodes an incoming transfer report and queues it. The
// transport's report callback feeds this; names carries the member
// names when the report includes them and may be nil. Reports whether
// the report was queued.
func (c *Client) HandleReport(domain, transferSet string, names []string, raws []mms.Value) bool {
	values := make([]model.PointValue, 0, len(raws))
	for i, raw := range raws {
		name := transferSet
		if i < len(names) {
			name = names[i]
		}
		values = append(values, c.decoder.DecodePoint(raw, domain, name))
	}

	queued := c.reports.Push(report.Report{
		Domain:      domain,
		TransferSet: transferSet,
		Values:      values,
		Received:    time.Now(),
	})
	if queued {
		c.mu.Lock()
		c.stats.ReportsReceived++
		c.mu.Unlock()
	}
	return queued
}
