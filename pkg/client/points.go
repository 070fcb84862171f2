package client

import (
	"fmt"

	"github.com/tase2-protocol/tase2-go/pkg/log"
	"github.com/tase2-protocol/tase2-go/pkg/mms"
	"github.com/tase2-protocol/tase2-go/pkg/model"
	"github.com/tase2-protocol/tase2-go/pkg/quality"
)

// defaultEnumerateLimit caps per-domain reads in EnumerateDataPoints.
const defaultEnumerateLimit = 100

// ValidatePointName checks a point name against the TASE.2 naming
// rules: non-empty, at most 32 characters, not starting with a digit,
// and containing only letters, digits and underscores. The returned
// error is advisory; read and write paths log violations but never
// reject them, because deployed servers are not uniformly conformant.
func ValidatePointName(name string) error {
	if name == "" {
		return fmt.Errorf("client: point name is empty")
	}
	if len(name) > MaxPointNameLength {
		return fmt.Errorf("client: point name %q exceeds %d characters", name, MaxPointNameLength)
	}
	if name[0] >= '0' && name[0] <= '9' {
		return fmt.Errorf("client: point name %q starts with a digit", name)
	}
	for i := 0; i < len(name); i++ {
		ch := name[i]
		if ch >= 'A' && ch <= 'Z' || ch >= 'a' && ch <= 'z' ||
			ch >= '0' && ch <= '9' || ch == '_' {
			continue
		}
		return fmt.Errorf("client: point name %q contains invalid character %q", name, ch)
	}
	return nil
}

// checkName logs an advisory naming violation.
func (c *Client) checkName(domain, name string) {
	if err := ValidatePointName(name); err != nil {
		c.event(log.Event{
			Category: log.CategoryData,
			Domain:   domain,
			Variable: name,
			Error:    &log.ErrorEventData{Message: err.Error(), Context: "point name validation"},
		})
	}
}

// ReadPoint reads and decodes one data point.
func (c *Client) ReadPoint(domain, name string) (model.PointValue, error) {
	if err := c.ensureConnected(); err != nil {
		return model.PointValue{}, err
	}
	c.checkName(domain, name)

	raw, err := c.conn.ReadVariable(domain, name)
	if err != nil {
		c.noteError(err)
		c.event(log.Event{
			Category: log.CategoryError,
			Op:       log.OpRead,
			Domain:   domain,
			Variable: name,
			Error:    &log.ErrorEventData{Message: err.Error(), Context: "read point"},
		})
		return model.PointValue{}, &ReadError{Domain: domain, Name: name, Cause: err}
	}
	c.noteSuccess()
	c.countRead()

	pv := c.decoder.DecodePoint(raw, domain, name)
	q := pv.Quality.Raw()
	c.event(log.Event{
		Direction: log.DirectionIn,
		Category:  log.CategoryData,
		Op:        log.OpRead,
		Domain:    domain,
		Variable:  name,
		Data:      &log.DataEvent{Value: fmt.Sprint(pv.Value), Quality: &q},
	})
	return pv, nil
}

// ReadPoints reads a list of points, degrading per point: a failed
// read yields a NOT_VALID placeholder instead of aborting the batch.
func (c *Client) ReadPoints(domain string, names []string) ([]model.PointValue, error) {
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}

	out := make([]model.PointValue, 0, len(names))
	for _, name := range names {
		pv, err := c.ReadPoint(domain, name)
		if err != nil {
			pv = model.PointValue{
				Name:    name,
				Domain:  domain,
				Quality: quality.NotValid(),
			}
		}
		out = append(out, pv)
	}
	return out, nil
}

// WritePoint writes one variable.
func (c *Client) WritePoint(domain, name string, value mms.Value) error {
	if err := c.ensureConnected(); err != nil {
		return err
	}
	c.checkName(domain, name)

	if err := c.conn.WriteVariable(domain, name, value); err != nil {
		c.noteError(err)
		c.event(log.Event{
			Category: log.CategoryError,
			Op:       log.OpWrite,
			Domain:   domain,
			Variable: name,
			Error:    &log.ErrorEventData{Message: err.Error(), Context: "write point"},
		})
		return &WriteError{Domain: domain, Name: name, Cause: err}
	}
	c.noteSuccess()
	c.countWrite()

	c.event(log.Event{
		Direction: log.DirectionOut,
		Category:  log.CategoryData,
		Op:        log.OpWrite,
		Domain:    domain,
		Variable:  name,
		Data:      &log.DataEvent{Value: value.String()},
	})
	return nil
}

// DataSets lists the named variable lists of one domain.
func (c *Client) DataSets(domain string) ([]model.DataSet, error) {
	d, err := c.Domain(domain)
	if err != nil {
		return nil, err
	}

	out := make([]model.DataSet, 0, len(d.DataSets))
	for _, name := range d.DataSets {
		out = append(out, model.DataSet{Name: name, Domain: domain})
	}
	return out, nil
}

// DataSetValues reads and decodes every member of a named variable
// list. Member names are not carried by the read, so decoded points
// are named by index.
func (c *Client) DataSetValues(domain, name string) ([]model.PointValue, error) {
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}

	raws, err := c.conn.ReadDataSetValues(domain, name)
	if err != nil {
		c.noteError(err)
		return nil, &ReadError{Domain: domain, Name: name, Cause: err}
	}
	c.noteSuccess()
	c.countRead()

	if len(raws) > MaxDataSetSize {
		c.event(log.Event{
			Category: log.CategoryData,
			Domain:   domain,
			Variable: name,
			Error: &log.ErrorEventData{
				Message: fmt.Sprintf("data set has %d members, above the %d threshold", len(raws), MaxDataSetSize),
				Context: "data set size",
			},
		})
	}

	out := make([]model.PointValue, 0, len(raws))
	for i, raw := range raws {
		out = append(out, c.decoder.DecodePoint(raw, domain, fmt.Sprintf("%s[%d]", name, i)))
	}
	c.event(log.Event{
		Direction: log.DirectionIn,
		Category:  log.CategoryData,
		Op:        log.OpRead,
		Domain:    domain,
		Variable:  name,
		Data:      &log.DataEvent{Count: len(out)},
	})
	return out, nil
}

// EnumerateDataPoints reads up to maxPerDomain points from every
// domain. Unreadable points are included as NOT_VALID placeholders so
// the result reflects the full visible object model.
func (c *Client) EnumerateDataPoints(maxPerDomain int) ([]model.PointValue, error) {
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}
	if maxPerDomain <= 0 {
		maxPerDomain = defaultEnumerateLimit
	}

	domains, err := c.catalog.Domains(false)
	if err != nil {
		return nil, err
	}

	var out []model.PointValue
	for _, d := range domains {
		vars := d.Variables
		if len(vars) > maxPerDomain {
			vars = vars[:maxPerDomain]
		}
		for _, name := range vars {
			pv, err := c.ReadPoint(d.Name, name)
			if err != nil {
				pv = model.PointValue{
					Name:    name,
					Domain:  d.Name,
					Quality: quality.NotValid(),
				}
			}
			out = append(out, pv)
		}
	}
	return out, nil
}
