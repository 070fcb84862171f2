// Package catalog discovers and caches the TASE.2 object model of a
// server: its domains (VCC and ICC scopes), their variables and their
// named variable lists.
package catalog

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tase2-protocol/tase2-go/pkg/log"
	"github.com/tase2-protocol/tase2-go/pkg/model"
)

// ErrDomainNotFound is returned when a requested domain does not exist
// on the server.
var ErrDomainNotFound = errors.New("catalog: domain not found")

// Browser is the subset of the transport connection the catalog needs
// to enumerate the server's object model.
type Browser interface {
	// GetDomainNames returns the names of all domains on the server.
	GetDomainNames() ([]string, error)

	// GetDomainVariables returns the variable names within a domain.
	GetDomainVariables(domain string) ([]string, error)

	// GetDataSetNames returns the named variable list names within a domain.
	GetDataSetNames(domain string) ([]string, error)
}

// Catalog caches the discovered object model. It is safe for
// concurrent use; discovery runs at most once until invalidated.
type Catalog struct {
	browser Browser
	logger  log.Logger

	mu      sync.RWMutex
	domains []model.Domain
	byName  map[string]int
}

// New creates a catalog over the given browser.
func New(browser Browser, logger log.Logger) *Catalog {
	return &Catalog{
		browser: browser,
		logger:  log.OrNoop(logger),
	}
}

// Domains returns all domains, discovering them on first use.
// With refresh true the cache is discarded and discovery reruns.
func (c *Catalog) Domains(refresh bool) ([]model.Domain, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if refresh || len(c.domains) == 0 {
		if err := c.discoverLocked(); err != nil {
			return nil, err
		}
	}
	return c.snapshotLocked(), nil
}

// Domain returns a single domain by name, discovering the model first
// when the cache is empty.
func (c *Catalog) Domain(name string) (model.Domain, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.domains) == 0 {
		if err := c.discoverLocked(); err != nil {
			return model.Domain{}, err
		}
	}
	if i, ok := c.byName[name]; ok {
		return c.domains[i], nil
	}
	return model.Domain{}, fmt.Errorf("%w: %s", ErrDomainNotFound, name)
}

// VCCVariables returns the variables of the first VCC-scoped domain,
// or nil when the server exposes none.
func (c *Catalog) VCCVariables() ([]string, error) {
	domains, err := c.Domains(false)
	if err != nil {
		return nil, err
	}
	for _, d := range domains {
		if d.IsVCC() {
			return d.Variables, nil
		}
	}
	return nil, nil
}

// Invalidate drops the cached model so the next access rediscovers it.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.domains = nil
	c.byName = nil
}

// discoverLocked enumerates the server model. Failure to list one
// domain's variables or data sets degrades that domain to empty slices
// rather than failing the whole discovery; only the top-level domain
// enumeration is fatal.
func (c *Catalog) discoverLocked() error {
	names, err := c.browser.GetDomainNames()
	if err != nil {
		c.logger.Log(log.Event{
			Category: log.CategoryError,
			Op:       log.OpBrowse,
			Error:    &log.ErrorEventData{Message: err.Error(), Context: "get domain names"},
		})
		return fmt.Errorf("catalog: domain enumeration failed: %w", err)
	}

	domains := make([]model.Domain, 0, len(names))
	byName := make(map[string]int, len(names))

	for _, name := range names {
		d := model.Domain{Name: name}

		vars, err := c.browser.GetDomainVariables(name)
		if err != nil {
			c.logger.Log(log.Event{
				Category: log.CategoryError,
				Op:       log.OpBrowse,
				Domain:   name,
				Error:    &log.ErrorEventData{Message: err.Error(), Context: "get domain variables"},
			})
		} else {
			d.Variables = vars
		}

		sets, err := c.browser.GetDataSetNames(name)
		if err != nil {
			c.logger.Log(log.Event{
				Category: log.CategoryError,
				Op:       log.OpBrowse,
				Domain:   name,
				Error:    &log.ErrorEventData{Message: err.Error(), Context: "get data set names"},
			})
		} else {
			d.DataSets = sets
		}

		byName[name] = len(domains)
		domains = append(domains, d)

		c.logger.Log(log.Event{
			Category: log.CategoryDiscovery,
			Op:       log.OpBrowse,
			Domain:   name,
			Data:     &log.DataEvent{Count: len(d.Variables)},
		})
	}

	c.domains = domains
	c.byName = byName
	return nil
}

// snapshotLocked copies the cached slice so callers cannot mutate the cache.
func (c *Catalog) snapshotLocked() []model.Domain {
	out := make([]model.Domain, len(c.domains))
	copy(out, c.domains)
	return out
}
