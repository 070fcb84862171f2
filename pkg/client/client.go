// Package client implements the TASE.2 (IEC 60870-6, ICCP) client
// facade.
//
// The client composes the domain catalog, value codec, SBO controller,
// transfer set resolver and report queue over an injected Connection
// transport. It owns all cached state for the lifetime of an
// association and clears it on connect and disconnect.
//
// All public operations are direct blocking calls into the transport.
// The client is safe for concurrent use; transfer reports and
// information messages arriving from the transport are queued and
// never block the operation that is in flight.
package client

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tase2-protocol/tase2-go/pkg/catalog"
	"github.com/tase2-protocol/tase2-go/pkg/codec"
	"github.com/tase2-protocol/tase2-go/pkg/connection"
	"github.com/tase2-protocol/tase2-go/pkg/log"
	"github.com/tase2-protocol/tase2-go/pkg/model"
	"github.com/tase2-protocol/tase2-go/pkg/report"
	"github.com/tase2-protocol/tase2-go/pkg/sbo"
	"github.com/tase2-protocol/tase2-go/pkg/transferset"
)

// defaultMaxConsecutiveErrors triggers the connection-lost callback.
const defaultMaxConsecutiveErrors = 10

// Config holds client settings.
type Config struct {
	// Timeout bounds association establishment. Default DefaultTimeout.
	Timeout time.Duration

	// Edition selects the timestamp interpretation for decoded points.
	// Default EditionAuto.
	Edition codec.Edition

	// ReportCapacity sizes the transfer report queue.
	// Default report.DefaultCapacity.
	ReportCapacity int

	// MaxConsecutiveErrors is the number of consecutive failed
	// operations after which the connection-lost callback fires.
	// Default 10.
	MaxConsecutiveErrors int

	// Logger for protocol events. Default NoopLogger.
	Logger log.Logger

	// Clock for SBO expiry checks. Default wall clock.
	Clock sbo.Clock
}

// Client is a TASE.2 client over a Connection transport.
type Client struct {
	conn    Connection
	timeout time.Duration
	logger  log.Logger

	decoder  *codec.Decoder
	catalog  *catalog.Catalog
	controls *sbo.Controller
	resolver *transferset.Resolver
	reports  *report.Queue

	maxConsecutive int

	mu          sync.Mutex
	connID      string
	remoteAddr  string
	serverInfo  *model.ServerInfo
	failover    *connection.Manager
	consecutive int
	onLost      func(error)
	stats       model.Statistics

	infoMu     sync.Mutex
	infoMsgs   []model.InfoMessage
	infoNotify chan struct{}
}

// New creates a client with default settings.
func New(conn Connection) *Client {
	return NewWithConfig(conn, Config{})
}

// NewWithConfig creates a client.
func NewWithConfig(conn Connection, cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxConsecutiveErrors <= 0 {
		cfg.MaxConsecutiveErrors = defaultMaxConsecutiveErrors
	}
	logger := log.OrNoop(cfg.Logger)

	c := &Client{
		conn:           conn,
		timeout:        cfg.Timeout,
		logger:         logger,
		decoder:        codec.NewDecoder(codec.Config{Edition: cfg.Edition}),
		catalog:        catalog.New(conn, logger),
		resolver:       transferset.New(conn, logger),
		reports:        report.NewQueue(cfg.ReportCapacity, logger),
		maxConsecutive: cfg.MaxConsecutiveErrors,
		infoNotify:     make(chan struct{}, 1),
	}
	c.controls = sbo.NewWithConfig(conn, sbo.Config{Clock: cfg.Clock, Logger: logger})
	return c
}

// Connect opens an association to one server on the default port when
// port is zero. All cached state from a previous association is
// discarded.
func (c *Client) Connect(host string, port int) error {
	if port == 0 {
		port = DefaultPort
	}
	if err := c.conn.Connect(host, port, c.timeout); err != nil {
		cerr := &ConnectError{Host: host, Port: port, Cause: err}
		c.logger.Log(log.Event{
			Timestamp:  time.Now(),
			Category:   log.CategoryError,
			Op:         log.OpConnect,
			RemoteAddr: fmt.Sprintf("%s:%d", host, port),
			Error:      &log.ErrorEventData{Message: err.Error(), Context: "connect"},
		})
		return cerr
	}
	c.established(host, port)
	return nil
}

// ConnectFailover opens an association using a prioritized server
// list, resuming from the last good server across calls. Passing nil
// reuses the list from the previous call.
func (c *Client) ConnectFailover(servers []connection.ServerAddress) (connection.ServerAddress, error) {
	c.mu.Lock()
	if servers != nil || c.failover == nil {
		c.failover = connection.NewManager(servers,
			func(host string, port int) error {
				return c.conn.Connect(host, port, c.timeout)
			},
			connection.ManagerConfig{
				Backoff: connection.NewBackoff(),
				Logger:  c.logger,
			})
	}
	mgr := c.failover
	c.mu.Unlock()

	server, err := mgr.Connect()
	if err != nil {
		return connection.ServerAddress{}, err
	}
	c.established(server.Host, server.Port)
	return server, nil
}

// established resets per-association state after a successful connect.
func (c *Client) established(host string, port int) {
	addr := fmt.Sprintf("%s:%d", host, port)

	c.mu.Lock()
	c.connID = uuid.NewString()
	c.remoteAddr = addr
	c.serverInfo = nil
	c.consecutive = 0
	c.stats.ConnectedAt = time.Now()
	c.stats.DisconnectedAt = time.Time{}
	c.mu.Unlock()

	c.catalog.Invalidate()
	c.controls.Reset()
	c.clearInfoMessages()

	c.event(log.Event{
		Category: log.CategoryState,
		Op:       log.OpConnect,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityAssociation,
			NewState: "CONNECTED",
		},
	})
}

// Disconnect closes the association and discards cached state.
// Idempotent.
func (c *Client) Disconnect() {
	wasConnected := c.conn.IsConnected()
	c.conn.Disconnect()
	c.reports.Stop()
	c.catalog.Invalidate()
	c.controls.Reset()

	c.mu.Lock()
	c.serverInfo = nil
	if wasConnected {
		c.stats.DisconnectedAt = time.Now()
	}
	c.mu.Unlock()

	if wasConnected {
		c.event(log.Event{
			Category: log.CategoryState,
			Op:       log.OpDisconnect,
			StateChange: &log.StateChangeEvent{
				Entity:   log.StateEntityAssociation,
				OldState: "CONNECTED",
				NewState: "DISCONNECTED",
			},
		})
	}
}

// IsConnected reports the association state.
func (c *Client) IsConnected() bool {
	return c.conn.IsConnected()
}

// ConnectionID returns the UUID of the current association, empty
// before the first connect.
func (c *Client) ConnectionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connID
}

// OnConnectionLost registers a callback fired once when the number of
// consecutive failed operations reaches the configured threshold. The
// callback receives the error that crossed the threshold and runs on
// the calling goroutine.
func (c *Client) OnConnectionLost(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onLost = fn
}

// Statistics returns a snapshot of the operation counters.
func (c *Client) Statistics() model.Statistics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Domains returns the cached domain list, discovering it on first use.
// Pass refresh to force a rediscovery.
func (c *Client) Domains(refresh bool) ([]model.Domain, error) {
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}
	domains, err := c.catalog.Domains(refresh)
	if err != nil {
		c.noteError(err)
		return nil, err
	}
	c.noteSuccess()
	return domains, nil
}

// Domain returns one cached domain by name.
func (c *Client) Domain(name string) (model.Domain, error) {
	if err := c.ensureConnected(); err != nil {
		return model.Domain{}, err
	}
	return c.catalog.Domain(name)
}

// VCCVariables returns the variables in VCC scope, if any.
func (c *Client) VCCVariables() ([]string, error) {
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}
	return c.catalog.VCCVariables()
}

// DomainVariables lists a domain's variables without going through the
// catalog cache.
func (c *Client) DomainVariables(domain string) ([]string, error) {
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}
	vars, err := c.conn.GetDomainVariables(domain)
	if err != nil {
		c.noteError(err)
		return nil, err
	}
	c.noteSuccess()
	return vars, nil
}

// ensureConnected gates operations that require an open association.
func (c *Client) ensureConnected() error {
	if !c.conn.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// noteError tracks a failed transport operation and fires the
// connection-lost callback when the consecutive threshold is reached.
func (c *Client) noteError(err error) {
	c.mu.Lock()
	c.stats.Errors++
	c.consecutive++
	var fire func(error)
	if c.consecutive == c.maxConsecutive {
		fire = c.onLost
	}
	c.mu.Unlock()

	if fire != nil {
		fire(err)
	}
}

// noteSuccess resets the consecutive error counter.
func (c *Client) noteSuccess() {
	c.mu.Lock()
	c.consecutive = 0
	c.mu.Unlock()
}

// countRead bumps the read counter.
func (c *Client) countRead() {
	c.mu.Lock()
	c.stats.Reads++
	c.mu.Unlock()
}

// countWrite bumps the write counter.
func (c *Client) countWrite() {
	c.mu.Lock()
	c.stats.Writes++
	c.mu.Unlock()
}

// countControl bumps the control counter.
func (c *Client) countControl() {
	c.mu.Lock()
	c.stats.ControlOps++
	c.mu.Unlock()
}

// event stamps and emits a protocol log event for this association.
func (c *Client) event(e log.Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	c.mu.Lock()
	e.ConnectionID = c.connID
	if e.RemoteAddr == "" {
		e.RemoteAddr = c.remoteAddr
	}
	c.mu.Unlock()
	c.logger.Log(e)
}
