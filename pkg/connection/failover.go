// Package connection provides server-list failover and reconnection
// backoff for TASE.2 associations.
//
// Control centers are provisioned with an ordered list of servers
// (primaries first, then backups). The failover manager tries each
// server in rotation, remembers the last good index, and resumes from
// it on the next connection loss so a healthy backup is not abandoned
// for a flapping primary.
package connection

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tase2-protocol/tase2-go/pkg/log"
)

// ErrNoServers is returned when the failover list is empty.
var ErrNoServers = errors.New("connection: no servers configured")

// FailedError reports that a connect attempt to a specific server failed.
type FailedError struct {
	Host  string
	Port  int
	Cause error
}

// Error renders the server address and the cause.
func (e *FailedError) Error() string {
	return fmt.Sprintf("connection: connect %s:%d failed: %v", e.Host, e.Port, e.Cause)
}

// Unwrap exposes the underlying cause.
func (e *FailedError) Unwrap() error { return e.Cause }

// Priority orders servers within the failover list.
type Priority uint8

const (
	// PriorityPrimary servers are tried before any backup.
	PriorityPrimary Priority = 0
	// PriorityBackup servers are tried after all primaries.
	PriorityBackup Priority = 1
)

// String returns the priority name.
func (p Priority) String() string {
	switch p {
	case PriorityPrimary:
		return "primary"
	case PriorityBackup:
		return "backup"
	default:
		return "unknown"
	}
}

// ServerAddress is one entry of the failover list.
type ServerAddress struct {
	Host     string
	Port     int
	Priority Priority
}

// String renders host:port.
func (s ServerAddress) String() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// OrderServers sorts primaries before backups while preserving the
// insertion order within each priority class.
func OrderServers(servers []ServerAddress) []ServerAddress {
	out := make([]ServerAddress, len(servers))
	copy(out, servers)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}

// ConnectFunc attempts a single connection to one server.
type ConnectFunc func(host string, port int) error

// ManagerConfig holds failover settings.
type ManagerConfig struct {
	// RetryCount is the number of retries per server beyond the first
	// attempt. Zero means the default of 1; negative disables retries.
	RetryCount int

	// RetryDelay is the pause between attempts on the same server.
	// Default 1s. Ignored when Backoff is set.
	RetryDelay time.Duration

	// Backoff, when set, schedules growing inter-attempt delays
	// instead of the fixed RetryDelay. It is reset after a successful
	// connect so the next outage starts from the initial delay again.
	Backoff *Backoff

	// Logger for connection events. Default NoopLogger.
	Logger log.Logger

	// Sleep is the pause function, replaceable in tests.
	Sleep func(time.Duration)
}

// Manager rotates through a server list until a connection succeeds.
// It is not safe for concurrent Connect calls; the client serializes.
type Manager struct {
	servers    []ServerAddress
	connect    ConnectFunc
	retryCount int
	retryDelay time.Duration
	backoff    *Backoff
	logger     log.Logger
	sleep      func(time.Duration)

	// lastIndex is the index of the last good server; rotation resumes
	// from it.
	lastIndex int
}

// NewManager creates a failover manager over an ordered server list.
// Primaries are moved ahead of backups; insertion order is otherwise
// preserved.
func NewManager(servers []ServerAddress, connect ConnectFunc, cfg ManagerConfig) *Manager {
	switch {
	case cfg.RetryCount < 0:
		cfg.RetryCount = 0
	case cfg.RetryCount == 0:
		cfg.RetryCount = 1
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	return &Manager{
		servers:    OrderServers(servers),
		connect:    connect,
		retryCount: cfg.RetryCount,
		retryDelay: cfg.RetryDelay,
		backoff:    cfg.Backoff,
		logger:     log.OrNoop(cfg.Logger),
		sleep:      cfg.Sleep,
	}
}

// nextDelay returns the pause before the next attempt.
func (m *Manager) nextDelay() time.Duration {
	if m.backoff != nil {
		return m.backoff.Next()
	}
	return m.retryDelay
}

// Servers returns the ordered server list.
func (m *Manager) Servers() []ServerAddress {
	out := make([]ServerAddress, len(m.servers))
	copy(out, m.servers)
	return out
}

// Current returns the last good server, if any connect ever succeeded.
func (m *Manager) Current() (ServerAddress, bool) {
	if len(m.servers) == 0 {
		return ServerAddress{}, false
	}
	return m.servers[m.lastIndex], true
}

// Connect tries every server starting at the last good index, each up
// to 1+RetryCount times, pausing between attempts per the configured
// backoff or the fixed RetryDelay. The first success records the
// server index and returns its address. When all servers are exhausted
// the last failure is returned.
func (m *Manager) Connect() (ServerAddress, error) {
	if len(m.servers) == 0 {
		return ServerAddress{}, ErrNoServers
	}

	var lastErr error
	n := len(m.servers)

	for offset := 0; offset < n; offset++ {
		idx := (m.lastIndex + offset) % n
		server := m.servers[idx]

		for attempt := 0; attempt <= m.retryCount; attempt++ {
			err := m.connect(server.Host, server.Port)
			if err == nil {
				m.lastIndex = idx
				if m.backoff != nil {
					m.backoff.Reset()
				}
				m.logger.Log(log.Event{
					Timestamp:  time.Now(),
					Category:   log.CategoryState,
					Op:         log.OpConnect,
					RemoteAddr: server.String(),
					StateChange: &log.StateChangeEvent{
						Entity:   log.StateEntityAssociation,
						NewState: "CONNECTED",
						Reason:   server.Priority.String(),
					},
				})
				return server, nil
			}

			lastErr = &FailedError{Host: server.Host, Port: server.Port, Cause: err}
			m.logger.Log(log.Event{
				Timestamp:  time.Now(),
				Category:   log.CategoryError,
				Op:         log.OpConnect,
				RemoteAddr: server.String(),
				Error:      &log.ErrorEventData{Message: err.Error(), Context: "connect"},
			})

			// No pause after the final attempt on a server.
			if attempt < m.retryCount {
				m.sleep(m.nextDelay())
			}
		}
	}

	return ServerAddress{}, lastErr
}
