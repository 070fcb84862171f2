package client

import (
	"time"

	"github.com/tase2-protocol/tase2-go/pkg/mms"
	"github.com/tase2-protocol/tase2-go/pkg/sbo"
)

// Protocol constants exposed at the client boundary.
const (
	// DefaultPort is the MMS/ISO transport port.
	DefaultPort = 102

	// DefaultTLSPort is the IEC 62351-4 secure transport port.
	DefaultTLSPort = 3782

	// DefaultTimeout is the connect timeout when none is configured.
	DefaultTimeout = 10 * time.Second

	// SBOTimeout is the select-before-operate protocol limit.
	SBOTimeout = sbo.Timeout

	// MaxDataSetSize is the soft member-count warning threshold for
	// data sets. Not enforced.
	MaxDataSetSize = 500

	// MaxPointNameLength is the advisory point-name length limit.
	MaxPointNameLength = 32
)

// Connection is the transport contract the client drives. It owns the
// wire format (MMS encoding, ISO association); the client owns every
// behavior above it. Implementations must tolerate calls for variables
// that do not exist and fail with an error rather than panic.
type Connection interface {
	// Connect opens the association. Fails within timeout.
	Connect(host string, port int, timeout time.Duration) error

	// Disconnect closes the association. Idempotent.
	Disconnect()

	// IsConnected reports the association state.
	IsConnected() bool

	// GetDomainNames enumerates the server's domains.
	GetDomainNames() ([]string, error)

	// GetDomainVariables enumerates one domain's named variables.
	GetDomainVariables(domain string) ([]string, error)

	// GetDataSetNames enumerates one domain's named variable lists.
	// May return an empty list when the server does not support them.
	GetDataSetNames(domain string) ([]string, error)

	// ReadVariable reads one variable. Fails when it does not exist.
	ReadVariable(domain, name string) (mms.Value, error)

	// WriteVariable writes one variable.
	WriteVariable(domain, name string, value mms.Value) error

	// ReadDataSetValues reads every member of a named variable list.
	ReadDataSetValues(domain, name string) ([]mms.Value, error)

	// GetServerIdentity returns the MMS identify response. Fields may
	// be empty when the server does not publish them.
	GetServerIdentity() (vendor, model, revision string, err error)
}
