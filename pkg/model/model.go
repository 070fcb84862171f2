// Package model defines the data records a TASE.2 client works with:
// domains, variables, point values, data sets, transfer sets and the
// per-server metadata read from the VCC scope.
package model

import (
	"strings"
	"time"

	"github.com/tase2-protocol/tase2-go/pkg/mms"
	"github.com/tase2-protocol/tase2-go/pkg/quality"
)

// Domain is a TASE.2 domain: either the server-wide VCC scope or a
// bilateral ICC domain.
type Domain struct {
	// Name is the MMS domain name as reported by the server.
	Name string

	// Variables are the named variable identifiers within the domain.
	Variables []string

	// DataSets are the named variable list identifiers within the domain.
	DataSets []string
}

// IsVCC reports whether the domain is the VCC scope. A domain is VCC
// exactly when its upper-cased name starts with "VCC".
func (d Domain) IsVCC() bool {
	return strings.HasPrefix(strings.ToUpper(d.Name), "VCC")
}

// Type returns "VCC" or "ICC".
func (d Domain) Type() string {
	if d.IsVCC() {
		return "VCC"
	}
	return "ICC"
}

// Variable identifies a variable inside a domain.
type Variable struct {
	Name   string
	Domain string
}

// FullName returns the "domain/name" form used in logs and SBO keys.
func (v Variable) FullName() string {
	return v.Domain + "/" + v.Name
}

// PointValue is a decoded indication point: the primitive value plus
// the quality, timestamp and change counter the server attached to it.
type PointValue struct {
	// Value is the primitive payload: bool, int64, uint64, float64 or
	// string. It is nil when the read failed or decoded to nothing.
	Value any

	// Quality is the decoded Data Flags octet. A bare primitive with no
	// quality element decodes with VALID validity.
	Quality quality.Flags

	// Timestamp is the server-attached change time, when present.
	Timestamp *time.Time

	// COVCounter is the change-of-value counter, when present.
	COVCounter *int32

	// Name and Domain locate the point, when known.
	Name   string
	Domain string

	// Raw retains the transport value when the primitive payload could
	// not be extracted, so callers can inspect unusual shapes.
	Raw *mms.Value
}

// IsValid reports whether the value carries VALID validity.
func (p PointValue) IsValid() bool {
	return p.Quality.IsValid()
}

// Float returns the value coerced to float64, with ok=false when the
// payload is absent or non-numeric.
func (p PointValue) Float() (float64, bool) {
	switch v := p.Value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// DataSet is a named variable list.
type DataSet struct {
	Name      string
	Domain    string
	Members   []string
	Deletable bool
}

// TransferSet describes a Block 2 DS transfer set and its resolved
// configuration. Zero-valued fields were not readable on the server.
type TransferSet struct {
	Name   string
	Domain string

	// DataSet is the data set the transfer set reports on.
	DataSet string

	// Interval is the cyclic reporting interval in seconds.
	Interval int64

	// IntegrityTime is the integrity check period in seconds.
	IntegrityTime int64

	// BufferTime is the event buffering time in seconds.
	BufferTime int64

	// StartTime is the configured transfer start time (epoch seconds).
	StartTime int64

	// RBEEnabled reports whether report-by-exception is on.
	RBEEnabled bool

	// Enabled reflects the transfer set status variable, when readable.
	Enabled bool

	// Conditions is the decoded DSConditions bitmask.
	Conditions Conditions
}

// Conditions is the Block 2 DSConditions bitmask: which events trigger
// a transfer report.
type Conditions uint8

const (
	// ConditionInterval triggers reports on the cyclic interval timeout.
	ConditionInterval Conditions = 1
	// ConditionIntegrity triggers reports on the integrity timeout.
	ConditionIntegrity Conditions = 2
	// ConditionChange triggers reports on object change.
	ConditionChange Conditions = 4
	// ConditionOperatorRequest triggers reports on operator request.
	ConditionOperatorRequest Conditions = 8
	// ConditionExternalEvent triggers reports on an external event.
	ConditionExternalEvent Conditions = 16

	conditionsMask = 0x1F
)

// ConditionsFromRaw decodes a raw DSConditions value.
func ConditionsFromRaw(raw uint8) Conditions {
	return Conditions(raw & conditionsMask)
}

// Raw returns the wire form of the conditions bitmask.
func (c Conditions) Raw() uint8 {
	return uint8(c & conditionsMask)
}

// Has reports whether all bits of cond are set.
func (c Conditions) Has(cond Conditions) bool {
	return c&cond == cond
}

// String lists the set condition names, "+"-joined, or "NONE".
func (c Conditions) String() string {
	var parts []string
	if c.Has(ConditionInterval) {
		parts = append(parts, "INTERVAL")
	}
	if c.Has(ConditionIntegrity) {
		parts = append(parts, "INTEGRITY")
	}
	if c.Has(ConditionChange) {
		parts = append(parts, "CHANGE")
	}
	if c.Has(ConditionOperatorRequest) {
		parts = append(parts, "OPERATOR")
	}
	if c.Has(ConditionExternalEvent) {
		parts = append(parts, "EXTERNAL")
	}
	if len(parts) == 0 {
		return "NONE"
	}
	return strings.Join(parts, "+")
}

// ServerInfo is the identity and bilateral-table metadata of a server.
type ServerInfo struct {
	Vendor   string
	Model    string
	Revision string

	// BilateralTableID is the agreement identifier, when published.
	BilateralTableID string

	// BilateralTableCount is the number of bilateral tables the server
	// holds, -1 when unreadable.
	BilateralTableCount int
}

// BilateralTable describes one access agreement between the client's
// control center and the server.
type BilateralTable struct {
	// TableID is the agreement identifier, e.g. "BLT-DEMO-1".
	TableID string

	// Version is the local revision of the agreement.
	Version int

	// TASE2Version is the protocol edition the agreement was made
	// under, e.g. "2000-08".
	TASE2Version string

	// APTitle is the application process title of the peer, when known.
	APTitle string

	// SupportedBlocks are the conformance blocks the agreement covers.
	SupportedBlocks []ConformanceBlock
}

// SupportsBlock reports whether the agreement covers a conformance block.
func (b BilateralTable) SupportsBlock(block ConformanceBlock) bool {
	for _, sb := range b.SupportedBlocks {
		if sb == block {
			return true
		}
	}
	return false
}

// SupportedBlockNames returns the short names of the covered blocks.
func (b BilateralTable) SupportedBlockNames() []string {
	out := make([]string, len(b.SupportedBlocks))
	for i, sb := range b.SupportedBlocks {
		out[i] = sb.String()
	}
	return out
}

// TagValue is a Block 5 device tag.
type TagValue uint8

const (
	// TagNone means no tag is applied.
	TagNone TagValue = 0
	// TagOpenAndCloseInhibit blocks both open and close operations.
	TagOpenAndCloseInhibit TagValue = 1
	// TagCloseOnlyInhibit blocks close operations.
	TagCloseOnlyInhibit TagValue = 2
	// TagInvalid marks the tag state itself as invalid.
	TagInvalid TagValue = 3
)

// String returns the tag name.
func (t TagValue) String() string {
	switch t {
	case TagNone:
		return "NO_TAG"
	case TagOpenAndCloseInhibit:
		return "OPEN_AND_CLOSE_INHIBIT"
	case TagCloseOnlyInhibit:
		return "CLOSE_ONLY_INHIBIT"
	case TagInvalid:
		return "INVALID"
	default:
		return "UNKNOWN"
	}
}

// TagState is the tag applied to a control point, with the optional
// operator reason text.
type TagState struct {
	Device string
	Domain string
	Tag    TagValue
	Reason string
}

// InfoMessage is a Block 4 information message.
type InfoMessage struct {
	InfoRef  int32
	LocalRef int32
	MsgID    int32
	Content  []byte
	Received time.Time
}

// Statistics is a snapshot of client operation counters.
type Statistics struct {
	Reads           uint64
	Writes          uint64
	ControlOps      uint64
	ReportsReceived uint64
	Errors          uint64

	ConnectedAt    time.Time
	DisconnectedAt time.Time
}

// Uptime returns the duration of the current or last association,
// zero when the client never connected.
func (s Statistics) Uptime() time.Duration {
	if s.ConnectedAt.IsZero() {
		return 0
	}
	if s.DisconnectedAt.After(s.ConnectedAt) {
		return s.DisconnectedAt.Sub(s.ConnectedAt)
	}
	return time.Since(s.ConnectedAt)
}
