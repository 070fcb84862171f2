package log

import (
	"time"
)

// Event represents a protocol log event captured by the client.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID uniquely identifies the association (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// Op is the service operation, when the event belongs to one.
	Op Op `cbor:"5,keyasint,omitempty"`

	// RemoteAddr is the server address (host:port).
	RemoteAddr string `cbor:"6,keyasint,omitempty"`

	// Domain is the TASE.2 domain the event concerns.
	Domain string `cbor:"7,keyasint,omitempty"`

	// Variable is the variable or data-set name the event concerns.
	Variable string `cbor:"8,keyasint,omitempty"`

	// Type-specific payload (at most one of these is set).
	Data        *DataEvent        `cbor:"9,keyasint,omitempty"`  // Point reads/writes
	Control     *ControlEvent     `cbor:"10,keyasint,omitempty"` // Select/operate/tag
	Report      *ReportEvent      `cbor:"11,keyasint,omitempty"` // Transfer reports
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"` // Association/SBO state
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"` // Errors
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates data received from the server.
	DirectionIn Direction = 0
	// DirectionOut indicates a request sent to the server.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryData indicates a point or data-set access.
	CategoryData Category = 0
	// CategoryControl indicates a Block 5 control operation.
	CategoryControl Category = 1
	// CategoryDiscovery indicates domain or variable enumeration.
	CategoryDiscovery Category = 2
	// CategoryReport indicates a Block 2 transfer report.
	CategoryReport Category = 3
	// CategoryState indicates a state change.
	CategoryState Category = 4
	// CategoryError indicates an error event.
	CategoryError Category = 5
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryData:
		return "DATA"
	case CategoryControl:
		return "CONTROL"
	case CategoryDiscovery:
		return "DISCOVERY"
	case CategoryReport:
		return "REPORT"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Op identifies the service operation an event belongs to.
type Op uint8

const (
	OpNone       Op = 0
	OpConnect    Op = 1
	OpDisconnect Op = 2
	OpBrowse     Op = 3
	OpRead       Op = 4
	OpWrite      Op = 5
	OpSelect     Op = 6
	OpOperate    Op = 7
	OpCancel     Op = 8
	OpEnable     Op = 9
	OpDisable    Op = 10
	OpTag        Op = 11
	OpAck        Op = 12
	OpInfoMsg    Op = 13
)

// String returns the operation name.
func (o Op) String() string {
	switch o {
	case OpConnect:
		return "CONNECT"
	case OpDisconnect:
		return "DISCONNECT"
	case OpBrowse:
		return "BROWSE"
	case OpRead:
		return "READ"
	case OpWrite:
		return "WRITE"
	case OpSelect:
		return "SELECT"
	case OpOperate:
		return "OPERATE"
	case OpCancel:
		return "CANCEL"
	case OpEnable:
		return "ENABLE"
	case OpDisable:
		return "DISABLE"
	case OpTag:
		return "TAG"
	case OpAck:
		return "ACK"
	case OpInfoMsg:
		return "INFO_MSG"
	default:
		return "NONE"
	}
}

// DataEvent captures a point or data-set access.
type DataEvent struct {
	// Value is the rendered point value ("" for failed reads).
	Value string `cbor:"1,keyasint,omitempty"`

	// Quality is the raw Data Flags octet, when the point carried one.
	Quality *uint8 `cbor:"2,keyasint,omitempty"`

	// Count is the number of points for batch accesses.
	Count int `cbor:"3,keyasint,omitempty"`
}

// ControlEvent captures a Block 5 control operation.
type ControlEvent struct {
	// Value is the rendered command or setpoint value.
	Value string `cbor:"1,keyasint,omitempty"`

	// Candidate is the variable name variant that succeeded.
	Candidate string `cbor:"2,keyasint,omitempty"`

	// Implicit is set when a select fell back to a read probe.
	Implicit bool `cbor:"3,keyasint,omitempty"`

	// Elapsed is the select age at operate time (nanoseconds).
	Elapsed *time.Duration `cbor:"4,keyasint,omitempty"`
}

// ReportEvent captures an incoming transfer report.
type ReportEvent struct {
	// TransferSet is the reporting transfer set name.
	TransferSet string `cbor:"1,keyasint"`

	// Points is the number of point values in the report.
	Points int `cbor:"2,keyasint"`

	// Sequence is the local report sequence number.
	Sequence uint64 `cbor:"3,keyasint,omitempty"`
}

// StateChangeEvent captures association and transfer-set lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityAssociation indicates an association state change.
	StateEntityAssociation StateEntity = 0
	// StateEntitySelect indicates a select-before-operate state change.
	StateEntitySelect StateEntity = 1
	// StateEntityTransferSet indicates a transfer-set state change.
	StateEntityTransferSet StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityAssociation:
		return "ASSOCIATION"
	case StateEntitySelect:
		return "SELECT"
	case StateEntityTransferSet:
		return "TRANSFER_SET"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors from any operation.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"2,keyasint,omitempty"`
}
