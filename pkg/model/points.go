package model

import (
	"strings"
	"time"
)

// PointType identifies the TASE.2 indication point type (IEC 60870-6-802).
// Types 1-4 carry the bare value, 5-8 add quality, 9-12 add a timestamp,
// 13-16 use the millisecond-resolution extended timestamp, 17-20 add the
// COV counter, 21-22 are protection events.
type PointType uint8

const (
	PointTypeState                        PointType = 1
	PointTypeStateSupplemental            PointType = 2
	PointTypeDiscrete                     PointType = 3
	PointTypeReal                         PointType = 4
	PointTypeStateQ                       PointType = 5
	PointTypeStateSupplementalQ           PointType = 6
	PointTypeDiscreteQ                    PointType = 7
	PointTypeRealQ                        PointType = 8
	PointTypeStateQTimeTag                PointType = 9
	PointTypeStateSupplementalQTimeTag    PointType = 10
	PointTypeDiscreteQTimeTag             PointType = 11
	PointTypeRealQTimeTag                 PointType = 12
	PointTypeStateQTimeTagExt             PointType = 13
	PointTypeStateSupplementalQTimeTagExt PointType = 14
	PointTypeDiscreteQTimeTagExt          PointType = 15
	PointTypeRealQTimeTagExt              PointType = 16
	PointTypeStateExtended                PointType = 17
	PointTypeStateSupplementalExtended    PointType = 18
	PointTypeDiscreteExtended             PointType = 19
	PointTypeRealExtended                 PointType = 20
	PointTypeSingleProtectionEvent        PointType = 21
	PointTypePackedProtectionEvent        PointType = 22
)

var pointTypeNames = map[PointType]string{
	PointTypeState:                        "STATE",
	PointTypeStateSupplemental:            "STATE_SUPPLEMENTAL",
	PointTypeDiscrete:                     "DISCRETE",
	PointTypeReal:                         "REAL",
	PointTypeStateQ:                       "STATE_Q",
	PointTypeStateSupplementalQ:           "STATE_SUPPLEMENTAL_Q",
	PointTypeDiscreteQ:                    "DISCRETE_Q",
	PointTypeRealQ:                        "REAL_Q",
	PointTypeStateQTimeTag:                "STATE_Q_TIMETAG",
	PointTypeStateSupplementalQTimeTag:    "STATE_SUPPLEMENTAL_Q_TIMETAG",
	PointTypeDiscreteQTimeTag:             "DISCRETE_Q_TIMETAG",
	PointTypeRealQTimeTag:                 "REAL_Q_TIMETAG",
	PointTypeStateQTimeTagExt:             "STATE_Q_TIMETAG_EXTENDED",
	PointTypeStateSupplementalQTimeTagExt: "STATE_SUPPLEMENTAL_Q_TIMETAG_EXTENDED",
	PointTypeDiscreteQTimeTagExt:          "DISCRETE_Q_TIMETAG_EXTENDED",
	PointTypeRealQTimeTagExt:              "REAL_Q_TIMETAG_EXTENDED",
	PointTypeStateExtended:                "STATE_EXTENDED",
	PointTypeStateSupplementalExtended:    "STATE_SUPPLEMENTAL_EXTENDED",
	PointTypeDiscreteExtended:             "DISCRETE_EXTENDED",
	PointTypeRealExtended:                 "REAL_EXTENDED",
	PointTypeSingleProtectionEvent:        "SINGLE_PROTECTION_EVENT",
	PointTypePackedProtectionEvent:        "PACKED_PROTECTION_EVENT",
}

// String returns the point type name.
func (p PointType) String() string {
	if n, ok := pointTypeNames[p]; ok {
		return n
	}
	return "UNKNOWN"
}

// HasQuality reports whether the point type carries a quality element.
func (p PointType) HasQuality() bool {
	return p >= PointTypeStateQ && p <= PointTypeRealExtended
}

// HasTimestamp reports whether the point type carries a timestamp element.
func (p PointType) HasTimestamp() bool {
	return p >= PointTypeStateQTimeTag && p <= PointTypeRealExtended
}

// HasCOV reports whether the point type carries a COV counter element.
func (p PointType) HasCOV() bool {
	return p >= PointTypeStateExtended && p <= PointTypeRealExtended
}

// ControlType identifies the Block 5 control point type.
type ControlType uint8

const (
	// ControlTypeCommand is a binary command (on/off, trip/close).
	ControlTypeCommand ControlType = 1
	// ControlTypeSetpointReal is a floating-point setpoint.
	ControlTypeSetpointReal ControlType = 2
	// ControlTypeSetpointDiscrete is an integer setpoint.
	ControlTypeSetpointDiscrete ControlType = 3
)

// String returns the control type name.
func (c ControlType) String() string {
	switch c {
	case ControlTypeCommand:
		return "COMMAND"
	case ControlTypeSetpointReal:
		return "SETPOINT_REAL"
	case ControlTypeSetpointDiscrete:
		return "SETPOINT_DISCRETE"
	default:
		return "UNKNOWN"
	}
}

// State values for 2-bit discrete state points.
const (
	StateBetween = 0
	StateOff     = 1
	StateOn      = 2
	StateInvalid = 3
)

// ConformanceBlock identifies a TASE.2 conformance block. Blocks 1-5
// are normative in the 2014 edition, 6-9 informative legacy.
type ConformanceBlock uint8

const (
	BlockBasic            ConformanceBlock = 1
	BlockRBE              ConformanceBlock = 2
	BlockBlockedTransfers ConformanceBlock = 3
	BlockInfoMessages     ConformanceBlock = 4
	BlockControl          ConformanceBlock = 5
	BlockPrograms         ConformanceBlock = 6
	BlockEvents           ConformanceBlock = 7
	BlockAccounts         ConformanceBlock = 8
	BlockTimeSeries       ConformanceBlock = 9
)

var conformanceBlockNames = map[ConformanceBlock]string{
	BlockBasic:            "BASIC",
	BlockRBE:              "RBE",
	BlockBlockedTransfers: "BLOCKED_TRANSFERS",
	BlockInfoMessages:     "INFO_MSG",
	BlockControl:          "CONTROL",
	BlockPrograms:         "PROGRAMS",
	BlockEvents:           "EVENTS",
	BlockAccounts:         "ACCOUNTS",
	BlockTimeSeries:       "TIME_SERIES",
}

// String returns the conformance block short name.
func (b ConformanceBlock) String() string {
	if n, ok := conformanceBlockNames[b]; ok {
		return n
	}
	return "UNKNOWN"
}

// ProtectionFlags is the event-flags bitmask of a protection event
// point (types 21 and 22).
type ProtectionFlags uint8

const (
	ProtectionGeneral ProtectionFlags = 1
	ProtectionPhaseA  ProtectionFlags = 2
	ProtectionPhaseB  ProtectionFlags = 4
	ProtectionPhaseC  ProtectionFlags = 8
	ProtectionEarth   ProtectionFlags = 16
	ProtectionReverse ProtectionFlags = 32
)

// Has reports whether all bits of flag are set.
func (f ProtectionFlags) Has(flag ProtectionFlags) bool {
	return f&flag == flag
}

// String lists the set fault names, "+"-joined, or "NONE".
func (f ProtectionFlags) String() string {
	var parts []string
	for _, e := range []struct {
		flag ProtectionFlags
		name string
	}{
		{ProtectionGeneral, "GENERAL"},
		{ProtectionPhaseA, "PHASE_A"},
		{ProtectionPhaseB, "PHASE_B"},
		{ProtectionPhaseC, "PHASE_C"},
		{ProtectionEarth, "EARTH"},
		{ProtectionReverse, "REVERSE"},
	} {
		if f.Has(e.flag) {
			parts = append(parts, e.name)
		}
	}
	if len(parts) == 0 {
		return "NONE"
	}
	return strings.Join(parts, "+")
}

// ProtectionEvent is a decoded protection event point: the fault flag
// bits, the relay operating time and the event quality flags.
type ProtectionEvent struct {
	EventFlags ProtectionFlags

	// OperatingTime is the relay operating time in milliseconds.
	OperatingTime int64

	// Timestamp is the event time, when the server attached one.
	Timestamp *time.Time

	ElapsedTimeValid bool
	Blocked          bool
	Substituted      bool
	Topical          bool
	EventValid       bool
}

// GeneralFault reports the general fault bit.
func (e ProtectionEvent) GeneralFault() bool { return e.EventFlags.Has(ProtectionGeneral) }

// PhaseAFault reports the phase A fault bit.
func (e ProtectionEvent) PhaseAFault() bool { return e.EventFlags.Has(ProtectionPhaseA) }

// PhaseBFault reports the phase B fault bit.
func (e ProtectionEvent) PhaseBFault() bool { return e.EventFlags.Has(ProtectionPhaseB) }

// PhaseCFault reports the phase C fault bit.
func (e ProtectionEvent) PhaseCFault() bool { return e.EventFlags.Has(ProtectionPhaseC) }

// EarthFault reports the earth fault bit.
func (e ProtectionEvent) EarthFault() bool { return e.EventFlags.Has(ProtectionEarth) }

// ReverseFault reports the reverse fault bit.
func (e ProtectionEvent) ReverseFault() bool { return e.EventFlags.Has(ProtectionReverse) }

// SupportedFeaturesBlocks decodes the Supported_Features bit string
// (first octet MSB-first for blocks 1-8, bit 8 for block 9) into the
// advertised conformance blocks, in ascending order.
func SupportedFeaturesBlocks(bits []byte, size int) []ConformanceBlock {
	bitSet := func(i int) bool {
		if i >= size || i/8 >= len(bits) {
			return false
		}
		return bits[i/8]&(0x80>>(i%8)) != 0
	}
	var out []ConformanceBlock
	for b := BlockBasic; b <= BlockTimeSeries; b++ {
		if bitSet(int(b) - 1) {
			out = append(out, b)
		}
	}
	return out
}
