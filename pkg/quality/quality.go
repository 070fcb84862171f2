// Package quality implements the TASE.2 Data Flags quality octet
// (IEC 60870-6-802). Every indication point carries one octet encoding
// validity, value source, the normal-value marker and timestamp quality.
package quality

// Validity encodes bits 2-3 of the quality octet.
type Validity uint8

const (
	// ValidityValid indicates the value is current and trustworthy.
	ValidityValid Validity = 0
	// ValidityHeld indicates the value is held over from a previous scan.
	ValidityHeld Validity = 4
	// ValiditySuspect indicates the value is of questionable accuracy.
	ValiditySuspect Validity = 8
	// ValidityNotValid indicates the value must not be used.
	ValidityNotValid Validity = 12
)

// String returns the validity name.
func (v Validity) String() string {
	switch v {
	case ValidityValid:
		return "VALID"
	case ValidityHeld:
		return "HELD"
	case ValiditySuspect:
		return "SUSPECT"
	case ValidityNotValid:
		return "NOT_VALID"
	default:
		return "UNKNOWN"
	}
}

// Source encodes bits 4-5 of the quality octet.
type Source uint8

const (
	// SourceTelemetered indicates the value was acquired from the field.
	SourceTelemetered Source = 0
	// SourceEntered indicates the value was manually entered by an operator.
	SourceEntered Source = 16
	// SourceCalculated indicates the value was derived from other points.
	SourceCalculated Source = 32
	// SourceEstimated indicates the value was estimated (e.g. state estimator).
	SourceEstimated Source = 48
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourceTelemetered:
		return "TELEMETERED"
	case SourceEntered:
		return "ENTERED"
	case SourceCalculated:
		return "CALCULATED"
	case SourceEstimated:
		return "ESTIMATED"
	default:
		return "UNKNOWN"
	}
}

// Bit masks within the quality octet.
const (
	validityMask        = 0x0C
	sourceMask          = 0x30
	normalValueBit      = 0x40
	timestampQualityBit = 0x80
	spareMask           = 0x03
)

// Flags is the decoded form of a Data Flags octet.
type Flags struct {
	// Validity of the point value.
	Validity Validity

	// Source of the point value.
	Source Source

	// NormalValue is set when the value equals its configured normal state.
	NormalValue bool

	// TimestampSuspect is set when the associated timestamp is unreliable.
	TimestampSuspect bool

	// Spare holds the two low-order bits, which IEC 60870-6-802 leaves
	// undefined. They are carried through so Raw is a lossless inverse
	// of FromRaw.
	Spare uint8
}

// FromRaw decodes a raw quality octet into Flags.
// FromRaw and Raw are exact inverses for every octet value.
func FromRaw(raw uint8) Flags {
	return Flags{
		Validity:         Validity(raw & validityMask),
		Source:           Source(raw & sourceMask),
		NormalValue:      raw&normalValueBit != 0,
		TimestampSuspect: raw&timestampQualityBit != 0,
		Spare:            raw & spareMask,
	}
}

// Raw encodes the flags back into the wire octet.
func (f Flags) Raw() uint8 {
	raw := uint8(f.Validity&validityMask) | uint8(f.Source&sourceMask) | f.Spare&spareMask
	if f.NormalValue {
		raw |= normalValueBit
	}
	if f.TimestampSuspect {
		raw |= timestampQualityBit
	}
	return raw
}

// IsValid reports whether the value may be used without reservation.
func (f Flags) IsValid() bool {
	return f.Validity == ValidityValid
}

// Valid returns the flags a freshly decoded bare value carries:
// VALID validity, TELEMETERED source, no markers set.
func Valid() Flags {
	return Flags{}
}

// NotValid returns flags marking a value that could not be obtained.
func NotValid() Flags {
	return Flags{Validity: ValidityNotValid}
}

// String renders the flags in "VALIDITY/SOURCE[+NORMAL][+TS_SUSPECT]" form.
func (f Flags) String() string {
	s := f.Validity.String() + "/" + f.Source.String()
	if f.NormalValue {
		s += "+NORMAL"
	}
	if f.TimestampSuspect {
		s += "+TS_SUSPECT"
	}
	return s
}
