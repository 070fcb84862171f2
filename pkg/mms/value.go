// Package mms models the typed values a TASE.2 association exchanges.
// A Value is the decoded form of an MMS Data element: a primitive, a
// structure of nested values, or an access error. The transport layer
// produces Values; this package never touches the wire encoding.
package mms

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind identifies the concrete type held by a Value.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindBool
	KindInteger
	KindUnsigned
	KindFloat
	KindVisibleString
	KindString
	KindBitString
	KindOctetString
	KindStructure
	KindArray
	KindUTCTime
	KindBinaryTime
	KindDataAccessError
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindUnsigned:
		return "unsigned"
	case KindFloat:
		return "float"
	case KindVisibleString:
		return "visible-string"
	case KindString:
		return "string"
	case KindBitString:
		return "bit-string"
	case KindOctetString:
		return "octet-string"
	case KindStructure:
		return "structure"
	case KindArray:
		return "array"
	case KindUTCTime:
		return "utc-time"
	case KindBinaryTime:
		return "binary-time"
	case KindDataAccessError:
		return "data-access-error"
	default:
		return "unknown"
	}
}

// ErrKindMismatch is returned by accessors when the Value holds a
// different kind than requested.
var ErrKindMismatch = errors.New("mms: kind mismatch")

// Value is a decoded MMS data element.
// The zero Value has KindUnknown and no payload.
type Value struct {
	kind Kind

	b    bool
	i    int64
	u    uint64
	f    float64
	s    string
	bits []byte
	nbit int
	oct  []byte
	sub  []Value
	t    time.Time
	code int
}

// NewBool returns a boolean Value.
func NewBool(v bool) Value { return Value{kind: KindBool, b: v} }

// NewInt64 returns a signed integer Value.
func NewInt64(v int64) Value { return Value{kind: KindInteger, i: v} }

// NewUint64 returns an unsigned integer Value.
func NewUint64(v uint64) Value { return Value{kind: KindUnsigned, u: v} }

// NewFloat64 returns a floating-point Value.
func NewFloat64(v float64) Value { return Value{kind: KindFloat, f: v} }

// NewVisibleString returns a visible-string Value.
func NewVisibleString(v string) Value { return Value{kind: KindVisibleString, s: v} }

// NewString returns a (unicode) string Value.
func NewString(v string) Value { return Value{kind: KindString, s: v} }

// NewBitString returns a bit-string Value holding size bits,
// most significant bit of bits[0] first.
func NewBitString(bits []byte, size int) Value {
	return Value{kind: KindBitString, bits: bits, nbit: size}
}

// NewOctetString returns an octet-string Value.
func NewOctetString(v []byte) Value { return Value{kind: KindOctetString, oct: v} }

// NewUTCTime returns a UTC-time Value.
func NewUTCTime(t time.Time) Value { return Value{kind: KindUTCTime, t: t} }

// NewUTCTimeMs returns a UTC-time Value from milliseconds since the epoch.
func NewUTCTimeMs(ms int64) Value {
	return Value{kind: KindUTCTime, t: time.UnixMilli(ms).UTC(), i: ms}
}

// NewStructure returns a structure Value over the given elements.
func NewStructure(elems ...Value) Value {
	return Value{kind: KindStructure, sub: elems}
}

// NewArray returns an array Value over the given elements.
func NewArray(elems ...Value) Value {
	return Value{kind: KindArray, sub: elems}
}

// NewDataAccessError returns a Value carrying an MMS DataAccessError code.
func NewDataAccessError(code int) Value {
	return Value{kind: KindDataAccessError, code: code}
}

// Kind returns the concrete kind of the value.
func (v Value) Kind() Kind { return v.kind }

// IsZero reports whether the value is the zero Value (no payload at all).
func (v Value) IsZero() bool { return v.kind == KindUnknown }

// Bool returns the boolean payload.
func (v Value) Bool() (bool, error) {
	if v.kind != KindBool {
		return false, fmt.Errorf("%w: have %s, want boolean", ErrKindMismatch, v.kind)
	}
	return v.b, nil
}

// Int64 returns the integer payload. Unsigned values convert when they
// fit; other kinds fail.
func (v Value) Int64() (int64, error) {
	switch v.kind {
	case KindInteger:
		return v.i, nil
	case KindUnsigned:
		if v.u > 1<<63-1 {
			return 0, fmt.Errorf("%w: unsigned value %d overflows int64", ErrKindMismatch, v.u)
		}
		return int64(v.u), nil
	default:
		return 0, fmt.Errorf("%w: have %s, want integer", ErrKindMismatch, v.kind)
	}
}

// Uint64 returns the unsigned payload. Non-negative integers convert;
// other kinds fail.
func (v Value) Uint64() (uint64, error) {
	switch v.kind {
	case KindUnsigned:
		return v.u, nil
	case KindInteger:
		if v.i < 0 {
			return 0, fmt.Errorf("%w: negative integer %d", ErrKindMismatch, v.i)
		}
		return uint64(v.i), nil
	default:
		return 0, fmt.Errorf("%w: have %s, want unsigned", ErrKindMismatch, v.kind)
	}
}

// Float64 returns the floating-point payload. Integer and unsigned
// values convert; other kinds fail.
func (v Value) Float64() (float64, error) {
	switch v.kind {
	case KindFloat:
		return v.f, nil
	case KindInteger:
		return float64(v.i), nil
	case KindUnsigned:
		return float64(v.u), nil
	default:
		return 0, fmt.Errorf("%w: have %s, want float", ErrKindMismatch, v.kind)
	}
}

// Str returns the string payload of a visible-string or string value.
func (v Value) Str() (string, error) {
	if v.kind != KindVisibleString && v.kind != KindString {
		return "", fmt.Errorf("%w: have %s, want string", ErrKindMismatch, v.kind)
	}
	return v.s, nil
}

// BitStringSize returns the number of bits in a bit-string value.
func (v Value) BitStringSize() (int, error) {
	if v.kind != KindBitString {
		return 0, fmt.Errorf("%w: have %s, want bit-string", ErrKindMismatch, v.kind)
	}
	return v.nbit, nil
}

// Bit reports whether bit i of a bit-string value is set.
// Bit 0 is the most significant bit of the first octet.
func (v Value) Bit(i int) (bool, error) {
	if v.kind != KindBitString {
		return false, fmt.Errorf("%w: have %s, want bit-string", ErrKindMismatch, v.kind)
	}
	if i < 0 || i >= v.nbit {
		return false, fmt.Errorf("mms: bit index %d out of range [0,%d)", i, v.nbit)
	}
	// A declared size beyond the supplied octets reads as zero bits.
	if i/8 >= len(v.bits) {
		return false, nil
	}
	return v.bits[i/8]&(0x80>>(i%8)) != 0, nil
}

// BitStringInt interprets a bit-string value as an unsigned integer,
// bit 0 most significant. Bit strings longer than 64 bits fail.
func (v Value) BitStringInt() (uint64, error) {
	if v.kind != KindBitString {
		return 0, fmt.Errorf("%w: have %s, want bit-string", ErrKindMismatch, v.kind)
	}
	if v.nbit > 64 {
		return 0, fmt.Errorf("mms: bit-string of %d bits exceeds 64", v.nbit)
	}
	var out uint64
	for i := 0; i < v.nbit; i++ {
		out <<= 1
		if i/8 < len(v.bits) && v.bits[i/8]&(0x80>>(i%8)) != 0 {
			out |= 1
		}
	}
	return out, nil
}

// Octets returns the octet-string payload.
func (v Value) Octets() ([]byte, error) {
	if v.kind != KindOctetString {
		return nil, fmt.Errorf("%w: have %s, want octet-string", ErrKindMismatch, v.kind)
	}
	return v.oct, nil
}

// Time returns the UTC-time payload.
func (v Value) Time() (time.Time, error) {
	if v.kind != KindUTCTime && v.kind != KindBinaryTime {
		return time.Time{}, fmt.Errorf("%w: have %s, want utc-time", ErrKindMismatch, v.kind)
	}
	return v.t, nil
}

// UTCTimeMs returns the UTC-time payload in milliseconds since the epoch.
func (v Value) UTCTimeMs() (int64, error) {
	t, err := v.Time()
	if err != nil {
		return 0, err
	}
	return t.UnixMilli(), nil
}

// Size returns the element count of a structure or array value, 0 otherwise.
func (v Value) Size() int {
	if v.kind == KindStructure || v.kind == KindArray {
		return len(v.sub)
	}
	return 0
}

// Element returns element i of a structure or array value.
func (v Value) Element(i int) (Value, error) {
	if v.kind != KindStructure && v.kind != KindArray {
		return Value{}, fmt.Errorf("%w: have %s, want structure", ErrKindMismatch, v.kind)
	}
	if i < 0 || i >= len(v.sub) {
		return Value{}, fmt.Errorf("mms: element index %d out of range [0,%d)", i, len(v.sub))
	}
	return v.sub[i], nil
}

// AccessError returns the DataAccessError code carried by the value.
func (v Value) AccessError() (int, error) {
	if v.kind != KindDataAccessError {
		return 0, fmt.Errorf("%w: have %s, want data-access-error", ErrKindMismatch, v.kind)
	}
	return v.code, nil
}

// String renders the value as kind(payload), nesting structures.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return fmt.Sprintf("boolean(%t)", v.b)
	case KindInteger:
		return fmt.Sprintf("integer(%d)", v.i)
	case KindUnsigned:
		return fmt.Sprintf("unsigned(%d)", v.u)
	case KindFloat:
		return fmt.Sprintf("float(%g)", v.f)
	case KindVisibleString, KindString:
		return fmt.Sprintf("%s(%q)", v.kind, v.s)
	case KindBitString:
		return fmt.Sprintf("bit-string(%d bits)", v.nbit)
	case KindOctetString:
		return fmt.Sprintf("octet-string(%d bytes)", len(v.oct))
	case KindStructure, KindArray:
		parts := make([]string, len(v.sub))
		for i, e := range v.sub {
			parts[i] = e.String()
		}
		return fmt.Sprintf("%s{%s}", v.kind, strings.Join(parts, ", "))
	case KindUTCTime, KindBinaryTime:
		return fmt.Sprintf("%s(%s)", v.kind, v.t.UTC().Format(time.RFC3339Nano))
	case KindDataAccessError:
		return fmt.Sprintf("data-access-error(%d)", v.code)
	default:
		return "unknown"
	}
}
