package mms

import (
	"errors"
	"testing"
	"time"
)

func TestPrimitiveAccessors(t *testing.T) {
	b, err := NewBool(true).Bool()
	if err != nil || !b {
		t.Errorf("Bool() = %t, %v", b, err)
	}

	i, err := NewInt64(-42).Int64()
	if err != nil || i != -42 {
		t.Errorf("Int64() = %d, %v", i, err)
	}

	u, err := NewUint64(42).Uint64()
	if err != nil || u != 42 {
		t.Errorf("Uint64() = %d, %v", u, err)
	}

	f, err := NewFloat64(230.5).Float64()
	if err != nil || f != 230.5 {
		t.Errorf("Float64() = %g, %v", f, err)
	}

	s, err := NewVisibleString("ICC1").Str()
	if err != nil || s != "ICC1" {
		t.Errorf("Str() = %q, %v", s, err)
	}
}

func TestNumericCoercion(t *testing.T) {
	// Integers and unsigneds coerce to float.
	if f, err := NewInt64(7).Float64(); err != nil || f != 7 {
		t.Errorf("int Float64() = %g, %v", f, err)
	}
	if f, err := NewUint64(9).Float64(); err != nil || f != 9 {
		t.Errorf("uint Float64() = %g, %v", f, err)
	}

	// Unsigned coerces to int when in range.
	if i, err := NewUint64(8).Int64(); err != nil || i != 8 {
		t.Errorf("uint Int64() = %d, %v", i, err)
	}

	// Negative integer does not coerce to unsigned.
	if _, err := NewInt64(-1).Uint64(); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("negative Uint64() err = %v, want ErrKindMismatch", err)
	}
}

func TestKindMismatch(t *testing.T) {
	v := NewFloat64(1.0)
	if _, err := v.Bool(); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("Bool() on float err = %v, want ErrKindMismatch", err)
	}
	if _, err := v.Str(); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("Str() on float err = %v, want ErrKindMismatch", err)
	}
	if _, err := v.Element(0); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("Element() on float err = %v, want ErrKindMismatch", err)
	}
}

func TestStructure(t *testing.T) {
	v := NewStructure(NewFloat64(100.0), NewInt64(8))
	if v.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", v.Size())
	}
	e0, err := v.Element(0)
	if err != nil {
		t.Fatalf("Element(0): %v", err)
	}
	if f, _ := e0.Float64(); f != 100.0 {
		t.Errorf("element 0 = %g, want 100.0", f)
	}
	if _, err := v.Element(2); err == nil {
		t.Error("Element(2) succeeded on 2-element structure")
	}
	if NewFloat64(1).Size() != 0 {
		t.Error("Size() on primitive != 0")
	}
}

func TestBitString(t *testing.T) {
	// 0b1010_1 in 5 bits: bits 0, 2, 4 set.
	v := NewBitString([]byte{0xA8}, 5)

	n, err := v.BitStringInt()
	if err != nil || n != 0x15 {
		t.Errorf("BitStringInt() = %#x, %v, want 0x15", n, err)
	}

	set, err := v.Bit(0)
	if err != nil || !set {
		t.Errorf("Bit(0) = %t, %v, want true", set, err)
	}
	set, err = v.Bit(1)
	if err != nil || set {
		t.Errorf("Bit(1) = %t, %v, want false", set, err)
	}
	if _, err := v.Bit(5); err == nil {
		t.Error("Bit(5) succeeded on 5-bit string")
	}
}

func TestBitStringShortOctets(t *testing.T) {
	// A declared size with no backing octets reads as all zero bits.
	v := NewBitString([]byte{}, 8)

	n, err := v.BitStringInt()
	if err != nil || n != 0 {
		t.Errorf("BitStringInt() = %#x, %v, want 0", n, err)
	}
	set, err := v.Bit(3)
	if err != nil || set {
		t.Errorf("Bit(3) = %t, %v, want false", set, err)
	}

	// One octet backing a 12-bit declaration: the tail is zero.
	v = NewBitString([]byte{0xFF}, 12)
	n, err = v.BitStringInt()
	if err != nil || n != 0xFF0 {
		t.Errorf("BitStringInt() = %#x, %v, want 0xFF0", n, err)
	}
	set, err = v.Bit(10)
	if err != nil || set {
		t.Errorf("Bit(10) = %t, %v, want false", set, err)
	}
}

func TestUTCTime(t *testing.T) {
	ms := int64(1700000000123)
	v := NewUTCTimeMs(ms)
	got, err := v.UTCTimeMs()
	if err != nil || got != ms {
		t.Errorf("UTCTimeMs() = %d, %v, want %d", got, err, ms)
	}
	ts, err := v.Time()
	if err != nil {
		t.Fatalf("Time(): %v", err)
	}
	if !ts.Equal(time.UnixMilli(ms)) {
		t.Errorf("Time() = %v, want %v", ts, time.UnixMilli(ms))
	}
}

func TestString(t *testing.T) {
	v := NewStructure(NewFloat64(230.5), NewInt64(8))
	want := "structure{float(230.5), integer(8)}"
	if got := v.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
