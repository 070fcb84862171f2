// Package codec turns transport values into typed point values.
//
// TASE.2 servers expose indication points either as bare primitives or
// as structures of up to four positional elements: the value, the Data
// Flags quality octet, a UTC timestamp and a change-of-value counter.
// The decoder extracts whatever is present and never fails a whole
// point because one optional element is malformed.
package codec

import (
	"time"

	"github.com/tase2-protocol/tase2-go/pkg/mms"
	"github.com/tase2-protocol/tase2-go/pkg/model"
	"github.com/tase2-protocol/tase2-go/pkg/quality"
)

// Edition selects how raw timestamp numbers are interpreted.
type Edition uint8

const (
	// EditionAuto guesses the unit from the value magnitude.
	EditionAuto Edition = iota
	// Edition1996 interprets raw timestamps as seconds since the epoch.
	Edition1996
	// Edition2000 interprets raw timestamps as milliseconds since the epoch.
	Edition2000
)

// String returns the edition name.
func (e Edition) String() string {
	switch e {
	case Edition1996:
		return "1996.08"
	case Edition2000:
		return "2000.08"
	default:
		return "auto"
	}
}

// Config holds decoder settings.
type Config struct {
	// Edition controls timestamp interpretation. Default EditionAuto.
	Edition Edition
}

// Decoder decodes transport values into model.PointValue records.
// The zero Decoder is usable and equivalent to NewDecoder(Config{}).
type Decoder struct {
	cfg Config
}

// NewDecoder creates a decoder with the given configuration.
func NewDecoder(cfg Config) *Decoder {
	return &Decoder{cfg: cfg}
}

// DecodePoint decodes a raw transport value into a PointValue for the
// named point. A nil-shaped (zero) raw value yields a NOT_VALID point.
func (d *Decoder) DecodePoint(raw mms.Value, domain, name string) model.PointValue {
	pv := model.PointValue{Name: name, Domain: domain}

	if raw.IsZero() || raw.Kind() == mms.KindDataAccessError {
		pv.Quality = quality.NotValid()
		return pv
	}

	if raw.Kind() != mms.KindStructure && raw.Kind() != mms.KindArray {
		pv.Value = d.primitive(raw, &pv)
		return pv
	}

	n := raw.Size()
	if n == 0 {
		pv.Quality = quality.NotValid()
		return pv
	}

	// Element 0: the value.
	if e, err := raw.Element(0); err == nil {
		pv.Value = d.primitive(e, &pv)
	}

	// Element 1: quality octet.
	if n >= 2 {
		if e, err := raw.Element(1); err == nil {
			if q, ok := qualityOctet(e); ok {
				pv.Quality = quality.FromRaw(q)
			}
		}
	}

	// Element 2: timestamp.
	if n >= 3 {
		if e, err := raw.Element(2); err == nil {
			if ts, ok := d.timestamp(e); ok {
				pv.Timestamp = &ts
			}
		}
	}

	// Element 3: COV counter.
	if n >= 4 {
		if e, err := raw.Element(3); err == nil {
			if i, err := e.Int64(); err == nil {
				cov := int32(i)
				pv.COVCounter = &cov
			}
		}
	}

	return pv
}

// DecodeTimestamp converts a raw epoch number into a UTC time per the
// configured edition. Auto mode treats anything past 2000-01-01 (as
// seconds) as milliseconds, since second-resolution servers predate it
// in practice only with small test values.
func (d *Decoder) DecodeTimestamp(raw int64) time.Time {
	switch d.cfg.Edition {
	case Edition1996:
		return time.Unix(raw, 0).UTC()
	case Edition2000:
		return time.UnixMilli(raw).UTC()
	default:
		if raw > 32503680000 { // past year 3000 as seconds, must be ms
			return time.UnixMilli(raw).UTC()
		}
		if raw > 946684800 {
			return time.UnixMilli(raw).UTC()
		}
		return time.Unix(raw, 0).UTC()
	}
}

// primitive extracts the best primitive representation of a value,
// recording the raw handle on the point when nothing matches.
func (d *Decoder) primitive(v mms.Value, pv *model.PointValue) any {
	switch v.Kind() {
	case mms.KindBool:
		b, _ := v.Bool()
		return b
	case mms.KindInteger:
		i, _ := v.Int64()
		return i
	case mms.KindUnsigned:
		u, _ := v.Uint64()
		return u
	case mms.KindFloat:
		f, _ := v.Float64()
		return f
	case mms.KindVisibleString, mms.KindString:
		s, _ := v.Str()
		return s
	case mms.KindBitString:
		if n, err := v.BitStringInt(); err == nil {
			return int64(n)
		}
	case mms.KindUTCTime, mms.KindBinaryTime:
		if t, err := v.Time(); err == nil {
			return t
		}
	}

	// Last resort coercions for unusual kinds.
	if f, err := v.Float64(); err == nil {
		return f
	}
	if i, err := v.Int64(); err == nil {
		return i
	}

	if pv != nil {
		raw := v
		pv.Raw = &raw
	}
	return nil
}

// qualityOctet reads a quality element: integers, unsigneds and short
// bit strings all occur in the field.
func qualityOctet(v mms.Value) (uint8, bool) {
	switch v.Kind() {
	case mms.KindInteger:
		i, _ := v.Int64()
		return uint8(i), true
	case mms.KindUnsigned:
		u, _ := v.Uint64()
		return uint8(u), true
	case mms.KindBitString:
		if n, err := v.BitStringInt(); err == nil {
			return uint8(n), true
		}
	}
	return 0, false
}

// timestamp reads a timestamp element: UTC-time values carry their own
// unit, numeric values go through the edition heuristic.
func (d *Decoder) timestamp(v mms.Value) (time.Time, bool) {
	switch v.Kind() {
	case mms.KindUTCTime, mms.KindBinaryTime:
		if ms, err := v.UTCTimeMs(); err == nil {
			return d.DecodeTimestamp(ms), true
		}
	case mms.KindInteger, mms.KindUnsigned:
		if raw, err := v.Int64(); err == nil {
			return d.DecodeTimestamp(raw), true
		}
	}
	return time.Time{}, false
}
