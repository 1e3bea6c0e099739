/*
Package keycodec implements the pure, engine-agnostic key encoding
rules for barn: fixed-width little-endian surrogate ids, typed
secondary-index keys, string normalization, and date/date-time
parsing into millisecond timestamps.

Every function here is pure: no I/O, no knowledge of the underlying
KV engine. The engine adapter (internal/kv) decides what physical byte
layout its storage needs for correct ordering; this package always
speaks the canonical little-endian 64-bit layout.
*/
package keycodec

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"
)

// ValType enumerates the declared value types a secondary index can hold.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
)

// Value formats recognized for string-typed attributes.
const (
	FormatDate     = "date"
	FormatDateTime = "date-time"
)

// dateLayout is the layout used to parse "date" formatted attributes,
// after padding the input with a zero time-of-day. The padded string
// is what actually gets parsed, not the raw input.
const dateLayout = "2006-01-02 15:04:05"

// EncodePK encodes a surrogate id as 8 little-endian bytes.
func EncodePK(pk uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, pk)
	return b
}

// DecodePK decodes 8 little-endian bytes back into a surrogate id,
// folding all 8 bytes.
func DecodePK(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("keycodec: pk bytes must be 8 long, got %d", len(b))
	}
	return binary.LittleEndian.Uint64(b), nil
}

// IndexValuePayload encodes the pk stored as an index's value.
func IndexValuePayload(pk uint64) []byte {
	return EncodePK(pk)
}

// EncodeIndexKey encodes the value found at an index's attribute path
// according to its declared type and format.
//
// Return values:
//   - (key, true, nil):  value present and successfully encoded.
//   - (nil, false, nil): value missing, or not coercible to valType.
//     The caller must silently skip this index write.
//   - (nil, false, err): value was of the right shape but failed a
//     stricter parse (e.g. a malformed date string). The caller must
//     abort the insert with InvalidAttributeValue.
func EncodeIndexKey(valType, valFormat string, raw interface{}) (key []byte, ok bool, err error) {
	switch valType {
	case TypeInteger, TypeNumber, TypeString:
		// handled below
	default:
		return nil, false, fmt.Errorf("keycodec: unsupported index value type %q", valType)
	}

	if raw == nil {
		return nil, false, nil
	}

	switch valType {
	case TypeInteger:
		i, coercible := toInt64(raw)
		if !coercible {
			return nil, false, nil
		}
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, uint64(i))
		return b, true, nil

	case TypeNumber:
		f, coercible := toFloat64(raw)
		if !coercible {
			return nil, false, nil
		}
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, math.Float64bits(f))
		return b, true, nil

	case TypeString:
		s, coercible := raw.(string)
		if !coercible {
			return nil, false, nil
		}
		return encodeStringKey(s, valFormat)

	default:
		return nil, false, fmt.Errorf("keycodec: unsupported index value type %q", valType)
	}
}

func encodeStringKey(s, valFormat string) ([]byte, bool, error) {
	switch valFormat {
	case FormatDateTime:
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, false, fmt.Errorf("keycodec: invalid date-time %q: %w", s, err)
		}
		return encodeMillis(t), true, nil

	case FormatDate:
		padded := s + " 00:00:00"
		t, err := time.Parse(dateLayout, padded)
		if err != nil {
			return nil, false, fmt.Errorf("keycodec: invalid date %q: %w", s, err)
		}
		return encodeMillis(t), true, nil

	default:
		normalized := strings.ToLower(strings.TrimSpace(s))
		return []byte(normalized), true, nil
	}
}

func encodeMillis(t time.Time) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(t.UnixMilli()))
	return b
}

func toInt64(raw interface{}) (int64, bool) {
	switch v := raw.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int16:
		return int64(v), true
	case int8:
		return int64(v), true
	case uint64:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint8:
		return int64(v), true
	case float64:
		if v == math.Trunc(v) {
			return int64(v), true
		}
		return 0, false
	case float32:
		f := float64(v)
		if f == math.Trunc(f) {
			return int64(f), true
		}
		return 0, false
	default:
		return 0, false
	}
}

func toFloat64(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int16:
		return float64(v), true
	case int8:
		return float64(v), true
	case uint64:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint8:
		return float64(v), true
	default:
		return 0, false
	}
}
