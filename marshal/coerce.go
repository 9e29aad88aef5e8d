package marshal

import (
	"fmt"
	"math"

	"github.com/wippyai/jni-bridge/errors"
	"github.com/wippyai/jni-bridge/signature"
)

// ToBits converts a managed primitive to its native bit pattern.
//
// Go values of the category's own type are always accepted. Unsigned Go
// integers of the same width are reinterpreted bit for bit, so
// uint64(math.MaxUint64) is the long -1. Other integer types must fit the
// category's range.
func ToBits(v any, d *signature.Descriptor) (uint64, error) {
	switch d.Category {
	case signature.CategoryBool:
		b, ok := v.(bool)
		if !ok {
			return 0, mismatch(v, d)
		}
		if b {
			return 1, nil
		}
		return 0, nil

	case signature.CategoryByte:
		if u, ok := v.(uint8); ok {
			return uint64(u), nil
		}
		i, err := signedInRange(v, d, math.MinInt8, math.MaxInt8)
		return uint64(uint8(int8(i))), err

	case signature.CategoryChar:
		if u, ok := v.(uint16); ok {
			return uint64(u), nil
		}
		i, err := signedInRange(v, d, 0, math.MaxUint16)
		return uint64(uint16(i)), err

	case signature.CategoryShort:
		if u, ok := v.(uint16); ok {
			return uint64(u), nil
		}
		i, err := signedInRange(v, d, math.MinInt16, math.MaxInt16)
		return uint64(uint16(int16(i))), err

	case signature.CategoryInt:
		if u, ok := v.(uint32); ok {
			return uint64(u), nil
		}
		i, err := signedInRange(v, d, math.MinInt32, math.MaxInt32)
		return uint64(uint32(int32(i))), err

	case signature.CategoryLong:
		if u, ok := v.(uint64); ok {
			return u, nil
		}
		i, err := signedInRange(v, d, math.MinInt64, math.MaxInt64)
		return uint64(i), err

	case signature.CategoryFloat:
		switch f := v.(type) {
		case float32:
			return uint64(math.Float32bits(f)), nil
		case float64:
			if math.IsNaN(f) || math.IsInf(f, 0) || float64(float32(f)) == f {
				return uint64(math.Float32bits(float32(f))), nil
			}
			return 0, errors.Overflow(errors.PhaseMarshal, nil, f, d.String())
		}
		return 0, mismatch(v, d)

	case signature.CategoryDouble:
		switch f := v.(type) {
		case float64:
			return math.Float64bits(f), nil
		case float32:
			return math.Float64bits(float64(f)), nil
		}
		return 0, mismatch(v, d)
	}
	return 0, errors.TypeMismatch(errors.PhaseMarshal, nil, fmt.Sprintf("%T", v), d.String())
}

// FromBits converts a native bit pattern back to the managed primitive.
// Bits outside the category's width fail with ConversionOverflow.
func FromBits(bits uint64, d *signature.Descriptor) (any, error) {
	if d.Category == signature.CategoryBool {
		if bits > 1 {
			return nil, errors.Overflow(errors.PhaseMarshal, nil, bits, d.String())
		}
		return bits == 1, nil
	}
	if d.NativeSize < 8 && bits>>(d.NativeSize*8) != 0 {
		return nil, errors.Overflow(errors.PhaseMarshal, nil, fmt.Sprintf("0x%x", bits), d.String())
	}

	switch d.Category {
	case signature.CategoryByte:
		return int8(uint8(bits)), nil
	case signature.CategoryChar:
		return uint16(bits), nil
	case signature.CategoryShort:
		return int16(uint16(bits)), nil
	case signature.CategoryInt:
		return int32(uint32(bits)), nil
	case signature.CategoryLong:
		return int64(bits), nil
	case signature.CategoryFloat:
		return math.Float32frombits(uint32(bits)), nil
	case signature.CategoryDouble:
		return math.Float64frombits(bits), nil
	}
	return nil, errors.TypeMismatch(errors.PhaseMarshal, nil, "bits", d.String())
}

// signedInRange widens any Go integer to int64 and checks it against
// [lo, hi].
func signedInRange(v any, d *signature.Descriptor, lo, hi int64) (int64, error) {
	var i int64
	switch x := v.(type) {
	case int:
		i = int64(x)
	case int8:
		i = int64(x)
	case int16:
		i = int64(x)
	case int32:
		i = int64(x)
	case int64:
		i = x
	case uint:
		if uint64(x) > math.MaxInt64 {
			return 0, errors.Overflow(errors.PhaseMarshal, nil, x, d.String())
		}
		i = int64(x)
	case uint8:
		i = int64(x)
	case uint16:
		i = int64(x)
	case uint32:
		i = int64(x)
	case uint64:
		if x > math.MaxInt64 {
			return 0, errors.Overflow(errors.PhaseMarshal, nil, x, d.String())
		}
		i = int64(x)
	default:
		return 0, mismatch(v, d)
	}
	if i < lo || i > hi {
		return 0, errors.Overflow(errors.PhaseMarshal, nil, v, d.String())
	}
	return i, nil
}

func mismatch(v any, d *signature.Descriptor) error {
	return errors.TypeMismatch(errors.PhaseMarshal, nil, fmt.Sprintf("%T", v), d.String())
}
