package marshal

import (
	"encoding/binary"
	"fmt"
	"math"

	jnibridge "github.com/wippyai/jni-bridge"
	"github.com/wippyai/jni-bridge/errors"
	"github.com/wippyai/jni-bridge/managed"
	"github.com/wippyai/jni-bridge/signature"
)

// EncodeElements lays out the elements of a primitive array contiguously,
// little-endian, at the element's native size.
func EncodeElements(arr *managed.Array) ([]byte, error) {
	elem := arr.Elem()
	if !elem.IsPrimitive() {
		return nil, errors.TypeMismatch(errors.PhaseMarshal, nil, elem.String()+"[]", "primitive array")
	}
	data := arr.Slice()
	n := arr.Len()
	buf := make([]byte, uint32(n)*elem.NativeSize)
	for i := 0; i < n; i++ {
		putElem(buf, elem, i, elemBits(data, i))
	}
	return buf, nil
}

// DecodeElements builds the element storage for elem from a native
// buffer. The result has the storage type of managed.Array.
func DecodeElements(elem *signature.Descriptor, buf []byte) (any, error) {
	if !elem.IsPrimitive() {
		return nil, errors.TypeMismatch(errors.PhaseMarshal, nil, elem.String()+"[]", "primitive array")
	}
	if uint32(len(buf))%elem.NativeSize != 0 {
		return nil, errors.InvalidInput(errors.PhaseMarshal,
			fmt.Sprintf("buffer of %d bytes is not a multiple of %s", len(buf), elem))
	}
	n := int(uint32(len(buf)) / elem.NativeSize)
	switch elem.Category {
	case signature.CategoryBool:
		out := make([]bool, n)
		for i := range out {
			b := buf[i]
			if b > 1 {
				return nil, errors.Overflow(errors.PhaseMarshal, []string{fmt.Sprintf("[%d]", i)}, b, elem.String())
			}
			out[i] = b == 1
		}
		return out, nil
	case signature.CategoryByte:
		out := make([]int8, n)
		for i := range out {
			out[i] = int8(buf[i])
		}
		return out, nil
	case signature.CategoryChar:
		out := make([]uint16, n)
		for i := range out {
			out[i] = binary.LittleEndian.Uint16(buf[i*2:])
		}
		return out, nil
	case signature.CategoryShort:
		out := make([]int16, n)
		for i := range out {
			out[i] = int16(binary.LittleEndian.Uint16(buf[i*2:]))
		}
		return out, nil
	case signature.CategoryInt:
		out := make([]int32, n)
		for i := range out {
			out[i] = int32(binary.LittleEndian.Uint32(buf[i*4:]))
		}
		return out, nil
	case signature.CategoryLong:
		out := make([]int64, n)
		for i := range out {
			out[i] = int64(binary.LittleEndian.Uint64(buf[i*8:]))
		}
		return out, nil
	case signature.CategoryFloat:
		out := make([]float32, n)
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
		}
		return out, nil
	case signature.CategoryDouble:
		out := make([]float64, n)
		for i := range out {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
		}
		return out, nil
	}
	return nil, errors.UnknownSignature(elem.Token)
}

// ReadElem reads one element of type elem at ptr as raw bits.
func ReadElem(mem jnibridge.Memory, ptr uint32, elem *signature.Descriptor) (uint64, error) {
	switch elem.NativeSize {
	case 1:
		v, err := mem.ReadU8(ptr)
		return uint64(v), err
	case 2:
		v, err := mem.ReadU16(ptr)
		return uint64(v), err
	case 4:
		v, err := mem.ReadU32(ptr)
		return uint64(v), err
	case 8:
		return mem.ReadU64(ptr)
	}
	return 0, errors.UnknownSignature(elem.Token)
}

// WriteElem stores the low bits of one element of type elem at ptr.
func WriteElem(mem jnibridge.Memory, ptr uint32, elem *signature.Descriptor, bits uint64) error {
	switch elem.NativeSize {
	case 1:
		return mem.WriteU8(ptr, uint8(bits))
	case 2:
		return mem.WriteU16(ptr, uint16(bits))
	case 4:
		return mem.WriteU32(ptr, uint32(bits))
	case 8:
		return mem.WriteU64(ptr, bits)
	}
	return errors.UnknownSignature(elem.Token)
}

func putElem(buf []byte, elem *signature.Descriptor, i int, bits uint64) {
	off := i * int(elem.NativeSize)
	switch elem.NativeSize {
	case 1:
		buf[off] = byte(bits)
	case 2:
		binary.LittleEndian.PutUint16(buf[off:], uint16(bits))
	case 4:
		binary.LittleEndian.PutUint32(buf[off:], uint32(bits))
	default:
		binary.LittleEndian.PutUint64(buf[off:], bits)
	}
}

func elemBits(data any, i int) uint64 {
	switch s := data.(type) {
	case []bool:
		if s[i] {
			return 1
		}
		return 0
	case []int8:
		return uint64(uint8(s[i]))
	case []uint16:
		return uint64(s[i])
	case []int16:
		return uint64(uint16(s[i]))
	case []int32:
		return uint64(uint32(s[i]))
	case []int64:
		return uint64(s[i])
	case []float32:
		return uint64(math.Float32bits(s[i]))
	case []float64:
		return math.Float64bits(s[i])
	}
	return 0
}
