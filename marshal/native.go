package marshal

import (
	"math"

	jnibridge "github.com/wippyai/jni-bridge"
	"github.com/wippyai/jni-bridge/handle"
	"github.com/wippyai/jni-bridge/signature"
)

// Native is a marshaled value as seen by native code.
type Native struct {
	Desc     *signature.Descriptor
	Bits     uint64
	Ref      handle.Handle
	View     handle.Handle
	Ptr      uint32
	Len      uint32
	Encoding Encoding
	Null     bool
	owned    bool
}

// Owned reports whether Free must be called to release the native buffer.
func (n Native) Owned() bool {
	return n.owned && n.Ptr != 0
}

// Free releases the native buffer if n owns one.
func (n *Native) Free(alloc jnibridge.Allocator) {
	if !n.Owned() {
		return
	}
	alloc.Free(n.Ptr, n.byteLen(), n.align())
	n.Ptr = 0
	n.owned = false
}

// Disown transfers buffer ownership to the caller.
func (n *Native) Disown() {
	n.owned = false
}

func (n Native) byteLen() uint32 {
	switch n.Desc.Category {
	case signature.CategoryString:
		if n.Encoding == EncodingUTF16 {
			return n.Len * 2
		}
		return n.Len
	case signature.CategoryArray:
		return n.Len * n.Desc.Elem.NativeSize
	}
	return 0
}

func (n Native) align() uint32 {
	switch n.Desc.Category {
	case signature.CategoryString:
		if n.Encoding == EncodingUTF16 {
			return 2
		}
		return 1
	case signature.CategoryArray:
		return n.Desc.Elem.NativeSize
	}
	return 1
}

// NullOf returns the native null reference of d.
func NullOf(d *signature.Descriptor) Native {
	return Native{Desc: d, Null: true}
}

// Void is the result of a method returning nothing.
var Void = Native{Desc: signature.Void}

func Boolean(v bool) Native {
	var bits uint64
	if v {
		bits = 1
	}
	return Native{Desc: signature.Boolean, Bits: bits}
}

func Byte(v int8) Native { return Native{Desc: signature.Byte, Bits: uint64(uint8(v))} }
func Char(v uint16) Native { return Native{Desc: signature.Char, Bits: uint64(v)} }
func Short(v int16) Native { return Native{Desc: signature.Short, Bits: uint64(uint16(v))} }
func Int(v int32) Native { return Native{Desc: signature.Int, Bits: uint64(uint32(v))} }
func Long(v int64) Native { return Native{Desc: signature.Long, Bits: uint64(v)} }
func Float(v float32) Native { return Native{Desc: signature.Float, Bits: uint64(math.Float32bits(v))} }
func Double(v float64) Native { return Native{Desc: signature.Double, Bits: math.Float64bits(v)} }

// Object wraps a reference handle.
func Object(d *signature.Descriptor, ref handle.Handle) Native {
	if ref == 0 {
		return NullOf(d)
	}
	return Native{Desc: d, Ref: ref}
}

func (n Native) Boolean() bool { return n.Bits != 0 }
func (n Native) Byte() int8 { return int8(uint8(n.Bits)) }
func (n Native) Char() uint16 { return uint16(n.Bits) }
func (n Native) Short() int16 { return int16(uint16(n.Bits)) }
func (n Native) Int() int32 { return int32(uint32(n.Bits)) }
func (n Native) Long() int64 { return int64(n.Bits) }
func (n Native) Float() float32 { return math.Float32frombits(uint32(n.Bits)) }
func (n Native) Double() float64 { return math.Float64frombits(n.Bits) }
