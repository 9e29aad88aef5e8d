package bridge

import (
	"github.com/wippyai/jni-bridge/errors"
	"github.com/wippyai/jni-bridge/handle"
	"github.com/wippyai/jni-bridge/marshal"
	"github.com/wippyai/jni-bridge/signature"
)

// View accesses the native buffer of a live view. Every call fails with
// UseAfterRelease once the view is released.
type View struct {
	b *Bridge
	h handle.Handle
}

// Handle returns the view's handle.
func (v *View) Handle() handle.Handle { return v.h }

// Len returns the element count of an array view, or the length in
// encoding units of a string view.
func (v *View) Len() (int, error) {
	vw, err := v.b.lookup(v.h)
	if err != nil {
		return 0, err
	}
	return int(vw.native.Len), nil
}

// Bytes returns a copy of the native buffer.
func (v *View) Bytes() ([]byte, error) {
	vw, err := v.b.lookup(v.h)
	if err != nil {
		return nil, err
	}
	n := vw.native
	size := v.byteLen(n)
	if size == 0 {
		return []byte{}, nil
	}
	return v.b.m.Heap().Read(n.Ptr, size)
}

// String decodes a string view.
func (v *View) String() (string, error) {
	vw, err := v.b.lookup(v.h)
	if err != nil {
		return "", err
	}
	if vw.native.Desc.Category != signature.CategoryString {
		return "", errors.TypeMismatch(errors.PhaseBridge, nil, vw.native.Desc.String(), "string view")
	}
	return v.b.m.ReadString(vw.native)
}

// Get reads element i of an array view.
func (v *View) Get(i int) (any, error) {
	elem, ptr, err := v.elemAt(i)
	if err != nil {
		return nil, err
	}
	bits, err := marshal.ReadElem(v.b.m.Heap(), ptr, elem)
	if err != nil {
		return nil, err
	}
	return marshal.FromBits(bits, elem)
}

// Set writes element i of an array view. The value is coerced like a
// primitive argument.
func (v *View) Set(i int, value any) error {
	elem, ptr, err := v.elemAt(i)
	if err != nil {
		return err
	}
	bits, err := marshal.ToBits(value, elem)
	if err != nil {
		return err
	}
	return marshal.WriteElem(v.b.m.Heap(), ptr, elem, bits)
}

func (v *View) elemAt(i int) (*signature.Descriptor, uint32, error) {
	vw, err := v.b.lookup(v.h)
	if err != nil {
		return nil, 0, err
	}
	n := vw.native
	if !n.Desc.IsPrimitiveArray() {
		return nil, 0, errors.TypeMismatch(errors.PhaseBridge, nil, n.Desc.String(), "primitive array view")
	}
	if i < 0 || i >= int(n.Len) {
		return nil, 0, errors.OutOfBounds(errors.PhaseBridge, nil, i, int(n.Len))
	}
	elem := n.Desc.Elem
	return elem, n.Ptr + uint32(i)*elem.NativeSize, nil
}

func (v *View) byteLen(n marshal.Native) uint32 {
	if n.Desc.Category == signature.CategoryString {
		if n.Encoding == marshal.EncodingUTF16 {
			return n.Len * 2
		}
		return n.Len
	}
	return n.Len * n.Desc.Elem.NativeSize
}
