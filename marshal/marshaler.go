package marshal

import (
	"fmt"

	jnibridge "github.com/wippyai/jni-bridge"
	"github.com/wippyai/jni-bridge/errors"
	"github.com/wippyai/jni-bridge/handle"
	"github.com/wippyai/jni-bridge/managed"
	"github.com/wippyai/jni-bridge/signature"
)

// References hands out local reference handles for values carried by
// reference (objects and arrays of references).
type References interface {
	NewLocal(v any) (handle.Handle, error)
	Deref(h handle.Handle) (any, error)
}

// Marshaler converts values between managed and native form.
type Marshaler struct {
	heap     jnibridge.Heap
	refs     References
	encoding Encoding
}

// New creates a Marshaler over heap. refs may be nil if no object values
// cross the boundary.
func New(heap jnibridge.Heap, refs References, enc Encoding) *Marshaler {
	return &Marshaler{heap: heap, refs: refs, encoding: enc}
}

// Heap returns the native heap buffers are copied into.
func (m *Marshaler) Heap() jnibridge.Heap { return m.heap }

// Encoding returns the native string encoding.
func (m *Marshaler) Encoding() Encoding { return m.encoding }

// ToNative converts a managed value to native form for d. nil is the null
// reference for every reference category.
func (m *Marshaler) ToNative(v any, d *signature.Descriptor) (Native, error) {
	if n, ok := v.(Native); ok {
		if n.Desc == nil || !assignable(n.Desc, d) {
			return Native{}, errors.TypeMismatch(errors.PhaseMarshal, nil, "native "+descName(n.Desc), d.String())
		}
		n.owned = false
		return n, nil
	}

	if d.IsPrimitive() {
		bits, err := ToBits(v, d)
		if err != nil {
			return Native{}, err
		}
		return Native{Desc: d, Bits: bits}, nil
	}
	if d.Category == signature.CategoryVoid {
		return Native{}, errors.TypeMismatch(errors.PhaseMarshal, nil, fmt.Sprintf("%T", v), d.String())
	}
	if isNull(v) {
		return NullOf(d), nil
	}

	switch d.Category {
	case signature.CategoryString:
		s, ok := v.(string)
		if !ok {
			return Native{}, mismatch(v, d)
		}
		return m.CopyString(s)

	case signature.CategoryArray:
		arr, ok := v.(*managed.Array)
		if !ok || !arr.Elem().Equal(d.Elem) {
			return Native{}, mismatch(v, d)
		}
		if d.IsPrimitiveArray() {
			return m.CopyArray(arr)
		}
		return m.local(arr, d)

	case signature.CategoryObject:
		if !acceptsObject(v, d) {
			return Native{}, mismatch(v, d)
		}
		return m.local(v, d)
	}
	return Native{}, errors.UnknownSignature(d.Token)
}

// ToManaged converts a native value back to managed form. The null
// reference yields nil. A native without a descriptor is only accepted as
// the null reference.
func (m *Marshaler) ToManaged(n Native, d *signature.Descriptor) (any, error) {
	if d.Category == signature.CategoryVoid {
		return nil, nil
	}
	if n.Null {
		if d.IsPrimitive() {
			return nil, errors.TypeMismatch(errors.PhaseMarshal, nil, "null", d.String())
		}
		if n.Desc == nil || assignable(n.Desc, d) {
			return nil, nil
		}
	}
	if n.Desc == nil || !assignable(n.Desc, d) {
		return nil, errors.TypeMismatch(errors.PhaseMarshal, nil, "native "+descName(n.Desc), d.String())
	}
	if d.IsPrimitive() {
		return FromBits(n.Bits, d)
	}
	if n.Ref != 0 {
		return m.deref(n.Ref, d)
	}

	src := d
	if n.Desc != nil {
		src = n.Desc
	}
	var v any
	var err error
	switch {
	case src.Category == signature.CategoryString:
		v, err = m.ReadString(n)
	case src.IsPrimitiveArray():
		v, err = m.ReadArray(n, src.Elem)
	default:
		return nil, errors.InvalidInput(errors.PhaseMarshal, fmt.Sprintf("%s value carries no reference", src))
	}
	if err != nil {
		return nil, err
	}
	if err := checkReference(v, d); err != nil {
		return nil, err
	}
	return v, nil
}

// CopyString copies s into a new native buffer in the marshaler's
// encoding.
func (m *Marshaler) CopyString(s string) (Native, error) {
	b, n, err := m.encoding.Encode(s)
	if err != nil {
		return Native{}, err
	}
	out := Native{Desc: signature.String, Len: n, Encoding: m.encoding}
	if err := m.place(&out, b, m.encoding.unitSize()); err != nil {
		return Native{}, err
	}
	return out, nil
}

// ReadString decodes the native string buffer of n.
func (m *Marshaler) ReadString(n Native) (string, error) {
	if n.Null {
		return "", errors.InvalidInput(errors.PhaseMarshal, "null string")
	}
	b, err := m.read(n.Ptr, n.Len*n.Encoding.unitSize())
	if err != nil {
		return "", err
	}
	return n.Encoding.Decode(b)
}

// CopyArray copies the elements of a primitive array into a new native
// buffer.
func (m *Marshaler) CopyArray(arr *managed.Array) (Native, error) {
	b, err := EncodeElements(arr)
	if err != nil {
		return Native{}, err
	}
	out := Native{Desc: arr.Descriptor(), Len: uint32(arr.Len())}
	if err := m.place(&out, b, arr.Elem().NativeSize); err != nil {
		return Native{}, err
	}
	return out, nil
}

// ReadArray builds a new managed array from the native buffer of n.
func (m *Marshaler) ReadArray(n Native, elem *signature.Descriptor) (*managed.Array, error) {
	data, err := m.readElements(n, elem)
	if err != nil {
		return nil, err
	}
	arr, err := managed.NewArray(elem, int(n.Len))
	if err != nil {
		return nil, err
	}
	if err := arr.Store(data); err != nil {
		return nil, err
	}
	return arr, nil
}

// WriteBack copies the native buffer of n into an existing managed array
// of the same element type and length.
func (m *Marshaler) WriteBack(n Native, arr *managed.Array) error {
	data, err := m.readElements(n, arr.Elem())
	if err != nil {
		return err
	}
	return arr.Store(data)
}

func (m *Marshaler) readElements(n Native, elem *signature.Descriptor) (any, error) {
	if n.Null {
		return nil, errors.InvalidInput(errors.PhaseMarshal, "null array")
	}
	b, err := m.read(n.Ptr, n.Len*elem.NativeSize)
	if err != nil {
		return nil, err
	}
	return DecodeElements(elem, b)
}

// place allocates a buffer for b and records it in n as owned.
func (m *Marshaler) place(n *Native, b []byte, align uint32) error {
	if len(b) == 0 {
		return nil
	}
	ptr, err := m.heap.Alloc(uint32(len(b)), align)
	if err != nil {
		return err
	}
	if err := m.heap.Write(ptr, b); err != nil {
		m.heap.Free(ptr, uint32(len(b)), align)
		return err
	}
	n.Ptr = ptr
	n.owned = true
	return nil
}

func (m *Marshaler) read(ptr, size uint32) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}
	return m.heap.Read(ptr, size)
}

func (m *Marshaler) local(v any, d *signature.Descriptor) (Native, error) {
	if m.refs == nil {
		return Native{}, errors.InvalidInput(errors.PhaseMarshal, "no reference registry for "+d.String())
	}
	h, err := m.refs.NewLocal(v)
	if err != nil {
		return Native{}, err
	}
	return Object(d, h), nil
}

func (m *Marshaler) deref(h handle.Handle, d *signature.Descriptor) (any, error) {
	if m.refs == nil {
		return nil, errors.InvalidInput(errors.PhaseMarshal, "no reference registry for "+d.String())
	}
	v, err := m.refs.Deref(h)
	if err != nil {
		return nil, err
	}
	if err := checkReference(v, d); err != nil {
		return nil, err
	}
	return v, nil
}

// checkReference verifies that a referenced value fits d.
func checkReference(v any, d *signature.Descriptor) error {
	switch d.Category {
	case signature.CategoryString:
		if _, ok := v.(string); !ok {
			return mismatch(v, d)
		}
	case signature.CategoryArray:
		arr, ok := v.(*managed.Array)
		if !ok || !arr.Elem().Equal(d.Elem) {
			return mismatch(v, d)
		}
	case signature.CategoryObject:
		if !acceptsObject(v, d) {
			return mismatch(v, d)
		}
	}
	return nil
}

// acceptsObject reports whether v may be carried as a reference of d.
// java/lang/Object accepts any reference value; other classes need a
// *managed.Object. Class assignability is checked by the dispatcher,
// which knows the hierarchy.
func acceptsObject(v any, d *signature.Descriptor) bool {
	switch v.(type) {
	case *managed.Object:
		return true
	case string, *managed.Array:
		return d.Class == signature.ObjectClass
	}
	return false
}

// assignable reports whether a native value typed as from may stand in
// for to. References are checked against the referenced value on the way
// back to managed form.
func assignable(from, to *signature.Descriptor) bool {
	if from.Equal(to) {
		return true
	}
	return from.Category.IsReference() && to.Category.IsReference()
}

func isNull(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case *managed.Array:
		return x == nil
	case *managed.Object:
		return x == nil
	}
	return false
}

func descName(d *signature.Descriptor) string {
	if d == nil {
		return "untyped"
	}
	return d.String()
}

// WithReferences returns a copy of m that carries references through r.
func (m *Marshaler) WithReferences(r References) *Marshaler {
	c := *m
	c.refs = r
	return &c
}
