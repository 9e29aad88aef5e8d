package marshal

import (
	"bytes"
	"context"
	stderrors "errors"
	"math"
	"testing"

	"github.com/wippyai/jni-bridge/errors"
	"github.com/wippyai/jni-bridge/handle"
	"github.com/wippyai/jni-bridge/heap"
	"github.com/wippyai/jni-bridge/managed"
	"github.com/wippyai/jni-bridge/signature"
)

// tableRefs is a minimal References backed by a handle table.
type tableRefs struct {
	t *handle.Table
}

func (r *tableRefs) NewLocal(v any) (handle.Handle, error) { return r.t.Insert(0, v), nil }
func (r *tableRefs) Deref(h handle.Handle) (any, error) { return r.t.Get(h) }

func newTestMarshaler(t *testing.T, enc Encoding) (*Marshaler, *heap.Heap) {
	t.Helper()
	ctx := context.Background()
	h, err := heap.New(ctx, nil)
	if err != nil {
		t.Fatalf("heap.New: %v", err)
	}
	t.Cleanup(func() { h.Close(ctx) })
	return New(h, &tableRefs{t: handle.NewTable(errors.PhaseRegistry)}, enc), h
}

func TestPrimitiveRoundTrip(t *testing.T) {
	m, _ := newTestMarshaler(t, EncodingModifiedUTF8)

	tests := []struct {
		name  string
		desc  *signature.Descriptor
		value any
		bits  uint64
	}{
		{"bool true", signature.Boolean, true, 1},
		{"bool false", signature.Boolean, false, 0},
		{"byte min", signature.Byte, int8(math.MinInt8), 0x80},
		{"byte max", signature.Byte, int8(math.MaxInt8), 0x7F},
		{"byte -1", signature.Byte, int8(-1), 0xFF},
		{"char zero", signature.Char, uint16(0), 0},
		{"char max", signature.Char, uint16(math.MaxUint16), 0xFFFF},
		{"short min", signature.Short, int16(math.MinInt16), 0x8000},
		{"short max", signature.Short, int16(math.MaxInt16), 0x7FFF},
		{"int min", signature.Int, int32(math.MinInt32), 0x80000000},
		{"int max", signature.Int, int32(math.MaxInt32), 0x7FFFFFFF},
		{"int -1", signature.Int, int32(-1), 0xFFFFFFFF},
		{"long min", signature.Long, int64(math.MinInt64), 0x8000000000000000},
		{"long -1", signature.Long, int64(-1), 0xFFFFFFFFFFFFFFFF},
		{"float max", signature.Float, float32(math.MaxFloat32), uint64(math.Float32bits(math.MaxFloat32))},
		{"float neg zero", signature.Float, float32(math.Copysign(0, -1)), 0x80000000},
		{"double smallest", signature.Double, math.SmallestNonzeroFloat64, math.Float64bits(math.SmallestNonzeroFloat64)},
		{"double -inf", signature.Double, math.Inf(-1), math.Float64bits(math.Inf(-1))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := m.ToNative(tt.value, tt.desc)
			if err != nil {
				t.Fatalf("ToNative: %v", err)
			}
			if n.Bits != tt.bits {
				t.Fatalf("bits = 0x%x, want 0x%x", n.Bits, tt.bits)
			}
			if n.Owned() {
				t.Fatal("primitive must not own a buffer")
			}
			back, err := m.ToManaged(n, tt.desc)
			if err != nil {
				t.Fatalf("ToManaged: %v", err)
			}
			if back != tt.value {
				t.Fatalf("round trip = %v (%T), want %v (%T)", back, back, tt.value, tt.value)
			}
		})
	}
}

func TestNaNPayloadPreserved(t *testing.T) {
	m, _ := newTestMarshaler(t, EncodingModifiedUTF8)

	f := math.Float32frombits(0x7FC00123)
	n, err := m.ToNative(f, signature.Float)
	if err != nil {
		t.Fatal(err)
	}
	if n.Bits != 0x7FC00123 {
		t.Fatalf("float NaN bits = 0x%x", n.Bits)
	}

	d := math.Float64frombits(0xFFF8000000000ABC)
	n, err = m.ToNative(d, signature.Double)
	if err != nil {
		t.Fatal(err)
	}
	back, _ := m.ToManaged(n, signature.Double)
	if math.Float64bits(back.(float64)) != 0xFFF8000000000ABC {
		t.Fatalf("double NaN payload lost: 0x%x", math.Float64bits(back.(float64)))
	}
}

func TestCoercion(t *testing.T) {
	tests := []struct {
		name  string
		desc  *signature.Descriptor
		value any
		bits  uint64
	}{
		{"int from int", signature.Int, 42, 42},
		{"int from uint32 max", signature.Int, uint32(math.MaxUint32), 0xFFFFFFFF},
		{"long from uint64 max", signature.Long, uint64(math.MaxUint64), 0xFFFFFFFFFFFFFFFF},
		{"byte from uint8", signature.Byte, uint8(0xFF), 0xFF},
		{"short from int8", signature.Short, int8(-2), 0xFFFE},
		{"char from int", signature.Char, 'A', 0x41},
		{"double from float32", signature.Double, float32(1.5), math.Float64bits(1.5)},
		{"float from exact float64", signature.Float, 0.5, uint64(math.Float32bits(0.5))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bits, err := ToBits(tt.value, tt.desc)
			if err != nil {
				t.Fatalf("ToBits: %v", err)
			}
			if bits != tt.bits {
				t.Fatalf("bits = 0x%x, want 0x%x", bits, tt.bits)
			}
		})
	}
}

func TestConversionOverflow(t *testing.T) {
	tests := []struct {
		name  string
		desc  *signature.Descriptor
		value any
	}{
		{"byte 128", signature.Byte, 128},
		{"byte -129", signature.Byte, int64(-129)},
		{"short 40000", signature.Short, int32(40000)},
		{"char negative", signature.Char, -1},
		{"int 2^31", signature.Int, int64(1) << 31},
		{"long from huge uint", signature.Int, uint64(math.MaxUint64)},
		{"float inexact", signature.Float, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToBits(tt.value, tt.desc)
			if !stderrors.Is(err, errors.ErrConversionOverflow) {
				t.Fatalf("got %v, want ConversionOverflow", err)
			}
		})
	}
}

func TestFromBitsOverflow(t *testing.T) {
	if _, err := FromBits(2, signature.Boolean); !stderrors.Is(err, errors.ErrConversionOverflow) {
		t.Fatalf("bool 2: got %v", err)
	}
	if _, err := FromBits(0x100, signature.Byte); !stderrors.Is(err, errors.ErrConversionOverflow) {
		t.Fatalf("byte 0x100: got %v", err)
	}
	if _, err := FromBits(1<<32, signature.Int); !stderrors.Is(err, errors.ErrConversionOverflow) {
		t.Fatalf("int 1<<32: got %v", err)
	}
}

func TestTypeMismatch(t *testing.T) {
	m, _ := newTestMarshaler(t, EncodingModifiedUTF8)

	tests := []struct {
		name  string
		desc  *signature.Descriptor
		value any
	}{
		{"string as int", signature.Int, "1"},
		{"int as bool", signature.Boolean, 1},
		{"float as long", signature.Long, 1.0},
		{"int as string", signature.String, 1},
		{"nil primitive", signature.Int, nil},
		{"wrong array elem", signature.IntArray, managed.Longs(1)},
		{"string as object", signature.Object("com/example/Foo"), "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.ToNative(tt.value, tt.desc)
			if !stderrors.Is(err, errors.ErrTypeMismatch) {
				t.Fatalf("got %v, want TypeMismatch", err)
			}
		})
	}
}

func TestStringRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"hello",
		"a\x00b",
		"héllo wörld",
		"日本語テキスト",
		"emoji 😀 and 𝄞",
		"\x00",
	}
	for _, enc := range []Encoding{EncodingModifiedUTF8, EncodingUTF16} {
		m, h := newTestMarshaler(t, enc)
		for _, s := range inputs {
			t.Run(enc.String()+"/"+s, func(t *testing.T) {
				n, err := m.ToNative(s, signature.String)
				if err != nil {
					t.Fatalf("ToNative: %v", err)
				}
				if n.Null {
					t.Fatal("non-null string marshaled as null")
				}
				back, err := m.ToManaged(n, signature.String)
				if err != nil {
					t.Fatalf("ToManaged: %v", err)
				}
				if back != s {
					t.Fatalf("round trip = %q, want %q", back, s)
				}
				n.Free(h)
			})
		}
		if h.Live() != 0 {
			t.Fatalf("%s: %d buffers leaked", enc, h.Live())
		}
	}
}

func TestModifiedUTF8Layout(t *testing.T) {
	tests := []struct {
		in   string
		want []byte
	}{
		{"A", []byte{0x41}},
		{"\x00", []byte{0xC0, 0x80}},
		{"é", []byte{0xC3, 0xA9}},
		{"€", []byte{0xE2, 0x82, 0xAC}},
		{"😀", []byte{0xED, 0xA0, 0xBD, 0xED, 0xB8, 0x80}},
	}
	for _, tt := range tests {
		b, n, err := EncodingModifiedUTF8.Encode(tt.in)
		if err != nil {
			t.Fatalf("Encode(%q): %v", tt.in, err)
		}
		if !bytes.Equal(b, tt.want) {
			t.Errorf("Encode(%q) = % x, want % x", tt.in, b, tt.want)
		}
		if int(n) != len(tt.want) {
			t.Errorf("Encode(%q) len = %d", tt.in, n)
		}
	}
}

func TestUTF16Layout(t *testing.T) {
	b, n, err := EncodingUTF16.Encode("A😀")
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x41, 0x00, 0x3D, 0xD8, 0x00, 0xDE}
	if !bytes.Equal(b, want) {
		t.Fatalf("Encode = % x, want % x", b, want)
	}
	if n != 3 {
		t.Fatalf("units = %d, want 3", n)
	}
}

func TestDecodeInvalid(t *testing.T) {
	tests := []struct {
		name string
		enc  Encoding
		in   []byte
	}{
		{"raw nul", EncodingModifiedUTF8, []byte{'a', 0, 'b'}},
		{"truncated 2", EncodingModifiedUTF8, []byte{0xC3}},
		{"truncated 3", EncodingModifiedUTF8, []byte{0xE2, 0x82}},
		{"4-byte form", EncodingModifiedUTF8, []byte{0xF0, 0x9F, 0x98, 0x80}},
		{"odd utf16", EncodingUTF16, []byte{0x41}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.enc.Decode(tt.in)
			var e *errors.Error
			if !stderrors.As(err, &e) || e.Kind != errors.KindInvalidInput {
				t.Fatalf("got %v, want invalid_input", err)
			}
		})
	}
}

func TestInvalidUTF8Rejected(t *testing.T) {
	m, _ := newTestMarshaler(t, EncodingModifiedUTF8)
	_, err := m.ToNative("bad\xff", signature.String)
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindInvalidInput {
		t.Fatalf("got %v, want invalid_input", err)
	}
}

func TestNullVersusEmpty(t *testing.T) {
	m, _ := newTestMarshaler(t, EncodingModifiedUTF8)

	null, err := m.ToNative(nil, signature.String)
	if err != nil {
		t.Fatal(err)
	}
	empty, err := m.ToNative("", signature.String)
	if err != nil {
		t.Fatal(err)
	}
	if !null.Null || empty.Null {
		t.Fatalf("null=%v empty=%v", null.Null, empty.Null)
	}

	v, _ := m.ToManaged(null, signature.String)
	if v != nil {
		t.Fatalf("null string decoded to %#v", v)
	}
	v, _ = m.ToManaged(empty, signature.String)
	if v != "" {
		t.Fatalf("empty string decoded to %#v", v)
	}

	var arr *managed.Array
	n, err := m.ToNative(arr, signature.IntArray)
	if err != nil || !n.Null {
		t.Fatalf("typed nil array: %+v, %v", n, err)
	}
}

func TestArrayRoundTrip(t *testing.T) {
	m, h := newTestMarshaler(t, EncodingModifiedUTF8)

	arrays := []*managed.Array{
		managed.Booleans(true, false, true),
		managed.Bytes(math.MinInt8, -1, 0, math.MaxInt8),
		managed.Chars(0, 'x', math.MaxUint16),
		managed.Shorts(math.MinInt16, math.MaxInt16),
		managed.Ints(math.MinInt32, -1, 0, math.MaxInt32),
		managed.Longs(math.MinInt64, -1, math.MaxInt64),
		managed.Floats(float32(math.Inf(1)), math.Float32frombits(0x7FC00001), -0.0),
		managed.Doubles(math.Pi, math.Float64frombits(0x7FF0000000000001)),
		managed.Ints(),
	}
	for _, arr := range arrays {
		t.Run(arr.Descriptor().String(), func(t *testing.T) {
			n, err := m.ToNative(arr, arr.Descriptor())
			if err != nil {
				t.Fatalf("ToNative: %v", err)
			}
			if int(n.Len) != arr.Len() {
				t.Fatalf("Len = %d, want %d", n.Len, arr.Len())
			}
			back, err := m.ToManaged(n, arr.Descriptor())
			if err != nil {
				t.Fatalf("ToManaged: %v", err)
			}
			got := back.(*managed.Array)
			if got == arr {
				t.Fatal("round trip returned the source array")
			}
			if !got.Equal(arr) {
				t.Fatalf("round trip = %v, want %v", got, arr)
			}
			n.Free(h)
		})
	}
	if h.Live() != 0 {
		t.Fatalf("%d buffers leaked", h.Live())
	}
}

func TestArrayCopyIndependence(t *testing.T) {
	m, h := newTestMarshaler(t, EncodingModifiedUTF8)
	arr := managed.Ints(1, 2, 3)

	n, err := m.ToNative(arr, signature.IntArray)
	if err != nil {
		t.Fatal(err)
	}
	defer n.Free(h)

	// Native-side mutation does not reach the managed array.
	if err := h.WriteU32(n.Ptr, 99); err != nil {
		t.Fatal(err)
	}
	if v, _ := arr.Get(0); v != int32(1) {
		t.Fatalf("managed array changed to %v", v)
	}

	// Managed-side mutation does not reach the native copy.
	arr.Set(1, int32(77))
	if bits, _ := h.ReadU32(n.Ptr + 4); bits != 2 {
		t.Fatalf("native copy changed to %d", bits)
	}

	if err := m.WriteBack(n, arr); err != nil {
		t.Fatal(err)
	}
	if !arr.Equal(managed.Ints(99, 2, 3)) {
		t.Fatalf("after write back: %v", arr)
	}
}

func TestReferenceValues(t *testing.T) {
	m, _ := newTestMarshaler(t, EncodingModifiedUTF8)

	obj := managed.NewObject("com/example/Foo", nil)
	d := signature.Object("com/example/Foo")
	n, err := m.ToNative(obj, d)
	if err != nil {
		t.Fatal(err)
	}
	if n.Ref == 0 || n.Null {
		t.Fatalf("object not carried by reference: %+v", n)
	}
	back, err := m.ToManaged(n, d)
	if err != nil {
		t.Fatal(err)
	}
	if back != obj {
		t.Fatal("object identity lost")
	}

	strs := managed.Strings("a", "b")
	n, err = m.ToNative(strs, signature.StringArray)
	if err != nil {
		t.Fatal(err)
	}
	if n.Ref == 0 || n.Ptr != 0 {
		t.Fatalf("String[] not carried by reference: %+v", n)
	}

	// java/lang/Object accepts any reference.
	root := signature.Object(signature.ObjectClass)
	if _, err := m.ToNative("s", root); err != nil {
		t.Fatalf("string as Object: %v", err)
	}
	if _, err := m.ToNative(managed.Ints(1), root); err != nil {
		t.Fatalf("array as Object: %v", err)
	}
}

func TestNativePassThrough(t *testing.T) {
	m, h := newTestMarshaler(t, EncodingModifiedUTF8)

	s, err := m.CopyString("abc")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Free(h)

	n, err := m.ToNative(s, signature.String)
	if err != nil {
		t.Fatal(err)
	}
	if n.Owned() {
		t.Fatal("pass-through must not take ownership")
	}

	if _, err := m.ToNative(Int(1), signature.Long); !stderrors.Is(err, errors.ErrTypeMismatch) {
		t.Fatalf("int native as long: %v", err)
	}

	// A string buffer read back through java/lang/Object.
	v, err := m.ToManaged(s, signature.Object(signature.ObjectClass))
	if err != nil || v != "abc" {
		t.Fatalf("ToManaged as Object = %v, %v", v, err)
	}
}

func TestParseEncoding(t *testing.T) {
	for name, want := range map[string]Encoding{
		"":      EncodingModifiedUTF8,
		"mutf8": EncodingModifiedUTF8,
		"utf16": EncodingUTF16,
	} {
		got, err := ParseEncoding(name)
		if err != nil || got != want {
			t.Errorf("ParseEncoding(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := ParseEncoding("latin1"); err == nil {
		t.Error("expected error for latin1")
	}
}

func TestReadWriteElem(t *testing.T) {
	_, h := newTestMarshaler(t, EncodingModifiedUTF8)
	ptr, err := h.Alloc(16, 8)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Free(ptr, 16, 8)

	tests := []struct {
		elem *signature.Descriptor
		off  uint32
		bits uint64
	}{
		{signature.Long, 8, 0xFFFFFFFFFFFFFFFF},
		{signature.Double, 0, math.Float64bits(math.Copysign(0, -1))},
		{signature.Int, 4, 0x80000000},
		{signature.Short, 2, 0xBEEF},
		{signature.Char, 0, 0xD800},
		{signature.Byte, 1, 0xFF},
		{signature.Boolean, 0, 1},
	}
	for _, tt := range tests {
		if err := WriteElem(h, ptr+tt.off, tt.elem, tt.bits); err != nil {
			t.Fatalf("WriteElem %s: %v", tt.elem, err)
		}
		got, err := ReadElem(h, ptr+tt.off, tt.elem)
		if err != nil || got != tt.bits {
			t.Fatalf("ReadElem %s = %#x, %v; want %#x", tt.elem, got, err, tt.bits)
		}
	}

	if err := WriteElem(h, ptr, signature.Short, 0x12345); err != nil {
		t.Fatal(err)
	}
	if got, _ := ReadElem(h, ptr, signature.Short); got != 0x2345 {
		t.Fatalf("short keeps low bits: %#x", got)
	}
	if _, err := ReadElem(h, h.Size()-4, signature.Long); err == nil {
		t.Fatal("read past the end of memory succeeded")
	}
}
