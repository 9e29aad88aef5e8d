package managed

import (
	"fmt"
	"math"
	"reflect"
	"sync"

	"github.com/wippyai/jni-bridge/errors"
	"github.com/wippyai/jni-bridge/signature"
)

// Array is a managed one-dimensional array. The element storage is a Go
// slice whose type follows the element category.
type Array struct {
	elem *signature.Descriptor
	data any
	mu   sync.RWMutex
}

// NewArray creates a zero-filled array of n elements.
func NewArray(elem *signature.Descriptor, n int) (*Array, error) {
	if n < 0 {
		return nil, errors.InvalidInput(errors.PhaseMarshal, fmt.Sprintf("negative array length %d", n))
	}
	var data any
	switch elem.Category {
	case signature.CategoryBool:
		data = make([]bool, n)
	case signature.CategoryByte:
		data = make([]int8, n)
	case signature.CategoryChar:
		data = make([]uint16, n)
	case signature.CategoryShort:
		data = make([]int16, n)
	case signature.CategoryInt:
		data = make([]int32, n)
	case signature.CategoryLong:
		data = make([]int64, n)
	case signature.CategoryFloat:
		data = make([]float32, n)
	case signature.CategoryDouble:
		data = make([]float64, n)
	case signature.CategoryString:
		data = make([]string, n)
	case signature.CategoryObject:
		data = make([]*Object, n)
	case signature.CategoryArray:
		return nil, errors.UnsupportedNesting("["+elem.Token, 2)
	default:
		return nil, errors.UnknownSignature("[" + elem.Token)
	}
	return &Array{elem: elem, data: data}, nil
}

func Booleans(v ...bool) *Array { return &Array{elem: signature.Boolean, data: append([]bool{}, v...)} }
func Bytes(v ...int8) *Array { return &Array{elem: signature.Byte, data: append([]int8{}, v...)} }
func Chars(v ...uint16) *Array { return &Array{elem: signature.Char, data: append([]uint16{}, v...)} }
func Shorts(v ...int16) *Array { return &Array{elem: signature.Short, data: append([]int16{}, v...)} }
func Ints(v ...int32) *Array { return &Array{elem: signature.Int, data: append([]int32{}, v...)} }
func Longs(v ...int64) *Array { return &Array{elem: signature.Long, data: append([]int64{}, v...)} }
func Floats(v ...float32) *Array { return &Array{elem: signature.Float, data: append([]float32{}, v...)} }
func Doubles(v ...float64) *Array { return &Array{elem: signature.Double, data: append([]float64{}, v...)} }
func Strings(v ...string) *Array { return &Array{elem: signature.String, data: append([]string{}, v...)} }

// Objects creates an array of references to class.
func Objects(class string, v ...*Object) *Array {
	return &Array{elem: signature.Object(class), data: append([]*Object{}, v...)}
}

// Elem returns the element descriptor.
func (a *Array) Elem() *signature.Descriptor {
	return a.elem
}

// Descriptor returns the array descriptor.
func (a *Array) Descriptor() *signature.Descriptor {
	d, _ := signature.ArrayOf(a.elem)
	return d
}

// Len returns the number of elements.
func (a *Array) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return sliceLen(a.data)
}

// Slice returns a copy of the element storage, typed per the element
// category ([]int32 for int, []string for String, ...).
func (a *Array) Slice() any {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return cloneSlice(a.data)
}

// Clone returns an independent copy of a.
func (a *Array) Clone() *Array {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return &Array{elem: a.elem, data: cloneSlice(a.data)}
}

// Store replaces the contents with data, which must have the storage type
// and length of the array.
func (a *Array) Store(data any) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if reflect.TypeOf(data) != reflect.TypeOf(a.data) {
		return errors.TypeMismatch(errors.PhaseMarshal, nil, fmt.Sprintf("%T", data), a.elem.String()+"[]")
	}
	if n, want := sliceLen(data), sliceLen(a.data); n != want {
		return errors.OutOfBounds(errors.PhaseMarshal, nil, n, want)
	}
	a.data = cloneSlice(data)
	return nil
}

// Get returns element i.
func (a *Array) Get(i int) (any, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if i < 0 || i >= sliceLen(a.data) {
		return nil, errors.OutOfBounds(errors.PhaseMarshal, nil, i, sliceLen(a.data))
	}
	switch s := a.data.(type) {
	case []bool:
		return s[i], nil
	case []int8:
		return s[i], nil
	case []uint16:
		return s[i], nil
	case []int16:
		return s[i], nil
	case []int32:
		return s[i], nil
	case []int64:
		return s[i], nil
	case []float32:
		return s[i], nil
	case []float64:
		return s[i], nil
	case []string:
		return s[i], nil
	case []*Object:
		if s[i] == nil {
			return nil, nil
		}
		return s[i], nil
	}
	return nil, nil
}

// Set stores v at index i. v must have the exact element Go type.
func (a *Array) Set(i int, v any) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if i < 0 || i >= sliceLen(a.data) {
		return errors.OutOfBounds(errors.PhaseMarshal, nil, i, sliceLen(a.data))
	}
	ok := true
	switch s := a.data.(type) {
	case []bool:
		s[i], ok = v.(bool)
	case []int8:
		s[i], ok = v.(int8)
	case []uint16:
		s[i], ok = v.(uint16)
	case []int16:
		s[i], ok = v.(int16)
	case []int32:
		s[i], ok = v.(int32)
	case []int64:
		s[i], ok = v.(int64)
	case []float32:
		s[i], ok = v.(float32)
	case []float64:
		s[i], ok = v.(float64)
	case []string:
		s[i], ok = v.(string)
	case []*Object:
		if v == nil {
			s[i] = nil
		} else {
			s[i], ok = v.(*Object)
		}
	}
	if !ok {
		return errors.TypeMismatch(errors.PhaseMarshal, []string{fmt.Sprintf("[%d]", i)}, fmt.Sprintf("%T", v), a.elem.String())
	}
	return nil
}

// Equal reports whether a and o hold bit-identical elements of the same
// category. Object elements compare by identity.
func (a *Array) Equal(o *Array) bool {
	if a == o {
		return true
	}
	if a == nil || o == nil || !a.elem.Equal(o.elem) {
		return false
	}
	x, y := a.Slice(), o.Slice()
	switch xs := x.(type) {
	case []float32:
		ys := y.([]float32)
		if len(xs) != len(ys) {
			return false
		}
		for i := range xs {
			if math.Float32bits(xs[i]) != math.Float32bits(ys[i]) {
				return false
			}
		}
		return true
	case []float64:
		ys := y.([]float64)
		if len(xs) != len(ys) {
			return false
		}
		for i := range xs {
			if math.Float64bits(xs[i]) != math.Float64bits(ys[i]) {
				return false
			}
		}
		return true
	}
	n := sliceLen(x)
	if n != sliceLen(y) {
		return false
	}
	for i := 0; i < n; i++ {
		if elemAt(x, i) != elemAt(y, i) {
			return false
		}
	}
	return true
}

func (a *Array) String() string {
	return fmt.Sprintf("%s%v", a.elem.String()+"[]", a.Slice())
}

func elemAt(s any, i int) any {
	switch v := s.(type) {
	case []bool:
		return v[i]
	case []int8:
		return v[i]
	case []uint16:
		return v[i]
	case []int16:
		return v[i]
	case []int32:
		return v[i]
	case []int64:
		return v[i]
	case []string:
		return v[i]
	case []*Object:
		return v[i]
	}
	return nil
}

func sliceLen(s any) int {
	switch v := s.(type) {
	case []bool:
		return len(v)
	case []int8:
		return len(v)
	case []uint16:
		return len(v)
	case []int16:
		return len(v)
	case []int32:
		return len(v)
	case []int64:
		return len(v)
	case []float32:
		return len(v)
	case []float64:
		return len(v)
	case []string:
		return len(v)
	case []*Object:
		return len(v)
	}
	return 0
}

func cloneSlice(s any) any {
	switch v := s.(type) {
	case []bool:
		return append([]bool{}, v...)
	case []int8:
		return append([]int8{}, v...)
	case []uint16:
		return append([]uint16{}, v...)
	case []int16:
		return append([]int16{}, v...)
	case []int32:
		return append([]int32{}, v...)
	case []int64:
		return append([]int64{}, v...)
	case []float32:
		return append([]float32{}, v...)
	case []float64:
		return append([]float64{}, v...)
	case []string:
		return append([]string{}, v...)
	case []*Object:
		return append([]*Object{}, v...)
	}
	return nil
}
