package dispatch

import (
	"fmt"

	"github.com/wippyai/jni-bridge/errors"
	"github.com/wippyai/jni-bridge/managed"
	"github.com/wippyai/jni-bridge/marshal"
	"github.com/wippyai/jni-bridge/signature"
)

// normalize converts a builder initial value to the canonical Go type of
// d, so int 5 stored in an int field becomes int32(5). nil becomes the
// zero value.
func normalize(v any, d *signature.Descriptor) (any, error) {
	if v == nil {
		return zeroValue(d), nil
	}
	if !d.IsPrimitive() {
		if err := checkReference(nil, v, d); err != nil {
			return nil, err
		}
		if isNullRef(v) {
			return nil, nil
		}
		return v, nil
	}
	bits, err := marshal.ToBits(v, d)
	if err != nil {
		return nil, err
	}
	return marshal.FromBits(bits, d)
}

func zeroValue(d *signature.Descriptor) any {
	switch d.Category {
	case signature.CategoryBool:
		return false
	case signature.CategoryByte:
		return int8(0)
	case signature.CategoryChar:
		return uint16(0)
	case signature.CategoryShort:
		return int16(0)
	case signature.CategoryInt:
		return int32(0)
	case signature.CategoryLong:
		return int64(0)
	case signature.CategoryFloat:
		return float32(0)
	case signature.CategoryDouble:
		return float64(0)
	}
	return nil
}

// checkValue validates an argument or field value v against d without
// side effects. Primitives must already have the category's Go type; no
// numeric conversion happens on this path. t resolves class
// assignability.
func checkValue(t *Table, v any, d *signature.Descriptor) error {
	if d.IsPrimitive() {
		if !hasPrimitiveType(v, d.Category) {
			return errors.TypeMismatch(errors.PhaseDispatch, nil, describe(v), d.String())
		}
		return nil
	}
	return checkReference(t, v, d)
}

// hasPrimitiveType reports whether v is the Go type that carries c.
func hasPrimitiveType(v any, c signature.Category) bool {
	switch v.(type) {
	case bool:
		return c == signature.CategoryBool
	case int8:
		return c == signature.CategoryByte
	case uint16:
		return c == signature.CategoryChar
	case int16:
		return c == signature.CategoryShort
	case int32:
		return c == signature.CategoryInt
	case int64:
		return c == signature.CategoryLong
	case float32:
		return c == signature.CategoryFloat
	case float64:
		return c == signature.CategoryDouble
	}
	return false
}

func checkReference(t *Table, v any, d *signature.Descriptor) error {
	if isNullRef(v) {
		return nil
	}
	ok := false
	switch d.Category {
	case signature.CategoryString:
		_, ok = v.(string)
	case signature.CategoryArray:
		if arr, isArr := v.(*managed.Array); isArr {
			ok = arrayAssignable(t, arr.Elem(), d.Elem)
		}
	case signature.CategoryObject:
		switch x := v.(type) {
		case *managed.Object:
			ok = t == nil || t.IsAssignable(x.Class(), d.Class)
		case string, *managed.Array:
			ok = d.Class == signature.ObjectClass
		}
	}
	if !ok {
		return errors.TypeMismatch(errors.PhaseDispatch, nil, describe(v), d.String())
	}
	return nil
}

func arrayAssignable(t *Table, have, want *signature.Descriptor) bool {
	if have.Equal(want) {
		return true
	}
	if have.Category == signature.CategoryObject && want.Category == signature.CategoryObject {
		return t == nil || t.IsAssignable(have.Class, want.Class)
	}
	return have.Category.IsReference() && want.Category == signature.CategoryObject && want.Class == signature.ObjectClass
}

func isNullRef(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case *managed.Object:
		return x == nil
	case *managed.Array:
		return x == nil
	}
	return false
}

// describe names the managed type of v for error messages.
func describe(v any) string {
	switch x := v.(type) {
	case *managed.Object:
		return x.Class()
	case *managed.Array:
		return x.Descriptor().String()
	}
	return fmt.Sprintf("%T", v)
}

// at attaches the member and argument path to a validation error.
func at(err error, member string, path ...string) error {
	if e, ok := err.(*errors.Error); ok {
		if e.Member == "" {
			e.Member = member
		}
		if len(e.Path) == 0 {
			e.Path = path
		}
		if e.Phase == errors.PhaseMarshal {
			e.Phase = errors.PhaseDispatch
		}
	}
	return err
}
