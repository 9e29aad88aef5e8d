package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/wippyai/jni-bridge/dispatch"
	"github.com/wippyai/jni-bridge/managed"
	"github.com/wippyai/jni-bridge/runtime"
	"github.com/wippyai/jni-bridge/signature"
)

// parseValue converts command line text to a managed value of d. Arrays
// are space separated elements; "null" is the null reference.
func parseValue(s string, d *signature.Descriptor) (any, error) {
	if !d.IsPrimitive() && s == "null" {
		return nil, nil
	}
	switch d.Category {
	case signature.CategoryBool:
		return strconv.ParseBool(s)
	case signature.CategoryByte:
		v, err := strconv.ParseInt(s, 0, 8)
		return int8(v), err
	case signature.CategoryChar:
		if r := []rune(s); len(r) == 1 && r[0] <= 0xFFFF {
			return uint16(r[0]), nil
		}
		v, err := strconv.ParseUint(s, 0, 16)
		return uint16(v), err
	case signature.CategoryShort:
		v, err := strconv.ParseInt(s, 0, 16)
		return int16(v), err
	case signature.CategoryInt:
		v, err := strconv.ParseInt(s, 0, 32)
		return int32(v), err
	case signature.CategoryLong:
		v, err := strconv.ParseInt(s, 0, 64)
		return v, err
	case signature.CategoryFloat:
		v, err := strconv.ParseFloat(s, 32)
		return float32(v), err
	case signature.CategoryDouble:
		return strconv.ParseFloat(s, 64)
	case signature.CategoryString:
		return s, nil
	case signature.CategoryArray:
		return parseArray(s, d.Elem)
	}
	return nil, fmt.Errorf("cannot enter a %s on the command line", d)
}

func parseArray(s string, elem *signature.Descriptor) (*managed.Array, error) {
	parts := strings.Fields(s)
	arr, err := managed.NewArray(elem, len(parts))
	if err != nil {
		return nil, err
	}
	for i, p := range parts {
		v, err := parseValue(p, elem)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		if err := arr.Set(i, v); err != nil {
			return nil, err
		}
	}
	return arr, nil
}

// parseArgs splits a comma separated argument list by the method's
// parameters.
func parseArgs(raw string, params []*signature.Descriptor) ([]any, error) {
	var parts []string
	if raw != "" || len(params) == 1 {
		parts = strings.Split(raw, ",")
	}
	if len(parts) != len(params) {
		return nil, fmt.Errorf("want %d arguments, got %d", len(params), len(parts))
	}
	args := make([]any, len(params))
	for i, p := range params {
		v, err := parseValue(parts[i], p)
		if err != nil {
			return nil, fmt.Errorf("argument %d (%s): %w", i, p, err)
		}
		args[i] = v
	}
	return args, nil
}

// formatValue renders a managed value for display.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(x)
	case uint16:
		return strconv.QuoteRune(rune(x))
	case *managed.Array:
		return x.String()
	case *managed.Object:
		return x.String()
	}
	return fmt.Sprint(v)
}

// findMethod resolves "owner.name" and an optional signature against the
// table. Without a signature the name must be unambiguous.
func findMethod(t *dispatch.Table, member, sig string) (*dispatch.MethodBinding, error) {
	dot := strings.LastIndexByte(member, '.')
	if dot <= 0 || dot == len(member)-1 {
		return nil, fmt.Errorf("member %q is not Owner.name", member)
	}
	owner, name := member[:dot], member[dot+1:]
	if sig != "" {
		return t.Method(dispatch.Key{Owner: owner, Name: name, Signature: sig})
	}

	var found []*dispatch.MethodBinding
	for _, m := range t.Methods() {
		if m.Owner == owner && m.Name == name {
			found = append(found, m)
		}
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("no method %s", member)
	case 1:
		return found[0], nil
	}
	sigs := make([]string, len(found))
	for i, m := range found {
		sigs[i] = m.Signature
	}
	return nil, fmt.Errorf("%s is overloaded, pick one with -sig: %s", member, strings.Join(sigs, " "))
}

// newTarget constructs a receiver for an instance method of class. It
// prefers the no-argument constructor and otherwise passes zero values.
func newTarget(ctx context.Context, rt *runtime.Runtime, class string) (*managed.Object, error) {
	var ctors []*dispatch.MethodBinding
	for _, m := range rt.Table().Methods() {
		if m.Owner == class && m.IsConstructor() {
			ctors = append(ctors, m)
		}
	}
	if len(ctors) == 0 {
		return rt.NewObject(ctx, class, "()V")
	}
	sort.SliceStable(ctors, func(i, j int) bool { return len(ctors[i].Sig.Params) < len(ctors[j].Sig.Params) })

	c := ctors[0]
	args := make([]any, len(c.Sig.Params))
	for i, p := range c.Sig.Params {
		args[i] = zeroArg(p)
	}
	return rt.NewObject(ctx, class, c.Signature, args...)
}

func zeroArg(d *signature.Descriptor) any {
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
	if d.IsPrimitiveArray() {
		arr, _ := managed.NewArray(d.Elem, 0)
		return arr
	}
	return nil
}

// describeMethod renders a binding as "static R owner.name(P, Q)".
func describeMethod(m *dispatch.MethodBinding) string {
	params := make([]string, len(m.Sig.Params))
	for i, p := range m.Sig.Params {
		params[i] = p.String()
	}
	prefix := ""
	switch {
	case m.Static:
		prefix = "static "
	case m.Native:
		prefix = "native "
	}
	if m.IsConstructor() {
		return fmt.Sprintf("%s%s(%s)", prefix, m.Owner, strings.Join(params, ", "))
	}
	return fmt.Sprintf("%s%s %s.%s(%s)", prefix, m.Sig.Return, m.Owner, m.Name, strings.Join(params, ", "))
}
