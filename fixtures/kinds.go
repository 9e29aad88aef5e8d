package fixtures

import (
	"context"
	"strings"

	"github.com/wippyai/jni-bridge/dispatch"
	"github.com/wippyai/jni-bridge/managed"
	"github.com/wippyai/jni-bridge/marshal"
)

// kind is one primitive category as the fixture classes use it.
type kind struct {
	initial any
	array   func() *managed.Array
	name    string
	sig     string
}

func (k kind) field() string { return lowerFirst(k.name) + "Field" }
func (k kind) arrayField() string { return lowerFirst(k.name) + "ArrayField" }
func (k kind) arraySig() string { return "[" + k.sig }

var kinds = []kind{
	{name: "Boolean", sig: "Z", initial: true, array: func() *managed.Array {
		return managed.Booleans(true, true)
	}},
	{name: "Byte", sig: "B", initial: int8(0x7F), array: func() *managed.Array {
		return managed.Bytes(0, 1, 2, 3, 4, 5, 6, 7, 8, 9)
	}},
	{name: "Char", sig: "C", initial: uint16('z'), array: func() *managed.Array {
		return managed.Chars('a', 'b', 'c', 'd')
	}},
	{name: "Short", sig: "S", initial: int16(0x7FFF), array: func() *managed.Array {
		return managed.Shorts(0, 1, 2, 3, 4, 5, 6, 7, 8, 9)
	}},
	{name: "Int", sig: "I", initial: int32(0x7FFFFFFF), array: func() *managed.Array {
		return managed.Ints(0, 1, 2, 3, 4, 5, 6, 7, 8, 9)
	}},
	{name: "Long", sig: "J", initial: int64(0xFFFFFFFFFFFFFF), array: func() *managed.Array {
		return managed.Longs(0, 1, 2, 3, 4, 5, 6, 7, 8, 9)
	}},
	{name: "Float", sig: "F", initial: float32(1), array: func() *managed.Array {
		return managed.Floats(0, 1, 2, 3, 4, 5, 6, 7, 8, 9)
	}},
	{name: "Double", sig: "D", initial: float64(2), array: func() *managed.Array {
		return managed.Doubles(0, 1, 2, 3, 4, 5, 6, 7, 8, 9)
	}},
}

const (
	stringSig     = "Ljava/lang/String;"
	stringInitial = "asdf"
	// voidMethodSig is the nine-argument primitive plus string signature.
	voidMethodSig = "(ZBCSIJFD" + stringSig + ")V"
)

// voidMethodFields are the fields voidMethod assigns, in argument order.
func voidMethodFields() []string {
	out := make([]string, 0, len(kinds)+1)
	for _, k := range kinds {
		out = append(out, k.field())
	}
	return append(out, "stringField")
}

// accessors registers get<Name> and set<Name> for every field of c, static
// or instance.
func accessors(c *dispatch.ClassBuilder, owner string, static bool) {
	add := c.Method
	if static {
		add = c.StaticMethod
	}
	reg := func(name, field, sig string) {
		k := dispatch.Key{Owner: owner, Name: field, Signature: sig}
		add("get"+name, "()"+sig, getter(k))
		add("set"+name, "("+sig+")V", assigner(k))
	}
	for _, k := range kinds {
		reg(k.name, k.field(), k.sig)
	}
	reg("String", "stringField", stringSig)
	for _, k := range kinds {
		reg(k.name+"Array", k.arrayField(), k.arraySig())
	}
}

// fields registers every category's field with its initial value.
func fields(c *dispatch.ClassBuilder, static bool, long int64) {
	add := c.Field
	if static {
		add = c.StaticField
	}
	for _, k := range kinds {
		v := k.initial
		if k.sig == "J" {
			v = long
		}
		add(k.field(), k.sig, v)
	}
	add("stringField", stringSig, stringInitial)
	for _, k := range kinds {
		add(k.arrayField(), k.arraySig(), k.array())
	}
}

func getter(field dispatch.Key) dispatch.EntryPoint {
	return func(_ context.Context, env *dispatch.Env, this marshal.Native, _ []marshal.Native) (marshal.Native, error) {
		return env.GetField(field, this)
	}
}

// assigner stores the arguments into fields, in order.
func assigner(fields ...dispatch.Key) dispatch.EntryPoint {
	return func(_ context.Context, env *dispatch.Env, this marshal.Native, args []marshal.Native) (marshal.Native, error) {
		for i, f := range fields {
			if err := env.SetField(f, this, args[i]); err != nil {
				return marshal.Native{}, err
			}
		}
		return marshal.Void, nil
	}
}

func noop(context.Context, *dispatch.Env, marshal.Native, []marshal.Native) (marshal.Native, error) {
	return marshal.Void, nil
}

func fieldKeys(owner string, names []string, sigs []string) []dispatch.Key {
	out := make([]dispatch.Key, len(names))
	for i := range names {
		out[i] = dispatch.Key{Owner: owner, Name: names[i], Signature: sigs[i]}
	}
	return out
}

func lowerFirst(s string) string {
	return strings.ToLower(s[:1]) + s[1:]
}
