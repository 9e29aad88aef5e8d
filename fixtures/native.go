package fixtures

import (
	"context"
	"strings"

	"github.com/wippyai/jni-bridge/dispatch"
	"github.com/wippyai/jni-bridge/marshal"
	"github.com/wippyai/jni-bridge/signature"
)

// NativeClass forwards each managed method to a native counterpart.
const NativeClass = "fixtures/NativeClass"

// Hooks observe the fixture native entry points. A nil OnNative is
// ignored.
type Hooks struct {
	OnNative func(name string, args []marshal.Native)
}

func (h Hooks) called(name string, args []marshal.Native) {
	if h.OnNative != nil {
		h.OnNative(name, args)
	}
}

// echoed lists the value categories NativeClass round-trips.
func echoed() (names, sigs []string) {
	for _, k := range kinds {
		names = append(names, lowerFirst(k.name))
		sigs = append(sigs, k.sig)
	}
	names = append(names, "string")
	sigs = append(sigs, stringSig)
	for _, k := range kinds {
		names = append(names, lowerFirst(k.name)+"Array")
		sigs = append(sigs, k.arraySig())
	}
	return names, sigs
}

// RegisterNative adds NativeClass to b. The native methods are bound
// with BindNatives.
func RegisterNative(b *dispatch.Builder) {
	c := b.Class(NativeClass)
	c.Field("nativePtr", "J", int64(0))
	c.Constructor("(J)V", assigner(dispatch.Key{Owner: NativeClass, Name: "nativePtr", Signature: "J"}))

	names, sigs := echoed()
	for i, name := range names {
		sig := "(" + sigs[i] + ")" + sigs[i]
		native := "native" + upperFirst(name) + "Method"
		c.NativeMethod(native, sig)
		c.Method(name+"Method", sig, forward(dispatch.Key{Owner: NativeClass, Name: native, Signature: sig}))
	}

	c.NativeMethod("nativeVoidMethodNoArgs", "()V")
	c.NativeMethod("nativeVoidMethod", voidMethodSig)
	c.Method("voidMethodNoArgs", "()V", forward(dispatch.Key{Owner: NativeClass, Name: "nativeVoidMethodNoArgs", Signature: "()V"}))
	c.Method("voidMethod", voidMethodSig, forward(dispatch.Key{Owner: NativeClass, Name: "nativeVoidMethod", Signature: voidMethodSig}))
}

// NativeEchoes returns the native implementations of NativeClass. Each
// returns its argument: primitives as is, strings and arrays as new
// values built on the native side.
func NativeEchoes(hooks Hooks) []dispatch.NativeMethod {
	var out []dispatch.NativeMethod
	names, sigs := echoed()
	for i, name := range names {
		native := "native" + upperFirst(name) + "Method"
		desc, _ := signature.Resolve(sigs[i])
		out = append(out, dispatch.NativeMethod{
			Name:      native,
			Signature: "(" + sigs[i] + ")" + sigs[i],
			Entry:     echo(native, desc, hooks),
		})
	}
	record := func(name string) dispatch.EntryPoint {
		return func(_ context.Context, _ *dispatch.Env, _ marshal.Native, args []marshal.Native) (marshal.Native, error) {
			hooks.called(name, args)
			return marshal.Void, nil
		}
	}
	return append(out,
		dispatch.NativeMethod{Name: "nativeVoidMethodNoArgs", Signature: "()V", Entry: record("nativeVoidMethodNoArgs")},
		dispatch.NativeMethod{Name: "nativeVoidMethod", Signature: voidMethodSig, Entry: record("nativeVoidMethod")},
	)
}

func echo(name string, d *signature.Descriptor, hooks Hooks) dispatch.EntryPoint {
	return func(_ context.Context, env *dispatch.Env, _ marshal.Native, args []marshal.Native) (marshal.Native, error) {
		hooks.called(name, args)
		in := args[0]
		switch {
		case in.Null || d.IsPrimitive():
			return in, nil
		case d.Category == signature.CategoryString:
			s, err := env.String(in)
			if err != nil {
				return marshal.Native{}, err
			}
			return env.NewString(s)
		}
		return copyArray(env, in, d.Elem)
	}
}

// copyArray builds a new array on the native side with the contents of
// in.
func copyArray(env *dispatch.Env, in marshal.Native, elem *signature.Descriptor) (marshal.Native, error) {
	src, err := env.View(in)
	if err != nil {
		return marshal.Native{}, err
	}
	n, err := src.Len()
	if err != nil {
		return marshal.Native{}, err
	}
	out, err := env.NewArray(elem, n)
	if err != nil {
		return marshal.Native{}, err
	}
	dst, err := env.View(out)
	if err != nil {
		return marshal.Native{}, err
	}
	for i := 0; i < n; i++ {
		v, err := src.Get(i)
		if err != nil {
			return marshal.Native{}, err
		}
		if err := dst.Set(i, v); err != nil {
			return marshal.Native{}, err
		}
	}
	return out, nil
}

// forward calls native code with the method's own arguments.
func forward(native dispatch.Key) dispatch.EntryPoint {
	return func(_ context.Context, env *dispatch.Env, this marshal.Native, args []marshal.Native) (marshal.Native, error) {
		return env.Call(native, this, args...)
	}
}

func upperFirst(s string) string {
	return strings.ToUpper(s[:1]) + s[1:]
}
