package fixtures

import (
	"context"
	"fmt"
	"strconv"

	"github.com/wippyai/jni-bridge/dispatch"
	"github.com/wippyai/jni-bridge/managed"
	"github.com/wippyai/jni-bridge/marshal"
)

const (
	// ObjectClass exercises boxed values and native callbacks.
	ObjectClass = "fixtures/ObjectClass"
	// Integer and Number are the boxed integer class and its superclass.
	Integer = "java/lang/Integer"
	Number  = "java/lang/Number"

	integerSig = "L" + Integer + ";"
	numberSig  = "L" + Number + ";"
	integerOf  = "(I)V"
)

var intValue = dispatch.Key{Owner: Integer, Name: "intValue", Signature: "()I"}

// NewInteger returns a boxed int.
func NewInteger(v int32) *managed.Object {
	return managed.NewObject(Integer, map[string]any{"value": v})
}

// RegisterInteger adds java/lang/Number and java/lang/Integer to b.
func RegisterInteger(b *dispatch.Builder) {
	b.Class(Number).
		Method("intValue", "()I", func(context.Context, *dispatch.Env, marshal.Native, []marshal.Native) (marshal.Native, error) {
			return marshal.Native{}, fmt.Errorf("abstract method %s.intValue", Number)
		})

	value := dispatch.Key{Owner: Integer, Name: "value", Signature: "I"}
	b.Class(Integer).
		Extends(Number).
		Field("value", "I", nil).
		Constructor(integerOf, assigner(value)).
		Method("intValue", "()I", getter(value)).
		Method("toString", "()"+stringSig, func(_ context.Context, env *dispatch.Env, this marshal.Native, _ []marshal.Native) (marshal.Native, error) {
			v, err := env.GetField(value, this)
			if err != nil {
				return marshal.Native{}, err
			}
			return env.NewString(strconv.Itoa(int(v.Int())))
		}).
		StaticMethod("valueOf", "(I)"+integerSig, func(_ context.Context, env *dispatch.Env, _ marshal.Native, args []marshal.Native) (marshal.Native, error) {
			return env.NewObject(Integer, integerOf, args[0])
		}).
		StaticMethod("parseInt", "("+stringSig+")I", func(_ context.Context, env *dispatch.Env, _ marshal.Native, args []marshal.Native) (marshal.Native, error) {
			n, err := parseInt(env, args[0])
			if err != nil {
				return marshal.Native{}, err
			}
			return marshal.Int(n), nil
		})
}

// RegisterObject adds ObjectClass to b. It depends on RegisterInteger.
func RegisterObject(b *dispatch.Builder) {
	c := b.Class(ObjectClass)

	c.StaticField("intField", "I", int32(123))
	c.StaticField("stringField", stringSig, stringInitial)
	c.StaticField("integerField", integerSig, NewInteger(1234))

	c.Field("intMember", "I", int32(987))
	c.Field("stringMember", stringSig, "qwerty")
	c.Field("integerMember", integerSig, NewInteger(987654321))

	c.StaticMethod("testMethodStatic", "("+stringSig+")"+numberSig, boxParsed)
	c.StaticMethod("testMethod2Static", "("+stringSig+")V",
		assigner(dispatch.Key{Owner: ObjectClass, Name: "stringField", Signature: stringSig}))

	c.Constructor("()V", noop)
	c.Constructor("(I"+stringSig+")V", assigner(
		dispatch.Key{Owner: ObjectClass, Name: "intMember", Signature: "I"},
		dispatch.Key{Owner: ObjectClass, Name: "stringMember", Signature: stringSig},
	))

	c.Method("testMethod", "("+stringSig+")"+numberSig, boxParsed)
	c.Method("testMethod2", "("+stringSig+")V",
		assigner(dispatch.Key{Owner: ObjectClass, Name: "stringMember", Signature: stringSig}))

	nativeVoid := dispatch.Key{Owner: ObjectClass, Name: "nativeVoidMethod", Signature: "()V"}
	nativeString := dispatch.Key{Owner: ObjectClass, Name: "nativeMethod", Signature: "(" + integerSig + ")" + stringSig}
	c.NativeMethod(nativeVoid.Name, nativeVoid.Signature)
	c.NativeMethod(nativeString.Name, nativeString.Signature)

	c.Method("callNativeVoid", "()V", func(_ context.Context, env *dispatch.Env, this marshal.Native, _ []marshal.Native) (marshal.Native, error) {
		return env.Call(nativeVoid, this)
	})
	c.Method("callNative", "(I)I", func(_ context.Context, env *dispatch.Env, this marshal.Native, args []marshal.Native) (marshal.Native, error) {
		boxed, err := env.NewObject(Integer, integerOf, args[0])
		if err != nil {
			return marshal.Native{}, err
		}
		s, err := env.Call(nativeString, this, boxed)
		if err != nil {
			return marshal.Native{}, err
		}
		n, err := parseInt(env, s)
		if err != nil {
			return marshal.Native{}, err
		}
		return marshal.Int(n), nil
	})
}

// ObjectNatives returns the native implementations of ObjectClass.
func ObjectNatives(hooks Hooks) []dispatch.NativeMethod {
	return []dispatch.NativeMethod{
		{
			Name:      "nativeVoidMethod",
			Signature: "()V",
			Entry: func(_ context.Context, _ *dispatch.Env, _ marshal.Native, args []marshal.Native) (marshal.Native, error) {
				hooks.called("nativeVoidMethod", args)
				return marshal.Void, nil
			},
		},
		{
			Name:      "nativeMethod",
			Signature: "(" + integerSig + ")" + stringSig,
			Entry: func(_ context.Context, env *dispatch.Env, _ marshal.Native, args []marshal.Native) (marshal.Native, error) {
				hooks.called("nativeMethod", args)
				v, err := env.Call(intValue, args[0])
				if err != nil {
					return marshal.Native{}, err
				}
				return env.NewString(strconv.Itoa(int(v.Int())))
			},
		},
	}
}

// boxParsed parses its string argument and returns it boxed.
func boxParsed(_ context.Context, env *dispatch.Env, _ marshal.Native, args []marshal.Native) (marshal.Native, error) {
	n, err := parseInt(env, args[0])
	if err != nil {
		return marshal.Native{}, err
	}
	return env.NewObject(Integer, integerOf, marshal.Int(n))
}

func parseInt(env *dispatch.Env, s marshal.Native) (int32, error) {
	str, err := env.String(s)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(str, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", str, err)
	}
	return int32(n), nil
}
