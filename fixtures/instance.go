package fixtures

import (
	"context"

	"github.com/wippyai/jni-bridge/dispatch"
	"github.com/wippyai/jni-bridge/marshal"
)

const (
	// InstanceClass is the class with instance members only.
	InstanceClass = "fixtures/InstanceClass"
	// TestClass is the empty class held by InstanceClass.testClassField.
	TestClass = "fixtures/TestClass"

	testClassSig = "L" + TestClass + ";"
)

// InstanceConstructorSig is the signature of the constructor taking every
// field of InstanceClass.
var InstanceConstructorSig = func() string {
	sig := "(ZBCSIJFD" + stringSig
	for _, k := range kinds {
		sig += k.arraySig()
	}
	return sig + ")V"
}()

// RegisterInstance adds InstanceClass and TestClass to b.
func RegisterInstance(b *dispatch.Builder) {
	b.Class(TestClass)

	c := b.Class(InstanceClass)
	fields(c, false, -1)
	c.Field("testClassField", testClassSig, nil)
	accessors(c, InstanceClass, false)

	testClass := dispatch.Key{Owner: InstanceClass, Name: "testClassField", Signature: testClassSig}
	c.Method("getTestClass", "()"+testClassSig, getter(testClass))
	c.Method("setTestClass", "("+testClassSig+")V", assigner(testClass))

	c.Method("voidMethodNoArgs", "()V", noop)
	c.Method("voidMethod", voidMethodSig, assigner(nineFields(InstanceClass)...))

	c.Constructor("()V", withTestClass(testClass, noop))

	all := nineFields(InstanceClass)
	for _, k := range kinds {
		all = append(all, dispatch.Key{Owner: InstanceClass, Name: k.arrayField(), Signature: k.arraySig()})
	}
	c.Constructor(InstanceConstructorSig, withTestClass(testClass, assigner(all...)))
}

// withTestClass runs the field initialiser for testClassField before
// the constructor body.
func withTestClass(field dispatch.Key, body dispatch.EntryPoint) dispatch.EntryPoint {
	return func(ctx context.Context, env *dispatch.Env, this marshal.Native, args []marshal.Native) (marshal.Native, error) {
		obj, err := env.NewObject(TestClass, "()V")
		if err != nil {
			return marshal.Native{}, err
		}
		if err := env.SetField(field, this, obj); err != nil {
			return marshal.Native{}, err
		}
		return body(ctx, env, this, args)
	}
}
