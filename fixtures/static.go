package fixtures

import (
	"github.com/wippyai/jni-bridge/dispatch"
)

// StaticClass is the class with static members only.
const StaticClass = "fixtures/StaticClass"

// RegisterStatic adds StaticClass to b.
func RegisterStatic(b *dispatch.Builder) {
	c := b.Class(StaticClass)
	fields(c, true, 0xFFFFFFFFFFFFFF)
	accessors(c, StaticClass, true)

	c.StaticMethod("voidMethodNoArgs", "()V", noop)
	c.StaticMethod("voidMethod", voidMethodSig, assigner(nineFields(StaticClass)...))
}

// nineFields returns the keys voidMethod assigns on owner.
func nineFields(owner string) []dispatch.Key {
	sigs := make([]string, 0, len(kinds)+1)
	for _, k := range kinds {
		sigs = append(sigs, k.sig)
	}
	sigs = append(sigs, stringSig)
	return fieldKeys(owner, voidMethodFields(), sigs)
}
