package fixtures

import (
	"github.com/wippyai/jni-bridge/dispatch"
)

// StaticTable builds a table holding StaticClass.
func StaticTable() (*dispatch.Table, error) {
	b := dispatch.NewBuilder()
	RegisterStatic(b)
	return b.Build()
}

// InstanceTable builds a table holding InstanceClass.
func InstanceTable() (*dispatch.Table, error) {
	b := dispatch.NewBuilder()
	RegisterInstance(b)
	return b.Build()
}

// ObjectTable builds a table holding ObjectClass and the boxed integer
// classes. Natives are left unbound.
func ObjectTable() (*dispatch.Table, error) {
	b := dispatch.NewBuilder()
	RegisterInteger(b)
	RegisterObject(b)
	return b.Build()
}

// NativeTable builds a table holding NativeClass. Natives are left
// unbound.
func NativeTable() (*dispatch.Table, error) {
	b := dispatch.NewBuilder()
	RegisterNative(b)
	return b.Build()
}

// BindNatives registers the fixture native methods of every fixture
// class present in t.
func BindNatives(t *dispatch.Table, hooks Hooks) error {
	if _, ok := t.Class(ObjectClass); ok {
		if err := t.RegisterNatives(ObjectClass, ObjectNatives(hooks)...); err != nil {
			return err
		}
	}
	if _, ok := t.Class(NativeClass); ok {
		if err := t.RegisterNatives(NativeClass, NativeEchoes(hooks)...); err != nil {
			return err
		}
	}
	return nil
}

// All builds one table with every fixture class and its natives bound.
func All() (*dispatch.Table, error) {
	b := dispatch.NewBuilder()
	RegisterStatic(b)
	RegisterInstance(b)
	RegisterInteger(b)
	RegisterObject(b)
	RegisterNative(b)
	t, err := b.Build()
	if err != nil {
		return nil, err
	}
	if err := BindNatives(t, Hooks{}); err != nil {
		return nil, err
	}
	return t, nil
}
