package dispatch

import (
	"context"
	"sync"

	"github.com/wippyai/jni-bridge/managed"
	"github.com/wippyai/jni-bridge/marshal"
	"github.com/wippyai/jni-bridge/signature"
)

// Key identifies a method or field binding.
type Key struct {
	Owner     string
	Name      string
	Signature string
}

func (k Key) String() string {
	return k.Owner + "." + k.Name + k.Signature
}

// EntryPoint is the native implementation of a method. this is the null
// native for static methods. The returned value must match the method's
// return type; void methods return marshal.Void.
type EntryPoint func(ctx context.Context, env *Env, this marshal.Native, args []marshal.Native) (marshal.Native, error)

// MethodBinding is a resolved method. Bindings handed out by a Table are
// copies; changing them does not change the table.
type MethodBinding struct {
	Sig       *signature.MethodSignature
	Entry     EntryPoint
	Owner     string
	Name      string
	Signature string
	Static    bool
	Native    bool
}

// Key returns the binding's lookup key.
func (m *MethodBinding) Key() Key {
	return Key{Owner: m.Owner, Name: m.Name, Signature: m.Signature}
}

func (m *MethodBinding) clone() *MethodBinding {
	cp := *m
	return &cp
}

// IsConstructor reports whether m is an <init> binding.
func (m *MethodBinding) IsConstructor() bool {
	return m.Name == signature.ConstructorName
}

// FieldBinding is a resolved field.
type FieldBinding struct {
	Initial   any
	Desc      *signature.Descriptor
	Owner     string
	Name      string
	Signature string
	Static    bool
}

// Key returns the binding's lookup key.
func (f *FieldBinding) Key() Key {
	return Key{Owner: f.Owner, Name: f.Name, Signature: f.Signature}
}

func (f *FieldBinding) clone() *FieldBinding {
	cp := *f
	if arr, ok := f.Initial.(*managed.Array); ok {
		cp.Initial = arr.Clone()
	}
	return &cp
}

// staticSlot holds the value of one static field.
type staticSlot struct {
	value any
	mu    sync.Mutex
}

func (s *staticSlot) load() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

func (s *staticSlot) store(v any) {
	s.mu.Lock()
	s.value = v
	s.mu.Unlock()
}

// Class describes one registered class.
type Class struct {
	Name  string
	Super string
}
