package dispatch

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/wippyai/jni-bridge/errors"
	"github.com/wippyai/jni-bridge/signature"
)

// Builder collects class, method and field registrations. Errors are
// collected and reported by Build.
type Builder struct {
	classes map[string]*ClassBuilder
	order   []string
	errs    error
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{classes: make(map[string]*ClassBuilder)}
}

// Class returns the builder of class name, creating it on first use.
func (b *Builder) Class(name string) *ClassBuilder {
	if c, ok := b.classes[name]; ok {
		return c
	}
	c := &ClassBuilder{b: b, name: name, super: signature.ObjectClass}
	if name == signature.ObjectClass {
		c.super = ""
	}
	b.classes[name] = c
	b.order = append(b.order, name)
	return c
}

// ClassBuilder registers the members of one class.
type ClassBuilder struct {
	b       *Builder
	name    string
	super   string
	methods []*MethodBinding
	fields  []*FieldBinding
}

// Extends sets the superclass. Classes extend java/lang/Object by default.
func (c *ClassBuilder) Extends(super string) *ClassBuilder {
	c.super = super
	return c
}

// StaticField registers a static field with its initial value.
func (c *ClassBuilder) StaticField(name, sig string, initial any) *ClassBuilder {
	return c.field(name, sig, initial, true)
}

// Field registers an instance field. initial is the value new objects
// start with; nil means the zero value of the field type.
func (c *ClassBuilder) Field(name, sig string, initial any) *ClassBuilder {
	return c.field(name, sig, initial, false)
}

// StaticMethod registers a static method.
func (c *ClassBuilder) StaticMethod(name, sig string, entry EntryPoint) *ClassBuilder {
	return c.method(name, sig, entry, true, false)
}

// Method registers an instance method.
func (c *ClassBuilder) Method(name, sig string, entry EntryPoint) *ClassBuilder {
	return c.method(name, sig, entry, false, false)
}

// NativeMethod declares an instance method whose entry point is supplied
// later through Table.RegisterNatives.
func (c *ClassBuilder) NativeMethod(name, sig string) *ClassBuilder {
	return c.method(name, sig, nil, false, true)
}

// StaticNativeMethod declares a static native method.
func (c *ClassBuilder) StaticNativeMethod(name, sig string) *ClassBuilder {
	return c.method(name, sig, nil, true, true)
}

// Constructor registers an <init> method. The signature must return void.
func (c *ClassBuilder) Constructor(sig string, entry EntryPoint) *ClassBuilder {
	return c.method(signature.ConstructorName, sig, entry, false, false)
}

func (c *ClassBuilder) method(name, sig string, entry EntryPoint, static, native bool) *ClassBuilder {
	ms, err := signature.ParseMethod(sig)
	if err != nil {
		c.fail(name+sig, err)
		return c
	}
	if name == signature.ConstructorName && !ms.IsVoid() {
		c.fail(name+sig, errors.InvalidInput(errors.PhaseBuild, "constructor must return void"))
		return c
	}
	if entry == nil && !native {
		c.fail(name+sig, errors.InvalidInput(errors.PhaseBuild, "missing entry point"))
		return c
	}
	c.methods = append(c.methods, &MethodBinding{
		Owner:     c.name,
		Name:      name,
		Signature: sig,
		Sig:       ms,
		Entry:     entry,
		Static:    static,
		Native:    native,
	})
	return c
}

func (c *ClassBuilder) field(name, sig string, initial any, static bool) *ClassBuilder {
	d, err := signature.ParseField(sig)
	if err != nil {
		c.fail(name+":"+sig, err)
		return c
	}
	v, err := normalize(initial, d)
	if err != nil {
		c.fail(name+":"+sig, err)
		return c
	}
	c.fields = append(c.fields, &FieldBinding{
		Owner:     c.name,
		Name:      name,
		Signature: sig,
		Desc:      d,
		Initial:   v,
		Static:    static,
	})
	return c
}

func (c *ClassBuilder) fail(member string, err error) {
	if e, ok := err.(*errors.Error); ok && e.Member == "" {
		e.Member = c.name + "." + member
	}
	c.b.errs = multierr.Append(c.b.errs, err)
}

// Build freezes the registrations into a Table. Duplicate keys fail with
// DuplicateBinding. An instance field may not hide an instance field of a
// superclass.
func (b *Builder) Build() (*Table, error) {
	errs := b.errs
	t := &Table{
		classes: make(map[string]*Class, len(b.classes)),
		methods: make(map[Key]*MethodBinding),
		fields:  make(map[Key]*FieldBinding),
		statics: make(map[Key]*staticSlot),
		natives: make(map[Key]EntryPoint),
	}

	for _, name := range b.order {
		cb := b.classes[name]
		if cb.super == name {
			errs = multierr.Append(errs, errors.InvalidInput(errors.PhaseBuild, fmt.Sprintf("class %s extends itself", name)))
			continue
		}
		t.classes[name] = &Class{Name: name, Super: cb.super}

		for _, m := range cb.methods {
			k := m.Key()
			if _, dup := t.methods[k]; dup {
				errs = multierr.Append(errs, errors.DuplicateBinding(k.String()))
				continue
			}
			t.methods[k] = m
			if m.Native {
				t.nativeCount++
			}
		}
		for _, f := range cb.fields {
			k := f.Key()
			if _, dup := t.fields[k]; dup {
				errs = multierr.Append(errs, errors.DuplicateBinding(k.String()))
				continue
			}
			t.fields[k] = f
			if f.Static {
				t.statics[k] = &staticSlot{value: f.Initial}
			}
		}
	}

	if err := t.checkHierarchy(); err != nil {
		errs = multierr.Append(errs, err)
	} else if err := t.checkHiding(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if errs != nil {
		return nil, errs
	}
	return t, nil
}
