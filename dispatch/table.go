package dispatch

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"

	"github.com/wippyai/jni-bridge/errors"
	"github.com/wippyai/jni-bridge/signature"
)

// Table is a frozen set of bindings. Lookups are lock-free except for
// native entry points, which may be registered until the first call.
type Table struct {
	classes     map[string]*Class
	methods     map[Key]*MethodBinding
	fields      map[Key]*FieldBinding
	statics     map[Key]*staticSlot
	natives     map[Key]EntryPoint
	nativeCount int
	nativesMu   sync.RWMutex
	sealed      atomic.Bool
}

// NativeMethod supplies the entry point of a method declared native.
type NativeMethod struct {
	Entry     EntryPoint
	Name      string
	Signature string
}

// Class returns a copy of a registered class.
func (t *Table) Class(name string) (*Class, bool) {
	c, ok := t.classes[name]
	if !ok {
		return nil, false
	}
	cp := *c
	return &cp, true
}

// Classes returns copies of every registered class sorted by name.
func (t *Table) Classes() []*Class {
	out := make([]*Class, 0, len(t.classes))
	for _, c := range t.classes {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Methods returns copies of every method binding sorted by key.
func (t *Table) Methods() []*MethodBinding {
	out := make([]*MethodBinding, 0, len(t.methods))
	for _, m := range t.methods {
		out = append(out, m.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key().String() < out[j].Key().String() })
	return out
}

// Fields returns copies of every field binding sorted by key.
func (t *Table) Fields() []*FieldBinding {
	out := make([]*FieldBinding, 0, len(t.fields))
	for _, f := range t.fields {
		out = append(out, f.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key().String() < out[j].Key().String() })
	return out
}

// Method resolves a method binding and returns a copy of it. Members
// inherited from a superclass resolve through the subclass. Constructors
// are not inherited.
func (t *Table) Method(k Key) (*MethodBinding, error) {
	m, err := t.method(k)
	if err != nil {
		return nil, err
	}
	return m.clone(), nil
}

// Field resolves a field binding, walking superclasses, and returns a copy
// of it.
func (t *Table) Field(k Key) (*FieldBinding, error) {
	f, err := t.field(k)
	if err != nil {
		return nil, err
	}
	return f.clone(), nil
}

func (t *Table) method(k Key) (*MethodBinding, error) {
	if m, ok := t.methods[k]; ok {
		return m, nil
	}
	if k.Name != signature.ConstructorName {
		for owner := t.super(k.Owner); owner != ""; owner = t.super(owner) {
			if m, ok := t.methods[Key{Owner: owner, Name: k.Name, Signature: k.Signature}]; ok {
				return m, nil
			}
		}
	}
	return nil, errors.BindingNotFound("method", k.String())
}

func (t *Table) field(k Key) (*FieldBinding, error) {
	for owner := k.Owner; owner != ""; owner = t.super(owner) {
		if f, ok := t.fields[Key{Owner: owner, Name: k.Name, Signature: k.Signature}]; ok {
			return f, nil
		}
	}
	return nil, errors.BindingNotFound("field", k.String())
}

// IsAssignable reports whether an instance of class sub may be used where
// class super is expected.
func (t *Table) IsAssignable(sub, super string) bool {
	if super == signature.ObjectClass {
		return true
	}
	for c := sub; c != ""; c = t.super(c) {
		if c == super {
			return true
		}
	}
	return false
}

// RegisterNatives supplies entry points for methods of class declared
// native. It fails once the table has served a call.
func (t *Table) RegisterNatives(class string, methods ...NativeMethod) error {
	if t.sealed.Load() {
		return errors.InvalidInput(errors.PhaseBuild, "natives must be registered before the first call")
	}

	resolved := make(map[Key]EntryPoint, len(methods))
	for _, nm := range methods {
		k := Key{Owner: class, Name: nm.Name, Signature: nm.Signature}
		m, ok := t.methods[k]
		if !ok {
			return errors.BindingNotFound("native method", k.String())
		}
		if !m.Native {
			return errors.New(errors.PhaseBuild, errors.KindInvalidInput).
				Member(k.String()).
				Detail("method is not declared native").
				Build()
		}
		if nm.Entry == nil {
			return errors.New(errors.PhaseBuild, errors.KindInvalidInput).
				Member(k.String()).
				Detail("missing entry point").
				Build()
		}
		resolved[k] = nm.Entry
	}

	t.nativesMu.Lock()
	defer t.nativesMu.Unlock()
	for k, e := range resolved {
		t.natives[k] = e
	}
	return nil
}

// UnboundNatives returns the keys of native methods with no entry point.
func (t *Table) UnboundNatives() []Key {
	t.nativesMu.RLock()
	defer t.nativesMu.RUnlock()
	if len(t.natives) == t.nativeCount {
		return nil
	}
	var out []Key
	for k, m := range t.methods {
		if _, ok := t.natives[k]; m.Native && !ok {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func (t *Table) entry(m *MethodBinding) (EntryPoint, error) {
	if !m.Native {
		return m.Entry, nil
	}
	t.nativesMu.RLock()
	e, ok := t.natives[m.Key()]
	t.nativesMu.RUnlock()
	if !ok {
		return nil, errors.BindingNotFound("native implementation", m.Key().String())
	}
	return e, nil
}

func (t *Table) seal() {
	t.sealed.Store(true)
}

func (t *Table) slot(k Key) *staticSlot {
	return t.statics[k]
}

// super returns the superclass of class, or "" at the root. Classes not
// in the table extend java/lang/Object.
func (t *Table) super(class string) string {
	if class == signature.ObjectClass || class == "" {
		return ""
	}
	if c, ok := t.classes[class]; ok {
		return c.Super
	}
	return signature.ObjectClass
}

func (t *Table) checkHierarchy() error {
	for name := range t.classes {
		seen := map[string]bool{}
		for c := name; c != ""; c = t.super(c) {
			if seen[c] {
				return errors.InvalidInput(errors.PhaseBuild, fmt.Sprintf("class hierarchy of %s has a cycle", name))
			}
			seen[c] = true
		}
	}
	return nil
}

// checkHiding rejects instance fields that reuse the name of an instance
// field of a superclass. Objects hold one slot per field name.
func (t *Table) checkHiding() error {
	byOwner := make(map[string]map[string]*FieldBinding)
	for _, f := range t.fields {
		if f.Static {
			continue
		}
		if byOwner[f.Owner] == nil {
			byOwner[f.Owner] = make(map[string]*FieldBinding)
		}
		byOwner[f.Owner][f.Name] = f
	}

	keys := make([]Key, 0, len(t.fields))
	for k := range t.fields {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	var errs error
	for _, k := range keys {
		f := t.fields[k]
		if f.Static {
			continue
		}
		for owner := t.super(f.Owner); owner != ""; owner = t.super(owner) {
			if hidden, ok := byOwner[owner][f.Name]; ok {
				errs = multierr.Append(errs, errors.New(errors.PhaseBuild, errors.KindInvalidInput).
					Member(f.Key().String()).
					Detail("field hides %s", hidden.Key().String()).
					Build())
				break
			}
		}
	}
	return errs
}
