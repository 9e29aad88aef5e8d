package managed

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Object is a managed object instance: a class path plus named fields.
type Object struct {
	fields map[string]any
	class  string
	mu     sync.RWMutex
}

// NewObject creates an instance of class with the given field values.
func NewObject(class string, fields map[string]any) *Object {
	o := &Object{class: class, fields: make(map[string]any, len(fields))}
	for k, v := range fields {
		o.fields[k] = v
	}
	return o
}

// Class returns the slash-separated class path.
func (o *Object) Class() string {
	return o.class
}

// Field returns the value of a field.
func (o *Object) Field(name string) (any, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	v, ok := o.fields[name]
	return v, ok
}

// SetField stores a field value.
func (o *Object) SetField(name string, v any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fields[name] = v
}

func (o *Object) String() string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	names := make([]string, 0, len(o.fields))
	for k := range o.fields {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(strings.ReplaceAll(o.class, "/", "."))
	b.WriteByte('{')
	for i, k := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		if ref, ok := o.fields[k].(*Object); ok && ref != nil {
			fmt.Fprintf(&b, "%s=%s@%p", k, ref.class, ref)
			continue
		}
		fmt.Fprintf(&b, "%s=%v", k, o.fields[k])
	}
	b.WriteByte('}')
	return b.String()
}
