// Package fixtures provides the managed test classes as binding tables.
//
//	StaticClass    static fields of every category, getters, setters and a
//	               nine-argument void method
//	InstanceClass  the same as instance members, plus two constructors and
//	               an object-valued field
//	ObjectClass    boxed java/lang/Integer values, Number returns and
//	               native callbacks
//	NativeClass    managed methods forwarding to native counterparts that
//	               echo their input
//
// Each table constructor returns an independent snapshot: static fields
// and initial arrays are fresh per table.
package fixtures
