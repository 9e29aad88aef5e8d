// Package jnibridge is the native-side marshaling core of a JNI-style
// managed/native boundary.
//
// The library converts values between a managed runtime and native code,
// manages the lifetime of array/string views and object references that
// cross the boundary, and dispatches calls to methods and fields by
// (class, name, signature).
//
// # Architecture Overview
//
//	jnibridge/        Root package with core Memory, Allocator and Heap interfaces
//	├── signature/    Type descriptor table and signature parsing
//	├── heap/         Native heap backed by a wazero linear memory
//	├── managed/      Managed-side object model (arrays, objects)
//	├── marshal/      Value marshaler (managed <-> native)
//	├── handle/       Generation-checked handle table
//	├── bridge/       Scoped array/string views with acquire/release discipline
//	├── refs/         Local and persistent object reference registry
//	├── dispatch/     Method/field binding tables and the dispatcher
//	├── runtime/      High-level facade and configuration
//	├── fixtures/     Test-fixture classes expressed as binding tables
//	├── errors/       Structured error types
//	└── cmd/jnicall/  CLI and TUI for invoking fixture bindings
//
// # Quick Start
//
//	const class = "example/Counter"
//	count := dispatch.Key{Owner: class, Name: "count", Signature: "J"}
//
//	b := dispatch.NewBuilder()
//	b.Class(class).
//		StaticField("count", "J", int64(-1)).
//		StaticMethod("add", "(J)V", func(ctx context.Context, env *dispatch.Env, _ marshal.Native, args []marshal.Native) (marshal.Native, error) {
//			cur, err := env.GetField(count, marshal.NullOf(nil))
//			if err != nil {
//				return marshal.Native{}, err
//			}
//			return marshal.Void, env.SetField(count, marshal.NullOf(nil), marshal.Long(cur.Long()+args[0].Long()))
//		})
//	table, err := b.Build()
//
//	rt, err := runtime.New(ctx, table, nil)
//	defer rt.Close(ctx)
//
//	_, err = rt.Invoke(ctx, dispatch.Key{Owner: class, Name: "add", Signature: "(J)V"}, nil, int64(2))
//	v, err := rt.GetField(ctx, count, nil) // int64(1)
//
// # Lifetime Rules
//
// Every view acquired during a call is released exactly once, in LIFO
// order, before the call returns, including when the native entry point
// fails. Releasing twice fails with DoubleRelease; touching a released
// handle fails with UseAfterRelease. Both are programming errors.
//
// # Thread Safety
//
// Descriptor and binding tables are immutable after construction and shared
// freely. The reference registry, view tables and heap are mutex-protected.
// Each boundary crossing runs synchronously on the calling goroutine.
package jnibridge
