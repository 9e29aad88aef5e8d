// Package dispatch routes calls and field accesses across the boundary.
//
// Bindings are registered explicitly with a Builder and frozen into a
// Table:
//
//	b := dispatch.NewBuilder()
//	c := b.Class("com/example/Counter")
//	c.StaticField("total", "J", int64(0))
//	c.StaticMethod("add", "(JJ)J", func(ctx context.Context, env *dispatch.Env, this marshal.Native, args []marshal.Native) (marshal.Native, error) {
//	    return marshal.Long(args[0].Long() + args[1].Long()), nil
//	})
//	table, err := b.Build()
//
// A Dispatcher executes calls against the table:
//
//	d := dispatch.New(table, marshaler, registry)
//	v, err := d.Invoke(ctx, dispatch.Key{Owner: "com/example/Counter", Name: "add", Signature: "(JJ)J"}, nil, int64(1), int64(2))
//
// # Call sequence
//
//	validate    binding, target, arity and every argument; no side effects
//	marshal     arguments in declaration order; arrays and strings as views
//	invoke      the entry point with an Env for callbacks
//	convert     the result to managed form
//	release     views most recent first (write back on success), then locals
//
// Views and locals are released on every exit path. An entry point failure
// is reported as NativeInvocationFailed, combined with any release failure.
//
// # Static fields
//
// Static fields live in slots created when the table is built. Each slot
// has its own lock, held only inside the dispatcher.
package dispatch
