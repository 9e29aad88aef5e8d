// Package runtime wires the boundary core into one value.
//
// A Runtime owns a native heap, an object reference registry and a
// dispatcher over a frozen binding table:
//
//	table, _ := fixtures.StaticTable()
//	rt, err := runtime.New(ctx, table, &runtime.Config{
//	    HeapLimitPages: 256,
//	    StringEncoding: marshal.EncodingUTF16,
//	    Logger:         logger,
//	})
//	defer rt.Close(ctx)
//
//	v, err := rt.Invoke(ctx, dispatch.Key{Owner: fixtures.StaticClass, Name: "getLong", Signature: "()J"}, nil)
//
// A nil Config selects defaults: a 4096-page heap limit, modified UTF-8
// strings and the packages' no-op loggers.
package runtime
