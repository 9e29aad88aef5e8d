// Package heap provides the native heap of the bridge.
//
// Native buffers for strings and arrays live in a wazero linear memory
// instantiated from a memory-only module. Pointers are offsets into that
// memory; offset 0 is reserved as null.
//
//	h, err := heap.New(ctx, &heap.Config{LimitPages: 256})
//	defer h.Close(ctx)
//
//	ptr, err := h.Alloc(40, 4)
//	_ = h.Write(ptr, buf)
//	h.Free(ptr, 40, 4)
//
// The allocator is first-fit over a coalescing free list with a bump
// pointer, growing memory one or more 64KiB pages at a time up to the
// configured limit. All access is serialized so concurrent calls on
// independent goroutines are safe, including across memory growth.
package heap
