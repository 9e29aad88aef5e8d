package heap

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	jnibridge "github.com/wippyai/jni-bridge"
	"github.com/wippyai/jni-bridge/errors"
)

const (
	pageSize = 65536

	// DefaultLimitPages caps the heap at 256MiB.
	DefaultLimitPages = 4096

	// DefaultInitialPages is the size of a fresh heap.
	DefaultInitialPages = 1

	// firstOffset keeps pointer 0 free to mean null.
	firstOffset = 8
)

// Config holds configuration for heap creation
type Config struct {
	// LimitPages is the maximum heap size in 64KiB pages.
	// 0 means DefaultLimitPages.
	LimitPages uint32

	// InitialPages is the size of the heap at creation.
	// 0 means DefaultInitialPages.
	InitialPages uint32
}

type span struct {
	ptr  uint32
	size uint32
}

var _ jnibridge.Heap = (*Heap)(nil)

// Heap is native memory plus a first-fit allocator.
type Heap struct {
	runtime wazero.Runtime
	module  api.Module
	mem     *wrapper
	live    map[uint32]uint32
	free    []span
	top     uint32
	inUse   uint32
	mu      sync.Mutex
	closed  bool
}

// New instantiates a fresh heap.
func New(ctx context.Context, cfg *Config) (*Heap, error) {
	limit := uint32(DefaultLimitPages)
	initial := uint32(DefaultInitialPages)
	if cfg != nil {
		if cfg.LimitPages > 0 {
			limit = cfg.LimitPages
		}
		if cfg.InitialPages > 0 {
			initial = cfg.InitialPages
		}
	}
	if initial > limit {
		return nil, errors.InvalidInput(errors.PhaseHeap,
			fmt.Sprintf("initial pages %d exceed limit %d", initial, limit))
	}

	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithMemoryLimitPages(limit))

	compiled, err := rt.CompileModule(ctx, memoryModule(initial))
	if err != nil {
		_ = rt.Close(ctx)
		return nil, errors.Wrap(errors.PhaseHeap, errors.KindAllocation, err, "compile heap module")
	}

	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName("heap"))
	if err != nil {
		_ = rt.Close(ctx)
		return nil, errors.Wrap(errors.PhaseHeap, errors.KindAllocation, err, "instantiate heap module")
	}

	return &Heap{
		runtime: rt,
		module:  mod,
		mem:     &wrapper{mem: mod.ExportedMemory("memory")},
		live:    make(map[uint32]uint32),
		top:     firstOffset,
	}, nil
}

// Close releases the underlying wazero runtime.
func (h *Heap) Close(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	return h.runtime.Close(ctx)
}

// Size returns the current size of native memory in bytes.
func (h *Heap) Size() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mem.mem.Size()
}

// Alloc reserves size bytes aligned to align. A zero size yields the null
// pointer without reserving anything.
func (h *Heap) Alloc(size, align uint32) (uint32, error) {
	if size == 0 {
		return 0, nil
	}
	if align == 0 || align&(align-1) != 0 {
		return 0, errors.InvalidInput(errors.PhaseHeap, fmt.Sprintf("alignment %d is not a power of two", align))
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return 0, errors.AllocationFailed(size, align, fmt.Errorf("heap closed"))
	}

	if ptr, ok := h.takeFree(size, align); ok {
		h.live[ptr] = size
		h.inUse += size
		return ptr, nil
	}

	ptr := alignUp(h.top, align)
	end := uint64(ptr) + uint64(size)
	if end > uint64(h.mem.mem.Size()) {
		need := (end - uint64(h.mem.mem.Size()) + pageSize - 1) / pageSize
		if _, ok := h.mem.mem.Grow(uint32(need)); !ok {
			return 0, errors.AllocationFailed(size, align, fmt.Errorf("grow by %d pages refused", need))
		}
	}
	if ptr > h.top {
		h.insertFree(span{ptr: h.top, size: ptr - h.top})
	}
	h.top = uint32(end)
	h.live[ptr] = size
	h.inUse += size
	return ptr, nil
}

// Free returns a buffer to the heap. Freeing the null pointer or an
// unknown pointer is a no-op.
func (h *Heap) Free(ptr, size, align uint32) {
	if ptr == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	actual, ok := h.live[ptr]
	if !ok {
		return
	}
	delete(h.live, ptr)
	h.inUse -= actual
	h.insertFree(span{ptr: ptr, size: actual})
}

// Live returns the number of outstanding allocations.
func (h *Heap) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.live)
}

// InUse returns the number of bytes held by outstanding allocations.
func (h *Heap) InUse() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.inUse
}

func (h *Heap) takeFree(size, align uint32) (uint32, bool) {
	for i, s := range h.free {
		ptr := alignUp(s.ptr, align)
		pad := ptr - s.ptr
		if uint64(pad)+uint64(size) > uint64(s.size) {
			continue
		}
		h.free = append(h.free[:i], h.free[i+1:]...)
		if pad > 0 {
			h.insertFree(span{ptr: s.ptr, size: pad})
		}
		if rest := s.size - pad - size; rest > 0 {
			h.insertFree(span{ptr: ptr + size, size: rest})
		}
		return ptr, true
	}
	return 0, false
}

// insertFree adds s keeping the list sorted and coalesced. A span that
// reaches the bump pointer is folded back into it.
func (h *Heap) insertFree(s span) {
	i := sort.Search(len(h.free), func(i int) bool { return h.free[i].ptr >= s.ptr })
	h.free = append(h.free, span{})
	copy(h.free[i+1:], h.free[i:])
	h.free[i] = s

	if i+1 < len(h.free) && h.free[i].ptr+h.free[i].size == h.free[i+1].ptr {
		h.free[i].size += h.free[i+1].size
		h.free = append(h.free[:i+1], h.free[i+2:]...)
	}
	if i > 0 && h.free[i-1].ptr+h.free[i-1].size == h.free[i].ptr {
		h.free[i-1].size += h.free[i].size
		h.free = append(h.free[:i], h.free[i+1:]...)
		i--
	}
	if last := len(h.free) - 1; i == last && h.free[last].ptr+h.free[last].size == h.top {
		h.top = h.free[last].ptr
		h.free = h.free[:last]
	}
}

func alignUp(v, align uint32) uint32 {
	return (v + align - 1) &^ (align - 1)
}

// Read returns a copy of length bytes at offset.
func (h *Heap) Read(offset uint32, length uint32) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mem.Read(offset, length)
}

// Write copies data to offset.
func (h *Heap) Write(offset uint32, data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mem.Write(offset, data)
}

// ReadU8 reads a byte at offset.
func (h *Heap) ReadU8(offset uint32) (uint8, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mem.ReadU8(offset)
}

// ReadU16 reads a little-endian uint16 at offset.
func (h *Heap) ReadU16(offset uint32) (uint16, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mem.ReadU16(offset)
}

// ReadU32 reads a little-endian uint32 at offset.
func (h *Heap) ReadU32(offset uint32) (uint32, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mem.ReadU32(offset)
}

// ReadU64 reads a little-endian uint64 at offset.
func (h *Heap) ReadU64(offset uint32) (uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mem.ReadU64(offset)
}

// WriteU8 writes a byte at offset.
func (h *Heap) WriteU8(offset uint32, value uint8) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mem.WriteU8(offset, value)
}

// WriteU16 writes a little-endian uint16 at offset.
func (h *Heap) WriteU16(offset uint32, value uint16) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mem.WriteU16(offset, value)
}

// WriteU32 writes a little-endian uint32 at offset.
func (h *Heap) WriteU32(offset uint32, value uint32) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mem.WriteU32(offset, value)
}

// WriteU64 writes a little-endian uint64 at offset.
func (h *Heap) WriteU64(offset uint32, value uint64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mem.WriteU64(offset, value)
}
