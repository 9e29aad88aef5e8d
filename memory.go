package jnibridge

// Memory is the native side's addressable memory. Offsets are native
// pointers; offset 0 is never handed out by an Allocator and means null.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU8(offset uint32) (uint8, error)
	ReadU16(offset uint32) (uint16, error)
	ReadU32(offset uint32) (uint32, error)
	ReadU64(offset uint32) (uint64, error)
	WriteU8(offset uint32, value uint8) error
	WriteU16(offset uint32, value uint16) error
	WriteU32(offset uint32, value uint32) error
	WriteU64(offset uint32, value uint64) error
}

// MemorySizer provides the current size of native memory in bytes.
type MemorySizer interface {
	Size() uint32
}

// Allocator allocates buffers in native memory.
type Allocator interface {
	Alloc(size, align uint32) (uint32, error)
	Free(ptr, size, align uint32)
}

// Heap is native memory together with its allocator.
type Heap interface {
	Memory
	MemorySizer
	Allocator
}
