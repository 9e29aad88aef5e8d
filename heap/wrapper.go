package heap

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/jni-bridge/errors"
)

// wrapper adapts wazero api.Memory to jnibridge.Memory. Accesses past the
// end of memory fail with OutOfBounds.
type wrapper struct {
	mem api.Memory
}

func (m *wrapper) outOfBounds(op string, offset, length uint32) error {
	return errors.New(errors.PhaseHeap, errors.KindOutOfBounds).
		Detail("%s of %d bytes at offset %d exceeds %d bytes of memory", op, length, offset, m.mem.Size()).
		Build()
}

func (m *wrapper) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, m.outOfBounds("read", offset, length)
	}
	// wazero returns a view that is invalidated by Grow
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *wrapper) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return m.outOfBounds("write", offset, uint32(len(data)))
	}
	return nil
}

func (m *wrapper) ReadU8(offset uint32) (uint8, error) {
	v, ok := m.mem.ReadByte(offset)
	if !ok {
		return 0, m.outOfBounds("read", offset, 1)
	}
	return v, nil
}

func (m *wrapper) ReadU16(offset uint32) (uint16, error) {
	v, ok := m.mem.ReadUint16Le(offset)
	if !ok {
		return 0, m.outOfBounds("read", offset, 2)
	}
	return v, nil
}

func (m *wrapper) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, m.outOfBounds("read", offset, 4)
	}
	return v, nil
}

func (m *wrapper) ReadU64(offset uint32) (uint64, error) {
	v, ok := m.mem.ReadUint64Le(offset)
	if !ok {
		return 0, m.outOfBounds("read", offset, 8)
	}
	return v, nil
}

func (m *wrapper) WriteU8(offset uint32, value uint8) error {
	if !m.mem.WriteByte(offset, value) {
		return m.outOfBounds("write", offset, 1)
	}
	return nil
}

func (m *wrapper) WriteU16(offset uint32, value uint16) error {
	if !m.mem.WriteUint16Le(offset, value) {
		return m.outOfBounds("write", offset, 2)
	}
	return nil
}

func (m *wrapper) WriteU32(offset uint32, value uint32) error {
	if !m.mem.WriteUint32Le(offset, value) {
		return m.outOfBounds("write", offset, 4)
	}
	return nil
}

func (m *wrapper) WriteU64(offset uint32, value uint64) error {
	if !m.mem.WriteUint64Le(offset, value) {
		return m.outOfBounds("write", offset, 8)
	}
	return nil
}
