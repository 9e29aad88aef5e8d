package heap

// memoryModule returns a minimal WASM binary exporting one memory named
// "memory" with the given number of initial pages and no maximum.
func memoryModule(initialPages uint32) []byte {
	memSection := []byte{0x01, 0x00} // 1 memory, flags: no max
	memSection = appendULEB128(memSection, initialPages)

	out := []byte{
		0x00, 0x61, 0x73, 0x6d, // magic
		0x01, 0x00, 0x00, 0x00, // version
		0x05, // memory section
	}
	out = appendULEB128(out, uint32(len(memSection)))
	out = append(out, memSection...)
	out = append(out,
		0x07, 0x0a, 0x01, // export section: 10 bytes, 1 export
		0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, // "memory"
		0x02, 0x00, // kind: memory, index 0
	)
	return out
}

func appendULEB128(b []byte, v uint32) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b = append(b, c|0x80)
			continue
		}
		return append(b, c)
	}
}
