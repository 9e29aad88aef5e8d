// Package marshal converts single values between their managed and native
// representations.
//
// A native value (Native) is what native code sees:
//
//	category          carried as
//	────────────────────────────────────────────────
//	primitives        Bits: raw bit pattern, zero-extended
//	String            Ptr/Len: independent copy in the native heap
//	primitive arrays  Ptr/Len: independent copy in the native heap
//	objects           Ref: local reference handle
//	String[]/T[]      Ref: local reference handle
//
// Primitive conversion is bit-exact: floats are never canonicalized and
// all-bits-set integers keep their pattern. A managed input that does not
// fit the target category fails with ConversionOverflow rather than being
// clamped.
//
// Strings are copied in one of two encodings:
//
//	EncodingModifiedUTF8  U+0000 as C0 80, supplementary code points as
//	                      surrogate pairs (3 bytes each); Len is bytes
//	EncodingUTF16         little-endian code units; Len is units
//
// Both carry an explicit length, so embedded NULs and multi-byte sequences
// survive unchanged.
//
// Buffers produced by ToNative are owned by the returned Native and must
// be released with Free. The Marshaler is safe for concurrent use.
package marshal
