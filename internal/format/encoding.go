package format

import "encoding/binary"

// Word encoding for header fields.
//
// The arena is process memory, never a file, so words use the native byte
// order. The WordSize branch is resolved at compile time.

// ReadWord reads one header word from b at off.
func ReadWord(b []byte, off int) uint {
	if WordSize == 8 {
		return uint(binary.NativeEndian.Uint64(b[off : off+8]))
	}
	return uint(binary.NativeEndian.Uint32(b[off : off+4]))
}

// PutWord writes one header word to b at off.
func PutWord(b []byte, off int, v uint) {
	if WordSize == 8 {
		binary.NativeEndian.PutUint64(b[off:off+8], uint64(v))
		return
	}
	binary.NativeEndian.PutUint32(b[off:off+4], uint32(v))
}

// ReadOffset reads a word holding an arena offset.
func ReadOffset(b []byte, off int) int {
	return int(ReadWord(b, off))
}

// PutOffset writes an arena offset as a word.
func PutOffset(b []byte, off int, v int) {
	PutWord(b, off, uint(v))
}
