// Package layout defines the fixed binary layout of a table archive.
//
//	+-------------+-------------+--------------+--------------+-----------------+
//	| magic (8 B) | count (i32) | index len    | index region | payload region  |
//	|             |             | (i32)        |              |                 |
//	+-------------+-------------+--------------+--------------+-----------------+
//
// Index records are (name len i32, name bytes, payload offset i32, payload len i32).
// Payload offsets are absolute. All integers are little-endian.
package layout

import (
	"encoding/binary"
	"math"
)

// Magic is the archive magic/version tag.
const Magic = "BYTES_v3"

const (
	// HeaderSize is the size of the magic tag plus table count and index length.
	HeaderSize = len(Magic) + 4 + 4

	// RecordFixedSize is the size of an index record excluding the name bytes.
	RecordFixedSize = 4 + 4 + 4

	// MaxSize is the largest archive that fits int32 offsets.
	MaxSize = math.MaxInt32
)

// RecordSize returns the encoded size of an index record for a name of nameLen bytes.
func RecordSize(nameLen int) int {
	return RecordFixedSize + nameLen
}

// PutInt32 writes v at b[0:4].
func PutInt32(b []byte, v int) {
	binary.LittleEndian.PutUint32(b, uint32(int32(v))) //nolint:gosec // callers bound v to MaxSize
}

// Int32 reads a signed 32-bit integer from b[0:4].
func Int32(b []byte) int {
	return int(int32(binary.LittleEndian.Uint32(b))) //nolint:gosec // sign is checked by callers
}

// AppendInt32 appends v to b.
func AppendInt32(b []byte, v int) []byte {
	return binary.LittleEndian.AppendUint32(b, uint32(int32(v))) //nolint:gosec // callers bound v to MaxSize
}
