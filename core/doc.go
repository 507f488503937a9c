// Package tablepack packs many independently produced table blobs into one
// archive and reads them back without copying.
//
// An archive is a single byte slice:
//
//	magic "BYTES_v3" | table count (i32) | index length (i32) | index region | payload region
//
// The index region holds one (name length, name, payload offset, payload
// length) record per table in the order given to [Pack]. The payload region is
// every table's bytes back to back in the same order. Integers are
// little-endian int32 and names are UTF-8.
//
// [ParseIndex] reads only the index. [Slice] returns a zero-copy [View] of
// one table's payload. [Unpack] materializes every table as an owned copy.
//
// Archives may be wrapped in a zstd frame for transport with [Compress] and
// unwrapped with [Decompress].
package tablepack
