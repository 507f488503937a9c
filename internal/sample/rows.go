package sample

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var errTruncated = errors.New("sample: truncated table data")

// rowReader decodes fields from a table buffer.
type rowReader struct {
	b   []byte
	pos int
}

func (r *rowReader) int32() (int32, error) {
	if len(r.b)-r.pos < 4 {
		return 0, errTruncated
	}
	v := int32(binary.LittleEndian.Uint32(r.b[r.pos:])) //nolint:gosec // sign bit round-trips
	r.pos += 4
	return v, nil
}

func (r *rowReader) bool() (bool, error) {
	if len(r.b)-r.pos < 1 {
		return false, errTruncated
	}
	v := r.b[r.pos] != 0
	r.pos++
	return v, nil
}

// string copies the bytes out so the result never aliases the buffer.
func (r *rowReader) string() (string, error) {
	n, err := r.int32()
	if err != nil {
		return "", err
	}
	if n < 0 || int(n) > len(r.b)-r.pos {
		return "", fmt.Errorf("%w: string length %d", errTruncated, n)
	}
	s := string(r.b[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}

// count reads a row count and rejects counts that cannot fit the buffer.
func (r *rowReader) count(minRowSize int) (int, error) {
	n, err := r.int32()
	if err != nil {
		return 0, err
	}
	if n < 0 || int(n) > (len(r.b)-r.pos)/minRowSize {
		return 0, fmt.Errorf("%w: row count %d", errTruncated, n)
	}
	return int(n), nil
}

func (r *rowReader) done() error {
	if r.pos != len(r.b) {
		return fmt.Errorf("sample: %d trailing bytes", len(r.b)-r.pos)
	}
	return nil
}

func appendInt32(b []byte, v int32) []byte {
	return binary.LittleEndian.AppendUint32(b, uint32(v)) //nolint:gosec // sign bit round-trips
}

func appendString(b []byte, s string) []byte {
	b = appendInt32(b, int32(len(s))) //nolint:gosec // names are short
	return append(b, s...)
}

func appendBool(b []byte, v bool) []byte {
	if v {
		return append(b, 1)
	}
	return append(b, 0)
}
