package tabletype

import "bytes"

// View is a borrowed, read-only byte range handed to table factories.
//
// A View aliases a buffer owned by someone else (usually the archive held by a
// table container). It is only valid for the duration of the factory call:
// factories must copy out whatever they keep and must not retain the View or
// the slice returned by Bytes.
type View struct {
	b []byte
}

// NewView wraps b without copying. The capacity is clipped so appends to the
// returned bytes can never write into neighbouring data.
func NewView(b []byte) View {
	return View{b: b[:len(b):len(b)]}
}

// Len returns the number of bytes in the view.
func (v View) Len() int {
	return len(v.b)
}

// Bytes returns the borrowed bytes. Treat them as immutable.
func (v View) Bytes() []byte {
	return v.b
}

// Clone returns an owned copy of the view's bytes.
func (v View) Clone() []byte {
	return bytes.Clone(v.b)
}

// Reader returns a reader over the borrowed bytes.
func (v View) Reader() *bytes.Reader {
	return bytes.NewReader(v.b)
}
