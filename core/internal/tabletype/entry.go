package tabletype

// Entry locates one table's payload inside an archive.
type Entry struct {
	// Name is the table name, unique within the archive.
	Name string

	// Offset is the absolute byte offset of the payload in the archive.
	Offset int

	// Length is the payload size in bytes.
	Length int
}

// End returns the offset one past the last payload byte.
func (e Entry) End() int {
	return e.Offset + e.Length
}
