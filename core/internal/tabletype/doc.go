// Package tabletype holds the types and sentinel errors shared by the archive
// codec and the table container.
package tabletype
