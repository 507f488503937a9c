// Package index parses the index region of a table archive.
//
// The parsed index maps table names to payload ranges without touching payload
// bytes. Entries are drained with Take as tables are loaded, so a live index
// doubles as the set of tables that are still pending.
package index
