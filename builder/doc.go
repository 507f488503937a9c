// Package builder turns folders of per-table files into archives.
//
// A merge job names an input folder and an output file. Build scans the
// folder for table files, fingerprints their contents and rewrites the
// output only when the fingerprint changed since the last successful build.
// Jobs are persisted as YAML so the recorded fingerprint survives restarts.
//
// A [Watcher] rebuilds the affected jobs whenever table files change.
package builder
