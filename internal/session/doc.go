// Package session coordinates one edit of a sequence container.
//
// A Session owns the opened archive snapshot, the decoded sample list and
// the current table state. Open decodes; Replace and Edit swap in a new
// table; Finalize re-encodes the sample list, hashes it, writes the sidecar
// and repacks a copy of the archive. Finalize is all or nothing: when any
// step fails the snapshot, the table and the previous result are left as
// they were and no bytes are returned.
//
// Sessions are not safe for concurrent use. Callers serialize access.
package session
