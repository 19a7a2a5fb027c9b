// Package history keeps a local SQLite journal of finalized edits.
//
// Every session finalize (successful or not) is recorded with its session
// id, the archive it came from and went to, the row count, and the SHA-1
// of the sample list before and after. The `history` command lists the
// newest entries. Writes retry briefly when another process holds the
// database lock.
package history
