// Package faults defines the error markers shared by the sequence codec
// packages.
//
// Every failure the core can produce is tagged with one of the exported
// sentinels so callers can classify it with errors.Is without parsing
// messages:
//   - ErrCorruptArchive / ErrEmptyArchive for container problems
//   - ErrMalformedDocument for unreadable sample-list XML
//   - ErrEncodeFailure for invariant violations while rebuilding XML
//   - ErrChecksumIO / ErrChecksumMismatch for sidecar problems
//   - ErrInvalidEdit for bad table edits handed in by a collaborator
//
// Use Wrap to attach component and operation context while keeping the
// marker and the underlying cause reachable.
package faults
