// Package archive reads and writes the zip container that wraps a sequence
// file.
//
// Open materializes every entry in memory, keeping the original headers and
// the stored (compressed) bytes next to the decompressed content. Pack writes
// entries back in their original order: entries that were never replaced are
// copied raw, so their bytes are identical to the input, while replaced or
// added entries are compressed with the requested method.
//
// The package never touches the filesystem; persistence belongs to callers.
package archive
