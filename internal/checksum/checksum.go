// Package checksum computes and checks the SHA-1 sidecar that accompanies the
// sample-list part of a sequence container.
package checksum

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"sqxedit/internal/faults"
)

// Size is the length of a digest and of a sidecar file.
const Size = sha1.Size

// Sum is a raw SHA-1 digest.
type Sum [Size]byte

// Hex renders the digest for logs and listings.
func (s Sum) Hex() string { return hex.EncodeToString(s[:]) }

// Digest hashes the exact bytes of the sample-list part.
func Digest(data []byte) Sum {
	return Sum(sha1.Sum(data))
}

// Sidecar returns the sidecar file contents: the raw digest, nothing else.
func Sidecar(sum Sum) []byte {
	out := make([]byte, Size)
	copy(out, sum[:])
	return out
}

// ReadSidecar parses sidecar file contents.
func ReadSidecar(data []byte) (Sum, error) {
	var sum Sum
	if len(data) != Size {
		return sum, faults.Wrap(faults.ErrChecksumIO, "checksum", "read sidecar", fmt.Sprintf("expected %d bytes, got %d", Size, len(data)), nil)
	}
	copy(sum[:], data)
	return sum, nil
}

// Verify checks that sidecar holds the digest of document.
func Verify(document, sidecar []byte) error {
	stored, err := ReadSidecar(sidecar)
	if err != nil {
		return err
	}
	actual := Digest(document)
	if !bytes.Equal(stored[:], actual[:]) {
		return faults.Wrap(faults.ErrChecksumMismatch, "checksum", "verify", fmt.Sprintf("stored %s, computed %s", stored.Hex(), actual.Hex()), nil)
	}
	return nil
}
