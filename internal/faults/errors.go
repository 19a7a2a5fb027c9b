package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCorruptArchive    = errors.New("corrupt archive")
	ErrMalformedDocument = errors.New("malformed document")
	ErrEncodeFailure     = errors.New("encode failure")
	ErrChecksumIO        = errors.New("checksum io failure")
	ErrChecksumMismatch  = errors.New("checksum mismatch")
	ErrInvalidEdit       = errors.New("invalid edit")
)

// ErrEmptyArchive reports a structurally valid container without entries.
// It also matches ErrCorruptArchive.
var ErrEmptyArchive = fmt.Errorf("%w: archive has no entries", ErrCorruptArchive)

// Wrap builds an error message that includes component context while
// tagging it with the provided marker. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrEncodeFailure
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a short classification label for err, suitable for metrics
// and history records. Unknown errors map to "internal".
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrEmptyArchive):
		return "empty_archive"
	case errors.Is(err, ErrCorruptArchive):
		return "corrupt_archive"
	case errors.Is(err, ErrMalformedDocument):
		return "malformed_document"
	case errors.Is(err, ErrEncodeFailure):
		return "encode_failure"
	case errors.Is(err, ErrChecksumMismatch):
		return "checksum_mismatch"
	case errors.Is(err, ErrChecksumIO):
		return "checksum_io"
	case errors.Is(err, ErrInvalidEdit):
		return "invalid_edit"
	default:
		return "internal"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "codec failure"
	}
	return strings.Join(parts, ": ")
}
