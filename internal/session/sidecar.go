package session

import (
	"errors"

	"sqxedit/internal/archive"
	"sqxedit/internal/checksum"
	"sqxedit/internal/faults"
)

// SidecarStatus classifies the stored checksum of an opened container.
type SidecarStatus int

const (
	SidecarValid SidecarStatus = iota
	SidecarMismatch
	SidecarUnreadable
)

func (s SidecarStatus) String() string {
	switch s {
	case SidecarValid:
		return "valid"
	case SidecarMismatch:
		return "mismatch"
	default:
		return "unreadable"
	}
}

// SidecarReport compares the stored sidecar with the document it covers.
type SidecarReport struct {
	Status   SidecarStatus
	Stored   string
	Computed string
	Err      error
}

func inspectSidecar(a *archive.Archive, document []byte) SidecarReport {
	report := SidecarReport{Computed: checksum.Digest(document).Hex()}
	raw, err := a.Get(SidecarEntry)
	if err != nil {
		report.Status = SidecarUnreadable
		report.Err = faults.Wrap(faults.ErrChecksumIO, "session", "open", "read sidecar", err)
		return report
	}
	if stored, err := checksum.ReadSidecar(raw); err == nil {
		report.Stored = stored.Hex()
	}
	err = checksum.Verify(document, raw)
	switch {
	case err == nil:
		report.Status = SidecarValid
	case errors.Is(err, faults.ErrChecksumMismatch):
		report.Status = SidecarMismatch
		report.Err = err
	default:
		report.Status = SidecarUnreadable
		report.Err = err
	}
	return report
}
