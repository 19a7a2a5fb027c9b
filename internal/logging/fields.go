package logging

const (
	// FieldComponent names the package or subsystem emitting the record.
	FieldComponent = "component"
	// FieldSessionID identifies one edit session.
	FieldSessionID = "session_id"
	// FieldArchive is the archive location being edited.
	FieldArchive = "archive"
	// FieldEntry is an archive entry name.
	FieldEntry = "entry"
	// FieldEventType classifies a record for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to try next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)
