// Package logging builds the slog loggers used by sqxedit.
//
// New wires a console or JSON handler per output and fans records out to all
// of them. Helpers attach the standard field keys (component, session_id,
// archive) so every package emits the same shape. NewNop is for tests and
// for wiring code that runs before configuration is loaded.
package logging
