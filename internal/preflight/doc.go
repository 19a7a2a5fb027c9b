// Package preflight provides readiness checks for the directories and
// stores sqxedit depends on.
//
// `sqxedit config validate` runs RunAll after the configuration parses and
// reports each Result as a status line. Checks for disabled features are
// skipped.
package preflight
