// Package scratch provides transient workspaces that hold an extracted
// archive while it is being edited.
//
// A Backend hands out Workspaces through Acquire together with a release
// func that removes every trace of the workspace. Callers defer the release
// immediately so failures in decode or encode never leak partial state into
// a later session. Two backends exist: Dir keeps files on disk under a root
// directory, Memory keeps them in a map. CleanStale removes directories left
// behind by processes that died before releasing their workspace.
package scratch
