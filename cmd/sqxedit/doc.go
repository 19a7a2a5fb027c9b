// Package main hosts the sqxedit CLI entrypoint and command graph.
//
// Each command resolves its archive arguments through the blob resolver,
// runs one edit session against the container and writes the finalized
// archive back. Configuration, logging, metrics and the edit history are
// wired once per invocation by commandContext so subcommands only describe
// the edit they perform.
package main
