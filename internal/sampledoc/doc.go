// Package sampledoc converts the sample-list part of a sequence container
// between XML bytes and an ordered list of items.
//
// The sample list is a polymorphic list: every child of the SequenceTable
// root is an anyType element whose xsi:type attribute names its variant.
// Children of variant SampleListEntry decode into Records; every other child
// is kept as an Opaque item holding its exact source bytes so Encode can
// reinsert it where it was.
//
// Decode remembers the layout of the source document (prolog, root start
// tag, whitespace between items, empty-element style) so a decode/encode
// cycle without edits is byte-identical for documents this package wrote and
// structurally equivalent for everything else.
//
// ModeLegacy runs the encoded text through NormalizeNamespacePrefixes, a
// best-effort textual rewrite kept for consumers that cannot cope with
// machine-generated nsN prefixes. ModeCanonical is the default and never
// rewrites text.
package sampledoc
