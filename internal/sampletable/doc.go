// Package sampletable is the editable row model shown to users.
//
// A Table holds display rows converted from sample records. Rows carry the
// five persisted fields plus UI-only columns (include flag, action, level,
// injections per vial, injection source, data file) that are never written
// back. Sample types are shown with display labels and mapped back to
// machine labels on conversion.
package sampletable
