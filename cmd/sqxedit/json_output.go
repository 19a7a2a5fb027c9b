package main

import (
	"encoding/json"
	"fmt"
	"io"
)

// writeJSON prints a view as indented JSON. Archive paths and sample names
// are written as-is rather than HTML-escaped.
func writeJSON(w io.Writer, view any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(view); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
