package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
)

// Compression names accepted by ParseMethod.
const (
	CompressionDeflate = "deflate"
	CompressionStore   = "store"
)

// PackOptions controls how replaced entries are written.
type PackOptions struct {
	// Method applies to replaced and added entries. Zero means deflate.
	Method uint16
}

// ParseMethod maps a configuration value to a zip method.
func ParseMethod(name string) (uint16, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", CompressionDeflate:
		return zip.Deflate, nil
	case CompressionStore:
		return zip.Store, nil
	default:
		return 0, fmt.Errorf("unsupported compression %q", name)
	}
}

// Pack serializes the archive. Output is deterministic for a given archive.
func Pack(a *Archive, opts PackOptions) ([]byte, error) {
	method := opts.Method
	if method != zip.Store {
		method = zip.Deflate
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if a.comment != "" {
		if err := zw.SetComment(a.comment); err != nil {
			return nil, fmt.Errorf("set comment: %w", err)
		}
	}

	for _, e := range a.entries {
		if err := writeEntry(zw, e, method); err != nil {
			_ = zw.Close()
			return nil, fmt.Errorf("write entry %q: %w", e.header.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finish archive: %w", err)
	}
	return buf.Bytes(), nil
}

func writeEntry(zw *zip.Writer, e *Entry, method uint16) error {
	if !e.modified {
		header := e.header
		w, err := zw.CreateRaw(&header)
		if err != nil {
			return err
		}
		_, err = w.Write(e.raw)
		return err
	}

	header := &zip.FileHeader{
		Name:          e.header.Name,
		Comment:       e.header.Comment,
		Method:        method,
		Modified:      e.header.Modified,
		ExternalAttrs: e.header.ExternalAttrs,
	}
	if strings.HasSuffix(header.Name, "/") {
		header.Method = zip.Store
	}
	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = w.Write(e.data)
	return err
}
