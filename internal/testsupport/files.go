package testsupport

import (
	"archive/zip"
	"bytes"
	"crypto/sha1"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// Entry names inside a sequence container.
const (
	DocumentEntry = "SampleListPart/SampleListPart"
	SidecarEntry  = "SampleListPart/SampleListPart.chk"
)

const (
	sequenceNamespace = "http://schemas.datacontract.org/2004/07/Agilent.OpenLAB.Acquisition.AcquisitionMethodSequence"
	instanceNamespace = "http://www.w3.org/2001/XMLSchema-instance"
)

// Sample is one fixture row.
type Sample struct {
	Name   string
	Type   string
	Method string
	Vial   string
	Volume string
}

// TwoRowSamples returns the reference Std1/Blank1 rows.
func TwoRowSamples() []Sample {
	return []Sample{
		{Name: "Std1", Type: "Sample", Method: "M1", Vial: "1", Volume: "10"},
		{Name: "Blank1", Type: "Blank", Method: "M1", Vial: "2", Volume: ""},
	}
}

// SampleList renders an indented sample-list document.
func SampleList(samples ...Sample) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	b.WriteString(`<SequenceTable xmlns="` + sequenceNamespace + `" xmlns:i="` + instanceNamespace + `">`)
	for _, s := range samples {
		b.WriteString("\n  <anyType i:type=\"SampleListEntry\">")
		writeField(&b, "SampleName", s.Name)
		writeField(&b, "SampleType", s.Type)
		writeField(&b, "AcquisitionMethod", s.Method)
		writeField(&b, "Vial", s.Vial)
		writeField(&b, "Volume", s.Volume)
		b.WriteString("\n  </anyType>")
	}
	b.WriteString("\n</SequenceTable>\n")
	return b.String()
}

func writeField(b *strings.Builder, tag, value string) {
	if value == "" {
		b.WriteString("\n    <" + tag + " />")
		return
	}
	b.WriteString("\n    <" + tag + ">" + value + "</" + tag + ">")
}

// ZipEntry is one file of a fixture archive.
type ZipEntry struct {
	Name   string
	Data   []byte
	Method uint16
}

// BuildZip writes entries into a zip container in the given order.
func BuildZip(t testing.TB, entries ...ZipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.Name,
			Method:   e.Method,
			Modified: time.Date(2025, 3, 4, 8, 15, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("create %s: %v", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			t.Fatalf("write %s: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

// Sidecar returns the raw SHA-1 of document.
func Sidecar(document string) []byte {
	sum := sha1.Sum([]byte(document))
	return sum[:]
}

// BuildSQX builds a container holding document, its sidecar, and a few
// unrelated entries that must survive edits untouched.
func BuildSQX(t testing.TB, document string) []byte {
	t.Helper()
	return BuildZip(t,
		ZipEntry{Name: "SequenceProperties/SequenceProperties", Data: []byte("<SequenceProperties><Operator>lab</Operator></SequenceProperties>"), Method: zip.Deflate},
		ZipEntry{Name: DocumentEntry, Data: []byte(document), Method: zip.Deflate},
		ZipEntry{Name: SidecarEntry, Data: Sidecar(document), Method: zip.Store},
		ZipEntry{Name: "Methods/M1.amx", Data: bytes.Repeat([]byte("method-payload "), 64), Method: zip.Deflate},
	)
}

// RawEntries maps each entry name to its stored (possibly compressed) bytes.
func RawEntries(t testing.TB, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	out := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		r, err := f.OpenRaw()
		if err != nil {
			t.Fatalf("open raw %s: %v", f.Name, err)
		}
		b, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("read raw %s: %v", f.Name, err)
		}
		out[f.Name] = b
	}
	return out
}

// ReadEntry returns the decompressed bytes of name.
func ReadEntry(t testing.TB, data []byte, name string) []byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		return b
	}
	t.Fatalf("entry %s not found", name)
	return nil
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
