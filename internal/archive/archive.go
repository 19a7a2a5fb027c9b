package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"sqxedit/internal/faults"
)

// Entry is one named blob inside a container.
type Entry struct {
	header   zip.FileHeader
	data     []byte
	raw      []byte
	opaque   bool
	modified bool
}

// Name returns the archive-internal path using forward slashes.
func (e *Entry) Name() string { return e.header.Name }

// Info describes an entry for listings.
type Info struct {
	Name             string
	Size             uint64
	CompressedSize   uint64
	Method           uint16
	Modified         time.Time
	Dir              bool
	Replaced         bool
	UnsupportedCodec bool
}

// Archive is an ordered mapping of entry names to bytes.
type Archive struct {
	entries []*Entry
	index   map[string]int
	comment string
}

// New returns an empty archive.
func New() *Archive {
	return &Archive{index: make(map[string]int)}
}

// Open parses a zip container held in memory.
func Open(data []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, faults.Wrap(faults.ErrCorruptArchive, "archive", "open", "not a zip container", err)
	}
	if len(zr.File) == 0 {
		return nil, faults.Wrap(faults.ErrEmptyArchive, "archive", "open", "", nil)
	}

	a := New()
	a.comment = zr.Comment
	for _, f := range zr.File {
		entry, err := readEntry(f)
		if err != nil {
			return nil, faults.Wrap(faults.ErrCorruptArchive, "archive", "open", fmt.Sprintf("entry %q", f.Name), err)
		}
		a.add(entry)
	}
	return a, nil
}

func readEntry(f *zip.File) (*Entry, error) {
	header := f.FileHeader
	header.Name = normalizeName(f.Name)

	rawReader, err := f.OpenRaw()
	if err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(rawReader)
	if err != nil {
		return nil, err
	}

	entry := &Entry{header: header, raw: raw}

	rc, err := f.Open()
	if errors.Is(err, zip.ErrAlgorithm) {
		// Content we cannot inflate still round-trips through its raw bytes.
		entry.opaque = true
		return entry, nil
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	entry.data = data
	return entry, nil
}

func normalizeName(name string) string {
	return strings.ReplaceAll(name, "\\", "/")
}

func (a *Archive) add(e *Entry) {
	if _, exists := a.index[e.header.Name]; !exists {
		a.index[e.header.Name] = len(a.entries)
	}
	a.entries = append(a.entries, e)
}

// Len reports the number of entries.
func (a *Archive) Len() int { return len(a.entries) }

// Names lists entry names in archive order.
func (a *Archive) Names() []string {
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.header.Name)
	}
	return out
}

// Has reports whether name is present.
func (a *Archive) Has(name string) bool {
	_, ok := a.index[normalizeName(name)]
	return ok
}

// Get returns a copy of the decompressed bytes stored under name.
func (a *Archive) Get(name string) ([]byte, error) {
	idx, ok := a.index[normalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("entry %q not found", name)
	}
	e := a.entries[idx]
	if e.opaque {
		return nil, fmt.Errorf("entry %q: %w", name, zip.ErrAlgorithm)
	}
	out := make([]byte, len(e.data))
	copy(out, e.data)
	return out, nil
}

// Replace stores data under name, appending a new entry when name is absent.
func (a *Archive) Replace(name string, data []byte) {
	name = normalizeName(name)
	buf := make([]byte, len(data))
	copy(buf, data)
	if idx, ok := a.index[name]; ok {
		e := a.entries[idx]
		e.data = buf
		e.raw = nil
		e.opaque = false
		e.modified = true
		return
	}
	a.add(&Entry{
		header:   zip.FileHeader{Name: name, Method: zip.Deflate},
		data:     buf,
		modified: true,
	})
}

// Entries describes every entry in archive order.
func (a *Archive) Entries() []Info {
	out := make([]Info, 0, len(a.entries))
	for _, e := range a.entries {
		info := Info{
			Name:             e.header.Name,
			Size:             e.header.UncompressedSize64,
			CompressedSize:   e.header.CompressedSize64,
			Method:           e.header.Method,
			Modified:         e.header.Modified,
			Dir:              strings.HasSuffix(e.header.Name, "/"),
			Replaced:         e.modified,
			UnsupportedCodec: e.opaque,
		}
		if e.modified {
			info.Size = uint64(len(e.data))
			info.CompressedSize = 0
		}
		out = append(out, info)
	}
	return out
}

// Clone returns an independent copy. Entry payloads are shared because they
// are never mutated in place.
func (a *Archive) Clone() *Archive {
	out := &Archive{
		entries: make([]*Entry, len(a.entries)),
		index:   make(map[string]int, len(a.index)),
		comment: a.comment,
	}
	for i, e := range a.entries {
		cp := *e
		out.entries[i] = &cp
	}
	for k, v := range a.index {
		out.index[k] = v
	}
	return out
}

// RequireEntries fails with ErrCorruptArchive when any name is missing.
func RequireEntries(a *Archive, names ...string) error {
	var missing []string
	for _, name := range names {
		if !a.Has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return faults.Wrap(faults.ErrCorruptArchive, "archive", "require", "missing "+strings.Join(missing, ", "), nil)
	}
	return nil
}
