package sampledoc

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"sqxedit/internal/faults"
)

// Mode selects how Encode treats namespace prefixes.
type Mode int

const (
	// ModeCanonical writes canonical prefixes directly.
	ModeCanonical Mode = iota
	// ModeLegacy passes the output through NormalizeNamespacePrefixes.
	ModeLegacy
)

func (m Mode) String() string {
	switch m {
	case ModeLegacy:
		return "legacy"
	default:
		return "canonical"
	}
}

// ParseMode maps a configuration value to a Mode. Empty selects canonical.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "canonical":
		return ModeCanonical, nil
	case "legacy":
		return ModeLegacy, nil
	default:
		return ModeCanonical, fmt.Errorf("unknown namespace mode %q", value)
	}
}

// EncodeOptions controls Encode.
type EncodeOptions struct {
	Mode Mode
}

const xmlDeclaration = `<?xml version="1.0" encoding="utf-8"?>`

// Encode serializes doc. Opaque items are written verbatim in their slots;
// each record is written as a SampleListEntry with the five fields in
// FieldOrder.
func Encode(doc *Document, opts EncodeOptions) ([]byte, error) {
	if doc == nil {
		return nil, faults.Wrap(faults.ErrEncodeFailure, "sampledoc", "encode", "nil document", nil)
	}
	var buf bytes.Buffer
	if doc.bom {
		buf.Write(utf8BOM)
	}
	if !hasDeclaration(doc.prolog) {
		buf.WriteString(xmlDeclaration)
		buf.WriteByte('\n')
	}
	buf.Write(doc.prolog)

	start, end := doc.rootTags()
	buf.Write(start)
	sample := 0
	for i, item := range doc.items {
		buf.Write(doc.seps[i])
		if item.Opaque != nil {
			buf.Write(item.Opaque.Raw)
			continue
		}
		if err := doc.writeRecord(&buf, *item.Sample); err != nil {
			return nil, faults.Wrap(faults.ErrEncodeFailure, "sampledoc", "encode", fmt.Sprintf("record %d", sample), err)
		}
		sample++
	}
	if len(end) > 0 {
		buf.Write(doc.trailing)
		buf.Write(end)
	}
	buf.Write(doc.epilog)

	if opts.Mode == ModeLegacy {
		return []byte(NormalizeNamespacePrefixes(buf.String())), nil
	}
	return buf.Bytes(), nil
}

// rootTags returns the start and end tags of the root. A non-canonical root
// is replaced by one binding the sequence namespace as default; a
// self-closing root is opened when it gains children.
func (d *Document) rootTags() ([]byte, []byte) {
	if !d.canonical {
		return d.synthesizedRoot(), []byte("</" + RootElement + ">")
	}
	if !d.selfClosing {
		return d.rootStart, d.rootEnd
	}
	if len(d.items) == 0 && len(d.trailing) == 0 {
		return d.rootStart, nil
	}
	start := bytes.TrimSuffix(d.rootStart, []byte("/>"))
	start = bytes.TrimRight(start, " \t\r\n")
	return append(clone(start), '>'), []byte("</" + d.rootName + ">")
}

func (d *Document) synthesizedRoot() []byte {
	var buf bytes.Buffer
	buf.WriteString("<" + RootElement)
	writeAttr(&buf, "xmlns", NamespaceSequence)
	prefixes := make(map[string]string)
	for _, attr := range d.rootAttrs {
		if attr.Name.Space == "xmlns" {
			prefixes[attr.Value] = attr.Name.Local
		}
	}
	for _, attr := range d.rootAttrs {
		switch {
		case attr.Name.Space == "" && attr.Name.Local == "xmlns":
		case attr.Name.Space == "xmlns":
			writeAttr(&buf, "xmlns:"+attr.Name.Local, attr.Value)
		case attr.Name.Space == "":
			writeAttr(&buf, attr.Name.Local, attr.Value)
		default:
			if prefix, ok := prefixes[attr.Name.Space]; ok {
				writeAttr(&buf, prefix+":"+attr.Name.Local, attr.Value)
			}
		}
	}
	buf.WriteByte('>')
	return buf.Bytes()
}

func (d *Document) writeRecord(buf *bytes.Buffer, rec Record) error {
	prefix := d.xsiPrefix
	if own := boundPrefix(rec.Namespaces, NamespaceInstance); own != "" {
		prefix = own
	}
	declare := prefix == ""
	if declare {
		prefix = "i"
	}

	buf.WriteString("<" + ItemElement)
	writeAttr(buf, prefix+":type", SampleVariant)
	for _, ns := range rec.Namespaces {
		name := "xmlns"
		if ns.Name.Space == "xmlns" {
			name = "xmlns:" + ns.Name.Local
		}
		if err := writeCheckedAttr(buf, name, ns.Value); err != nil {
			return err
		}
	}
	if declare {
		writeAttr(buf, "xmlns:i", NamespaceInstance)
	}
	buf.WriteByte('>')

	for _, tag := range FieldOrder {
		value, _ := rec.Field(tag)
		buf.Write(d.layout.childSep)
		if err := d.writeField(buf, tag, value); err != nil {
			return fmt.Errorf("%s: %w", tag, err)
		}
	}
	for _, extra := range rec.Extra {
		buf.Write(d.layout.childSep)
		buf.Write(extra.Raw)
	}
	buf.Write(d.layout.closeSep)
	buf.WriteString("</" + ItemElement + ">")
	return nil
}

func (d *Document) writeField(buf *bytes.Buffer, tag, value string) error {
	if value == "" {
		switch d.layout.emptyStyle {
		case emptySlash:
			buf.WriteString("<" + tag + "/>")
		case emptyPair:
			buf.WriteString("<" + tag + "></" + tag + ">")
		default:
			buf.WriteString("<" + tag + " />")
		}
		return nil
	}
	buf.WriteString("<" + tag + ">")
	if err := escape(buf, value, false); err != nil {
		return err
	}
	buf.WriteString("</" + tag + ">")
	return nil
}

func writeAttr(buf *bytes.Buffer, name, value string) {
	_ = writeCheckedAttr(buf, name, value)
}

func writeCheckedAttr(buf *bytes.Buffer, name, value string) error {
	buf.WriteString(" " + name + `="`)
	if err := escape(buf, value, true); err != nil {
		return err
	}
	buf.WriteByte('"')
	return nil
}

// escape writes s as XML character data. Quotes are only escaped inside
// attribute values so text matches what common serializers produce.
func escape(buf *bytes.Buffer, s string, attr bool) error {
	for i, r := range s {
		if r == utf8.RuneError && !strings.HasPrefix(s[i:], "\uFFFD") {
			return fmt.Errorf("invalid utf-8 at byte %d", i)
		}
		if !isXMLChar(r) {
			return fmt.Errorf("character %U is not allowed in XML", r)
		}
		switch {
		case r == '&':
			buf.WriteString("&amp;")
		case r == '<':
			buf.WriteString("&lt;")
		case r == '>':
			buf.WriteString("&gt;")
		case r == '\r':
			buf.WriteString("&#xD;")
		case attr && r == '"':
			buf.WriteString("&quot;")
		case attr && r == '\n':
			buf.WriteString("&#xA;")
		case attr && r == '\t':
			buf.WriteString("&#x9;")
		default:
			buf.WriteRune(r)
		}
	}
	return nil
}

func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0x10FFFF)
}

// EncodeRecords is shorthand for Encode(doc.WithRecords(records), opts).
func EncodeRecords(doc *Document, records []Record, opts EncodeOptions) ([]byte, error) {
	if doc == nil {
		doc = NewDocument()
	}
	return Encode(doc.WithRecords(records), opts)
}

