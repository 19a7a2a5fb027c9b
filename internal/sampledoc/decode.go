package sampledoc

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"sqxedit/internal/faults"
)

// Decode parses a sample-list document.
func Decode(data []byte) (*Document, error) {
	src, bom, err := toUTF8(data)
	if err != nil {
		return nil, malformed("unsupported text encoding", err)
	}
	p := &parser{src: src, doc: &Document{bom: bom}}
	p.d = xml.NewDecoder(bytes.NewReader(src))
	p.d.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) { return r, nil }
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.doc, nil
}

type parser struct {
	src []byte
	d   *xml.Decoder
	doc *Document
}

func (p *parser) offset() int { return int(p.d.InputOffset()) }

func (p *parser) parse() error {
	if err := p.parseRoot(); err != nil {
		return err
	}
	if err := p.parseItems(); err != nil {
		return err
	}
	for {
		_, err := p.d.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return malformed("trailing content", err)
		}
	}
}

func (p *parser) parseRoot() error {
	for {
		off := p.offset()
		tok, err := p.d.Token()
		if errors.Is(err, io.EOF) {
			return malformed("no root element", nil)
		}
		if err != nil {
			return malformed("parse prolog", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Space != NamespaceSequence {
			return malformed("root <"+start.Name.Local+"> is not in the sequence namespace", nil)
		}
		if start.Name.Local != RootElement {
			return malformed("root <"+start.Name.Local+"> is not a sequence table", nil)
		}
		doc := p.doc
		doc.prolog = clone(p.src[:off])
		doc.rootStart = clone(p.src[off:p.offset()])
		doc.rootName = qualifiedName(doc.rootStart)
		doc.rootAttrs = start.Copy().Attr
		doc.canonical = !strings.Contains(doc.rootName, ":") && bindsDefault(start.Attr, NamespaceSequence)
		doc.xsiPrefix = boundPrefix(start.Attr, NamespaceInstance)
		return nil
	}
}

func (p *parser) parseItems() error {
	doc := p.doc
	sepStart := p.offset()
	for {
		off := p.offset()
		tok, err := p.d.Token()
		if err != nil {
			return malformed("parse sequence table", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			item, err := p.parseItem(t, off, len(doc.items))
			if err != nil {
				return malformed("parse list item", err)
			}
			doc.items = append(doc.items, item)
			doc.seps = append(doc.seps, clone(p.src[sepStart:off]))
			sepStart = p.offset()
		case xml.EndElement:
			doc.trailing = clone(p.src[sepStart:off])
			doc.rootEnd = clone(p.src[off:p.offset()])
			doc.selfClosing = len(doc.rootEnd) == 0
			doc.epilog = clone(p.src[p.offset():])
			return nil
		}
	}
}

func (p *parser) parseItem(start xml.StartElement, off, index int) (Item, error) {
	variant := variantOf(start)
	if variant == SampleVariant && start.Name.Local == ItemElement {
		rec, err := p.parseSample(start)
		if err != nil {
			return Item{}, err
		}
		return Item{Sample: rec}, nil
	}
	if err := p.d.Skip(); err != nil {
		return Item{}, err
	}
	return Item{Opaque: &Opaque{
		Variant: variant,
		Raw:     clone(p.src[off:p.offset()]),
		Index:   index,
	}}, nil
}

func (p *parser) parseSample(start xml.StartElement) (*Record, error) {
	rec := &Record{Namespaces: namespaceDecls(start.Attr)}
	lay := &p.doc.layout
	seen := make(map[string]bool, len(FieldOrder))
	var ws []byte
	first := true
	for {
		off := p.offset()
		tok, err := p.d.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.CharData:
			if len(bytes.TrimSpace(t)) == 0 {
				ws = append(ws[:0], t...)
			} else {
				ws = ws[:0]
			}
		case xml.StartElement:
			if first && !lay.set {
				lay.childSep = clone(ws)
			}
			first = false
			ws = ws[:0]
			if isField(t.Name) && !seen[t.Name.Local] {
				seen[t.Name.Local] = true
				text, err := p.readText()
				if err != nil {
					return nil, err
				}
				if text == "" {
					lay.noteEmpty(p.src[off:p.offset()])
				}
				rec.SetField(t.Name.Local, text)
				continue
			}
			if err := p.d.Skip(); err != nil {
				return nil, err
			}
			rec.Extra = append(rec.Extra, Element{Name: t.Name.Local, Raw: clone(p.src[off:p.offset()])})
		case xml.EndElement:
			if !lay.set {
				lay.closeSep = clone(ws)
				lay.set = true
			}
			return rec, nil
		}
	}
}

// readText returns the character data of the current element, ignoring
// nested elements.
func (p *parser) readText() (string, error) {
	var sb strings.Builder
	for {
		tok, err := p.d.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			if err := p.d.Skip(); err != nil {
				return "", err
			}
		case xml.EndElement:
			return sb.String(), nil
		}
	}
}

func (l *layout) noteEmpty(raw []byte) {
	if l.emptyNoted {
		return
	}
	l.emptyNoted = true
	switch {
	case bytes.HasSuffix(raw, []byte(" />")):
		l.emptyStyle = emptySpaceSlash
	case bytes.HasSuffix(raw, []byte("/>")):
		l.emptyStyle = emptySlash
	default:
		l.emptyStyle = emptyPair
	}
}

func isField(name xml.Name) bool {
	if name.Space != NamespaceSequence && name.Space != "" {
		return false
	}
	for _, tag := range FieldOrder {
		if name.Local == tag {
			return true
		}
	}
	return false
}

// variantOf returns the local part of the element's xsi:type.
func variantOf(start xml.StartElement) string {
	for _, attr := range start.Attr {
		if attr.Name.Space == NamespaceInstance && attr.Name.Local == "type" {
			value := attr.Value
			if i := strings.LastIndexByte(value, ':'); i >= 0 {
				value = value[i+1:]
			}
			return value
		}
	}
	return ""
}

func namespaceDecls(attrs []xml.Attr) []xml.Attr {
	var out []xml.Attr
	for _, attr := range attrs {
		if isNamespaceDecl(attr) {
			out = append(out, attr)
		}
	}
	return out
}

func isNamespaceDecl(attr xml.Attr) bool {
	return attr.Name.Space == "xmlns" || (attr.Name.Space == "" && attr.Name.Local == "xmlns")
}

func bindsDefault(attrs []xml.Attr, uri string) bool {
	for _, attr := range attrs {
		if attr.Name.Space == "" && attr.Name.Local == "xmlns" {
			return attr.Value == uri
		}
	}
	return false
}

func boundPrefix(attrs []xml.Attr, uri string) string {
	for _, attr := range attrs {
		if attr.Name.Space == "xmlns" && attr.Value == uri {
			return attr.Name.Local
		}
	}
	return ""
}

// qualifiedName returns the element name exactly as written in a start tag.
func qualifiedName(tag []byte) string {
	name := bytes.TrimPrefix(tag, []byte("<"))
	if i := bytes.IndexAny(name, " \t\r\n/>"); i >= 0 {
		name = name[:i]
	}
	return string(name)
}

func clone(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return append([]byte(nil), b...)
}

func malformed(message string, err error) error {
	return faults.Wrap(faults.ErrMalformedDocument, "sampledoc", "decode", message, err)
}
