package sampledoc

import "encoding/xml"

// Namespace URIs and element names used by the sample-list part.
const (
	NamespaceSequence = "http://schemas.datacontract.org/2004/07/Agilent.OpenLAB.Acquisition.AcquisitionMethodSequence"
	NamespaceInstance = "http://www.w3.org/2001/XMLSchema-instance"

	RootElement   = "SequenceTable"
	ItemElement   = "anyType"
	SampleVariant = "SampleListEntry"
)

// Field element names in the order Encode writes them.
const (
	TagSampleName        = "SampleName"
	TagSampleType        = "SampleType"
	TagAcquisitionMethod = "AcquisitionMethod"
	TagVial              = "Vial"
	TagVolume            = "Volume"
)

// FieldOrder lists the persisted fields of a Record in document order.
var FieldOrder = []string{TagSampleName, TagSampleType, TagAcquisitionMethod, TagVial, TagVolume}

// Record is one injection row. An empty string is the absent marker: a
// missing element, an empty element, and an xsi:nil element all decode to "".
// An empty Volume means the acquisition method's default volume.
type Record struct {
	SampleName        string
	SampleType        string
	AcquisitionMethod string
	Vial              string
	Volume            string

	// Extra holds child elements other than the five fields, verbatim.
	Extra []Element
	// Namespaces holds namespace declarations found on the source element.
	Namespaces []xml.Attr
}

// Element is a verbatim XML fragment.
type Element struct {
	Name string
	Raw  []byte
}

// Field returns the value of a persisted field by tag name.
func (r Record) Field(tag string) (string, bool) {
	switch tag {
	case TagSampleName:
		return r.SampleName, true
	case TagSampleType:
		return r.SampleType, true
	case TagAcquisitionMethod:
		return r.AcquisitionMethod, true
	case TagVial:
		return r.Vial, true
	case TagVolume:
		return r.Volume, true
	default:
		return "", false
	}
}

// SetField assigns a persisted field by tag name.
func (r *Record) SetField(tag, value string) bool {
	switch tag {
	case TagSampleName:
		r.SampleName = value
	case TagSampleType:
		r.SampleType = value
	case TagAcquisitionMethod:
		r.AcquisitionMethod = value
	case TagVial:
		r.Vial = value
	case TagVolume:
		r.Volume = value
	default:
		return false
	}
	return true
}

// SameFields reports whether two records carry equal persisted fields.
func (r Record) SameFields(o Record) bool {
	return r.SampleName == o.SampleName &&
		r.SampleType == o.SampleType &&
		r.AcquisitionMethod == o.AcquisitionMethod &&
		r.Vial == o.Vial &&
		r.Volume == o.Volume
}

// Opaque is a list child the codec does not interpret.
type Opaque struct {
	// Variant is the xsi:type of the element, empty when it has none.
	Variant string
	// Raw is the exact source text of the element.
	Raw []byte
	// Index is the element's position among the root's children at decode.
	Index int
}

// Item is one child of the polymorphic list: exactly one of Sample or
// Opaque is set.
type Item struct {
	Sample *Record
	Opaque *Opaque
}

type layout struct {
	set        bool
	emptyNoted bool
	childSep   []byte
	closeSep   []byte
	emptyStyle emptyStyle
}

type emptyStyle int

const (
	emptySpaceSlash emptyStyle = iota // <Volume />
	emptySlash                        // <Volume/>
	emptyPair                         // <Volume></Volume>
)

// Document is a decoded sample-list part.
type Document struct {
	bom         bool
	prolog      []byte
	rootStart   []byte
	rootName    string
	rootAttrs   []xml.Attr
	canonical   bool
	selfClosing bool
	rootEnd     []byte
	epilog      []byte
	xsiPrefix   string

	items    []Item
	seps     [][]byte
	trailing []byte
	layout   layout
}

// NewDocument returns an empty sequence table.
func NewDocument() *Document {
	return &Document{
		rootName:  RootElement,
		rootStart: []byte(`<` + RootElement + ` xmlns="` + NamespaceSequence + `">`),
		rootAttrs: []xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: NamespaceSequence}},
		canonical: true,
		rootEnd:   []byte(`</` + RootElement + `>`),
	}
}

// Items returns a copy of the list children in document order.
func (d *Document) Items() []Item {
	out := make([]Item, len(d.items))
	for i, it := range d.items {
		if it.Sample != nil {
			rec := *it.Sample
			out[i].Sample = &rec
		}
		if it.Opaque != nil {
			op := *it.Opaque
			out[i].Opaque = &op
		}
	}
	return out
}

// Records returns the sample records in document order.
func (d *Document) Records() []Record {
	out := make([]Record, 0, len(d.items))
	for _, it := range d.items {
		if it.Sample != nil {
			out = append(out, *it.Sample)
		}
	}
	return out
}

// Opaques returns the pass-through children in document order.
func (d *Document) Opaques() []Opaque {
	var out []Opaque
	for _, it := range d.items {
		if it.Opaque != nil {
			out = append(out, *it.Opaque)
		}
	}
	return out
}

// WithRecords returns a copy of d whose sample slots hold records. Slots are
// filled in order; surplus slots are dropped and extra records are appended
// after the last sample slot. Opaque items keep their positions relative to
// their neighbours.
func (d *Document) WithRecords(records []Record) *Document {
	out := *d
	out.items = nil
	out.seps = nil

	lastSample := -1
	for i, it := range d.items {
		if it.Sample != nil {
			lastSample = i
		}
	}

	defaultSep := d.defaultSeparator()
	next := 0
	appendRest := func() {
		for ; next < len(records); next++ {
			rec := records[next]
			out.items = append(out.items, Item{Sample: &rec})
			out.seps = append(out.seps, defaultSep)
		}
	}

	for i, it := range d.items {
		if it.Opaque != nil {
			op := *it.Opaque
			out.items = append(out.items, Item{Opaque: &op})
			out.seps = append(out.seps, d.seps[i])
		} else if next < len(records) {
			rec := records[next]
			next++
			out.items = append(out.items, Item{Sample: &rec})
			out.seps = append(out.seps, d.seps[i])
		}
		if i == lastSample {
			appendRest()
		}
	}
	appendRest()
	return &out
}

func (d *Document) defaultSeparator() []byte {
	for i := len(d.items) - 1; i >= 0; i-- {
		if d.items[i].Sample != nil {
			return d.seps[i]
		}
	}
	if len(d.seps) > 0 {
		return d.seps[0]
	}
	return nil
}
