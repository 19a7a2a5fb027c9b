package sampletable

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"sqxedit/internal/faults"
)

// Kind is the value type of a column.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindChoice
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindChoice:
		return "choice"
	case KindBool:
		return "bool"
	default:
		return "text"
	}
}

// Column keys.
const (
	ColInclude    = "include"
	ColVial       = "vial"
	ColAction     = "action"
	ColAcqMethod  = "acq_method"
	ColSampleType = "sample_type"
	ColLevel      = "level"
	ColInjPerVial = "inj_per_vial"
	ColVolume     = "volume"
	ColInjSource  = "inj_source"
	ColSampleName = "sample_name"
	ColDataFile   = "data_file"
)

// Injection sources offered for the inj_source column.
const (
	SourceHipAls   = "HipAls"
	SourceExternal = "External"
	SourceNone     = "No Injection/Instrument Blank"
)

const DefaultAction = "Inject"

// Column describes one table column.
type Column struct {
	Key     string
	Title   string
	Kind    Kind
	Default string
	Choices []string
	// Persisted columns are written back into the document.
	Persisted bool
}

var columns = []Column{
	{Key: ColInclude, Title: "Include", Kind: KindBool, Default: "true"},
	{Key: ColVial, Title: "Vial", Kind: KindText, Persisted: true},
	{Key: ColAction, Title: "Action", Kind: KindText, Default: DefaultAction},
	{Key: ColAcqMethod, Title: "Acq. method", Kind: KindText, Persisted: true},
	{Key: ColSampleType, Title: "Sample type", Kind: KindChoice, Default: "Sample", Choices: DisplayLabels(), Persisted: true},
	{Key: ColLevel, Title: "Level", Kind: KindText},
	{Key: ColInjPerVial, Title: "Inj/Vial", Kind: KindNumber, Default: "1"},
	{Key: ColVolume, Title: "Volume", Kind: KindNumber, Default: UseMethod, Persisted: true},
	{Key: ColInjSource, Title: "Injection source", Kind: KindChoice, Default: SourceHipAls, Choices: []string{SourceHipAls, SourceExternal, SourceNone}},
	{Key: ColSampleName, Title: "Sample name", Kind: KindText, Persisted: true},
	{Key: ColDataFile, Title: "Data file", Kind: KindText},
}

// Columns returns the column descriptions in display order.
func Columns() []Column {
	out := make([]Column, len(columns))
	for i, c := range columns {
		c.Choices = append([]string(nil), c.Choices...)
		out[i] = c
	}
	return out
}

// Titles returns the column titles in display order.
func Titles() []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.Title
	}
	return out
}

// LookupColumn finds a column by key or title, ignoring case.
func LookupColumn(name string) (Column, bool) {
	fold := cases.Fold()
	want := fold.String(strings.TrimSpace(name))
	for _, c := range columns {
		if fold.String(c.Key) == want || fold.String(c.Title) == want {
			return c, true
		}
	}
	return Column{}, false
}

// Row is one display row.
type Row struct {
	Include    bool
	Vial       string
	Action     string
	AcqMethod  string
	SampleType string
	Level      string
	InjPerVial int
	Volume     Volume
	InjSource  string
	SampleName string
	DataFile   string

	// storedType is the sample type exactly as the document held it. It is
	// written back verbatim until the column is set again.
	storedType string
	source     *recordExtras
}

// NewRow returns a row holding every column default.
func NewRow() Row {
	return Row{
		Include:    true,
		Action:     DefaultAction,
		SampleType: "Sample",
		InjPerVial: 1,
		InjSource:  SourceHipAls,
	}
}

// Value returns the display text of a column.
func (r Row) Value(key string) string {
	switch key {
	case ColInclude:
		return strconv.FormatBool(r.Include)
	case ColVial:
		return r.Vial
	case ColAction:
		return r.Action
	case ColAcqMethod:
		return r.AcqMethod
	case ColSampleType:
		return r.SampleType
	case ColLevel:
		return r.Level
	case ColInjPerVial:
		return strconv.Itoa(r.InjPerVial)
	case ColVolume:
		return r.Volume.String()
	case ColInjSource:
		return r.InjSource
	case ColSampleName:
		return r.SampleName
	case ColDataFile:
		return r.DataFile
	}
	return ""
}

// Values returns the display text of every column in display order.
func (r Row) Values() []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = r.Value(c.Key)
	}
	return out
}

// Set parses value into the named column. Choice columns accept their
// choices in any case; sample types also accept machine labels.
func (r *Row) Set(column, value string) error {
	col, ok := LookupColumn(column)
	if !ok {
		return faults.Wrap(faults.ErrInvalidEdit, "sampletable", "set", fmt.Sprintf("unknown column %q", column), nil)
	}
	switch col.Key {
	case ColInclude:
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return invalidValue(col, value, err)
		}
		r.Include = b
	case ColVial:
		r.Vial = value
	case ColAction:
		r.Action = value
	case ColAcqMethod:
		r.AcqMethod = value
	case ColSampleType:
		label, err := ResolveSampleType(value)
		if err != nil {
			return err
		}
		r.SampleType = label
		r.storedType = ""
	case ColLevel:
		r.Level = value
	case ColInjPerVial:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return invalidValue(col, value, err)
		}
		if n < 1 {
			return invalidValue(col, value, fmt.Errorf("must be at least 1"))
		}
		r.InjPerVial = n
	case ColVolume:
		v, err := ParseVolume(value)
		if err != nil {
			return err
		}
		r.Volume = v
	case ColInjSource:
		choice, ok := matchChoice(value, col.Choices)
		if !ok {
			return invalidValue(col, value, fmt.Errorf("choose one of %s", strings.Join(col.Choices, ", ")))
		}
		r.InjSource = choice
	case ColSampleName:
		r.SampleName = value
	case ColDataFile:
		r.DataFile = value
	}
	return nil
}

func invalidValue(col Column, value string, err error) error {
	return faults.Wrap(faults.ErrInvalidEdit, "sampletable", "set", fmt.Sprintf("%s: invalid value %q", col.Title, value), err)
}
