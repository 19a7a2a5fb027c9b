package sampletable

import (
	"encoding/xml"
	"fmt"

	"sqxedit/internal/faults"
	"sqxedit/internal/sampledoc"
)

// recordExtras carries the parts of a record the table does not show so
// they survive a round trip.
type recordExtras struct {
	extra      []sampledoc.Element
	namespaces []xml.Attr
}

// Table is an ordered list of rows. It is not safe for concurrent use.
type Table struct {
	rows []Row
}

// New returns a table holding rows.
func New(rows ...Row) *Table {
	return &Table{rows: append([]Row(nil), rows...)}
}

// FromRecords builds display rows from decoded records. UI-only columns get
// their defaults.
func FromRecords(records []sampledoc.Record) *Table {
	t := &Table{rows: make([]Row, 0, len(records))}
	for _, rec := range records {
		row := NewRow()
		row.Vial = rec.Vial
		row.AcqMethod = rec.AcquisitionMethod
		row.SampleType = DisplayLabel(rec.SampleType)
		row.storedType = rec.SampleType
		row.Volume = documentVolume(rec.Volume)
		row.SampleName = rec.SampleName
		if len(rec.Extra) > 0 || len(rec.Namespaces) > 0 {
			row.source = &recordExtras{extra: rec.Extra, namespaces: rec.Namespaces}
		}
		t.rows = append(t.rows, row)
	}
	return t
}

// Records converts the rows back into records. Every row is written,
// whatever its include flag.
func (t *Table) Records() []sampledoc.Record {
	out := make([]sampledoc.Record, len(t.rows))
	for i, row := range t.rows {
		rec := sampledoc.Record{
			SampleName:        row.SampleName,
			SampleType:        row.documentType(),
			AcquisitionMethod: row.AcqMethod,
			Vial:              row.Vial,
			Volume:            row.Volume.Text(),
		}
		if row.source != nil {
			rec.Extra = row.source.extra
			rec.Namespaces = row.source.namespaces
		}
		out[i] = rec
	}
	return out
}

// documentType is the label written for the row's sample type. A label read
// from a document goes back unchanged, even when it is display text.
func (r Row) documentType() string {
	if r.storedType != "" && DisplayLabel(r.storedType) == r.SampleType {
		return r.storedType
	}
	machine, _ := MachineLabel(r.SampleType)
	return machine
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Rows returns a copy of the rows.
func (t *Table) Rows() []Row {
	return append([]Row(nil), t.rows...)
}

// Row returns row i.
func (t *Table) Row(i int) (Row, error) {
	if err := t.check("row", i, len(t.rows)); err != nil {
		return Row{}, err
	}
	return t.rows[i], nil
}

// Clone returns an independent copy of t.
func (t *Table) Clone() *Table {
	return New(t.rows...)
}

// Append adds row at the end.
func (t *Table) Append(row Row) {
	t.rows = append(t.rows, row)
}

// Insert places row before index i. i may equal Len.
func (t *Table) Insert(i int, row Row) error {
	if err := t.check("insert", i, len(t.rows)+1); err != nil {
		return err
	}
	t.rows = append(t.rows, Row{})
	copy(t.rows[i+1:], t.rows[i:])
	t.rows[i] = row
	return nil
}

// Delete removes row i.
func (t *Table) Delete(i int) error {
	if err := t.check("delete", i, len(t.rows)); err != nil {
		return err
	}
	t.rows = append(t.rows[:i], t.rows[i+1:]...)
	return nil
}

// Move relocates row from so that it ends up at index to.
func (t *Table) Move(from, to int) error {
	if err := t.check("move", from, len(t.rows)); err != nil {
		return err
	}
	if err := t.check("move", to, len(t.rows)); err != nil {
		return err
	}
	row := t.rows[from]
	t.rows = append(t.rows[:from], t.rows[from+1:]...)
	t.rows = append(t.rows, Row{})
	copy(t.rows[to+1:], t.rows[to:])
	t.rows[to] = row
	return nil
}

// Set parses value into a column of row i.
func (t *Table) Set(i int, column, value string) error {
	if err := t.check("set", i, len(t.rows)); err != nil {
		return err
	}
	row := t.rows[i]
	if err := row.Set(column, value); err != nil {
		return err
	}
	t.rows[i] = row
	return nil
}

func (t *Table) check(op string, i, limit int) error {
	if i < 0 || i >= limit {
		return faults.Wrap(faults.ErrInvalidEdit, "sampletable", op,
			fmt.Sprintf("row %d out of range (%d rows)", i, len(t.rows)), nil)
	}
	return nil
}
