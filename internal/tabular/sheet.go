package tabular

import (
	"fmt"
	"strings"

	"sqxedit/internal/faults"
	"sqxedit/internal/sampletable"
)

// Format selects an exchange format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// ParseFormat maps a flag value or file extension to a Format.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(value), ".")) {
	case "xlsx":
		return FormatXLSX, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported format %q (use xlsx or json)", value)
	}
}

// Sheet is a header row plus data rows of display text.
type Sheet struct {
	Header []string
	Rows   [][]string
}

// FromTable renders t with every column.
func FromTable(t *sampletable.Table) Sheet {
	sheet := Sheet{Header: sampletable.Titles()}
	for _, row := range t.Rows() {
		sheet.Rows = append(sheet.Rows, row.Values())
	}
	return sheet
}

// Apply builds a new table from base and sheet. Sheet row i updates base
// row i; extra sheet rows start from column defaults; base rows beyond the
// sheet are dropped. Empty cells reset a column to its default and cells
// equal to the current display text are left alone.
func Apply(base *sampletable.Table, sheet Sheet) (*sampletable.Table, error) {
	cols := make([]*sampletable.Column, len(sheet.Header))
	seen := make(map[string]bool)
	for i, title := range sheet.Header {
		if strings.TrimSpace(title) == "" {
			continue
		}
		col, ok := sampletable.LookupColumn(title)
		if !ok {
			return nil, faults.Wrap(faults.ErrInvalidEdit, "tabular", "apply", fmt.Sprintf("unknown column %q", title), nil)
		}
		if seen[col.Key] {
			return nil, faults.Wrap(faults.ErrInvalidEdit, "tabular", "apply", fmt.Sprintf("column %q appears twice", col.Title), nil)
		}
		seen[col.Key] = true
		cols[i] = &col
	}

	existing := base.Rows()
	out := sampletable.New()
	for r, cells := range sheet.Rows {
		if blankRow(cells) {
			continue
		}
		row := sampletable.NewRow()
		if r < len(existing) {
			row = existing[r]
		}
		for c, cell := range cells {
			if c >= len(cols) || cols[c] == nil {
				continue
			}
			col := cols[c]
			if cell == row.Value(col.Key) {
				continue
			}
			value := strings.TrimSpace(cell)
			if value == "" {
				value = col.Default
			}
			if err := row.Set(col.Key, value); err != nil {
				return nil, fmt.Errorf("sheet row %d: %w", r+2, err)
			}
		}
		out.Append(row)
	}
	return out, nil
}

func blankRow(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
