package tabular

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"sqxedit/internal/faults"
	"sqxedit/internal/sampletable"
)

// WriteJSON writes sheet as an array of objects keyed by column key.
func WriteJSON(w io.Writer, sheet Sheet) error {
	keys := make([]string, len(sheet.Header))
	for i, title := range sheet.Header {
		if col, ok := sampletable.LookupColumn(title); ok {
			keys[i] = col.Key
		} else {
			keys[i] = title
		}
	}
	rows := make([]map[string]string, 0, len(sheet.Rows))
	for _, values := range sheet.Rows {
		obj := make(map[string]string, len(keys))
		for i, key := range keys {
			if i < len(values) {
				obj[key] = values[i]
			}
		}
		rows = append(rows, obj)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// ReadJSON parses the output of WriteJSON. Values may be strings, numbers
// or booleans.
func ReadJSON(data []byte) (Sheet, error) {
	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return Sheet{}, faults.Wrap(faults.ErrInvalidEdit, "tabular", "read json", "expected an array of objects", err)
	}

	sheet := Sheet{}
	index := make(map[string]int)
	for _, col := range sampletable.Columns() {
		for _, row := range rows {
			if _, ok := lookup(row, col); ok {
				index[col.Key] = len(sheet.Header)
				sheet.Header = append(sheet.Header, col.Title)
				break
			}
		}
	}
	for _, row := range rows {
		for key := range row {
			if _, ok := sampletable.LookupColumn(key); !ok {
				return Sheet{}, faults.Wrap(faults.ErrInvalidEdit, "tabular", "read json", fmt.Sprintf("unknown column %q", key), nil)
			}
		}
	}
	for _, row := range rows {
		values := make([]string, len(sheet.Header))
		for _, col := range sampletable.Columns() {
			i, ok := index[col.Key]
			if !ok {
				continue
			}
			if raw, ok := lookup(row, col); ok {
				values[i] = stringify(raw)
			}
		}
		sheet.Rows = append(sheet.Rows, values)
	}
	return sheet, nil
}

func lookup(row map[string]any, col sampletable.Column) (any, bool) {
	for key, value := range row {
		if c, ok := sampletable.LookupColumn(key); ok && c.Key == col.Key {
			return value, true
		}
	}
	return nil, false
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
