package analysis

import (
	"bytes"
	"encoding/json"
	"math"
)

// DefaultPreviewRows is used when the caller does not ask for a row count.
const DefaultPreviewRows = 100

// Row is one record of a preview. It marshals as a JSON object keyed by column
// name, keeping the file's column order.
type Row struct {
	columns []string
	values  []any
}

// Get returns the value of a column and whether the column exists.
func (r Row) Get(column string) (any, bool) {
	for i, c := range r.columns {
		if c == column {
			return r.values[i], true
		}
	}
	return nil, false
}

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// PreviewResult is the head of a frame plus its size.
type PreviewResult struct {
	Data        []Row    `json:"data"`
	Columns     []string `json:"columns"`
	PreviewRows int      `json:"preview_rows"`
	TotalRows   int      `json:"total_rows"`
}

// Preview returns the first rows of the frame; a non-positive count yields no rows.
// Missing cells become null and datetime columns are rendered as ISO-8601 strings;
// values without a zone in the file are rendered without one.
func Preview(f *Frame, rows int) *PreviewResult {
	if rows < 0 {
		rows = 0
	}
	if rows > f.NumRows() {
		rows = f.NumRows()
	}
	cols := f.Columns()
	out := &PreviewResult{
		Data:        make([]Row, rows),
		Columns:     cols,
		PreviewRows: rows,
		TotalRows:   f.NumRows(),
	}
	for i := 0; i < rows; i++ {
		vals := make([]any, len(f.columns))
		for j, c := range f.columns {
			vals[j] = cellValue(c, c.Cells[i])
		}
		out.Data[i] = Row{columns: cols, values: vals}
	}
	return out
}

func cellValue(c *Column, cell Cell) any {
	if cell.Missing {
		return nil
	}
	switch c.Kind {
	case KindInt:
		return cell.Int
	case KindFloat:
		if math.IsNaN(cell.Num) || math.IsInf(cell.Num, 0) {
			return nil
		}
		return cell.Num
	case KindBool:
		return cell.Bool
	}
	if c.Type == TypeDatetime {
		if t, ok := parseDatetime(cell.Raw); ok {
			return formatDatetime(t)
		}
	}
	return cell.Raw
}
