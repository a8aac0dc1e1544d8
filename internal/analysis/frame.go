// Package analysis loads delimited and spreadsheet files into an in-memory frame and
// derives the metadata, column types, previews and statistics shown in the data studio.
package analysis

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the storage kind a column was read as.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
)

// DType returns the dtype name reported in column statistics.
func (k Kind) DType() string {
	switch k {
	case KindInt:
		return "int64"
	case KindFloat:
		return "float64"
	case KindBool:
		return "bool"
	default:
		return "object"
	}
}

// Numeric reports whether cells of this kind carry a parsed number.
func (k Kind) Numeric() bool { return k == KindInt || k == KindFloat }

// naValues are the cell texts read as missing.
var naValues = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

var boolLiterals = map[string]bool{
	"True": true, "TRUE": true, "true": true,
	"False": false, "FALSE": false, "false": false,
}

// Cell is a single value of a column. Int holds the exact value of an int64
// column; Num is its float64 approximation.
type Cell struct {
	Raw     string
	Missing bool
	Num     float64
	Int     int64
	Bool    bool
}

// Column is a named, typed sequence of cells.
type Column struct {
	Name  string
	Kind  Kind
	Type  ColumnType
	Cells []Cell
}

// Present returns the raw text of every non-missing cell in row order.
func (c *Column) Present() []string {
	out := make([]string, 0, len(c.Cells))
	for _, cell := range c.Cells {
		if !cell.Missing {
			out = append(out, cell.Raw)
		}
	}
	return out
}

// MissingCount returns the number of missing cells.
func (c *Column) MissingCount() int {
	n := 0
	for _, cell := range c.Cells {
		if cell.Missing {
			n++
		}
	}
	return n
}

// Frame is an ephemeral table of named columns built from one file.
type Frame struct {
	columns []*Column
	index   map[string]int
	rows    int
	skipped int
}

// newFrame builds a frame from a header and records already padded to the header width.
func newFrame(header []string, records [][]string, skipped int) *Frame {
	names := uniqueNames(header)
	f := &Frame{
		columns: make([]*Column, len(names)),
		index:   make(map[string]int, len(names)),
		rows:    len(records),
		skipped: skipped,
	}
	for j, name := range names {
		col := &Column{Name: name, Cells: make([]Cell, len(records))}
		for i, rec := range records {
			raw := rec[j]
			_, na := naValues[raw]
			col.Cells[i] = Cell{Raw: raw, Missing: na}
		}
		col.Kind = inferKind(col.Cells)
		col.Type = ClassifyColumn(col.Present())
		f.columns[j] = col
		f.index[name] = j
	}
	return f
}

// inferKind decides how the column is stored and fills the parsed cell values.
func inferKind(cells []Cell) Kind {
	present, missing := 0, 0
	allInt, allFloat, allBool := true, true, true
	for _, c := range cells {
		if c.Missing {
			missing++
			continue
		}
		present++
		s := strings.TrimSpace(c.Raw)
		if allInt {
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				allInt = false
			}
		}
		if allFloat {
			if _, ok := parseNumber(s); !ok {
				allFloat = false
			}
		}
		if allBool {
			if _, ok := boolLiterals[s]; !ok {
				allBool = false
			}
		}
	}
	var kind Kind
	switch {
	case present == 0:
		kind = KindFloat
	case allInt && missing == 0:
		kind = KindInt
	case allInt || allFloat:
		kind = KindFloat
	case allBool && missing == 0:
		kind = KindBool
	default:
		kind = KindString
	}
	for i := range cells {
		if cells[i].Missing {
			continue
		}
		s := strings.TrimSpace(cells[i].Raw)
		switch kind {
		case KindInt:
			cells[i].Int, _ = strconv.ParseInt(s, 10, 64)
			cells[i].Num = float64(cells[i].Int)
		case KindFloat:
			cells[i].Num, _ = parseNumber(s)
		case KindBool:
			cells[i].Bool = boolLiterals[s]
		}
	}
	return kind
}

// uniqueNames names blank headers by position and suffixes duplicates with .1, .2, ...
func uniqueNames(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	suffix := make(map[string]int)
	for i, h := range header {
		name := h
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		base := name
		for seen[name] {
			suffix[base]++
			name = fmt.Sprintf("%s.%d", base, suffix[base])
		}
		seen[name] = true
		out[i] = name
	}
	return out
}

// Columns returns the column names in file order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.columns))
	for i, c := range f.columns {
		out[i] = c.Name
	}
	return out
}

// Column looks up a column by name.
func (f *Frame) Column(name string) (*Column, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.columns[i], true
}

// NumRows returns the number of data rows.
func (f *Frame) NumRows() int { return f.rows }

// NumCols returns the number of columns.
func (f *Frame) NumCols() int { return len(f.columns) }

// SkippedRows returns how many malformed lines were dropped while reading.
func (f *Frame) SkippedRows() int { return f.skipped }

// ColumnTypes returns the classified type of every column.
func (f *Frame) ColumnTypes() map[string]ColumnType {
	out := make(map[string]ColumnType, len(f.columns))
	for _, c := range f.columns {
		out[c.Name] = c.Type
	}
	return out
}

// MemoryUsage estimates the bytes held by the frame's values.
// Numeric cells cost 8 bytes, booleans 1, text cells a pointer plus a string header and payload.
func (f *Frame) MemoryUsage() int64 {
	var total int64
	for _, c := range f.columns {
		switch c.Kind {
		case KindInt, KindFloat:
			total += int64(8 * len(c.Cells))
		case KindBool:
			total += int64(len(c.Cells))
		default:
			for _, cell := range c.Cells {
				total += 8 + 16
				if !cell.Missing {
					total += int64(len(cell.Raw))
				}
			}
		}
	}
	return total
}
