package analysis

import (
	"fmt"
	"strings"
)

// Summarize renders a compact, prompt-friendly description of a frame:
// schema with per-column statistics followed by the first sampleRows rows.
func Summarize(name string, f *Frame, sampleRows int) string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", f.NumRows()))
	if f.SkippedRows() > 0 {
		b.WriteString(fmt.Sprintf("Skipped malformed rows: %d\n", f.SkippedRows()))
	}
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", f.NumCols()))

	b.WriteString("[SCHEMA]\n")
	for _, c := range f.columns {
		total := len(c.Cells)
		miss := c.MissingCount()
		missPct := 0.0
		if total > 0 {
			missPct = float64(miss) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Type, total-miss, missPct))
		st, err := ColumnStatistics(f, c.Name)
		if err == nil {
			writeStatsNote(&b, st)
		}
		b.WriteString("\n")
	}

	if sampleRows > 0 && f.NumRows() > 0 {
		p := Preview(f, sampleRows)
		b.WriteString("\n[SAMPLE ROWS]\n| ")
		b.WriteString(strings.Join(mapStrings(p.Columns, safeName), " | "))
		b.WriteString(" |\n|")
		b.WriteString(strings.Repeat(" --- |", len(p.Columns)))
		b.WriteString("\n")
		for i := 0; i < p.PreviewRows; i++ {
			b.WriteString("| ")
			for j, c := range f.columns {
				if j > 0 {
					b.WriteString(" | ")
				}
				val := ""
				if cell := c.Cells[i]; !cell.Missing {
					val = cell.Raw
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	return b.String()
}

func writeStatsNote(b *strings.Builder, st *ColumnStats) {
	if ns := st.NumericStats; ns != nil {
		if ns.Mean == nil {
			return
		}
		b.WriteString(fmt.Sprintf("; min %.4g, max %.4g, mean %.4g, std %.4g", deref(ns.Min), deref(ns.Max), *ns.Mean, deref(ns.Std)))
		return
	}
	if cs := st.CategoricalStats; cs != nil && len(cs.TopValues) > 0 {
		b.WriteString("; top: ")
		lim := len(cs.TopValues)
		if lim > 5 {
			lim = 5
		}
		for i, vc := range cs.TopValues[:lim] {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(fmt.Sprintf("%s(%d)", safeVal(vc.Value), vc.Count))
		}
		if st.UniqueValues > lim {
			b.WriteString(fmt.Sprintf("; unique=%d", st.UniqueValues))
		}
	}
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func mapStrings(in []string, fn func(string) string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = fn(s)
	}
	return out
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
