package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jabiru-analytics/jabiru/internal/analysis"
	"github.com/jabiru-analytics/jabiru/internal/utils"
)

var (
	anaDelimiter string
	anaEncoding  string
	anaSheet     string
	anaRows      int
	anaColumns   []string
	anaJSON      bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Preview and profile a CSV/TSV/XLSX file",
	Example: `  jabiru analyze sales.csv
  jabiru analyze sales.csv --column revenue --column region
  jabiru analyze export.txt --delimiter tab --encoding windows-1252 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		opt := analysis.Options{Encoding: anaEncoding, Sheet: anaSheet}
		d, err := parseDelimiterFlag(anaDelimiter)
		if err != nil {
			return err
		}
		opt.Delimiter = d

		frame, meta, err := analysis.ParseFile(path, opt)
		if err != nil {
			return err
		}
		return renderAnalysis(cmd.OutOrStdout(), filepath.Base(path), frame, meta, anaRows, anaColumns, anaJSON)
	},
}

func parseDelimiterFlag(v string) (rune, error) {
	switch v {
	case "":
		return 0, nil
	case "tab", `\t`, "\t":
		return '\t', nil
	}
	r := []rune(v)
	if len(r) != 1 {
		return 0, fmt.Errorf("unsupported --delimiter: %s (use a single character or 'tab')", v)
	}
	return r[0], nil
}

type analysisReport struct {
	File     string                  `json:"file"`
	Metadata *analysis.Metadata      `json:"metadata"`
	Preview  *analysis.PreviewResult `json:"preview"`
	Stats    []*analysis.ColumnStats `json:"column_stats,omitempty"`
}

func renderAnalysis(w io.Writer, name string, frame *analysis.Frame, meta *analysis.Metadata, rows int, columns []string, asJSON bool) error {
	rep := analysisReport{File: name, Metadata: meta, Preview: analysis.Preview(frame, rows)}
	for _, c := range columns {
		st, err := analysis.ColumnStatistics(frame, c)
		if err != nil {
			return err
		}
		rep.Stats = append(rep.Stats, st)
	}

	if asJSON {
		b, err := utils.PrettyJSON(rep)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}

	fmt.Fprintf(w, "%s: %d rows × %d columns (encoding %s, delimiter %q)\n\n",
		name, meta.TotalRows, meta.TotalColumns, meta.Encoding, meta.Delimiter)

	t := newTable(w)
	t.AppendHeader(table.Row{"Column", "Type", "Missing"})
	for _, c := range meta.Columns {
		t.AppendRow(table.Row{c, meta.ColumnTypes[c], meta.MissingValuesPerColumn[c]})
	}
	t.Render()

	if len(rep.Preview.Data) > 0 {
		fmt.Fprintf(w, "\nFirst %d rows:\n", rep.Preview.PreviewRows)
		pt := newTable(w)
		header := make(table.Row, len(rep.Preview.Columns))
		for i, c := range rep.Preview.Columns {
			header[i] = c
		}
		pt.AppendHeader(header)
		for _, row := range rep.Preview.Data {
			tr := make(table.Row, len(rep.Preview.Columns))
			for i, c := range rep.Preview.Columns {
				v, _ := row.Get(c)
				tr[i] = formatCell(v)
			}
			pt.AppendRow(tr)
		}
		pt.Render()
	}

	for _, st := range rep.Stats {
		fmt.Fprintf(w, "\nStatistics for %s:\n", st.Column)
		renderStats(w, st)
	}
	return nil
}

func renderStats(w io.Writer, st *analysis.ColumnStats) {
	t := newTable(w)
	t.AppendRow(table.Row{"data type", st.DataType})
	t.AppendRow(table.Row{"total values", st.TotalValues})
	t.AppendRow(table.Row{"missing values", st.MissingValues})
	t.AppendRow(table.Row{"unique values", st.UniqueValues})
	if n := st.NumericStats; n != nil {
		t.AppendRow(table.Row{"mean", formatFloat(n.Mean)})
		t.AppendRow(table.Row{"median", formatFloat(n.Median)})
		t.AppendRow(table.Row{"std", formatFloat(n.Std)})
		t.AppendRow(table.Row{"min", formatFloat(n.Min)})
		t.AppendRow(table.Row{"max", formatFloat(n.Max)})
		t.AppendRow(table.Row{"q1 / q2 / q3", strings.Join([]string{
			formatFloat(n.Quartiles.Q1), formatFloat(n.Quartiles.Q2), formatFloat(n.Quartiles.Q3),
		}, " / ")})
	}
	if c := st.CategoricalStats; c != nil {
		if c.Mode != nil {
			t.AppendRow(table.Row{"mode", *c.Mode})
		}
		for _, vc := range c.TopValues {
			t.AppendRow(table.Row{"top: " + vc.Value, vc.Count})
		}
	}
	t.Render()
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func formatFloat(f *float64) string {
	if f == nil {
		return "-"
	}
	return strconv.FormatFloat(*f, 'g', 6, 64)
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVar(&anaDelimiter, "delimiter", "", "field delimiter: a single character or 'tab' (sniffed if omitted)")
	analyzeCmd.Flags().StringVar(&anaEncoding, "encoding", "", "text encoding, e.g. utf-8, windows-1252 (detected if omitted)")
	analyzeCmd.Flags().StringVar(&anaSheet, "sheet", "", "XLSX: sheet name (first sheet if omitted)")
	analyzeCmd.Flags().IntVar(&anaRows, "rows", 10, "number of preview rows")
	analyzeCmd.Flags().StringSliceVar(&anaColumns, "column", nil, "column to compute statistics for (repeatable)")
	analyzeCmd.Flags().BoolVar(&anaJSON, "json", false, "print the report as JSON")
}
