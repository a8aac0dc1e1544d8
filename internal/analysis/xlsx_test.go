package analysis

import (
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T) []byte {
	t.Helper()
	wb := excelize.NewFile()
	defer wb.Close()
	rows := [][]any{
		{"fruit", "qty", "price"},
		{"apple", 3, 1.25},
		{"pear", 5, 0.8},
		{"plum", 1},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := wb.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	if _, err := wb.NewSheet("Notes"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	buf, err := wb.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestParseXLSX(t *testing.T) {
	f, md, err := ParseNamed("stock.xlsx", writeWorkbook(t), Options{})
	if err != nil {
		t.Fatalf("ParseNamed: %v", err)
	}
	if md.TotalRows != 3 || md.TotalColumns != 3 {
		t.Fatalf("rows/cols = %d/%d", md.TotalRows, md.TotalColumns)
	}
	if md.Delimiter != "" || md.Encoding != "utf-8" {
		t.Fatalf("delimiter=%q encoding=%q", md.Delimiter, md.Encoding)
	}
	if md.ColumnTypes["qty"] != TypeInteger || md.ColumnTypes["price"] != TypeFloat || md.ColumnTypes["fruit"] != TypeString {
		t.Fatalf("types = %v", md.ColumnTypes)
	}
	if md.MissingValuesPerColumn["price"] != 1 {
		t.Fatalf("missing = %v", md.MissingValuesPerColumn)
	}
	if p := Preview(f, 2); len(p.Data) != 2 {
		t.Fatalf("preview rows = %d", len(p.Data))
	}
}

func TestParseXLSXUnknownSheet(t *testing.T) {
	_, _, err := ParseXLSX(writeWorkbook(t), Options{Sheet: "Budget"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "Sheet1, Notes") {
		t.Fatalf("error should list sheets: %v", err)
	}
}

func TestParseXLSXEmptySheet(t *testing.T) {
	_, _, err := ParseXLSX(writeWorkbook(t), Options{Sheet: "notes"})
	if err != ErrNoColumns {
		t.Fatalf("err = %v, want ErrNoColumns", err)
	}
}
