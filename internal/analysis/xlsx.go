package analysis

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParseXLSX reads one sheet of a workbook into a frame. The first row is the header.
// Metadata reports "utf-8" and an empty delimiter for spreadsheets.
func ParseXLSX(data []byte, opt Options) (*Frame, *Metadata, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, ErrNoColumns
	}
	sheet := sheets[0]
	if opt.Sheet != "" {
		sheet = ""
		for _, s := range sheets {
			if strings.EqualFold(s, opt.Sheet) {
				sheet = s
				break
			}
		}
		if sheet == "" {
			return nil, nil, fmt.Errorf("sheet '%s' not found in workbook. Available sheets: %s",
				opt.Sheet, strings.Join(sheets, ", "))
		}
	}

	rows, err := wb.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil, ErrNoColumns
	}
	header := rows[0]
	ncol := len(header)
	var (
		records [][]string
		skipped int
	)
	for _, r := range rows[1:] {
		if len(r) > ncol {
			skipped++
			continue
		}
		rec := make([]string, ncol)
		copy(rec, r)
		records = append(records, rec)
	}
	f := newFrame(header, records, skipped)
	return f, buildMetadata(f, int64(len(data)), DefaultEncoding, ""), nil
}
