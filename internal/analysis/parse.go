package analysis

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// CandidateDelimiters are tried in order when no delimiter is given.
var CandidateDelimiters = []rune{',', ';', '\t', '|'}

// ErrNoColumns is returned for input without a header line.
var ErrNoColumns = errors.New("no columns to parse from file")

// Options controls how a file is parsed.
type Options struct {
	// Encoding overrides detection when set.
	Encoding string
	// Delimiter is accepted as-is when non-zero; otherwise candidates are sniffed.
	Delimiter rune
	// Sheet selects a spreadsheet sheet by name; empty means the first sheet.
	Sheet string
}

// Metadata describes a parsed file.
type Metadata struct {
	TotalRows              int                   `json:"total_rows"`
	TotalColumns           int                   `json:"total_columns"`
	FileSizeBytes          int64                 `json:"file_size_bytes"`
	Encoding               string                `json:"encoding"`
	Delimiter              string                `json:"delimiter"`
	Columns                []string              `json:"columns"`
	ColumnTypes            map[string]ColumnType `json:"column_types"`
	MemoryUsageBytes       int64                 `json:"memory_usage_bytes"`
	HasMissingValues       bool                  `json:"has_missing_values"`
	MissingValuesPerColumn map[string]int        `json:"missing_values_per_column"`
}

// ParseFile reads a file from disk and parses it according to its extension.
func ParseFile(path string, opt Options) (*Frame, *Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return ParseNamed(filepath.Base(path), data, opt)
}

// ParseNamed parses data as a spreadsheet or delimited text depending on the file name.
// A .tsv name implies a tab delimiter unless one is given.
func ParseNamed(name string, data []byte, opt Options) (*Frame, *Metadata, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		return ParseXLSX(data, opt)
	case ".tsv":
		if opt.Delimiter == 0 {
			opt.Delimiter = '\t'
		}
	}
	return Parse(data, opt)
}

// IsTabular reports whether a file name has an extension that can be previewed.
func IsTabular(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".tsv", ".xlsx":
		return true
	}
	return false
}

// Parse decodes delimited text and builds a frame and its metadata.
//
// Candidates are tried in order and the first that yields more than one column wins.
// An explicit delimiter is accepted as long as it parses, whatever the column count.
// When nothing is accepted the text is parsed with a comma, which may still fail.
func Parse(data []byte, opt Options) (*Frame, *Metadata, error) {
	enc := opt.Encoding
	if enc == "" {
		enc = DetectEncoding(data)
	}
	text, err := decodeToUTF8(data, enc)
	if err != nil {
		return nil, nil, fmt.Errorf("decode: %w", err)
	}

	candidates := CandidateDelimiters
	if opt.Delimiter != 0 {
		candidates = []rune{opt.Delimiter}
	}
	var (
		frame *Frame
		used  rune
	)
	for _, d := range candidates {
		f, err := readDelimited(text, d)
		if err != nil {
			continue
		}
		if f.NumCols() > 1 || opt.Delimiter != 0 {
			frame, used = f, d
			break
		}
	}
	if frame == nil {
		f, err := readDelimited(text, ',')
		if err != nil {
			return nil, nil, fmt.Errorf("parse delimited text: %w", err)
		}
		frame, used = f, ','
	}
	return frame, buildMetadata(frame, int64(len(data)), enc, string(used)), nil
}

// readDelimited parses text with one delimiter. Lines with more fields than the header
// and lines the reader rejects are skipped; short lines are padded with missing cells.
func readDelimited(text []byte, delim rune) (*Frame, error) {
	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoColumns
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	ncol := len(header)

	var (
		records [][]string
		skipped int
	)
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				skipped++
				continue
			}
			return nil, fmt.Errorf("read row %d: %w", len(records)+1, err)
		}
		if len(rec) > ncol {
			skipped++
			continue
		}
		if len(rec) < ncol {
			padded := make([]string, ncol)
			copy(padded, rec)
			rec = padded
		}
		records = append(records, rec)
	}
	return newFrame(header, records, skipped), nil
}

func buildMetadata(f *Frame, size int64, encoding, delimiter string) *Metadata {
	md := &Metadata{
		TotalRows:              f.NumRows(),
		TotalColumns:           f.NumCols(),
		FileSizeBytes:          size,
		Encoding:               encoding,
		Delimiter:              delimiter,
		Columns:                f.Columns(),
		ColumnTypes:            f.ColumnTypes(),
		MemoryUsageBytes:       f.MemoryUsage(),
		MissingValuesPerColumn: make(map[string]int, f.NumCols()),
	}
	for _, c := range f.columns {
		n := c.MissingCount()
		md.MissingValuesPerColumn[c.Name] = n
		if n > 0 {
			md.HasMissingValues = true
		}
	}
	return md
}
