package analysis

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ColumnType is the semantic type label assigned to a column.
type ColumnType string

const (
	TypeInteger  ColumnType = "integer"
	TypeFloat    ColumnType = "float"
	TypeDatetime ColumnType = "datetime"
	TypeBoolean  ColumnType = "boolean"
	TypeString   ColumnType = "string"
	TypeUnknown  ColumnType = "unknown"
)

// typeProbe inspects the non-missing values of a column and claims it when it matches.
type typeProbe func(values []string) (ColumnType, bool)

// typeProbes run in order; the first match wins.
var typeProbes = []typeProbe{probeNumeric, probeDatetime, probeBoolean}

// ClassifyColumn labels a column from its non-missing raw values.
func ClassifyColumn(values []string) ColumnType {
	if len(values) == 0 {
		return TypeUnknown
	}
	for _, probe := range typeProbes {
		if t, ok := probe(values); ok {
			return t
		}
	}
	return TypeString
}

func probeNumeric(values []string) (ColumnType, bool) {
	integral := true
	for _, v := range values {
		x, ok := parseNumber(v)
		if !ok {
			return "", false
		}
		if integral && !isWhole(x) {
			integral = false
		}
	}
	if integral {
		return TypeInteger, true
	}
	return TypeFloat, true
}

func probeDatetime(values []string) (ColumnType, bool) {
	for _, v := range values {
		if _, ok := parseDatetime(v); !ok {
			return "", false
		}
	}
	return TypeDatetime, true
}

var booleanTokens = map[string]struct{}{
	"true": {}, "false": {}, "1": {}, "0": {}, "yes": {}, "no": {}, "t": {}, "f": {},
}

// probeBoolean accepts at most two distinct values, all of them boolean tokens.
func probeBoolean(values []string) (ColumnType, bool) {
	distinct := make(map[string]struct{}, 2)
	for _, v := range values {
		distinct[v] = struct{}{}
		if len(distinct) > 2 {
			return "", false
		}
	}
	for v := range distinct {
		if _, ok := booleanTokens[strings.ToLower(strings.TrimSpace(v))]; !ok {
			return "", false
		}
	}
	return TypeBoolean, true
}

// parseNumber parses decimal text, including exponents and inf; hex notation is rejected.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	t := strings.TrimLeft(s, "+-")
	if len(t) > 1 && t[0] == '0' && (t[1] == 'x' || t[1] == 'X') {
		return 0, false
	}
	x, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return x, true
}

func isWhole(x float64) bool {
	return !math.IsInf(x, 0) && !math.IsNaN(x) && math.Trunc(x) == x
}

// naiveZone marks times parsed from text that carried no zone. Its one-second
// offset never matches a real offset written in a file.
var naiveZone = time.FixedZone("", 1)

// parseDatetime parses a timestamp; text without a zone is placed in naiveZone.
func parseDatetime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(s, naiveZone)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// formatDatetime renders ISO-8601 with sub-second digits as needed. Naive
// times keep their wall clock and get no zone suffix.
func formatDatetime(t time.Time) string {
	if t.Location() == naiveZone {
		return t.Format("2006-01-02T15:04:05.999999999")
	}
	return t.Format(time.RFC3339Nano)
}
