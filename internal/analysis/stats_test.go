package analysis

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
)

func mustParse(t *testing.T, data string) *Frame {
	t.Helper()
	f, _, err := Parse([]byte(data), Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return f
}

func TestColumnStatisticsNumeric(t *testing.T) {
	f := mustParse(t, "v,c\n1,x\n2,y\n3,x\n4,\n")
	st, err := ColumnStatistics(f, "v")
	if err != nil {
		t.Fatalf("ColumnStatistics: %v", err)
	}
	if st.TotalValues != 4 || st.MissingValues != 0 || st.UniqueValues != 4 {
		t.Fatalf("counts = %+v", st)
	}
	if st.DataType != "int64" {
		t.Fatalf("data type = %q", st.DataType)
	}
	if st.NumericStats == nil || st.CategoricalStats != nil {
		t.Fatalf("expected numeric block only")
	}
	checks := []struct {
		name string
		got  *float64
		want float64
	}{
		{"mean", st.Mean, 2.5},
		{"median", st.Median, 2.5},
		{"std", st.Std, math.Sqrt(1.25)},
		{"min", st.Min, 1},
		{"max", st.Max, 4},
		{"q1", st.Quartiles.Q1, 1.75},
		{"q2", st.Quartiles.Q2, 2.5},
		{"q3", st.Quartiles.Q3, 3.25},
	}
	for _, c := range checks {
		if c.got == nil || !almostEqual(*c.got, c.want, 1e-9) {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestColumnStatisticsCountsLargeIntegersExactly(t *testing.T) {
	f := mustParse(t, "id\n9007199254740993\n9007199254740992\n9007199254740993\n")
	st, err := ColumnStatistics(f, "id")
	if err != nil {
		t.Fatalf("ColumnStatistics: %v", err)
	}
	if st.DataType != "int64" || st.UniqueValues != 2 {
		t.Fatalf("data type = %q, unique = %d", st.DataType, st.UniqueValues)
	}
}

func TestColumnStatisticsCategorical(t *testing.T) {
	f := mustParse(t, "v,c\n1,x\n2,y\n3,x\n4,\n")
	st, err := ColumnStatistics(f, "c")
	if err != nil {
		t.Fatalf("ColumnStatistics: %v", err)
	}
	if st.TotalValues != 4 || st.MissingValues != 1 || st.UniqueValues != 2 {
		t.Fatalf("counts = %+v", st)
	}
	if st.DataType != "object" {
		t.Fatalf("data type = %q", st.DataType)
	}
	if st.Mode == nil || *st.Mode != "x" {
		t.Fatalf("mode = %v", st.Mode)
	}
	b, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	js := string(b)
	if !strings.Contains(js, `"top_values":{"x":2,"y":1}`) {
		t.Fatalf("json = %s", js)
	}
	if strings.Contains(js, `"mean"`) {
		t.Fatalf("categorical stats must not carry numeric fields: %s", js)
	}
}

func TestColumnStatisticsModeTieTakesSmallest(t *testing.T) {
	f := mustParse(t, "c,d\nb,1\na,2\n")
	st, err := ColumnStatistics(f, "c")
	if err != nil {
		t.Fatalf("ColumnStatistics: %v", err)
	}
	if *st.Mode != "a" {
		t.Fatalf("mode = %q, want a", *st.Mode)
	}
	if st.TopValues[0].Value != "b" {
		t.Fatalf("top values keep first appearance on ties: %v", st.TopValues)
	}
}

func TestColumnStatisticsTopValuesLimit(t *testing.T) {
	var b strings.Builder
	b.WriteString("c,n\n")
	for i := 0; i < 15; i++ {
		b.WriteString(string(rune('a'+i)) + ",1\n")
	}
	st, err := ColumnStatistics(mustParse(t, b.String()), "c")
	if err != nil {
		t.Fatalf("ColumnStatistics: %v", err)
	}
	if len(st.TopValues) != TopValuesLimit || st.UniqueValues != 15 {
		t.Fatalf("top=%d unique=%d", len(st.TopValues), st.UniqueValues)
	}
}

func TestColumnStatisticsAllMissingNumeric(t *testing.T) {
	f := mustParse(t, "a,b\n1,\n2,\n")
	st, err := ColumnStatistics(f, "b")
	if err != nil {
		t.Fatalf("ColumnStatistics: %v", err)
	}
	if st.MissingValues != 2 || st.Mean != nil || st.Quartiles.Q1 != nil {
		t.Fatalf("stats = %+v", st.NumericStats)
	}
	b, _ := json.Marshal(st)
	if !strings.Contains(string(b), `"mean":null`) {
		t.Fatalf("json = %s", b)
	}
}

func TestColumnStatisticsMissingColumn(t *testing.T) {
	f := mustParse(t, "a,b\n1,2\n")
	_, err := ColumnStatistics(f, "revenue")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, ErrInvalidArgument) || !errors.Is(err, ErrColumnNotFound) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(err.Error(), "revenue") {
		t.Fatalf("error does not name the column: %v", err)
	}
}

func TestQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	if got := quantile(sorted, 0.25); got != 2 {
		t.Fatalf("q1 = %v", got)
	}
	if got := quantile([]float64{10}, 0.75); got != 10 {
		t.Fatalf("single = %v", got)
	}
}

func almostEqual(a, b, eps float64) bool { return math.Abs(a-b) <= eps }
