package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// TopValuesLimit caps the frequency table of non-numeric columns.
const TopValuesLimit = 10

// ErrInvalidArgument classifies caller mistakes such as unknown column names.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrColumnNotFound is wrapped by InvalidArgumentError when a column is absent.
var ErrColumnNotFound = errors.New("column not found")

// InvalidArgumentError reports a bad argument together with the offending value.
type InvalidArgumentError struct {
	Column string
	Err    error
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("Column '%s' not found in data", e.Column)
}

func (e *InvalidArgumentError) Unwrap() error { return e.Err }

func (e *InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// ColumnStats is the statistical summary of one column. Exactly one of the
// embedded blocks is set, depending on whether the column is stored as numbers.
type ColumnStats struct {
	Column        string `json:"column"`
	TotalValues   int    `json:"total_values"`
	MissingValues int    `json:"missing_values"`
	UniqueValues  int    `json:"unique_values"`
	DataType      string `json:"data_type"`
	*NumericStats
	*CategoricalStats
}

// NumericStats holds moments and order statistics; all nil when no value is present.
type NumericStats struct {
	Mean      *float64  `json:"mean"`
	Median    *float64  `json:"median"`
	Std       *float64  `json:"std"`
	Min       *float64  `json:"min"`
	Max       *float64  `json:"max"`
	Quartiles Quartiles `json:"quartiles"`
}

type Quartiles struct {
	Q1 *float64 `json:"q1"`
	Q2 *float64 `json:"q2"`
	Q3 *float64 `json:"q3"`
}

// CategoricalStats holds the most frequent values and the mode.
type CategoricalStats struct {
	TopValues TopValues `json:"top_values"`
	Mode      *string   `json:"mode"`
}

// ValueCount pairs a value with its occurrence count.
type ValueCount struct {
	Value string
	Count int
}

// TopValues is ordered by descending count and marshals as a JSON object in that order.
type TopValues []ValueCount

func (tv TopValues) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, vc := range tv {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(vc.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(vc.Count))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ColumnStatistics summarizes one column of the frame.
func ColumnStatistics(f *Frame, column string) (*ColumnStats, error) {
	col, ok := f.Column(column)
	if !ok {
		return nil, &InvalidArgumentError{Column: column, Err: ErrColumnNotFound}
	}
	st := &ColumnStats{
		Column:        col.Name,
		TotalValues:   len(col.Cells),
		MissingValues: col.MissingCount(),
		DataType:      col.Kind.DType(),
	}
	if col.Kind.Numeric() {
		vals := make([]float64, 0, len(col.Cells))
		distinct := make(map[float64]struct{})
		distinctInts := make(map[int64]struct{})
		for _, c := range col.Cells {
			if c.Missing {
				continue
			}
			vals = append(vals, c.Num)
			if col.Kind == KindInt {
				distinctInts[c.Int] = struct{}{}
			} else {
				distinct[c.Num] = struct{}{}
			}
		}
		st.UniqueValues = len(distinct) + len(distinctInts)
		st.NumericStats = numericStats(vals)
		return st, nil
	}
	counts := countValues(col)
	st.UniqueValues = len(counts)
	st.CategoricalStats = categoricalStats(counts)
	return st, nil
}

func numericStats(vals []float64) *NumericStats {
	ns := &NumericStats{}
	if len(vals) == 0 {
		return ns
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range vals {
		sum += v
	}
	mean := sum / float64(len(vals))
	var ss float64
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	std := math.Sqrt(ss / float64(len(vals)))

	ns.Mean = finite(mean)
	ns.Std = finite(std)
	ns.Min = finite(sorted[0])
	ns.Max = finite(sorted[len(sorted)-1])
	ns.Median = finite(quantile(sorted, 0.5))
	ns.Quartiles = Quartiles{
		Q1: finite(quantile(sorted, 0.25)),
		Q2: finite(quantile(sorted, 0.5)),
		Q3: finite(quantile(sorted, 0.75)),
	}
	return ns
}

// countValues tallies non-missing values, ordered by descending count then first appearance.
func countValues(col *Column) []ValueCount {
	idx := make(map[string]int)
	var out []ValueCount
	for _, c := range col.Cells {
		if c.Missing {
			continue
		}
		i, ok := idx[c.Raw]
		if !ok {
			i = len(out)
			idx[c.Raw] = i
			out = append(out, ValueCount{Value: c.Raw})
		}
		out[i].Count++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

func categoricalStats(counts []ValueCount) *CategoricalStats {
	cs := &CategoricalStats{TopValues: TopValues{}}
	if len(counts) == 0 {
		return cs
	}
	n := len(counts)
	if n > TopValuesLimit {
		n = TopValuesLimit
	}
	cs.TopValues = append(cs.TopValues, counts[:n]...)

	// ties resolve to the smallest value
	mode := counts[0].Value
	for _, vc := range counts[1:] {
		if vc.Count < counts[0].Count {
			break
		}
		if vc.Value < mode {
			mode = vc.Value
		}
	}
	cs.Mode = &mode
	return cs
}

// quantile interpolates linearly between the closest ranks of sorted values.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// finite returns nil for NaN and infinities, which have no JSON form.
func finite(x float64) *float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil
	}
	return &x
}
