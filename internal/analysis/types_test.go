package analysis

import "testing"

func TestClassifyColumn(t *testing.T) {
	cases := []struct {
		name   string
		values []string
		want   ColumnType
	}{
		{"zero one is integer", []string{"0", "1", "1", "0"}, TypeInteger},
		{"whole floats are integer", []string{"1.0", "2.0"}, TypeInteger},
		{"decimals are float", []string{"1.5", "2"}, TypeFloat},
		{"exponent", []string{"1e3", "2.5e-1"}, TypeFloat},
		{"dates", []string{"2024-01-01", "2024-02-15"}, TypeDatetime},
		{"timestamps", []string{"2024-01-01 10:00:00", "2024-01-02T11:30:00Z"}, TypeDatetime},
		{"true false", []string{"true", "false", "true"}, TypeBoolean},
		{"yes no", []string{"Yes", "No"}, TypeBoolean},
		{"single token", []string{"t", "t"}, TypeBoolean},
		{"three distinct tokens", []string{"true", "false", "yes"}, TypeString},
		{"text", []string{"apple", "banana"}, TypeString},
		{"mixed", []string{"1", "apple"}, TypeString},
		{"empty", nil, TypeUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyColumn(tc.values); got != tc.want {
				t.Fatalf("ClassifyColumn(%v) = %q, want %q", tc.values, got, tc.want)
			}
		})
	}
}

func TestFrameColumnTypes(t *testing.T) {
	data := "id,flag,score,when,label,empty\n" +
		"1,true,1.5,2024-01-01,apple,\n" +
		"0,false,2.0,2024-02-01,banana,\n"
	f, md, err := Parse([]byte(data), Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := map[string]ColumnType{
		"id":    TypeInteger,
		"flag":  TypeBoolean,
		"score": TypeFloat,
		"when":  TypeDatetime,
		"label": TypeString,
		"empty": TypeUnknown,
	}
	got := f.ColumnTypes()
	for col, typ := range want {
		if got[col] != typ {
			t.Errorf("%s: got %q, want %q", col, got[col], typ)
		}
		if md.ColumnTypes[col] != typ {
			t.Errorf("metadata %s: got %q, want %q", col, md.ColumnTypes[col], typ)
		}
	}
	if md.MissingValuesPerColumn["empty"] != 2 {
		t.Fatalf("missing empty = %d", md.MissingValuesPerColumn["empty"])
	}
}
