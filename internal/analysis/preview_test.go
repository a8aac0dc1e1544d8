package analysis

import (
	"encoding/json"
	"testing"
)

const fiveRows = "id,name,score,joined\n" +
	"1,ann,1.5,2024-01-01\n" +
	"2,bob,,2024-01-02\n" +
	"3,cid,3.5,2024-01-03\n" +
	"4,dee,4.5,2024-01-04\n" +
	"5,eve,5.5,2024-01-05\n"

func TestPreviewLimitsRows(t *testing.T) {
	f := mustParse(t, fiveRows)
	p := Preview(f, 3)
	if len(p.Data) != 3 || p.PreviewRows != 3 || p.TotalRows != 5 {
		t.Fatalf("preview = %d/%d/%d, want 3/3/5", len(p.Data), p.PreviewRows, p.TotalRows)
	}
	if len(p.Columns) != 4 || p.Columns[0] != "id" {
		t.Fatalf("columns = %v", p.Columns)
	}
}

func TestPreviewBounds(t *testing.T) {
	f := mustParse(t, fiveRows)
	if p := Preview(f, 0); len(p.Data) != 0 || p.TotalRows != 5 {
		t.Fatalf("zero rows: %+v", p)
	}
	if p := Preview(f, -1); len(p.Data) != 0 {
		t.Fatalf("negative rows: %d", len(p.Data))
	}
	if p := Preview(f, 500); len(p.Data) != 5 || p.PreviewRows != 5 {
		t.Fatalf("over-long preview: %d", len(p.Data))
	}
}

func TestPreviewValues(t *testing.T) {
	p := Preview(mustParse(t, fiveRows), DefaultPreviewRows)
	row := p.Data[1]
	if v, _ := row.Get("id"); v != int64(2) {
		t.Fatalf("id = %#v", v)
	}
	if v, ok := row.Get("score"); !ok || v != nil {
		t.Fatalf("missing score = %#v", v)
	}
	if v, _ := row.Get("joined"); v != "2024-01-02T00:00:00" {
		t.Fatalf("joined = %#v", v)
	}
	if _, ok := row.Get("nope"); ok {
		t.Fatalf("unknown column reported as present")
	}
}

func TestPreviewJSONKeepsColumnOrder(t *testing.T) {
	f := mustParse(t, "z,a,m\n1,x,true\n")
	b, err := json.Marshal(Preview(f, 1))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"data":[{"z":1,"a":"x","m":true}],"columns":["z","a","m"],"preview_rows":1,"total_rows":1}`
	if string(b) != want {
		t.Fatalf("json = %s\nwant %s", b, want)
	}
}

func TestPreviewKeepsLargeIntegersExact(t *testing.T) {
	f := mustParse(t, "id,name\n9007199254740993,a\n1,b\n")
	p := Preview(f, 1)
	if v, _ := p.Data[0].Get("id"); v != int64(9007199254740993) {
		t.Fatalf("id = %#v", v)
	}
	b, err := json.Marshal(p.Data[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if want := `{"id":9007199254740993,"name":"a"}`; string(b) != want {
		t.Fatalf("json = %s, want %s", b, want)
	}
}

func TestPreviewDatetimeFormats(t *testing.T) {
	data := "when\n" +
		"2024-01-15 10:00:00.250\n" +
		"2024-01-15T10:00:00Z\n" +
		"2024-01-15T10:00:00.5+02:00\n"
	p := Preview(mustParse(t, data), DefaultPreviewRows)
	want := []string{
		"2024-01-15T10:00:00.25",
		"2024-01-15T10:00:00Z",
		"2024-01-15T10:00:00.5+02:00",
	}
	for i, w := range want {
		if v, _ := p.Data[i].Get("when"); v != w {
			t.Errorf("row %d = %#v, want %q", i, v, w)
		}
	}
}
