package analysis

import (
	"strings"
	"testing"
)

func TestSummarize(t *testing.T) {
	f := mustParse(t, fiveRows)
	md := Summarize("people.csv", f, 2)
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"File: people.csv",
		"Rows: 5",
		"Columns: 4",
		"- id: integer (non-null 5, missing 0.0%); min 1, max 5, mean 3",
		"- score: float (non-null 4, missing 20.0%)",
		"- name: string",
		"[SAMPLE ROWS]",
		"| id | name | score | joined |",
		"| 2 | bob |  | 2024-01-02 |",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("summary missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "| 3 | cid |") {
		t.Fatalf("summary has more sample rows than asked:\n%s", md)
	}
}
