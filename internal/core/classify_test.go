package core

import (
	"testing"

	"github.com/JonMunkholm/ClientClean/internal/phone"
)

func rec(line int, name, number string) RawRecord {
	return RawRecord{Line: line, Name: NewCell(name), Number: NewCell(number)}
}

func TestClassify(t *testing.T) {
	table := phone.DefaultTable()
	rows := []RawRecord{
		rec(2, "Alice", "01012345678"),
		rec(3, "  Bob ", "+966 50 123 4567"),
		rec(4, "", "01012345678"),
		rec(5, "Carol", "n/a"),
		rec(6, "Alice", "00201012345678"), // same pair as line 2 after normalization
		{Line: 7, Name: NewCell("Dave")},   // number cell missing
		rec(8, "Erin", "12345"),
		rec(9, "Bob", "966501234567"), // same pair as line 3 after trimming
		rec(10, "alice", "201012345678"),
	}

	got := Classify(rows, table)

	if got.Total != len(rows) {
		t.Errorf("Total = %d, want %d", got.Total, len(rows))
	}
	wantValid := []NormalizedRecord{
		{Name: "Alice", Number: "201012345678"},
		{Name: "Bob", Number: "966501234567"},
		{Name: "alice", Number: "201012345678"},
	}
	if len(got.Valid) != len(wantValid) {
		t.Fatalf("Valid = %v, want %v", got.Valid, wantValid)
	}
	for i := range wantValid {
		if got.Valid[i] != wantValid[i] {
			t.Errorf("Valid[%d] = %v, want %v", i, got.Valid[i], wantValid[i])
		}
	}

	wantRejected := []struct {
		line   int
		reason string
	}{
		{4, ReasonEmptyName},
		{5, ReasonInvalidNumber},
		{7, ReasonInvalidNumber},
		{8, ReasonInvalidNumber},
	}
	if len(got.Rejected) != len(wantRejected) {
		t.Fatalf("Rejected has %d rows, want %d: %+v", len(got.Rejected), len(wantRejected), got.Rejected)
	}
	for i, w := range wantRejected {
		if got.Rejected[i].Line != w.line || got.Rejected[i].Reason != w.reason {
			t.Errorf("Rejected[%d] = line %d %q, want line %d %q",
				i, got.Rejected[i].Line, got.Rejected[i].Reason, w.line, w.reason)
		}
	}
	if got.Rejected[1].Number.Value != "n/a" {
		t.Errorf("rejected row lost its raw value: %+v", got.Rejected[1])
	}

	if got.Duplicates != 2 {
		t.Errorf("Duplicates = %d, want 2", got.Duplicates)
	}
	if got.Total != len(got.Valid)+len(got.Rejected)+got.Duplicates {
		t.Error("Valid, Rejected and Duplicates do not account for every row")
	}
}

func TestClassify_MissingNameBeforeNumber(t *testing.T) {
	got := Classify([]RawRecord{{Line: 2, Number: NewCell("bad")}}, phone.DefaultTable())
	if len(got.Rejected) != 1 || got.Rejected[0].Reason != ReasonEmptyName {
		t.Errorf("Rejected = %+v, want one empty name rejection", got.Rejected)
	}
}

func TestClassify_Empty(t *testing.T) {
	got := Classify(nil, phone.DefaultTable())
	if got.Total != 0 || len(got.Valid) != 0 || len(got.Rejected) != 0 || got.Duplicates != 0 {
		t.Errorf("Classify(nil) = %+v, want zero result", got)
	}
}

func TestCountByCountry(t *testing.T) {
	table := phone.DefaultTable()
	valid := []NormalizedRecord{
		{Name: "a", Number: "201012345678"},
		{Name: "b", Number: "201112345678"},
		{Name: "c", Number: "966501234567"},
		{Name: "d", Number: "14155550100"},
	}

	counts := CountByCountry(valid, table)
	if len(counts) != len(table.Entries()) {
		t.Fatalf("got %d rows, want one per table entry", len(counts))
	}

	want := map[string]int{"20": 2, "966": 1, "1": 1, "971": 0}
	for _, c := range counts {
		if n, ok := want[c.Prefix]; ok && c.Count != n {
			t.Errorf("count for %s = %d, want %d", c.Prefix, c.Count, n)
		}
	}
	if counts[0].Prefix != "20" || counts[0].Region != "EG" {
		t.Errorf("first row = %+v, want prefix 20 region EG", counts[0])
	}
}
