package diag

import (
	"testing"

	"corecheck/internal/source"
)

func TestFormatGoldenDiagnostics(t *testing.T) {
	fs := source.NewFileSet()
	userFile := fs.Add("testdata/golden/sample.cc", []byte("a\nb\n"), 0)

	diags := []*Diagnostic{
		{
			Severity: SevError,
			Code:     TypeMismatch,
			Message:  "first line\nsecond",
			Primary:  source.Span{File: userFile, Start: 0, End: 1},
			Notes: []Note{
				{Span: source.Span{File: userFile, Start: 2, End: 3}, Msg: "note line"},
			},
		},
		{
			Severity: SevWarning,
			Code:     OwnUseAfterMove,
			Message:  "another",
			Primary:  source.Span{File: userFile, Start: 2, End: 3},
		},
	}

	expected := "error TYP3001 testdata/golden/sample.cc:1:1 first line second\n" +
		"note TYP3001 testdata/golden/sample.cc:2:1 note line\n" +
		"warning OWN3201 testdata/golden/sample.cc:2:1 another"

	if got := FormatGoldenDiagnostics(diags, fs, true); got != expected {
		t.Fatalf("unexpected golden diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
}

func TestBagLimitSortAndDedup(t *testing.T) {
	bag := NewBag(3)
	sp := func(start uint32) source.Span { return source.Span{Start: start, End: start + 1} }

	bag.Add(NewError(OwnBorrowConflict, sp(10), "b"))
	bag.Add(NewError(TypeMismatch, sp(2), "a"))
	bag.Add(NewError(TypeMismatch, sp(2), "a"))
	if bag.Add(NewError(TraitMissingMethod, sp(1), "c")) {
		t.Fatalf("expected limit to reject fourth diagnostic")
	}
	if bag.Dropped() != 1 {
		t.Fatalf("dropped = %d, want 1", bag.Dropped())
	}

	bag.Dedup()
	bag.Sort()
	codes := bag.Codes()
	if len(codes) != 2 || codes[0] != TypeMismatch || codes[1] != OwnBorrowConflict {
		t.Fatalf("unexpected order: %v", codes)
	}
	if !bag.HasErrors() {
		t.Fatalf("expected errors")
	}
	if got := len(bag.ByCategory(CategoryOwnership)); got != 1 {
		t.Fatalf("ownership diagnostics = %d, want 1", got)
	}
}

func TestDedupReporterForwardsOnce(t *testing.T) {
	bag := NewBag(0)
	r := NewDedupReporter(BagReporter{Bag: bag})
	sp := source.Span{Start: 4, End: 6}

	ReportError(r, OwnUseAfterMove, sp, "use of moved value `s`").
		WithNote(source.Span{Start: 1, End: 2}, "value moved here").
		Emit()
	ReportError(r, OwnUseAfterMove, sp, "use of moved value `s`").Emit()

	if bag.Len() != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", bag.Len())
	}
	if notes := bag.Items()[0].Notes; len(notes) != 1 || notes[0].Msg != "value moved here" {
		t.Fatalf("unexpected notes: %+v", notes)
	}
}

func TestCodeCategoryAndID(t *testing.T) {
	cases := []struct {
		code Code
		id   string
		cat  Category
	}{
		{TypeInfinite, "TYP3007", CategoryType},
		{TraitBoundUnsatisfied, "TRT3101", CategoryTrait},
		{OwnResourceNotConsumed, "OWN3206", CategoryOwnership},
		{ResUnresolvedSymbol, "RES2001", CategoryOther},
	}
	for _, tc := range cases {
		if got := tc.code.ID(); got != tc.id {
			t.Errorf("%v ID = %s, want %s", tc.code, got, tc.id)
		}
		if got := tc.code.Category(); got != tc.cat {
			t.Errorf("%v category = %v, want %v", tc.code, got, tc.cat)
		}
	}
}

func TestSeverityNames(t *testing.T) {
	for _, sev := range []Severity{SevInfo, SevWarning, SevError} {
		text, err := sev.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var back Severity
		if err := back.UnmarshalText([]byte(sev.Label())); err != nil || back != sev {
			t.Fatalf("%s: parsed back as %v, %v", text, back, err)
		}
	}
	if _, err := ParseSeverity("fatal"); err == nil {
		t.Fatalf("unknown severity must fail")
	}
	if got := Severity(9).String(); got != "Severity(9)" {
		t.Fatalf("out of range severity printed as %q", got)
	}
}

func TestDedupReporterCountsDropped(t *testing.T) {
	bag := NewBag(0)
	r := NewDedupReporter(BagReporter{Bag: bag})
	sp := source.Span{Start: 1, End: 2}
	for range 3 {
		ReportError(r, TypeMismatch, sp, "mismatched types").Emit()
	}
	// другой span: отдельная диагностика
	ReportError(r, TypeMismatch, source.Span{Start: 3, End: 4}, "mismatched types").Emit()
	if bag.Len() != 2 || r.Dropped() != 2 {
		t.Fatalf("got %d forwarded, %d dropped", bag.Len(), r.Dropped())
	}
}
