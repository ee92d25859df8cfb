package driver

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"corecheck/internal/ast"
	"corecheck/internal/diag"
	"corecheck/internal/observ"
	"corecheck/internal/source"
	"corecheck/internal/testkit"
)

func composeUnit(t *testing.T, path string, build func(c *ast.Composer)) *Unit {
	t.Helper()
	b := ast.NewBuilder(ast.Hints{}, nil)
	build(ast.NewComposer(b, 0))
	fs := source.NewFileSet()
	fs.AddVirtual(path, nil)
	return &Unit{Path: path, Files: fs, Builder: b}
}

func cleanUnit(t *testing.T) *Unit {
	return composeUnit(t, "clean.ccu", func(c *ast.Composer) {
		c.Fn(ast.FnSpec{
			Name:   "double",
			Params: []ast.FnParam{c.Param("x", c.T("i32"), ast.ParamDefault)},
			Result: c.T("i32"),
			Body:   c.BlockTail(c.Bin(ast.ExprBinaryAdd, c.Ident("x"), c.Ident("x"))),
		})
	})
}

func movedUnit(t *testing.T) *Unit {
	return composeUnit(t, "moved.ccu", func(c *ast.Composer) {
		c.Fn(ast.FnSpec{
			Name:   "sink",
			Params: []ast.FnParam{c.Param("s", c.T("String"), ast.ParamTake)},
			Body:   c.Block(),
		})
		c.Fn(ast.FnSpec{
			Name: "main",
			Body: c.Block(
				c.Let("s", ast.NoTypeID, c.Str("x")),
				c.Do(c.CallFn("sink", c.Ident("s"))),
				c.Do(c.CallFn("sink", c.Ident("s"))),
			),
		})
	})
}

func TestUnitEncodeDecode(t *testing.T) {
	u := movedUnit(t)
	var buf bytes.Buffer
	if err := EncodeUnit(&buf, u); err != nil {
		t.Fatalf("encode: %v", err)
	}
	back, err := DecodeUnit("moved.ccu", &buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got, want := len(back.Builder.AllItems()), len(u.Builder.AllItems()); got != want {
		t.Fatalf("items: got %d, want %d", got, want)
	}
	if f := back.Files.Get(0); f == nil || f.Path != "moved.ccu" {
		t.Fatalf("source file lost: %+v", f)
	}
}

func TestCheckUnitsKeepsOrderAndIsolation(t *testing.T) {
	sink := diag.NewBag(0)
	timer := observ.NewTimer()
	units := []*Unit{movedUnit(t), cleanUnit(t), movedUnit(t)}
	results, err := CheckUnits(context.Background(), units, Options{
		Jobs:  2,
		Timer: timer,
		Sink:  diag.BagReporter{Bag: sink},
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, want := range []int{1, 0, 1} {
		if got := results[i].Bag.Len(); got != want {
			t.Errorf("unit %d: expected %d diagnostics, got %v", i, want, results[i].Bag.Codes())
		}
		if results[i].Program == nil {
			t.Errorf("unit %d: missing program", i)
			continue
		}
		if err := testkit.CheckProgramInvariants(results[i].Program); err != nil {
			t.Errorf("unit %d: %v", i, err)
		}
		if err := testkit.CheckUnitSpans(units[i].Builder, units[i].Files); err != nil {
			t.Errorf("unit %d: %v", i, err)
		}
	}
	if results[0].Bag.Items()[0].Code != diag.OwnUseAfterMove {
		t.Fatalf("expected use after move, got %v", results[0].Bag.Codes())
	}
	if sink.Len() != 2 {
		t.Fatalf("sink must see every finding once, got %d", sink.Len())
	}
	if !HasErrors(results) {
		t.Fatalf("HasErrors must report the moved units")
	}
	if got := timer.Report().Counters["driver.units"]; got != 3 {
		t.Fatalf("expected 3 units counted, got %d", got)
	}
}

func TestCheckFilesReportsBrokenUnits(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good"+UnitExt)
	if err := SaveUnit(good, cleanUnit(t)); err != nil {
		t.Fatalf("save: %v", err)
	}
	garbage := filepath.Join(dir, "garbage"+UnitExt)
	if err := os.WriteFile(garbage, []byte{0xc1, 0x00, 0x13}, 0o600); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "missing"+UnitExt)

	results, err := CheckFiles(context.Background(), []string{good, garbage, missing}, Options{})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if results[0].Bag.Len() != 0 || results[0].Program == nil {
		t.Fatalf("good unit: %v", results[0].Bag.Codes())
	}
	if codes := results[1].Bag.Codes(); len(codes) != 1 || codes[0] != diag.IODecodeError {
		t.Fatalf("garbage unit: expected %v, got %v", diag.IODecodeError, codes)
	}
	if codes := results[2].Bag.Codes(); len(codes) != 1 || codes[0] != diag.IOLoadFileError {
		t.Fatalf("missing unit: expected %v, got %v", diag.IOLoadFileError, codes)
	}
	if results[1].Program != nil || results[2].Program != nil {
		t.Fatalf("broken units must not be analysed")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	results, err := CheckUnits(context.Background(), []*Unit{cleanUnit(t)}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	prog := results[0].Program
	var buf, again bytes.Buffer
	if err := WriteSnapshot(&buf, "clean.ccu", prog); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := WriteSnapshot(&again, "clean.ccu", prog); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), again.Bytes()) {
		t.Fatalf("snapshot encoding must be deterministic")
	}
	snap, err := ReadSnapshot(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if snap.Unit != "clean.ccu" || len(snap.Functions) != 1 || snap.Functions[0].Name != "double" {
		t.Fatalf("unexpected functions %+v", snap.Functions)
	}
	if len(snap.ExprTypes) != len(prog.ExprTypes) {
		t.Fatalf("expr types: got %d, want %d", len(snap.ExprTypes), len(prog.ExprTypes))
	}
	for id, ty := range prog.ExprTypes {
		if label, ok := snap.Expr(id); !ok || label != prog.Label(ty) {
			t.Fatalf("expr %d: got %q, want %q", id, label, prog.Label(ty))
		}
	}
	if len(snap.Bindings) == 0 || snap.Bindings[0].Name != "x" || snap.Bindings[0].Type != "i32" {
		t.Fatalf("parameter binding missing: %+v", snap.Bindings)
	}
}

func TestExpandPaths(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{filepath.Join(nested, "z"+UnitExt), filepath.Join(dir, "a"+UnitExt), filepath.Join(dir, "notes.txt")} {
		if err := os.WriteFile(p, nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}
	single := filepath.Join(dir, "notes.txt")
	got, err := ExpandPaths([]string{dir, single})
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	want := []string{filepath.Join(dir, "a"+UnitExt), filepath.Join(nested, "z"+UnitExt), single}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if _, err := ExpandPaths([]string{filepath.Join(dir, "absent")}); err == nil {
		t.Fatalf("missing argument must fail")
	}
}
