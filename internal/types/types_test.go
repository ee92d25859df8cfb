package types

import (
	"errors"
	"testing"

	"corecheck/internal/ast"
)

func TestInternerDeduplicatesStructure(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()

	f1 := in.Fn([]TypeID{b.Int32, b.String}, b.Bool)
	f2 := in.Fn([]TypeID{b.Int32, b.String}, b.Bool)
	if f1 != f2 {
		t.Fatalf("equal fn types must share an id: %d vs %d", f1, f2)
	}
	if in.Fn([]TypeID{b.String, b.Int32}, b.Bool) == f1 {
		t.Fatalf("parameter order must matter")
	}
	if in.Tuple(nil) != b.Unit {
		t.Fatalf("empty tuple must be unit")
	}
	if in.Option(b.Int32) != in.Option(b.Int32) || in.Result(b.Int32, b.String) == in.Result(b.String, b.Int32) {
		t.Fatalf("option/result interning broken")
	}
	if in.Var(3) == in.Var(4) || in.Var(3) != in.Var(3) {
		t.Fatalf("var interning broken")
	}
}

func TestSubstituteAndLabel(t *testing.T) {
	table := NewTable(nil)
	in := table.In
	b := in.Builtins()

	generic := in.Fn([]TypeID{in.Slice(in.Generic("T"))}, in.Option(in.Generic("T")))
	concrete := in.Substitute(generic, map[string]TypeID{"T": b.Int64})
	if got := table.Label(concrete); got != "fn([i64]) -> Option<i64>" {
		t.Fatalf("label = %q", got)
	}
	arr := in.Named(table.Prelude.Array, []TypeID{b.String})
	if got := table.Label(arr); got != "Array<String>" {
		t.Fatalf("label = %q", got)
	}
	if got := table.Label(in.Result(in.Var(7), b.Unit)); got != "Result<?7, ()>" {
		t.Fatalf("label = %q", got)
	}
	if !in.HasVars(in.Tuple([]TypeID{b.Bool, in.Option(in.Var(1))})) {
		t.Fatalf("expected nested var to be found")
	}
}

func TestRegisterRejectsDuplicatesAndConflicts(t *testing.T) {
	table := NewTable(nil)
	id, err := table.Register(TypeDef{Name: "Point", Kind: DefStruct})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := table.Register(TypeDef{Name: "Point"}); !errors.Is(err, ErrDuplicateDef) {
		t.Fatalf("expected ErrDuplicateDef, got %v", err)
	}
	if got, ok := table.ResolveName("Point"); !ok || got != id {
		t.Fatalf("resolve_name failed")
	}
	m := MethodSig{Name: "norm", Self: ast.SelfValue, Result: table.In.Builtins().Float64}
	if err := table.AddMethod(id, m); err != nil {
		t.Fatalf("add method: %v", err)
	}
	if err := table.AddMethod(id, m); !errors.Is(err, ErrConflictingMethod) {
		t.Fatalf("expected ErrConflictingMethod, got %v", err)
	}
}

func TestClassifyMove(t *testing.T) {
	table := NewTable(nil)
	in := table.In
	b := in.Builtins()

	small, _ := table.Register(TypeDef{Name: "Small", Kind: DefStruct, Fields: []Field{
		{Name: "x", Type: b.Int32}, {Name: "y", Type: b.Int32},
	}})
	big, _ := table.Register(TypeDef{Name: "Big", Kind: DefStruct, Fields: []Field{
		{Name: "a", Type: b.Int64}, {Name: "b", Type: b.Int64}, {Name: "c", Type: b.Int64},
	}})
	file, _ := table.Register(TypeDef{Name: "File", Kind: DefStruct, Flags: DefResource, Fields: []Field{
		{Name: "fd", Type: b.Int32},
	}})
	token, _ := table.Register(TypeDef{Name: "Token", Kind: DefStruct, Flags: DefUnique})
	holder, _ := table.Register(TypeDef{Name: "Holder", Kind: DefStruct, Fields: []Field{
		{Name: "f", Type: in.Named(file, nil)},
	}})

	cases := []struct {
		name string
		typ  TypeID
		want MoveReason
	}{
		{"i32", b.Int32, MoveNone},
		{"small struct", in.Named(small, nil), MoveNone},
		{"big struct", in.Named(big, nil), MoveSizeExceedsThreshold},
		{"string", b.String, MoveOwnsHeap},
		{"slice view", in.Slice(b.String), MoveNone},
		{"growable", in.Named(table.Prelude.Array, []TypeID{b.Int32}), MoveOwnsHeap},
		{"resource", in.Named(file, nil), MoveResource},
		{"unique", in.Named(token, nil), MoveUnique},
		{"resource field", in.Named(holder, nil), MoveResource},
		{"option of string", in.Option(b.String), MoveOwnsHeap},
		{"generic", in.Generic("T"), MoveOpaque},
	}
	for _, tc := range cases {
		if got := table.ClassifyMove(tc.typ, DefaultMoveThreshold); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
	if got := table.SizeOf(in.Option(b.Int64)); got != 16 {
		t.Errorf("Option<i64> size = %d, want 16", got)
	}
	if got := table.SizeOf(in.Option(b.Bool)); got != 2 {
		t.Errorf("Option<bool> size = %d, want 2", got)
	}
	if got := table.SizeOf(in.Option(b.Char)); got != 8 {
		t.Errorf("Option<char> size = %d, want 8", got)
	}
	if got := table.SizeOf(in.Result(b.Int32, b.Int64)); got != 16 {
		t.Errorf("Result<i32, i64> size = %d, want 16", got)
	}
}

func TestMethodSetBindsElementTypes(t *testing.T) {
	table := NewTable(nil)
	in := table.In
	b := in.Builtins()

	methods, args, ok := table.MethodSet(in.Named(table.Prelude.Map, []TypeID{b.String, b.Int32}))
	if !ok || args["K"] != b.String || args["V"] != b.Int32 {
		t.Fatalf("map bindings wrong: %v", args)
	}
	found := false
	for _, m := range methods {
		if m.Name == "insert" && m.Self == ast.SelfMutate {
			found = true
		}
	}
	if !found {
		t.Fatalf("Map.insert missing")
	}
	if !table.IsGrowable(in.Named(table.Prelude.Pool, []TypeID{b.Int32})) {
		t.Fatalf("Pool must be growable")
	}
	_, args, ok = table.MethodSet(in.Result(b.Int32, b.String))
	if !ok || args["E"] != b.String {
		t.Fatalf("result bindings wrong: %v", args)
	}
}
