package testkit

import (
	"fmt"

	"corecheck/internal/ast"
	"corecheck/internal/sema"
	"corecheck/internal/source"
)

// CheckProgramInvariants runs the structural checks every TypedProgram must
// pass, whatever diagnostics were reported:
// 1) no recorded type mentions an inference variable
// 2) program-level expression types are the union of the per-function maps
// 3) every generic call site has a recorded type
// 4) the event log ends only borrows it started, each exactly once
func CheckProgramInvariants(prog *sema.TypedProgram) error {
	if prog == nil || prog.Types == nil {
		return fmt.Errorf("nil program")
	}
	in := prog.Types.In

	// 1) финализация не оставляет переменных
	for id, t := range prog.ExprTypes {
		if in.HasVars(t) {
			return fmt.Errorf("expr %d keeps inference variables: %s", id, prog.Label(t))
		}
	}
	for sym, t := range prog.BindingTypes {
		if in.HasVars(t) {
			return fmt.Errorf("binding %d keeps inference variables: %s", sym, prog.Label(t))
		}
	}

	// 2) union of function maps
	seen := 0
	for item, fn := range prog.Functions {
		if fn == nil {
			return fmt.Errorf("function %d has no types", item)
		}
		if fn.Item != item {
			return fmt.Errorf("function %d recorded under item %d", fn.Item, item)
		}
		for id, t := range fn.ExprTypes {
			if got, ok := prog.ExprTypes[id]; !ok || got != t {
				return fmt.Errorf("expr %d of function %d missing from the program map", id, item)
			}
		}
		seen += len(fn.ExprTypes)
	}
	if seen != len(prog.ExprTypes) {
		return fmt.Errorf("program records %d expression types, functions %d", len(prog.ExprTypes), seen)
	}

	// 3) generic call sites
	for id, args := range prog.GenericCalls {
		if _, ok := prog.ExprTypes[id]; !ok {
			return fmt.Errorf("generic call %d has no type", id)
		}
		for _, a := range args {
			if in.HasVars(a) {
				return fmt.Errorf("generic call %d keeps inference variables", id)
			}
		}
	}

	// 4) borrow log
	live := make(map[sema.BorrowID]source.Span)
	for i, ev := range prog.Events {
		switch ev.Kind {
		case sema.EventBorrowStart:
			if _, dup := live[ev.Borrow]; dup {
				return fmt.Errorf("event %d: borrow %d started twice", i, ev.Borrow)
			}
			live[ev.Borrow] = ev.Span
		case sema.EventBorrowEnd:
			if _, ok := live[ev.Borrow]; !ok {
				return fmt.Errorf("event %d: borrow %d ended without a start", i, ev.Borrow)
			}
			delete(live, ev.Borrow)
		}
	}
	return nil
}

// CheckUnitSpans verifies that every item of b lies inside the file it
// belongs to and inside that file's content when text is present.
func CheckUnitSpans(b *ast.Builder, fs *source.FileSet) error {
	if b == nil || fs == nil {
		return fmt.Errorf("nil builder or file set")
	}
	for idx, f := range b.Files.Arena.Slice() {
		sf := fs.Get(f.Span.File)
		if sf == nil {
			return fmt.Errorf("ast file %d points to unknown source %d", idx+1, f.Span.File)
		}
		for _, it := range f.Items {
			item := b.Items.Get(it)
			if item == nil {
				return fmt.Errorf("nil item for id=%d", it)
			}
			sp := item.Span
			if sp.End < sp.Start {
				return fmt.Errorf("inverted item span: %v", sp)
			}
			if sp.File != sf.ID {
				return fmt.Errorf("item span file mismatch: got=%d want=%d", sp.File, sf.ID)
			}
			if len(sf.Content) > 0 && int(sp.End) > len(sf.Content) {
				return fmt.Errorf("item span %v beyond content of %s", sp, sf.Path)
			}
		}
	}
	return nil
}
