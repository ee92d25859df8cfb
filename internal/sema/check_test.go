package sema

import (
	"context"
	"testing"

	"corecheck/internal/ast"
	"corecheck/internal/diag"
	"corecheck/internal/observ"
)

func TestCheckEmptyBuilder(t *testing.T) {
	prog := Check(context.Background(), nil, nil, Options{})
	if prog == nil || prog.Types == nil {
		t.Fatalf("expected an empty typed program")
	}
}

func TestReturnTypeMismatchReportedOnce(t *testing.T) {
	_, bag := checkUnit(t, func(c *ast.Composer) {
		c.Fn(ast.FnSpec{
			Name:   "f",
			Result: c.T("i32"),
			Body:   c.BlockTail(c.Str("x")),
		})
	})
	codes := diagCodes(bag)
	if len(codes) != 1 || codes[0] != diag.TypeMismatch {
		t.Fatalf("expected exactly one %v, got %v", diag.TypeMismatch, codes)
	}
}

func TestMissingReturn(t *testing.T) {
	_, bag := checkUnit(t, func(c *ast.Composer) {
		c.Fn(ast.FnSpec{
			Name:   "f",
			Result: c.T("i32"),
			Body:   c.Block(c.Let("x", ast.NoTypeID, c.Int(1))),
		})
		// a body that always returns is fine
		c.Fn(ast.FnSpec{
			Name:   "g",
			Result: c.T("i32"),
			Body:   c.Block(c.Return(c.Int(1))),
		})
	})
	codes := diagCodes(bag)
	if len(codes) != 1 || codes[0] != diag.TypeMissingReturn {
		t.Fatalf("expected one missing return, got %v", codes)
	}
}

func TestBindingTypesDefaultLiterals(t *testing.T) {
	var letX, letY ast.StmtID
	prog, bag := checkUnit(t, func(c *ast.Composer) {
		letX = c.Let("x", ast.NoTypeID, c.Int(1))
		letY = c.Let("y", ast.NoTypeID, c.Float("2.5"))
		c.Fn(ast.FnSpec{Name: "f", Body: c.Block(letX, letY)})
	})
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", diagCodes(bag))
	}
	if got := prog.Label(prog.BindingTypes[prog.Symbols.StmtSymbols[letX]]); got != "i32" {
		t.Fatalf("x: expected i32, got %s", got)
	}
	if got := prog.Label(prog.BindingTypes[prog.Symbols.StmtSymbols[letY]]); got != "f64" {
		t.Fatalf("y: expected f64, got %s", got)
	}
}

func TestLetAnnotationDrivesLiteral(t *testing.T) {
	var lit ast.ExprID
	prog, bag := checkUnit(t, func(c *ast.Composer) {
		lit = c.Int(7)
		c.Fn(ast.FnSpec{Name: "f", Body: c.Block(c.Let("x", c.T("u64"), lit))})
	})
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", diagCodes(bag))
	}
	if got := prog.Label(prog.ExprTypes[lit]); got != "u64" {
		t.Fatalf("expected literal typed u64, got %s", got)
	}
}

func TestGenericCallRecordsTypeArguments(t *testing.T) {
	var call ast.ExprID
	prog, bag := checkUnit(t, func(c *ast.Composer) {
		c.Fn(ast.FnSpec{
			Name:     "id",
			Generics: []ast.TypeParam{c.Generic("T")},
			Params:   []ast.FnParam{c.Param("x", c.T("T"), ast.ParamTake)},
			Result:   c.T("T"),
			Body:     c.BlockTail(c.Ident("x")),
		})
		call = c.CallFn("id", c.Str("s"))
		c.Fn(ast.FnSpec{Name: "main", Body: c.Block(c.Let("a", ast.NoTypeID, call))})
	})
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", diagCodes(bag))
	}
	args := prog.GenericCalls[call]
	if len(args) != 1 || prog.Label(args[0]) != "String" {
		t.Fatalf("expected [String], got %v", args)
	}
	if got := prog.Label(prog.ExprTypes[call]); got != "String" {
		t.Fatalf("call should type as String, got %s", got)
	}
}

func showTrait(c *ast.Composer) {
	c.Trait("Show", c.FnDecl(ast.FnSpec{Name: "show", Self: ast.SelfValue, Result: c.T("String")}))
}

func TestBoundUnsatisfied(t *testing.T) {
	_, bag := checkUnit(t, func(c *ast.Composer) {
		showTrait(c)
		c.Fn(ast.FnSpec{
			Name:     "display",
			Generics: []ast.TypeParam{c.Generic("T", c.T("Show"))},
			Params:   []ast.FnParam{c.Param("x", c.T("T"), ast.ParamDefault)},
			Body:     c.Block(),
		})
		c.Fn(ast.FnSpec{Name: "main", Body: c.Block(c.Do(c.CallFn("display", c.Int(5))))})
	})
	if !hasCode(bag, diag.TraitBoundUnsatisfied) {
		t.Fatalf("expected %v, got %v", diag.TraitBoundUnsatisfied, diagCodes(bag))
	}
}

func TestBoundSatisfiedByImpl(t *testing.T) {
	_, bag := checkUnit(t, func(c *ast.Composer) {
		showTrait(c)
		c.Struct("P", 0)
		c.Impl(c.T("Show"), c.T("P"), c.FnDecl(ast.FnSpec{
			Name:   "show",
			Self:   ast.SelfValue,
			Result: c.T("String"),
			Body:   c.BlockTail(c.Str("p")),
		}))
		c.Fn(ast.FnSpec{
			Name:     "display",
			Generics: []ast.TypeParam{c.Generic("T", c.T("Show"))},
			Params:   []ast.FnParam{c.Param("x", c.T("T"), ast.ParamDefault)},
			Result:   c.T("String"),
			Body:     c.BlockTail(c.Method(c.Ident("x"), "show")),
		})
		c.Fn(ast.FnSpec{Name: "main", Body: c.Block(c.Do(c.CallFn("display", c.StructLit(c.T("P")))))})
	})
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", diagCodes(bag))
	}
}

func TestTryOperator(t *testing.T) {
	_, bag := checkUnit(t, func(c *ast.Composer) {
		c.Fn(ast.FnSpec{
			Name:   "next",
			Params: []ast.FnParam{c.Param("x", c.T("Option", c.T("i32")), ast.ParamDefault)},
			Result: c.T("Option", c.T("i32")),
			Body:   c.BlockTail(c.Some(c.Ident("v")), c.Let("v", ast.NoTypeID, c.Try(c.Ident("x")))),
		})
	})
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", diagCodes(bag))
	}

	_, bag = checkUnit(t, func(c *ast.Composer) {
		c.Fn(ast.FnSpec{
			Name:   "bad",
			Params: []ast.FnParam{c.Param("x", c.T("Option", c.T("i32")), ast.ParamDefault)},
			Result: c.T("i32"),
			Body:   c.BlockTail(c.Try(c.Ident("x"))),
		})
	})
	if !hasCode(bag, diag.TypeTryOutsideFn) {
		t.Fatalf("expected %v, got %v", diag.TypeTryOutsideFn, diagCodes(bag))
	}
}

func TestUnsafeCallRequiresUnsafeContext(t *testing.T) {
	_, bag := checkUnit(t, func(c *ast.Composer) {
		c.Fn(ast.FnSpec{Name: "raw", Unsafe: true, Body: c.Block()})
		c.Fn(ast.FnSpec{Name: "plain", Body: c.Block(c.Do(c.CallFn("raw")))})
		c.Fn(ast.FnSpec{Name: "wrapped", Body: c.Block(c.UnsafeBlock(c.Do(c.CallFn("raw"))))})
	})
	codes := diagCodes(bag)
	if len(codes) != 1 || codes[0] != diag.TypeUnsafeRequired {
		t.Fatalf("expected one %v, got %v", diag.TypeUnsafeRequired, codes)
	}
}

func TestCannotInferBareNone(t *testing.T) {
	_, bag := checkUnit(t, func(c *ast.Composer) {
		c.Fn(ast.FnSpec{Name: "f", Body: c.Block(c.Let("v", ast.NoTypeID, c.None()))})
	})
	if !hasCode(bag, diag.TypeCannotInfer) {
		t.Fatalf("expected %v, got %v", diag.TypeCannotInfer, diagCodes(bag))
	}
}

func TestCheckCountsFindings(t *testing.T) {
	timer := observ.NewTimer()
	b := ast.NewBuilder(ast.Hints{}, nil)
	c := ast.NewComposer(b, 0)
	c.Fn(ast.FnSpec{Name: "f", Result: c.T("i32"), Body: c.BlockTail(c.Bool(true))})
	bag := diag.NewBag(0)
	Check(context.Background(), b, nil, Options{Reporter: diag.BagReporter{Bag: bag}, Timer: timer})
	if got := timer.Report().Counters["sema.findings"]; got != 1 {
		t.Fatalf("expected one finding counted, got %d", got)
	}
}

// --- helpers

func checkUnit(t *testing.T, build func(c *ast.Composer)) (*TypedProgram, *diag.Bag) {
	t.Helper()
	b := ast.NewBuilder(ast.Hints{}, nil)
	c := ast.NewComposer(b, 0)
	build(c)
	bag := diag.NewBag(0)
	prog := Check(context.Background(), b, nil, Options{Reporter: diag.BagReporter{Bag: bag}})
	return prog, bag
}

func hasCode(bag *diag.Bag, code diag.Code) bool {
	if bag == nil {
		return false
	}
	for _, item := range bag.Items() {
		if item.Code == code {
			return true
		}
	}
	return false
}

func diagCodes(bag *diag.Bag) []diag.Code {
	if bag == nil {
		return nil
	}
	codes := make([]diag.Code, 0, len(bag.Items()))
	for _, item := range bag.Items() {
		codes = append(codes, item.Code)
	}
	return codes
}

func countCode(bag *diag.Bag, code diag.Code) int {
	n := 0
	for _, c := range diagCodes(bag) {
		if c == code {
			n++
		}
	}
	return n
}

func TestUnconstrainedLiteralsDefault(t *testing.T) {
	var lit, flt ast.ExprID
	prog, bag := checkUnit(t, func(c *ast.Composer) {
		lit = c.Int(1)
		flt = c.Float("0.5")
		c.Fn(ast.FnSpec{Name: "f", Body: c.Block(c.Let("x", ast.NoTypeID, lit), c.Do(flt))})
	})
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", diagCodes(bag))
	}
	if got := prog.Label(prog.ExprTypes[lit]); got != "i32" {
		t.Fatalf("integer literal: expected i32, got %s", got)
	}
	if got := prog.Label(prog.ExprTypes[flt]); got != "f64" {
		t.Fatalf("float literal: expected f64, got %s", got)
	}
}

func TestBreakInIfExpressionEndsLoop(t *testing.T) {
	_, bag := checkUnit(t, func(c *ast.Composer) {
		c.Fn(ast.FnSpec{
			Name:   "f",
			Params: []ast.FnParam{c.Param("flag", c.T("bool"), ast.ParamDefault)},
			Result: c.T("i32"),
			Body: c.Block(c.Loop(c.Block(
				c.Do(c.IfExpr(c.Ident("flag"), c.Block(c.Break()), ast.NoStmtID)),
			))),
		})
		c.Fn(ast.FnSpec{
			Name:   "g",
			Result: c.T("i32"),
			Body: c.Block(c.Loop(c.Block(
				c.Do(c.BlockExpr(c.Block(c.Break()))),
			))),
		})
		// break of a nested loop does not end the outer one
		c.Fn(ast.FnSpec{
			Name:   "h",
			Result: c.T("i32"),
			Body: c.Block(c.Loop(c.Block(
				c.Loop(c.Block(c.Do(c.IfExpr(c.Bool(true), c.Block(c.Break()), ast.NoStmtID)))),
			))),
		})
	})
	if got := countCode(bag, diag.TypeMissingReturn); got != 2 {
		t.Fatalf("expected missing return for f and g only, got %v", diagCodes(bag))
	}
	if bag.Len() != 2 {
		t.Fatalf("unexpected diagnostics: %v", diagCodes(bag))
	}
}
