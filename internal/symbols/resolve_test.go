package symbols

import (
	"testing"

	"corecheck/internal/ast"
	"corecheck/internal/diag"
)

func TestResolveBindsParamsLetsAndFunctions(t *testing.T) {
	b := ast.NewBuilder(ast.Hints{}, nil)
	c := ast.NewComposer(b, 0)

	useX := c.Ident("x")
	useY := c.Ident("y")
	callG := c.Ident("g")
	c.Fn(ast.FnSpec{
		Name:   "f",
		Params: []ast.FnParam{c.Param("x", c.T("i32"), ast.ParamDefault)},
		Result: c.T("i32"),
		Body: c.BlockTail(useY,
			c.Let("y", ast.NoTypeID, c.Call(callG, useX)),
		),
	})
	g := c.Fn(ast.FnSpec{
		Name:   "g",
		Params: []ast.FnParam{c.Param("v", c.T("i32"), ast.ParamDefault)},
		Result: c.T("i32"),
		Body:   c.BlockTail(c.Ident("v")),
	})

	bag := diag.NewBag(0)
	res := Resolve(b, ResolveOptions{Reporter: diag.BagReporter{Bag: bag}})
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Codes())
	}

	if got := res.Table.Get(res.ExprSymbols[useX]); got == nil || got.Kind != SymbolParam {
		t.Fatalf("x should resolve to a param, got %+v", got)
	}
	if got := res.Table.Get(res.ExprSymbols[useY]); got == nil || got.Kind != SymbolLet {
		t.Fatalf("y should resolve to a let, got %+v", got)
	}
	if res.ExprSymbols[callG] != res.ItemSymbols[g] {
		t.Fatalf("forward reference to g not resolved")
	}
}

func TestResolveReportsUnknownAndShadowing(t *testing.T) {
	b := ast.NewBuilder(ast.Hints{}, nil)
	c := ast.NewComposer(b, 0)

	inner := c.Ident("a")
	outer := c.Ident("a")
	c.Fn(ast.FnSpec{
		Name: "f",
		Body: c.Block(
			c.Let("a", ast.NoTypeID, c.Int(1)),
			c.Block(
				c.Let("a", ast.NoTypeID, c.Str("s")),
				c.Do(c.CallFn("print", inner)),
			),
			c.Do(c.CallFn("print", outer)),
			c.Do(c.Ident("missing")),
		),
	})

	bag := diag.NewBag(0)
	res := Resolve(b, ResolveOptions{Reporter: diag.BagReporter{Bag: bag}})
	if codes := bag.Codes(); len(codes) != 1 || codes[0] != diag.ResUnresolvedSymbol {
		t.Fatalf("expected one unresolved symbol, got %v", codes)
	}
	if res.ExprSymbols[inner] == res.ExprSymbols[outer] {
		t.Fatalf("inner let must shadow the outer one")
	}
}
