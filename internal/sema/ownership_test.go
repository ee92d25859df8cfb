package sema

import (
	"testing"

	"corecheck/internal/ast"
	"corecheck/internal/diag"
)

// sink declares `fn sink(take s: String) {}`.
func sink(c *ast.Composer) {
	c.Fn(ast.FnSpec{
		Name:   "sink",
		Params: []ast.FnParam{c.Param("s", c.T("String"), ast.ParamTake)},
		Body:   c.Block(),
	})
}

func pointStruct(c *ast.Composer) {
	c.Struct("Point", 0, c.FieldD("x", c.T("i32")), c.FieldD("y", c.T("i32")))
}

func newPoint(c *ast.Composer) ast.ExprID {
	return c.StructLit(c.T("Point"), c.Init("x", c.Int(1)), c.Init("y", c.Int(2)))
}

func TestUseAfterMoveReportedOnce(t *testing.T) {
	_, bag := checkUnit(t, func(c *ast.Composer) {
		sink(c)
		c.Fn(ast.FnSpec{
			Name:   "g",
			Params: []ast.FnParam{c.Param("s", c.T("String"), ast.ParamTake)},
			Result: c.T("i32"),
			Body: c.BlockTail(c.Ident("n"),
				c.Let("n", ast.NoTypeID, c.Method(c.Ident("s"), "len")),
				c.Do(c.CallFn("sink", c.Ident("s"))),
				c.Do(c.CallFn("sink", c.Ident("s"))),
			),
		})
	})
	codes := diagCodes(bag)
	if len(codes) != 1 || codes[0] != diag.OwnUseAfterMove {
		t.Fatalf("expected exactly one %v, got %v", diag.OwnUseAfterMove, codes)
	}
	d := bag.Items()[0]
	if len(d.Notes) != 1 || d.Notes[0].Msg != "value moved here" {
		t.Fatalf("expected a note at the move site, got %+v", d.Notes)
	}
}

func TestUseAfterMoveThroughLetChain(t *testing.T) {
	_, bag := checkUnit(t, func(c *ast.Composer) {
		sink(c)
		c.Fn(ast.FnSpec{
			Name: "f",
			Body: c.Block(
				c.Let("s", ast.NoTypeID, c.Str("x")),
				c.Let("a", ast.NoTypeID, c.Ident("s")),
				c.Let("b", ast.NoTypeID, c.Ident("a")),
				c.Do(c.CallFn("sink", c.Ident("a"))),
			),
		})
	})
	if got := countCode(bag, diag.OwnUseAfterMove); got != 1 {
		t.Fatalf("expected one use after move, got %v", diagCodes(bag))
	}
}

func TestCopyTypesDoNotMove(t *testing.T) {
	_, bag := checkUnit(t, func(c *ast.Composer) {
		c.Fn(ast.FnSpec{
			Name: "f",
			Body: c.Block(
				c.Let("a", ast.NoTypeID, c.Int(1)),
				c.Let("b", ast.NoTypeID, c.Ident("a")),
				c.Let("c", ast.NoTypeID, c.Ident("a")),
			),
		})
	})
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", diagCodes(bag))
	}
}

func TestMoveInOneBranchCountsAfterIf(t *testing.T) {
	_, bag := checkUnit(t, func(c *ast.Composer) {
		sink(c)
		c.Fn(ast.FnSpec{
			Name:   "f",
			Params: []ast.FnParam{c.Param("flag", c.T("bool"), ast.ParamDefault)},
			Body: c.Block(
				c.Let("s", ast.NoTypeID, c.Str("x")),
				c.If(c.Ident("flag"), c.Block(c.Do(c.CallFn("sink", c.Ident("s")))), ast.NoStmtID),
				c.Do(c.CallFn("sink", c.Ident("s"))),
			),
		})
	})
	if got := countCode(bag, diag.OwnUseAfterMove); got != 1 {
		t.Fatalf("expected one use after move, got %v", diagCodes(bag))
	}
}

func TestDivergingBranchDoesNotMove(t *testing.T) {
	_, bag := checkUnit(t, func(c *ast.Composer) {
		sink(c)
		c.Fn(ast.FnSpec{
			Name:   "f",
			Params: []ast.FnParam{c.Param("flag", c.T("bool"), ast.ParamDefault)},
			Body: c.Block(
				c.Let("s", ast.NoTypeID, c.Str("x")),
				c.If(c.Ident("flag"), c.Block(
					c.Do(c.CallFn("sink", c.Ident("s"))),
					c.Return(ast.NoExprID),
				), ast.NoStmtID),
				c.Do(c.CallFn("sink", c.Ident("s"))),
			),
		})
	})
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", diagCodes(bag))
	}
}

func growableParamFn(c *ast.Composer, body ast.StmtID) {
	c.Fn(ast.FnSpec{
		Name:   "consume",
		Params: []ast.FnParam{c.Param("v", c.SliceT(c.T("i32")), ast.ParamDefault)},
		Body:   c.Block(),
	})
	c.Fn(ast.FnSpec{
		Name:   "f",
		Params: []ast.FnParam{c.Param("c", c.T("Array", c.T("i32")), ast.ParamMutate)},
		Body:   body,
	})
}

func TestInstantBorrowReleasedAtStatementEnd(t *testing.T) {
	_, bag := checkUnit(t, func(c *ast.Composer) {
		growableParamFn(c, c.Block(
			c.Do(c.CallFn("consume", c.Method(c.Ident("c"), "slice_view", c.Int(0)))),
			c.Do(c.Method(c.Ident("c"), "push", c.Int(1))),
		))
	})
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", diagCodes(bag))
	}
}

func TestInstantBorrowCannotBeStored(t *testing.T) {
	_, bag := checkUnit(t, func(c *ast.Composer) {
		growableParamFn(c, c.Block(
			c.Let("v", ast.NoTypeID, c.Method(c.Ident("c"), "slice_view", c.Int(0))),
			c.Do(c.CallFn("consume", c.Ident("v"))),
			c.Do(c.Method(c.Ident("c"), "push", c.Int(1))),
		))
	})
	codes := diagCodes(bag)
	if len(codes) != 1 || codes[0] != diag.OwnInstantBorrowEscapes {
		t.Fatalf("expected only %v, the push must succeed; got %v", diag.OwnInstantBorrowEscapes, codes)
	}
}

func TestPersistentBorrowBlocksFieldWrite(t *testing.T) {
	_, bag := checkUnit(t, func(c *ast.Composer) {
		pointStruct(c)
		c.Fn(ast.FnSpec{
			Name: "f",
			Body: c.Block(
				c.Let("p", ast.NoTypeID, newPoint(c)),
				c.Let("r", ast.NoTypeID, c.Ref(c.Field(c.Ident("p"), "x"))),
				c.Do(c.Assign(c.Field(c.Ident("p"), "x"), c.Int(5))),
				c.Do(c.CallFn("print", c.Ident("r"))),
			),
		})
	})
	codes := diagCodes(bag)
	if len(codes) != 1 || codes[0] != diag.OwnMutateWhileBorrowed {
		t.Fatalf("expected one %v, got %v", diag.OwnMutateWhileBorrowed, codes)
	}
}

func TestPersistentBorrowAllowsDisjointAndLaterWrites(t *testing.T) {
	_, bag := checkUnit(t, func(c *ast.Composer) {
		pointStruct(c)
		c.Fn(ast.FnSpec{
			Name: "f",
			Body: c.Block(
				c.Let("p", ast.NoTypeID, newPoint(c)),
				c.Block(
					c.Let("r", ast.NoTypeID, c.Ref(c.Field(c.Ident("p"), "x"))),
					c.Do(c.Assign(c.Field(c.Ident("p"), "y"), c.Int(5))),
					c.Do(c.CallFn("print", c.Ident("r"))),
				),
				c.Do(c.Assign(c.Field(c.Ident("p"), "x"), c.Int(6))),
			),
		})
	})
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", diagCodes(bag))
	}
}

func TestMutateSourceWhileViewAlive(t *testing.T) {
	_, bag := checkUnit(t, func(c *ast.Composer) {
		c.Fn(ast.FnSpec{
			Name:   "bump",
			Params: []ast.FnParam{c.Param("a", c.ArrayT(c.T("i32"), 4), ast.ParamMutate)},
			Body:   c.Block(),
		})
		c.Fn(ast.FnSpec{
			Name: "f",
			Body: c.Block(
				c.Let("a", ast.NoTypeID, c.Array(c.Int(1), c.Int(2), c.Int(3), c.Int(4))),
				c.Let("v", ast.NoTypeID, c.Method(c.Ident("a"), "slice_view", c.Int(0))),
				c.Do(c.CallFn("bump", c.Ident("a"))),
				c.Do(c.CallFn("print", c.Ident("v"))),
			),
		})
	})
	codes := diagCodes(bag)
	if len(codes) != 1 || codes[0] != diag.OwnMutateBorrowedSource {
		t.Fatalf("expected one %v, got %v", diag.OwnMutateBorrowedSource, codes)
	}
}

func TestExclusiveBorrowConflict(t *testing.T) {
	_, bag := checkUnit(t, func(c *ast.Composer) {
		c.Fn(ast.FnSpec{
			Name: "f",
			Body: c.Block(
				c.Let("x", ast.NoTypeID, c.Int(0)),
				c.Let("a", ast.NoTypeID, c.RefMut(c.Ident("x"))),
				c.Let("b", ast.NoTypeID, c.Ref(c.Ident("x"))),
				c.Do(c.CallFn("print", c.Ident("a"))),
			),
		})
	})
	codes := diagCodes(bag)
	if len(codes) != 1 || codes[0] != diag.OwnBorrowConflict {
		t.Fatalf("expected one %v, got %v", diag.OwnBorrowConflict, codes)
	}
}

func TestBorrowEscapesInnerBlock(t *testing.T) {
	_, bag := checkUnit(t, func(c *ast.Composer) {
		c.Fn(ast.FnSpec{
			Name:   "f",
			Result: c.T("i32"),
			Body: c.BlockTail(c.Ident("r"),
				c.Let("r", ast.NoTypeID, c.Int(0)),
				c.Block(
					c.Let("y", ast.NoTypeID, c.Int(1)),
					c.Do(c.Assign(c.Ident("r"), c.Ref(c.Ident("y")))),
				),
			),
		})
	})
	codes := diagCodes(bag)
	if len(codes) != 1 || codes[0] != diag.OwnBorrowEscapes {
		t.Fatalf("expected one %v, got %v", diag.OwnBorrowEscapes, codes)
	}
}

func TestReturningViewOfLocal(t *testing.T) {
	_, bag := checkUnit(t, func(c *ast.Composer) {
		c.Fn(ast.FnSpec{
			Name:   "f",
			Result: c.T("i32"),
			Body: c.Block(
				c.Let("x", ast.NoTypeID, c.Int(1)),
				c.Return(c.Ref(c.Ident("x"))),
			),
		})
	})
	if !hasCode(bag, diag.OwnBorrowEscapes) {
		t.Fatalf("expected %v, got %v", diag.OwnBorrowEscapes, diagCodes(bag))
	}
}

func TestBorrowedParameterRules(t *testing.T) {
	_, bag := checkUnit(t, func(c *ast.Composer) {
		sink(c)
		pointStruct(c)
		c.Fn(ast.FnSpec{
			Name:   "keep",
			Params: []ast.FnParam{c.Param("s", c.T("String"), ast.ParamDefault)},
			Body:   c.Block(c.Do(c.CallFn("sink", c.Ident("s")))),
		})
		c.Fn(ast.FnSpec{
			Name:   "poke",
			Params: []ast.FnParam{c.Param("p", c.T("Point"), ast.ParamDefault)},
			Body:   c.Block(c.Do(c.Assign(c.Field(c.Ident("p"), "x"), c.Int(1)))),
		})
		c.Fn(ast.FnSpec{
			Name:   "poke_mut",
			Params: []ast.FnParam{c.Param("p", c.T("Point"), ast.ParamMutate)},
			Body:   c.Block(c.Do(c.Assign(c.Field(c.Ident("p"), "x"), c.Int(1)))),
		})
	})
	codes := diagCodes(bag)
	if len(codes) != 2 || codes[0] != diag.OwnMoveFromBorrowedParam || codes[1] != diag.OwnMutateReadOnlyParam {
		t.Fatalf("expected move-from-borrowed then read-only mutation, got %v", codes)
	}
}

func resourceDecls(c *ast.Composer) {
	c.Struct("File", ast.TypeResource, c.FieldD("fd", c.T("i32")))
	c.Fn(ast.FnSpec{
		Name:   "open",
		Result: c.T("File"),
		Body:   c.BlockTail(c.StructLit(c.T("File"), c.Init("fd", c.Int(3)))),
	})
	c.Fn(ast.FnSpec{
		Name:   "close",
		Params: []ast.FnParam{c.Param("f", c.T("File"), ast.ParamTake)},
		Body:   c.Block(),
	})
}

func TestResourceNotConsumed(t *testing.T) {
	_, bag := checkUnit(t, func(c *ast.Composer) {
		resourceDecls(c)
		c.Fn(ast.FnSpec{Name: "leak", Body: c.Block(c.Let("f", ast.NoTypeID, c.CallFn("open")))})
	})
	codes := diagCodes(bag)
	if len(codes) != 1 || codes[0] != diag.OwnResourceNotConsumed {
		t.Fatalf("expected exactly one %v, got %v", diag.OwnResourceNotConsumed, codes)
	}
}

func TestResourceConsumedTwice(t *testing.T) {
	_, bag := checkUnit(t, func(c *ast.Composer) {
		resourceDecls(c)
		c.Fn(ast.FnSpec{
			Name: "twice",
			Body: c.Block(
				c.Let("f", ast.NoTypeID, c.CallFn("open")),
				c.Do(c.CallFn("close", c.Ident("f"))),
				c.Do(c.CallFn("close", c.Ident("f"))),
			),
		})
	})
	codes := diagCodes(bag)
	if len(codes) != 1 || codes[0] != diag.OwnResourceConsumedTwice {
		t.Fatalf("expected exactly one %v, got %v", diag.OwnResourceConsumedTwice, codes)
	}
}

func TestResourceConsumedOnceIsClean(t *testing.T) {
	prog, bag := checkUnit(t, func(c *ast.Composer) {
		resourceDecls(c)
		c.Fn(ast.FnSpec{
			Name: "ok",
			Body: c.Block(
				c.Let("f", ast.NoTypeID, c.CallFn("open")),
				c.Let("g", ast.NoTypeID, c.Ident("f")),
				c.Do(c.CallFn("close", c.Ident("g"))),
			),
		})
	})
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", diagCodes(bag))
	}
	var consumed, moves int
	for _, ev := range prog.Events {
		switch ev.Kind {
		case EventConsume:
			consumed++
		case EventMove:
			moves++
		}
	}
	if consumed != 1 || moves != 2 {
		t.Fatalf("expected 1 consume and 2 moves in the event log, got %d and %d", consumed, moves)
	}
}

func TestBindingStateTransitions(t *testing.T) {
	b := &ownBinding{name: "s", role: roleOwned}
	oc := &ownershipChecker{borrows: NewBorrowTable(), res: NewResourceTracker()}
	if got := oc.state(b); got != StateOwned {
		t.Fatalf("expected owned, got %s", got)
	}
	b.moved = true
	if got := oc.state(b); got != StateMoved {
		t.Fatalf("expected moved, got %s", got)
	}
	param := &ownBinding{name: "p", role: modeRole(ast.ParamDefault)}
	if got := oc.state(param); got != StateBorrowed {
		t.Fatalf("default parameters start borrowed, got %s", got)
	}
}

func TestConflictReportedOnceThenForgiven(t *testing.T) {
	_, bag := checkUnit(t, func(c *ast.Composer) {
		pointStruct(c)
		c.Fn(ast.FnSpec{
			Name: "f",
			Body: c.Block(
				c.Let("p", ast.NoTypeID, newPoint(c)),
				c.Let("r", ast.NoTypeID, c.Ref(c.Field(c.Ident("p"), "x"))),
				c.Do(c.Assign(c.Field(c.Ident("p"), "x"), c.Int(5))),
				c.Do(c.Assign(c.Field(c.Ident("p"), "x"), c.Int(6))),
				c.Do(c.Assign(c.Field(c.Ident("p"), "x"), c.Int(7))),
				c.Do(c.CallFn("print", c.Ident("r"))),
			),
		})
		c.Fn(ast.FnSpec{
			Name: "g",
			Body: c.Block(
				c.Let("s", ast.NoTypeID, c.Str("x")),
				c.Let("r", ast.NoTypeID, c.RefMut(c.Ident("s"))),
				c.Do(c.Method(c.Ident("s"), "len")),
				c.Do(c.Method(c.Ident("s"), "len")),
				c.Do(c.Method(c.Ident("s"), "len")),
				c.Do(c.CallFn("print", c.Ident("r"))),
			),
		})
	})
	if got := countCode(bag, diag.OwnMutateWhileBorrowed); got != 1 {
		t.Fatalf("expected one %v, got %v", diag.OwnMutateWhileBorrowed, diagCodes(bag))
	}
	if got := countCode(bag, diag.OwnBorrowConflict); got != 1 {
		t.Fatalf("expected one %v, got %v", diag.OwnBorrowConflict, diagCodes(bag))
	}
	if bag.Len() != 2 {
		t.Fatalf("unexpected diagnostics: %v", diagCodes(bag))
	}
}

func TestUseAfterMoveCitesLetStatement(t *testing.T) {
	var letB ast.StmtID
	var moved ast.ExprID
	prog, bag := checkUnit(t, func(c *ast.Composer) {
		sink(c)
		moved = c.Ident("a")
		letB = c.Let("b", ast.NoTypeID, moved)
		c.Fn(ast.FnSpec{
			Name: "f",
			Body: c.Block(
				c.Let("a", ast.NoTypeID, c.Str("x")),
				letB,
				c.Do(c.CallFn("sink", c.Ident("a"))),
			),
		})
	})
	codes := diagCodes(bag)
	if len(codes) != 1 || codes[0] != diag.OwnUseAfterMove {
		t.Fatalf("expected one %v, got %v", diag.OwnUseAfterMove, codes)
	}
	notes := bag.Items()[0].Notes
	want := prog.Builder.Stmts.Get(letB).Span
	if len(notes) != 1 || notes[0].Span != want {
		t.Fatalf("expected the move note at %v, got %+v", want, notes)
	}
	if want == prog.Builder.Exprs.Get(moved).Span {
		t.Fatalf("let statement and moved identifier must have distinct spans")
	}
}
