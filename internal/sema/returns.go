package sema

import (
	"fmt"

	"corecheck/internal/ast"
	"corecheck/internal/symbols"
	"corecheck/internal/types"
)

// checkReturn reports MissingReturn when a function with a value result has
// a path that falls off the end of its body.
func (c *checker) checkReturn(sig *fnSig) *TypeError {
	switch c.in.KindOf(sig.Result) {
	case types.KindUnit, types.KindNever, types.KindError:
		return nil
	}
	blk, ok := c.b.Stmts.Block(sig.Body)
	if !ok || blk.Tail.IsValid() || c.blockDiverges(sig.Body) {
		return nil
	}
	return &TypeError{
		Kind:     MissingReturn,
		Span:     sig.Span,
		Expected: sig.Result,
		Message:  fmt.Sprintf("function `%s` must return %s but its body can finish without a value", sig.Name, c.label(sig.Result)),
	}
}

// blockDiverges reports whether control never reaches the end of id.
func (c *checker) blockDiverges(id ast.StmtID) bool {
	blk, ok := c.b.Stmts.Block(id)
	if !ok {
		return c.stmtDiverges(id)
	}
	for _, st := range blk.Stmts {
		if c.stmtDiverges(st) {
			return true
		}
	}
	return c.exprDiverges(blk.Tail)
}

func (c *checker) stmtDiverges(id ast.StmtID) bool {
	st := c.b.Stmts.Get(id)
	if st == nil {
		return false
	}
	switch st.Kind {
	case ast.StmtReturn:
		return true
	case ast.StmtBlock:
		return c.blockDiverges(id)
	case ast.StmtIf:
		is, _ := c.b.Stmts.If(id)
		return is.Else.IsValid() && c.blockDiverges(is.Then) && c.blockDiverges(is.Else)
	case ast.StmtLoop:
		ls, _ := c.b.Stmts.Loop(id)
		return !c.containsBreak(ls.Body)
	case ast.StmtExpr:
		es, _ := c.b.Stmts.Expr(id)
		return c.exprDiverges(es.Expr)
	case ast.StmtLet, ast.StmtConst:
		let, _ := c.b.Stmts.Let(id)
		return c.exprDiverges(let.Value)
	}
	return false
}

func (c *checker) exprDiverges(id ast.ExprID) bool {
	e := c.b.Exprs.Get(id)
	if e == nil {
		return false
	}
	switch e.Kind {
	case ast.ExprCall:
		data, _ := c.b.Exprs.Call(id)
		sym := c.syms.Table.Get(c.syms.ExprSymbols[data.Callee])
		if sym != nil && sym.IsBuiltin() && c.str(sym.Name) == symbols.BuiltinPanic {
			return true
		}
		if sym != nil && sym.Kind == symbols.SymbolFunction {
			if sig := c.sigOf(sym); sig != nil && c.in.KindOf(sig.Result) == types.KindNever {
				return true
			}
		}
	case ast.ExprBlock:
		data, _ := c.b.Exprs.Block(id)
		return c.blockDiverges(data.Block)
	case ast.ExprIf:
		data, _ := c.b.Exprs.If(id)
		return data.Else.IsValid() && c.blockDiverges(data.Then) && c.blockDiverges(data.Else)
	}
	return false
}

// containsBreak looks for a break that targets the loop owning body.
// Breaks inside nested loops belong to those loops.
func (c *checker) containsBreak(id ast.StmtID) bool {
	st := c.b.Stmts.Get(id)
	if st == nil {
		return false
	}
	switch st.Kind {
	case ast.StmtBreak:
		return true
	case ast.StmtBlock:
		blk, _ := c.b.Stmts.Block(id)
		for _, s := range blk.Stmts {
			if c.containsBreak(s) {
				return true
			}
		}
		return c.exprBreaks(blk.Tail)
	case ast.StmtIf:
		is, _ := c.b.Stmts.If(id)
		return c.containsBreak(is.Then) || (is.Else.IsValid() && c.containsBreak(is.Else))
	case ast.StmtExpr:
		es, _ := c.b.Stmts.Expr(id)
		return c.exprBreaks(es.Expr)
	case ast.StmtLet, ast.StmtConst:
		let, _ := c.b.Stmts.Let(id)
		return c.exprBreaks(let.Value)
	}
	return false
}

// exprBreaks finds breaks inside if and block expressions.
func (c *checker) exprBreaks(id ast.ExprID) bool {
	e := c.b.Exprs.Get(id)
	if e == nil {
		return false
	}
	switch e.Kind {
	case ast.ExprIf:
		data, _ := c.b.Exprs.If(id)
		return c.containsBreak(data.Then) || (data.Else.IsValid() && c.containsBreak(data.Else))
	case ast.ExprBlock:
		data, _ := c.b.Exprs.Block(id)
		return c.containsBreak(data.Block)
	}
	return false
}
