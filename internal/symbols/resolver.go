package symbols

import (
	"fmt"

	"corecheck/internal/ast"
	"corecheck/internal/diag"
	"corecheck/internal/source"
)

// ResolveOptions configures a resolution pass.
type ResolveOptions struct {
	Reporter diag.Reporter
}

type resolver struct {
	b        *ast.Builder
	table    *Table
	reporter diag.Reporter
	stack    []ScopeID
	res      *Result
}

// Resolve binds every identifier of the unit to its declaration. Unresolved
// identifiers are reported and left out of ExprSymbols.
func Resolve(b *ast.Builder, opts ResolveOptions) *Result {
	table := NewTable(b.Strings)
	root := table.NewScope(ScopeUnit, NoScopeID, source.Span{})
	r := &resolver{
		b:        b,
		table:    table,
		reporter: opts.Reporter,
		stack:    []ScopeID{root},
		res: &Result{
			Table:       table,
			Root:        root,
			ExprSymbols: make(map[ast.ExprID]SymbolID),
			ItemSymbols: make(map[ast.ItemID]SymbolID),
			StmtSymbols: make(map[ast.StmtID]SymbolID),
			FnBindings:  make(map[ast.ItemID]*FnBindings),
		},
	}
	for _, name := range builtinFunctions {
		table.NewSymbol(Symbol{
			Name:  b.Strings.Intern(name),
			Kind:  SymbolFunction,
			Scope: root,
			Flags: SymbolFlagBuiltin,
			Decl:  SymbolDecl{Param: -1},
		})
	}

	items := b.AllItems()
	// сначала объявления, чтобы работали ссылки вперёд
	for _, id := range items {
		r.declareItem(id)
	}
	for _, id := range items {
		r.walkItem(id)
	}
	return r.res
}

func (r *resolver) current() ScopeID {
	return r.stack[len(r.stack)-1]
}

func (r *resolver) push(kind ScopeKind, sp source.Span) ScopeID {
	id := r.table.NewScope(kind, r.current(), sp)
	r.stack = append(r.stack, id)
	return id
}

func (r *resolver) pop() {
	if len(r.stack) > 1 {
		r.stack = r.stack[:len(r.stack)-1]
	}
}

func (r *resolver) report(code diag.Code, sp source.Span, msg string) {
	if r.reporter == nil {
		return
	}
	diag.ReportError(r.reporter, code, sp, msg).Emit()
}

func (r *resolver) declare(sym Symbol, unique bool) SymbolID {
	sym.Scope = r.current()
	if unique {
		if scope := r.table.Scope(sym.Scope); scope != nil {
			if prev := scope.NameIndex[sym.Name]; len(prev) > 0 {
				prevSym := r.table.Get(prev[len(prev)-1])
				diag.ReportError(r.reporter, diag.ResDuplicateSymbol, sym.Span,
					fmt.Sprintf("`%s` is declared more than once", r.b.Name(sym.Name))).
					WithNote(prevSym.Span, "previous declaration here").
					Emit()
			}
		}
	}
	return r.table.NewSymbol(sym)
}

func (r *resolver) declareItem(id ast.ItemID) {
	item := r.b.Items.Get(id)
	if item == nil {
		return
	}
	switch item.Kind {
	case ast.ItemFn:
		fn, _ := r.b.Items.Fn(id)
		r.res.ItemSymbols[id] = r.declare(Symbol{
			Name: fn.Name,
			Kind: SymbolFunction,
			Span: fn.NameSpan,
			Decl: SymbolDecl{Item: id, Param: -1},
		}, true)
	case ast.ItemType:
		decl, _ := r.b.Items.Type(id)
		r.res.ItemSymbols[id] = r.declare(Symbol{
			Name: decl.Name,
			Kind: SymbolType,
			Span: decl.NameSpan,
			Decl: SymbolDecl{Item: id, Param: -1},
		}, true)
	}
}

func (r *resolver) walkItem(id ast.ItemID) {
	item := r.b.Items.Get(id)
	if item == nil {
		return
	}
	switch item.Kind {
	case ast.ItemFn:
		r.walkFn(id)
	case ast.ItemImpl:
		impl, _ := r.b.Items.Impl(id)
		for _, m := range impl.Methods {
			r.walkFn(m)
		}
	}
}

func (r *resolver) walkFn(id ast.ItemID) {
	fn, ok := r.b.Items.Fn(id)
	if !ok || !fn.HasBody() {
		return
	}
	item := r.b.Items.Get(id)
	scope := r.push(ScopeFunction, item.Span)
	r.table.Scope(scope).Item = id
	defer r.pop()

	bindings := &FnBindings{Params: make([]SymbolID, len(fn.Params))}
	if fn.Self != ast.SelfNone {
		bindings.Self = r.declare(Symbol{
			Name:  r.b.Strings.Intern("self"),
			Kind:  SymbolParam,
			Span:  fn.SelfSpan,
			Flags: SymbolFlagSelf,
			Decl:  SymbolDecl{Item: id, Param: -1},
		}, false)
	}
	for i, p := range fn.Params {
		bindings.Params[i] = r.declare(Symbol{
			Name: p.Name,
			Kind: SymbolParam,
			Span: p.Span,
			Decl: SymbolDecl{Item: id, Param: i},
		}, true)
	}
	r.res.FnBindings[id] = bindings
	r.walkBlock(fn.Body)
}

func (r *resolver) walkBlock(id ast.StmtID) {
	block, ok := r.b.Stmts.Block(id)
	if !ok {
		r.walkStmt(id)
		return
	}
	scope := r.push(ScopeBlock, r.b.Stmts.Get(id).Span)
	r.table.Scope(scope).Stmt = id
	defer r.pop()
	for _, st := range block.Stmts {
		r.walkStmt(st)
	}
	r.walkExpr(block.Tail)
}

func (r *resolver) walkStmt(id ast.StmtID) {
	st := r.b.Stmts.Get(id)
	if st == nil {
		return
	}
	switch st.Kind {
	case ast.StmtBlock:
		r.walkBlock(id)
	case ast.StmtLet, ast.StmtConst:
		let, _ := r.b.Stmts.Let(id)
		r.walkExpr(let.Value)
		kind := SymbolLet
		if st.Kind == ast.StmtConst {
			kind = SymbolConst
		}
		r.res.StmtSymbols[id] = r.declare(Symbol{
			Name: let.Name,
			Kind: kind,
			Span: let.NameSpan,
			Decl: SymbolDecl{Stmt: id, Param: -1},
		}, false)
	case ast.StmtExpr:
		es, _ := r.b.Stmts.Expr(id)
		r.walkExpr(es.Expr)
	case ast.StmtReturn:
		rs, _ := r.b.Stmts.Return(id)
		r.walkExpr(rs.Expr)
	case ast.StmtIf:
		is, _ := r.b.Stmts.If(id)
		r.walkExpr(is.Cond)
		r.walkBlock(is.Then)
		if is.Else.IsValid() {
			r.walkBlock(is.Else)
		}
	case ast.StmtWhile:
		ws, _ := r.b.Stmts.While(id)
		r.walkExpr(ws.Cond)
		r.walkBlock(ws.Body)
	case ast.StmtLoop:
		ls, _ := r.b.Stmts.Loop(id)
		r.walkBlock(ls.Body)
	}
}

func (r *resolver) walkExprs(ids []ast.ExprID) {
	for _, id := range ids {
		r.walkExpr(id)
	}
}

func (r *resolver) walkExpr(id ast.ExprID) {
	expr := r.b.Exprs.Get(id)
	if expr == nil {
		return
	}
	switch expr.Kind {
	case ast.ExprIdent:
		data, _ := r.b.Exprs.Ident(id)
		sym := r.table.LookupIn(r.current(), data.Name)
		if !sym.IsValid() || r.table.Get(sym).Kind == SymbolType {
			name := r.b.Name(data.Name)
			if name == "self" {
				r.report(diag.ResSelfOutsideMethod, expr.Span, "`self` is only available inside methods with a receiver")
			} else {
				r.report(diag.ResUnresolvedSymbol, expr.Span, fmt.Sprintf("cannot find value `%s` in this scope", name))
			}
			return
		}
		r.res.ExprSymbols[id] = sym
	case ast.ExprBinary:
		data, _ := r.b.Exprs.Binary(id)
		r.walkExpr(data.Left)
		r.walkExpr(data.Right)
	case ast.ExprUnary:
		data, _ := r.b.Exprs.Unary(id)
		r.walkExpr(data.Operand)
	case ast.ExprCall:
		data, _ := r.b.Exprs.Call(id)
		r.walkExpr(data.Callee)
		r.walkExprs(data.Args)
	case ast.ExprMethodCall:
		data, _ := r.b.Exprs.MethodCall(id)
		r.walkExpr(data.Receiver)
		r.walkExprs(data.Args)
	case ast.ExprMember:
		data, _ := r.b.Exprs.Member(id)
		r.walkExpr(data.Target)
	case ast.ExprTupleIndex:
		data, _ := r.b.Exprs.TupleIndex(id)
		r.walkExpr(data.Target)
	case ast.ExprIndex:
		data, _ := r.b.Exprs.Index(id)
		r.walkExpr(data.Target)
		r.walkExpr(data.Index)
	case ast.ExprTuple, ast.ExprArray:
		data, _ := r.b.Exprs.List(id)
		r.walkExprs(data.Elems)
	case ast.ExprStruct:
		data, _ := r.b.Exprs.Struct(id)
		for _, f := range data.Fields {
			r.walkExpr(f.Value)
		}
	case ast.ExprVariant:
		data, _ := r.b.Exprs.Variant(id)
		r.walkExprs(data.Args)
	case ast.ExprCtor:
		data, _ := r.b.Exprs.Ctor(id)
		r.walkExpr(data.Value)
	case ast.ExprTry:
		data, _ := r.b.Exprs.Try(id)
		r.walkExpr(data.Operand)
	case ast.ExprIf:
		data, _ := r.b.Exprs.If(id)
		r.walkExpr(data.Cond)
		r.walkBlock(data.Then)
		if data.Else.IsValid() {
			r.walkBlock(data.Else)
		}
	case ast.ExprBlock:
		data, _ := r.b.Exprs.Block(id)
		r.walkBlock(data.Block)
	}
}
