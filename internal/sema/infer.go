package sema

import (
	"fmt"
	"strconv"

	"fortio.org/safecast"

	"corecheck/internal/ast"
	"corecheck/internal/source"
	"corecheck/internal/symbols"
	"corecheck/internal/types"
)

type letSite struct {
	Sym  symbols.SymbolID
	Name string
	Span source.Span
}

// fnInfer generates and solves the constraints of one function body.
type fnInfer struct {
	c   *checker
	sig *fnSig
	ic  *InferenceContext
	env *typeEnv

	exprs    map[ast.ExprID]types.TypeID
	bindings map[symbols.SymbolID]types.TypeID
	lets     []letSite
	cons     []Constraint
	sites    []*genericSite
	pending  map[ast.ExprID]*genericSite
	operands []operandCheck
	errs     []Error

	unsafeDepth int
	loopDepth   int
}

// inferFunction walks the body of sig once generating constraints, then
// solves them. Failed sub-expressions are typed {error} and the walk goes on.
func (c *checker) inferFunction(sig *fnSig) (*FunctionTypes, []Error) {
	ic := NewInferenceContext(c.table)
	fi := &fnInfer{
		c:        c,
		sig:      sig,
		ic:       ic,
		env:      &typeEnv{bounds: sig.Bounds, self: sig.SelfType, ic: ic},
		exprs:    make(map[ast.ExprID]types.TypeID, 64),
		bindings: make(map[symbols.SymbolID]types.TypeID, 16),
		pending:  make(map[ast.ExprID]*genericSite),
	}
	if sig.Unsafe {
		fi.unsafeDepth = 1
	}
	if fb := c.syms.FnBindings[sig.Item]; fb != nil {
		if fb.Self.IsValid() {
			fi.bindings[fb.Self] = sig.SelfType
		}
		for i, sym := range fb.Params {
			if i < len(sig.Params) && sym.IsValid() {
				fi.bindings[sym] = sig.Params[i].Type
			}
		}
	}

	bodyT := fi.block(sig.Body)
	if blk, ok := c.b.Stmts.Block(sig.Body); ok && blk.Tail.IsValid() {
		fi.equal(sig.Result, bodyT, c.exprSpan(blk.Tail))
	}
	fi.solve()
	if err := c.checkReturn(sig); err != nil {
		fi.errs = append(fi.errs, err)
	}
	return fi.finish(), fi.errs
}

func (c *checker) exprSpan(id ast.ExprID) source.Span {
	if e := c.b.Exprs.Get(id); e != nil {
		return e.Span
	}
	return source.Span{}
}

func (c *checker) stmtSpan(id ast.StmtID) source.Span {
	if st := c.b.Stmts.Get(id); st != nil {
		return st.Span
	}
	return source.Span{}
}

func (fi *fnInfer) fail(kind TypeErrorKind, sp source.Span, format string, args ...any) types.TypeID {
	fi.errs = append(fi.errs, &TypeError{Kind: kind, Span: sp, Message: fmt.Sprintf(format, args...)})
	return fi.c.builtins.Error
}

func (fi *fnInfer) equal(expected, found types.TypeID, sp source.Span) {
	fi.cons = append(fi.cons, Constraint{Kind: ConstraintEqual, Left: expected, Right: found, Span: sp})
}

func (fi *fnInfer) inUnsafe() bool {
	return fi.unsafeDepth > 0
}

func (fi *fnInfer) kindOf(t types.TypeID) types.Kind {
	return fi.c.in.KindOf(fi.ic.shallow(t))
}

// --- statements

func (fi *fnInfer) block(id ast.StmtID) types.TypeID {
	b := fi.c.builtins
	blk, ok := fi.c.b.Stmts.Block(id)
	if !ok {
		fi.stmt(id)
		if fi.c.stmtDiverges(id) {
			return b.Never
		}
		return b.Unit
	}
	if blk.Unsafe {
		fi.unsafeDepth++
		defer func() { fi.unsafeDepth-- }()
	}
	for _, st := range blk.Stmts {
		fi.stmt(st)
	}
	if blk.Tail.IsValid() {
		return fi.expr(blk.Tail)
	}
	if fi.c.blockDiverges(id) {
		return b.Never
	}
	return b.Unit
}

func (fi *fnInfer) stmt(id ast.StmtID) {
	b := fi.c.builtins
	st := fi.c.b.Stmts.Get(id)
	if st == nil {
		return
	}
	switch st.Kind {
	case ast.StmtBlock:
		fi.block(id)
	case ast.StmtLet, ast.StmtConst:
		let, _ := fi.c.b.Stmts.Let(id)
		declT := fi.ic.Fresh()
		if let.Type.IsValid() {
			declT = fi.c.resolveType(let.Type, fi.env)
		}
		if let.Value.IsValid() {
			fi.equal(declT, fi.expr(let.Value), fi.c.exprSpan(let.Value))
		}
		if sym := fi.c.syms.StmtSymbols[id]; sym.IsValid() {
			fi.bindings[sym] = declT
			fi.lets = append(fi.lets, letSite{Sym: sym, Name: fi.c.str(let.Name), Span: let.NameSpan})
		}
	case ast.StmtExpr:
		es, _ := fi.c.b.Stmts.Expr(id)
		fi.expr(es.Expr)
	case ast.StmtReturn:
		rs, _ := fi.c.b.Stmts.Return(id)
		if rs.Expr.IsValid() {
			fi.equal(fi.sig.Result, fi.expr(rs.Expr), fi.c.exprSpan(rs.Expr))
		} else {
			fi.equal(fi.sig.Result, b.Unit, st.Span)
		}
	case ast.StmtIf:
		is, _ := fi.c.b.Stmts.If(id)
		fi.equal(b.Bool, fi.expr(is.Cond), fi.c.exprSpan(is.Cond))
		fi.block(is.Then)
		if is.Else.IsValid() {
			fi.block(is.Else)
		}
	case ast.StmtWhile:
		ws, _ := fi.c.b.Stmts.While(id)
		fi.equal(b.Bool, fi.expr(ws.Cond), fi.c.exprSpan(ws.Cond))
		fi.loopDepth++
		fi.block(ws.Body)
		fi.loopDepth--
	case ast.StmtLoop:
		ls, _ := fi.c.b.Stmts.Loop(id)
		fi.loopDepth++
		fi.block(ls.Body)
		fi.loopDepth--
	case ast.StmtBreak, ast.StmtContinue:
		if fi.loopDepth == 0 {
			word := "break"
			if st.Kind == ast.StmtContinue {
				word = "continue"
			}
			fi.fail(BreakOutsideLoop, st.Span, "`%s` outside of a loop", word)
		}
	}
}

// --- expressions

func (fi *fnInfer) exprList(ids []ast.ExprID) ([]types.TypeID, []source.Span) {
	ts := make([]types.TypeID, len(ids))
	spans := make([]source.Span, len(ids))
	for i, id := range ids {
		ts[i] = fi.expr(id)
		spans[i] = fi.c.exprSpan(id)
	}
	return ts, spans
}

func (fi *fnInfer) expr(id ast.ExprID) types.TypeID {
	e := fi.c.b.Exprs.Get(id)
	if e == nil {
		return fi.c.builtins.Unit
	}
	t := fi.exprKind(id, e)
	fi.exprs[id] = t
	return t
}

func (fi *fnInfer) exprKind(id ast.ExprID, e *ast.Expr) types.TypeID {
	c := fi.c
	b := c.builtins
	in := c.in
	switch e.Kind {
	case ast.ExprIdent:
		return fi.ident(id)

	case ast.ExprLit:
		lit, _ := c.b.Exprs.Literal(id)
		switch lit.Kind {
		case ast.ExprLitInt:
			return fi.ic.FreshInt()
		case ast.ExprLitFloat:
			return fi.ic.FreshFloat()
		case ast.ExprLitString:
			return b.String
		case ast.ExprLitChar:
			return b.Char
		case ast.ExprLitTrue, ast.ExprLitFalse:
			return b.Bool
		}
		return b.Unit

	case ast.ExprBinary:
		return fi.binary(id, e)

	case ast.ExprUnary:
		data, _ := c.b.Exprs.Unary(id)
		t := fi.expr(data.Operand)
		switch data.Op {
		case ast.ExprUnaryMinus:
			fi.operands = append(fi.operands, operandCheck{Type: t, Op: "-", Span: e.Span})
			return t
		case ast.ExprUnaryNot:
			fi.equal(b.Bool, t, c.exprSpan(data.Operand))
			return b.Bool
		}
		// ссылки прозрачны для типов: &x имеет тип x
		return t

	case ast.ExprCall:
		return fi.call(id, e)

	case ast.ExprMethodCall:
		data, _ := c.b.Exprs.MethodCall(id)
		recv := fi.expr(data.Receiver)
		args, spans := fi.exprList(data.Args)
		r := fi.ic.Fresh()
		fi.cons = append(fi.cons, Constraint{
			Kind: ConstraintHasMethod, Recv: recv, Name: c.str(data.Name),
			Args: args, ArgSpans: spans, Result: r, Expr: id, Span: data.NameSpan,
			Unsafe: fi.inUnsafe(),
		})
		return r

	case ast.ExprMember:
		data, _ := c.b.Exprs.Member(id)
		recv := fi.expr(data.Target)
		r := fi.ic.Fresh()
		fi.cons = append(fi.cons, Constraint{
			Kind: ConstraintHasField, Recv: recv, Name: c.str(data.Field),
			Result: r, Expr: id, Span: data.FieldSpan,
		})
		return r

	case ast.ExprTupleIndex:
		data, _ := c.b.Exprs.TupleIndex(id)
		recv := fi.expr(data.Target)
		r := fi.ic.Fresh()
		fi.cons = append(fi.cons, Constraint{
			Kind: ConstraintHasField, Recv: recv, Name: strconv.FormatUint(uint64(data.Index), 10),
			Result: r, Expr: id, Span: e.Span,
		})
		return r

	case ast.ExprIndex:
		data, _ := c.b.Exprs.Index(id)
		recv := fi.expr(data.Target)
		idx := fi.expr(data.Index)
		r := fi.ic.Fresh()
		fi.cons = append(fi.cons, Constraint{
			Kind: ConstraintHasMethod, Recv: recv, Name: "index",
			Args: []types.TypeID{idx}, ArgSpans: []source.Span{c.exprSpan(data.Index)},
			Result: r, Expr: id, Span: e.Span, Index: true, Unsafe: fi.inUnsafe(),
		})
		return r

	case ast.ExprTuple:
		data, _ := c.b.Exprs.List(id)
		elems, _ := fi.exprList(data.Elems)
		return in.Tuple(elems)

	case ast.ExprArray:
		data, _ := c.b.Exprs.List(id)
		elem := fi.ic.Fresh()
		for _, el := range data.Elems {
			fi.equal(elem, fi.expr(el), c.exprSpan(el))
		}
		return in.Array(elem, arrayLen(len(data.Elems)))

	case ast.ExprStruct:
		return fi.structLit(id, e)

	case ast.ExprVariant:
		return fi.variant(id, e)

	case ast.ExprCtor:
		data, _ := c.b.Exprs.Ctor(id)
		switch data.Ctor {
		case ast.CtorSome:
			return in.Option(fi.expr(data.Value))
		case ast.CtorNone:
			return in.Option(fi.ic.Fresh())
		case ast.CtorOk:
			return in.Result(fi.expr(data.Value), fi.ic.Fresh())
		default:
			return in.Result(fi.ic.Fresh(), fi.expr(data.Value))
		}

	case ast.ExprTry:
		data, _ := c.b.Exprs.Try(id)
		operand := fi.expr(data.Operand)
		switch c.in.KindOf(fi.sig.Result) {
		case types.KindOption, types.KindResult:
		case types.KindError:
			return b.Error
		default:
			return fi.fail(TryOutsideFunction, e.Span,
				"the `?` operator can only be used in a function returning Option or Result, `%s` returns %s",
				fi.sig.Name, c.label(fi.sig.Result))
		}
		r := fi.ic.Fresh()
		fi.cons = append(fi.cons, Constraint{Kind: ConstraintTry, Recv: operand, Result: r, Expr: id, Span: e.Span})
		return r

	case ast.ExprIf:
		data, _ := c.b.Exprs.If(id)
		fi.equal(b.Bool, fi.expr(data.Cond), c.exprSpan(data.Cond))
		thenT := fi.block(data.Then)
		if !data.Else.IsValid() {
			return b.Unit
		}
		elseT := fi.block(data.Else)
		return fi.join(thenT, elseT, c.stmtSpan(data.Else))

	case ast.ExprBlock:
		data, _ := c.b.Exprs.Block(id)
		return fi.block(data.Block)
	}
	return b.Error
}

// join merges branch types; a diverging branch takes the other's type.
func (fi *fnInfer) join(a, b types.TypeID, sp source.Span) types.TypeID {
	if fi.kindOf(a) == types.KindNever {
		return b
	}
	if fi.kindOf(b) == types.KindNever {
		return a
	}
	fi.equal(a, b, sp)
	return a
}

func (fi *fnInfer) ident(id ast.ExprID) types.TypeID {
	c := fi.c
	symID, ok := c.syms.ExprSymbols[id]
	if !ok {
		return c.builtins.Error
	}
	sym := c.syms.Table.Get(symID)
	if sym == nil {
		return c.builtins.Error
	}
	switch sym.Kind {
	case symbols.SymbolFunction:
		sig := c.sigOf(sym)
		if sig == nil {
			return c.builtins.Error
		}
		return fi.instantiate(id, sig)
	case symbols.SymbolLet, symbols.SymbolConst, symbols.SymbolParam:
		if t, ok := fi.bindings[symID]; ok {
			return t
		}
	}
	return c.builtins.Error
}

func (c *checker) sigOf(sym *symbols.Symbol) *fnSig {
	if sym.IsBuiltin() {
		return c.builtinSigs[c.str(sym.Name)]
	}
	return c.sigs[sym.Decl.Item]
}

// instantiate returns the function type of sig with its type parameters
// replaced by fresh variables. The site is completed by the enclosing call.
func (fi *fnInfer) instantiate(id ast.ExprID, sig *fnSig) types.TypeID {
	in := fi.c.in
	if len(sig.Generics) == 0 {
		return in.Fn(sig.paramTypes(), sig.Result)
	}
	site := &genericSite{Expr: id, Span: fi.c.exprSpan(id), Callee: sig.Name, Params: sig.Generics}
	subst := make(map[string]types.TypeID, len(sig.Generics))
	for _, g := range sig.Generics {
		v := fi.ic.Fresh()
		subst[g.Name] = v
		site.Args = append(site.Args, v)
	}
	params := make([]types.TypeID, len(sig.Params))
	for i, p := range sig.Params {
		params[i] = in.Substitute(p.Type, subst)
	}
	fi.pending[id] = site
	fi.sites = append(fi.sites, site)
	return in.Fn(params, in.Substitute(sig.Result, subst))
}

func (fi *fnInfer) calleeSig(callee ast.ExprID) *fnSig {
	if _, ok := fi.c.b.Exprs.Ident(callee); !ok {
		return nil
	}
	sym := fi.c.syms.Table.Get(fi.c.syms.ExprSymbols[callee])
	if sym == nil || sym.Kind != symbols.SymbolFunction {
		return nil
	}
	return fi.c.sigOf(sym)
}

func (fi *fnInfer) call(id ast.ExprID, e *ast.Expr) types.TypeID {
	c := fi.c
	data, _ := c.b.Exprs.Call(id)
	calleeT := fi.expr(data.Callee)
	if site, ok := fi.pending[data.Callee]; ok {
		// аргументы generic-вызова привязываются к самому вызову
		site.Expr = id
		site.Span = e.Span
		delete(fi.pending, data.Callee)
	}
	args, spans := fi.exprList(data.Args)
	if sig := fi.calleeSig(data.Callee); sig != nil {
		if sig.Unsafe && !fi.inUnsafe() {
			fi.fail(UnsafeRequired, e.Span, "call to unsafe function `%s` requires an unsafe block or function", sig.Name)
		}
		c.calls[id] = &callTarget{
			Name:    sig.Name,
			Modes:   paramModes(sig.Params),
			Result:  sig.Result,
			Builtin: sig.Builtin,
		}
	}
	r := fi.ic.Fresh()
	fi.cons = append(fi.cons, Constraint{
		Kind: ConstraintCall, Recv: calleeT, Args: args, ArgSpans: spans,
		Result: r, Expr: id, Span: e.Span,
	})
	return r
}

func arrayLen(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("array literal length overflow: %w", err))
	}
	return v
}

func isPlace(b *ast.Builder, id ast.ExprID) bool {
	e := b.Exprs.Get(id)
	if e == nil {
		return false
	}
	switch e.Kind {
	case ast.ExprIdent, ast.ExprMember, ast.ExprTupleIndex, ast.ExprIndex:
		return true
	}
	return false
}

func (fi *fnInfer) binary(id ast.ExprID, e *ast.Expr) types.TypeID {
	c := fi.c
	b := c.builtins
	data, _ := c.b.Exprs.Binary(id)
	op := data.Op
	lt := fi.expr(data.Left)
	rt := fi.expr(data.Right)
	switch {
	case op.IsAssign():
		if !isPlace(c.b, data.Left) {
			fi.fail(NotAssignable, c.exprSpan(data.Left), "invalid left-hand side of assignment")
		} else if sym := c.syms.Table.Get(c.syms.ExprSymbols[data.Left]); sym != nil &&
			(sym.Kind == symbols.SymbolConst || sym.Kind == symbols.SymbolFunction) {
			fi.fail(NotAssignable, c.exprSpan(data.Left), "cannot assign to %s `%s`", sym.Kind, c.str(sym.Name))
		}
		fi.equal(lt, rt, c.exprSpan(data.Right))
		if op != ast.ExprBinaryAssign {
			fi.operands = append(fi.operands, operandCheck{Type: lt, Op: op.String(), Span: e.Span, AllowString: op == ast.ExprBinaryAddAssign})
		}
		return b.Unit
	case op.IsArith():
		fi.equal(lt, rt, c.exprSpan(data.Right))
		fi.operands = append(fi.operands, operandCheck{Type: lt, Op: op.String(), Span: e.Span, AllowString: op == ast.ExprBinaryAdd})
		return lt
	case op.IsComparison():
		fi.equal(lt, rt, c.exprSpan(data.Right))
		return b.Bool
	case op.IsLogical():
		fi.equal(b.Bool, lt, c.exprSpan(data.Left))
		fi.equal(b.Bool, rt, c.exprSpan(data.Right))
		return b.Bool
	}
	return b.Error
}

func (fi *fnInfer) structLit(id ast.ExprID, e *ast.Expr) types.TypeID {
	c := fi.c
	data, _ := c.b.Exprs.Struct(id)
	t := c.resolveType(data.Type, fi.env)
	def, info := c.table.DefOf(t)
	if def == nil || def.Kind != types.DefStruct {
		for _, f := range data.Fields {
			fi.expr(f.Value)
		}
		if c.in.KindOf(t) == types.KindError {
			return t
		}
		return fi.fail(UndefinedType, e.Span, "`%s` is not a struct type", c.label(t))
	}
	args := def.GenericArgs(info.Args)
	seen := make(map[string]bool, len(data.Fields))
	for _, f := range data.Fields {
		vt := fi.expr(f.Value)
		name := c.str(f.Name)
		fd, ok := def.Field(name)
		if !ok {
			fi.fail(NoSuchField, f.Span, "struct `%s` has no field named `%s`", def.Name, name)
			continue
		}
		seen[name] = true
		fi.equal(c.in.Substitute(fd.Type, args), vt, c.exprSpan(f.Value))
	}
	for _, fd := range def.Fields {
		if !seen[fd.Name] {
			fi.fail(MissingField, e.Span, "missing field `%s` in initializer of `%s`", fd.Name, def.Name)
		}
	}
	return t
}

func (fi *fnInfer) variant(id ast.ExprID, e *ast.Expr) types.TypeID {
	c := fi.c
	data, _ := c.b.Exprs.Variant(id)
	t := c.resolveType(data.Type, fi.env)
	args, _ := fi.exprList(data.Args)
	def, info := c.table.DefOf(t)
	if def == nil || def.Kind != types.DefEnum {
		if c.in.KindOf(t) == types.KindError {
			return t
		}
		return fi.fail(UndefinedType, e.Span, "`%s` is not an enum type", c.label(t))
	}
	name := c.str(data.Variant)
	v, ok := def.Variant(name)
	if !ok {
		return fi.fail(NoSuchField, e.Span, "enum `%s` has no variant named `%s`", def.Name, name)
	}
	if len(v.Payload) != len(args) {
		fi.fail(ArityMismatch, e.Span, "variant `%s::%s` takes %d value(s), found %d", def.Name, name, len(v.Payload), len(args))
		return t
	}
	bind := def.GenericArgs(info.Args)
	for i, p := range v.Payload {
		fi.equal(c.in.Substitute(p, bind), args[i], c.exprSpan(data.Args[i]))
	}
	return t
}
