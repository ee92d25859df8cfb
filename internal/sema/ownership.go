package sema

import (
	"fmt"

	"corecheck/internal/ast"
	"corecheck/internal/diag"
	"corecheck/internal/source"
	"corecheck/internal/types"
)

// BindingState is the ownership state of a binding at a program point.
type BindingState uint8

const (
	StateOwned BindingState = iota
	StateMoved
	StateBorrowed
)

func (s BindingState) String() string {
	switch s {
	case StateMoved:
		return "moved"
	case StateBorrowed:
		return "borrowed"
	}
	return "owned"
}

// paramRole is what the function may do with a binding it did not create.
type paramRole uint8

const (
	roleOwned paramRole = iota
	roleShared
	roleExclusive
)

type useKind uint8

const (
	useRead useKind = iota
	useMove
	useDiscard
)

type ownBinding struct {
	name     string
	typ      types.TypeID
	depth    int
	span     source.Span
	role     paramRole
	moved    bool
	movedAt  source.Span
	reason   types.MoveReason
	view     BorrowID
	resource ResourceID
	// consumed is the resource handed to a `take` position through this
	// binding, kept to tell a second consumption from a plain use after move.
	consumed ResourceID
}

type ownFrame struct {
	block ast.StmtID
	depth int
	span  source.Span
	names map[string]*ownBinding
	order []*ownBinding
}

// valueInfo is what an evaluated expression carries along.
type valueInfo struct {
	view     BorrowID
	resource ResourceID
	from     *ownBinding
}

// ownershipChecker walks one function body in evaluation order tracking
// moves, borrows and resources.
type ownershipChecker struct {
	c       *checker
	sig     *fnSig
	borrows *BorrowTable
	res     *ResourceTracker
	frames  []*ownFrame

	// stmt is the statement being walked; instant borrows end with it.
	stmt ast.StmtID

	events []BorrowEvent
	errs   []Error
}

func newOwnershipChecker(c *checker, sig *fnSig) *ownershipChecker {
	return &ownershipChecker{
		c:       c,
		sig:     sig,
		borrows: NewBorrowTable(),
		res:     NewResourceTracker(),
	}
}

func (oc *ownershipChecker) checkFunction() []Error {
	sig := oc.sig
	oc.push(ast.NoStmtID, sig.Span)
	// resources received by `take` were consumed by the caller's call;
	// inside the callee they are plain owned values
	if sig.Self != ast.SelfNone {
		oc.declare("self", sig.SelfType, selfRole(sig.Self), sig.Span)
	}
	for _, p := range sig.Params {
		oc.declare(p.Name, p.Type, modeRole(p.Mode), sig.Span)
	}
	oc.stmt = sig.Body
	v := oc.walkBlock(sig.Body)
	if v.view.IsValid() {
		oc.checkReturnedView(v.view, oc.tailSpan(sig.Body))
	}
	if v.resource.IsValid() {
		oc.res.Transfer(v.resource, 0)
	}
	oc.pop()
	return oc.errs
}

func selfRole(m ast.SelfMode) paramRole {
	switch m {
	case ast.SelfMutate:
		return roleExclusive
	case ast.SelfTake:
		return roleOwned
	}
	return roleShared
}

func modeRole(m ast.ParamMode) paramRole {
	switch m {
	case ast.ParamMutate:
		return roleExclusive
	case ast.ParamTake:
		return roleOwned
	}
	return roleShared
}

// --- frames

func (oc *ownershipChecker) push(block ast.StmtID, sp source.Span) *ownFrame {
	fr := &ownFrame{
		block: block,
		depth: len(oc.frames) + 1,
		span:  sp,
		names: make(map[string]*ownBinding),
	}
	oc.frames = append(oc.frames, fr)
	return fr
}

func (oc *ownershipChecker) top() *ownFrame {
	return oc.frames[len(oc.frames)-1]
}

func (oc *ownershipChecker) depth() int {
	return len(oc.frames)
}

// currentBlock is the innermost block that persistent borrows attach to.
func (oc *ownershipChecker) currentBlock() ast.StmtID {
	for i := len(oc.frames) - 1; i >= 0; i-- {
		if oc.frames[i].block.IsValid() {
			return oc.frames[i].block
		}
	}
	return oc.sig.Body
}

// pop closes the innermost scope: persistent borrows of the block and views
// held by its bindings end, unconsumed resources are reported.
func (oc *ownershipChecker) pop() {
	fr := oc.top()
	if fr.block.IsValid() {
		for _, id := range oc.borrows.EndBlock(fr.block) {
			oc.borrowEvent(EventBorrowEnd, id)
		}
	}
	for _, b := range fr.order {
		if b.view.IsValid() && oc.borrows.Release(b.view) {
			oc.borrowEvent(EventBorrowEnd, b.view)
		}
	}
	if err := oc.res.CheckScopeExit(fr.depth, fr.span); err != nil {
		oc.errs = append(oc.errs, err)
	}
	oc.frames = oc.frames[:len(oc.frames)-1]
}

func (oc *ownershipChecker) declare(name string, typ types.TypeID, role paramRole, sp source.Span) *ownBinding {
	fr := oc.top()
	b := &ownBinding{name: name, typ: typ, depth: fr.depth, span: sp, role: role}
	fr.names[name] = b
	fr.order = append(fr.order, b)
	return b
}

func (oc *ownershipChecker) lookup(name string) *ownBinding {
	for i := len(oc.frames) - 1; i >= 0; i-- {
		if b, ok := oc.frames[i].names[name]; ok {
			return b
		}
	}
	return nil
}

// state reports the ownership state of b right now.
func (oc *ownershipChecker) state(b *ownBinding) BindingState {
	if b.moved {
		return StateMoved
	}
	if b.role != roleOwned {
		return StateBorrowed
	}
	return StateOwned
}

// --- diagnostics

func (oc *ownershipChecker) fail(kind OwnershipErrorKind, sp source.Span, name string, related []diag.Note, format string, args ...any) {
	oc.errs = append(oc.errs, &OwnershipError{
		Kind:    kind,
		Span:    sp,
		Name:    name,
		Message: fmt.Sprintf(format, args...),
		Related: related,
	})
}

// useAfterMove reports the use and treats b as owned again so the same
// mistake is not reported at every later use.
func (oc *ownershipChecker) useAfterMove(b *ownBinding, sp source.Span) {
	oc.errs = append(oc.errs, &OwnershipError{
		Kind:    UseAfterMove,
		Span:    sp,
		Name:    b.name,
		Reason:  b.reason,
		Message: fmt.Sprintf("use of moved value `%s`: it was moved because %s", b.name, b.reason),
		Related: note(b.movedAt, "value moved here"),
	})
	b.moved = false
}

// dropConflict ends the borrow behind a reported conflict, so later
// statements see the place as owned again and the conflict is reported once.
func (oc *ownershipChecker) dropConflict(id BorrowID) {
	if oc.borrows.Release(id) {
		oc.borrowEvent(EventBorrowEnd, id)
	}
}

func (oc *ownershipChecker) borrowSpan(id BorrowID) source.Span {
	if info := oc.borrows.Info(id); info != nil {
		return info.Span
	}
	return source.Span{}
}

// --- statements

func (oc *ownershipChecker) tailSpan(block ast.StmtID) source.Span {
	if blk, ok := oc.c.b.Stmts.Block(block); ok && blk.Tail.IsValid() {
		return oc.c.exprSpan(blk.Tail)
	}
	return oc.c.stmtSpan(block)
}

// walkBlock runs a block in its own scope. The tail value flows to the
// enclosing scope.
func (oc *ownershipChecker) walkBlock(id ast.StmtID) valueInfo {
	blk, ok := oc.c.b.Stmts.Block(id)
	if !ok {
		oc.walkStmt(id)
		return valueInfo{}
	}
	sp := oc.c.stmtSpan(id)
	oc.push(id, sp)
	for _, st := range blk.Stmts {
		oc.walkStmt(st)
	}
	var v valueInfo
	if blk.Tail.IsValid() {
		prev := oc.stmt
		oc.stmt = id
		v = oc.eval(blk.Tail, useMove)
		if v.resource.IsValid() {
			oc.res.Transfer(v.resource, oc.depth()-1)
		}
		if v.view.IsValid() {
			oc.liftView(v.view, oc.c.exprSpan(blk.Tail), prev)
		}
		oc.endStatement(id)
		oc.stmt = prev
		v.from = nil
	}
	oc.pop()
	return v
}

// liftView keeps a view produced by a block tail alive in the enclosing
// block, unless it points into a binding of the block being closed.
func (oc *ownershipChecker) liftView(id BorrowID, sp source.Span, outer ast.StmtID) {
	info := oc.borrows.Info(id)
	if info == nil || !info.Live {
		return
	}
	if src := oc.lookup(info.Place.Base); src != nil && src.depth >= oc.depth() {
		oc.fail(BorrowEscapes, sp, src.name, note(info.Span, "borrowed here"),
			"`%s` does not live long enough: the view escapes the block that owns it", src.name)
		return
	}
	switch info.Scope.Kind {
	case ScopePersistent:
		info.Scope.Block = oc.enclosingBlock()
	case ScopeInstant:
		info.Scope.Stmt = outer
	}
	info.Stmt = outer
}

func (oc *ownershipChecker) enclosingBlock() ast.StmtID {
	for i := len(oc.frames) - 2; i >= 0; i-- {
		if oc.frames[i].block.IsValid() {
			return oc.frames[i].block
		}
	}
	return oc.sig.Body
}

func (oc *ownershipChecker) endStatement(id ast.StmtID) {
	for _, bid := range oc.borrows.EndStatement(id) {
		oc.borrowEvent(EventBorrowEnd, bid)
	}
}

func (oc *ownershipChecker) walkStmt(id ast.StmtID) {
	st := oc.c.b.Stmts.Get(id)
	if st == nil {
		return
	}
	prev := oc.stmt
	oc.stmt = id
	defer func() {
		oc.endStatement(id)
		oc.stmt = prev
	}()

	switch st.Kind {
	case ast.StmtBlock:
		oc.walkBlock(id)
	case ast.StmtLet, ast.StmtConst:
		let, _ := oc.c.b.Stmts.Let(id)
		var v valueInfo
		if let.Value.IsValid() {
			v = oc.eval(let.Value, useMove)
		}
		typ := oc.c.prog.BindingTypes[oc.c.syms.StmtSymbols[id]]
		b := oc.declare(oc.c.str(let.Name), typ, roleOwned, let.NameSpan)
		oc.bindValue(b, v, let.NameSpan)
	case ast.StmtExpr:
		// a discarded fresh resource stays in scope and leaks at its end
		es, _ := oc.c.b.Stmts.Expr(id)
		oc.eval(es.Expr, useDiscard)
	case ast.StmtReturn:
		rs, _ := oc.c.b.Stmts.Return(id)
		if !rs.Expr.IsValid() {
			return
		}
		v := oc.eval(rs.Expr, useMove)
		if v.view.IsValid() {
			oc.checkReturnedView(v.view, oc.c.exprSpan(rs.Expr))
		}
		if v.resource.IsValid() {
			oc.res.Transfer(v.resource, 0)
		}
	case ast.StmtIf:
		is, _ := oc.c.b.Stmts.If(id)
		oc.eval(is.Cond, useRead)
		oc.branches(is.Then, is.Else)
	case ast.StmtWhile:
		ws, _ := oc.c.b.Stmts.While(id)
		oc.eval(ws.Cond, useRead)
		oc.walkBlock(ws.Body)
	case ast.StmtLoop:
		ls, _ := oc.c.b.Stmts.Loop(id)
		oc.walkBlock(ls.Body)
	}
}

// checkReturnedView rejects views of values owned by the function.
func (oc *ownershipChecker) checkReturnedView(id BorrowID, sp source.Span) {
	info := oc.borrows.Info(id)
	if info == nil {
		return
	}
	src := oc.lookup(info.Place.Base)
	if src == nil || src.role != roleOwned {
		return
	}
	oc.fail(BorrowEscapes, sp, src.name, note(info.Span, "borrowed here"),
		"cannot return a view of `%s`, which is owned by the current function", src.name)
}

// bindValue stores v into b, checking that a carried view does not outlive
// its source and taking over a carried resource.
func (oc *ownershipChecker) bindValue(b *ownBinding, v valueInfo, sp source.Span) {
	if v.view.IsValid() {
		info := oc.borrows.Info(v.view)
		src := oc.lookup(info.Place.Base)
		switch {
		case !info.Live:
		case info.Scope.Kind == ScopeInstant:
			oc.fail(InstantBorrowEscapes, sp, info.Place.Base, note(info.Span, "view created here"),
				"view of growable `%s` cannot be stored in `%s`: it is only valid until the end of the statement",
				info.Place.Base, b.name)
		case src != nil && src.depth > b.depth:
			oc.fail(BorrowEscapes, sp, src.name, note(info.Span, "borrowed here"),
				"`%s` does not live long enough for the view stored in `%s`", src.name, b.name)
		default:
			oc.borrows.SetHolder(v.view, b.name, b.depth)
			b.view = v.view
		}
	}
	if v.resource.IsValid() {
		oc.res.Bind(v.resource, b.name, b.depth)
		b.resource = v.resource
	}
}

// --- branches

type bindingSnap struct {
	moved    bool
	movedAt  source.Span
	reason   types.MoveReason
	consumed ResourceID
}

type ownSnapshot struct {
	bindings  map[*ownBinding]bindingSnap
	resources []Resource
}

func (oc *ownershipChecker) snapshot() ownSnapshot {
	s := ownSnapshot{bindings: make(map[*ownBinding]bindingSnap), resources: oc.res.Snapshot()}
	for _, fr := range oc.frames {
		for _, b := range fr.order {
			s.bindings[b] = bindingSnap{moved: b.moved, movedAt: b.movedAt, reason: b.reason, consumed: b.consumed}
		}
	}
	return s
}

func (oc *ownershipChecker) restore(s ownSnapshot) {
	for b, st := range s.bindings {
		b.moved, b.movedAt, b.reason, b.consumed = st.moved, st.movedAt, st.reason, st.consumed
	}
	oc.res.Restore(s.resources)
}

// merge joins the state of another path: a value moved or consumed on
// either path is moved or consumed afterwards.
func (oc *ownershipChecker) merge(s ownSnapshot) {
	for b, st := range s.bindings {
		if st.moved && !b.moved {
			b.moved, b.movedAt, b.reason = true, st.movedAt, st.reason
		}
		if st.consumed.IsValid() && !b.consumed.IsValid() {
			b.consumed = st.consumed
		}
	}
	oc.res.Merge(s.resources)
}

// branches walks both arms from the same entry state. Arms that never
// finish do not contribute to the state after the if.
func (oc *ownershipChecker) branches(then, els ast.StmtID) (valueInfo, valueInfo) {
	entry := oc.snapshot()
	thenV := oc.walkBlock(then)
	thenDiverges := oc.c.blockDiverges(then)
	afterThen := oc.snapshot()
	oc.restore(entry)
	var elseV valueInfo
	elseDiverges := false
	if els.IsValid() {
		elseV = oc.walkBlock(els)
		elseDiverges = oc.c.blockDiverges(els)
	}
	switch {
	case thenDiverges && !elseDiverges:
	case elseDiverges && !thenDiverges:
		oc.restore(afterThen)
	default:
		oc.merge(afterThen)
	}
	return thenV, elseV
}

// --- expressions

func (oc *ownershipChecker) exprType(id ast.ExprID) types.TypeID {
	return oc.c.prog.ExprTypes[id]
}

func (oc *ownershipChecker) eval(id ast.ExprID, use useKind) valueInfo {
	e := oc.c.b.Exprs.Get(id)
	if e == nil {
		return valueInfo{}
	}
	exprs := oc.c.b.Exprs
	switch e.Kind {
	case ast.ExprIdent:
		return oc.useIdent(id, e.Span, use)
	case ast.ExprBinary:
		data, _ := exprs.Binary(id)
		if data.Op.IsAssign() {
			oc.assign(data, e.Span)
			return valueInfo{}
		}
		oc.eval(data.Left, useRead)
		oc.eval(data.Right, useRead)
	case ast.ExprUnary:
		data, _ := exprs.Unary(id)
		switch data.Op {
		case ast.ExprUnaryRef:
			return oc.borrowExpr(data.Operand, BorrowShared, e.Span)
		case ast.ExprUnaryRefMut:
			return oc.borrowExpr(data.Operand, BorrowExclusive, e.Span)
		}
		oc.eval(data.Operand, useRead)
	case ast.ExprCall:
		return oc.call(id, e.Span)
	case ast.ExprMethodCall:
		return oc.methodCall(id, e.Span)
	case ast.ExprMember, ast.ExprTupleIndex, ast.ExprIndex:
		return oc.usePlace(id, e.Span, use)
	case ast.ExprTuple, ast.ExprArray:
		data, _ := exprs.List(id)
		oc.absorbAll(data.Elems)
		return oc.fresh(id, e.Span)
	case ast.ExprStruct:
		data, _ := exprs.Struct(id)
		for _, f := range data.Fields {
			oc.absorb(f.Value)
		}
		return oc.fresh(id, e.Span)
	case ast.ExprVariant:
		data, _ := exprs.Variant(id)
		oc.absorbAll(data.Args)
		return oc.fresh(id, e.Span)
	case ast.ExprCtor:
		data, _ := exprs.Ctor(id)
		if data.Value.IsValid() {
			oc.absorb(data.Value)
		}
	case ast.ExprTry:
		data, _ := exprs.Try(id)
		v := oc.eval(data.Operand, useMove)
		if v.resource.IsValid() {
			oc.consume(v, e.Span)
		}
		return oc.fresh(id, e.Span)
	case ast.ExprIf:
		data, _ := exprs.If(id)
		oc.eval(data.Cond, useRead)
		thenV, elseV := oc.branches(data.Then, data.Else)
		// both arms yield the same value slot; track it once
		if thenV.resource.IsValid() && elseV.resource.IsValid() {
			oc.res.Transfer(elseV.resource, 0)
			return valueInfo{resource: thenV.resource}
		}
		if elseV.resource.IsValid() {
			return valueInfo{resource: elseV.resource}
		}
		return valueInfo{resource: thenV.resource}
	case ast.ExprBlock:
		data, _ := exprs.Block(id)
		return oc.walkBlock(data.Block)
	}
	return valueInfo{}
}

// absorb moves a value into an aggregate under construction. A resource
// stored this way counts as consumed: the aggregate now owns it.
func (oc *ownershipChecker) absorb(id ast.ExprID) {
	v := oc.eval(id, useMove)
	if v.resource.IsValid() {
		oc.consume(v, oc.c.exprSpan(id))
	}
}

func (oc *ownershipChecker) absorbAll(ids []ast.ExprID) {
	for _, id := range ids {
		oc.absorb(id)
	}
}

// fresh registers the value of id when it is a new resource.
func (oc *ownershipChecker) fresh(id ast.ExprID, sp source.Span) valueInfo {
	t := oc.exprType(id)
	if !t.IsValid() || !oc.c.table.IsResource(t) {
		return valueInfo{}
	}
	return valueInfo{resource: oc.res.Register("", oc.c.label(t), oc.depth(), sp)}
}

func (oc *ownershipChecker) consume(v valueInfo, sp source.Span) {
	if err := oc.res.MarkConsumed(v.resource, sp); err != nil {
		oc.errs = append(oc.errs, err)
		return
	}
	if v.from != nil {
		v.from.consumed = v.resource
	}
	place := ""
	if r := oc.res.Get(v.resource); r != nil {
		place = r.Var
	}
	oc.event(EventConsume, place, NoBorrowID, BorrowShared, sp)
}

func (oc *ownershipChecker) useIdent(id ast.ExprID, sp source.Span, use useKind) valueInfo {
	data, _ := oc.c.b.Exprs.Ident(id)
	b := oc.lookup(oc.c.str(data.Name))
	if b == nil {
		return valueInfo{}
	}
	if use == useMove {
		if reason := oc.c.table.ClassifyMove(b.typ, oc.c.threshold); reason != types.MoveNone {
			return oc.move(b, sp, reason)
		}
	}
	oc.read(b, Place{Base: b.name}, sp)
	return valueInfo{view: b.view}
}

func (oc *ownershipChecker) read(b *ownBinding, place Place, sp source.Span) bool {
	if b.moved {
		oc.useAfterMove(b, sp)
	}
	if issue := oc.borrows.ReadAllowed(place, b.view); !issue.Ok() {
		oc.fail(BorrowConflict, sp, b.name, note(oc.borrowSpan(issue.Borrow), "exclusive borrow here"),
			"cannot use `%s` while it is exclusively borrowed", place)
		oc.dropConflict(issue.Borrow)
		return false
	}
	return true
}

func (oc *ownershipChecker) move(b *ownBinding, sp source.Span, reason types.MoveReason) valueInfo {
	if b.moved {
		if b.consumed.IsValid() {
			if err := oc.res.MarkConsumed(b.consumed, sp); err != nil {
				oc.errs = append(oc.errs, err)
			}
			return valueInfo{}
		}
		oc.useAfterMove(b, sp)
	}
	if b.role != roleOwned {
		oc.fail(MoveFromBorrowedParam, sp, b.name, nil,
			"cannot move out of `%s`: it is borrowed from the caller; declare the parameter `take` to own it", b.name)
		return valueInfo{}
	}
	if issue := oc.borrows.MutationAllowed(Place{Base: b.name}, b.view); !issue.Ok() {
		oc.fail(BorrowConflict, sp, b.name, note(oc.borrowSpan(issue.Borrow), "borrowed here"),
			"cannot move `%s` while it is borrowed", b.name)
		oc.dropConflict(issue.Borrow)
		return valueInfo{}
	}
	b.moved = true
	b.movedAt = oc.moveSite(sp)
	b.reason = reason
	oc.event(EventMove, b.name, NoBorrowID, BorrowShared, sp)
	out := valueInfo{view: b.view, resource: b.resource, from: b}
	b.view = NoBorrowID
	b.resource = NoResourceID
	return out
}

// moveSite is the span cited for a move: the whole statement for a let
// initializer, the moved expression otherwise.
func (oc *ownershipChecker) moveSite(sp source.Span) source.Span {
	if st := oc.c.b.Stmts.Get(oc.stmt); st != nil && (st.Kind == ast.StmtLet || st.Kind == ast.StmtConst) {
		return st.Span
	}
	return sp
}

// mutateCall checks a mutation performed by a call through a `mutate`
// receiver or argument.
func (oc *ownershipChecker) mutateCall(b *ownBinding, place Place, sp source.Span) bool {
	if b.moved {
		oc.useAfterMove(b, sp)
	}
	if b.role == roleShared {
		oc.fail(MutateReadOnlyParam, sp, b.name, nil,
			"cannot mutate `%s`: the parameter is read-only; declare it `mutate` or `take`", b.name)
		return false
	}
	issue := oc.borrows.MutationAllowed(place, b.view)
	if issue.Ok() {
		oc.event(EventWrite, place.String(), NoBorrowID, BorrowExclusive, sp)
		return true
	}
	info := oc.borrows.Info(issue.Borrow)
	if info.Holder != "" {
		oc.fail(MutateBorrowedSource, sp, b.name, note(info.Span, fmt.Sprintf("view `%s` created here", info.Holder)),
			"cannot mutate `%s` while the view `%s` derived from it is alive", place, info.Holder)
	} else {
		oc.fail(BorrowConflict, sp, b.name, note(info.Span, "borrowed here"),
			"cannot mutate `%s` while it is borrowed in the same statement", place)
	}
	oc.dropConflict(issue.Borrow)
	return false
}

// placeOf maps a place expression onto its root binding and path. Index
// operands are not evaluated here.
func (oc *ownershipChecker) placeOf(id ast.ExprID) (*ownBinding, Place, bool) {
	exprs := oc.c.b.Exprs
	e := exprs.Get(id)
	if e == nil {
		return nil, Place{}, false
	}
	switch e.Kind {
	case ast.ExprIdent:
		data, _ := exprs.Ident(id)
		b := oc.lookup(oc.c.str(data.Name))
		if b == nil {
			return nil, Place{}, false
		}
		return b, Place{Base: b.name}, true
	case ast.ExprMember:
		data, _ := exprs.Member(id)
		b, p, ok := oc.placeOf(data.Target)
		p.Path += "." + oc.c.str(data.Field)
		return b, p, ok
	case ast.ExprTupleIndex:
		data, _ := exprs.TupleIndex(id)
		b, p, ok := oc.placeOf(data.Target)
		p.Path += fmt.Sprintf(".%d", data.Index)
		return b, p, ok
	case ast.ExprIndex:
		data, _ := exprs.Index(id)
		b, p, ok := oc.placeOf(data.Target)
		p.Path += "[]"
		return b, p, ok
	}
	return nil, Place{}, false
}

// evalPlaceOperands evaluates what a place expression computes on the way:
// index operands, and the base when it is not a binding.
func (oc *ownershipChecker) evalPlaceOperands(id ast.ExprID) {
	exprs := oc.c.b.Exprs
	e := exprs.Get(id)
	if e == nil {
		return
	}
	switch e.Kind {
	case ast.ExprMember:
		data, _ := exprs.Member(id)
		oc.evalPlaceOperands(data.Target)
	case ast.ExprTupleIndex:
		data, _ := exprs.TupleIndex(id)
		oc.evalPlaceOperands(data.Target)
	case ast.ExprIndex:
		data, _ := exprs.Index(id)
		oc.evalPlaceOperands(data.Target)
		oc.eval(data.Index, useRead)
	case ast.ExprIdent:
	default:
		oc.eval(id, useRead)
	}
}

func (oc *ownershipChecker) usePlace(id ast.ExprID, sp source.Span, use useKind) valueInfo {
	b, place, ok := oc.placeOf(id)
	oc.evalPlaceOperands(id)
	if !ok {
		return valueInfo{}
	}
	if use == useMove && !isIndexed(place) {
		// a field cannot be moved out alone; the whole value goes
		if reason := oc.c.table.ClassifyMove(oc.exprType(id), oc.c.threshold); reason != types.MoveNone {
			return oc.move(b, sp, reason)
		}
	}
	oc.read(b, place, sp)
	return valueInfo{}
}

func isIndexed(p Place) bool {
	for i := 0; i < len(p.Path); i++ {
		if p.Path[i] == '[' {
			return true
		}
	}
	return false
}

// scopeFor picks instant scope for views of growable containers.
func (oc *ownershipChecker) scopeFor(root *ownBinding, target ast.ExprID) BorrowScope {
	table := oc.c.table
	if table.IsGrowable(root.typ) || table.IsGrowable(oc.exprType(target)) {
		return Instant(oc.stmt)
	}
	return Persistent(oc.currentBlock())
}

func (oc *ownershipChecker) borrowExpr(operand ast.ExprID, mode BorrowMode, sp source.Span) valueInfo {
	b, place, ok := oc.placeOf(operand)
	oc.evalPlaceOperands(operand)
	if !ok {
		return valueInfo{}
	}
	if b.moved {
		oc.useAfterMove(b, sp)
	}
	if mode == BorrowExclusive && b.role == roleShared {
		oc.fail(MutateReadOnlyParam, sp, b.name, nil,
			"cannot borrow `%s` exclusively: the parameter is read-only", place)
		return valueInfo{}
	}
	return oc.beginBorrow(mode, place, oc.scopeFor(b, operand), sp)
}

func (oc *ownershipChecker) beginBorrow(mode BorrowMode, place Place, scope BorrowScope, sp source.Span) valueInfo {
	id, issue := oc.borrows.Begin(mode, place, scope, sp, oc.stmt)
	if !issue.Ok() {
		prior := oc.borrows.Info(issue.Borrow)
		oc.fail(BorrowConflict, sp, place.Base, note(prior.Span, fmt.Sprintf("%s borrow here", prior.Mode)),
			"cannot borrow `%s` as %s because it is already borrowed as %s", place, mode, prior.Mode)
		oc.dropConflict(issue.Borrow)
		return valueInfo{}
	}
	oc.borrowEvent(EventBorrowStart, id)
	return valueInfo{view: id}
}

// assign handles `=` and compound assignment. Writing the whole binding
// re-initialises it.
func (oc *ownershipChecker) assign(data *ast.ExprBinaryData, sp source.Span) {
	plain := data.Op == ast.ExprBinaryAssign
	use := useRead
	if plain {
		use = useMove
	}
	v := oc.eval(data.Right, use)
	b, place, ok := oc.placeOf(data.Left)
	oc.evalPlaceOperands(data.Left)
	if !ok {
		return
	}
	whole := place.Path == ""
	if b.role == roleShared {
		oc.fail(MutateReadOnlyParam, sp, b.name, nil,
			"cannot assign to `%s`: the parameter is read-only; declare it `mutate` or `take`", place)
		return
	}
	if b.moved && (!whole || !plain) {
		oc.useAfterMove(b, sp)
	}
	except := NoBorrowID
	if whole {
		except = b.view
	}
	if issue := oc.borrows.MutationAllowed(place, except); !issue.Ok() {
		oc.fail(MutateWhileBorrowed, sp, b.name, note(oc.borrowSpan(issue.Borrow), "borrowed here"),
			"cannot assign to `%s` while it is borrowed", place)
		oc.dropConflict(issue.Borrow)
		return
	}
	oc.event(EventWrite, place.String(), NoBorrowID, BorrowExclusive, sp)
	if !plain {
		return
	}
	if !whole {
		if v.resource.IsValid() {
			oc.consume(v, sp)
		}
		return
	}
	if b.view.IsValid() && oc.borrows.Release(b.view) {
		oc.borrowEvent(EventBorrowEnd, b.view)
	}
	b.view = NoBorrowID
	b.moved = false
	b.consumed = NoResourceID
	oc.bindValue(b, v, sp)
}

// argument applies a parameter mode to one call argument.
func (oc *ownershipChecker) argument(arg ast.ExprID, mode ast.ParamMode) {
	sp := oc.c.exprSpan(arg)
	switch mode {
	case ast.ParamTake:
		v := oc.eval(arg, useMove)
		if v.resource.IsValid() {
			oc.consume(v, sp)
		}
	case ast.ParamMutate:
		b, place, ok := oc.placeOf(arg)
		if !ok {
			oc.eval(arg, useRead)
			return
		}
		oc.evalPlaceOperands(arg)
		if oc.mutateCall(b, place, sp) {
			oc.beginBorrow(BorrowExclusive, place, Instant(oc.stmt), sp)
		}
	default:
		b, place, ok := oc.placeOf(arg)
		if !ok {
			oc.eval(arg, useRead)
			return
		}
		oc.evalPlaceOperands(arg)
		if oc.read(b, place, sp) {
			oc.beginBorrow(BorrowShared, place, Instant(oc.stmt), sp)
		}
	}
}

func (oc *ownershipChecker) call(id ast.ExprID, sp source.Span) valueInfo {
	data, _ := oc.c.b.Exprs.Call(id)
	target := oc.c.calls[id]
	if target == nil {
		oc.eval(data.Callee, useRead)
	}
	for i, arg := range data.Args {
		mode := ast.ParamDefault
		if target != nil {
			mode = target.mode(i)
		}
		oc.argument(arg, mode)
	}
	return oc.fresh(id, sp)
}

func (oc *ownershipChecker) methodCall(id ast.ExprID, sp source.Span) valueInfo {
	data, _ := oc.c.b.Exprs.MethodCall(id)
	target := oc.c.calls[id]
	self := ast.SelfValue
	if target != nil {
		self = target.Self
	}
	b, place, isPlace := oc.placeOf(data.Receiver)
	switch {
	case self == ast.SelfTake:
		v := oc.eval(data.Receiver, useMove)
		if v.resource.IsValid() {
			oc.consume(v, oc.c.exprSpan(data.Receiver))
		}
	case self == ast.SelfMutate && isPlace:
		oc.evalPlaceOperands(data.Receiver)
		oc.mutateCall(b, place, oc.c.exprSpan(data.Receiver))
	case isPlace:
		oc.evalPlaceOperands(data.Receiver)
		oc.read(b, place, oc.c.exprSpan(data.Receiver))
	default:
		oc.eval(data.Receiver, useRead)
	}
	for i, arg := range data.Args {
		mode := ast.ParamDefault
		if target != nil {
			mode = target.mode(i)
		}
		oc.argument(arg, mode)
	}
	if target != nil && target.View && isPlace {
		return oc.beginBorrow(BorrowShared, place, oc.scopeFor(b, data.Receiver), sp)
	}
	return oc.fresh(id, sp)
}
