package ast

import (
	"corecheck/internal/source"
)

type StmtKind uint8

const (
	StmtBlock StmtKind = iota
	StmtLet
	StmtConst
	StmtExpr
	StmtReturn
	StmtIf
	StmtWhile
	StmtLoop
	StmtBreak
	StmtContinue
)

type Stmt struct {
	Kind    StmtKind
	Span    source.Span
	Payload PayloadID
}

type BlockStmt struct {
	Stmts []StmtID
	// Tail is the trailing value expression, NoExprID when the block yields unit.
	Tail   ExprID
	Unsafe bool
}

// LetStmt also backs StmtConst.
type LetStmt struct {
	Name     source.StringID
	NameSpan source.Span
	Type     TypeID
	Value    ExprID
}

type ExprStmt struct {
	Expr ExprID
}

type ReturnStmt struct {
	Expr ExprID
}

type IfStmt struct {
	Cond ExprID
	Then StmtID
	Else StmtID
}

type WhileStmt struct {
	Cond ExprID
	Body StmtID
}

type LoopStmt struct {
	Body StmtID
}

type Stmts struct {
	Arena   *Arena[Stmt]
	Blocks  *Arena[BlockStmt]
	Lets    *Arena[LetStmt]
	Exprs   *Arena[ExprStmt]
	Returns *Arena[ReturnStmt]
	Ifs     *Arena[IfStmt]
	Whiles  *Arena[WhileStmt]
	Loops   *Arena[LoopStmt]
}

func NewStmts(capHint uint) *Stmts {
	if capHint == 0 {
		capHint = 1 << 8
	}
	return &Stmts{
		Arena:   NewArena[Stmt](capHint),
		Blocks:  NewArena[BlockStmt](capHint / 4),
		Lets:    NewArena[LetStmt](capHint / 2),
		Exprs:   NewArena[ExprStmt](capHint / 2),
		Returns: NewArena[ReturnStmt](capHint / 8),
		Ifs:     NewArena[IfStmt](capHint / 8),
		Whiles:  NewArena[WhileStmt](capHint / 16),
		Loops:   NewArena[LoopStmt](capHint / 16),
	}
}

func (s *Stmts) new(kind StmtKind, span source.Span, payload PayloadID) StmtID {
	return StmtID(s.Arena.Allocate(Stmt{Kind: kind, Span: span, Payload: payload}))
}

func (s *Stmts) Get(id StmtID) *Stmt {
	return s.Arena.Get(uint32(id))
}

func stmtPayload[T any](s *Stmts, arena *Arena[T], id StmtID, kinds ...StmtKind) (*T, bool) {
	st := s.Get(id)
	if st == nil {
		return nil, false
	}
	for _, k := range kinds {
		if st.Kind == k {
			return arena.Get(uint32(st.Payload)), true
		}
	}
	return nil, false
}

func (s *Stmts) NewBlock(span source.Span, stmts []StmtID, tail ExprID, unsafe bool) StmtID {
	payload := s.Blocks.Allocate(BlockStmt{Stmts: stmts, Tail: tail, Unsafe: unsafe})
	return s.new(StmtBlock, span, PayloadID(payload))
}

func (s *Stmts) Block(id StmtID) (*BlockStmt, bool) {
	return stmtPayload(s, s.Blocks, id, StmtBlock)
}

func (s *Stmts) NewLet(span source.Span, let LetStmt) StmtID {
	return s.new(StmtLet, span, PayloadID(s.Lets.Allocate(let)))
}

func (s *Stmts) NewConst(span source.Span, let LetStmt) StmtID {
	return s.new(StmtConst, span, PayloadID(s.Lets.Allocate(let)))
}

func (s *Stmts) Let(id StmtID) (*LetStmt, bool) {
	return stmtPayload(s, s.Lets, id, StmtLet, StmtConst)
}

func (s *Stmts) NewExpr(span source.Span, expr ExprID) StmtID {
	return s.new(StmtExpr, span, PayloadID(s.Exprs.Allocate(ExprStmt{Expr: expr})))
}

func (s *Stmts) Expr(id StmtID) (*ExprStmt, bool) {
	return stmtPayload(s, s.Exprs, id, StmtExpr)
}

func (s *Stmts) NewReturn(span source.Span, expr ExprID) StmtID {
	return s.new(StmtReturn, span, PayloadID(s.Returns.Allocate(ReturnStmt{Expr: expr})))
}

func (s *Stmts) Return(id StmtID) (*ReturnStmt, bool) {
	return stmtPayload(s, s.Returns, id, StmtReturn)
}

func (s *Stmts) NewIf(span source.Span, cond ExprID, then, els StmtID) StmtID {
	return s.new(StmtIf, span, PayloadID(s.Ifs.Allocate(IfStmt{Cond: cond, Then: then, Else: els})))
}

func (s *Stmts) If(id StmtID) (*IfStmt, bool) {
	return stmtPayload(s, s.Ifs, id, StmtIf)
}

func (s *Stmts) NewWhile(span source.Span, cond ExprID, body StmtID) StmtID {
	return s.new(StmtWhile, span, PayloadID(s.Whiles.Allocate(WhileStmt{Cond: cond, Body: body})))
}

func (s *Stmts) While(id StmtID) (*WhileStmt, bool) {
	return stmtPayload(s, s.Whiles, id, StmtWhile)
}

func (s *Stmts) NewLoop(span source.Span, body StmtID) StmtID {
	return s.new(StmtLoop, span, PayloadID(s.Loops.Allocate(LoopStmt{Body: body})))
}

func (s *Stmts) Loop(id StmtID) (*LoopStmt, bool) {
	return stmtPayload(s, s.Loops, id, StmtLoop)
}

func (s *Stmts) NewBreak(span source.Span) StmtID {
	return s.new(StmtBreak, span, NoPayloadID)
}

func (s *Stmts) NewContinue(span source.Span) StmtID {
	return s.new(StmtContinue, span, NoPayloadID)
}
