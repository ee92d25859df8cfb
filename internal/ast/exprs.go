package ast

import (
	"corecheck/internal/source"
)

// Exprs manages allocation of expressions.
type Exprs struct {
	Arena        *Arena[Expr]
	Idents       *Arena[ExprIdentData]
	Literals     *Arena[ExprLiteralData]
	Binaries     *Arena[ExprBinaryData]
	Unaries      *Arena[ExprUnaryData]
	Calls        *Arena[ExprCallData]
	MethodCalls  *Arena[ExprMethodCallData]
	Members      *Arena[ExprMemberData]
	TupleIndices *Arena[ExprTupleIndexData]
	Indices      *Arena[ExprIndexData]
	Lists        *Arena[ExprListData]
	Structs      *Arena[ExprStructData]
	Variants     *Arena[ExprVariantData]
	Ctors        *Arena[ExprCtorData]
	Tries        *Arena[ExprTryData]
	Ifs          *Arena[ExprIfData]
	Blocks       *Arena[ExprBlockData]
}

// NewExprs creates a new Exprs with per-kind arenas preallocated using capHint as the initial capacity.
func NewExprs(capHint uint) *Exprs {
	if capHint == 0 {
		capHint = 1 << 8
	}
	small := capHint / 8
	return &Exprs{
		Arena:        NewArena[Expr](capHint),
		Idents:       NewArena[ExprIdentData](capHint),
		Literals:     NewArena[ExprLiteralData](capHint),
		Binaries:     NewArena[ExprBinaryData](capHint / 2),
		Unaries:      NewArena[ExprUnaryData](small),
		Calls:        NewArena[ExprCallData](capHint / 2),
		MethodCalls:  NewArena[ExprMethodCallData](capHint / 2),
		Members:      NewArena[ExprMemberData](small),
		TupleIndices: NewArena[ExprTupleIndexData](small),
		Indices:      NewArena[ExprIndexData](small),
		Lists:        NewArena[ExprListData](small),
		Structs:      NewArena[ExprStructData](small),
		Variants:     NewArena[ExprVariantData](small),
		Ctors:        NewArena[ExprCtorData](small),
		Tries:        NewArena[ExprTryData](small),
		Ifs:          NewArena[ExprIfData](small),
		Blocks:       NewArena[ExprBlockData](small),
	}
}

func (e *Exprs) new(kind ExprKind, span source.Span, payload uint32) ExprID {
	return ExprID(e.Arena.Allocate(Expr{
		Kind:    kind,
		Span:    span,
		Payload: PayloadID(payload),
	}))
}

// Get returns the expression with the given ID.
func (e *Exprs) Get(id ExprID) *Expr {
	return e.Arena.Get(uint32(id))
}

func exprPayload[T any](e *Exprs, arena *Arena[T], id ExprID, kinds ...ExprKind) (*T, bool) {
	expr := e.Get(id)
	if expr == nil {
		return nil, false
	}
	for _, k := range kinds {
		if expr.Kind == k {
			return arena.Get(uint32(expr.Payload)), true
		}
	}
	return nil, false
}

// NewIdent creates a new identifier expression.
func (e *Exprs) NewIdent(span source.Span, name source.StringID) ExprID {
	return e.new(ExprIdent, span, e.Idents.Allocate(ExprIdentData{Name: name}))
}

// Ident returns the identifier data for the given expression ID.
func (e *Exprs) Ident(id ExprID) (*ExprIdentData, bool) {
	return exprPayload(e, e.Idents, id, ExprIdent)
}

func (e *Exprs) NewLiteral(span source.Span, kind ExprLitKind, value source.StringID) ExprID {
	return e.new(ExprLit, span, e.Literals.Allocate(ExprLiteralData{Kind: kind, Value: value}))
}

func (e *Exprs) Literal(id ExprID) (*ExprLiteralData, bool) {
	return exprPayload(e, e.Literals, id, ExprLit)
}

func (e *Exprs) NewBinary(span source.Span, op ExprBinaryOp, left, right ExprID) ExprID {
	return e.new(ExprBinary, span, e.Binaries.Allocate(ExprBinaryData{Op: op, Left: left, Right: right}))
}

func (e *Exprs) Binary(id ExprID) (*ExprBinaryData, bool) {
	return exprPayload(e, e.Binaries, id, ExprBinary)
}

func (e *Exprs) NewUnary(span source.Span, op ExprUnaryOp, operand ExprID) ExprID {
	return e.new(ExprUnary, span, e.Unaries.Allocate(ExprUnaryData{Op: op, Operand: operand}))
}

func (e *Exprs) Unary(id ExprID) (*ExprUnaryData, bool) {
	return exprPayload(e, e.Unaries, id, ExprUnary)
}

func (e *Exprs) NewCall(span source.Span, callee ExprID, args []ExprID) ExprID {
	return e.new(ExprCall, span, e.Calls.Allocate(ExprCallData{Callee: callee, Args: args}))
}

func (e *Exprs) Call(id ExprID) (*ExprCallData, bool) {
	return exprPayload(e, e.Calls, id, ExprCall)
}

func (e *Exprs) NewMethodCall(span source.Span, recv ExprID, name source.StringID, nameSpan source.Span, args []ExprID) ExprID {
	return e.new(ExprMethodCall, span, e.MethodCalls.Allocate(ExprMethodCallData{
		Receiver: recv,
		Name:     name,
		NameSpan: nameSpan,
		Args:     args,
	}))
}

func (e *Exprs) MethodCall(id ExprID) (*ExprMethodCallData, bool) {
	return exprPayload(e, e.MethodCalls, id, ExprMethodCall)
}

func (e *Exprs) NewMember(span source.Span, target ExprID, field source.StringID, fieldSpan source.Span) ExprID {
	return e.new(ExprMember, span, e.Members.Allocate(ExprMemberData{Target: target, Field: field, FieldSpan: fieldSpan}))
}

func (e *Exprs) Member(id ExprID) (*ExprMemberData, bool) {
	return exprPayload(e, e.Members, id, ExprMember)
}

func (e *Exprs) NewTupleIndex(span source.Span, target ExprID, index uint32) ExprID {
	return e.new(ExprTupleIndex, span, e.TupleIndices.Allocate(ExprTupleIndexData{Target: target, Index: index}))
}

func (e *Exprs) TupleIndex(id ExprID) (*ExprTupleIndexData, bool) {
	return exprPayload(e, e.TupleIndices, id, ExprTupleIndex)
}

func (e *Exprs) NewIndex(span source.Span, target, index ExprID) ExprID {
	return e.new(ExprIndex, span, e.Indices.Allocate(ExprIndexData{Target: target, Index: index}))
}

func (e *Exprs) Index(id ExprID) (*ExprIndexData, bool) {
	return exprPayload(e, e.Indices, id, ExprIndex)
}

func (e *Exprs) NewTuple(span source.Span, elems []ExprID) ExprID {
	return e.new(ExprTuple, span, e.Lists.Allocate(ExprListData{Elems: elems}))
}

func (e *Exprs) NewArray(span source.Span, elems []ExprID) ExprID {
	return e.new(ExprArray, span, e.Lists.Allocate(ExprListData{Elems: elems}))
}

// List returns elements of tuple and array literals.
func (e *Exprs) List(id ExprID) (*ExprListData, bool) {
	return exprPayload(e, e.Lists, id, ExprTuple, ExprArray)
}

func (e *Exprs) NewStruct(span source.Span, typ TypeID, fields []StructFieldInit) ExprID {
	return e.new(ExprStruct, span, e.Structs.Allocate(ExprStructData{Type: typ, Fields: fields}))
}

func (e *Exprs) Struct(id ExprID) (*ExprStructData, bool) {
	return exprPayload(e, e.Structs, id, ExprStruct)
}

func (e *Exprs) NewVariant(span source.Span, typ TypeID, variant source.StringID, args []ExprID) ExprID {
	return e.new(ExprVariant, span, e.Variants.Allocate(ExprVariantData{Type: typ, Variant: variant, Args: args}))
}

func (e *Exprs) Variant(id ExprID) (*ExprVariantData, bool) {
	return exprPayload(e, e.Variants, id, ExprVariant)
}

func (e *Exprs) NewCtor(span source.Span, ctor CtorKind, value ExprID) ExprID {
	return e.new(ExprCtor, span, e.Ctors.Allocate(ExprCtorData{Ctor: ctor, Value: value}))
}

func (e *Exprs) Ctor(id ExprID) (*ExprCtorData, bool) {
	return exprPayload(e, e.Ctors, id, ExprCtor)
}

func (e *Exprs) NewTry(span source.Span, operand ExprID) ExprID {
	return e.new(ExprTry, span, e.Tries.Allocate(ExprTryData{Operand: operand}))
}

func (e *Exprs) Try(id ExprID) (*ExprTryData, bool) {
	return exprPayload(e, e.Tries, id, ExprTry)
}

func (e *Exprs) NewIf(span source.Span, cond ExprID, then, els StmtID) ExprID {
	return e.new(ExprIf, span, e.Ifs.Allocate(ExprIfData{Cond: cond, Then: then, Else: els}))
}

func (e *Exprs) If(id ExprID) (*ExprIfData, bool) {
	return exprPayload(e, e.Ifs, id, ExprIf)
}

func (e *Exprs) NewBlock(span source.Span, block StmtID) ExprID {
	return e.new(ExprBlock, span, e.Blocks.Allocate(ExprBlockData{Block: block}))
}

func (e *Exprs) Block(id ExprID) (*ExprBlockData, bool) {
	return exprPayload(e, e.Blocks, id, ExprBlock)
}
