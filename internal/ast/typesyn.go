package ast

import "corecheck/internal/source"

type TypeExprKind uint8

const (
	// TypePath: имя с необязательными аргументами (i32, Option<T>, Array<T>).
	TypePath TypeExprKind = iota
	TypeTuple
	TypeArray
	TypeSlice
	TypeFn
)

type TypeExpr struct {
	Kind   TypeExprKind
	Span   source.Span
	Name   source.StringID
	Args   []TypeID // аргументы пути, элементы кортежа, параметры fn
	Elem   TypeID
	Len    uint32
	Result TypeID
}

type TypeExprs struct {
	Arena *Arena[TypeExpr]
}

func NewTypeExprs(capHint uint) *TypeExprs {
	return &TypeExprs{Arena: NewArena[TypeExpr](capHint)}
}

func (t *TypeExprs) Get(id TypeID) *TypeExpr {
	return t.Arena.Get(uint32(id))
}

func (t *TypeExprs) NewPath(span source.Span, name source.StringID, args ...TypeID) TypeID {
	return TypeID(t.Arena.Allocate(TypeExpr{Kind: TypePath, Span: span, Name: name, Args: args}))
}

func (t *TypeExprs) NewTuple(span source.Span, elems ...TypeID) TypeID {
	return TypeID(t.Arena.Allocate(TypeExpr{Kind: TypeTuple, Span: span, Args: elems}))
}

func (t *TypeExprs) NewArray(span source.Span, elem TypeID, length uint32) TypeID {
	return TypeID(t.Arena.Allocate(TypeExpr{Kind: TypeArray, Span: span, Elem: elem, Len: length}))
}

func (t *TypeExprs) NewSlice(span source.Span, elem TypeID) TypeID {
	return TypeID(t.Arena.Allocate(TypeExpr{Kind: TypeSlice, Span: span, Elem: elem}))
}

func (t *TypeExprs) NewFn(span source.Span, params []TypeID, result TypeID) TypeID {
	return TypeID(t.Arena.Allocate(TypeExpr{Kind: TypeFn, Span: span, Args: params, Result: result}))
}
