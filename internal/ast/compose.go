package ast

import (
	"strconv"

	"corecheck/internal/source"
)

// Composer builds a unit programmatically. Every node receives a fresh
// one-byte span so diagnostics stay distinguishable without source text.
type Composer struct {
	B    *Builder
	File FileID
	src  source.FileID
	pos  uint32
}

func NewComposer(b *Builder, src source.FileID) *Composer {
	c := &Composer{B: b, src: src}
	c.File = b.NewFile(source.Span{File: src})
	return c
}

func (c *Composer) span() source.Span {
	c.pos += 2
	return source.Span{File: c.src, Start: c.pos, End: c.pos + 1}
}

func (c *Composer) name(s string) source.StringID {
	return c.B.Strings.Intern(s)
}

// --- types

func (c *Composer) T(name string, args ...TypeID) TypeID {
	return c.B.Types.NewPath(c.span(), c.name(name), args...)
}

func (c *Composer) UnitT() TypeID {
	return c.B.Types.NewTuple(c.span())
}

func (c *Composer) TupleT(elems ...TypeID) TypeID {
	return c.B.Types.NewTuple(c.span(), elems...)
}

func (c *Composer) ArrayT(elem TypeID, n uint32) TypeID {
	return c.B.Types.NewArray(c.span(), elem, n)
}

func (c *Composer) SliceT(elem TypeID) TypeID {
	return c.B.Types.NewSlice(c.span(), elem)
}

func (c *Composer) FnT(params []TypeID, result TypeID) TypeID {
	return c.B.Types.NewFn(c.span(), params, result)
}

// --- expressions

func (c *Composer) Ident(name string) ExprID {
	return c.B.Exprs.NewIdent(c.span(), c.name(name))
}

func (c *Composer) Int(v int) ExprID {
	return c.B.Exprs.NewLiteral(c.span(), ExprLitInt, c.name(strconv.Itoa(v)))
}

func (c *Composer) Float(v string) ExprID {
	return c.B.Exprs.NewLiteral(c.span(), ExprLitFloat, c.name(v))
}

func (c *Composer) Str(v string) ExprID {
	return c.B.Exprs.NewLiteral(c.span(), ExprLitString, c.name(v))
}

func (c *Composer) Char(v string) ExprID {
	return c.B.Exprs.NewLiteral(c.span(), ExprLitChar, c.name(v))
}

func (c *Composer) Bool(v bool) ExprID {
	kind := ExprLitFalse
	if v {
		kind = ExprLitTrue
	}
	return c.B.Exprs.NewLiteral(c.span(), kind, source.NoStringID)
}

func (c *Composer) UnitLit() ExprID {
	return c.B.Exprs.NewLiteral(c.span(), ExprLitUnit, source.NoStringID)
}

func (c *Composer) Bin(op ExprBinaryOp, l, r ExprID) ExprID {
	return c.B.Exprs.NewBinary(c.span(), op, l, r)
}

func (c *Composer) Assign(l, r ExprID) ExprID {
	return c.Bin(ExprBinaryAssign, l, r)
}

func (c *Composer) Un(op ExprUnaryOp, x ExprID) ExprID {
	return c.B.Exprs.NewUnary(c.span(), op, x)
}

func (c *Composer) Ref(x ExprID) ExprID    { return c.Un(ExprUnaryRef, x) }
func (c *Composer) RefMut(x ExprID) ExprID { return c.Un(ExprUnaryRefMut, x) }

func (c *Composer) Call(callee ExprID, args ...ExprID) ExprID {
	return c.B.Exprs.NewCall(c.span(), callee, args)
}

// CallFn is Call(Ident(name), args...).
func (c *Composer) CallFn(name string, args ...ExprID) ExprID {
	return c.Call(c.Ident(name), args...)
}

func (c *Composer) Method(recv ExprID, name string, args ...ExprID) ExprID {
	return c.B.Exprs.NewMethodCall(c.span(), recv, c.name(name), c.span(), args)
}

func (c *Composer) Field(target ExprID, name string) ExprID {
	return c.B.Exprs.NewMember(c.span(), target, c.name(name), c.span())
}

func (c *Composer) TupleIdx(target ExprID, i uint32) ExprID {
	return c.B.Exprs.NewTupleIndex(c.span(), target, i)
}

func (c *Composer) Index(target, index ExprID) ExprID {
	return c.B.Exprs.NewIndex(c.span(), target, index)
}

func (c *Composer) Tuple(elems ...ExprID) ExprID {
	return c.B.Exprs.NewTuple(c.span(), elems)
}

func (c *Composer) Array(elems ...ExprID) ExprID {
	return c.B.Exprs.NewArray(c.span(), elems)
}

func (c *Composer) Init(name string, value ExprID) StructFieldInit {
	return StructFieldInit{Name: c.name(name), Span: c.span(), Value: value}
}

func (c *Composer) StructLit(typ TypeID, fields ...StructFieldInit) ExprID {
	return c.B.Exprs.NewStruct(c.span(), typ, fields)
}

func (c *Composer) Variant(typ TypeID, variant string, args ...ExprID) ExprID {
	return c.B.Exprs.NewVariant(c.span(), typ, c.name(variant), args)
}

func (c *Composer) Some(x ExprID) ExprID { return c.B.Exprs.NewCtor(c.span(), CtorSome, x) }
func (c *Composer) None() ExprID         { return c.B.Exprs.NewCtor(c.span(), CtorNone, NoExprID) }
func (c *Composer) Ok(x ExprID) ExprID   { return c.B.Exprs.NewCtor(c.span(), CtorOk, x) }
func (c *Composer) Err(x ExprID) ExprID  { return c.B.Exprs.NewCtor(c.span(), CtorErr, x) }

func (c *Composer) Try(x ExprID) ExprID {
	return c.B.Exprs.NewTry(c.span(), x)
}

func (c *Composer) IfExpr(cond ExprID, then, els StmtID) ExprID {
	return c.B.Exprs.NewIf(c.span(), cond, then, els)
}

func (c *Composer) BlockExpr(block StmtID) ExprID {
	return c.B.Exprs.NewBlock(c.span(), block)
}

// --- statements

func (c *Composer) Let(name string, typ TypeID, value ExprID) StmtID {
	sp := c.span()
	return c.B.Stmts.NewLet(sp, LetStmt{Name: c.name(name), NameSpan: sp, Type: typ, Value: value})
}

func (c *Composer) Const(name string, typ TypeID, value ExprID) StmtID {
	sp := c.span()
	return c.B.Stmts.NewConst(sp, LetStmt{Name: c.name(name), NameSpan: sp, Type: typ, Value: value})
}

func (c *Composer) Do(e ExprID) StmtID {
	return c.B.Stmts.NewExpr(c.span(), e)
}

func (c *Composer) Return(e ExprID) StmtID {
	return c.B.Stmts.NewReturn(c.span(), e)
}

func (c *Composer) Block(stmts ...StmtID) StmtID {
	return c.B.Stmts.NewBlock(c.span(), stmts, NoExprID, false)
}

func (c *Composer) BlockTail(tail ExprID, stmts ...StmtID) StmtID {
	return c.B.Stmts.NewBlock(c.span(), stmts, tail, false)
}

func (c *Composer) UnsafeBlock(stmts ...StmtID) StmtID {
	return c.B.Stmts.NewBlock(c.span(), stmts, NoExprID, true)
}

func (c *Composer) If(cond ExprID, then, els StmtID) StmtID {
	return c.B.Stmts.NewIf(c.span(), cond, then, els)
}

func (c *Composer) While(cond ExprID, body StmtID) StmtID {
	return c.B.Stmts.NewWhile(c.span(), cond, body)
}

func (c *Composer) Loop(body StmtID) StmtID {
	return c.B.Stmts.NewLoop(c.span(), body)
}

func (c *Composer) Break() StmtID    { return c.B.Stmts.NewBreak(c.span()) }
func (c *Composer) Continue() StmtID { return c.B.Stmts.NewContinue(c.span()) }

// --- items

type FnSpec struct {
	Name     string
	Generics []TypeParam
	Self     SelfMode
	Params   []FnParam
	Result   TypeID
	Body     StmtID
	Unsafe   bool
}

func (c *Composer) Param(name string, typ TypeID, mode ParamMode) FnParam {
	return FnParam{Name: c.name(name), Span: c.span(), Type: typ, Mode: mode}
}

func (c *Composer) Generic(name string, bounds ...TypeID) TypeParam {
	return TypeParam{Name: c.name(name), Span: c.span(), Bounds: bounds}
}

// FnDecl allocates a function item without attaching it to the file; used
// for methods and trait signatures.
func (c *Composer) FnDecl(spec FnSpec) ItemID {
	var flags FnFlags
	if spec.Unsafe {
		flags |= FnUnsafe
	}
	sp := c.span()
	return c.B.Items.NewFn(sp, FnItem{
		Name:     c.name(spec.Name),
		NameSpan: sp,
		Generics: spec.Generics,
		Self:     spec.Self,
		SelfSpan: sp,
		Params:   spec.Params,
		Result:   spec.Result,
		Body:     spec.Body,
		Flags:    flags,
	})
}

// Fn declares a top-level function.
func (c *Composer) Fn(spec FnSpec) ItemID {
	id := c.FnDecl(spec)
	c.B.PushItem(c.File, id)
	return id
}

func (c *Composer) FieldD(name string, typ TypeID) FieldDecl {
	return FieldDecl{Name: c.name(name), Span: c.span(), Type: typ}
}

func (c *Composer) VariantD(name string, payload ...TypeID) VariantDecl {
	return VariantDecl{Name: c.name(name), Span: c.span(), Payload: payload}
}

func (c *Composer) TypeDecl(decl TypeItem) ItemID {
	sp := c.span()
	if decl.NameSpan == (source.Span{}) {
		decl.NameSpan = sp
	}
	id := c.B.Items.NewType(sp, decl)
	c.B.PushItem(c.File, id)
	return id
}

func (c *Composer) Struct(name string, flags TypeFlags, fields ...FieldDecl) ItemID {
	return c.TypeDecl(TypeItem{Name: c.name(name), Kind: TypeDeclStruct, Fields: fields, Flags: flags})
}

func (c *Composer) Enum(name string, variants ...VariantDecl) ItemID {
	return c.TypeDecl(TypeItem{Name: c.name(name), Kind: TypeDeclEnum, Variants: variants})
}

func (c *Composer) Union(name string, members ...TypeID) ItemID {
	return c.TypeDecl(TypeItem{Name: c.name(name), Kind: TypeDeclUnion, Members: members})
}

func (c *Composer) Trait(name string, methods ...ItemID) ItemID {
	return c.TypeDecl(TypeItem{Name: c.name(name), Kind: TypeDeclTrait, Methods: methods})
}

// Impl attaches methods to target; trait is NoTypeID for inherent impls.
func (c *Composer) Impl(trait, target TypeID, methods ...ItemID) ItemID {
	id := c.B.Items.NewImpl(c.span(), ImplItem{Trait: trait, Target: target, Methods: methods})
	c.B.PushItem(c.File, id)
	return id
}
