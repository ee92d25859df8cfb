package ast

import "corecheck/internal/source"

type ExprKind uint8

const (
	ExprIdent ExprKind = iota
	ExprLit
	ExprBinary
	ExprUnary
	ExprCall
	ExprMethodCall
	ExprMember
	ExprTupleIndex
	ExprIndex
	ExprTuple
	ExprArray
	ExprStruct
	ExprVariant
	ExprCtor
	ExprTry
	ExprIf
	ExprBlock
)

type Expr struct {
	Kind    ExprKind
	Span    source.Span
	Payload PayloadID
}

type ExprLitKind uint8

const (
	ExprLitInt ExprLitKind = iota
	ExprLitFloat
	ExprLitString
	ExprLitChar
	ExprLitTrue
	ExprLitFalse
	ExprLitUnit
)

type ExprBinaryOp uint8

const (
	ExprBinaryAdd ExprBinaryOp = iota
	ExprBinarySub
	ExprBinaryMul
	ExprBinaryDiv
	ExprBinaryMod
	ExprBinaryEq
	ExprBinaryNotEq
	ExprBinaryLess
	ExprBinaryLessEq
	ExprBinaryGreater
	ExprBinaryGreaterEq
	ExprBinaryLogicalAnd
	ExprBinaryLogicalOr
	ExprBinaryAssign
	ExprBinaryAddAssign
	ExprBinarySubAssign
	ExprBinaryMulAssign
	ExprBinaryDivAssign
)

func (op ExprBinaryOp) String() string {
	switch op {
	case ExprBinaryAdd:
		return "+"
	case ExprBinarySub:
		return "-"
	case ExprBinaryMul:
		return "*"
	case ExprBinaryDiv:
		return "/"
	case ExprBinaryMod:
		return "%"
	case ExprBinaryEq:
		return "=="
	case ExprBinaryNotEq:
		return "!="
	case ExprBinaryLess:
		return "<"
	case ExprBinaryLessEq:
		return "<="
	case ExprBinaryGreater:
		return ">"
	case ExprBinaryGreaterEq:
		return ">="
	case ExprBinaryLogicalAnd:
		return "&&"
	case ExprBinaryLogicalOr:
		return "||"
	case ExprBinaryAssign:
		return "="
	case ExprBinaryAddAssign:
		return "+="
	case ExprBinarySubAssign:
		return "-="
	case ExprBinaryMulAssign:
		return "*="
	case ExprBinaryDivAssign:
		return "/="
	}
	return "?"
}

// IsAssign reports plain and compound assignment.
func (op ExprBinaryOp) IsAssign() bool {
	return op >= ExprBinaryAssign
}

// IsArith reports the arithmetic operators including their compound forms.
func (op ExprBinaryOp) IsArith() bool {
	return op <= ExprBinaryMod || (op > ExprBinaryAssign && op <= ExprBinaryDivAssign)
}

func (op ExprBinaryOp) IsComparison() bool {
	return op >= ExprBinaryEq && op <= ExprBinaryGreaterEq
}

func (op ExprBinaryOp) IsLogical() bool {
	return op == ExprBinaryLogicalAnd || op == ExprBinaryLogicalOr
}

type ExprUnaryOp uint8

const (
	ExprUnaryMinus ExprUnaryOp = iota
	ExprUnaryNot
	ExprUnaryRef
	ExprUnaryRefMut
)

func (op ExprUnaryOp) String() string {
	switch op {
	case ExprUnaryMinus:
		return "-"
	case ExprUnaryNot:
		return "!"
	case ExprUnaryRef:
		return "&"
	case ExprUnaryRefMut:
		return "&mut"
	}
	return "?"
}

type CtorKind uint8

const (
	CtorSome CtorKind = iota
	CtorNone
	CtorOk
	CtorErr
)

func (c CtorKind) String() string {
	switch c {
	case CtorSome:
		return "Some"
	case CtorNone:
		return "None"
	case CtorOk:
		return "Ok"
	default:
		return "Err"
	}
}

type ExprIdentData struct {
	Name source.StringID
}

type ExprLiteralData struct {
	Kind  ExprLitKind
	Value source.StringID
}

type ExprBinaryData struct {
	Op    ExprBinaryOp
	Left  ExprID
	Right ExprID
}

type ExprUnaryData struct {
	Op      ExprUnaryOp
	Operand ExprID
}

type ExprCallData struct {
	Callee ExprID
	Args   []ExprID
}

type ExprMethodCallData struct {
	Receiver ExprID
	Name     source.StringID
	NameSpan source.Span
	Args     []ExprID
}

type ExprMemberData struct {
	Target    ExprID
	Field     source.StringID
	FieldSpan source.Span
}

type ExprTupleIndexData struct {
	Target ExprID
	Index  uint32
}

type ExprIndexData struct {
	Target ExprID
	Index  ExprID
}

// ExprListData backs tuple and array literals.
type ExprListData struct {
	Elems []ExprID
}

type StructFieldInit struct {
	Name  source.StringID
	Span  source.Span
	Value ExprID
}

type ExprStructData struct {
	Type   TypeID
	Fields []StructFieldInit
}

type ExprVariantData struct {
	Type    TypeID
	Variant source.StringID
	Args    []ExprID
}

type ExprCtorData struct {
	Ctor  CtorKind
	Value ExprID // NoExprID для None
}

type ExprTryData struct {
	Operand ExprID
}

type ExprIfData struct {
	Cond ExprID
	Then StmtID
	Else StmtID
}

type ExprBlockData struct {
	Block StmtID
}
