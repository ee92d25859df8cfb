package ast

import "corecheck/internal/source"

// ParamMode is how a callee receives an argument.
type ParamMode uint8

const (
	// ParamDefault: read-only borrow for the duration of the call.
	ParamDefault ParamMode = iota
	// ParamMutate: exclusive borrow for the duration of the call.
	ParamMutate
	// ParamTake: ownership moves into the callee.
	ParamTake
)

func (m ParamMode) String() string {
	switch m {
	case ParamMutate:
		return "mutate"
	case ParamTake:
		return "take"
	default:
		return "default"
	}
}

// SelfMode is the receiver kind of a method.
type SelfMode uint8

const (
	SelfNone SelfMode = iota
	SelfValue
	SelfMutate
	SelfTake
)

func (m SelfMode) String() string {
	switch m {
	case SelfValue:
		return "self"
	case SelfMutate:
		return "mutate self"
	case SelfTake:
		return "take self"
	default:
		return "no self"
	}
}

type FnFlags uint8

const (
	FnUnsafe FnFlags = 1 << iota
)

type FnParam struct {
	Name source.StringID
	Span source.Span
	Type TypeID
	Mode ParamMode
}

type TypeParam struct {
	Name   source.StringID
	Span   source.Span
	Bounds []TypeID
}

type FnItem struct {
	Name     source.StringID
	NameSpan source.Span
	Generics []TypeParam
	Self     SelfMode
	SelfSpan source.Span
	Params   []FnParam
	Result   TypeID // NoTypeID означает unit
	Body     StmtID // NoStmtID для сигнатур в trait
	Flags    FnFlags
}

func (fn *FnItem) IsUnsafe() bool {
	return fn != nil && fn.Flags&FnUnsafe != 0
}

func (fn *FnItem) HasBody() bool {
	return fn != nil && fn.Body.IsValid()
}
