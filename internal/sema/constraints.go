package sema

import (
	"corecheck/internal/ast"
	"corecheck/internal/source"
	"corecheck/internal/types"
)

// ConstraintKind classifies an obligation produced while walking a body.
type ConstraintKind uint8

const (
	// ConstraintEqual: Left (expected) and Right (found) must unify.
	ConstraintEqual ConstraintKind = iota
	// ConstraintHasField: Recv has field Name of type Result.
	ConstraintHasField
	// ConstraintHasMethod: Recv has method Name accepting Args, returning Result.
	ConstraintHasMethod
	// ConstraintCall: Recv is callable with Args, returning Result.
	ConstraintCall
	// ConstraintTry: Recv is Option or Result compatible with the function's return.
	ConstraintTry
)

func (k ConstraintKind) String() string {
	switch k {
	case ConstraintEqual:
		return "equal"
	case ConstraintHasField:
		return "has_field"
	case ConstraintHasMethod:
		return "has_method"
	case ConstraintCall:
		return "call"
	case ConstraintTry:
		return "try"
	}
	return "constraint"
}

// Constraint is one obligation for the solver.
type Constraint struct {
	Kind     ConstraintKind
	Left     types.TypeID
	Right    types.TypeID
	Recv     types.TypeID
	Name     string
	Args     []types.TypeID
	ArgSpans []source.Span
	Result   types.TypeID
	Expr     ast.ExprID
	Span     source.Span
	// Index marks HasMethod constraints produced by `a[i]`.
	Index bool
	// Unsafe records whether the site is inside an unsafe context.
	Unsafe bool
}

// callTarget is what ownership analysis needs to know about a resolved call.
type callTarget struct {
	Name    string
	Self    ast.SelfMode
	Modes   []ast.ParamMode
	View    bool
	Result  types.TypeID
	Builtin bool
}

func (t *callTarget) mode(i int) ast.ParamMode {
	if t == nil || i >= len(t.Modes) {
		return ast.ParamDefault
	}
	return t.Modes[i]
}

func paramModes(params []types.Param) []ast.ParamMode {
	out := make([]ast.ParamMode, len(params))
	for i, p := range params {
		out[i] = p.Mode
	}
	return out
}

// genericSite is a call whose callee was instantiated with fresh variables.
type genericSite struct {
	Expr   ast.ExprID
	Span   source.Span
	Callee string
	Params []types.TypeParam
	Args   []types.TypeID
}

// operandCheck is a deferred check that an operator applies to its operand.
type operandCheck struct {
	Type        types.TypeID
	Op          string
	Span        source.Span
	AllowString bool
}
