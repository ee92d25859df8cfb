package sema

import (
	"errors"
	"fmt"

	"corecheck/internal/source"
	"corecheck/internal/types"
)

// VarClass restricts what an inference variable may be bound to.
type VarClass uint8

const (
	VarGeneral VarClass = iota
	// VarInt comes from an integer literal; defaults to i32.
	VarInt
	// VarFloat comes from a float literal; defaults to f64.
	VarFloat
)

var (
	errMismatch = errors.New("type mismatch")
	errInfinite = errors.New("infinite type")
)

// InferenceContext owns the substitution of one function. It is never shared
// between functions or goroutines.
type InferenceContext struct {
	table *types.Table
	in    *types.Interner
	next  uint32
	subst map[uint32]types.TypeID
	class map[uint32]VarClass
}

func NewInferenceContext(table *types.Table) *InferenceContext {
	return &InferenceContext{
		table: table,
		in:    table.In,
		subst: make(map[uint32]types.TypeID, 32),
		class: make(map[uint32]VarClass, 8),
	}
}

// Fresh allocates an unconstrained variable.
func (ic *InferenceContext) Fresh() types.TypeID {
	return ic.fresh(VarGeneral)
}

// FreshInt allocates a variable that only accepts integer types.
func (ic *InferenceContext) FreshInt() types.TypeID {
	return ic.fresh(VarInt)
}

// FreshFloat allocates a variable that only accepts float types.
func (ic *InferenceContext) FreshFloat() types.TypeID {
	return ic.fresh(VarFloat)
}

func (ic *InferenceContext) fresh(cls VarClass) types.TypeID {
	ic.next++
	if cls != VarGeneral {
		ic.class[ic.next] = cls
	}
	return ic.in.Var(ic.next)
}

// Vars returns the number of variables allocated so far.
func (ic *InferenceContext) Vars() int {
	return int(ic.next)
}

// ClassOf reports the literal class of an unbound variable.
func (ic *InferenceContext) ClassOf(id types.TypeID) VarClass {
	n, ok := ic.in.VarNumber(ic.shallow(id))
	if !ok {
		return VarGeneral
	}
	return ic.class[n]
}

// shallow follows variable bindings at the top level only.
func (ic *InferenceContext) shallow(id types.TypeID) types.TypeID {
	for {
		n, ok := ic.in.VarNumber(id)
		if !ok {
			return id
		}
		next, bound := ic.subst[n]
		if !bound {
			return id
		}
		id = next
	}
}

// Apply resolves every bound variable inside id.
func (ic *InferenceContext) Apply(id types.TypeID) types.TypeID {
	return ic.in.Rewrite(id, func(cur types.TypeID, tt types.Type) (types.TypeID, bool) {
		if tt.Kind != types.KindVar {
			return types.NoTypeID, false
		}
		if next, bound := ic.subst[tt.Payload]; bound {
			return ic.Apply(next), true
		}
		return cur, true
	})
}

// Unify makes a and b equal. On failure it returns a TypeError whose
// expected side is a.
func (ic *InferenceContext) Unify(a, b types.TypeID, sp source.Span) *TypeError {
	err := ic.unify(a, b)
	if err == nil {
		return nil
	}
	exp, found := ic.Apply(a), ic.Apply(b)
	if errors.Is(err, errInfinite) {
		return &TypeError{
			Kind:     InfiniteType,
			Span:     sp,
			Expected: exp,
			Found:    found,
			Message:  fmt.Sprintf("infinite type: %s occurs inside %s", ic.table.Label(exp), ic.table.Label(found)),
		}
	}
	return &TypeError{
		Kind:     TypeMismatch,
		Span:     sp,
		Expected: exp,
		Found:    found,
		Message:  fmt.Sprintf("mismatched types: expected %s, found %s", ic.describe(exp), ic.describe(found)),
	}
}

// describe labels t, naming literal classes instead of printing "?N".
func (ic *InferenceContext) describe(t types.TypeID) string {
	switch ic.ClassOf(t) {
	case VarInt:
		return "integer"
	case VarFloat:
		return "float"
	}
	return ic.table.Label(t)
}

func (ic *InferenceContext) unify(a, b types.TypeID) error {
	a, b = ic.shallow(a), ic.shallow(b)
	if a == b {
		return nil
	}
	ta, okA := ic.in.Lookup(a)
	tb, okB := ic.in.Lookup(b)
	if !okA || !okB {
		return nil
	}
	if ta.Kind == types.KindVar {
		return ic.bind(ta.Payload, b, tb)
	}
	if tb.Kind == types.KindVar {
		return ic.bind(tb.Payload, a, ta)
	}
	if ta.Kind == types.KindError || tb.Kind == types.KindError ||
		ta.Kind == types.KindNever || tb.Kind == types.KindNever {
		return nil
	}
	if ta.Kind != tb.Kind {
		return errMismatch
	}
	switch ta.Kind {
	case types.KindArray:
		if ta.Count != tb.Count {
			return errMismatch
		}
		return ic.unify(ta.Elem, tb.Elem)
	case types.KindSlice, types.KindOption:
		return ic.unify(ta.Elem, tb.Elem)
	case types.KindResult:
		if err := ic.unify(ta.Elem, tb.Elem); err != nil {
			return err
		}
		return ic.unify(ta.ResultErr(), tb.ResultErr())
	case types.KindTuple:
		ea, _ := ic.in.TupleElems(a)
		eb, _ := ic.in.TupleElems(b)
		return ic.unifyLists(ea, eb)
	case types.KindFn:
		fa, _ := ic.in.FnInfo(a)
		fb, _ := ic.in.FnInfo(b)
		if err := ic.unifyLists(fa.Params, fb.Params); err != nil {
			return err
		}
		return ic.unify(fa.Result, fb.Result)
	case types.KindNamed:
		na, _ := ic.in.NamedInfo(a)
		nb, _ := ic.in.NamedInfo(b)
		if na.Def != nb.Def {
			return errMismatch
		}
		return ic.unifyLists(na.Args, nb.Args)
	}
	// примитивы и generic-параметры равны только при совпадении TypeID
	return errMismatch
}

func (ic *InferenceContext) unifyLists(a, b []types.TypeID) error {
	if len(a) != len(b) {
		return errMismatch
	}
	for i := range a {
		if err := ic.unify(a[i], b[i]); err != nil {
			return err
		}
	}
	return nil
}

func (ic *InferenceContext) bind(n uint32, t types.TypeID, tt types.Type) error {
	cls := ic.class[n]
	switch tt.Kind {
	case types.KindVar:
		other := tt.Payload
		merged, ok := joinClass(cls, ic.class[other])
		if !ok {
			return errMismatch
		}
		ic.subst[n] = t
		if merged != VarGeneral {
			ic.class[other] = merged
		}
		return nil
	case types.KindNever:
		// never не фиксирует переменную: значение придёт из другой ветки
		return nil
	case types.KindError:
		ic.subst[n] = t
		return nil
	}
	switch cls {
	case VarInt:
		if !tt.Kind.IsIntegral() {
			return errMismatch
		}
	case VarFloat:
		if tt.Kind != types.KindFloat {
			return errMismatch
		}
	}
	if ic.occurs(n, t) {
		return errInfinite
	}
	ic.subst[n] = t
	return nil
}

func joinClass(a, b VarClass) (VarClass, bool) {
	switch {
	case a == b:
		return a, true
	case a == VarGeneral:
		return b, true
	case b == VarGeneral:
		return a, true
	}
	return VarGeneral, false
}

func (ic *InferenceContext) occurs(n uint32, t types.TypeID) bool {
	t = ic.shallow(t)
	if m, ok := ic.in.VarNumber(t); ok {
		return m == n
	}
	for _, child := range ic.in.Children(t) {
		if ic.occurs(n, child) {
			return true
		}
	}
	return false
}

// DefaultLiterals binds the still-free literal variables to i32 and f64.
func (ic *InferenceContext) DefaultLiterals() {
	b := ic.in.Builtins()
	for n, cls := range ic.class {
		if _, bound := ic.subst[n]; bound {
			continue
		}
		switch cls {
		case VarInt:
			ic.subst[n] = b.Int32
		case VarFloat:
			ic.subst[n] = b.Float64
		}
	}
}

// Finalize applies the substitution and replaces remaining variables with
// the error type.
func (ic *InferenceContext) Finalize(id types.TypeID) types.TypeID {
	errT := ic.in.Builtins().Error
	return ic.in.Rewrite(ic.Apply(id), func(_ types.TypeID, tt types.Type) (types.TypeID, bool) {
		if tt.Kind == types.KindVar {
			return errT, true
		}
		return types.NoTypeID, false
	})
}

// Substitution returns a copy of the resolved variable bindings.
func (ic *InferenceContext) Substitution() map[uint32]types.TypeID {
	out := make(map[uint32]types.TypeID, len(ic.subst))
	for n := range ic.subst {
		out[n] = ic.Apply(ic.in.Var(n))
	}
	return out
}
