package sema

import (
	"fmt"

	"corecheck/internal/ast"
	"corecheck/internal/types"
)

// ImplementsTrait checks that concrete structurally satisfies trait: every
// trait method must exist with a compatible receiver, compatible parameter
// modes and unifying parameter and result types. An empty result means the
// type conforms.
func ImplementsTrait(table *types.Table, concrete types.TypeID, trait types.DefID) []*TraitError {
	return implementsTrait(table, concrete, trait, nil)
}

func implementsTrait(table *types.Table, concrete types.TypeID, traitID types.DefID, bounds map[string][]types.DefID) []*TraitError {
	trait := table.Lookup(traitID)
	if trait == nil || trait.Kind != types.DefTrait {
		return []*TraitError{{
			Kind:    UnknownTrait,
			Type:    concrete,
			Message: fmt.Sprintf("definition %d is not a trait", traitID),
		}}
	}
	var errs []*TraitError
	for i := range trait.Methods {
		tm := &trait.Methods[i]
		m, bind, ok := lookupMethod(table, concrete, tm.Name, bounds)
		if !ok {
			errs = append(errs, &TraitError{
				Kind:    MissingMethod,
				Span:    tm.Span,
				Type:    concrete,
				Trait:   trait.Name,
				Method:  tm.Name,
				Message: fmt.Sprintf("`%s` is missing method `%s` required by trait `%s`", table.Label(concrete), tm.Name, trait.Name),
				Related: note(tm.Span, "required by this declaration"),
			})
			continue
		}
		if m == tm {
			// метод пришёл из границы того же трейта
			continue
		}
		if reason := compareMethod(table, concrete, tm, m, bind); reason != "" {
			errs = append(errs, &TraitError{
				Kind:    SignatureMismatch,
				Span:    m.Span,
				Type:    concrete,
				Trait:   trait.Name,
				Method:  tm.Name,
				Message: fmt.Sprintf("method `%s` of `%s` does not match trait `%s`: %s", tm.Name, table.Label(concrete), trait.Name, reason),
				Related: note(tm.Span, "trait declaration here"),
			})
		}
	}
	return errs
}

// Demand orders receiver and parameter modes by what they require from the
// caller. An implementation may demand less than the trait, never more.
func selfDemand(m ast.SelfMode) int {
	switch m {
	case ast.SelfMutate:
		return 1
	case ast.SelfTake:
		return 2
	}
	return 0
}

func paramDemand(m ast.ParamMode) int {
	switch m {
	case ast.ParamMutate:
		return 1
	case ast.ParamTake:
		return 2
	}
	return 0
}

func compareMethod(table *types.Table, concrete types.TypeID, tm, m *types.MethodSig, bind map[string]types.TypeID) string {
	if (tm.Self == ast.SelfNone) != (m.Self == ast.SelfNone) {
		return fmt.Sprintf("receiver is `%s`, the trait declares `%s`", m.Self, tm.Self)
	}
	if selfDemand(m.Self) > selfDemand(tm.Self) {
		return fmt.Sprintf("receiver `%s` is narrower than `%s` declared by the trait", m.Self, tm.Self)
	}
	if len(m.Params) != len(tm.Params) {
		return fmt.Sprintf("expected %d parameter(s), found %d", len(tm.Params), len(m.Params))
	}
	for i := range tm.Params {
		if paramDemand(m.Params[i].Mode) > paramDemand(tm.Params[i].Mode) {
			return fmt.Sprintf("parameter `%s` is `%s`, narrower than `%s` declared by the trait",
				m.Params[i].Name, m.Params[i].Mode, tm.Params[i].Mode)
		}
	}

	in := table.In
	ic := NewInferenceContext(table)
	traitBind := map[string]types.TypeID{"Self": concrete}
	for _, g := range tm.Generics {
		traitBind[g.Name] = ic.Fresh()
	}
	implBind := make(map[string]types.TypeID, len(bind)+len(m.Generics))
	for k, v := range bind {
		implBind[k] = v
	}
	for _, g := range m.Generics {
		implBind[g.Name] = ic.Fresh()
	}
	for i := range tm.Params {
		want := in.Substitute(tm.Params[i].Type, traitBind)
		got := in.Substitute(m.Params[i].Type, implBind)
		if ic.unify(want, got) != nil {
			return fmt.Sprintf("parameter `%s` has type %s, expected %s", m.Params[i].Name, table.Label(ic.Apply(got)), table.Label(ic.Apply(want)))
		}
	}
	want := in.Substitute(tm.Result, traitBind)
	got := in.Substitute(m.Result, implBind)
	if ic.unify(want, got) != nil {
		return fmt.Sprintf("result type is %s, expected %s", table.Label(ic.Apply(got)), table.Label(ic.Apply(want)))
	}
	return ""
}

// checkImpls verifies every `impl Trait for Type` block.
func (c *checker) checkImpls() {
	for _, impl := range c.impls {
		if !impl.Trait.IsValid() {
			continue
		}
		for _, err := range implementsTrait(c.table, impl.Target, impl.Trait, nil) {
			if err.Kind == MissingMethod {
				err.Span = impl.Span
			}
			c.report(err)
		}
	}
}
