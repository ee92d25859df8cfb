package sema

import (
	"fmt"
	"strconv"

	"corecheck/internal/ast"
	"corecheck/internal/source"
	"corecheck/internal/types"
)

func (fi *fnInfer) unify(expected, found types.TypeID, sp source.Span) {
	if err := fi.ic.Unify(expected, found, sp); err != nil {
		fi.errs = append(fi.errs, err)
	}
}

// assignResult binds a call's result variable. Unlike unify it accepts
// never, so diverging calls type as never.
func (fi *fnInfer) assignResult(r, t types.TypeID, sp source.Span) {
	if n, ok := fi.c.in.VarNumber(fi.ic.shallow(r)); ok && fi.kindOf(t) == types.KindNever {
		fi.ic.subst[n] = fi.c.builtins.Never
		return
	}
	fi.unify(r, t, sp)
}

// solve processes equalities in generation order, then resolves the
// member, call and try constraints as their receivers become known. A
// second round runs after literal defaulting; whatever is left cannot be
// inferred.
func (fi *fnInfer) solve() {
	var pending []*Constraint
	for i := range fi.cons {
		c := &fi.cons[i]
		if c.Kind == ConstraintEqual {
			fi.unify(c.Left, c.Right, c.Span)
			continue
		}
		pending = append(pending, c)
	}
	pending = fi.drain(pending, false)
	// литералы без ограничений становятся i32/f64
	fi.ic.DefaultLiterals()
	if len(pending) > 0 {
		pending = fi.drain(pending, true)
	}
	for _, c := range pending {
		fi.cannotInfer(c)
	}
}

// drain resolves constraints until a full pass makes no progress and
// returns the ones still blocked on an unknown receiver.
func (fi *fnInfer) drain(pending []*Constraint, force bool) []*Constraint {
	for progress := true; progress; {
		progress = false
		rest := pending[:0]
		for _, c := range pending {
			if fi.resolve(c, force) {
				progress = true
				continue
			}
			rest = append(rest, c)
		}
		pending = rest
	}
	return pending
}

func (fi *fnInfer) cannotInfer(c *Constraint) {
	switch c.Kind {
	case ConstraintHasField:
		fi.fail(CannotInfer, c.Span, "cannot infer the type of the value whose field `%s` is accessed; add a type annotation", c.Name)
	case ConstraintHasMethod:
		fi.fail(CannotInfer, c.Span, "cannot infer the type of the receiver of `%s`; add a type annotation", c.Name)
	default:
		fi.fail(CannotInfer, c.Span, "cannot infer the type of this expression")
	}
	fi.unify(c.Result, fi.c.builtins.Error, c.Span)
}

// resolve tries to discharge c; false means its receiver is still unknown.
func (fi *fnInfer) resolve(c *Constraint, force bool) bool {
	recv := fi.ic.shallow(fi.ic.Apply(c.Recv))
	kind := fi.c.in.KindOf(recv)
	if kind == types.KindVar {
		if c.Kind == ConstraintTry && force {
			fi.forceTry(c, recv)
			return true
		}
		return false
	}
	if kind == types.KindError || kind == types.KindNever {
		fi.unify(c.Result, fi.c.builtins.Error, c.Span)
		return true
	}
	switch c.Kind {
	case ConstraintCall:
		fi.resolveCall(c, recv)
	case ConstraintHasField:
		fi.resolveField(c, recv)
	case ConstraintHasMethod:
		fi.resolveMethod(c, recv)
	case ConstraintTry:
		fi.resolveTry(c, recv)
	}
	return true
}

func (fi *fnInfer) resolveCall(c *Constraint, callee types.TypeID) {
	errT := fi.c.builtins.Error
	info, ok := fi.c.in.FnInfo(callee)
	if !ok {
		fi.fail(NotCallable, c.Span, "expected a function, found %s", fi.c.label(callee))
		fi.unify(c.Result, errT, c.Span)
		return
	}
	if len(info.Params) != len(c.Args) {
		fi.fail(ArityMismatch, c.Span, "this function takes %d argument(s) but %d were supplied", len(info.Params), len(c.Args))
		fi.unify(c.Result, errT, c.Span)
		return
	}
	for i, p := range info.Params {
		fi.unify(p, c.Args[i], c.ArgSpans[i])
	}
	fi.assignResult(c.Result, info.Result, c.Span)
}

func (fi *fnInfer) resolveField(c *Constraint, recv types.TypeID) {
	in := fi.c.in
	switch in.KindOf(recv) {
	case types.KindTuple:
		elems, _ := in.TupleElems(recv)
		if i, err := strconv.Atoi(c.Name); err == nil && i >= 0 && i < len(elems) {
			fi.unify(c.Result, elems[i], c.Span)
			return
		}
	case types.KindNamed:
		def, info := fi.c.table.DefOf(recv)
		if f, ok := def.Field(c.Name); ok {
			fi.unify(c.Result, in.Substitute(f.Type, def.GenericArgs(info.Args)), c.Span)
			return
		}
	}
	fi.fail(NoSuchField, c.Span, "no field `%s` on type `%s`", c.Name, fi.c.label(recv))
	fi.unify(c.Result, fi.c.builtins.Error, c.Span)
}

// lookupMethod finds name in the method set of recv. Type parameters
// consult the methods of their trait bounds.
func lookupMethod(table *types.Table, recv types.TypeID, name string, bounds map[string][]types.DefID) (*types.MethodSig, map[string]types.TypeID, bool) {
	if table.In.KindOf(recv) == types.KindGeneric {
		gname, _ := table.In.NameOf(recv)
		for _, trait := range bounds[gname] {
			if m, ok := table.Lookup(trait).Method(name); ok {
				return m, map[string]types.TypeID{"Self": recv}, true
			}
		}
		return nil, nil, false
	}
	methods, args, ok := table.MethodSet(recv)
	if !ok {
		return nil, nil, false
	}
	for i := range methods {
		if methods[i].Name != name {
			continue
		}
		bind := make(map[string]types.TypeID, len(args)+1)
		for k, v := range args {
			bind[k] = v
		}
		bind["Self"] = recv
		return &methods[i], bind, true
	}
	return nil, nil, false
}

func (fi *fnInfer) resolveMethod(c *Constraint, recv types.TypeID) {
	ch := fi.c
	in := ch.in
	m, bind, ok := lookupMethod(ch.table, recv, c.Name, fi.sig.Bounds)
	if !ok {
		if c.Index {
			fi.fail(NoSuchMethod, c.Span, "cannot index into a value of type `%s`", ch.label(recv))
		} else {
			fi.fail(NoSuchMethod, c.Span, "no method named `%s` found for `%s`", c.Name, ch.label(recv))
		}
		fi.unify(c.Result, ch.builtins.Error, c.Span)
		return
	}
	if m.Self == ast.SelfNone {
		fi.fail(NoSuchMethod, c.Span, "`%s` is an associated function of `%s`, not a method", c.Name, ch.label(recv))
		fi.unify(c.Result, ch.builtins.Error, c.Span)
		return
	}
	if m.IsUnsafe() && !c.Unsafe {
		fi.fail(UnsafeRequired, c.Span, "method `%s` is unsafe and requires an unsafe block or function", c.Name)
	}
	if len(m.Generics) > 0 {
		site := &genericSite{Expr: c.Expr, Span: c.Span, Callee: c.Name, Params: m.Generics}
		for _, g := range m.Generics {
			v := fi.ic.Fresh()
			bind[g.Name] = v
			site.Args = append(site.Args, v)
		}
		fi.sites = append(fi.sites, site)
	}
	ch.calls[c.Expr] = &callTarget{
		Name:   c.Name,
		Self:   m.Self,
		Modes:  paramModes(m.Params),
		View:   m.IsView(),
		Result: m.Result,
	}
	if len(m.Params) != len(c.Args) {
		fi.fail(ArityMismatch, c.Span, "method `%s` takes %d argument(s) but %d were supplied", c.Name, len(m.Params), len(c.Args))
		fi.unify(c.Result, ch.builtins.Error, c.Span)
		return
	}
	for i, p := range m.Params {
		fi.unify(in.Substitute(p.Type, bind), c.Args[i], c.ArgSpans[i])
	}
	fi.assignResult(c.Result, in.Substitute(m.Result, bind), c.Span)
}

func (fi *fnInfer) resolveTry(c *Constraint, operand types.TypeID) {
	in := fi.c.in
	ret := fi.sig.Result
	retT, _ := in.Lookup(ret)
	opT, _ := in.Lookup(operand)
	if opT.Kind != types.KindOption && opT.Kind != types.KindResult {
		fi.fail(TryOnNonResult, c.Span, "the `?` operator applies to Option or Result, found `%s`", fi.c.label(operand))
		fi.unify(c.Result, fi.c.builtins.Error, c.Span)
		return
	}
	if opT.Kind != retT.Kind {
		fi.fail(TryOnNonResult, c.Span, "the `?` operator on `%s` cannot propagate out of a function returning `%s`",
			fi.c.label(operand), fi.c.label(ret))
		fi.unify(c.Result, fi.c.builtins.Error, c.Span)
		return
	}
	if opT.Kind == types.KindResult {
		fi.unify(retT.ResultErr(), opT.ResultErr(), c.Span)
	}
	fi.unify(c.Result, opT.Elem, c.Span)
}

// forceTry shapes an unknown operand after the function's return family.
func (fi *fnInfer) forceTry(c *Constraint, operand types.TypeID) {
	in := fi.c.in
	retT, _ := in.Lookup(fi.sig.Result)
	var shape types.TypeID
	if retT.Kind == types.KindResult {
		shape = in.Result(c.Result, retT.ResultErr())
	} else {
		shape = in.Option(c.Result)
	}
	fi.unify(shape, operand, c.Span)
}

// finish applies the final substitution, runs the deferred operand and
// binding checks and records generic call sites.
func (fi *fnInfer) finish() *FunctionTypes {
	c := fi.c
	in := c.in
	for _, op := range fi.operands {
		t := fi.ic.Finalize(op.Type)
		tt, _ := in.Lookup(t)
		switch {
		case tt.Kind.IsNumeric(), tt.Kind == types.KindError, tt.Kind == types.KindNever:
		case op.AllowString && tt.Kind == types.KindString:
		default:
			fi.fail(InvalidOperands, op.Span, "cannot apply `%s` to a value of type `%s`", op.Op, c.label(t))
		}
	}
	for _, l := range fi.lets {
		if t := fi.ic.Apply(fi.bindings[l.Sym]); in.HasVars(t) {
			fi.fail(CannotInfer, l.Span, "cannot infer the type of `%s`; add a type annotation", l.Name)
		}
	}

	out := &FunctionTypes{
		Item:         fi.sig.Item,
		Signature:    in.Fn(fi.sig.paramTypes(), fi.sig.Result),
		ExprTypes:    make(map[ast.ExprID]types.TypeID, len(fi.exprs)),
		Substitution: fi.ic.Substitution(),
	}
	for id, t := range fi.exprs {
		out.ExprTypes[id] = fi.ic.Finalize(t)
	}
	for sym, t := range fi.bindings {
		c.prog.BindingTypes[sym] = fi.ic.Finalize(t)
	}
	for _, site := range fi.sites {
		args := make([]types.TypeID, len(site.Args))
		for i, a := range site.Args {
			args[i] = fi.ic.Finalize(a)
		}
		c.prog.GenericCalls[site.Expr] = args
		fi.checkBounds(site, args)
	}
	return out
}

func (fi *fnInfer) checkBounds(site *genericSite, args []types.TypeID) {
	c := fi.c
	for i, p := range site.Params {
		if i >= len(args) || c.in.KindOf(args[i]) == types.KindError {
			continue
		}
		for _, trait := range p.Bounds {
			errs := implementsTrait(c.table, args[i], trait, fi.sig.Bounds)
			if len(errs) == 0 {
				continue
			}
			traitName := c.table.Lookup(trait).Name
			fi.errs = append(fi.errs, &TraitError{
				Kind:    BoundUnsatisfied,
				Span:    site.Span,
				Type:    args[i],
				Trait:   traitName,
				Message: fmt.Sprintf("`%s` does not satisfy the bound `%s: %s` of `%s`", c.label(args[i]), p.Name, traitName, site.Callee),
				Related: note(errs[0].Span, errs[0].Message),
			})
		}
	}
}
