package types

// Rewrite rebuilds id bottom-up. visit may replace a node outright by
// returning (replacement, true); otherwise its children are rewritten and the
// node re-interned only when something changed.
func (in *Interner) Rewrite(id TypeID, visit func(TypeID, Type) (TypeID, bool)) TypeID {
	tt, ok := in.Lookup(id)
	if !ok {
		return id
	}
	if repl, done := visit(id, tt); done {
		return repl
	}
	switch tt.Kind {
	case KindArray:
		if e := in.Rewrite(tt.Elem, visit); e != tt.Elem {
			return in.Array(e, tt.Count)
		}
	case KindSlice:
		if e := in.Rewrite(tt.Elem, visit); e != tt.Elem {
			return in.Slice(e)
		}
	case KindOption:
		if e := in.Rewrite(tt.Elem, visit); e != tt.Elem {
			return in.Option(e)
		}
	case KindResult:
		okT := in.Rewrite(tt.Elem, visit)
		errT := in.Rewrite(tt.ResultErr(), visit)
		if okT != tt.Elem || errT != tt.ResultErr() {
			return in.Result(okT, errT)
		}
	case KindFn:
		info, _ := in.FnInfo(id)
		params, changed := in.rewriteList(info.Params, visit)
		result := in.Rewrite(info.Result, visit)
		if changed || result != info.Result {
			return in.Fn(params, result)
		}
	case KindTuple:
		elems, _ := in.TupleElems(id)
		if out, changed := in.rewriteList(elems, visit); changed {
			return in.Tuple(out)
		}
	case KindNamed:
		info, _ := in.NamedInfo(id)
		def := info.Def
		if out, changed := in.rewriteList(info.Args, visit); changed {
			return in.Named(def, out)
		}
	}
	return id
}

func (in *Interner) rewriteList(ids []TypeID, visit func(TypeID, Type) (TypeID, bool)) ([]TypeID, bool) {
	changed := false
	out := make([]TypeID, len(ids))
	for i, id := range ids {
		out[i] = in.Rewrite(id, visit)
		if out[i] != id {
			changed = true
		}
	}
	return out, changed
}

// Substitute replaces type parameters by name.
func (in *Interner) Substitute(id TypeID, args map[string]TypeID) TypeID {
	if len(args) == 0 {
		return id
	}
	return in.Rewrite(id, func(_ TypeID, tt Type) (TypeID, bool) {
		if tt.Kind != KindGeneric {
			return NoTypeID, false
		}
		if repl, ok := args[in.names[tt.Payload]]; ok {
			return repl, true
		}
		return NoTypeID, false
	})
}

// Contains reports whether pred holds for id or any of its components.
func (in *Interner) Contains(id TypeID, pred func(TypeID, Type) bool) bool {
	tt, ok := in.Lookup(id)
	if !ok {
		return false
	}
	if pred(id, tt) {
		return true
	}
	for _, child := range in.Children(id) {
		if in.Contains(child, pred) {
			return true
		}
	}
	return false
}

// HasVars reports whether id still mentions inference variables.
func (in *Interner) HasVars(id TypeID) bool {
	return in.Contains(id, func(_ TypeID, tt Type) bool { return tt.Kind == KindVar })
}
