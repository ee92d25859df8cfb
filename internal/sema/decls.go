package sema

import (
	"errors"
	"fmt"

	"corecheck/internal/ast"
	"corecheck/internal/diag"
	"corecheck/internal/source"
	"corecheck/internal/symbols"
	"corecheck/internal/types"
)

// fnSig is the resolved signature of a function or method.
type fnSig struct {
	Item     ast.ItemID
	Name     string
	Span     source.Span
	Generics []types.TypeParam
	Self     ast.SelfMode
	SelfType types.TypeID
	Params   []types.Param
	Result   types.TypeID
	Unsafe   bool
	Builtin  bool
	Body     ast.StmtID
	// Owner is the impl target definition of a method.
	Owner types.DefID
	// Bounds lists every type parameter in scope (impl and fn) with its
	// trait bounds. They are rigid inside the body.
	Bounds map[string][]types.DefID
}

func (s *fnSig) paramTypes() []types.TypeID {
	out := make([]types.TypeID, len(s.Params))
	for i, p := range s.Params {
		out[i] = p.Type
	}
	return out
}

// implInfo is one collected impl block.
type implInfo struct {
	Item    ast.ItemID
	Span    source.Span
	Target  types.TypeID
	Def     types.DefID
	Trait   types.DefID
	Methods []ast.ItemID
}

// typeEnv is the lexical context for resolving type expressions.
type typeEnv struct {
	bounds map[string][]types.DefID
	self   types.TypeID
	// ic, when set, fills omitted generic arguments with fresh variables.
	ic *InferenceContext
}

func (e *typeEnv) with(params []types.TypeParam) *typeEnv {
	out := &typeEnv{self: e.self, ic: e.ic, bounds: make(map[string][]types.DefID, len(e.bounds)+len(params))}
	for name, b := range e.bounds {
		out.bounds[name] = b
	}
	for _, p := range params {
		out.bounds[p.Name] = p.Bounds
	}
	return out
}

func (e *typeEnv) hasGeneric(name string) bool {
	if e == nil {
		return false
	}
	_, ok := e.bounds[name]
	return ok
}

func (c *checker) str(id source.StringID) string {
	return c.b.Name(id)
}

func (c *checker) builtinSignatures() map[string]*fnSig {
	b := c.builtins
	tT := c.in.Generic("T")
	return map[string]*fnSig{
		symbols.BuiltinPrint: {
			Name:     symbols.BuiltinPrint,
			Generics: []types.TypeParam{{Name: "T"}},
			Params:   []types.Param{{Name: "value", Type: tT}},
			Result:   b.Unit,
			Builtin:  true,
		},
		symbols.BuiltinPanic: {
			Name:    symbols.BuiltinPanic,
			Params:  []types.Param{{Name: "msg", Type: b.String}},
			Result:  b.Never,
			Builtin: true,
		},
		symbols.BuiltinAssert: {
			Name:    symbols.BuiltinAssert,
			Params:  []types.Param{{Name: "cond", Type: b.Bool}},
			Result:  b.Unit,
			Builtin: true,
		},
	}
}

func (c *checker) declareTypes() {
	for _, id := range c.b.AllItems() {
		decl, ok := c.b.Items.Type(id)
		if !ok {
			continue
		}
		def := types.TypeDef{
			Name: c.str(decl.Name),
			Span: decl.NameSpan,
			Item: id,
		}
		switch decl.Kind {
		case ast.TypeDeclEnum:
			def.Kind = types.DefEnum
		case ast.TypeDeclUnion:
			def.Kind = types.DefUnion
		case ast.TypeDeclTrait:
			def.Kind = types.DefTrait
		default:
			def.Kind = types.DefStruct
		}
		if decl.Flags&ast.TypeResource != 0 {
			def.Flags |= types.DefResource
		}
		if decl.Flags&ast.TypeUnique != 0 {
			def.Flags |= types.DefUnique
		}
		for _, g := range decl.Generics {
			def.Generics = append(def.Generics, types.TypeParam{Name: c.str(g.Name)})
		}
		defID, err := c.table.Register(def)
		if err != nil {
			// дубликаты пользовательских имён уже сообщил резолвер
			if prev := c.table.Lookup(defID); prev.Is(types.DefBuiltin) {
				c.errs++
				diag.ReportError(c.reporter, diag.ResDuplicateType, decl.NameSpan,
					fmt.Sprintf("type `%s` shadows a builtin type", def.Name)).Emit()
			}
			continue
		}
		c.typeItems[id] = defID
	}
}

func (c *checker) collectSignatures() {
	items := c.b.AllItems()
	for _, id := range items {
		if defID, ok := c.typeItems[id]; ok {
			c.resolveTypeBody(id, defID)
		}
	}
	for _, id := range items {
		fn, ok := c.b.Items.Fn(id)
		if !ok {
			continue
		}
		sig := c.fnSignature(id, fn, &typeEnv{})
		c.sigs[id] = sig
		if fn.HasBody() {
			c.bodies = append(c.bodies, id)
		}
	}
	for _, id := range items {
		if impl, ok := c.b.Items.Impl(id); ok {
			c.collectImpl(id, impl)
		}
	}
}

func (c *checker) resolveBounds(params []ast.TypeParam, env *typeEnv) []types.TypeParam {
	out := make([]types.TypeParam, 0, len(params))
	for _, p := range params {
		tp := types.TypeParam{Name: c.str(p.Name)}
		for _, bound := range p.Bounds {
			if trait, ok := c.resolveTrait(bound); ok {
				tp.Bounds = append(tp.Bounds, trait)
			}
		}
		out = append(out, tp)
	}
	return out
}

// resolveTrait resolves a type expression naming a trait.
func (c *checker) resolveTrait(id ast.TypeID) (types.DefID, bool) {
	te := c.b.Types.Get(id)
	if te == nil {
		return types.NoDefID, false
	}
	name := c.str(te.Name)
	if te.Kind == ast.TypePath {
		if defID, ok := c.table.ResolveName(name); ok && c.table.Lookup(defID).Kind == types.DefTrait {
			return defID, true
		}
	}
	c.report(&TraitError{
		Kind:    UnknownTrait,
		Span:    te.Span,
		Trait:   name,
		Message: fmt.Sprintf("unknown trait `%s`", name),
	})
	return types.NoDefID, false
}

func (c *checker) resolveTypeBody(item ast.ItemID, defID types.DefID) {
	decl, _ := c.b.Items.Type(item)
	def := c.table.Lookup(defID)
	env := &typeEnv{}
	def.Generics = c.resolveBounds(decl.Generics, env)
	env = env.with(def.Generics)
	if def.Kind == types.DefTrait {
		env.self = c.in.Generic("Self")
	} else {
		args := make([]types.TypeID, len(def.Generics))
		for i, g := range def.Generics {
			args[i] = c.in.Generic(g.Name)
		}
		env.self = c.in.Named(defID, args)
	}

	for _, f := range decl.Fields {
		def.Fields = append(def.Fields, types.Field{Name: c.str(f.Name), Type: c.resolveType(f.Type, env), Span: f.Span})
	}
	for _, v := range decl.Variants {
		variant := types.Variant{Name: c.str(v.Name), Span: v.Span}
		for _, p := range v.Payload {
			variant.Payload = append(variant.Payload, c.resolveType(p, env))
		}
		def.Variants = append(def.Variants, variant)
	}
	for _, m := range decl.Members {
		def.Members = append(def.Members, c.resolveType(m, env))
	}
	for _, m := range decl.Methods {
		fn, ok := c.b.Items.Fn(m)
		if !ok {
			continue
		}
		sig := c.fnSignature(m, fn, env)
		c.addMethod(defID, sig, nil)
	}
}

func (c *checker) fnSignature(id ast.ItemID, fn *ast.FnItem, outer *typeEnv) *fnSig {
	sig := &fnSig{
		Item:   id,
		Name:   c.str(fn.Name),
		Span:   fn.NameSpan,
		Self:   fn.Self,
		Unsafe: fn.IsUnsafe(),
		Body:   fn.Body,
	}
	sig.Generics = c.resolveBounds(fn.Generics, outer)
	env := outer.with(sig.Generics)
	sig.Bounds = env.bounds
	if fn.Self != ast.SelfNone {
		if env.self.IsValid() {
			sig.SelfType = env.self
		} else {
			c.report(&TypeError{
				Kind:    UndefinedType,
				Span:    fn.SelfSpan,
				Message: fmt.Sprintf("function `%s` declares a receiver outside of an impl", sig.Name),
			})
			sig.SelfType = c.builtins.Error
		}
	}
	for _, p := range fn.Params {
		sig.Params = append(sig.Params, types.Param{
			Name: c.str(p.Name),
			Type: c.resolveType(p.Type, env),
			Mode: p.Mode,
		})
	}
	sig.Result = c.builtins.Unit
	if fn.Result.IsValid() {
		sig.Result = c.resolveType(fn.Result, env)
	}
	return sig
}

// addMethod records sig on def. rename maps impl-local generic names to the
// def's own parameter names.
func (c *checker) addMethod(defID types.DefID, sig *fnSig, rename map[string]types.TypeID) {
	m := types.MethodSig{
		Name:     sig.Name,
		Self:     sig.Self,
		Generics: sig.Generics,
		Result:   c.in.Substitute(sig.Result, rename),
		Span:     sig.Span,
		Item:     sig.Item,
	}
	if sig.Unsafe {
		m.Flags |= types.MethodUnsafe
	}
	for _, p := range sig.Params {
		p.Type = c.in.Substitute(p.Type, rename)
		m.Params = append(m.Params, p)
	}
	if err := c.table.AddMethod(defID, m); err != nil && errors.Is(err, types.ErrConflictingMethod) {
		def := c.table.Lookup(defID)
		prev, _ := def.Method(sig.Name)
		c.report(&TraitError{
			Kind:    ConflictingMethods,
			Span:    sig.Span,
			Type:    c.in.Named(defID, nil),
			Method:  sig.Name,
			Message: fmt.Sprintf("method `%s` is defined more than once for `%s`", sig.Name, def.Name),
			Related: note(prev.Span, "first definition here"),
		})
	}
}

func (c *checker) collectImpl(id ast.ItemID, impl *ast.ImplItem) {
	item := c.b.Items.Get(id)
	info := implInfo{Item: id, Span: item.Span, Methods: impl.Methods}
	env := (&typeEnv{}).with(c.resolveBounds(impl.Generics, &typeEnv{}))
	target := c.resolveType(impl.Target, env)
	def, named := c.table.DefOf(target)
	if def == nil || def.Kind == types.DefTrait {
		if c.in.KindOf(target) != types.KindError {
			c.report(&TypeError{
				Kind:    UndefinedType,
				Span:    c.typeSpan(impl.Target, item.Span),
				Message: fmt.Sprintf("cannot implement methods for `%s`", c.label(target)),
			})
		}
		return
	}
	info.Target = target
	info.Def = named.Def
	env.self = target

	rename := make(map[string]types.TypeID, len(named.Args))
	for i, arg := range named.Args {
		if name, ok := c.in.NameOf(arg); ok && i < len(def.Generics) && c.in.KindOf(arg) == types.KindGeneric {
			rename[name] = c.in.Generic(def.Generics[i].Name)
		}
	}
	for _, m := range impl.Methods {
		fn, ok := c.b.Items.Fn(m)
		if !ok {
			continue
		}
		sig := c.fnSignature(m, fn, env)
		sig.Owner = info.Def
		c.sigs[m] = sig
		if fn.HasBody() {
			c.bodies = append(c.bodies, m)
		}
		c.addMethod(info.Def, sig, rename)
	}
	if impl.Trait.IsValid() {
		if trait, ok := c.resolveTrait(impl.Trait); ok {
			info.Trait = trait
			c.table.AddTrait(info.Def, trait)
		}
	}
	c.impls = append(c.impls, info)
}

func (c *checker) primitive(name string) (types.TypeID, bool) {
	b := c.builtins
	switch name {
	case "i8":
		return b.Int8, true
	case "i16":
		return b.Int16, true
	case "i32":
		return b.Int32, true
	case "i64":
		return b.Int64, true
	case "u8":
		return b.Uint8, true
	case "u16":
		return b.Uint16, true
	case "u32":
		return b.Uint32, true
	case "u64":
		return b.Uint64, true
	case "f32":
		return b.Float32, true
	case "f64":
		return b.Float64, true
	case "bool":
		return b.Bool, true
	case "char":
		return b.Char, true
	case "String":
		return b.String, true
	case "never":
		return b.Never, true
	}
	return types.NoTypeID, false
}

// resolveType lowers a type expression. Unknown names are reported and
// become the error type.
func (c *checker) resolveType(id ast.TypeID, env *typeEnv) types.TypeID {
	te := c.b.Types.Get(id)
	if te == nil {
		return c.builtins.Unit
	}
	switch te.Kind {
	case ast.TypeTuple:
		return c.in.Tuple(c.resolveTypes(te.Args, env))
	case ast.TypeArray:
		return c.in.Array(c.resolveType(te.Elem, env), te.Len)
	case ast.TypeSlice:
		return c.in.Slice(c.resolveType(te.Elem, env))
	case ast.TypeFn:
		result := c.builtins.Unit
		if te.Result.IsValid() {
			result = c.resolveType(te.Result, env)
		}
		return c.in.Fn(c.resolveTypes(te.Args, env), result)
	}

	name := c.str(te.Name)
	args := c.resolveTypes(te.Args, env)
	if prim, ok := c.primitive(name); ok {
		if len(args) > 0 {
			return c.arityError(te.Span, name, 0, len(args))
		}
		return prim
	}
	switch {
	case name == "Self":
		if env != nil && env.self.IsValid() {
			return env.self
		}
		c.report(&TypeError{Kind: UndefinedType, Span: te.Span, Message: "`Self` is only available inside impls and traits"})
		return c.builtins.Error
	case env.hasGeneric(name):
		if len(args) > 0 {
			return c.arityError(te.Span, name, 0, len(args))
		}
		return c.in.Generic(name)
	case name == "Option":
		args = c.fillArgs(args, 1, env)
		if len(args) != 1 {
			return c.arityError(te.Span, name, 1, len(args))
		}
		return c.in.Option(args[0])
	case name == "Result":
		args = c.fillArgs(args, 2, env)
		if len(args) != 2 {
			return c.arityError(te.Span, name, 2, len(args))
		}
		return c.in.Result(args[0], args[1])
	}

	defID, ok := c.table.ResolveName(name)
	if !ok {
		c.report(&TypeError{Kind: UndefinedType, Span: te.Span, Message: fmt.Sprintf("cannot find type `%s`", name)})
		return c.builtins.Error
	}
	def := c.table.Lookup(defID)
	if def.Kind == types.DefTrait {
		c.report(&TypeError{Kind: UndefinedType, Span: te.Span, Message: fmt.Sprintf("trait `%s` cannot be used as a type", name)})
		return c.builtins.Error
	}
	args = c.fillArgs(args, len(def.Generics), env)
	if len(args) != len(def.Generics) {
		return c.arityError(te.Span, name, len(def.Generics), len(args))
	}
	return c.in.Named(defID, args)
}

// fillArgs supplies fresh variables for omitted generic arguments when an
// inference context is available.
func (c *checker) fillArgs(args []types.TypeID, want int, env *typeEnv) []types.TypeID {
	if len(args) != 0 || want == 0 || env == nil || env.ic == nil {
		return args
	}
	out := make([]types.TypeID, want)
	for i := range out {
		out[i] = env.ic.Fresh()
	}
	return out
}

func (c *checker) typeSpan(id ast.TypeID, fallback source.Span) source.Span {
	if te := c.b.Types.Get(id); te != nil {
		return te.Span
	}
	return fallback
}

func (c *checker) arityError(sp source.Span, name string, want, got int) types.TypeID {
	c.report(&TypeError{
		Kind:    ArityMismatch,
		Span:    sp,
		Message: fmt.Sprintf("type `%s` expects %d type argument(s), found %d", name, want, got),
	})
	return c.builtins.Error
}

func (c *checker) resolveTypes(ids []ast.TypeID, env *typeEnv) []types.TypeID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]types.TypeID, len(ids))
	for i, id := range ids {
		out[i] = c.resolveType(id, env)
	}
	return out
}
