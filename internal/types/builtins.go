package types

import "corecheck/internal/ast"

func param(name string, typ TypeID, mode ast.ParamMode) Param {
	return Param{Name: name, Type: typ, Mode: mode}
}

func method(name string, self ast.SelfMode, result TypeID, params ...Param) MethodSig {
	return MethodSig{Name: name, Self: self, Params: params, Result: result}
}

func view(m MethodSig) MethodSig {
	m.Flags |= MethodView
	return m
}

func unsafeMethod(m MethodSig) MethodSig {
	m.Flags |= MethodUnsafe
	return m
}

func (t *Table) registerPrelude() {
	in := t.In
	b := in.Builtins()
	tT, tK, tV, tE := in.Generic("T"), in.Generic("K"), in.Generic("V"), in.Generic("E")
	i32 := b.Int32

	// общие методы чтения для последовательностей
	seq := func(elem TypeID) []MethodSig {
		return []MethodSig{
			method("len", ast.SelfValue, i32),
			method("is_empty", ast.SelfValue, b.Bool),
			method("index", ast.SelfValue, elem, param("i", i32, ast.ParamDefault)),
			method("get", ast.SelfValue, in.Option(elem), param("i", i32, ast.ParamDefault)),
			unsafeMethod(method("get_unchecked", ast.SelfValue, elem, param("i", i32, ast.ParamDefault))),
		}
	}

	t.builtin[KindString] = []MethodSig{
		method("len", ast.SelfValue, i32),
		method("is_empty", ast.SelfValue, b.Bool),
		method("push_str", ast.SelfMutate, b.Unit, param("s", b.String, ast.ParamDefault)),
		method("clear", ast.SelfMutate, b.Unit),
		method("clone", ast.SelfValue, b.String),
	}
	t.builtin[KindSlice] = seq(tT)
	t.builtin[KindArray] = append(seq(tT),
		view(method("slice_view", ast.SelfValue, in.Slice(tT), param("from", i32, ast.ParamDefault))),
	)
	t.builtin[KindOption] = []MethodSig{
		method("is_some", ast.SelfValue, b.Bool),
		method("is_none", ast.SelfValue, b.Bool),
		method("unwrap", ast.SelfTake, tT),
		method("unwrap_or", ast.SelfTake, tT, param("fallback", tT, ast.ParamTake)),
		method("expect", ast.SelfTake, tT, param("msg", b.String, ast.ParamDefault)),
	}
	t.builtin[KindResult] = []MethodSig{
		method("is_ok", ast.SelfValue, b.Bool),
		method("is_err", ast.SelfValue, b.Bool),
		method("unwrap", ast.SelfTake, tT),
		method("unwrap_err", ast.SelfTake, tE),
		method("ok", ast.SelfTake, in.Option(tT)),
	}

	growable := DefGrowable | DefBuiltin
	arrayMethods := append(seq(tT),
		method("push", ast.SelfMutate, b.Unit, param("value", tT, ast.ParamTake)),
		method("pop", ast.SelfMutate, in.Option(tT)),
		method("clear", ast.SelfMutate, b.Unit),
		view(method("slice_view", ast.SelfValue, in.Slice(tT), param("from", i32, ast.ParamDefault))),
	)
	t.Prelude.Array = t.mustRegister(TypeDef{
		Name:     "Array",
		Kind:     DefStruct,
		Generics: []TypeParam{{Name: "T"}},
		Methods:  arrayMethods,
		Flags:    growable,
	})
	t.Prelude.Map = t.mustRegister(TypeDef{
		Name:     "Map",
		Kind:     DefStruct,
		Generics: []TypeParam{{Name: "K"}, {Name: "V"}},
		Methods: []MethodSig{
			method("len", ast.SelfValue, i32),
			method("is_empty", ast.SelfValue, b.Bool),
			method("insert", ast.SelfMutate, in.Option(tV), param("key", tK, ast.ParamTake), param("value", tV, ast.ParamTake)),
			method("get", ast.SelfValue, in.Option(tV), param("key", tK, ast.ParamDefault)),
			method("index", ast.SelfValue, tV, param("key", tK, ast.ParamDefault)),
			method("contains", ast.SelfValue, b.Bool, param("key", tK, ast.ParamDefault)),
			method("remove", ast.SelfMutate, in.Option(tV), param("key", tK, ast.ParamDefault)),
			method("clear", ast.SelfMutate, b.Unit),
		},
		Flags: growable,
	})
	t.Prelude.Pool = t.mustRegister(TypeDef{
		Name:     "Pool",
		Kind:     DefStruct,
		Generics: []TypeParam{{Name: "T"}},
		Methods: []MethodSig{
			method("len", ast.SelfValue, i32),
			method("acquire", ast.SelfMutate, in.Option(tT)),
			method("release", ast.SelfMutate, b.Unit, param("value", tT, ast.ParamTake)),
			method("clear", ast.SelfMutate, b.Unit),
		},
		Flags: growable,
	})
}

func (t *Table) mustRegister(def TypeDef) DefID {
	id, err := t.Register(def)
	if err != nil {
		panic(err)
	}
	return id
}
