package sema

import (
	"testing"

	"corecheck/internal/source"
	"corecheck/internal/types"
)

func newTestContext() (*InferenceContext, *types.Interner) {
	in := types.NewInterner()
	return NewInferenceContext(types.NewTable(in)), in
}

func TestUnifyOccursCheck(t *testing.T) {
	ic, in := newTestContext()
	v := ic.Fresh()
	err := ic.Unify(v, in.Fn(nil, v), source.Span{})
	if err == nil || err.Kind != InfiniteType {
		t.Fatalf("expected InfiniteType, got %v", err)
	}
}

func TestUnifyArrayLength(t *testing.T) {
	ic, in := newTestContext()
	i32 := in.Builtins().Int32
	err := ic.Unify(in.Array(i32, 3), in.Array(i32, 4), source.Span{})
	if err == nil || err.Kind != TypeMismatch {
		t.Fatalf("expected TypeMismatch, got %v", err)
	}
	if err := ic.Unify(in.Array(i32, 3), in.Array(i32, 3), source.Span{}); err != nil {
		t.Fatalf("equal arrays must unify: %v", err)
	}
}

func TestUnifyBindsThroughStructure(t *testing.T) {
	ic, in := newTestContext()
	b := in.Builtins()
	v := ic.Fresh()
	w := ic.Fresh()
	if err := ic.Unify(in.Result(v, b.String), in.Result(b.Bool, w), source.Span{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ic.Apply(v) != b.Bool || ic.Apply(w) != b.String {
		t.Fatalf("expected v=bool, w=String; got %v, %v", ic.Apply(v), ic.Apply(w))
	}
	if err := ic.Unify(in.Option(v), in.Option(b.Char), source.Span{}); err == nil {
		t.Fatalf("bound variable must not rebind")
	}
}

func TestIntegerVariableClass(t *testing.T) {
	ic, in := newTestContext()
	b := in.Builtins()

	lit := ic.FreshInt()
	if err := ic.Unify(lit, b.String, source.Span{}); err == nil || err.Kind != TypeMismatch {
		t.Fatalf("integer literal must not become String, got %v", err)
	}

	lit = ic.FreshInt()
	if err := ic.Unify(lit, b.Uint64, source.Span{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ic.Apply(lit) != b.Uint64 {
		t.Fatalf("expected u64")
	}

	def := ic.FreshInt()
	flt := ic.FreshFloat()
	ic.DefaultLiterals()
	if ic.Apply(def) != b.Int32 || ic.Apply(flt) != b.Float64 {
		t.Fatalf("literals must default to i32 and f64")
	}
}

func TestNeverAndErrorUnifyWithAnything(t *testing.T) {
	ic, in := newTestContext()
	b := in.Builtins()
	if err := ic.Unify(b.Never, b.String, source.Span{}); err != nil {
		t.Fatalf("never must unify: %v", err)
	}
	if err := ic.Unify(in.Tuple([]types.TypeID{b.Bool}), b.Error, source.Span{}); err != nil {
		t.Fatalf("error must unify: %v", err)
	}
	v := ic.Fresh()
	if err := ic.Unify(v, b.Never, source.Span{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.KindOf(ic.Apply(v)) != types.KindVar {
		t.Fatalf("a variable is never bound to never")
	}
}

func TestFinalizeReplacesLeftoverVars(t *testing.T) {
	ic, in := newTestContext()
	v := ic.Fresh()
	got := ic.Finalize(in.Option(v))
	if got != in.Option(in.Builtins().Error) {
		t.Fatalf("leftover variables must become {error}, got %v", got)
	}
}
