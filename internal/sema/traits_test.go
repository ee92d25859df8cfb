package sema

import (
	"testing"

	"corecheck/internal/ast"
	"corecheck/internal/diag"
)

func sizedTrait(c *ast.Composer, result string) {
	c.Trait("Sized", c.FnDecl(ast.FnSpec{Name: "len", Self: ast.SelfValue, Result: c.T(result)}))
}

func TestImplMissingMethod(t *testing.T) {
	_, bag := checkUnit(t, func(c *ast.Composer) {
		showTrait(c)
		c.Struct("P", 0)
		c.Impl(c.T("Show"), c.T("P"))
	})
	codes := diagCodes(bag)
	if len(codes) != 1 || codes[0] != diag.TraitMissingMethod {
		t.Fatalf("expected one %v, got %v", diag.TraitMissingMethod, codes)
	}
}

func TestImplParameterModes(t *testing.T) {
	trait := func(c *ast.Composer, mode ast.ParamMode) {
		c.Trait("Feed", c.FnDecl(ast.FnSpec{
			Name:   "feed",
			Self:   ast.SelfMutate,
			Params: []ast.FnParam{c.Param("n", c.T("i32"), mode)},
		}))
	}
	impl := func(c *ast.Composer, mode ast.ParamMode) {
		c.Struct("P", 0)
		c.Impl(c.T("Feed"), c.T("P"), c.FnDecl(ast.FnSpec{
			Name:   "feed",
			Self:   ast.SelfMutate,
			Params: []ast.FnParam{c.Param("n", c.T("i32"), mode)},
			Body:   c.Block(),
		}))
	}

	_, bag := checkUnit(t, func(c *ast.Composer) {
		trait(c, ast.ParamDefault)
		impl(c, ast.ParamTake)
	})
	codes := diagCodes(bag)
	if len(codes) != 1 || codes[0] != diag.TraitSignatureMismatch {
		t.Fatalf("demanding more than the trait must fail, got %v", codes)
	}

	_, bag = checkUnit(t, func(c *ast.Composer) {
		trait(c, ast.ParamTake)
		impl(c, ast.ParamDefault)
	})
	if bag.Len() != 0 {
		t.Fatalf("demanding less than the trait is fine, got %v", diagCodes(bag))
	}
}

func TestImplResultTypeMismatch(t *testing.T) {
	_, bag := checkUnit(t, func(c *ast.Composer) {
		showTrait(c)
		c.Struct("P", 0)
		c.Impl(c.T("Show"), c.T("P"), c.FnDecl(ast.FnSpec{
			Name:   "show",
			Self:   ast.SelfValue,
			Result: c.T("i32"),
			Body:   c.BlockTail(c.Int(1)),
		}))
	})
	if !hasCode(bag, diag.TraitSignatureMismatch) {
		t.Fatalf("expected %v, got %v", diag.TraitSignatureMismatch, diagCodes(bag))
	}
}

func TestBuiltinTypeConformsStructurally(t *testing.T) {
	prog, bag := checkUnit(t, func(c *ast.Composer) { sizedTrait(c, "i32") })
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", diagCodes(bag))
	}
	sized, ok := prog.Types.ResolveName("Sized")
	if !ok {
		t.Fatalf("trait Sized not registered")
	}
	str := prog.Types.In.Builtins().String
	if errs := ImplementsTrait(prog.Types, str, sized); len(errs) != 0 {
		t.Fatalf("String has len(self) -> i32, got %v", errs[0])
	}
	if errs := ImplementsTrait(prog.Types, prog.Types.In.Builtins().Bool, sized); len(errs) != 1 || errs[0].Kind != MissingMethod {
		t.Fatalf("bool has no len, got %v", errs)
	}

	prog, _ = checkUnit(t, func(c *ast.Composer) { sizedTrait(c, "bool") })
	sized, _ = prog.Types.ResolveName("Sized")
	errs := ImplementsTrait(prog.Types, prog.Types.In.Builtins().String, sized)
	if len(errs) != 1 || errs[0].Kind != SignatureMismatch {
		t.Fatalf("expected a signature mismatch, got %v", errs)
	}
}

func TestImplementsTraitRejectsNonTrait(t *testing.T) {
	prog, _ := checkUnit(t, func(c *ast.Composer) { c.Struct("P", 0) })
	p, _ := prog.Types.ResolveName("P")
	errs := ImplementsTrait(prog.Types, prog.Types.In.Builtins().Int32, p)
	if len(errs) != 1 || errs[0].Kind != UnknownTrait {
		t.Fatalf("expected UnknownTrait, got %v", errs)
	}
}
