package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/fatih/color"

	"corecheck/internal/ast"
	"corecheck/internal/diagfmt"
	"corecheck/internal/driver"
	"corecheck/internal/source"
)

func mismatchUnit() *driver.Unit {
	b := ast.NewBuilder(ast.Hints{}, nil)
	c := ast.NewComposer(b, 0)
	c.Fn(ast.FnSpec{Name: "f", Result: c.T("i32"), Body: c.BlockTail(c.Bool(true))})
	fs := source.NewFileSet()
	fs.AddVirtual("bad.ccu", nil)
	return &driver.Unit{Path: "bad.ccu", Files: fs, Builder: b}
}

func TestRenderFormats(t *testing.T) {
	results, err := driver.CheckUnits(context.Background(), []*driver.Unit{mismatchUnit()}, driver.Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, format := range []string{"pretty", "short", "json"} {
		var buf bytes.Buffer
		if err := render(&buf, results, format, diagfmt.PrettyOpts{}); err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		if !strings.Contains(buf.String(), "bad.ccu") {
			t.Errorf("%s output must name the unit:\n%s", format, buf.String())
		}
	}
	if err := render(&bytes.Buffer{}, results, "xml", diagfmt.PrettyOpts{}); err == nil {
		t.Fatalf("unknown format must fail")
	}
}

func TestResolveColor(t *testing.T) {
	prev := color.NoColor
	defer func() { color.NoColor = prev }()

	if on, err := resolveColor("on"); err != nil || !on || color.NoColor {
		t.Fatalf("on: got %v, %v", on, err)
	}
	if on, err := resolveColor("off"); err != nil || on || !color.NoColor {
		t.Fatalf("off: got %v, %v", on, err)
	}
	if _, err := resolveColor("rainbow"); err == nil {
		t.Fatalf("invalid mode must fail")
	}
}
