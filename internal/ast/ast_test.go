package ast

import (
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func TestArenaIsOneBased(t *testing.T) {
	a := NewArena[int](0)
	if a.Get(0) != nil {
		t.Fatalf("index 0 must be the null slot")
	}
	id := a.Allocate(42)
	if id != 1 || *a.Get(id) != 42 {
		t.Fatalf("unexpected allocation %d", id)
	}
	if a.Get(2) != nil {
		t.Fatalf("out of range index must yield nil")
	}
}

func TestComposerPayloadAccessors(t *testing.T) {
	b := NewBuilder(Hints{}, nil)
	c := NewComposer(b, 0)

	call := c.Method(c.Ident("xs"), "push", c.Int(1))
	let := c.Let("n", NoTypeID, c.Method(c.Ident("xs"), "len"))
	body := c.BlockTail(c.Ident("n"), let, c.Do(call))
	fn := c.Fn(FnSpec{Name: "f", Result: c.T("i32"), Body: body})

	data, ok := b.Exprs.MethodCall(call)
	if !ok || b.Name(data.Name) != "push" || len(data.Args) != 1 {
		t.Fatalf("method call payload mismatch: %+v", data)
	}
	if _, ok := b.Exprs.Call(call); ok {
		t.Fatalf("method call must not decode as plain call")
	}
	letData, ok := b.Stmts.Let(let)
	if !ok || b.Name(letData.Name) != "n" {
		t.Fatalf("let payload mismatch")
	}
	fnItem, ok := b.Items.Fn(fn)
	if !ok || !fnItem.HasBody() || b.Name(fnItem.Name) != "f" {
		t.Fatalf("fn payload mismatch")
	}
	if items := b.AllItems(); len(items) != 1 || items[0] != fn {
		t.Fatalf("unexpected items %v", items)
	}
}

func TestBuilderMsgpackRoundTrip(t *testing.T) {
	b := NewBuilder(Hints{}, nil)
	c := NewComposer(b, 0)
	ret := c.Return(c.Bin(ExprBinaryAdd, c.Ident("a"), c.Int(2)))
	c.Fn(FnSpec{
		Name:   "add2",
		Params: []FnParam{c.Param("a", c.T("i32"), ParamDefault)},
		Result: c.T("i32"),
		Body:   c.Block(ret),
	})

	raw, err := msgpack.Marshal(b)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Builder
	if err := msgpack.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Exprs.Arena.Len() != b.Exprs.Arena.Len() {
		t.Fatalf("expr count %d, want %d", back.Exprs.Arena.Len(), b.Exprs.Arena.Len())
	}
	items := back.AllItems()
	if len(items) != 1 {
		t.Fatalf("expected one item, got %d", len(items))
	}
	fn, ok := back.Items.Fn(items[0])
	if !ok || back.Name(fn.Name) != "add2" || fn.Params[0].Mode != ParamDefault {
		t.Fatalf("decoded fn mismatch: %+v", fn)
	}
	rs, ok := back.Stmts.Return(ret)
	if !ok {
		t.Fatalf("return statement lost")
	}
	bin, ok := back.Exprs.Binary(rs.Expr)
	if !ok || bin.Op != ExprBinaryAdd {
		t.Fatalf("binary payload lost")
	}
}
