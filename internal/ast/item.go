package ast

import (
	"corecheck/internal/source"
)

type ItemKind uint8

const (
	ItemFn ItemKind = iota
	ItemType
	ItemImpl
)

func (k ItemKind) String() string {
	switch k {
	case ItemFn:
		return "fn"
	case ItemType:
		return "type"
	case ItemImpl:
		return "impl"
	default:
		return "item"
	}
}

type Item struct {
	Kind    ItemKind
	Span    source.Span
	Payload PayloadID
}

type Items struct {
	Arena *Arena[Item]
	Fns   *Arena[FnItem]
	Types *Arena[TypeItem]
	Impls *Arena[ImplItem]
}

// NewItems creates and returns an *Items with per-kind arenas initialized to capHint.
func NewItems(capHint uint) *Items {
	if capHint == 0 {
		capHint = 1 << 7
	}
	return &Items{
		Arena: NewArena[Item](capHint),
		Fns:   NewArena[FnItem](capHint),
		Types: NewArena[TypeItem](capHint / 2),
		Impls: NewArena[ImplItem](capHint / 4),
	}
}

func (i *Items) new(kind ItemKind, span source.Span, payload PayloadID) ItemID {
	return ItemID(i.Arena.Allocate(Item{Kind: kind, Span: span, Payload: payload}))
}

func (i *Items) Get(id ItemID) *Item {
	return i.Arena.Get(uint32(id))
}

func (i *Items) NewFn(span source.Span, fn FnItem) ItemID {
	return i.new(ItemFn, span, PayloadID(i.Fns.Allocate(fn)))
}

func (i *Items) Fn(id ItemID) (*FnItem, bool) {
	item := i.Get(id)
	if item == nil || item.Kind != ItemFn {
		return nil, false
	}
	return i.Fns.Get(uint32(item.Payload)), true
}

func (i *Items) NewType(span source.Span, decl TypeItem) ItemID {
	return i.new(ItemType, span, PayloadID(i.Types.Allocate(decl)))
}

func (i *Items) Type(id ItemID) (*TypeItem, bool) {
	item := i.Get(id)
	if item == nil || item.Kind != ItemType {
		return nil, false
	}
	return i.Types.Get(uint32(item.Payload)), true
}

func (i *Items) NewImpl(span source.Span, impl ImplItem) ItemID {
	return i.new(ItemImpl, span, PayloadID(i.Impls.Allocate(impl)))
}

func (i *Items) Impl(id ItemID) (*ImplItem, bool) {
	item := i.Get(id)
	if item == nil || item.Kind != ItemImpl {
		return nil, false
	}
	return i.Impls.Get(uint32(item.Payload)), true
}
