package ast

import (
	"corecheck/internal/source"
)

type Hints struct{ Files, Items, Stmts, Exprs, Types uint }

// Builder owns every arena of one compilation unit. The whole Builder is
// msgpack-serialisable so a front end can hand a unit over as a file.
type Builder struct {
	Files   *Files
	Items   *Items
	Stmts   *Stmts
	Exprs   *Exprs
	Types   *TypeExprs
	Strings *source.Interner
}

func NewBuilder(hints Hints, strings *source.Interner) *Builder {
	if hints.Files == 0 {
		hints.Files = 1 << 2
	}
	if hints.Items == 0 {
		hints.Items = 1 << 7
	}
	if hints.Stmts == 0 {
		hints.Stmts = 1 << 8
	}
	if hints.Exprs == 0 {
		hints.Exprs = 1 << 8
	}
	if hints.Types == 0 {
		hints.Types = 1 << 7
	}
	if strings == nil {
		strings = source.NewInterner()
	}
	return &Builder{
		Files:   NewFiles(hints.Files),
		Items:   NewItems(hints.Items),
		Stmts:   NewStmts(hints.Stmts),
		Exprs:   NewExprs(hints.Exprs),
		Types:   NewTypeExprs(hints.Types),
		Strings: strings,
	}
}

func (b *Builder) NewFile(sp source.Span) FileID {
	return b.Files.New(sp)
}

func (b *Builder) PushItem(file FileID, item ItemID) {
	f := b.Files.Get(file)
	if f == nil {
		return
	}
	f.Items = append(f.Items, item)
}

// Name returns the interned text for id, or "" when unknown.
func (b *Builder) Name(id source.StringID) string {
	if b == nil || b.Strings == nil {
		return ""
	}
	s, _ := b.Strings.Lookup(id)
	return s
}

// AllItems returns item ids of all files in declaration order.
func (b *Builder) AllItems() []ItemID {
	var out []ItemID
	for _, f := range b.Files.Arena.Slice() {
		out = append(out, f.Items...)
	}
	return out
}
