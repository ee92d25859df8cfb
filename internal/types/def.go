package types

import (
	"corecheck/internal/ast"
	"corecheck/internal/source"
)

// DefID identifies a TypeDef inside a Table.
type DefID uint32

const NoDefID DefID = 0

func (id DefID) IsValid() bool { return id != NoDefID }

type DefKind uint8

const (
	DefStruct DefKind = iota
	DefEnum
	DefUnion
	DefTrait
)

func (k DefKind) String() string {
	switch k {
	case DefStruct:
		return "struct"
	case DefEnum:
		return "enum"
	case DefUnion:
		return "union"
	case DefTrait:
		return "trait"
	}
	return "def"
}

type DefFlags uint8

const (
	// DefResource values must be consumed exactly once.
	DefResource DefFlags = 1 << iota
	// DefUnique values are always moved.
	DefUnique
	// DefGrowable containers may reallocate, so borrows of them are instant.
	DefGrowable
	// DefBuiltin marks prelude definitions.
	DefBuiltin
)

// TypeParam is a declared generic parameter with its trait bounds.
type TypeParam struct {
	Name   string
	Bounds []DefID
}

type Field struct {
	Name string
	Type TypeID
	Span source.Span
}

type Variant struct {
	Name    string
	Payload []TypeID
	Span    source.Span
}

type MethodFlags uint8

const (
	MethodUnsafe MethodFlags = 1 << iota
	// MethodView results borrow from the receiver.
	MethodView
)

// Param is one declared method or function parameter.
type Param struct {
	Name string
	Type TypeID
	Mode ast.ParamMode
}

// MethodSig describes a method. Types may mention the def's type parameters
// and, for traits, the generic "Self".
type MethodSig struct {
	Name     string
	Self     ast.SelfMode
	Generics []TypeParam
	Params   []Param
	Result   TypeID
	Flags    MethodFlags
	Span     source.Span
	Item     ast.ItemID
}

func (m *MethodSig) IsView() bool   { return m != nil && m.Flags&MethodView != 0 }
func (m *MethodSig) IsUnsafe() bool { return m != nil && m.Flags&MethodUnsafe != 0 }

// TypeDef is a named nominal definition.
type TypeDef struct {
	Name     string
	Kind     DefKind
	Span     source.Span
	Item     ast.ItemID
	Generics []TypeParam
	Fields   []Field
	Variants []Variant
	Members  []TypeID
	Methods  []MethodSig
	// Traits lists traits this type declares an impl for.
	Traits []DefID
	Flags  DefFlags
}

func (d *TypeDef) Is(flag DefFlags) bool {
	return d != nil && d.Flags&flag != 0
}

// Method finds a method by name.
func (d *TypeDef) Method(name string) (*MethodSig, bool) {
	if d == nil {
		return nil, false
	}
	for i := range d.Methods {
		if d.Methods[i].Name == name {
			return &d.Methods[i], true
		}
	}
	return nil, false
}

// Field finds a field by name.
func (d *TypeDef) Field(name string) (*Field, bool) {
	if d == nil {
		return nil, false
	}
	for i := range d.Fields {
		if d.Fields[i].Name == name {
			return &d.Fields[i], true
		}
	}
	return nil, false
}

// Variant finds an enum variant by name.
func (d *TypeDef) Variant(name string) (*Variant, bool) {
	if d == nil {
		return nil, false
	}
	for i := range d.Variants {
		if d.Variants[i].Name == name {
			return &d.Variants[i], true
		}
	}
	return nil, false
}

// GenericArgs maps the def's parameter names to args positionally.
func (d *TypeDef) GenericArgs(args []TypeID) map[string]TypeID {
	if d == nil || len(d.Generics) == 0 {
		return nil
	}
	out := make(map[string]TypeID, len(d.Generics))
	for i, p := range d.Generics {
		if i < len(args) {
			out[p.Name] = args[i]
		}
	}
	return out
}
