package ast

import "corecheck/internal/source"

type TypeDeclKind uint8

const (
	TypeDeclStruct TypeDeclKind = iota
	TypeDeclEnum
	TypeDeclUnion
	TypeDeclTrait
)

func (k TypeDeclKind) String() string {
	switch k {
	case TypeDeclStruct:
		return "struct"
	case TypeDeclEnum:
		return "enum"
	case TypeDeclUnion:
		return "union"
	case TypeDeclTrait:
		return "trait"
	default:
		return "type"
	}
}

type TypeFlags uint8

const (
	// TypeResource marks @resource types that must be consumed exactly once.
	TypeResource TypeFlags = 1 << iota
	// TypeUnique marks @unique types that are never copied.
	TypeUnique
)

type FieldDecl struct {
	Name source.StringID
	Span source.Span
	Type TypeID
}

type VariantDecl struct {
	Name    source.StringID
	Span    source.Span
	Payload []TypeID
}

type TypeItem struct {
	Name     source.StringID
	NameSpan source.Span
	Kind     TypeDeclKind
	Generics []TypeParam
	Fields   []FieldDecl
	Variants []VariantDecl
	Members  []TypeID
	// Methods holds signature-only FnItems for traits.
	Methods []ItemID
	Flags   TypeFlags
}

// ImplItem is an inherent impl when Trait is NoTypeID.
type ImplItem struct {
	Generics []TypeParam
	Trait    TypeID
	Target   TypeID
	Methods  []ItemID
}
