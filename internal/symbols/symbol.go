package symbols

import (
	"corecheck/internal/ast"
	"corecheck/internal/source"
)

// SymbolKind classifies the semantic meaning of a symbol.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	SymbolFunction
	SymbolLet
	SymbolConst
	SymbolParam
	SymbolType
)

// SymbolFlags encode misc attributes for quick checks.
type SymbolFlags uint16

const (
	SymbolFlagBuiltin SymbolFlags = 1 << iota
	SymbolFlagSelf
	SymbolFlagMethod
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolFunction:
		return "function"
	case SymbolLet:
		return "let"
	case SymbolConst:
		return "const"
	case SymbolParam:
		return "param"
	case SymbolType:
		return "type"
	default:
		return "invalid"
	}
}

// SymbolDecl focuses on the AST origin for diagnostics.
type SymbolDecl struct {
	Item  ast.ItemID
	Stmt  ast.StmtID
	Param int // индекс параметра, -1 для self
}

// Symbol describes a named entity available in a scope.
type Symbol struct {
	Name  source.StringID
	Kind  SymbolKind
	Scope ScopeID
	Span  source.Span
	Flags SymbolFlags
	Decl  SymbolDecl
}

func (s *Symbol) IsBuiltin() bool {
	return s != nil && s.Flags&SymbolFlagBuiltin != 0
}
