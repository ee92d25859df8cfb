package symbols

import (
	"fmt"

	"fortio.org/safecast"

	"corecheck/internal/ast"
	"corecheck/internal/source"
)

// Table stores scopes and symbols of one unit.
type Table struct {
	scopes  []Scope
	symbols []Symbol
	Strings *source.Interner
}

func NewTable(strings *source.Interner) *Table {
	return &Table{
		// слот 0 зарезервирован под «нет значения»
		scopes:  make([]Scope, 1, 16),
		symbols: make([]Symbol, 1, 64),
		Strings: strings,
	}
}

func (t *Table) NewScope(kind ScopeKind, parent ScopeID, sp source.Span) ScopeID {
	n, err := safecast.Conv[uint32](len(t.scopes))
	if err != nil {
		panic(fmt.Errorf("scope id overflow: %w", err))
	}
	t.scopes = append(t.scopes, Scope{
		Kind:      kind,
		Parent:    parent,
		Span:      sp,
		NameIndex: make(map[source.StringID][]SymbolID),
	})
	return ScopeID(n)
}

func (t *Table) Scope(id ScopeID) *Scope {
	if !id.IsValid() || int(id) >= len(t.scopes) {
		return nil
	}
	return &t.scopes[id]
}

func (t *Table) NewSymbol(sym Symbol) SymbolID {
	n, err := safecast.Conv[uint32](len(t.symbols))
	if err != nil {
		panic(fmt.Errorf("symbol id overflow: %w", err))
	}
	id := SymbolID(n)
	t.symbols = append(t.symbols, sym)
	if scope := t.Scope(sym.Scope); scope != nil {
		scope.Symbols = append(scope.Symbols, id)
		scope.NameIndex[sym.Name] = append(scope.NameIndex[sym.Name], id)
	}
	return id
}

func (t *Table) Get(id SymbolID) *Symbol {
	if !id.IsValid() || int(id) >= len(t.symbols) {
		return nil
	}
	return &t.symbols[id]
}

// Len returns the number of symbols, excluding the reserved slot.
func (t *Table) Len() int {
	return len(t.symbols) - 1
}

// Name returns the textual name of a symbol.
func (t *Table) Name(id SymbolID) string {
	sym := t.Get(id)
	if sym == nil || t.Strings == nil {
		return ""
	}
	s, _ := t.Strings.Lookup(sym.Name)
	return s
}

// LookupIn searches scope and its parents; the latest declaration wins.
func (t *Table) LookupIn(scope ScopeID, name source.StringID) SymbolID {
	for id := scope; id.IsValid(); {
		s := t.Scope(id)
		if s == nil {
			break
		}
		if ids := s.NameIndex[name]; len(ids) > 0 {
			return ids[len(ids)-1]
		}
		id = s.Parent
	}
	return NoSymbolID
}

// FnBindings lists the symbols a function declares for its receiver and
// parameters.
type FnBindings struct {
	Self   SymbolID
	Params []SymbolID
}

// Result is the output of name resolution for one unit.
type Result struct {
	Table       *Table
	Root        ScopeID
	ExprSymbols map[ast.ExprID]SymbolID
	ItemSymbols map[ast.ItemID]SymbolID
	StmtSymbols map[ast.StmtID]SymbolID
	FnBindings  map[ast.ItemID]*FnBindings
}
