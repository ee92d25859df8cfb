package types

import (
	"errors"
	"fmt"

	"fortio.org/safecast"
)

var (
	// ErrDuplicateDef is returned when a name is registered twice.
	ErrDuplicateDef = errors.New("duplicate type definition")
	// ErrConflictingMethod is returned when a method name is attached twice.
	ErrConflictingMethod = errors.New("conflicting method definition")
)

// PreludeDefs holds the ids of the builtin growable containers.
type PreludeDefs struct {
	Array DefID
	Map   DefID
	Pool  DefID
}

// Table maps names to TypeDefs. Registration is not synchronised; one
// Table belongs to one unit.
type Table struct {
	In      *Interner
	defs    []TypeDef
	byName  map[string]DefID
	builtin map[Kind][]MethodSig
	Prelude PreludeDefs
}

// NewTable creates a table with the prelude definitions registered.
func NewTable(in *Interner) *Table {
	if in == nil {
		in = NewInterner()
	}
	t := &Table{
		In:      in,
		defs:    make([]TypeDef, 1, 16),
		byName:  make(map[string]DefID, 16),
		builtin: make(map[Kind][]MethodSig, 8),
	}
	t.registerPrelude()
	return t
}

// Register adds def under def.Name.
func (t *Table) Register(def TypeDef) (DefID, error) {
	if prev, ok := t.byName[def.Name]; ok {
		return prev, fmt.Errorf("%w: %s", ErrDuplicateDef, def.Name)
	}
	n, err := safecast.Conv[uint32](len(t.defs))
	if err != nil {
		panic(fmt.Errorf("type defs overflow: %w", err))
	}
	id := DefID(n)
	t.defs = append(t.defs, def)
	t.byName[def.Name] = id
	return id, nil
}

// Lookup returns the definition for id or nil.
func (t *Table) Lookup(id DefID) *TypeDef {
	if !id.IsValid() || int(id) >= len(t.defs) {
		return nil
	}
	return &t.defs[id]
}

// ResolveName finds a definition by name.
func (t *Table) ResolveName(name string) (DefID, bool) {
	id, ok := t.byName[name]
	return id, ok
}

// Len returns the number of definitions, prelude included.
func (t *Table) Len() int {
	return len(t.defs) - 1
}

// AddMethod attaches m to def; a second method of the same name conflicts.
func (t *Table) AddMethod(id DefID, m MethodSig) error {
	def := t.Lookup(id)
	if def == nil {
		return fmt.Errorf("unknown type definition %d", id)
	}
	if _, dup := def.Method(m.Name); dup {
		return fmt.Errorf("%w: %s.%s", ErrConflictingMethod, def.Name, m.Name)
	}
	def.Methods = append(def.Methods, m)
	return nil
}

// AddTrait records that def declares an impl of trait.
func (t *Table) AddTrait(id, trait DefID) {
	if def := t.Lookup(id); def != nil {
		def.Traits = append(def.Traits, trait)
	}
}

// DefOf returns the definition behind a KindNamed type.
func (t *Table) DefOf(id TypeID) (*TypeDef, *NamedInfo) {
	info, ok := t.In.NamedInfo(id)
	if !ok {
		return nil, nil
	}
	return t.Lookup(info.Def), info
}

// IsGrowable reports whether id is a container that may reallocate.
func (t *Table) IsGrowable(id TypeID) bool {
	def, _ := t.DefOf(id)
	return def.Is(DefGrowable)
}

// IsResource reports whether id is a @resource type.
func (t *Table) IsResource(id TypeID) bool {
	def, _ := t.DefOf(id)
	return def.Is(DefResource)
}

// BuiltinMethods returns the intrinsic methods of a structural kind.
// Signatures use "T" for the element and "E" for the error type.
func (t *Table) BuiltinMethods(kind Kind) []MethodSig {
	return t.builtin[kind]
}

// MethodSet returns the methods callable on id together with the generic
// bindings that instantiate them.
func (t *Table) MethodSet(id TypeID) ([]MethodSig, map[string]TypeID, bool) {
	tt, ok := t.In.Lookup(id)
	if !ok {
		return nil, nil, false
	}
	switch tt.Kind {
	case KindNamed:
		def, info := t.DefOf(id)
		if def == nil {
			return nil, nil, false
		}
		return def.Methods, def.GenericArgs(info.Args), true
	case KindString:
		return t.builtin[KindString], nil, true
	case KindArray, KindSlice, KindOption:
		return t.builtin[tt.Kind], map[string]TypeID{"T": tt.Elem}, true
	case KindResult:
		return t.builtin[KindResult], map[string]TypeID{"T": tt.Elem, "E": tt.ResultErr()}, true
	}
	return nil, nil, false
}
