package driver

import (
	"fmt"
	"io"
	"sort"

	"github.com/vmihailenco/msgpack/v5"

	"corecheck/internal/ast"
	"corecheck/internal/sema"
)

// Snapshot is the portable form of a TypedProgram: type ids are replaced by
// their labels so readers need no interner.
type Snapshot struct {
	Unit         string              `msgpack:"unit"`
	Functions    []FunctionSnapshot  `msgpack:"functions"`
	ExprTypes    map[uint32]string   `msgpack:"exprs"`
	Bindings     []BindingSnapshot   `msgpack:"bindings"`
	GenericCalls map[uint32][]string `msgpack:"generic_calls,omitempty"`
	Events       []sema.BorrowEvent  `msgpack:"events,omitempty"`
}

// FunctionSnapshot describes one checked function or method.
type FunctionSnapshot struct {
	Item      uint32 `msgpack:"item"`
	Name      string `msgpack:"name"`
	Signature string `msgpack:"signature"`
}

// BindingSnapshot is the final type of one let or parameter binding.
type BindingSnapshot struct {
	Symbol uint32 `msgpack:"symbol"`
	Name   string `msgpack:"name"`
	Type   string `msgpack:"type"`
}

// BuildSnapshot flattens prog; entries are ordered by id.
func BuildSnapshot(unit string, prog *sema.TypedProgram) *Snapshot {
	snap := &Snapshot{
		Unit:      unit,
		ExprTypes: make(map[uint32]string, len(prog.ExprTypes)),
		Events:    prog.Events,
	}
	for id, ty := range prog.ExprTypes {
		snap.ExprTypes[uint32(id)] = prog.Label(ty)
	}
	if len(prog.GenericCalls) > 0 {
		snap.GenericCalls = make(map[uint32][]string, len(prog.GenericCalls))
		for id, args := range prog.GenericCalls {
			labels := make([]string, len(args))
			for i, a := range args {
				labels[i] = prog.Label(a)
			}
			snap.GenericCalls[uint32(id)] = labels
		}
	}
	for item, fn := range prog.Functions {
		name := ""
		if prog.Builder != nil {
			if data, ok := prog.Builder.Items.Fn(item); ok {
				name = prog.Builder.Name(data.Name)
			}
		}
		snap.Functions = append(snap.Functions, FunctionSnapshot{
			Item:      uint32(item),
			Name:      name,
			Signature: prog.Label(fn.Signature),
		})
	}
	sort.Slice(snap.Functions, func(i, j int) bool { return snap.Functions[i].Item < snap.Functions[j].Item })
	for sym, ty := range prog.BindingTypes {
		name := ""
		if prog.Symbols != nil {
			name = prog.Symbols.Table.Name(sym)
		}
		snap.Bindings = append(snap.Bindings, BindingSnapshot{Symbol: uint32(sym), Name: name, Type: prog.Label(ty)})
	}
	sort.Slice(snap.Bindings, func(i, j int) bool { return snap.Bindings[i].Symbol < snap.Bindings[j].Symbol })
	return snap
}

// Expr returns the recorded label of an expression.
func (s *Snapshot) Expr(id ast.ExprID) (string, bool) {
	label, ok := s.ExprTypes[uint32(id)]
	return label, ok
}

// WriteSnapshot encodes prog with msgpack. Map keys are sorted so equal
// programs produce equal bytes.
func WriteSnapshot(w io.Writer, unit string, prog *sema.TypedProgram) error {
	if prog == nil {
		return fmt.Errorf("snapshot %s: no program", unit)
	}
	enc := msgpack.NewEncoder(w)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(BuildSnapshot(unit, prog)); err != nil {
		return fmt.Errorf("snapshot %s: %w", unit, err)
	}
	return nil
}

// ReadSnapshot decodes a snapshot written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	if err := msgpack.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return &snap, nil
}
