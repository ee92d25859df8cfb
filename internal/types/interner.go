package types

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for common primitive types.
type Builtins struct {
	Unit    TypeID
	Bool    TypeID
	Char    TypeID
	String  TypeID
	Never   TypeID
	Error   TypeID
	Int8    TypeID
	Int16   TypeID
	Int32   TypeID
	Int64   TypeID
	Uint8   TypeID
	Uint16  TypeID
	Uint32  TypeID
	Uint64  TypeID
	Float32 TypeID
	Float64 TypeID
}

// FnInfo stores metadata for function types.
type FnInfo struct {
	Params []TypeID
	Result TypeID
}

// NamedInfo stores the definition and type arguments of a KindNamed type.
type NamedInfo struct {
	Def  DefID
	Args []TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// List-bearing kinds (fn, tuple, named) keep their lists in side tables and
// are deduplicated by a textual key, so equal structure always yields the
// same TypeID.
type Interner struct {
	types    []Type
	index    map[typeKey]TypeID
	builtins Builtins

	fns    []FnInfo
	tuples [][]TypeID
	named  []NamedInfo
	names  []string // generic and unresolved names
	lists  map[string]uint32
	nameIx map[string]uint32
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		index:  make(map[typeKey]TypeID, 64),
		lists:  make(map[string]uint32, 32),
		nameIx: make(map[string]uint32, 16),
	}
	// слот 0 зарезервирован под NoTypeID
	in.types = append(in.types, Type{Kind: KindInvalid})
	in.fns = append(in.fns, FnInfo{})
	in.tuples = append(in.tuples, nil)
	in.named = append(in.named, NamedInfo{})
	in.names = append(in.names, "")

	in.builtins.Unit = in.Intern(Type{Kind: KindUnit})
	in.builtins.Bool = in.Intern(Type{Kind: KindBool})
	in.builtins.Char = in.Intern(Type{Kind: KindChar})
	in.builtins.String = in.Intern(Type{Kind: KindString})
	in.builtins.Never = in.Intern(Type{Kind: KindNever})
	in.builtins.Error = in.Intern(Type{Kind: KindError})
	in.builtins.Int8 = in.Intern(MakeInt(Width8))
	in.builtins.Int16 = in.Intern(MakeInt(Width16))
	in.builtins.Int32 = in.Intern(MakeInt(Width32))
	in.builtins.Int64 = in.Intern(MakeInt(Width64))
	in.builtins.Uint8 = in.Intern(MakeUint(Width8))
	in.builtins.Uint16 = in.Intern(MakeUint(Width16))
	in.builtins.Uint32 = in.Intern(MakeUint(Width32))
	in.builtins.Uint64 = in.Intern(MakeUint(Width64))
	in.builtins.Float32 = in.Intern(MakeFloat(Width32))
	in.builtins.Float64 = in.Intern(MakeFloat(Width64))
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Len returns the number of interned types, including the reserved slot.
func (in *Interner) Len() int {
	return len(in.types)
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	key := typeKey(t)
	if id, ok := in.index[key]; ok {
		return id
	}
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.index[key] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// KindOf returns the kind of id, KindInvalid for unknown ids.
func (in *Interner) KindOf(id TypeID) Kind {
	tt, _ := in.Lookup(id)
	return tt.Kind
}

type typeKey Type

func listKey(tag string, ids []TypeID, extra ...uint32) string {
	var b strings.Builder
	b.WriteString(tag)
	for _, id := range ids {
		b.WriteByte(',')
		b.WriteString(strconv.FormatUint(uint64(id), 10))
	}
	for _, x := range extra {
		b.WriteByte(';')
		b.WriteString(strconv.FormatUint(uint64(x), 10))
	}
	return b.String()
}

func slotOf(n int, what string) uint32 {
	slot, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("%s overflow: %w", what, err))
	}
	return slot
}

// Fn interns a function type.
func (in *Interner) Fn(params []TypeID, result TypeID) TypeID {
	key := listKey("fn", params, uint32(result))
	slot, ok := in.lists[key]
	if !ok {
		slot = slotOf(len(in.fns), "fn info")
		in.fns = append(in.fns, FnInfo{Params: cloneTypeArgs(params), Result: result})
		in.lists[key] = slot
	}
	return in.Intern(Type{Kind: KindFn, Payload: slot})
}

// FnInfo retrieves function type metadata by TypeID.
func (in *Interner) FnInfo(id TypeID) (*FnInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindFn || int(tt.Payload) >= len(in.fns) {
		return nil, false
	}
	return &in.fns[tt.Payload], true
}

// Tuple interns a tuple type; the empty tuple is unit.
func (in *Interner) Tuple(elems []TypeID) TypeID {
	if len(elems) == 0 {
		return in.builtins.Unit
	}
	key := listKey("tuple", elems)
	slot, ok := in.lists[key]
	if !ok {
		slot = slotOf(len(in.tuples), "tuple info")
		in.tuples = append(in.tuples, cloneTypeArgs(elems))
		in.lists[key] = slot
	}
	return in.Intern(Type{Kind: KindTuple, Payload: slot})
}

// TupleElems returns the element types of a tuple.
func (in *Interner) TupleElems(id TypeID) ([]TypeID, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindTuple || int(tt.Payload) >= len(in.tuples) {
		return nil, false
	}
	return in.tuples[tt.Payload], true
}

// Named interns def applied to args.
func (in *Interner) Named(def DefID, args []TypeID) TypeID {
	key := listKey("named", args, uint32(def))
	slot, ok := in.lists[key]
	if !ok {
		slot = slotOf(len(in.named), "named info")
		in.named = append(in.named, NamedInfo{Def: def, Args: cloneTypeArgs(args)})
		in.lists[key] = slot
	}
	return in.Intern(Type{Kind: KindNamed, Payload: slot})
}

// NamedInfo returns the definition and arguments of a KindNamed type.
func (in *Interner) NamedInfo(id TypeID) (*NamedInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindNamed || int(tt.Payload) >= len(in.named) {
		return nil, false
	}
	return &in.named[tt.Payload], true
}

func (in *Interner) nameSlot(name string) uint32 {
	if slot, ok := in.nameIx[name]; ok {
		return slot
	}
	slot := slotOf(len(in.names), "name table")
	in.names = append(in.names, name)
	in.nameIx[name] = slot
	return slot
}

// Generic interns the type parameter called name.
func (in *Interner) Generic(name string) TypeID {
	return in.Intern(Type{Kind: KindGeneric, Payload: in.nameSlot(name)})
}

// Unresolved interns a by-name reference awaiting resolution.
func (in *Interner) Unresolved(name string) TypeID {
	return in.Intern(Type{Kind: KindUnresolved, Payload: in.nameSlot(name)})
}

// NameOf returns the name of a generic or unresolved type.
func (in *Interner) NameOf(id TypeID) (string, bool) {
	tt, ok := in.Lookup(id)
	if !ok || (tt.Kind != KindGeneric && tt.Kind != KindUnresolved) {
		return "", false
	}
	return in.names[tt.Payload], true
}

// Var interns the inference variable with the given number.
func (in *Interner) Var(n uint32) TypeID {
	return in.Intern(Type{Kind: KindVar, Payload: n})
}

// VarNumber returns the variable number of a KindVar type.
func (in *Interner) VarNumber(id TypeID) (uint32, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindVar {
		return 0, false
	}
	return tt.Payload, true
}

func (in *Interner) Option(elem TypeID) TypeID {
	return in.Intern(MakeOption(elem))
}

func (in *Interner) Result(ok, err TypeID) TypeID {
	return in.Intern(MakeResult(ok, err))
}

func (in *Interner) Array(elem TypeID, count uint32) TypeID {
	return in.Intern(MakeArray(elem, count))
}

func (in *Interner) Slice(elem TypeID) TypeID {
	return in.Intern(MakeSlice(elem))
}

// Children returns the immediate component types of id.
func (in *Interner) Children(id TypeID) []TypeID {
	tt, ok := in.Lookup(id)
	if !ok {
		return nil
	}
	switch tt.Kind {
	case KindArray, KindSlice, KindOption:
		return []TypeID{tt.Elem}
	case KindResult:
		return []TypeID{tt.Elem, tt.ResultErr()}
	case KindFn:
		info, _ := in.FnInfo(id)
		out := make([]TypeID, 0, len(info.Params)+1)
		out = append(out, info.Params...)
		return append(out, info.Result)
	case KindTuple:
		elems, _ := in.TupleElems(id)
		return elems
	case KindNamed:
		info, _ := in.NamedInfo(id)
		return info.Args
	}
	return nil
}

func cloneTypeArgs(ids []TypeID) []TypeID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]TypeID, len(ids))
	copy(out, ids)
	return out
}
