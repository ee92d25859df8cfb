package types

// MoveReason explains why a type moves instead of copying.
type MoveReason uint8

const (
	// MoveNone: the type is copied.
	MoveNone MoveReason = iota
	MoveSizeExceedsThreshold
	MoveOwnsHeap
	MoveUnique
	MoveResource
	// MoveOpaque: a type parameter whose layout is unknown in the body.
	MoveOpaque
)

func (r MoveReason) String() string {
	switch r {
	case MoveSizeExceedsThreshold:
		return "its size exceeds the copy threshold"
	case MoveOwnsHeap:
		return "it owns heap memory"
	case MoveUnique:
		return "it is marked @unique"
	case MoveResource:
		return "it is a @resource"
	case MoveOpaque:
		return "its layout is unknown inside the generic body"
	}
	return "it is copyable"
}

// DefaultMoveThreshold is the largest size in bytes that is still copied.
const DefaultMoveThreshold = 16

// Pointer-sized building blocks of the size model.
const (
	sizeString = 24
	sizeSlice  = 16
	sizeFn     = 8
	sizeTag    = 8
	sizeVec    = 24
)

// SizeOf estimates the in-memory size of id in bytes. Recursive value types
// report an unbounded size.
func (t *Table) SizeOf(id TypeID) uint64 {
	return t.sizeOf(id, map[DefID]bool{})
}

const unboundedSize = ^uint64(0) >> 1

func (t *Table) sizeOf(id TypeID, visiting map[DefID]bool) uint64 {
	tt, ok := t.In.Lookup(id)
	if !ok {
		return 0
	}
	switch tt.Kind {
	case KindBool:
		return 1
	case KindChar:
		return 4
	case KindInt, KindUint, KindFloat:
		return uint64(tt.Width) / 8
	case KindString:
		return sizeString
	case KindSlice:
		return sizeSlice
	case KindFn:
		return sizeFn
	case KindArray:
		return satMul(t.sizeOf(tt.Elem, visiting), uint64(tt.Count))
	case KindOption:
		// флаг присутствия, выровненный по payload
		return roundUp(satAdd(t.sizeOf(tt.Elem, visiting), 1), t.alignOf(tt.Elem))
	case KindResult:
		return satAdd(max(t.sizeOf(tt.Elem, visiting), t.sizeOf(tt.ResultErr(), visiting)), sizeTag)
	case KindTuple:
		elems, _ := t.In.TupleElems(id)
		var total uint64
		for _, e := range elems {
			total = satAdd(total, t.sizeOf(e, visiting))
		}
		return total
	case KindNamed:
		return t.namedSize(id, visiting)
	}
	return 0
}

func (t *Table) namedSize(id TypeID, visiting map[DefID]bool) uint64 {
	def, info := t.DefOf(id)
	if def == nil {
		return 0
	}
	if def.Is(DefGrowable) {
		return sizeVec
	}
	if visiting[info.Def] {
		return unboundedSize
	}
	visiting[info.Def] = true
	defer delete(visiting, info.Def)

	args := def.GenericArgs(info.Args)
	var total uint64
	switch def.Kind {
	case DefStruct:
		for _, f := range def.Fields {
			total = satAdd(total, t.sizeOf(t.In.Substitute(f.Type, args), visiting))
		}
	case DefEnum:
		for _, v := range def.Variants {
			var payload uint64
			for _, p := range v.Payload {
				payload = satAdd(payload, t.sizeOf(t.In.Substitute(p, args), visiting))
			}
			total = max(total, payload)
		}
		total = satAdd(total, sizeTag)
	case DefUnion:
		for _, m := range def.Members {
			total = max(total, t.sizeOf(t.In.Substitute(m, args), visiting))
		}
		total = satAdd(total, sizeTag)
	}
	return total
}

// OwnsHeap reports whether id, or any value it contains, owns heap memory.
// Slices are views and do not own their storage.
func (t *Table) OwnsHeap(id TypeID) bool {
	return t.ownsHeap(id, map[DefID]bool{})
}

func (t *Table) ownsHeap(id TypeID, visiting map[DefID]bool) bool {
	tt, ok := t.In.Lookup(id)
	if !ok {
		return false
	}
	switch tt.Kind {
	case KindString:
		return true
	case KindSlice, KindFn:
		return false
	case KindNamed:
		def, info := t.DefOf(id)
		if def == nil {
			return false
		}
		if def.Is(DefGrowable) {
			return true
		}
		if visiting[info.Def] {
			return false
		}
		visiting[info.Def] = true
		defer delete(visiting, info.Def)
		args := def.GenericArgs(info.Args)
		for _, f := range def.Fields {
			if t.ownsHeap(t.In.Substitute(f.Type, args), visiting) {
				return true
			}
		}
		for _, v := range def.Variants {
			for _, p := range v.Payload {
				if t.ownsHeap(t.In.Substitute(p, args), visiting) {
					return true
				}
			}
		}
		for _, m := range def.Members {
			if t.ownsHeap(t.In.Substitute(m, args), visiting) {
				return true
			}
		}
		return false
	}
	for _, child := range t.In.Children(id) {
		if t.ownsHeap(child, visiting) {
			return true
		}
	}
	return false
}

// ClassifyMove decides whether id is copied (MoveNone) or moved, and why.
// Resource beats unique, unique beats heap ownership, heap beats size.
func (t *Table) ClassifyMove(id TypeID, threshold uint64) MoveReason {
	tt, ok := t.In.Lookup(id)
	if !ok {
		return MoveNone
	}
	switch tt.Kind {
	case KindVar, KindError, KindNever, KindUnresolved:
		return MoveNone
	case KindGeneric:
		return MoveOpaque
	}
	if t.containsFlag(id, DefResource) {
		return MoveResource
	}
	if t.containsFlag(id, DefUnique) {
		return MoveUnique
	}
	if t.OwnsHeap(id) {
		return MoveOwnsHeap
	}
	if t.SizeOf(id) > threshold {
		return MoveSizeExceedsThreshold
	}
	return MoveNone
}

func (t *Table) containsFlag(id TypeID, flag DefFlags) bool {
	return t.In.Contains(id, func(nid TypeID, tt Type) bool {
		if tt.Kind != KindNamed {
			return false
		}
		def, _ := t.DefOf(nid)
		if def.Is(flag) {
			return true
		}
		return false
	}) || t.fieldsContainFlag(id, flag, map[DefID]bool{})
}

func (t *Table) fieldsContainFlag(id TypeID, flag DefFlags, visiting map[DefID]bool) bool {
	def, info := t.DefOf(id)
	if def == nil || visiting[info.Def] {
		return false
	}
	visiting[info.Def] = true
	args := def.GenericArgs(info.Args)
	for _, f := range def.Fields {
		ft := t.In.Substitute(f.Type, args)
		if fd, _ := t.DefOf(ft); fd.Is(flag) || t.fieldsContainFlag(ft, flag, visiting) {
			return true
		}
	}
	return false
}

// alignOf is the alignment used when a tag byte is placed after a value.
func (t *Table) alignOf(id TypeID) uint64 {
	tt, ok := t.In.Lookup(id)
	if !ok {
		return 1
	}
	switch tt.Kind {
	case KindBool:
		return 1
	case KindChar:
		return 4
	case KindInt, KindUint, KindFloat:
		return max(uint64(tt.Width)/8, 1)
	case KindArray, KindOption:
		return t.alignOf(tt.Elem)
	case KindTuple:
		elems, _ := t.In.TupleElems(id)
		var a uint64 = 1
		for _, e := range elems {
			a = max(a, t.alignOf(e))
		}
		return a
	case KindUnit, KindNever, KindError:
		return 1
	}
	return 8
}

func roundUp(n, align uint64) uint64 {
	if align <= 1 || n >= unboundedSize {
		return n
	}
	return satAdd(n, align-1) / align * align
}

func satAdd(a, b uint64) uint64 {
	if a > unboundedSize-b {
		return unboundedSize
	}
	return a + b
}

func satMul(a, b uint64) uint64 {
	if a != 0 && b > unboundedSize/a {
		return unboundedSize
	}
	return a * b
}
