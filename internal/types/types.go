package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

func (id TypeID) IsValid() bool { return id != NoTypeID }

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindUnit
	KindBool
	KindInt
	KindUint
	KindFloat
	KindChar
	KindString
	KindNever
	// KindError is assigned to nodes whose type could not be determined; it
	// unifies with everything so one mistake yields one diagnostic.
	KindError
	KindFn
	KindTuple
	KindArray
	KindSlice
	KindOption
	KindResult
	// KindNamed is a user or prelude TypeDef applied to arguments.
	KindNamed
	// KindGeneric is a type parameter; rigid inside its declaring body.
	KindGeneric
	// KindUnresolved is a named reference not yet bound to a TypeDef.
	KindUnresolved
	// KindVar is an inference variable.
	KindVar
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnit:
		return "unit"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindChar:
		return "char"
	case KindString:
		return "string"
	case KindNever:
		return "never"
	case KindError:
		return "error"
	case KindFn:
		return "fn"
	case KindTuple:
		return "tuple"
	case KindArray:
		return "array"
	case KindSlice:
		return "slice"
	case KindOption:
		return "option"
	case KindResult:
		return "result"
	case KindNamed:
		return "named"
	case KindGeneric:
		return "generic"
	case KindUnresolved:
		return "unresolved"
	case KindVar:
		return "var"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// IsNumeric reports integer, unsigned and float kinds.
func (k Kind) IsNumeric() bool {
	return k == KindInt || k == KindUint || k == KindFloat
}

// IsIntegral reports signed and unsigned integers.
func (k Kind) IsIntegral() bool {
	return k == KindInt || k == KindUint
}

// Width captures the precision of integers/floats.
type Width uint8

const (
	WidthAny Width = 0
	Width8   Width = 8
	Width16  Width = 16
	Width32  Width = 32
	Width64  Width = 64
)

// Type is a compact descriptor for any supported type.
type Type struct {
	Kind    Kind
	Elem    TypeID // option/array/slice element, result ok type
	Count   uint32 // array length
	Width   Width  // numeric primitives
	Payload uint32 // side-table slot, var id or result error type
}

// Descriptor helpers ---------------------------------------------------------

// MakeInt describes a signed integer of the given width.
func MakeInt(width Width) Type {
	return Type{Kind: KindInt, Width: width}
}

// MakeUint describes an unsigned integer type.
func MakeUint(width Width) Type {
	return Type{Kind: KindUint, Width: width}
}

// MakeFloat describes a floating-point type.
func MakeFloat(width Width) Type {
	return Type{Kind: KindFloat, Width: width}
}

// MakeArray describes a fixed-length array.
func MakeArray(elem TypeID, count uint32) Type {
	return Type{Kind: KindArray, Elem: elem, Count: count}
}

// MakeSlice describes a slice view.
func MakeSlice(elem TypeID) Type {
	return Type{Kind: KindSlice, Elem: elem}
}

// MakeOption describes Option<elem>.
func MakeOption(elem TypeID) Type {
	return Type{Kind: KindOption, Elem: elem}
}

// MakeResult describes Result<ok, err>.
func MakeResult(ok, err TypeID) Type {
	return Type{Kind: KindResult, Elem: ok, Payload: uint32(err)}
}

// ResultErr extracts the error type of a KindResult descriptor.
func (t Type) ResultErr() TypeID {
	return TypeID(t.Payload)
}
