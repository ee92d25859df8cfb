package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Разрешение имён
	ResInfo              Code = 2000
	ResUnresolvedSymbol  Code = 2001
	ResDuplicateSymbol   Code = 2002
	ResDuplicateType     Code = 2003
	ResSelfOutsideMethod Code = 2004

	// Типы
	TypeInfo             Code = 3000
	TypeMismatch         Code = 3001
	TypeUndefined        Code = 3002
	TypeArityMismatch    Code = 3003
	TypeNotCallable      Code = 3004
	TypeNoSuchField      Code = 3005
	TypeNoSuchMethod     Code = 3006
	TypeInfinite         Code = 3007
	TypeCannotInfer      Code = 3008
	TypeMissingReturn    Code = 3009
	TypeTryOnNonResult   Code = 3010
	TypeTryOutsideFn     Code = 3011
	TypeUnsafeRequired   Code = 3012
	TypeInvalidOperands  Code = 3013
	TypeMissingField     Code = 3014
	TypeNotAssignable    Code = 3015
	TypeBreakOutsideLoop Code = 3016

	// Контракты (traits)
	TraitInfo               Code = 3100
	TraitBoundUnsatisfied   Code = 3101
	TraitMissingMethod      Code = 3102
	TraitSignatureMismatch  Code = 3103
	TraitUnknown            Code = 3104
	TraitConflictingMethods Code = 3105

	// Владение и заимствования
	OwnInfo                  Code = 3200
	OwnUseAfterMove          Code = 3201
	OwnBorrowConflict        Code = 3202
	OwnMutateWhileBorrowed   Code = 3203
	OwnInstantBorrowEscapes  Code = 3204
	OwnBorrowEscapes         Code = 3205
	OwnResourceNotConsumed   Code = 3206
	OwnResourceConsumedTwice Code = 3207
	OwnMoveFromBorrowedParam Code = 3208
	OwnMutateReadOnlyParam   Code = 3209
	OwnMutateBorrowedSource  Code = 3210

	// I/O
	IOInfo          Code = 4000
	IOLoadFileError Code = 4001
	IODecodeError   Code = 4002

	// Наблюдаемость
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:              "Unknown error",
		ResInfo:                  "Resolution information",
		ResUnresolvedSymbol:      "Unresolved symbol",
		ResDuplicateSymbol:       "Duplicate symbol",
		ResDuplicateType:         "Duplicate type declaration",
		ResSelfOutsideMethod:     "'self' used outside of a method",
		TypeInfo:                 "Type information",
		TypeMismatch:             "Type mismatch",
		TypeUndefined:            "Undefined type",
		TypeArityMismatch:        "Wrong number of arguments",
		TypeNotCallable:          "Value is not callable",
		TypeNoSuchField:          "No such field",
		TypeNoSuchMethod:         "No such method",
		TypeInfinite:             "Infinite type",
		TypeCannotInfer:          "Cannot infer type",
		TypeMissingReturn:        "Missing return value",
		TypeTryOnNonResult:       "'?' applied to a value that is not Option or Result",
		TypeTryOutsideFn:         "'?' used outside of an Option or Result returning function",
		TypeUnsafeRequired:       "Operation requires an unsafe context",
		TypeInvalidOperands:      "Invalid operands for operator",
		TypeMissingField:         "Missing field in struct literal",
		TypeNotAssignable:        "Expression is not assignable",
		TypeBreakOutsideLoop:     "'break' or 'continue' outside of a loop",
		TraitInfo:                "Trait information",
		TraitBoundUnsatisfied:    "Trait bound is not satisfied",
		TraitMissingMethod:       "Missing trait method",
		TraitSignatureMismatch:   "Method signature does not match trait",
		TraitUnknown:             "Unknown trait",
		TraitConflictingMethods:  "Conflicting method definitions",
		OwnInfo:                  "Ownership information",
		OwnUseAfterMove:          "Use of moved value",
		OwnBorrowConflict:        "Conflicting borrow",
		OwnMutateWhileBorrowed:   "Mutation while borrowed",
		OwnInstantBorrowEscapes:  "Instant borrow escapes its statement",
		OwnBorrowEscapes:         "Borrow escapes its scope",
		OwnResourceNotConsumed:   "Resource not consumed",
		OwnResourceConsumedTwice: "Resource already consumed",
		OwnMoveFromBorrowedParam: "Move out of a borrowed parameter",
		OwnMutateReadOnlyParam:   "Mutation of a read-only parameter",
		OwnMutateBorrowedSource:  "Mutation of a source with a live view",
		IOInfo:                   "I/O information",
		IOLoadFileError:          "I/O load file error",
		IODecodeError:            "Unit decode error",
		ObsInfo:                  "Observability information",
		ObsTimings:               "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("RES%04d", ic)
	case ic >= 3000 && ic < 3100:
		return fmt.Sprintf("TYP%04d", ic)
	case ic >= 3100 && ic < 3200:
		return fmt.Sprintf("TRT%04d", ic)
	case ic >= 3200 && ic < 4000:
		return fmt.Sprintf("OWN%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// Category groups codes into the three analysis error families.
type Category uint8

const (
	CategoryOther Category = iota
	CategoryType
	CategoryTrait
	CategoryOwnership
)

func (c Code) Category() Category {
	switch ic := int(c); {
	case ic >= 3000 && ic < 3100:
		return CategoryType
	case ic >= 3100 && ic < 3200:
		return CategoryTrait
	case ic >= 3200 && ic < 4000:
		return CategoryOwnership
	}
	return CategoryOther
}

func (c Category) String() string {
	switch c {
	case CategoryType:
		return "type"
	case CategoryTrait:
		return "trait"
	case CategoryOwnership:
		return "ownership"
	default:
		return "other"
	}
}
