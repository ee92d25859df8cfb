package sema

import (
	"corecheck/internal/diag"
	"corecheck/internal/source"
	"corecheck/internal/types"
)

// Error is an analysis finding. Findings are values: they are collected per
// function and turned into diagnostics by report.
type Error interface {
	error
	Code() diag.Code
	Primary() source.Span
	Notes() []diag.Note
}

// TypeErrorKind enumerates inference failures.
type TypeErrorKind uint8

const (
	TypeMismatch TypeErrorKind = iota
	UndefinedType
	ArityMismatch
	NotCallable
	NoSuchField
	NoSuchMethod
	InfiniteType
	CannotInfer
	MissingReturn
	TryOnNonResult
	TryOutsideFunction
	UnsafeRequired
	InvalidOperands
	MissingField
	NotAssignable
	BreakOutsideLoop
)

var typeErrorCodes = [...]diag.Code{
	TypeMismatch:       diag.TypeMismatch,
	UndefinedType:      diag.TypeUndefined,
	ArityMismatch:      diag.TypeArityMismatch,
	NotCallable:        diag.TypeNotCallable,
	NoSuchField:        diag.TypeNoSuchField,
	NoSuchMethod:       diag.TypeNoSuchMethod,
	InfiniteType:       diag.TypeInfinite,
	CannotInfer:        diag.TypeCannotInfer,
	MissingReturn:      diag.TypeMissingReturn,
	TryOnNonResult:     diag.TypeTryOnNonResult,
	TryOutsideFunction: diag.TypeTryOutsideFn,
	UnsafeRequired:     diag.TypeUnsafeRequired,
	InvalidOperands:    diag.TypeInvalidOperands,
	MissingField:       diag.TypeMissingField,
	NotAssignable:      diag.TypeNotAssignable,
	BreakOutsideLoop:   diag.TypeBreakOutsideLoop,
}

// TypeError is an inference failure. Expected and Found are set for
// mismatches; the message is rendered when the error is created because
// labels depend on the substitution at that moment.
type TypeError struct {
	Kind     TypeErrorKind
	Span     source.Span
	Expected types.TypeID
	Found    types.TypeID
	Message  string
	Related  []diag.Note
}

func (e *TypeError) Error() string        { return e.Message }
func (e *TypeError) Primary() source.Span { return e.Span }
func (e *TypeError) Notes() []diag.Note   { return e.Related }

func (e *TypeError) Code() diag.Code {
	if int(e.Kind) < len(typeErrorCodes) {
		return typeErrorCodes[e.Kind]
	}
	return diag.UnknownCode
}

// TraitErrorKind enumerates conformance failures.
type TraitErrorKind uint8

const (
	BoundUnsatisfied TraitErrorKind = iota
	MissingMethod
	SignatureMismatch
	UnknownTrait
	ConflictingMethods
)

var traitErrorCodes = [...]diag.Code{
	BoundUnsatisfied:   diag.TraitBoundUnsatisfied,
	MissingMethod:      diag.TraitMissingMethod,
	SignatureMismatch:  diag.TraitSignatureMismatch,
	UnknownTrait:       diag.TraitUnknown,
	ConflictingMethods: diag.TraitConflictingMethods,
}

// TraitError reports why a type does not conform to a trait.
type TraitError struct {
	Kind    TraitErrorKind
	Span    source.Span
	Type    types.TypeID
	Trait   string
	Method  string
	Message string
	Related []diag.Note
}

func (e *TraitError) Error() string        { return e.Message }
func (e *TraitError) Primary() source.Span { return e.Span }
func (e *TraitError) Notes() []diag.Note   { return e.Related }

func (e *TraitError) Code() diag.Code {
	if int(e.Kind) < len(traitErrorCodes) {
		return traitErrorCodes[e.Kind]
	}
	return diag.UnknownCode
}

// OwnershipErrorKind enumerates ownership and borrow violations.
type OwnershipErrorKind uint8

const (
	UseAfterMove OwnershipErrorKind = iota
	BorrowConflict
	MutateWhileBorrowed
	InstantBorrowEscapes
	BorrowEscapes
	ResourceNotConsumed
	ResourceAlreadyConsumed
	MoveFromBorrowedParam
	MutateReadOnlyParam
	MutateBorrowedSource
)

var ownershipErrorCodes = [...]diag.Code{
	UseAfterMove:            diag.OwnUseAfterMove,
	BorrowConflict:          diag.OwnBorrowConflict,
	MutateWhileBorrowed:     diag.OwnMutateWhileBorrowed,
	InstantBorrowEscapes:    diag.OwnInstantBorrowEscapes,
	BorrowEscapes:           diag.OwnBorrowEscapes,
	ResourceNotConsumed:     diag.OwnResourceNotConsumed,
	ResourceAlreadyConsumed: diag.OwnResourceConsumedTwice,
	MoveFromBorrowedParam:   diag.OwnMoveFromBorrowedParam,
	MutateReadOnlyParam:     diag.OwnMutateReadOnlyParam,
	MutateBorrowedSource:    diag.OwnMutateBorrowedSource,
}

// OwnershipError is a violation of the move/borrow/linearity rules. Related
// carries the secondary spans ("moved here", "borrowed here").
type OwnershipError struct {
	Kind    OwnershipErrorKind
	Span    source.Span
	Name    string
	Reason  types.MoveReason
	Message string
	Related []diag.Note
}

func (e *OwnershipError) Error() string        { return e.Message }
func (e *OwnershipError) Primary() source.Span { return e.Span }
func (e *OwnershipError) Notes() []diag.Note   { return e.Related }

func (e *OwnershipError) Code() diag.Code {
	if int(e.Kind) < len(ownershipErrorCodes) {
		return ownershipErrorCodes[e.Kind]
	}
	return diag.UnknownCode
}

func note(sp source.Span, msg string) []diag.Note {
	return []diag.Note{{Span: sp, Msg: msg}}
}

// report converts err into a diagnostic.
func report(r diag.Reporter, err Error) {
	if r == nil || err == nil {
		return
	}
	b := diag.ReportError(r, err.Code(), err.Primary(), err.Error())
	for _, n := range err.Notes() {
		b.WithNote(n.Span, n.Msg)
	}
	b.Emit()
}
