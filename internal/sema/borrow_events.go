package sema

import (
	"fmt"

	"corecheck/internal/source"
	"corecheck/internal/trace"
)

// BorrowEventKind is the kind of a recorded ownership transition.
type BorrowEventKind uint8

const (
	EventBorrowStart BorrowEventKind = iota
	EventBorrowEnd
	EventMove
	EventWrite
	EventConsume
)

func (k BorrowEventKind) String() string {
	switch k {
	case EventBorrowStart:
		return "borrow_start"
	case EventBorrowEnd:
		return "borrow_end"
	case EventMove:
		return "move"
	case EventWrite:
		return "write"
	case EventConsume:
		return "consume"
	}
	return "unknown"
}

// BorrowEvent is one entry of the ownership log kept in TypedProgram.
type BorrowEvent struct {
	Kind   BorrowEventKind `msgpack:"kind"`
	Fn     string          `msgpack:"fn"`
	Place  string          `msgpack:"place"`
	Borrow BorrowID        `msgpack:"borrow,omitempty"`
	Mode   BorrowMode      `msgpack:"mode,omitempty"`
	Span   source.Span     `msgpack:"span"`
}

func (e BorrowEvent) String() string {
	switch e.Kind {
	case EventBorrowStart, EventBorrowEnd:
		return fmt.Sprintf("%s %s #%d %s", e.Kind, e.Mode, e.Borrow, e.Place)
	}
	return fmt.Sprintf("%s %s", e.Kind, e.Place)
}

func (oc *ownershipChecker) event(kind BorrowEventKind, place string, id BorrowID, mode BorrowMode, sp source.Span) {
	ev := BorrowEvent{Kind: kind, Fn: oc.sig.Name, Place: place, Borrow: id, Mode: mode, Span: sp}
	oc.events = append(oc.events, ev)
	ctx := oc.c.ctx
	trace.Point(trace.FromContext(ctx), trace.ScopeNode, kind.String(), ev.String(), trace.CurrentSpan(ctx))
}

func (oc *ownershipChecker) borrowEvent(kind BorrowEventKind, id BorrowID) {
	info := oc.borrows.Info(id)
	if info == nil {
		return
	}
	oc.event(kind, info.Place.String(), id, info.Mode, info.Span)
}
