package sema

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"corecheck/internal/ast"
	"corecheck/internal/source"
)

// BorrowID identifies a borrow inside a BorrowTable.
type BorrowID uint32

const NoBorrowID BorrowID = 0

func (id BorrowID) IsValid() bool { return id != NoBorrowID }

// BorrowMode distinguishes shared and exclusive views.
type BorrowMode uint8

const (
	BorrowShared BorrowMode = iota
	BorrowExclusive
)

func (m BorrowMode) String() string {
	if m == BorrowExclusive {
		return "exclusive"
	}
	return "shared"
}

// ScopeKind says when a borrow ends on its own.
type ScopeKind uint8

const (
	// ScopePersistent borrows last until the end of their block.
	ScopePersistent ScopeKind = iota
	// ScopeInstant borrows end with their statement; used for growable
	// sources whose mutation may reallocate.
	ScopeInstant
)

func (k ScopeKind) String() string {
	if k == ScopeInstant {
		return "instant"
	}
	return "persistent"
}

// BorrowScope ties a borrow to a block (persistent) or statement (instant).
type BorrowScope struct {
	Kind  ScopeKind
	Block ast.StmtID
	Stmt  ast.StmtID
}

func Persistent(block ast.StmtID) BorrowScope {
	return BorrowScope{Kind: ScopePersistent, Block: block}
}

func Instant(stmt ast.StmtID) BorrowScope {
	return BorrowScope{Kind: ScopeInstant, Stmt: stmt}
}

// Place is a binding plus a field path such as ".pos.x" or "[]".
// A borrow is never anything more than a place and a scope.
type Place struct {
	Base string
	Path string
}

func (p Place) String() string {
	return p.Base + p.Path
}

// Overlaps reports whether p and q may alias: same base and one path is a
// prefix of the other at a segment boundary.
func (p Place) Overlaps(q Place) bool {
	if p.Base != q.Base {
		return false
	}
	return pathPrefix(p.Path, q.Path) || pathPrefix(q.Path, p.Path)
}

func pathPrefix(a, b string) bool {
	if !strings.HasPrefix(b, a) {
		return false
	}
	return len(a) == len(b) || b[len(a)] == '.' || b[len(a)] == '['
}

// BorrowInfo describes one borrow.
type BorrowInfo struct {
	ID    BorrowID
	Mode  BorrowMode
	Place Place
	Scope BorrowScope
	Span  source.Span
	// Holder is the binding that stores the view; empty for temporaries,
	// which end with their statement.
	Holder      string
	HolderDepth int
	Stmt        ast.StmtID
	Live        bool
}

// BorrowIssueKind classifies why a borrow, move or mutation is rejected.
type BorrowIssueKind uint8

const (
	BorrowIssueNone BorrowIssueKind = iota
	// BorrowIssueConflictShared: an exclusive borrow meets a live shared one.
	BorrowIssueConflictShared
	// BorrowIssueConflictExclusive: any borrow meets a live exclusive one.
	BorrowIssueConflictExclusive
	// BorrowIssueFrozen: a mutation or move meets a live shared borrow.
	BorrowIssueFrozen
	// BorrowIssueTaken: a use meets a live exclusive borrow.
	BorrowIssueTaken
)

// BorrowIssue names the rejected operation's conflicting borrow.
type BorrowIssue struct {
	Kind   BorrowIssueKind
	Borrow BorrowID
}

func (i BorrowIssue) Ok() bool { return i.Kind == BorrowIssueNone }

// BorrowTable tracks the borrows of one function.
type BorrowTable struct {
	infos []BorrowInfo
	live  []BorrowID
}

func NewBorrowTable() *BorrowTable {
	return &BorrowTable{infos: make([]BorrowInfo, 1, 16)}
}

func (t *BorrowTable) Info(id BorrowID) *BorrowInfo {
	if !id.IsValid() || int(id) >= len(t.infos) {
		return nil
	}
	return &t.infos[id]
}

// Live returns the ids of all borrows not yet released.
func (t *BorrowTable) Live() []BorrowID {
	out := make([]BorrowID, len(t.live))
	copy(out, t.live)
	return out
}

// Check applies the conflict matrix: shared+shared is allowed, anything
// involving an exclusive borrow conflicts.
func (t *BorrowTable) Check(mode BorrowMode, place Place) BorrowIssue {
	for _, id := range t.live {
		info := &t.infos[id]
		if !info.Place.Overlaps(place) {
			continue
		}
		if info.Mode == BorrowExclusive {
			return BorrowIssue{Kind: BorrowIssueConflictExclusive, Borrow: id}
		}
		if mode == BorrowExclusive {
			return BorrowIssue{Kind: BorrowIssueConflictShared, Borrow: id}
		}
	}
	return BorrowIssue{}
}

// Begin registers a borrow unless it conflicts with a live one.
func (t *BorrowTable) Begin(mode BorrowMode, place Place, scope BorrowScope, sp source.Span, stmt ast.StmtID) (BorrowID, BorrowIssue) {
	if issue := t.Check(mode, place); !issue.Ok() {
		return NoBorrowID, issue
	}
	n, err := safecast.Conv[uint32](len(t.infos))
	if err != nil {
		panic(fmt.Errorf("borrow id overflow: %w", err))
	}
	id := BorrowID(n)
	t.infos = append(t.infos, BorrowInfo{
		ID:    id,
		Mode:  mode,
		Place: place,
		Scope: scope,
		Span:  sp,
		Stmt:  stmt,
		Live:  true,
	})
	t.live = append(t.live, id)
	return id, BorrowIssue{}
}

// MutationAllowed rejects writes to place while any overlapping borrow
// other than except is live. Moves follow the same rule.
func (t *BorrowTable) MutationAllowed(place Place, except BorrowID) BorrowIssue {
	for _, id := range t.live {
		info := &t.infos[id]
		if id == except || !info.Place.Overlaps(place) {
			continue
		}
		if info.Mode == BorrowExclusive {
			return BorrowIssue{Kind: BorrowIssueTaken, Borrow: id}
		}
		return BorrowIssue{Kind: BorrowIssueFrozen, Borrow: id}
	}
	return BorrowIssue{}
}

// ReadAllowed rejects reads of place while an exclusive borrow is live.
func (t *BorrowTable) ReadAllowed(place Place, except BorrowID) BorrowIssue {
	for _, id := range t.live {
		info := &t.infos[id]
		if id == except || info.Mode != BorrowExclusive || !info.Place.Overlaps(place) {
			continue
		}
		return BorrowIssue{Kind: BorrowIssueTaken, Borrow: id}
	}
	return BorrowIssue{}
}

// SetHolder records the binding that keeps the view alive.
func (t *BorrowTable) SetHolder(id BorrowID, name string, depth int) {
	if info := t.Info(id); info != nil {
		info.Holder = name
		info.HolderDepth = depth
	}
}

// Release ends a borrow; it reports false when it was not live.
func (t *BorrowTable) Release(id BorrowID) bool {
	info := t.Info(id)
	if info == nil || !info.Live {
		return false
	}
	info.Live = false
	for i, live := range t.live {
		if live == id {
			t.live = append(t.live[:i], t.live[i+1:]...)
			break
		}
	}
	return true
}

func (t *BorrowTable) releaseWhere(pred func(*BorrowInfo) bool) []BorrowID {
	var out []BorrowID
	kept := t.live[:0]
	for _, id := range t.live {
		info := &t.infos[id]
		if pred(info) {
			info.Live = false
			out = append(out, id)
			continue
		}
		kept = append(kept, id)
	}
	t.live = kept
	return out
}

// EndStatement releases instant borrows of stmt and the temporaries it
// created.
func (t *BorrowTable) EndStatement(stmt ast.StmtID) []BorrowID {
	return t.releaseWhere(func(info *BorrowInfo) bool {
		if info.Scope.Kind == ScopeInstant && info.Scope.Stmt == stmt {
			return true
		}
		return info.Holder == "" && info.Stmt == stmt
	})
}

// EndBlock releases the persistent borrows scoped to block.
func (t *BorrowTable) EndBlock(block ast.StmtID) []BorrowID {
	return t.releaseWhere(func(info *BorrowInfo) bool {
		return info.Scope.Kind == ScopePersistent && info.Scope.Block == block
	})
}
