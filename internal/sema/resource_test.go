package sema

import (
	"testing"

	"corecheck/internal/source"
)

func TestResourceConsumedOnce(t *testing.T) {
	rt := NewResourceTracker()
	first := source.Span{Start: 4, End: 5}
	id := rt.Register("f", "File", 1, source.Span{})
	if err := rt.MarkConsumed(id, first); err != nil {
		t.Fatalf("first consumption failed: %v", err)
	}
	err := rt.MarkConsumed(id, source.Span{Start: 8, End: 9})
	if err == nil || err.Kind != ResourceAlreadyConsumed {
		t.Fatalf("expected ResourceAlreadyConsumed, got %v", err)
	}
	if len(err.Related) != 1 || err.Related[0].Span != first {
		t.Fatalf("error must cite the first consumption, got %+v", err.Related)
	}
}

func TestResourceScopeExitReportsLeaksJointly(t *testing.T) {
	rt := NewResourceTracker()
	rt.Register("a", "File", 2, source.Span{})
	rt.Register("b", "Socket", 2, source.Span{})
	done := rt.Register("c", "File", 2, source.Span{})
	outer := rt.Register("d", "File", 1, source.Span{})
	if err := rt.MarkConsumed(done, source.Span{}); err != nil {
		t.Fatal(err)
	}

	err := rt.CheckScopeExit(2, source.Span{})
	if err == nil || err.Kind != ResourceNotConsumed {
		t.Fatalf("expected ResourceNotConsumed, got %v", err)
	}
	if len(err.Related) != 2 {
		t.Fatalf("expected one note per leak, got %d", len(err.Related))
	}
	if err := rt.CheckScopeExit(2, source.Span{}); err != nil {
		t.Fatalf("scope exit must drop its entries, got %v", err)
	}
	if live := rt.Live(); len(live) != 1 || live[0].ID != outer {
		t.Fatalf("outer resource must stay tracked, got %v", live)
	}
}

func TestResourceTransferAvoidsLeak(t *testing.T) {
	rt := NewResourceTracker()
	id := rt.Register("", "File", 2, source.Span{})
	rt.Transfer(id, 1)
	if err := rt.CheckScopeExit(2, source.Span{}); err != nil {
		t.Fatalf("transferred resource must not leak in the inner scope: %v", err)
	}
	rt.Transfer(id, 0)
	if err := rt.CheckScopeExit(1, source.Span{}); err != nil {
		t.Fatalf("returned resource must not leak: %v", err)
	}
}

func TestResourceBranchMerge(t *testing.T) {
	rt := NewResourceTracker()
	id := rt.Register("f", "File", 1, source.Span{})
	entry := rt.Snapshot()
	if err := rt.MarkConsumed(id, source.Span{}); err != nil {
		t.Fatal(err)
	}
	afterThen := rt.Snapshot()
	rt.Restore(entry)
	if rt.Get(id).State != ResourceLive {
		t.Fatalf("restore must rewind the consumption")
	}
	rt.Merge(afterThen)
	if rt.Get(id).State != ResourceConsumed {
		t.Fatalf("a resource consumed on one path counts as consumed")
	}
}
