package sema

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"corecheck/internal/diag"
	"corecheck/internal/source"
)

// ResourceID identifies a tracked @resource value.
type ResourceID uint32

const NoResourceID ResourceID = 0

func (id ResourceID) IsValid() bool { return id != NoResourceID }

type ResourceState uint8

const (
	ResourceLive ResourceState = iota
	ResourceConsumed
)

func (s ResourceState) String() string {
	if s == ResourceConsumed {
		return "consumed"
	}
	return "live"
}

// Resource is one value of a @resource type. Var is empty while the value is
// a temporary; Depth is the scope depth that owns it, zero once it has left
// the function.
type Resource struct {
	ID         ResourceID
	Var        string
	TypeName   string
	Depth      int
	Span       source.Span
	State      ResourceState
	ConsumedAt source.Span
}

// ResourceTracker enforces linearity: every resource is consumed exactly
// once before the scope that owns it ends.
type ResourceTracker struct {
	items []Resource
}

func NewResourceTracker() *ResourceTracker {
	return &ResourceTracker{items: make([]Resource, 1, 8)}
}

// Register starts tracking a fresh resource owned by depth.
func (rt *ResourceTracker) Register(varName, typeName string, depth int, sp source.Span) ResourceID {
	n, err := safecast.Conv[uint32](len(rt.items))
	if err != nil {
		panic(fmt.Errorf("resource id overflow: %w", err))
	}
	id := ResourceID(n)
	rt.items = append(rt.items, Resource{
		ID:       id,
		Var:      varName,
		TypeName: typeName,
		Depth:    depth,
		Span:     sp,
	})
	return id
}

func (rt *ResourceTracker) Get(id ResourceID) *Resource {
	if !id.IsValid() || int(id) >= len(rt.items) {
		return nil
	}
	return &rt.items[id]
}

// Bind names the binding that now owns id.
func (rt *ResourceTracker) Bind(id ResourceID, varName string, depth int) {
	if r := rt.Get(id); r != nil {
		r.Var = varName
		r.Depth = depth
	}
}

// Transfer hands id to an enclosing scope; depth zero means the value
// leaves the function.
func (rt *ResourceTracker) Transfer(id ResourceID, depth int) {
	if r := rt.Get(id); r != nil && r.Depth > depth {
		r.Depth = depth
	}
}

// MarkConsumed records the single allowed consumption of id.
func (rt *ResourceTracker) MarkConsumed(id ResourceID, sp source.Span) *OwnershipError {
	r := rt.Get(id)
	if r == nil {
		return nil
	}
	if r.State == ResourceConsumed {
		return &OwnershipError{
			Kind:    ResourceAlreadyConsumed,
			Span:    sp,
			Name:    r.Var,
			Message: fmt.Sprintf("resource %s of type `%s` is already consumed", r.describe(), r.TypeName),
			Related: note(r.ConsumedAt, "first consumed here"),
		}
	}
	r.State = ResourceConsumed
	r.ConsumedAt = sp
	return nil
}

func (r *Resource) describe() string {
	if r.Var == "" {
		return "value"
	}
	return "`" + r.Var + "`"
}

// Live lists resources that are still unconsumed.
func (rt *ResourceTracker) Live() []*Resource {
	var out []*Resource
	for i := 1; i < len(rt.items); i++ {
		if r := &rt.items[i]; r.State == ResourceLive && r.Depth > 0 {
			out = append(out, r)
		}
	}
	return out
}

// CheckScopeExit closes every scope at or below depth. Unconsumed resources
// owned there are reported together in one ResourceNotConsumed error, one
// note per leak; they are dropped from tracking either way.
func (rt *ResourceTracker) CheckScopeExit(depth int, sp source.Span) *OwnershipError {
	var leaks []*Resource
	for i := 1; i < len(rt.items); i++ {
		r := &rt.items[i]
		if r.Depth < depth || r.Depth == 0 {
			continue
		}
		if r.State == ResourceLive {
			leaks = append(leaks, r)
		}
		r.Depth = 0
	}
	if len(leaks) == 0 {
		return nil
	}
	names := make([]string, 0, len(leaks))
	notes := make([]diag.Note, 0, len(leaks))
	for _, r := range leaks {
		names = append(names, r.describe())
		notes = append(notes, diag.Note{Span: r.Span, Msg: fmt.Sprintf("%s of type `%s` acquired here", r.describe(), r.TypeName)})
	}
	noun := "resource"
	if len(leaks) > 1 {
		noun = "resources"
	}
	return &OwnershipError{
		Kind:    ResourceNotConsumed,
		Span:    sp,
		Name:    leaks[0].Var,
		Message: fmt.Sprintf("%s %s not consumed before the end of scope", noun, strings.Join(names, ", ")),
		Related: notes,
	}
}

// Snapshot copies the tracker state for branch analysis.
func (rt *ResourceTracker) Snapshot() []Resource {
	out := make([]Resource, len(rt.items))
	copy(out, rt.items)
	return out
}

// Restore rewinds the states captured by snap. Resources registered after
// the snapshot are kept.
func (rt *ResourceTracker) Restore(snap []Resource) {
	copy(rt.items, snap)
}

// Merge joins another branch: a resource consumed on either path counts as
// consumed afterwards.
func (rt *ResourceTracker) Merge(other []Resource) {
	for i := 1; i < len(other) && i < len(rt.items); i++ {
		if other[i].State == ResourceConsumed && rt.items[i].State == ResourceLive {
			rt.items[i].State = ResourceConsumed
			rt.items[i].ConsumedAt = other[i].ConsumedAt
		}
	}
}
