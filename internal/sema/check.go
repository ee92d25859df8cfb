package sema

import (
	"context"
	"fmt"

	"corecheck/internal/ast"
	"corecheck/internal/diag"
	"corecheck/internal/observ"
	"corecheck/internal/symbols"
	"corecheck/internal/trace"
	"corecheck/internal/types"
)

// Options configure a semantic pass over a unit.
type Options struct {
	Reporter diag.Reporter
	// MoveThreshold is the largest size in bytes that is still copied;
	// zero selects types.DefaultMoveThreshold.
	MoveThreshold uint64
	// Types lets the caller share an interner; nil creates a fresh one.
	Types *types.Interner
	Timer *observ.Timer
}

// FunctionTypes is the inference output of one function body.
type FunctionTypes struct {
	Item         ast.ItemID
	Signature    types.TypeID
	ExprTypes    map[ast.ExprID]types.TypeID
	Substitution map[uint32]types.TypeID
}

// TypedProgram is the artefact handed to later phases. It is not modified
// after Check returns.
type TypedProgram struct {
	Builder *ast.Builder
	Symbols *symbols.Result
	Types   *types.Table
	// ExprTypes covers every expression reachable from a function body.
	ExprTypes    map[ast.ExprID]types.TypeID
	BindingTypes map[symbols.SymbolID]types.TypeID
	// GenericCalls maps a generic call site to its resolved type arguments.
	GenericCalls map[ast.ExprID][]types.TypeID
	Functions    map[ast.ItemID]*FunctionTypes
	Events       []BorrowEvent
}

// Label renders a type of this program.
func (p *TypedProgram) Label(id types.TypeID) string {
	if p == nil || p.Types == nil {
		return ""
	}
	return p.Types.Label(id)
}

// Check runs inference, trait conformance and ownership analysis over one
// unit. res may be nil, in which case names are resolved first.
func Check(ctx context.Context, b *ast.Builder, res *symbols.Result, opts Options) *TypedProgram {
	if ctx == nil {
		ctx = context.Background()
	}
	in := opts.Types
	if in == nil {
		in = types.NewInterner()
	}
	table := types.NewTable(in)
	prog := &TypedProgram{
		Builder:      b,
		Types:        table,
		ExprTypes:    make(map[ast.ExprID]types.TypeID),
		BindingTypes: make(map[symbols.SymbolID]types.TypeID),
		GenericCalls: make(map[ast.ExprID][]types.TypeID),
		Functions:    make(map[ast.ItemID]*FunctionTypes),
	}
	if b == nil {
		return prog
	}
	if res == nil {
		res = symbols.Resolve(b, symbols.ResolveOptions{Reporter: opts.Reporter})
	}
	prog.Symbols = res

	threshold := opts.MoveThreshold
	if threshold == 0 {
		threshold = types.DefaultMoveThreshold
	}
	c := &checker{
		ctx:       ctx,
		b:         b,
		syms:      res,
		table:     table,
		in:        in,
		builtins:  in.Builtins(),
		reporter:  opts.Reporter,
		timer:     opts.Timer,
		threshold: threshold,
		prog:      prog,
		typeItems: make(map[ast.ItemID]types.DefID),
		sigs:      make(map[ast.ItemID]*fnSig),
		calls:     make(map[ast.ExprID]*callTarget),
	}
	c.run()
	return prog
}

type checker struct {
	ctx       context.Context
	b         *ast.Builder
	syms      *symbols.Result
	table     *types.Table
	in        *types.Interner
	builtins  types.Builtins
	reporter  diag.Reporter
	timer     *observ.Timer
	threshold uint64
	prog      *TypedProgram

	typeItems   map[ast.ItemID]types.DefID
	sigs        map[ast.ItemID]*fnSig
	builtinSigs map[string]*fnSig
	impls       []implInfo
	// bodies lists functions with bodies in declaration order.
	bodies []ast.ItemID
	calls  map[ast.ExprID]*callTarget
	errs   int
}

func (c *checker) run() {
	c.builtinSigs = c.builtinSignatures()
	c.pass("declare", c.declareTypes)
	c.pass("signatures", c.collectSignatures)
	c.pass("traits", c.checkImpls)
	c.pass("infer", c.inferBodies)
	c.pass("ownership", c.checkOwnership)
	c.timer.Count("sema.findings", c.errs)
}

func (c *checker) pass(name string, fn func()) {
	tracer := trace.FromContext(c.ctx)
	span := trace.Begin(tracer, trace.ScopePass, name, trace.CurrentSpan(c.ctx))
	parent := c.ctx
	c.ctx = trace.WithSpan(parent, span)
	idx := c.timer.Begin("sema." + name)
	before := c.errs
	fn()
	c.timer.End(idx, "")
	c.ctx = parent
	span.End(fmt.Sprintf("findings=%d", c.errs-before))
}

// fnSpan opens a detail-level span for one function.
func (c *checker) fnSpan(name string) (*trace.Span, func()) {
	tracer := trace.FromContext(c.ctx)
	span := trace.Begin(tracer, trace.ScopeFunction, name, trace.CurrentSpan(c.ctx))
	parent := c.ctx
	c.ctx = trace.WithSpan(parent, span)
	return span, func() { c.ctx = parent }
}

func (c *checker) report(err Error) {
	if err == nil {
		return
	}
	c.errs++
	report(c.reporter, err)
}

func (c *checker) label(id types.TypeID) string {
	return c.table.Label(id)
}

func (c *checker) inferBodies() {
	for _, item := range c.bodies {
		sig := c.sigs[item]
		if sig == nil {
			continue
		}
		span, done := c.fnSpan(sig.Name)
		fnTypes, errs := c.inferFunction(sig)
		for _, err := range errs {
			c.report(err)
		}
		c.prog.Functions[item] = fnTypes
		for id, t := range fnTypes.ExprTypes {
			c.prog.ExprTypes[id] = t
		}
		c.timer.Count("sema.exprs", len(fnTypes.ExprTypes))
		span.End(fmt.Sprintf("errors=%d", len(errs)))
		done()
	}
}

func (c *checker) checkOwnership() {
	for _, item := range c.bodies {
		sig := c.sigs[item]
		if sig == nil {
			continue
		}
		span, done := c.fnSpan(sig.Name)
		oc := newOwnershipChecker(c, sig)
		errs := oc.checkFunction()
		for _, err := range errs {
			c.report(err)
		}
		c.prog.Events = append(c.prog.Events, oc.events...)
		span.End(fmt.Sprintf("errors=%d", len(errs)))
		done()
	}
}
