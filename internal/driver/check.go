package driver

import (
	"context"
	"errors"
	"io/fs"
	"runtime"

	"golang.org/x/sync/errgroup"

	"corecheck/internal/diag"
	"corecheck/internal/observ"
	"corecheck/internal/sema"
	"corecheck/internal/source"
	"corecheck/internal/trace"
)

// Options configure a batch run.
type Options struct {
	// Jobs limits parallel workers; 0 selects GOMAXPROCS.
	Jobs int
	// MaxDiagnostics caps every unit's bag; 0 means unlimited.
	MaxDiagnostics int
	MoveThreshold  uint64
	Timer          *observ.Timer
	// Sink, when set, additionally receives every diagnostic of every unit.
	// Calls are serialised.
	Sink diag.Reporter
}

// Result is the outcome of one unit. Program is nil when the unit could not
// be loaded.
type Result struct {
	Path    string
	Unit    *Unit
	Program *sema.TypedProgram
	Bag     *diag.Bag
}

// FileSet returns the files the result's spans point into. Units that
// failed to load get a placeholder holding just their path.
func (r *Result) FileSet() *source.FileSet {
	if r.Unit != nil && r.Unit.Files != nil {
		return r.Unit.Files
	}
	fs := source.NewFileSet()
	fs.AddVirtual(r.Path, nil)
	return fs
}

// HasErrors reports whether any result carries an error diagnostic.
func HasErrors(results []*Result) bool {
	for _, r := range results {
		if r != nil && r.Bag != nil && r.Bag.HasErrors() {
			return true
		}
	}
	return false
}

// CheckUnits analyses already decoded units in parallel. Each unit gets its
// own inference context, borrow table and resource tracker; results keep
// the order of units.
func CheckUnits(ctx context.Context, units []*Unit, opts Options) ([]*Result, error) {
	return run(ctx, len(units), opts, func(i int) *Result {
		u := units[i]
		res := &Result{Unit: u, Bag: diag.NewBag(opts.MaxDiagnostics)}
		if u != nil {
			res.Path = u.Path
		}
		return res
	})
}

// CheckFiles loads and analyses unit files in parallel. A file that cannot
// be read or decoded yields a result with an I/O diagnostic instead of an
// error, so one broken unit does not hide the others.
func CheckFiles(ctx context.Context, paths []string, opts Options) ([]*Result, error) {
	return run(ctx, len(paths), opts, func(i int) *Result {
		res := &Result{Path: paths[i], Bag: diag.NewBag(opts.MaxDiagnostics)}
		u, err := LoadUnit(paths[i])
		if err != nil {
			code := diag.IODecodeError
			var pathErr *fs.PathError
			if errors.As(err, &pathErr) {
				code = diag.IOLoadFileError
			}
			diag.ReportError(reporterFor(res, opts), code, source.Span{}, err.Error()).Emit()
			return res
		}
		res.Unit = u
		return res
	})
}

func run(ctx context.Context, n int, opts Options, prepare func(i int) *Result) ([]*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]*Result, n)
	if n == 0 {
		return results, nil
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	if opts.Sink != nil {
		opts.Sink = diag.NewLockedReporter(opts.Sink)
	}

	tracer := trace.FromContext(ctx)
	batch := trace.Begin(tracer, trace.ScopeDriver, "check_units", trace.CurrentSpan(ctx))
	ctx = trace.WithSpan(ctx, batch)
	phase := opts.Timer.Begin("check_units")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, n))
	for i := range n {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			res := prepare(i)
			results[i] = res
			if res.Unit != nil {
				checkOne(gctx, res, opts)
			}
			res.Bag.Sort()
			return nil
		})
	}
	err := g.Wait()
	opts.Timer.End(phase, "")
	opts.Timer.Count("driver.units", n)
	batch.End("")
	return results, err
}

func checkOne(ctx context.Context, res *Result, opts Options) {
	span := trace.Begin(trace.FromContext(ctx), trace.ScopeUnit, "unit", trace.CurrentSpan(ctx)).
		WithExtra("path", res.Path)
	defer span.End("")
	rep := reporterFor(res, opts)
	res.Program = sema.Check(trace.WithSpan(ctx, span), res.Unit.Builder, nil, sema.Options{
		Reporter:      rep,
		MoveThreshold: opts.MoveThreshold,
		Timer:         opts.Timer,
	})
	opts.Timer.Count("driver.duplicates", rep.Dropped())
}

// reporterFor drops repeated findings and mirrors the rest into the sink.
func reporterFor(res *Result, opts Options) *diag.DedupReporter {
	var next diag.Reporter = diag.BagReporter{Bag: res.Bag}
	if opts.Sink != nil {
		next = teeReporter{next, opts.Sink}
	}
	return diag.NewDedupReporter(next)
}

type teeReporter []diag.Reporter

func (t teeReporter) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note) {
	for _, r := range t {
		r.Report(code, sev, primary, msg, notes)
	}
}
