package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"corecheck/internal/diag"
	"corecheck/internal/source"
)

type palette struct {
	err, warn, info, code, loc, gutter, caret, note *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		code:   color.New(color.FgMagenta),
		loc:    color.New(color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgRed, color.Bold),
		note:   color.New(color.FgGreen, color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.loc, p.gutter, p.caret, p.note} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.info
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	if bag == nil {
		return
	}
	pr := prettyPrinter{w: w, fs: fs, opts: opts, pal: newPalette(opts.Color)}
	if pr.opts.TabWidth <= 0 {
		pr.opts.TabWidth = 4
	}
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		pr.diagnostic(d)
	}
	if dropped := bag.Dropped(); dropped > 0 {
		fmt.Fprintf(w, "\n... %d more diagnostic(s) not shown\n", dropped)
	}
}

type prettyPrinter struct {
	w    io.Writer
	fs   *source.FileSet
	opts PrettyOpts
	pal  palette
}

func (pr *prettyPrinter) location(sp source.Span) (string, source.LineCol, source.LineCol, bool) {
	f := pr.fs.Get(sp.File)
	if f == nil {
		return "", source.LineCol{}, source.LineCol{}, false
	}
	start, end, ok := pr.fs.Resolve(sp)
	return formatPath(f.Path, pr.opts.PathMode, pr.opts.BaseDir), start, end, ok
}

func (pr *prettyPrinter) diagnostic(d diag.Diagnostic) {
	path, start, end, ok := pr.location(d.Primary)
	sev := pr.pal.severity(d.Severity)
	if ok {
		fmt.Fprintf(pr.w, "%s: ", pr.pal.loc.Sprintf("%s:%d:%d", path, start.Line, start.Col))
	}
	fmt.Fprintf(pr.w, "%s %s: %s\n", sev.Sprint(d.Severity.String()), pr.pal.code.Sprint(d.Code.ID()), d.Message)
	if ok {
		pr.snippet(d.Primary, start, end, pr.pal.caret)
	}
	if !pr.opts.ShowNotes {
		return
	}
	for _, n := range d.Notes {
		npath, nstart, nend, nok := pr.location(n.Span)
		if !nok {
			fmt.Fprintf(pr.w, "  %s %s\n", pr.pal.note.Sprint("note:"), n.Msg)
			continue
		}
		fmt.Fprintf(pr.w, "  %s %s: %s\n", pr.pal.note.Sprint("note:"), pr.pal.loc.Sprintf("%s:%d:%d", npath, nstart.Line, nstart.Col), n.Msg)
		pr.snippet(n.Span, nstart, nend, pr.pal.note)
	}
}

// snippet prints the primary line with surrounding context and an underline
// aligned by display width.
func (pr *prettyPrinter) snippet(sp source.Span, start, end source.LineCol, mark *color.Color) {
	f := pr.fs.Get(sp.File)
	if f == nil || len(f.Content) == 0 {
		return
	}
	ctx := uint32(max(pr.opts.Context, 0)) // #nosec G115 -- non-negative int8
	first := start.Line - min(ctx, start.Line-1)
	last := start.Line + ctx
	width := len(strconv.FormatUint(uint64(last), 10))
	blank := strings.Repeat(" ", width)

	for ln := first; ln <= last; ln++ {
		if ln > start.Line && ln > uint32(len(f.LineIdx))+1 { // #nosec G115
			break
		}
		text := pr.expandTabs(f.GetLine(ln))
		fmt.Fprintf(pr.w, " %s %s\n", pr.pal.gutter.Sprintf("%*d |", width, ln), text)
		if ln != start.Line {
			continue
		}
		raw := f.GetLine(ln)
		from := min(int(start.Col)-1, len(raw))
		to := len(raw)
		if end.Line == start.Line {
			to = min(max(int(end.Col)-1, from), len(raw))
		}
		pad := runewidth.StringWidth(pr.expandTabs(raw[:from]))
		span := max(runewidth.StringWidth(pr.expandTabs(raw[from:to])), 1)
		underline := "^" + strings.Repeat("~", span-1)
		fmt.Fprintf(pr.w, " %s %s%s\n", pr.pal.gutter.Sprintf("%s |", blank), strings.Repeat(" ", pad), mark.Sprint(underline))
	}
}

func (pr *prettyPrinter) expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", pr.opts.TabWidth))
}
