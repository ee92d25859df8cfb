package diag

import (
	"cmp"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"corecheck/internal/source"
)

// goldenLine is one rendered entry: a diagnostic or one of its notes.
type goldenLine struct {
	label string
	code  string
	path  string
	pos   source.LineCol
	msg   string
}

func (l goldenLine) String() string {
	return fmt.Sprintf("%s %s %s:%d:%d %s", l.label, l.code, l.path, l.pos.Line, l.pos.Col, l.msg)
}

func compareGolden(a, b goldenLine) int {
	return cmp.Or(
		cmp.Compare(a.path, b.path),
		cmp.Compare(a.pos.Line, b.pos.Line),
		cmp.Compare(a.pos.Col, b.pos.Col),
		cmp.Compare(a.label, b.label),
		cmp.Compare(a.code, b.code),
		cmp.Compare(a.msg, b.msg),
	)
}

// FormatGoldenDiagnostics renders one line per diagnostic, and per note when
// includeNotes is set, as "label CODE path:line:col message". Lines are
// ordered by position so the output of a unit does not depend on the order
// its functions were analysed in. Spans outside fs are skipped.
func FormatGoldenDiagnostics(diags []*Diagnostic, fs *source.FileSet, includeNotes bool) string {
	if fs == nil || len(diags) == 0 {
		return ""
	}
	var lines []goldenLine
	add := func(label string, code Code, sp source.Span, msg string) {
		f := fs.Get(sp.File)
		start, _, ok := fs.Resolve(sp)
		if f == nil || !ok {
			return
		}
		lines = append(lines, goldenLine{
			label: label,
			code:  code.ID(),
			path:  slashPath(f.Path),
			pos:   start,
			msg:   oneLine(msg),
		})
	}
	for _, d := range diags {
		add(d.Severity.Label(), d.Code, d.Primary, d.Message)
		if !includeNotes {
			continue
		}
		for _, n := range d.Notes {
			add("note", d.Code, n.Span, n.Msg)
		}
	}
	slices.SortStableFunc(lines, compareGolden)

	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.String()
	}
	return strings.Join(out, "\n")
}

func slashPath(path string) string {
	p := filepath.ToSlash(path)
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	return p
}

// oneLine folds line breaks of a message into spaces.
func oneLine(msg string) string {
	return strings.TrimSpace(strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(msg))
}
