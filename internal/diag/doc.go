// Package diag defines the diagnostic model shared by every analysis phase.
//
// A Diagnostic carries a Severity, a numeric Code with a stable string form
// (RES/TYP/TRT/OWN/IO prefixes), a short Message, a primary source.Span and
// optional Notes pointing at related locations ("first moved here").
//
// Codes are grouped into the three analysis families via Code.Category:
// type errors, trait errors and ownership errors. Phases never stop at the
// first finding; they report through a Reporter and keep going, so a single
// run yields the full list.
//
// Rendering lives in internal/diagfmt. Bag supports sorting, deduplication
// and per-category filtering; FormatGoldenDiagnostics produces the stable
// one-line form used by tests.
package diag
