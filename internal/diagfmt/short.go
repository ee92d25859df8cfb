package diagfmt

import (
	"fmt"
	"io"

	"corecheck/internal/diag"
	"corecheck/internal/source"
)

// Short prints one line per diagnostic in the stable golden layout:
// "<sev> <CODE> <path>:<line>:<col> <message>".
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet, withNotes bool) error {
	if bag == nil || bag.Len() == 0 {
		return nil
	}
	out := diag.FormatGoldenDiagnostics(bag.Pointers(), fs, withNotes)
	if out == "" {
		return nil
	}
	_, err := fmt.Fprintln(w, out)
	return err
}
