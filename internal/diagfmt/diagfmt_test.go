package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"corecheck/internal/diag"
	"corecheck/internal/source"
)

func movedBag(fs *source.FileSet, file source.FileID) *diag.Bag {
	bag := diag.NewBag(10)
	d := diag.NewError(diag.OwnUseAfterMove, source.Span{File: file, Start: 25, End: 26}, "use of moved value `s`")
	d = d.WithNote(source.Span{File: file, Start: 16, End: 17}, "value moved here")
	bag.Add(d)
	return bag
}

const movedSource = "let s = x;\nsink(s);\nsink(s);\n"

func TestPathModes(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.AddVirtual("/home/user/project/src/main.ccu", []byte(movedSource))
	bag := movedBag(fs, file)

	tests := []struct {
		name string
		mode PathMode
		want string
	}{
		{"Absolute", PathModeAbsolute, "/home/user/project/src/main.ccu:3:6"},
		{"Relative", PathModeRelative, " src/main.ccu:3:6"},
		{"Basename", PathModeBasename, " main.ccu:3:6"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Pretty(&buf, bag, fs, PrettyOpts{PathMode: tt.mode, BaseDir: "/home/user/project"})
			out := " " + buf.String()
			if !strings.Contains(out, tt.want) {
				t.Errorf("expected %q in:\n%s", tt.want, out)
			}
			if !strings.Contains(out, "ERROR OWN") || !strings.Contains(out, "use of moved value") {
				t.Errorf("missing severity, code or message:\n%s", out)
			}
		})
	}
}

func TestPathModeAuto(t *testing.T) {
	if got := formatPath("unit.ccu", PathModeAuto, ""); got != "unit.ccu" {
		t.Errorf("short path must stay, got %q", got)
	}
	long := "/very/long/absolute/path/to/some/nested/directory/unit.ccu"
	if got := formatPath(long, PathModeAuto, ""); got != "unit.ccu" {
		t.Errorf("long path must shorten, got %q", got)
	}
}

func TestPrettySnippetAndNotes(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.AddVirtual("main.ccu", []byte(movedSource))
	bag := movedBag(fs, file)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Context: 1, ShowNotes: true})
	out := buf.String()
	for _, want := range []string{
		" 2 | sink(s);\n",
		" 3 | sink(s);\n",
		"   |      ^\n",
		"note: main.ccu:2:6: value moved here",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("colour codes must be off:\n%q", out)
	}

	buf.Reset()
	Pretty(&buf, bag, fs, PrettyOpts{})
	if strings.Contains(buf.String(), "note:") {
		t.Errorf("notes must be hidden unless requested")
	}
}

func TestPrettyCaretUsesDisplayWidth(t *testing.T) {
	fs := source.NewFileSet()
	content := "let 名 = s\n"
	file := fs.AddVirtual("wide.ccu", []byte(content))
	start := uint32(strings.Index(content, "s"))
	bag := diag.NewBag(1)
	bag.Add(diag.NewError(diag.OwnUseAfterMove, source.Span{File: file, Start: start, End: start + 1}, "moved"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{})
	// "let " (4) + wide rune (2) + " = " (3)
	want := "   | " + strings.Repeat(" ", 9) + "^\n"
	if !strings.Contains(buf.String(), want) {
		t.Fatalf("caret misaligned:\n%s", buf.String())
	}
}

func TestShortIsOneLinePerEntry(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.AddVirtual("main.ccu", []byte(movedSource))
	bag := movedBag(fs, file)

	var buf bytes.Buffer
	if err := Short(&buf, bag, fs, true); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected diagnostic and note lines, got %q", lines)
	}
	code := diag.OwnUseAfterMove.ID()
	if lines[0] != "note "+code+" main.ccu:2:6 value moved here" {
		t.Errorf("unexpected first line %q", lines[0])
	}
	if lines[1] != "error "+code+" main.ccu:3:6 use of moved value `s`" {
		t.Errorf("unexpected second line %q", lines[1])
	}
}

func TestJSONOutput(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.AddVirtual("main.ccu", []byte(movedSource))
	bag := movedBag(fs, file)
	bag.Add(diag.NewError(diag.TypeMismatch, source.Span{File: file, Start: 0, End: 3}, "mismatch"))

	var buf bytes.Buffer
	err := JSON(&buf, "main.ccu", bag, fs, JSONOpts{IncludePositions: true, IncludeNotes: true, Max: 1})
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if out.Count != 1 || out.Dropped != 1 {
		t.Fatalf("expected 1 shown and 1 dropped, got %d/%d", out.Count, out.Dropped)
	}
	d := out.Diagnostics[0]
	if d.Category != "ownership" || d.Location.StartLine != 3 || d.Location.StartCol != 6 {
		t.Fatalf("unexpected entry %+v", d)
	}
	if len(d.Notes) != 1 || d.Notes[0].Location.StartLine != 2 {
		t.Fatalf("note lost: %+v", d.Notes)
	}
}
