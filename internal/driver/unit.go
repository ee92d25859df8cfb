package driver

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"corecheck/internal/ast"
	"corecheck/internal/source"
)

// UnitExt is the conventional extension of unit files.
const UnitExt = ".ccu"

// unitFormat is bumped whenever the encoded layout changes.
const unitFormat = 1

// ErrUnitFormat reports a unit written by an incompatible front end.
var ErrUnitFormat = errors.New("unsupported unit format")

// Unit is one compilation unit handed over by a front end: the resolved
// tree plus, optionally, the source text its spans point into.
type Unit struct {
	Path    string
	Files   *source.FileSet
	Builder *ast.Builder
}

// unitSource is the text of one file; its position in unitFile.Sources is
// its source.FileID.
type unitSource struct {
	Path string `msgpack:"path"`
	Text []byte `msgpack:"text"`
}

type unitFile struct {
	Format  int          `msgpack:"format"`
	Sources []unitSource `msgpack:"sources"`
	AST     *ast.Builder `msgpack:"ast"`
}

// LoadUnit reads and decodes a unit file.
func LoadUnit(path string) (*Unit, error) {
	// #nosec G304 -- path is provided by the caller
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	defer f.Close()
	u, err := DecodeUnit(path, bufio.NewReader(f))
	if err != nil {
		return nil, err
	}
	return u, nil
}

// DecodeUnit decodes a unit from r; path names the unit in diagnostics.
func DecodeUnit(path string, r io.Reader) (*Unit, error) {
	var uf unitFile
	if err := msgpack.NewDecoder(r).Decode(&uf); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if uf.Format != unitFormat {
		return nil, fmt.Errorf("decode %s: %w %d (want %d)", path, ErrUnitFormat, uf.Format, unitFormat)
	}
	if uf.AST == nil {
		return nil, fmt.Errorf("decode %s: unit has no tree", path)
	}
	fs := source.NewFileSet()
	for _, src := range uf.Sources {
		fs.AddVirtual(src.Path, src.Text)
	}
	if fs.Len() == 0 {
		// спаны без текста всё равно должны резолвиться в путь юнита
		fs.AddVirtual(path, nil)
	}
	return &Unit{Path: path, Files: fs, Builder: uf.AST}, nil
}

// EncodeUnit writes u in the format DecodeUnit reads.
func EncodeUnit(w io.Writer, u *Unit) error {
	if u == nil || u.Builder == nil {
		return errors.New("encode: empty unit")
	}
	uf := unitFile{Format: unitFormat, AST: u.Builder}
	if u.Files != nil {
		for i := range u.Files.Len() {
			f := u.Files.Get(source.FileID(i)) // #nosec G115 -- Len fits FileID
			uf.Sources = append(uf.Sources, unitSource{Path: f.Path, Text: f.Content})
		}
	}
	return msgpack.NewEncoder(w).Encode(&uf)
}

// SaveUnit encodes u into path.
func SaveUnit(path string, u *Unit) error {
	// #nosec G304 -- path is provided by the caller
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	if err := EncodeUnit(w, u); err != nil {
		f.Close()
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("save %s: %w", path, err)
	}
	return f.Close()
}
