package source

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/text/unicode/norm"
)

// StringID identifies an interned string.
type StringID uint32

const NoStringID StringID = 0

// Interner maps identifier text to compact ids. Text is NFC-normalized so
// that visually identical identifiers share one id.
type Interner struct {
	byID  []string            // индекс -> строка (byID[0] = "" для NoStringID)
	index map[string]StringID // строка -> ID
}

func NewInterner() *Interner {
	return &Interner{
		byID:  []string{""},
		index: map[string]StringID{"": NoStringID},
	}
}

// Intern inserts s and returns its id; existing strings keep their id.
func (i *Interner) Intern(s string) StringID {
	s = norm.NFC.String(s)
	if id, ok := i.index[s]; ok {
		return id
	}
	value, err := safecast.Conv[uint32](len(i.byID))
	if err != nil {
		panic(fmt.Errorf("string interner overflow: %w", err))
	}
	id := StringID(value)
	// собственная копия, чтобы не держать исходный буфер
	cpy := string([]byte(s))
	i.byID = append(i.byID, cpy)
	i.index[cpy] = id
	return id
}

// Lookup returns the string for id. Unknown ids yield "", false.
func (i *Interner) Lookup(id StringID) (string, bool) {
	if !i.Has(id) {
		return "", false
	}
	return i.byID[id], true
}

// MustLookup panics on an unknown id.
func (i *Interner) MustLookup(id StringID) string {
	s, ok := i.Lookup(id)
	if !ok {
		panic("invalid string ID")
	}
	return s
}

// Has reports whether id was produced by this interner.
func (i *Interner) Has(id StringID) bool {
	return int(id) < len(i.byID)
}

// Len counts interned strings including the NoStringID slot.
func (i *Interner) Len() int {
	return len(i.byID)
}

// Snapshot returns a copy of all strings ordered by id.
func (i *Interner) Snapshot() []string {
	return slices.Clone(i.byID)
}

var (
	_ msgpack.CustomEncoder = (*Interner)(nil)
	_ msgpack.CustomDecoder = (*Interner)(nil)
)

// EncodeMsgpack writes the id-ordered string list.
func (i *Interner) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.Encode(i.byID)
}

// DecodeMsgpack rebuilds the interner preserving the encoded ids.
func (i *Interner) DecodeMsgpack(dec *msgpack.Decoder) error {
	var byID []string
	if err := dec.Decode(&byID); err != nil {
		return err
	}
	if len(byID) == 0 || byID[0] != "" {
		return fmt.Errorf("interner: slot 0 must hold the empty string")
	}
	i.byID = byID
	i.index = make(map[string]StringID, len(byID))
	for idx, s := range byID {
		value, err := safecast.Conv[uint32](idx)
		if err != nil {
			return fmt.Errorf("interner: %w", err)
		}
		if _, dup := i.index[s]; !dup {
			i.index[s] = StringID(value)
		}
	}
	return nil
}
