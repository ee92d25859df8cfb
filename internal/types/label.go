package types

import (
	"fmt"
	"strings"
)

// Label renders id for diagnostics. Inference variables print as ?N.
func (t *Table) Label(id TypeID) string {
	var b strings.Builder
	t.writeLabel(&b, id)
	return b.String()
}

func (t *Table) writeLabel(b *strings.Builder, id TypeID) {
	in := t.In
	tt, ok := in.Lookup(id)
	if !ok {
		b.WriteString("<invalid>")
		return
	}
	switch tt.Kind {
	case KindUnit:
		b.WriteString("()")
	case KindBool:
		b.WriteString("bool")
	case KindChar:
		b.WriteString("char")
	case KindString:
		b.WriteString("String")
	case KindNever:
		b.WriteString("never")
	case KindError:
		b.WriteString("{error}")
	case KindInt:
		fmt.Fprintf(b, "i%d", tt.Width)
	case KindUint:
		fmt.Fprintf(b, "u%d", tt.Width)
	case KindFloat:
		fmt.Fprintf(b, "f%d", tt.Width)
	case KindArray:
		b.WriteByte('[')
		t.writeLabel(b, tt.Elem)
		fmt.Fprintf(b, "; %d]", tt.Count)
	case KindSlice:
		b.WriteByte('[')
		t.writeLabel(b, tt.Elem)
		b.WriteByte(']')
	case KindOption:
		b.WriteString("Option<")
		t.writeLabel(b, tt.Elem)
		b.WriteByte('>')
	case KindResult:
		b.WriteString("Result<")
		t.writeLabel(b, tt.Elem)
		b.WriteString(", ")
		t.writeLabel(b, tt.ResultErr())
		b.WriteByte('>')
	case KindFn:
		info, _ := in.FnInfo(id)
		b.WriteString("fn(")
		t.writeList(b, info.Params)
		b.WriteString(") -> ")
		t.writeLabel(b, info.Result)
	case KindTuple:
		elems, _ := in.TupleElems(id)
		b.WriteByte('(')
		t.writeList(b, elems)
		if len(elems) == 1 {
			b.WriteByte(',')
		}
		b.WriteByte(')')
	case KindNamed:
		def, info := t.DefOf(id)
		if def == nil {
			b.WriteString("<unknown>")
			return
		}
		b.WriteString(def.Name)
		if len(info.Args) > 0 {
			b.WriteByte('<')
			t.writeList(b, info.Args)
			b.WriteByte('>')
		}
	case KindGeneric, KindUnresolved:
		name, _ := in.NameOf(id)
		b.WriteString(name)
	case KindVar:
		fmt.Fprintf(b, "?%d", tt.Payload)
	default:
		b.WriteString(tt.Kind.String())
	}
}

func (t *Table) writeList(b *strings.Builder, ids []TypeID) {
	for i, id := range ids {
		if i > 0 {
			b.WriteString(", ")
		}
		t.writeLabel(b, id)
	}
}
