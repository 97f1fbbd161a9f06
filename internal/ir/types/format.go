package types

import (
	"fmt"
	"strings"
)

// Format renders id as LLVM-flavored type syntax, used by the printer
// (C12) and by diagnostics. Named types print as `%name`.
func (t *Types) Format(id ID) string {
	d := t.row(id)
	switch d.kind {
	case KindVoid:
		return "void"
	case KindI1:
		return "i1"
	case KindI8:
		return "i8"
	case KindI32:
		return "i32"
	case KindI64:
		return "i64"
	case KindPtr:
		return t.Format(d.elem) + "*"
	case KindArray:
		return fmt.Sprintf("[%d x %s]", d.arrayLen, t.Format(d.arrayElem))
	case KindStruct:
		return t.formatStructBody(d.fields, d.packed)
	case KindFunc:
		parts := make([]string, len(d.params))
		for i, p := range d.params {
			parts[i] = t.Format(p)
		}
		if d.varArg {
			parts = append(parts, "...")
		}
		return fmt.Sprintf("%s (%s)", t.Format(d.ret), strings.Join(parts, ", "))
	case KindNamed:
		return "%" + d.name
	default:
		return "<invalid>"
	}
}

func (t *Types) formatStructBody(fields []ID, packed bool) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = t.Format(f)
	}
	body := strings.Join(parts, ", ")
	if packed {
		return "<{" + body + "}>"
	}
	return "{" + body + "}"
}
