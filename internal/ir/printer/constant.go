package printer

import (
	"strconv"
	"strings"

	"github.com/vicis-ir/vicis/internal/ir/types"
	"github.com/vicis-ir/vicis/internal/ir/value"
)

// printConstant renders c the way parser/constant.go's parseConstant
// grammar reads it back. Int/null/undef/zeroinitializer/global-ref reuse
// value.Constant's own String (already grounded, see operand.go/value.go),
// since those five forms need no type-aware recursion.
func printConstant(ts *types.Types, c value.Constant) string {
	switch c.Kind {
	case value.ConstArray:
		if c.IsString {
			return "c" + strconv.Quote(stringOfBytes(c.ArrayElems))
		}
		parts := make([]string, len(c.ArrayElems))
		for i, e := range c.ArrayElems {
			parts[i] = ts.Format(e.Type) + " " + printConstant(ts, e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case value.ConstStruct:
		parts := make([]string, len(c.StructFields))
		for i, e := range c.StructFields {
			parts[i] = ts.Format(e.Type) + " " + printConstant(ts, e)
		}
		body := "{" + strings.Join(parts, ", ") + "}"
		if c.StructPacked {
			return "<" + body + ">"
		}
		return body
	case value.ConstExpr:
		return printExpr(ts, c.Expr)
	default:
		return c.String()
	}
}

func stringOfBytes(elems []value.Constant) string {
	b := make([]byte, len(elems))
	for i, e := range elems {
		b[i] = byte(e.IntBits)
	}
	return string(b)
}

// printExpr renders a constant expression, mirroring
// parser/constant.go's parseGEPConstant/parseBitcastConstant. For the
// getelementptr form, only GEPTypes[0] (the aggregate type) is read from
// the Expr itself — every other printed type comes straight off the
// corresponding GEPArgs[i].Type, exactly the field parseConstant already
// populated when it parsed that argument.
func printExpr(ts *types.Types, e *value.Expr) string {
	switch e.Kind {
	case value.ExprGetElementPtr:
		var sb strings.Builder
		sb.WriteString("getelementptr ")
		if e.Inbounds {
			sb.WriteString("inbounds ")
		}
		sb.WriteString("(")
		sb.WriteString(ts.Format(e.GEPTypes[0]))
		for _, arg := range e.GEPArgs {
			sb.WriteString(", ")
			sb.WriteString(ts.Format(arg.Type))
			sb.WriteString(" ")
			sb.WriteString(printConstant(ts, arg))
		}
		sb.WriteString(")")
		return sb.String()
	case value.ExprBitcast:
		return "bitcast (" + ts.Format(e.From) + " " + printConstant(ts, *e.Arg) + " to " + ts.Format(e.To) + ")"
	default:
		return "<invalid constant expr>"
	}
}
