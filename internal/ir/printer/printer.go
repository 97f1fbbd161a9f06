// Package printer implements C12: rendering a parsed Module back to the
// textual grammar package parser accepts, so a round trip through
// Parse/Print/Parse reproduces an equivalent Module.
//
// Grounded on original_source/core/src/ir/function/print.rs's
// FunctionAsmPrinter for per-opcode layout, cross-checked production by
// production against parser/instruction.go and parser/constant.go so every
// rendering choice mirrors what the parser actually consumes. Unlike the
// Rust original, this package does not renumber unnamed entities at print
// time: a name.Name is already fully resolved (symbolic or numeric) by the
// time an ir.Function exists, and the parser's own implicit-numbering
// rule for an unlabeled block (name.Num(position)) or an unlabeled
// parameter (name.Num(index)) is exactly a block's or parameter's
// position — so echoing a Name as-is round-trips correctly without an
// extra renumbering pass.
package printer

import (
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/vicis-ir/vicis/internal/ir/ir"
	"github.com/vicis-ir/vicis/internal/ir/module"
	"github.com/vicis-ir/vicis/internal/ir/types"
	"github.com/vicis-ir/vicis/internal/ir/value"
)

// PrintModule renders m's directives, named types, globals, attribute
// groups, metadata and functions, in that order.
func PrintModule(m *module.Module) string {
	var sb strings.Builder
	ts := m.Types

	if m.SourceFilename != "" {
		sb.WriteString("source_filename = " + strconv.Quote(m.SourceFilename) + "\n")
	}
	if m.TargetDatalayout != "" {
		sb.WriteString("target datalayout = " + strconv.Quote(m.TargetDatalayout) + "\n")
	}
	if m.TargetTriple != "" {
		sb.WriteString("target triple = " + strconv.Quote(m.TargetTriple) + "\n")
	}

	for _, name := range ts.NamedTypeNames() {
		id := ts.DeclareNamed(name)
		body := ts.NamedBody(id)
		sb.WriteString("\n%" + name + " = type ")
		if body == types.Invalid {
			sb.WriteString("opaque")
		} else {
			sb.WriteString(ts.Format(body))
		}
		sb.WriteString("\n")
	}

	for _, g := range m.GlobalsInOrder() {
		sb.WriteString("\n" + printGlobal(ts, g) + "\n")
	}

	for _, id := range sortedUint64Keys(attrGroupKeys(m)) {
		g := m.AttrGroups[id]
		sb.WriteString("\nattributes #" + strconv.FormatUint(id, 10) + " = { " + joinAttrs(g.Attrs) + " }\n")
	}

	for _, id := range sortedUint64Keys(metadataKeys(m)) {
		sb.WriteString("\n" + printMetadata(m.Metadata[id]) + "\n")
	}

	for _, f := range m.FunctionsInOrder() {
		sb.WriteString("\n" + PrintFunction(ts, f) + "\n")
	}

	return sb.String()
}

func attrGroupKeys(m *module.Module) []uint64 {
	keys := make([]uint64, 0, len(m.AttrGroups))
	for id := range m.AttrGroups {
		keys = append(keys, id)
	}
	return keys
}

func metadataKeys(m *module.Module) []uint64 {
	keys := make([]uint64, 0, len(m.Metadata))
	for id := range m.Metadata {
		keys = append(keys, id)
	}
	return keys
}

func sortedUint64Keys(keys []uint64) []uint64 {
	out := append([]uint64(nil), keys...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func printGlobal(ts *types.Types, g *module.GlobalVariable) string {
	parts := []string{"@" + g.Name, "="}
	switch g.Linkage {
	case module.LinkageInternal:
		parts = append(parts, "internal")
	case module.LinkagePrivate:
		parts = append(parts, "private")
	case module.LinkageCommon:
		parts = append(parts, "common")
	}
	if g.Initializer == nil {
		parts = append(parts, "external")
	}
	if g.IsConstant {
		parts = append(parts, "constant")
	} else {
		parts = append(parts, "global")
	}
	parts = append(parts, ts.Format(g.Type))
	line := strings.Join(parts, " ")
	if g.Initializer != nil {
		line += " " + printConstant(ts, *g.Initializer)
	}
	return line
}

func printMetadata(n *module.MetadataNode) string {
	id := "!" + strconv.FormatUint(n.ID, 10)
	switch n.Kind {
	case module.MetadataString:
		return id + " = !" + strconv.Quote(n.Str)
	case module.MetadataNodeList:
		refs := lo.Map(n.Operand, func(ref uint64, _ int) string {
			if ref == 0 {
				return "null"
			}
			return "!" + strconv.FormatUint(ref, 10)
		})
		return id + " = !{ " + strings.Join(refs, ", ") + " }"
	default:
		return id + " = !{}"
	}
}

// PrintFunction renders one function definition or declaration.
func PrintFunction(ts *types.Types, f *ir.Function) string {
	var sb strings.Builder
	if f.IsDecl {
		sb.WriteString("declare ")
	} else {
		sb.WriteString("define ")
	}
	sb.WriteString(ts.Format(f.RetType))
	sb.WriteString(" @")
	sb.WriteString(f.Name)
	sb.WriteString("(")
	sb.WriteString(printParamList(ts, f))
	sb.WriteString(")")
	if len(f.Attrs) > 0 {
		sb.WriteString(" " + joinAttrs(f.Attrs))
	}
	if f.IsDecl {
		return sb.String()
	}
	sb.WriteString(" {\n")
	for _, b := range f.Layout.Blocks() {
		sb.WriteString(printBlock(ts, f, b))
	}
	sb.WriteString("}")
	return sb.String()
}

func printParamList(ts *types.Types, f *ir.Function) string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		s := ts.Format(p.Type)
		if len(p.Attrs) > 0 {
			s += " " + joinAttrs(p.Attrs)
		}
		s += " %" + p.Name.String()
		parts[i] = s
	}
	if f.VarArg {
		parts = append(parts, "...")
	}
	return strings.Join(parts, ", ")
}

func printBlock(ts *types.Types, f *ir.Function, b ir.BlockID) string {
	var sb strings.Builder
	bd := f.Data.Block(b)
	if !bd.Name.IsNumeric() {
		sb.WriteString(bd.Name.String() + ":\n")
	}
	for _, instID := range f.Layout.Insts(b) {
		sb.WriteString("  " + printInst(ts, f, f.Data.Inst(instID)) + "\n")
	}
	return sb.String()
}

// typeOfValue resolves the SSA type an operand value carries, for the
// opcodes whose grammar doesn't redundantly store it in Operand.Types
// (Load/Store/Alloca's count/Br's condition/Call's arguments/GetElementPtr's
// base pointer).
func typeOfValue(f *ir.Function, id ir.ValueID) types.ID {
	return f.Data.Value(id).Type
}

func valRef(f *ir.Function, ts *types.Types, id ir.ValueID) string {
	v := f.Data.Value(id)
	switch v.Kind {
	case value.KindConstant:
		return printConstant(ts, v.Const)
	case value.KindInstResult:
		return "%" + f.Data.Inst(ir.InstID(v.Inst)).Dest.String()
	case value.KindArgument:
		return "%" + f.Params[v.Arg].Name.String()
	case value.KindInlineAsm:
		return "asm " + strconv.Quote(v.Asm)
	default:
		return "<invalid value>"
	}
}

func blockRef(f *ir.Function, id ir.BlockID) string {
	return "%" + f.Data.Block(id).Name.String()
}

func joinAttrs(attrs []ir.Attribute) string {
	parts := lo.Map(attrs, func(a ir.Attribute, _ int) string { return a.String() })
	return strings.Join(parts, " ")
}
