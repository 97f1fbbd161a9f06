package printer

import (
	"strconv"
	"strings"

	"github.com/vicis-ir/vicis/internal/ir/ir"
	"github.com/vicis-ir/vicis/internal/ir/types"
)

// keywordByOpcode is the int-binary family's mnemonic table, the inverse
// of parser/instruction.go's opcodeByKeyword.
var keywordByOpcode = map[ir.Opcode]string{
	ir.OpAdd: "add", ir.OpSub: "sub", ir.OpMul: "mul",
	ir.OpSDiv: "sdiv", ir.OpUDiv: "udiv",
	ir.OpSRem: "srem", ir.OpURem: "urem",
	ir.OpAnd: "and", ir.OpOr: "or", ir.OpXor: "xor",
	ir.OpShl: "shl", ir.OpLShr: "lshr", ir.OpAShr: "ashr",
}

// keywordByCond is the inverse of parser/instruction.go's cmpCondByKeyword.
var keywordByCond = map[ir.CmpCond]string{
	ir.CmpEq: "eq", ir.CmpNe: "ne",
	ir.CmpSgt: "sgt", ir.CmpSge: "sge", ir.CmpSlt: "slt", ir.CmpSle: "sle",
	ir.CmpUgt: "ugt", ir.CmpUge: "uge", ir.CmpUlt: "ult", ir.CmpUle: "ule",
}

// printInst renders one instruction, production for production against
// the opcode's parse function in parser/instruction.go.
func printInst(ts *types.Types, f *ir.Function, inst *ir.Instruction) string {
	var prefix string
	if inst.HasResult() {
		prefix = "%" + inst.Dest.String() + " = "
	}
	return prefix + printInstBody(ts, f, inst)
}

func printInstBody(ts *types.Types, f *ir.Function, inst *ir.Instruction) string {
	op := &inst.Operand
	if kw, ok := keywordByOpcode[inst.Opcode]; ok {
		return printIntBinary(ts, f, kw, op)
	}
	switch inst.Opcode {
	case ir.OpAlloca:
		return printAlloca(ts, f, op)
	case ir.OpLoad:
		return printLoad(ts, f, op)
	case ir.OpStore:
		return printStore(ts, f, op)
	case ir.OpICmp:
		return printICmp(ts, f, op)
	case ir.OpGetElementPtr:
		return printGEP(ts, f, op)
	case ir.OpBitCast:
		return printBitCast(ts, f, op)
	case ir.OpCall:
		return printCall(ts, f, op)
	case ir.OpInvoke:
		return printInvoke(ts, f, op)
	case ir.OpPhi:
		return printPhi(ts, f, op)
	case ir.OpBr:
		return "br label " + blockRef(f, op.Targets[0])
	case ir.OpCondBr:
		return printCondBr(ts, f, op)
	case ir.OpRet:
		return printRet(ts, f, op)
	case ir.OpLandingPad:
		return printLandingPad(ts, op)
	case ir.OpResume:
		return "resume " + ts.Format(op.Types[0]) + " " + valRef(f, ts, op.Args[0])
	case ir.OpUnreachable:
		return "unreachable"
	default:
		return "<unknown opcode>"
	}
}

func printAlloca(ts *types.Types, f *ir.Function, op *ir.Operand) string {
	s := "alloca " + ts.Format(op.Types[0])
	if op.NumElements != ir.InvalidValue {
		s += ", " + ts.Format(typeOfValue(f, op.NumElements)) + " " + valRef(f, ts, op.NumElements)
	}
	if op.Align != 0 {
		s += ", align " + strconv.FormatUint(uint64(op.Align), 10)
	}
	return s
}

func printLoad(ts *types.Types, f *ir.Function, op *ir.Operand) string {
	ptr := op.Args[0]
	s := "load " + ts.Format(op.Types[0]) + ", " + ts.Format(typeOfValue(f, ptr)) + " " + valRef(f, ts, ptr)
	if op.Align != 0 {
		s += ", align " + strconv.FormatUint(uint64(op.Align), 10)
	}
	return s
}

// printStore mirrors parseStore's grammar: the value is written before the
// pointer in source text, but Operand.Args stores [ptr, val] (parseStore
// parses the value first, yet appends it second) — so the printed order
// deliberately differs from Args' order.
func printStore(ts *types.Types, f *ir.Function, op *ir.Operand) string {
	ptr, val := op.Args[0], op.Args[1]
	s := "store " + ts.Format(op.Types[0]) + " " + valRef(f, ts, val) +
		", " + ts.Format(typeOfValue(f, ptr)) + " " + valRef(f, ts, ptr)
	if op.Align != 0 {
		s += ", align " + strconv.FormatUint(uint64(op.Align), 10)
	}
	return s
}

func printIntBinary(ts *types.Types, f *ir.Function, keyword string, op *ir.Operand) string {
	var flags strings.Builder
	if op.NUW {
		flags.WriteString("nuw ")
	}
	if op.NSW {
		flags.WriteString("nsw ")
	}
	if op.Exact {
		flags.WriteString("exact ")
	}
	return keyword + " " + flags.String() + ts.Format(op.Types[0]) + " " +
		valRef(f, ts, op.Args[0]) + ", " + valRef(f, ts, op.Args[1])
}

func printICmp(ts *types.Types, f *ir.Function, op *ir.Operand) string {
	return "icmp " + keywordByCond[op.Cond] + " " + ts.Format(op.Types[0]) + " " +
		valRef(f, ts, op.Args[0]) + ", " + valRef(f, ts, op.Args[1])
}

// printGEP mirrors parseGEPInst: Types[0] is the aggregate type (paired
// with no argument), Types[1:] pair with Args[1:]; the base pointer's own
// type (paired with Args[0]) is read off the value itself, matching the
// same omission the constant form's GEPTypes[0] makes.
func printGEP(ts *types.Types, f *ir.Function, op *ir.Operand) string {
	var sb strings.Builder
	sb.WriteString("getelementptr ")
	if op.Inbounds {
		sb.WriteString("inbounds ")
	}
	sb.WriteString(ts.Format(op.Types[0]))
	sb.WriteString(", ")
	sb.WriteString(ts.Format(typeOfValue(f, op.Args[0])))
	sb.WriteString(" ")
	sb.WriteString(valRef(f, ts, op.Args[0]))
	for i := 1; i < len(op.Args); i++ {
		sb.WriteString(", ")
		sb.WriteString(ts.Format(op.Types[i]))
		sb.WriteString(" ")
		sb.WriteString(valRef(f, ts, op.Args[i]))
	}
	return sb.String()
}

func printBitCast(ts *types.Types, f *ir.Function, op *ir.Operand) string {
	return "bitcast " + ts.Format(op.Types[0]) + " " + valRef(f, ts, op.Args[0]) +
		" to " + ts.Format(op.Types[1])
}

func printCallee(ts *types.Types, f *ir.Function, op *ir.Operand) string {
	return valRef(f, ts, op.Callee)
}

func printCallArgs(ts *types.Types, f *ir.Function, op *ir.Operand) string {
	parts := make([]string, len(op.Args))
	for i, arg := range op.Args {
		s := ts.Format(typeOfValue(f, arg))
		if i < len(op.CallArgAttrs) && len(op.CallArgAttrs[i]) > 0 {
			s += " " + joinAttrs(op.CallArgAttrs[i])
		}
		s += " " + valRef(f, ts, arg)
		parts[i] = s
	}
	return strings.Join(parts, ", ")
}

func printCall(ts *types.Types, f *ir.Function, op *ir.Operand) string {
	s := "call " + ts.Format(op.Types[0]) + " " + printCallee(ts, f, op) +
		"(" + printCallArgs(ts, f, op) + ")"
	if len(op.Attrs) > 0 {
		s += " " + joinAttrs(op.Attrs)
	}
	return s
}

func printInvoke(ts *types.Types, f *ir.Function, op *ir.Operand) string {
	s := "invoke " + ts.Format(op.Types[0]) + " " + printCallee(ts, f, op) +
		"(" + printCallArgs(ts, f, op) + ")"
	if len(op.Attrs) > 0 {
		s += " " + joinAttrs(op.Attrs)
	}
	s += " to label " + blockRef(f, op.InvokeNormal) + " unwind label " + blockRef(f, op.InvokeUnwind)
	return s
}

func printPhi(ts *types.Types, f *ir.Function, op *ir.Operand) string {
	parts := make([]string, len(op.Incoming))
	for i, inc := range op.Incoming {
		parts[i] = "[ " + valRef(f, ts, inc.Value) + ", " + blockRef(f, inc.Block) + " ]"
	}
	return "phi " + ts.Format(op.Types[0]) + " " + strings.Join(parts, ", ")
}

func printCondBr(ts *types.Types, f *ir.Function, op *ir.Operand) string {
	cond := op.Args[0]
	return "br " + ts.Format(typeOfValue(f, cond)) + " " + valRef(f, ts, cond) +
		", label " + blockRef(f, op.Targets[0]) + ", label " + blockRef(f, op.Targets[1])
}

func printRet(ts *types.Types, f *ir.Function, op *ir.Operand) string {
	if len(op.Args) == 0 {
		return "ret void"
	}
	return "ret " + ts.Format(op.Types[0]) + " " + valRef(f, ts, op.Args[0])
}

func printLandingPad(ts *types.Types, op *ir.Operand) string {
	s := "landingpad " + ts.Format(op.Types[0])
	if op.Cleanup {
		s += " cleanup"
	}
	return s
}
