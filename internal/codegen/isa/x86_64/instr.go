// Package x86_64 implements a minimal x86_64 target descriptor: just
// enough of isa.TargetIsa (registers, calling convention, instruction
// selection, spill codegen) to make the target-agnostic lowering driver
// (C8), liveness pass (C10) and spiller (C11) concretely exercisable.
// Concrete byte-level instruction encoding is out of scope (spec.md §1
// Non-goals) — MInstr below is the opaque-to-regalloc payload a real
// encoder would consume, not an encoder itself.
//
// Grounded on the teacher's arm64 target (internal/engine/wazevo/
// backend/isa/arm64/{reg,instr}.go): a flat instruction struct tagged by
// a mnemonic enum, carrying only the generic fields a given mnemonic
// needs, the same shallow-union style package ir's own Operand uses
// (spec.md §9 "sum types everywhere", rendered as tagged flat structs).
package x86_64

import "github.com/vicis-ir/vicis/internal/codegen/regalloc"

// Mnemonic is this target's closed opcode set — deliberately small:
// enough integer arithmetic/memory/control-flow shapes to lower every
// ir.Opcode spec.md §4.1 defines, nothing encoding-specific.
type Mnemonic uint16

const (
	MnInvalid Mnemonic = iota

	MovRR // reg <- reg (copy; InstructionInfo.IsCopy reports true only for this)
	MovRI // reg <- immediate
	Load  // reg <- [slot]
	Store // [slot] <- reg
	Lea   // reg <- frame address of slot (Alloca's result)

	Add
	Sub
	IMul
	IDiv
	And
	Or
	Xor
	Shl
	Shr
	Sar

	Cmp
	SetCC // reg <- condition-code byte, zero-extended

	Jmp
	Jcc
	Call
	Ret
)

var mnemonicNames = [...]string{
	MnInvalid: "<invalid>",
	MovRR:     "mov", MovRI: "mov", Load: "mov", Store: "mov", Lea: "lea",
	Add: "add", Sub: "sub", IMul: "imul", IDiv: "idiv",
	And: "and", Or: "or", Xor: "xor", Shl: "shl", Shr: "shr", Sar: "sar",
	Cmp: "cmp", SetCC: "set",
	Jmp: "jmp", Jcc: "j", Call: "call", Ret: "ret",
}

// Cond is a condition code, the x86_64 analog of ir.CmpCond, used by
// Jcc/SetCC. Mirrors the Intel mnemonic suffixes directly rather than
// reusing ir.CmpCond's values, since this target's Cond also needs the
// signed/unsigned distinction spelled out for Name's debug output.
type Cond uint8

const (
	CondInvalid Cond = iota
	CondE
	CondNE
	CondG
	CondGE
	CondL
	CondLE
	CondA
	CondAE
	CondB
	CondBE
)

var condSuffixes = [...]string{
	CondInvalid: "?",
	CondE:       "e", CondNE: "ne",
	CondG: "g", CondGE: "ge", CondL: "l", CondLE: "le",
	CondA: "a", CondAE: "ae", CondB: "b", CondBE: "be",
}

// MInstr is the Opcode payload this target's Lowerer emits into every
// regalloc.MachInstruction: which mnemonic, plus whichever of the
// generic fields that mnemonic actually uses (Imm for MovRI, Slot for
// Load/Store/Lea, Cond for Cmp-then-SetCC/Jcc pairs, Target for
// Jmp/Jcc). Defs/Uses live on the MachInstruction itself, not here —
// see regalloc.MachInstruction's doc comment.
type MInstr struct {
	Op     Mnemonic
	Imm    int64
	Slot   regalloc.SlotID
	Cond   Cond
	Target regalloc.MachBlockID
}

// mnemonic returns m's bare mnemonic, condition suffix folded in for the
// two opcodes whose Intel name depends on it — the text
// InstructionInfo.Name exposes for debug printing.
func mnemonic(m MInstr) string {
	switch m.Op {
	case SetCC:
		return "set" + condSuffixes[m.Cond]
	case Jcc:
		return "j" + condSuffixes[m.Cond]
	default:
		return mnemonicNames[m.Op]
	}
}

// String renders one MInstr for debug printing (--debug in cmd/vicis),
// not for feeding back into any parser — there is no x86_64 assembly
// parser in this module.
func (m MInstr) String() string {
	switch m.Op {
	case MovRI:
		return "mov $imm"
	case Load, Store, Lea:
		return mnemonicNames[m.Op] + " [slot]"
	case Jcc, Jmp, Call:
		return mnemonic(m) + " label"
	default:
		return mnemonic(m)
	}
}
