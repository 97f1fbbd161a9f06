// Package isa implements the target descriptor (C7): the capability
// bundle a lowering driver (C8) needs from a concrete machine target,
// kept entirely behind interfaces so C8 stays target-agnostic.
//
// Grounded on original_source/codegen/src/codegen/isa/mod.rs's TargetIsa
// trait (InstInfo/RegClass/RegInfo/Lower associated types, plus
// module_pass_list/default_call_conv/type_size) and the teacher's own
// capability-bundle style for the same concern (backend/machine.go's
// Machine interface, backend.CompilationContext).
package isa

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/vicis-ir/vicis/internal/codegen/regalloc"
	"github.com/vicis-ir/vicis/internal/ir/ir"
	"github.com/vicis-ir/vicis/internal/ir/types"
)

// Todo reports a lowering or spilling path deliberately left unimplemented
// for a given opcode/type combination (spec.md §7's error taxonomy) —
// returned by a target hook rather than panicking, so an unsupported
// combination surfaces as an ordinary error. lower.CompileModule stops at
// the first such error and returns no module at all.
type Todo struct {
	Where string // e.g. "x86_64 Lowerer: OpLoad", "spiller: non-i32 vreg"
	Type  types.ID
}

func (e *Todo) Error() string {
	return fmt.Sprintf("%s: unimplemented for type %d", e.Where, e.Type)
}

// CallConv names a calling convention a target descriptor can default to
// (spec.md §5's supplemented ABI surface is deliberately thin: just
// enough to pick argument/return vregs consistently, not a full ABI
// classifier).
type CallConv uint8

const (
	CallConvSystemV CallConv = iota
	CallConvWindows
)

// InstructionInfo is the per-opcode information a target's encoding
// layer must expose about a lowered MachInstruction's Opcode payload —
// kept minimal since this module's Non-goal is concrete encoding/
// emission (spec.md §1), only the def/use accounting other passes need.
type InstructionInfo interface {
	// Name returns the mnemonic used for debug printing.
	Name(opcode any) string
	// IsCopy reports whether opcode is a register-to-register move —
	// the spiller's two-address case (spec.md §4.4) needs to tell a
	// copy-in def apart from the instruction's "real" def when a vreg
	// has two writers (original_source/codegen/src/codegen/pass/
	// spiller.rs's `!inst.data.is_copy()` check).
	IsCopy(opcode any) bool
}

// RegisterClass groups physical registers by the kind of value they can
// hold (general purpose, floating point, ...) and lists which concrete
// registers a class makes available — both for ordinary allocation and,
// parameterized by calling convention, for argument passing. Mirrors
// original_source/src/codegen/register/mod.rs's RegisterClass trait
// (for_type/gpr_list_for/arg_reg_list_for): the vehicle spec.md §4.2
// names for plugging a different target's register file in without
// touching the lowering driver or a later allocator (out of scope).
type RegisterClass interface {
	// ForType returns the register class a value of SSA type ty lives in.
	ForType(ts *types.Types, ty types.ID) int
	// GPRListFor returns every physical register class c makes available
	// for ordinary allocation.
	GPRListFor(c int) []regalloc.RealReg
	// ArgRegListFor returns class c's argument-passing register order
	// under calling convention cc.
	ArgRegListFor(c int, cc CallConv) []regalloc.RealReg
}

// Lowerer is a target's instruction-selection strategy: translating one
// IR instruction into zero or more machine instructions against a
// LoweringContext, plus the entry-block argument-to-vreg prologue.
// Mirrors original_source/codegen/src/codegen/lower/mod.rs's Lower
// trait, factored out of TargetIsa itself (Go has no associated-type
// generics) so a concrete target names its Lowerer as a plain value.
type Lowerer interface {
	LowerInst(ctx *LoweringContext, inst *ir.Instruction) error
	CopyArgsToVRegs(ctx *LoweringContext, params []ir.Parameter) error
}

// LoweringContext is the per-block state threaded through every
// Lowerer.LowerInst/CopyArgsToVRegs call — same fields as the Rust
// original's LoweringContext, minus the ones that don't apply to a
// pointer-passing Go API (no explicit lifetime params needed).
type LoweringContext struct {
	IRData   *ir.Data
	Types    *types.Types
	MachFunc *regalloc.MachFunction
	Block    ir.BlockID
	MachBlock regalloc.MachBlockID

	// InstIDToVReg/ArgIdxToVReg mirror the Rust context's maps translating
	// IR-level identity to the vreg a later instruction should reference.
	InstIDToVReg map[ir.InstID]regalloc.VReg
	ArgIdxToVReg map[int]regalloc.VReg

	// BlockMap translates an IR block to the machine block C8 copied it
	// to, for a Lowerer's branch/terminator opcodes (Br/CondBr/Invoke) to
	// name a jump target.
	BlockMap map[ir.BlockID]regalloc.MachBlockID

	// MergedInst records which IR instructions the lowering driver should
	// skip outright because an earlier Lower call folded them into
	// another machine instruction (spec.md §7's no-side-effects merge
	// heuristic).
	MergedInst map[ir.InstID]bool

	CallConv CallConv

	// RegClass is the target's register-class capability, threaded
	// through so a Lowerer picks argument/return registers by calling
	// into it (ForType + ArgRegListFor/GPRListFor) instead of hardcoding
	// a target-specific register file inline.
	RegClass RegisterClass
}

// TargetBlock resolves an IR branch target to its machine block.
func (ctx *LoweringContext) TargetBlock(b ir.BlockID) (regalloc.MachBlockID, error) {
	mb, ok := ctx.BlockMap[b]
	if !ok {
		return regalloc.InvalidMachBlock, errors.Errorf("isa: block %d has no machine counterpart", b)
	}
	return mb, nil
}

// Emit appends a lowered machine instruction to the current block.
func (ctx *LoweringContext) Emit(opcode any, defs, uses []regalloc.VReg) *regalloc.MachInstruction {
	inst := ctx.MachFunc.Data.CreateInst(opcode, defs, uses)
	ctx.MachFunc.Layout.AppendInst(ctx.MachBlock, inst.ID)
	for _, d := range defs {
		ctx.MachFunc.VRegs.AddUse(d, inst.ID, regalloc.UseWrite)
	}
	for _, u := range uses {
		ctx.MachFunc.VRegs.AddUse(u, inst.ID, regalloc.UseRead)
	}
	return inst
}

// SetResult records that IR instruction id's result now lives in vreg —
// later instructions referencing id as an operand resolve through
// InstIDToVReg instead.
func (ctx *LoweringContext) SetResult(id ir.InstID, vreg regalloc.VReg) {
	ctx.InstIDToVReg[id] = vreg
}

// MarkMerged records that id was folded into another instruction and
// should be skipped when the driver reaches it directly.
func (ctx *LoweringContext) MarkMerged(id ir.InstID) {
	ctx.MergedInst[id] = true
}

// IsMerged reports whether id was already folded into another
// instruction's lowering.
func (ctx *LoweringContext) IsMerged(id ir.InstID) bool {
	return ctx.MergedInst[id]
}

// SpillCodegen is the target-specific fragment the spiller (C11) needs:
// synthesizing the opcode payload for a store-to-slot / load-from-slot
// machine instruction. Mirrors the Rust original's
// InstructionInfo::store_vreg_to_slot/load_from_slot
// (original_source/codegen/src/codegen/pass/spiller.rs), split out of
// InstructionInfo here since Go has no associated-type mechanism to let
// one interface method return "whatever opcode type this target uses".
type SpillCodegen interface {
	// StoreToSlot returns the opcode for "store src into slot".
	StoreToSlot(slot regalloc.SlotID, src regalloc.VReg) any
	// LoadFromSlot returns the opcode for "load slot into dst".
	LoadFromSlot(dst regalloc.VReg, slot regalloc.SlotID) any
}

// TargetIsa is the full capability bundle a concrete target (e.g.
// package isa/x86_64) provides: instruction metadata, register classes,
// a lowering strategy, a default calling convention, a type-size
// function, the spill codegen fragment, and the module-level passes to
// run after every function in a module has been lowered.
type TargetIsa interface {
	InstInfo() InstructionInfo
	RegClass() RegisterClass
	Lower() Lowerer
	SpillCodegen() SpillCodegen

	DefaultCallConv() CallConv
	TypeSize(ts *types.Types, ty types.ID) uint32
	ModulePassList() []func(*regalloc.MachModule) error
}
