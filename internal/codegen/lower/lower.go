// Package lower implements the lowering driver (C8): translating a
// parsed IR module into a regalloc.MachModule by walking each function's
// blocks in layout order and its instructions in a deliberate two-pass,
// partly-reversed order that lets a target's Lowerer fold side-effect-
// free producers whose every user lives in the same block directly into
// the consumer that first needs them.
//
// Grounded on original_source/codegen/src/codegen/lower/mod.rs's
// compile_function (the exact "alloca/phi prologue pass, then reverse
// walk with a merged-instruction marker set, then reverse the emitted
// sequence back" structure) and the teacher's backend/compiler.go
// (lowerBlock's reverse Prev()-walk, assignVirtualRegisters).
package lower

import (
	"github.com/vicis-ir/vicis/internal/codegen/isa"
	"github.com/vicis-ir/vicis/internal/codegen/regalloc"
	"github.com/vicis-ir/vicis/internal/ir/ir"
	"github.com/vicis-ir/vicis/internal/ir/module"
	"github.com/vicis-ir/vicis/internal/ir/types"
)

// CompileModule lowers every function in m against target, then runs the
// target's module-level passes (spec.md §5's supplemented module-pass
// hook) over the result.
func CompileModule(target isa.TargetIsa, m *module.Module) (*regalloc.MachModule, error) {
	mm := regalloc.NewMachModule()
	mm.Name = m.SourceFilename
	mm.SourceFilename = m.SourceFilename
	mm.TargetDatalayout = m.TargetDatalayout
	mm.TargetTriple = m.TargetTriple
	mm.Types = m.Types

	for _, f := range m.FunctionsInOrder() {
		mf, err := CompileFunction(target, m.Types, f)
		if err != nil {
			return nil, err
		}
		mm.AddFunction(mf)
	}
	for _, pass := range target.ModulePassList() {
		if err := pass(mm); err != nil {
			return nil, err
		}
	}
	return mm, nil
}

// CompileFunction lowers one IR function. A declaration (no body) lowers
// to a body-less MachFunction with no blocks, mirroring ir.Function's
// own IsDecl handling. ts is the owning module's type interner, threaded
// through to the Lowerer via LoweringContext.Types since a few opcodes
// (Alloca, GetElementPtr) need to intern a new pointer type to name
// their result's SSA type.
func CompileFunction(target isa.TargetIsa, ts *types.Types, f *ir.Function) (*regalloc.MachFunction, error) {
	mf := regalloc.NewMachFunction(f.Name, f.RetType)
	mf.IsDecl = f.IsDecl
	if f.IsDecl {
		return mf, nil
	}

	blockMap := make(map[ir.BlockID]regalloc.MachBlockID, len(f.Layout.Blocks()))
	for _, b := range f.Layout.Blocks() {
		blockMap[b] = mf.Data.CreateBlock()
		mf.Layout.AppendBlock(blockMap[b])
	}
	for _, b := range f.Layout.Blocks() {
		bd := f.Data.Block(b)
		nb := mf.Data.Block(blockMap[b])
		for _, p := range bd.Preds {
			nb.Preds = append(nb.Preds, blockMap[p])
		}
		for _, s := range bd.Succs {
			nb.Succs = append(nb.Succs, blockMap[s])
		}
	}

	ctx := &isa.LoweringContext{
		IRData:       f.Data,
		Types:        ts,
		MachFunc:     mf,
		InstIDToVReg: make(map[ir.InstID]regalloc.VReg),
		ArgIdxToVReg: make(map[int]regalloc.VReg),
		MergedInst:   make(map[ir.InstID]bool),
		BlockMap:     blockMap,
		CallConv:     target.DefaultCallConv(),
		RegClass:     target.RegClass(),
	}

	for i, b := range f.Layout.Blocks() {
		ctx.Block = b
		ctx.MachBlock = blockMap[b]

		if i == 0 {
			if err := target.Lower().CopyArgsToVRegs(ctx, f.Params); err != nil {
				return nil, err
			}
			for idx, vreg := range ctx.ArgIdxToVReg {
				mf.ArgVReg[idx] = vreg
			}
		}

		// Prologue pass, entry block only: its leading alloca/phi
		// instructions, in forward order
		// (original_source/codegen/src/codegen/lower/mod.rs's "Only handle
		// Alloca and Phi insts" loop — both opcodes only ever appear at a
		// block's head, spec.md §3's invariant, so this loop naturally
		// stops at the first non-alloca/non-phi instruction). In every
		// other block head stays 0 and the reverse pass lowers them all.
		insts := f.Layout.Insts(b)
		head := 0
		for ; i == 0 && head < len(insts); head++ {
			inst := f.Data.Inst(insts[head])
			if inst.Opcode != ir.OpAlloca && inst.Opcode != ir.OpPhi {
				break
			}
			if ctx.IsMerged(inst.ID) {
				continue
			}
			if err := target.Lower().LowerInst(ctx, inst); err != nil {
				return nil, err
			}
		}

		// Reverse pass over the rest of the block: a side-effect-free
		// producer whose every user lives in this same block is skipped
		// here and left for its consumer's LowerInst call to fold in
		// directly (spec.md §7's merge heuristic). Each LowerInst call's
		// output is detached right after it runs and replayed in reverse
		// processing order below, restoring forward program order without
		// disturbing the order within any single call's own emission.
		prologueMark := mf.Layout.TailMark(ctx.MachBlock)
		var groups []instGroup
		for i := len(insts) - 1; i >= head; i-- {
			inst := f.Data.Inst(insts[i])
			if ctx.IsMerged(inst.ID) {
				continue
			}
			if !inst.Opcode.HasSideEffects() && allUsersInBlock(f, inst) {
				continue
			}
			if err := target.Lower().LowerInst(ctx, inst); err != nil {
				return nil, err
			}
			if gHead, gTail := mf.Layout.DetachGroupAfter(ctx.MachBlock, prologueMark); gHead != regalloc.InvalidMachInst {
				groups = append(groups, instGroup{head: gHead, tail: gTail})
			}
		}
		for i := len(groups) - 1; i >= 0; i-- {
			mf.Layout.AppendGroup(ctx.MachBlock, groups[i].head, groups[i].tail)
		}
	}
	return mf, nil
}

// instGroup is the machine-instruction run one LowerInst call produced,
// held aside until the reverse walk finishes so it can be replayed in
// forward program order.
type instGroup struct {
	head, tail regalloc.MachInstID
}

// allUsersInBlock reports whether every recorded user of inst's result
// lives in the same block inst does — the condition under which the
// reverse-walk lowering pass defers inst's translation to its consumer
// instead of emitting it directly (spec.md §7).
func allUsersInBlock(f *ir.Function, inst *ir.Instruction) bool {
	for user := range inst.Users {
		if f.Data.Inst(user).Parent != inst.Parent {
			return false
		}
	}
	return true
}
