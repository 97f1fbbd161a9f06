package spiller

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vicis-ir/vicis/internal/codegen/isa/x86_64"
	"github.com/vicis-ir/vicis/internal/codegen/liveness"
	"github.com/vicis-ir/vicis/internal/codegen/lower"
	"github.com/vicis-ir/vicis/internal/codegen/regalloc"
	"github.com/vicis-ir/vicis/internal/ir/parser"
	"github.com/vicis-ir/vicis/internal/ir/types"
)

// TestSpillSingleDefMultiRead exercises spec.md §8 scenario 3 end to end:
// a single-def vreg read by two different later instructions gets one
// store right after its def and a separate reload right before each of
// its two reads.
func TestSpillSingleDefMultiRead(t *testing.T) {
	m, err := parser.Parse("spill.ll", `define i32 @main() {
entry:
  %a = add i32 1, 2
  %b = add i32 %a, 3
  %c = add i32 %b, %a
  ret i32 %c
}
`)
	require.NoError(t, err)

	target := x86_64.New()
	mm, err := lower.CompileModule(target, m)
	require.NoError(t, err)
	mf := mm.Functions["main"]
	require.NotNil(t, mf)

	block := mf.Layout.Blocks()[0]
	victim := regalloc.InvalidVReg
	for _, id := range mf.Layout.Insts(block) {
		if mf.Data.Inst(id).Opcode.(x86_64.MInstr).Op == x86_64.Add {
			victim = mf.Data.Inst(id).Defs[0]
			break
		}
	}
	require.True(t, victim.Valid(), "expected %%a's add to be the first Add instruction lowered")

	live := liveness.New(mf)
	live.ComputeLiveRanges(victim)

	newVRegs, err := New(mf, live, m.Types).Spill(target, victim)
	require.NoError(t, err)
	require.Len(t, newVRegs, 3, "one store-side vreg plus one reload vreg per read use")

	var stores, loads int
	for _, id := range mf.Layout.Insts(block) {
		switch mf.Data.Inst(id).Opcode.(x86_64.MInstr).Op {
		case x86_64.Store:
			stores++
		case x86_64.Load:
			loads++
		}
	}
	require.Equal(t, 1, stores)
	require.Equal(t, 2, loads)

	require.Nil(t, live.RangeOf(victim), "the spilled vreg's own range is discarded")
	for _, nv := range newVRegs {
		require.NotNil(t, live.RangeOf(nv), "every new vreg gets a freshly computed range")
	}
}

// TestSpillTwoAddressDef exercises spec.md §4.4's two-def case directly
// against the registry (the x86_64 Lowerer never emits a genuine
// two-address instruction itself, so this builds the shape by hand): a
// vreg written first by a copy-in (MovRR, InstructionInfo.IsCopy true)
// and then again by the real instruction. insertStore must attach the
// store after the real def, not the copy-in.
func TestSpillTwoAddressDef(t *testing.T) {
	ts := types.New()
	mf := regalloc.NewMachFunction("main", ts.I32())
	block := mf.Data.CreateBlock()
	mf.Layout.AppendBlock(block)

	src := mf.VRegs.Alloc(ts.I32())
	other := mf.VRegs.Alloc(ts.I32())
	v := mf.VRegs.Alloc(ts.I32())

	copyIn := mf.Data.CreateInst(x86_64.MInstr{Op: x86_64.MovRR}, []regalloc.VReg{v}, []regalloc.VReg{src})
	mf.Layout.AppendInst(block, copyIn.ID)
	mf.VRegs.AddUse(v, copyIn.ID, regalloc.UseWrite)
	mf.VRegs.AddUse(src, copyIn.ID, regalloc.UseRead)

	real := mf.Data.CreateInst(x86_64.MInstr{Op: x86_64.Add}, []regalloc.VReg{v}, []regalloc.VReg{src, other})
	mf.Layout.AppendInst(block, real.ID)
	mf.VRegs.AddUse(v, real.ID, regalloc.UseWrite)
	mf.VRegs.AddUse(src, real.ID, regalloc.UseRead)
	mf.VRegs.AddUse(other, real.ID, regalloc.UseRead)

	user := mf.Data.CreateInst(x86_64.MInstr{Op: x86_64.Ret}, nil, []regalloc.VReg{v})
	mf.Layout.AppendInst(block, user.ID)
	mf.VRegs.AddUse(v, user.ID, regalloc.UseRead)

	live := liveness.New(mf)
	live.ComputeLiveRanges(v)

	target := x86_64.New()
	newVRegs, err := New(mf, live, ts).Spill(target, v)
	require.NoError(t, err)
	require.Len(t, newVRegs, 2, "one store-side vreg plus one reload vreg for the single read")

	storeID := mf.Data.Inst(real.ID).NextID()
	require.NotEqual(t, regalloc.InvalidMachInst, storeID)
	require.Equal(t, x86_64.Store, mf.Data.Inst(storeID).Opcode.(x86_64.MInstr).Op,
		"the store must land after the real (non-copy) def, not the copy-in")

	loadID := mf.Data.Inst(user.ID).PrevID()
	require.NotEqual(t, regalloc.InvalidMachInst, loadID)
	require.Equal(t, x86_64.Load, mf.Data.Inst(loadID).Opcode.(x86_64.MInstr).Op)

	require.Nil(t, live.RangeOf(v))
}
