package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vicis-ir/vicis/internal/ir/name"
	"github.com/vicis-ir/vicis/internal/ir/types"
	"github.com/vicis-ir/vicis/internal/ir/value"
)

// buildRet42 builds `define i32 @main() { entry: ret i32 42 }` directly
// against the arena API, bypassing the parser, to exercise C4/C5 in
// isolation the way spec.md §8 scenario 1 describes.
func buildRet42(ts *types.Types) *Function {
	f := NewFunction()
	f.Name = "main"
	f.RetType = ts.I32()

	entry := f.CreateBlock(name.Sym("entry"))
	fortyTwo := f.Data.CreateValue(value.FromConstant(value.Int(ts.I32(), 42)))
	ret := f.Data.CreateInst(OpRet, Operand{Args: []ValueID{fortyTwo}, Types: []types.ID{ts.I32()}}, entry)
	f.Layout.AppendInst(entry, ret.ID)
	return f
}

func TestRet42Validates(t *testing.T) {
	ts := types.New()
	f := buildRet42(ts)
	require.NoError(t, f.Validate())
	require.Len(t, f.Layout.Blocks(), 1)
}

func TestUseDefEdgeMaintainedOnCreate(t *testing.T) {
	ts := types.New()
	f := NewFunction()
	entry := f.CreateBlock(name.Sym("entry"))

	one := f.Data.CreateValue(value.FromConstant(value.Int(ts.I32(), 1)))
	add := f.Data.CreateInst(OpAdd, Operand{Args: []ValueID{one, one}, Types: []types.ID{ts.I32()}}, entry)
	addName := name.Sym("sum")
	add.Dest = &addName
	f.Layout.AppendInst(entry, add.ID)

	addResult := f.Data.CreateValue(value.FromInstResult(InstRefOf(add.ID), ts.I32()))
	ret := f.Data.CreateInst(OpRet, Operand{Args: []ValueID{addResult}, Types: []types.ID{ts.I32()}}, entry)
	f.Layout.AppendInst(entry, ret.ID)

	require.Contains(t, add.Users, ret.ID)
	require.NoError(t, f.Validate())
}

func TestReplaceOperandUpdatesUseDefEdges(t *testing.T) {
	ts := types.New()
	f := NewFunction()
	entry := f.CreateBlock(name.Sym("entry"))

	oneVal := f.Data.CreateValue(value.FromConstant(value.Int(ts.I32(), 1)))
	twoVal := f.Data.CreateValue(value.FromConstant(value.Int(ts.I32(), 2)))
	add := f.Data.CreateInst(OpAdd, Operand{Args: []ValueID{oneVal, oneVal}, Types: []types.ID{ts.I32()}}, entry)
	f.Layout.AppendInst(entry, add.ID)
	addName := name.Sym("sum")
	add.Dest = &addName

	addResult := f.Data.CreateValue(value.FromInstResult(InstRefOf(add.ID), ts.I32()))
	ret := f.Data.CreateInst(OpRet, Operand{Args: []ValueID{addResult}, Types: []types.ID{ts.I32()}}, entry)
	f.Layout.AppendInst(entry, ret.ID)
	require.Contains(t, add.Users, ret.ID)

	f.Data.ReplaceOperand(ret, addResult, twoVal)
	require.NotContains(t, add.Users, ret.ID)
	require.Equal(t, twoVal, ret.Operand.Args[0])
}

func TestForwardReferencePlaceholderBindsInPlace(t *testing.T) {
	ts := types.New()
	f := NewFunction()
	entry := f.CreateBlock(name.Sym("entry"))
	loop := f.CreateBlock(name.Sym("loop"))

	// A phi in `loop` refers to `%next`, defined later in `loop` itself.
	placeholder := f.Data.CreatePlaceholderValue(ts.I32())
	entryVal := f.Data.CreateValue(value.FromConstant(value.Int(ts.I32(), 0)))
	phi := f.Data.CreateInst(OpPhi, Operand{
		Types:    []types.ID{ts.I32()},
		Incoming: []PhiIncoming{{Value: entryVal, Block: entry}, {Value: placeholder, Block: loop}},
	}, loop)
	phiName := name.Sym("iv")
	phi.Dest = &phiName
	f.Layout.AppendInst(loop, phi.ID)

	one := f.Data.CreateValue(value.FromConstant(value.Int(ts.I32(), 1)))
	phiResult := f.Data.CreateValue(value.FromInstResult(InstRefOf(phi.ID), ts.I32()))
	next := f.Data.CreateInst(OpAdd, Operand{Args: []ValueID{phiResult, one}, Types: []types.ID{ts.I32()}}, loop)
	nextName := name.Sym("next")
	next.Dest = &nextName
	f.Layout.AppendInst(loop, next.ID)

	// Resolve the forward reference: the placeholder used by phi's second
	// incoming pair now points at `next`'s result.
	f.Data.BindPlaceholder(placeholder, next.ID, []InstID{phi.ID})
	require.Contains(t, next.Users, phi.ID)

	br := f.Data.CreateInst(OpBr, Operand{Targets: []BlockID{loop}}, loop)
	f.Layout.AppendInst(loop, br.ID)
	ret := f.Data.CreateInst(OpBr, Operand{Targets: []BlockID{loop}}, entry)
	f.Layout.AppendInst(entry, ret.ID)

	require.NoError(t, f.Validate())
}

func TestPredSuccSymmetryAfterRebuild(t *testing.T) {
	ts := types.New()
	f := NewFunction()
	entry := f.CreateBlock(name.Sym("entry"))
	thenB := f.CreateBlock(name.Sym("then"))
	elseB := f.CreateBlock(name.Sym("else"))

	cond := f.Data.CreateValue(value.FromConstant(value.Int(ts.I1(), 1)))
	condbr := f.Data.CreateInst(OpCondBr, Operand{Args: []ValueID{cond}, Targets: []BlockID{thenB, elseB}}, entry)
	f.Layout.AppendInst(entry, condbr.ID)

	retVoid := func(b BlockID) {
		ret := f.Data.CreateInst(OpRet, Operand{}, b)
		f.Layout.AppendInst(b, ret.ID)
	}
	retVoid(thenB)
	retVoid(elseB)

	f.Layout.RebuildBlockEdges()
	require.ElementsMatch(t, []BlockID{thenB, elseB}, f.Data.Block(entry).Succs)
	require.Equal(t, []BlockID{entry}, f.Data.Block(thenB).Preds)
	require.Equal(t, []BlockID{entry}, f.Data.Block(elseB).Preds)
	require.NoError(t, f.Validate())
}

func TestMissingTerminatorFailsValidate(t *testing.T) {
	ts := types.New()
	f := NewFunction()
	entry := f.CreateBlock(name.Sym("entry"))
	one := f.Data.CreateValue(value.FromConstant(value.Int(ts.I32(), 1)))
	add := f.Data.CreateInst(OpAdd, Operand{Args: []ValueID{one, one}}, entry)
	f.Layout.AppendInst(entry, add.ID)

	err := f.Validate()
	require.ErrorIs(t, err, ErrMissingTerminator)
}

func TestLayoutInsertBeforeSplices(t *testing.T) {
	ts := types.New()
	f := NewFunction()
	entry := f.CreateBlock(name.Sym("entry"))
	one := f.Data.CreateValue(value.FromConstant(value.Int(ts.I32(), 1)))
	ret := f.Data.CreateInst(OpRet, Operand{Args: []ValueID{one}}, entry)
	f.Layout.AppendInst(entry, ret.ID)

	store := f.Data.CreateInst(OpStore, Operand{Args: []ValueID{one, one}}, entry)
	f.Layout.InsertBefore(entry, ret.ID, store.ID)

	got := f.Layout.Insts(entry)
	require.Equal(t, []InstID{store.ID, ret.ID}, got)
}
