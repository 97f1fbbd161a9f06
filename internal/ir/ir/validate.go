package ir

import (
	"github.com/pkg/errors"
	"github.com/vicis-ir/vicis/internal/ir/value"
)

// Structural errors returned by Function.Validate, exercised directly by
// the Testable Properties in spec.md §8 (use-set invariants, pred/succ
// symmetry, terminator/phi placement).
var (
	ErrMissingTerminator = errors.New("basic block does not end in a terminator")
	ErrPhiNotAtHead      = errors.New("phi instruction is not at the head of its block")
	ErrPredSuccMismatch  = errors.New("predecessor/successor edge asymmetry")
	ErrDanglingUse       = errors.New("use recorded against a value with no corresponding operand")
)

// Validate checks every structural invariant this package is responsible
// for maintaining: each block's instruction sublist ends in exactly one
// terminator, any phi instructions are confined to a contiguous run at
// the block's head, Preds/Succs are rebuilt and mutually consistent, and
// every instruction's Users set only contains instructions that actually
// reference it. Called by the parser after a function body is fully
// built (spec.md §4.2), and by tests exercising C4/C5 in isolation.
func (f *Function) Validate() error {
	if f.IsDecl {
		return nil
	}
	f.Layout.RebuildBlockEdges()
	for _, b := range f.Layout.Blocks() {
		if err := f.validateBlock(b); err != nil {
			return err
		}
	}
	if err := f.validatePredSuccSymmetry(); err != nil {
		return err
	}
	return f.validateUseDefSymmetry()
}

func (f *Function) validateBlock(b BlockID) error {
	insts := f.Layout.Insts(b)
	if len(insts) == 0 {
		return errors.WithStack(ErrMissingTerminator)
	}
	seenNonPhi := false
	for i, id := range insts {
		inst := f.Data.Inst(id)
		if inst.Opcode == OpPhi {
			if seenNonPhi {
				return errors.WithStack(ErrPhiNotAtHead)
			}
			continue
		}
		seenNonPhi = true
		last := i == len(insts)-1
		if inst.Opcode.IsTerminator() != last {
			return errors.WithStack(ErrMissingTerminator)
		}
	}
	return nil
}

func (f *Function) validatePredSuccSymmetry() error {
	for _, b := range f.Layout.Blocks() {
		bd := f.Data.Block(b)
		for _, s := range bd.Succs {
			if !blockListContains(f.Data.Block(s).Preds, b) {
				return errors.WithStack(ErrPredSuccMismatch)
			}
		}
		for _, p := range bd.Preds {
			if !blockListContains(f.Data.Block(p).Succs, b) {
				return errors.WithStack(ErrPredSuccMismatch)
			}
		}
	}
	return nil
}

func (f *Function) validateUseDefSymmetry() error {
	for _, b := range f.Layout.Blocks() {
		for _, id := range f.Layout.Insts(b) {
			inst := f.Data.Inst(id)
			for user := range inst.Users {
				if !instReferences(f, user, id) {
					return errors.WithStack(ErrDanglingUse)
				}
			}
		}
	}
	return nil
}

// instReferences reports whether the instruction at userID has at least
// one operand value resolving to producerID's result.
func instReferences(f *Function, userID, producerID InstID) bool {
	user := f.Data.Inst(userID)
	for _, arg := range user.Operand.ValueArgs() {
		v := f.Data.Value(arg)
		if v.Kind == value.KindInstResult && InstID(v.Inst) == producerID {
			return true
		}
	}
	return false
}

func blockListContains(list []BlockID, target BlockID) bool {
	for _, b := range list {
		if b == target {
			return true
		}
	}
	return false
}
