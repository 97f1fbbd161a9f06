package x86_64

import (
	"github.com/vicis-ir/vicis/internal/codegen/isa"
	"github.com/vicis-ir/vicis/internal/codegen/regalloc"
	"github.com/vicis-ir/vicis/internal/ir/types"
)

// TargetIsa implements isa.TargetIsa for System V AMD64. It carries no
// state of its own — every method is a pure function of its arguments —
// so the zero value is a complete, usable target descriptor.
type TargetIsa struct{}

// New returns the x86_64 target descriptor.
func New() *TargetIsa { return &TargetIsa{} }

func (*TargetIsa) InstInfo() isa.InstructionInfo  { return instInfo{} }
func (*TargetIsa) RegClass() isa.RegisterClass    { return regClass{} }
func (*TargetIsa) Lower() isa.Lowerer             { return lowerer{} }
func (*TargetIsa) SpillCodegen() isa.SpillCodegen { return spillCodegen{} }
func (*TargetIsa) DefaultCallConv() isa.CallConv  { return isa.CallConvSystemV }

// TypeSize returns ty's in-memory size in bytes. Aggregate sizes are
// computed structurally without alignment padding (no struct-layout
// model beyond field order, spec.md §1's Non-goals put a full ABI
// layout algorithm out of scope) — good enough for the stack-slot
// sizing C9/C11 need, not a promise of real System V struct layout.
func (t *TargetIsa) TypeSize(ts *types.Types, ty types.ID) uint32 {
	switch ts.Kind(ty) {
	case types.KindVoid:
		return 0
	case types.KindI1, types.KindI8:
		return 1
	case types.KindI32:
		return 4
	case types.KindI64, types.KindPtr:
		return 8
	case types.KindArray:
		return uint32(ts.ArrayLen(ty)) * t.TypeSize(ts, ts.ElemOf(ty))
	case types.KindStruct:
		var size uint32
		for _, f := range ts.StructFields(ty) {
			size += t.TypeSize(ts, f)
		}
		return size
	case types.KindNamed:
		return t.TypeSize(ts, ts.NamedBody(ty))
	default:
		return 0
	}
}

// ModulePassList returns no module-level passes: this target needs none
// beyond what C8's per-function lowering already produces (no prologue/
// epilogue insertion, no peephole pass — spec.md §1's Non-goal on
// concrete encoding covers both).
func (*TargetIsa) ModulePassList() []func(*regalloc.MachModule) error { return nil }
