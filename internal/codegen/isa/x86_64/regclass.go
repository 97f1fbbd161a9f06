package x86_64

import (
	"github.com/vicis-ir/vicis/internal/codegen/isa"
	"github.com/vicis-ir/vicis/internal/codegen/regalloc"
	"github.com/vicis-ir/vicis/internal/ir/types"
)

// gpClass is this target's only register class: every scalar type this
// IR model produces (i1/i8/i32/i64/ptr) lives in a general-purpose
// register — there is no floating-point or vector type to need a second
// class (spec.md §1 Non-goals: "no vector types").
const gpClass = 0

// regClass implements isa.RegisterClass.
type regClass struct{}

// ForType always returns gpClass: this target has exactly one.
func (regClass) ForType(ts *types.Types, ty types.ID) int {
	return gpClass
}

// GPRListFor returns every allocatable register in class c; nil for any
// class other than gpClass since none exists.
func (regClass) GPRListFor(c int) []regalloc.RealReg {
	if c != gpClass {
		return nil
	}
	return allocatable
}

// ArgRegListFor returns class c's argument-passing order for calling
// convention cc: System V's rdi/rsi/rdx/rcx/r8/r9, or Microsoft x64's
// rcx/rdx/r8/r9 when cc is CallConvWindows.
func (regClass) ArgRegListFor(c int, cc isa.CallConv) []regalloc.RealReg {
	if c != gpClass {
		return nil
	}
	if cc == isa.CallConvWindows {
		return argRegsWindows
	}
	return argRegs
}
