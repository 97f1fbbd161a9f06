package x86_64

import "github.com/vicis-ir/vicis/internal/codegen/regalloc"

// General-purpose registers, System V AMD64 naming. Numbered from 1 so
// the zero value keeps meaning "unassigned" per regalloc.VReg.RealReg's
// doc comment — the same reservation the teacher's arm64 register file
// doesn't need (its w0 starts at iota==0) because this module's VReg
// already carves out 0 as a sentinel at the packed-uint64 level.
const (
	rax regalloc.RealReg = iota + 1
	rcx
	rdx
	rbx
	rsp
	rbp
	rsi
	rdi
	r8
	r9
	r10
	r11
	r12
	r13
	r14
	r15

	numRegs
)

var regNames = [...]string{
	rax: "rax", rcx: "rcx", rdx: "rdx", rbx: "rbx",
	rsp: "rsp", rbp: "rbp", rsi: "rsi", rdi: "rdi",
	r8: "r8", r9: "r9", r10: "r10", r11: "r11",
	r12: "r12", r13: "r13", r14: "r14", r15: "r15",
}

// allocatable excludes rsp/rbp: the stack and frame pointers are reserved
// for the (out-of-scope) prologue/epilogue and stack-slot addressing, so
// the register class and any future allocator never hand them out for an
// ordinary vreg.
var allocatable = []regalloc.RealReg{rax, rcx, rdx, rbx, rsi, rdi, r8, r9, r10, r11, r12, r13, r14, r15}

// argRegs is the System V AMD64 integer argument-passing order
// (arguments beyond the sixth would spill to the stack — out of scope,
// see CopyArgsToVRegs).
var argRegs = []regalloc.RealReg{rdi, rsi, rdx, rcx, r8, r9}

// argRegsWindows is the Microsoft x64 integer argument-passing order —
// only four registers before spilling to the (shadow-space-backed)
// stack, the detail CallConvWindows exists to let a Lowerer branch on
// via isa.RegisterClass.ArgRegListFor instead of hardcoding one ABI.
var argRegsWindows = []regalloc.RealReg{rcx, rdx, r8, r9}

// returnReg is where both System V and Microsoft x64 expect an
// integer/pointer return value (rax) — the two ABIs this target models
// agree here, so unlike argument registers this isn't cc-parameterized.
const returnReg = rax
