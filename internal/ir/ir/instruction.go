package ir

import "github.com/vicis-ir/vicis/internal/ir/name"

// Instruction is one arena-resident instruction. Dest is the result's
// Name when the source text names it (`%x = ...`) and nil otherwise,
// which is always the case for void-typed opcodes (Store, Br, CondBr,
// Ret, Resume, Unreachable). The parser assigns no automatic number to
// an unnamed result, and it does not reject a name defined twice (later
// references resolve to the latest definition).
//
// Users is the use-def back-edge set: every other instruction in the
// function whose Operand references this instruction's result, kept
// consistent by Data.AddUse/RemoveUse on every operand mutation (spec.md
// §9's "Users back-edge sets kept consistent on every operand mutation").
// It is lazily allocated since most instructions in real IR have very few
// uses.
type Instruction struct {
	ID      InstID
	Opcode  Opcode
	Operand Operand
	Dest    *name.Name
	Parent  BlockID

	Users map[InstID]struct{}

	// prev/next form the function's instruction layout order, independent
	// of arena index (see layout.go); zero means "no neighbor in this
	// direction" — Layout.InstBefore/InstAfter report that explicitly
	// rather than aliasing InvalidInst with a real id 0 slot, which is why
	// Data reserves arena slot 0 (see newData).
	prev, next InstID
}

// HasResult reports whether this instruction produces a usable value.
func (i *Instruction) HasResult() bool { return i.Dest != nil }
