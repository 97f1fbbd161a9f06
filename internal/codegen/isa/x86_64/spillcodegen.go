package x86_64

import "github.com/vicis-ir/vicis/internal/codegen/regalloc"

// spillCodegen implements isa.SpillCodegen. src/dst aren't folded into
// the returned MInstr: the spiller (C11) already threads them through
// regalloc.MachInstruction's own Defs/Uses when it calls
// regalloc.MachData.CreateInst, so the opcode payload only needs to name
// which slot.
type spillCodegen struct{}

// StoreToSlot returns the opcode for "store src into slot".
func (spillCodegen) StoreToSlot(slot regalloc.SlotID, src regalloc.VReg) any {
	return MInstr{Op: Store, Slot: slot}
}

// LoadFromSlot returns the opcode for "load slot into dst".
func (spillCodegen) LoadFromSlot(dst regalloc.VReg, slot regalloc.SlotID) any {
	return MInstr{Op: Load, Slot: slot}
}
