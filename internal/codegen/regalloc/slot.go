package regalloc

import "github.com/vicis-ir/vicis/internal/ir/types"

// SlotID names one stack-frame slot, the machine-level counterpart of an
// IR `alloca`. The alloca's result itself is a vreg holding the slot's
// address (see x86_64's lowerAlloca). Grounded on
// original_source/src/codegen/slot/mod.rs's Slots arena.
type SlotID uint32

// Slots is a function's typed stack-slot table, addressed by SlotID.
type Slots struct {
	types []types.ID
}

// NewSlots returns an empty slot table.
func NewSlots() *Slots { return &Slots{} }

// Alloc allocates a new slot sized for ty.
func (s *Slots) Alloc(ty types.ID) SlotID {
	id := SlotID(len(s.types))
	s.types = append(s.types, ty)
	return id
}

// TypeOf returns the IR type a slot was allocated to hold.
func (s *Slots) TypeOf(id SlotID) types.ID { return s.types[id] }

// Count returns the number of slots allocated so far.
func (s *Slots) Count() int { return len(s.types) }
