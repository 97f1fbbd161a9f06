package regalloc

import (
	"github.com/samber/lo"
	"github.com/vicis-ir/vicis/internal/ir/types"
)

// UseKind distinguishes a vreg reference that writes its result from one
// that only reads it — the spiller (C11) partitions an instruction's vreg
// references this way to decide whether a store, a reload, or both are
// needed around it (spec.md §4.4).
type UseKind uint8

const (
	UseRead UseKind = iota
	UseWrite
)

// Use is one (instruction, kind) reference to a vreg, the registry's unit
// of use-user bookkeeping (original_source/src/codegen/register/mod.rs's
// per-vreg use list).
type Use struct {
	Inst MachInstID
	Kind UseKind
}

// Registry is a function's vreg table: each vreg's SSA type (for
// liveness/spill-slot sizing) and its use list, keyed by VRegID.
type Registry struct {
	types []types.ID
	uses  [][]Use
	next  VRegID
}

// NewRegistry returns an empty vreg registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Alloc allocates a fresh vreg of the given SSA type.
func (r *Registry) Alloc(ty types.ID) VReg {
	id := r.next
	r.next++
	r.types = append(r.types, ty)
	r.uses = append(r.uses, nil)
	return VReg(id)
}

// TypeOf returns the SSA type a vreg was allocated with.
func (r *Registry) TypeOf(v VReg) types.ID { return r.types[v.ID()] }

// AddUse records that inst references v as kind (read or write).
func (r *Registry) AddUse(v VReg, inst MachInstID, kind UseKind) {
	id := v.ID()
	r.uses[id] = append(r.uses[id], Use{Inst: inst, Kind: kind})
}

// Uses returns every recorded reference to v, in recording order.
func (r *Registry) Uses(v VReg) []Use { return r.uses[v.ID()] }

// Reads returns the subset of v's uses that only read it.
func (r *Registry) Reads(v VReg) []Use {
	return lo.Filter(r.Uses(v), func(u Use, _ int) bool { return u.Kind == UseRead })
}

// Writes returns the subset of v's uses that write (define) it.
func (r *Registry) Writes(v VReg) []Use {
	return lo.Filter(r.Uses(v), func(u Use, _ int) bool { return u.Kind == UseWrite })
}

// RemoveUses drops every recorded reference v had to inst (used when an
// instruction referencing v is deleted or rewritten, e.g. by the
// spiller).
func (r *Registry) RemoveUses(v VReg, inst MachInstID) {
	id := v.ID()
	r.uses[id] = lo.Filter(r.uses[id], func(u Use, _ int) bool { return u.Inst != inst })
}

// Count returns the number of vregs allocated so far.
func (r *Registry) Count() int { return int(r.next) }
