// Package regalloc implements the virtual-register and stack-slot
// registries (C9): typed handles the lowering driver (C8) allocates one
// per SSA value it materializes, plus the use-user bookkeeping the
// liveness pass (C10) and spiller (C11) walk.
//
// Grounded on the teacher's packed-uint64 VReg (internal/engine/wazevo/
// backend/vreg.go) and the Rust original's VRegs registry
// (original_source/src/codegen/register/mod.rs).
package regalloc

import "math"

// VReg packs a dense identifier in its low 32 bits and an assigned
// physical register (once regalloc has run) in its high 32 bits, exactly
// as the teacher's VReg does — letting "has this been allocated a real
// register yet" be a single shift-and-compare rather than a separate map
// lookup.
type VReg uint64

// VRegID is the identifier-only view of a VReg, before physical
// assignment.
type VRegID uint32

// RealReg is a physical register number assigned by a later (out of
// scope, see SPEC_FULL.md Non-goals) allocation pass; 0 means unassigned.
type RealReg uint16

const invalidVRegID = VRegID(math.MaxUint32)

// ID returns v's identifier, independent of any physical assignment.
func (v VReg) ID() VRegID { return VRegID(v & 0xffffffff) }

// RealReg returns v's assigned physical register, 0 if none.
func (v VReg) RealReg() RealReg { return RealReg(v >> 32) }

// WithRealReg returns v with r recorded as its physical register.
func (v VReg) WithRealReg(r RealReg) VReg { return VReg(r)<<32 | v&0xffffffff }

// Valid reports whether v names a real (non-sentinel) vreg.
func (v VReg) Valid() bool { return v.ID() != invalidVRegID }

// InvalidVReg is the sentinel (identifier math.MaxUint32) returned by a
// lookup that found nothing. The zero VReg is not this sentinel: it is
// the valid vreg with identifier 0.
var InvalidVReg = VReg(invalidVRegID)
