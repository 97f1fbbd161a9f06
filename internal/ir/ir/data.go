package ir

import (
	"github.com/vicis-ir/vicis/internal/ir/types"
	"github.com/vicis-ir/vicis/internal/ir/value"
)

// Data is a function's arena storage (C4): instructions, values and basic
// blocks each live in their own pool[T], addressed by dense InstID/
// ValueID/BlockID. This mirrors the teacher's ssa.Builder, which keeps
// instructions, values and blocks in three independent pools rather than
// one interleaved node type (internal/engine/wazevo/ssa/builder.go,
// pool.go) — and the Rust original's three-arena ir::Data
// (original_source/src/ir/instruction/mod.rs).
//
// Arena index 0 is reserved and never handed to a real entry in any of
// the three pools, so the zero value of InstID/ValueID/BlockID reliably
// means "none" wherever it is used as a sentinel (an absent alloca count,
// an unlinked layout neighbor, and so on).
type Data struct {
	insts  pool[Instruction]
	values pool[value.Value]
	blocks pool[BasicBlock]
}

func newData() *Data {
	d := &Data{insts: newPool[Instruction](), values: newPool[value.Value](), blocks: newPool[BasicBlock]()}
	d.insts.allocate()
	d.values.allocate()
	d.blocks.allocate()
	return d
}

// Inst returns a live view of the instruction at id.
func (d *Data) Inst(id InstID) *Instruction { return d.insts.view(int(id)) }

// Value returns a live view of the value-arena slot at id.
func (d *Data) Value(id ValueID) *value.Value { return d.values.view(int(id)) }

// Block returns a live view of the basic block at id.
func (d *Data) Block(id BlockID) *BasicBlock { return d.blocks.view(int(id)) }

// CreateInst allocates a new instruction, records its own arena-derived
// id, and registers a use-def edge from every ValueID its Operand
// references (to the producing instruction, when that value is already
// resolved — forward-referenced values are caught up by BindPlaceholder).
func (d *Data) CreateInst(opcode Opcode, operand Operand, parent BlockID) *Instruction {
	inst, idx := d.insts.allocate()
	*inst = Instruction{ID: InstID(idx), Opcode: opcode, Operand: operand, Parent: parent}
	for _, arg := range operand.ValueArgs() {
		d.AddUse(arg, inst.ID)
	}
	return inst
}

// CreateValue allocates a new value-arena slot wrapping v (a resolved
// constant, argument reference, or inline-asm blob — anything whose
// identity doesn't depend on an instruction that doesn't exist yet).
func (d *Data) CreateValue(v value.Value) ValueID {
	slot, idx := d.values.allocate()
	*slot = v
	return ValueID(idx)
}

// CreatePlaceholderValue allocates a value-arena slot for a name seen
// before its defining instruction (spec.md §3, "Forward References"): the
// slot is given provisional InstResult kind pointing at InvalidInst, so
// any operand that already references it can be told apart from a value
// that will never resolve. The returned id's identity never changes —
// BindPlaceholder patches this same slot in place once the real
// instruction exists.
func (d *Data) CreatePlaceholderValue(ty types.ID) ValueID {
	return d.CreateValue(value.FromInstResult(InstRefOf(InvalidInst), ty))
}

// BindPlaceholder patches a previously-created placeholder in place to
// point at the now-known producing instruction, and flushes any uses the
// parser recorded against the placeholder before resolution (see the
// parser's funcCtx.deferredUsers — package ir has no notion of "pending", it only
// provides the mutation + use-registration primitives the parser
// sequences).
func (d *Data) BindPlaceholder(id ValueID, producer InstID, deferredUsers []InstID) {
	slot := d.Value(id)
	slot.Inst = InstRefOf(producer)
	for _, user := range deferredUsers {
		d.AddUse(id, user)
	}
}

// AddUse records that userInst reads the value at id, adding userInst to
// the producing instruction's Users set when id currently resolves to an
// instruction result. Non-instruction values (constants, arguments) have
// no Users set to update.
func (d *Data) AddUse(id ValueID, userInst InstID) {
	v := d.Value(id)
	if v.Kind != value.KindInstResult || v.Inst == InstRefOf(InvalidInst) {
		return
	}
	producer := d.Inst(InstID(v.Inst))
	if producer.Users == nil {
		producer.Users = make(map[InstID]struct{})
	}
	producer.Users[userInst] = struct{}{}
}

// RemoveUse is AddUse's inverse, used when an operand is rewritten to
// reference a different value (spec.md §9).
func (d *Data) RemoveUse(id ValueID, userInst InstID) {
	v := d.Value(id)
	if v.Kind != value.KindInstResult {
		return
	}
	producer := d.Inst(InstID(v.Inst))
	delete(producer.Users, userInst)
}

// ReplaceOperand rewrites every occurrence of oldID with newID across
// inst's Operand (Args, NumElements, Incoming, Callee), updating the
// use-def edges accordingly. Used by the parser when a forward-reference
// placeholder in an already-built Operand needs no rewrite (it's bound in
// place, see BindPlaceholder) but is also available generically for any
// future pass that needs to retarget an IR-level operand.
func (d *Data) ReplaceOperand(inst *Instruction, oldID, newID ValueID) {
	replaced := false
	op := &inst.Operand
	for i, a := range op.Args {
		if a == oldID {
			op.Args[i] = newID
			replaced = true
		}
	}
	if op.NumElements == oldID {
		op.NumElements = newID
		replaced = true
	}
	if op.Callee == oldID {
		op.Callee = newID
		replaced = true
	}
	for i, inc := range op.Incoming {
		if inc.Value == oldID {
			op.Incoming[i].Value = newID
			replaced = true
		}
	}
	if replaced {
		d.RemoveUse(oldID, inst.ID)
		d.AddUse(newID, inst.ID)
	}
}

// ValueArgs enumerates every ValueID this Operand references, for
// CreateInst's initial use-registration pass.
func (op *Operand) ValueArgs() []ValueID {
	ids := append([]ValueID(nil), op.Args...)
	if op.NumElements != InvalidValue {
		ids = append(ids, op.NumElements)
	}
	if op.Callee != InvalidValue {
		ids = append(ids, op.Callee)
	}
	for _, inc := range op.Incoming {
		ids = append(ids, inc.Value)
	}
	return ids
}

// InstRefOf converts an InstID to the value.InstRef the value package
// uses, exploiting their identical underlying representation (see
// value.InstRef's doc comment on the import cycle this avoids).
func InstRefOf(id InstID) value.InstRef { return value.InstRef(id) }
