package regalloc

import "github.com/vicis-ir/vicis/internal/ir/types"

// MachInstID, MachBlockID address the machine-level arenas the same way
// InstID/BlockID address package ir's — dense, arena-stable, with slot 0
// reserved as "none".
type MachInstID uint32
type MachBlockID uint32

const (
	InvalidMachInst  MachInstID  = 0
	InvalidMachBlock MachBlockID = 0
)

// MachInstruction is one lowered machine instruction. Opcode is an
// isa-specific value (opaque to this package — the x86_64 target
// descriptor defines its own concrete opcode enum and type-asserts
// Opcode's dynamic type); Defs/Uses are populated by the lowering pass so
// the liveness pass (C10) and spiller (C11) never need isa-specific
// knowledge to find a machine instruction's vreg operands.
type MachInstruction struct {
	ID     MachInstID
	Opcode any
	Defs   []VReg
	Uses   []VReg
	Block  MachBlockID

	prev, next MachInstID
}

// NextID returns inst's layout successor, or InvalidMachInst at a
// block's tail.
func (inst *MachInstruction) NextID() MachInstID { return inst.next }

// PrevID returns inst's layout predecessor, or InvalidMachInst at a
// block's head.
func (inst *MachInstruction) PrevID() MachInstID { return inst.prev }

// MachBasicBlock is an arena-resident machine block descriptor, Preds/
// Succs mirrored from the IR block it was lowered from (C8 copies them
// once, up front — unlike package ir's Layout, the machine layer's CFG
// shape never changes after lowering, so there's no RebuildBlockEdges
// pass to rerun).
type MachBasicBlock struct {
	ID    MachBlockID
	Preds []MachBlockID
	Succs []MachBlockID

	prev, next MachBlockID
}

// MachData is the machine function's arena storage, structurally the
// machine-level analog of ir.Data.
type MachData struct {
	insts  pool[MachInstruction]
	blocks pool[MachBasicBlock]
}

func newMachData() *MachData {
	d := &MachData{insts: newPool[MachInstruction](), blocks: newPool[MachBasicBlock]()}
	d.insts.allocate()
	d.blocks.allocate()
	return d
}

func (d *MachData) Inst(id MachInstID) *MachInstruction   { return d.insts.view(int(id)) }
func (d *MachData) Block(id MachBlockID) *MachBasicBlock  { return d.blocks.view(int(id)) }
func (d *MachData) CreateBlock() MachBlockID {
	b, idx := d.blocks.allocate()
	b.ID = MachBlockID(idx)
	return b.ID
}
func (d *MachData) CreateInst(opcode any, defs, uses []VReg) *MachInstruction {
	inst, idx := d.insts.allocate()
	*inst = MachInstruction{ID: MachInstID(idx), Opcode: opcode, Defs: defs, Uses: uses}
	return inst
}

// MachLayout is the machine function's doubly-linked program order,
// structurally identical to ir.Layout (see its doc comment) but over the
// machine-level arena.
type MachLayout struct {
	data *MachData

	firstBlock, lastBlock MachBlockID
	firstInst, lastInst   map[MachBlockID]MachInstID
}

func newMachLayout(data *MachData) *MachLayout {
	return &MachLayout{data: data, firstInst: make(map[MachBlockID]MachInstID), lastInst: make(map[MachBlockID]MachInstID)}
}

func (l *MachLayout) AppendBlock(id MachBlockID) {
	if l.firstBlock == InvalidMachBlock {
		l.firstBlock = id
	} else {
		l.data.Block(l.lastBlock).next = id
		l.data.Block(id).prev = l.lastBlock
	}
	l.lastBlock = id
}

func (l *MachLayout) Blocks() []MachBlockID {
	var out []MachBlockID
	for b := l.firstBlock; b != InvalidMachBlock; b = l.data.Block(b).next {
		out = append(out, b)
	}
	return out
}

// AppendInst appends inst to the end of block's instruction sublist.
func (l *MachLayout) AppendInst(block MachBlockID, inst MachInstID) {
	instData := l.data.Inst(inst)
	instData.Block = block
	if tail, ok := l.lastInst[block]; ok {
		l.data.Inst(tail).next = inst
		instData.prev = tail
	} else {
		l.firstInst[block] = inst
	}
	l.lastInst[block] = inst
}

// InsertBefore splices inst immediately before mark — the spiller's core
// primitive (spec.md §4.4's "insert a store/reload instruction adjacent
// to a given instruction").
func (l *MachLayout) InsertBefore(block MachBlockID, mark, inst MachInstID) {
	instData := l.data.Inst(inst)
	markData := l.data.Inst(mark)
	instData.Block = block
	instData.prev = markData.prev
	instData.next = mark
	if markData.prev != InvalidMachInst {
		l.data.Inst(markData.prev).next = inst
	} else {
		l.firstInst[block] = inst
	}
	markData.prev = inst
}

// InsertAfter splices inst immediately after mark.
func (l *MachLayout) InsertAfter(block MachBlockID, mark, inst MachInstID) {
	instData := l.data.Inst(inst)
	markData := l.data.Inst(mark)
	instData.Block = block
	instData.next = markData.next
	instData.prev = mark
	if markData.next != InvalidMachInst {
		l.data.Inst(markData.next).prev = inst
	} else {
		l.lastInst[block] = inst
	}
	markData.next = inst
}

// Insts returns block's instructions in layout order.
func (l *MachLayout) Insts(block MachBlockID) []MachInstID {
	var out []MachInstID
	for i := l.firstInst[block]; i != InvalidMachInst; i = l.data.Inst(i).next {
		out = append(out, i)
	}
	return out
}

// TailMark returns block's current last instruction, or InvalidMachInst if
// block has none yet — a checkpoint package lower's reverse-walk lowering
// pass takes before each LowerInst call so it can later detach exactly the
// instructions that one call appended.
func (l *MachLayout) TailMark(block MachBlockID) MachInstID {
	return l.lastInst[block]
}

// DetachGroupAfter unlinks every instruction appended to block strictly
// after mark (or all of block's instructions if mark is InvalidMachInst)
// and returns that run as a standalone chain's (head, tail), leaving block
// ending at mark. Used by package lower to pull a just-lowered IR
// instruction's machine instructions back out of the block immediately
// after emitting them, so they can be replayed in forward order once the
// whole reverse walk finishes.
func (l *MachLayout) DetachGroupAfter(block MachBlockID, mark MachInstID) (head, tail MachInstID) {
	if mark == InvalidMachInst {
		head = l.firstInst[block]
	} else {
		head = l.data.Inst(mark).next
	}
	if head == InvalidMachInst {
		return InvalidMachInst, InvalidMachInst
	}
	tail = l.lastInst[block]
	l.data.Inst(head).prev = InvalidMachInst
	if mark == InvalidMachInst {
		delete(l.firstInst, block)
		delete(l.lastInst, block)
	} else {
		l.data.Inst(mark).next = InvalidMachInst
		l.lastInst[block] = mark
	}
	return head, tail
}

// AppendGroup reattaches a chain previously returned by DetachGroupAfter to
// the end of block, preserving the chain's own internal order.
func (l *MachLayout) AppendGroup(block MachBlockID, head, tail MachInstID) {
	for i := head; i != InvalidMachInst; i = l.data.Inst(i).next {
		l.data.Inst(i).Block = block
	}
	if cur, ok := l.lastInst[block]; ok {
		l.data.Inst(cur).next = head
		l.data.Inst(head).prev = cur
	} else {
		l.firstInst[block] = head
	}
	l.lastInst[block] = tail
}

// MachFunction is one lowered function: its machine-level arena/layout,
// its vreg and slot registries, and the signature carried over from the
// IR function it was lowered from.
type MachFunction struct {
	Name    string
	RetType types.ID
	IsDecl  bool

	Data   *MachData
	Layout *MachLayout

	VRegs *Registry
	Slots *Slots

	// ArgVReg maps a parameter's positional index to the vreg the
	// prologue copies it into (C8's copy_args_to_vregs).
	ArgVReg map[int]VReg
}

// NewMachFunction allocates an empty machine function body.
func NewMachFunction(name string, retTy types.ID) *MachFunction {
	d := newMachData()
	return &MachFunction{
		Name: name, RetType: retTy,
		Data: d, Layout: newMachLayout(d),
		VRegs: NewRegistry(), Slots: NewSlots(),
		ArgVReg: make(map[int]VReg),
	}
}
