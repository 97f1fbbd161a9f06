package ir

import "github.com/samber/lo"

// Layout is a function's doubly-linked program order: block order and,
// within each block, instruction order. It is deliberately independent of
// arena allocation order (spec.md §9) so that the spiller (C11) can
// splice a store/reload in before or after any instruction in O(1)
// without touching the instruction's arena slot or id, and so the parser
// can allocate an instruction's arena slot (resolving its name) before
// it decides where in the block the instruction belongs.
//
// Grounded on the teacher's layout list embedded in ssa.BasicBlock
// (internal/engine/wazevo/ssa/basic_block.go, the rootInstr/currentInstr
// linked list) generalized here into its own type since our spiller
// needs to splice blocks of instructions, not just append one.
type Layout struct {
	data *Data

	firstBlock, lastBlock BlockID

	// firstInst/lastInst are indexed by BlockID, giving each block's
	// instruction sublist head/tail.
	firstInst, lastInst map[BlockID]InstID
}

func newLayout(data *Data) *Layout {
	return &Layout{data: data, firstInst: make(map[BlockID]InstID), lastInst: make(map[BlockID]InstID)}
}

// AppendBlock links a newly created block onto the end of the function's
// block order.
func (l *Layout) AppendBlock(id BlockID) {
	if l.firstBlock == InvalidBlock {
		l.firstBlock = id
	} else {
		tail := l.data.Block(l.lastBlock)
		tail.next = id
		l.data.Block(id).prev = l.lastBlock
	}
	l.lastBlock = id
}

// Blocks returns the block order as a slice, head to tail.
func (l *Layout) Blocks() []BlockID {
	var out []BlockID
	for b := l.firstBlock; b != InvalidBlock; b = l.data.Block(b).next {
		out = append(out, b)
	}
	return out
}

// BlockAfter/BlockBefore report a block's layout neighbor, ok=false at
// either end.
func (l *Layout) BlockAfter(id BlockID) (BlockID, bool) {
	n := l.data.Block(id).next
	return n, n != InvalidBlock
}

func (l *Layout) BlockBefore(id BlockID) (BlockID, bool) {
	p := l.data.Block(id).prev
	return p, p != InvalidBlock
}

// AppendInst appends inst to the end of block's instruction sublist.
func (l *Layout) AppendInst(block BlockID, inst InstID) {
	instData := l.data.Inst(inst)
	instData.Parent = block
	if tail, ok := l.lastInst[block]; ok {
		l.data.Inst(tail).next = inst
		instData.prev = tail
	} else {
		l.firstInst[block] = inst
	}
	l.lastInst[block] = inst
}

// InsertBefore splices inst into block's sublist immediately before mark.
func (l *Layout) InsertBefore(block BlockID, mark, inst InstID) {
	instData := l.data.Inst(inst)
	markData := l.data.Inst(mark)
	instData.Parent = block
	instData.prev = markData.prev
	instData.next = mark
	if markData.prev != InvalidInst {
		l.data.Inst(markData.prev).next = inst
	} else {
		l.firstInst[block] = inst
	}
	markData.prev = inst
}

// InsertAfter splices inst into block's sublist immediately after mark.
func (l *Layout) InsertAfter(block BlockID, mark, inst InstID) {
	instData := l.data.Inst(inst)
	markData := l.data.Inst(mark)
	instData.Parent = block
	instData.next = markData.next
	instData.prev = mark
	if markData.next != InvalidInst {
		l.data.Inst(markData.next).prev = inst
	} else {
		l.lastInst[block] = inst
	}
	markData.next = inst
}

// Remove unlinks inst from its block's sublist without freeing its arena
// slot (the slot is never freed; arenas only grow, matching the teacher's
// pool[T]).
func (l *Layout) Remove(inst InstID) {
	instData := l.data.Inst(inst)
	block := instData.Parent
	if instData.prev != InvalidInst {
		l.data.Inst(instData.prev).next = instData.next
	} else {
		l.firstInst[block] = instData.next
	}
	if instData.next != InvalidInst {
		l.data.Inst(instData.next).prev = instData.prev
	} else {
		l.lastInst[block] = instData.prev
	}
	instData.prev, instData.next = InvalidInst, InvalidInst
}

// Insts returns block's instructions in layout order.
func (l *Layout) Insts(block BlockID) []InstID {
	var out []InstID
	for i := l.firstInst[block]; i != InvalidInst; i = l.data.Inst(i).next {
		out = append(out, i)
	}
	return out
}

// InstAfter/InstBefore report inst's layout neighbor within its block.
func (l *Layout) InstAfter(inst InstID) (InstID, bool) {
	n := l.data.Inst(inst).next
	return n, n != InvalidInst
}

func (l *Layout) InstBefore(inst InstID) (InstID, bool) {
	p := l.data.Inst(inst).prev
	return p, p != InvalidInst
}

// Terminator returns block's last instruction, which the parser's
// per-block grammar guarantees is always a terminator opcode before the
// function is handed to any later pass (spec.md §4.1, "every basic block
// ends in exactly one terminator").
func (l *Layout) Terminator(block BlockID) *Instruction {
	return l.data.Inst(l.lastInst[block])
}

// RebuildBlockEdges recomputes every block's Preds/Succs from the current
// layout's terminators. Preds/Succs are derived data (see BasicBlock's
// doc comment): callers reconstruct them after any pass that changes
// control flow rather than maintaining them incrementally.
func (l *Layout) RebuildBlockEdges() {
	blocks := l.Blocks()
	for _, b := range blocks {
		bd := l.data.Block(b)
		bd.Preds = bd.Preds[:0]
		bd.Succs = bd.Succs[:0]
	}
	for _, b := range blocks {
		term := l.Terminator(b)
		for _, target := range term.Operand.successors() {
			bd := l.data.Block(b)
			bd.Succs = append(bd.Succs, target)
			td := l.data.Block(target)
			td.Preds = append(td.Preds, b)
		}
	}
	// A condbr with identical true/false targets (or any terminator that
	// otherwise names the same successor twice) would duplicate an edge;
	// dedupe so Validate's pred/succ symmetry check compares sets, not
	// multisets.
	for _, b := range blocks {
		bd := l.data.Block(b)
		bd.Succs = lo.Uniq(bd.Succs)
		bd.Preds = lo.Uniq(bd.Preds)
	}
}

// successors enumerates the block ids this terminator's Operand can
// transfer control to: Br's single target, CondBr's true/false pair, or
// Invoke's normal/unwind pair. Ret/Resume/Unreachable have none.
func (op *Operand) successors() []BlockID {
	switch {
	case len(op.Targets) > 0:
		return op.Targets
	case op.InvokeNormal != InvalidBlock || op.InvokeUnwind != InvalidBlock:
		return []BlockID{op.InvokeNormal, op.InvokeUnwind}
	default:
		return nil
	}
}
