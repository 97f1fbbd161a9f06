package liveness

import (
	"sort"

	"github.com/vicis-ir/vicis/internal/codegen/regalloc"
)

// Interval is a closed program-point range within a single block during
// which a vreg is live.
type Interval struct {
	Start, End ProgramPoint
}

// RangeSet is one vreg's live range: a sorted, non-overlapping set of
// per-block Intervals (spec.md §4.3's contract).
type RangeSet struct {
	byBlock map[regalloc.MachBlockID][]Interval
	order   []regalloc.MachBlockID
}

func newRangeSet() *RangeSet {
	return &RangeSet{byBlock: make(map[regalloc.MachBlockID][]Interval)}
}

// Blocks returns the blocks this range set has an interval in, in the
// order they were added.
func (r *RangeSet) Blocks() []regalloc.MachBlockID { return r.order }

// In returns the intervals (sorted, non-overlapping) within block.
func (r *RangeSet) In(block regalloc.MachBlockID) []Interval { return r.byBlock[block] }

// LiveAt reports whether pp falls within any interval this range set
// holds for block.
func (r *RangeSet) LiveAt(block regalloc.MachBlockID, pp ProgramPoint) bool {
	for _, iv := range r.byBlock[block] {
		if pp >= iv.Start && pp <= iv.End {
			return true
		}
	}
	return false
}

func (r *RangeSet) add(block regalloc.MachBlockID, iv Interval) {
	if _, ok := r.byBlock[block]; !ok {
		r.order = append(r.order, block)
	}
	r.byBlock[block] = append(r.byBlock[block], iv)
	sort.Slice(r.byBlock[block], func(i, j int) bool {
		return r.byBlock[block][i].Start < r.byBlock[block][j].Start
	})
}

// RangeOf returns the currently computed live range for v, or nil if
// none has been computed (or it was removed).
func (l *Liveness) RangeOf(v regalloc.VReg) *RangeSet { return l.ranges[v] }

// RemoveVReg discards v's live range wholesale — used by the spiller
// immediately after replacing every use of the spilled vreg (spec.md
// §4.4's "Remove the original vreg's live range" step).
func (l *Liveness) RemoveVReg(v regalloc.VReg) {
	delete(l.ranges, v)
}

// ComputeLiveRanges (re)computes v's live range from scratch via a
// backward per-block dataflow fixpoint restricted to v's own defs/uses,
// then records it, replacing whatever range set v may have had before.
// Grounded on the standard textbook live-variable-analysis equations
// (liveOut[B] = union of liveIn[succ]; liveIn[B] = usedBeforeDef[B] ||
// (liveOut[B] && !hasDef[B])), specialized to a single vreg. Where v has
// more than one def in a block (the spiller's two-address case), only
// the earliest of them marks where the block's interval starts.
func (l *Liveness) ComputeLiveRanges(v regalloc.VReg) {
	blocks := l.mf.Layout.Blocks()
	if len(blocks) == 0 {
		return
	}

	type blockFacts struct {
		hasDef, hasUse       bool
		firstDefPP, lastUsePP ProgramPoint
		firstUsePP           ProgramPoint
	}
	facts := make(map[regalloc.MachBlockID]*blockFacts, len(blocks))
	for _, b := range blocks {
		facts[b] = &blockFacts{}
	}

	for _, use := range l.mf.VRegs.Uses(v) {
		inst := l.mf.Data.Inst(use.Inst)
		pp := l.instToPP[use.Inst]
		f := facts[inst.Block]
		if use.Kind == regalloc.UseWrite {
			if !f.hasDef || pp < f.firstDefPP {
				f.firstDefPP = pp
			}
			f.hasDef = true
		} else {
			if !f.hasUse || pp < f.firstUsePP {
				f.firstUsePP = pp
			}
			if !f.hasUse || pp > f.lastUsePP {
				f.lastUsePP = pp
			}
			f.hasUse = true
		}
	}

	usedBeforeDef := make(map[regalloc.MachBlockID]bool, len(blocks))
	for b, f := range facts {
		usedBeforeDef[b] = f.hasUse && (!f.hasDef || f.firstUsePP < f.firstDefPP)
	}

	liveIn := make(map[regalloc.MachBlockID]bool, len(blocks))
	liveOut := make(map[regalloc.MachBlockID]bool, len(blocks))
	succs := make(map[regalloc.MachBlockID][]regalloc.MachBlockID, len(blocks))
	for _, b := range blocks {
		succs[b] = l.mf.Data.Block(b).Succs
	}

	for changed := true; changed; {
		changed = false
		for i := len(blocks) - 1; i >= 0; i-- {
			b := blocks[i]
			out := false
			for _, s := range succs[b] {
				if liveIn[s] {
					out = true
					break
				}
			}
			in := usedBeforeDef[b] || (out && !facts[b].hasDef)
			if out != liveOut[b] || in != liveIn[b] {
				liveOut[b] = out
				liveIn[b] = in
				changed = true
			}
		}
	}

	rs := newRangeSet()
	for bi, b := range blocks {
		f := facts[b]
		if !liveIn[b] && !liveOut[b] && !f.hasDef && !f.hasUse {
			continue
		}
		start := f.firstDefPP
		if liveIn[b] {
			start = blockPoint(bi)
		}
		end := f.lastUsePP
		if liveOut[b] {
			end = l.blockEnd[b] + instGap
		}
		if !f.hasUse && !liveOut[b] {
			end = f.firstDefPP
		}
		if !f.hasDef && !liveIn[b] {
			start = f.firstUsePP
		}
		rs.add(b, Interval{Start: start, End: end})
	}
	l.ranges[v] = rs
}
