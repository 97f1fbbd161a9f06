package ir

import "github.com/vicis-ir/vicis/internal/ir/name"

// BasicBlock is an arena-resident block descriptor. Preds/Succs are
// derived data, not ground truth: they are recomputed from the
// instruction layout's terminators by Layout.RebuildBlockEdges rather than
// maintained incrementally, since a single block splice (the spiller's
// bread and butter, C11) would otherwise require walking every other
// block's edge lists to find and fix stale entries.
type BasicBlock struct {
	ID    BlockID
	Name  name.Name
	Preds []BlockID
	Succs []BlockID

	// prev/next form the function's block layout order (see layout.go);
	// zero means "no neighbor in this direction" (arena slot 0 is reserved,
	// see newData).
	prev, next BlockID
}
