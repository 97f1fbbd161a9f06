package ir

// InstID names an instruction by its dense arena index. Equal in
// representation to value.InstRef by construction (see value.InstRef's
// doc comment), so a ValueID of kind InstResult converts freely.
type InstID uint32

// ValueID names a slot in a function's value arena: every operand an
// instruction reads is a ValueID, never an inline value.Value, so that a
// forward-referenced name can be allocated a stable identity before its
// defining instruction exists (spec.md §3, "Forward References").
type ValueID uint32

// BlockID names a basic block by its dense arena index.
type BlockID uint32

// InvalidValue, InvalidBlock are the zero-valued "no value"/"no block"
// sentinels; arena index 0 is never handed out for a real entry (see
// newData), so they double as a presence check.
const (
	InvalidValue ValueID = 0
	InvalidBlock BlockID = 0
	InvalidInst  InstID  = 0
)
