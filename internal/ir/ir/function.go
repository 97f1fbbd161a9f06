package ir

import (
	"github.com/vicis-ir/vicis/internal/ir/name"
	"github.com/vicis-ir/vicis/internal/ir/types"
)

// Parameter is a function argument descriptor, kept in a plain slice
// indexed by position rather than its own pool[T]: spec.md §3 calls out
// parameter descriptors as arena-keyed-by-positional-index, and a
// function's arity never grows after parsing, so a slice already gives
// dense, stable, zero-indirection access.
type Parameter struct {
	Name  name.Name
	Type  types.ID
	Attrs []Attribute
}

// Function is one function definition or declaration: its signature, its
// arena storage (Data), and its program-order layout (Layout). A
// declaration (no body) has an empty, non-nil Layout with zero blocks.
type Function struct {
	Name     string
	RetType  types.ID
	Params   []Parameter
	VarArg   bool
	Attrs    []Attribute
	IsDecl   bool
	LinkName string // empty unless an explicit linkage name was parsed

	Data   *Data
	Layout *Layout
}

// NewFunction allocates an empty function body ready to receive blocks
// and instructions; the caller fills in Name/RetType/Params/VarArg first.
func NewFunction() *Function {
	d := newData()
	return &Function{Data: d, Layout: newLayout(d)}
}

// CreateBlock allocates a new basic block and appends it to the
// function's layout.
func (f *Function) CreateBlock(n name.Name) BlockID {
	b, idx := f.Data.blocks.allocate()
	*b = BasicBlock{ID: BlockID(idx), Name: n}
	f.Layout.AppendBlock(b.ID)
	return b.ID
}
