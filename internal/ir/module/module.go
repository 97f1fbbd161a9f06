// Package module implements the module-level constructs that sit above a
// single function: global variables, attribute groups, metadata nodes and
// the three passthrough directives (source_filename, target datalayout,
// target triple). Grounded on original_source/core/src/ir/module/parser.rs,
// which the distilled spec.md names but leaves unspecified (SPEC_FULL.md
// §5).
package module

import (
	"github.com/vicis-ir/vicis/internal/ir/ir"
	"github.com/vicis-ir/vicis/internal/ir/types"
	"github.com/vicis-ir/vicis/internal/ir/value"
)

// Linkage is the subset of LLVM linkage keywords the grammar accepts on a
// global or function (spec.md §4.1's construct list).
type Linkage uint8

const (
	LinkageExternal Linkage = iota
	LinkageInternal
	LinkagePrivate
	LinkageCommon
)

// GlobalVariable is a module-level `@name = ... global/constant T init`
// definition or `@name = external global T` declaration.
type GlobalVariable struct {
	Name        string
	Type        types.ID
	Initializer *value.Constant // nil for an `external` declaration
	Linkage     Linkage
	IsConstant  bool
}

// AttributeGroup is a `#N = { attr attr "k"="v" ... }` definition,
// referenced by index from function definitions and call sites
// (original_source/core/src/ir/module/parser.rs::parse_attribute_group).
type AttributeGroup struct {
	ID    uint64
	Attrs []ir.Attribute
}

// MetadataKind discriminates a metadata node's payload.
type MetadataKind uint8

const (
	MetadataInvalid MetadataKind = iota
	MetadataString
	MetadataNodeList
)

// MetadataNode is a `!N = !"..."` or `!N = !{...}` module-level entry.
// Attaching metadata to instructions is out of scope (spec.md Non-goals,
// no debug-info model); the module-level table itself is in-scope
// plumbing the distillation dropped (SPEC_FULL.md §5).
type MetadataNode struct {
	ID      uint64
	Kind    MetadataKind
	Str     string
	Operand []uint64 // node-list form: ids of other metadata nodes, 0 for `null`
}

// Module is the top-level parsed unit: directives, named types, global
// variables, attribute groups, metadata, and function definitions/
// declarations.
type Module struct {
	SourceFilename string
	TargetDatalayout string
	TargetTriple     string

	Types *types.Types

	Globals    map[string]*GlobalVariable
	globalOrder []string

	AttrGroups map[uint64]*AttributeGroup
	Metadata   map[uint64]*MetadataNode

	Functions   map[string]*ir.Function
	funcOrder   []string
}

// New returns an empty module with its own type registry.
func New() *Module {
	return &Module{
		Types:      types.New(),
		Globals:    make(map[string]*GlobalVariable),
		AttrGroups: make(map[uint64]*AttributeGroup),
		Metadata:   make(map[uint64]*MetadataNode),
		Functions:  make(map[string]*ir.Function),
	}
}

// AddGlobal registers g, preserving first-seen order for the printer's
// round-trip (spec.md §4.5 requires deterministic output).
func (m *Module) AddGlobal(g *GlobalVariable) {
	if _, exists := m.Globals[g.Name]; !exists {
		m.globalOrder = append(m.globalOrder, g.Name)
	}
	m.Globals[g.Name] = g
}

// GlobalsInOrder returns globals in first-declared order.
func (m *Module) GlobalsInOrder() []*GlobalVariable {
	out := make([]*GlobalVariable, 0, len(m.globalOrder))
	for _, n := range m.globalOrder {
		out = append(out, m.Globals[n])
	}
	return out
}

// AddFunction registers f, preserving first-seen order.
func (m *Module) AddFunction(f *ir.Function) {
	if _, exists := m.Functions[f.Name]; !exists {
		m.funcOrder = append(m.funcOrder, f.Name)
	}
	m.Functions[f.Name] = f
}

// FunctionsInOrder returns functions in first-declared order.
func (m *Module) FunctionsInOrder() []*ir.Function {
	out := make([]*ir.Function, 0, len(m.funcOrder))
	for _, n := range m.funcOrder {
		out = append(out, m.Functions[n])
	}
	return out
}

// Validate runs the type interner's named-type check and every function
// body's structural invariants (spec.md §8's module-level Testable
// Property: "a fully parsed module has no unresolved forward references
// of any kind — type, value, or block").
func (m *Module) Validate() error {
	if err := m.Types.Validate(nil); err != nil {
		return err
	}
	for _, f := range m.FunctionsInOrder() {
		if err := f.Validate(); err != nil {
			return err
		}
	}
	return nil
}
