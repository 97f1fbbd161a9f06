package regalloc

import "github.com/vicis-ir/vicis/internal/ir/types"

// MachModule is the lowered counterpart of ir/module.Module: one
// MachFunction per IR function, plus the passthrough fields a module
// pass (isa.TargetIsa's ModulePassList) might want to read or rewrite.
// Lives in package regalloc (rather than package lower, where it's
// built) so isa.TargetIsa can reference it in ModulePassList without isa
// importing lower and lower importing isa back.
type MachModule struct {
	Name             string
	SourceFilename   string
	TargetDatalayout string
	TargetTriple     string
	Types            *types.Types

	Functions     map[string]*MachFunction
	functionOrder []string
}

// NewMachModule returns an empty machine module.
func NewMachModule() *MachModule {
	return &MachModule{Functions: make(map[string]*MachFunction)}
}

// AddFunction registers f, preserving first-seen order.
func (m *MachModule) AddFunction(f *MachFunction) {
	if _, exists := m.Functions[f.Name]; !exists {
		m.functionOrder = append(m.functionOrder, f.Name)
	}
	m.Functions[f.Name] = f
}

// FunctionsInOrder returns functions in first-declared order.
func (m *MachModule) FunctionsInOrder() []*MachFunction {
	out := make([]*MachFunction, 0, len(m.functionOrder))
	for _, n := range m.functionOrder {
		out = append(out, m.Functions[n])
	}
	return out
}
