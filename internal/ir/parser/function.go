package parser

import (
	"strconv"
	"strings"

	"github.com/vicis-ir/vicis/internal/ir/ir"
	"github.com/vicis-ir/vicis/internal/ir/name"
	"github.com/vicis-ir/vicis/internal/ir/types"
	"github.com/vicis-ir/vicis/internal/ir/value"
)

// funcCtx is the per-function parsing state: the name→value-id table
// (spec.md §4.1 "Value resolution"), the forward-reference bookkeeping
// that table requires, and the block-name table. One funcCtx exists per
// function body and is discarded once the body closes — it holds no
// state the rest of the module needs.
type funcCtx struct {
	f *ir.Function

	resolved        map[name.Name]ir.ValueID
	pending         map[name.Name]bool
	placeholderName map[ir.ValueID]name.Name
	deferredUsers   map[name.Name][]ir.InstID

	blocks    map[name.Name]ir.BlockID
	paramType map[name.Name]types.ID
	paramIdx  map[name.Name]int
}

func newFuncCtx(f *ir.Function) *funcCtx {
	return &funcCtx{
		f:               f,
		resolved:        make(map[name.Name]ir.ValueID),
		pending:         make(map[name.Name]bool),
		placeholderName: make(map[ir.ValueID]name.Name),
		deferredUsers:   make(map[name.Name][]ir.InstID),
		blocks:          make(map[name.Name]ir.BlockID),
		paramType:       make(map[name.Name]types.ID),
		paramIdx:        make(map[name.Name]int),
	}
}

// valueRef resolves n to a ValueID, allocating a forward-reference
// placeholder on first (pre-definition) use. Mirrors
// original_source/core/src/ir/value/parser.rs's
// ctx.get_or_create_named_value: the placeholder's identity never
// changes (spec.md §4.1).
func (fc *funcCtx) valueRef(n name.Name, ty types.ID) ir.ValueID {
	if idx, ok := fc.paramIdx[n]; ok {
		if id, ok := fc.resolved[n]; ok {
			return id
		}
		id := fc.f.Data.CreateValue(value.FromArgument(value.ArgRef(idx), fc.paramType[n]))
		fc.resolved[n] = id
		return id
	}
	if id, ok := fc.resolved[n]; ok {
		return id
	}
	id := fc.f.Data.CreatePlaceholderValue(ty)
	fc.resolved[n] = id
	fc.pending[n] = true
	fc.placeholderName[id] = n
	return id
}

// define binds n's result to producer, having been either previously
// forward-referenced (flushing deferred uses into the arena's use-def
// edges) or seen for the first time.
func (fc *funcCtx) define(n name.Name, producer *ir.Instruction, ty types.ID) {
	producer.Dest = &n
	if id, ok := fc.resolved[n]; ok && fc.pending[n] {
		fc.f.Data.BindPlaceholder(id, producer.ID, fc.deferredUsers[n])
		delete(fc.pending, n)
		delete(fc.deferredUsers, n)
		return
	}
	id := fc.f.Data.CreateValue(value.FromInstResult(ir.InstRefOf(producer.ID), ty))
	fc.resolved[n] = id
}

// noteDeferredUser records that inst references the (still-unresolved)
// placeholder backing n, so the eventual define call can back-fill the
// use-def edge.
func (fc *funcCtx) noteDeferredUser(n name.Name, inst ir.InstID) {
	fc.deferredUsers[n] = append(fc.deferredUsers[n], inst)
}

// trackUses scans inst's operand for references to still-unresolved
// placeholders and records inst as a deferred user of each — called
// right after every ir.Data.CreateInst so a forward reference's eventual
// define() call can back-fill the use-def edge Data.CreateInst itself
// skipped (see Data.AddUse's no-op on an unresolved placeholder).
func (fc *funcCtx) trackUses(inst *ir.Instruction) {
	for _, arg := range inst.Operand.ValueArgs() {
		if n, ok := fc.placeholderName[arg]; ok && fc.pending[n] {
			fc.noteDeferredUser(n, inst.ID)
		}
	}
}

// finish is the common tail of every instruction parser: record any
// deferred uses the new instruction makes of still-unresolved
// placeholders, then (for opcodes with a result) bind the destination
// name. Used uniformly so no opcode parser can forget either step.
func (fc *funcCtx) finish(inst *ir.Instruction, hasDest bool, dest name.Name, ty types.ID) *ir.Instruction {
	fc.trackUses(inst)
	if hasDest {
		fc.define(dest, inst, ty)
	}
	return inst
}

// unresolved returns the names still pending once the function body has
// closed (spec.md §4.1: "Invariant at function end: no placeholder
// remains unbound").
func (fc *funcCtx) unresolved() []name.Name {
	var out []name.Name
	for n := range fc.pending {
		out = append(out, n)
	}
	return out
}

// parseFunction parses `define ... { ... }` or `declare ...`.
func (p *Parser) parseFunction() error {
	isDecl := p.lx.is("declare")
	p.lx.next()

	// Return-value attributes are parsed for grammar completeness but not
	// modeled on Function (out of scope per spec.md §1's ABI Non-goal).
	if _, err := p.parseAttributeList(); err != nil {
		return err
	}
	retTy, err := p.parseType()
	if err != nil {
		return err
	}
	if !strings.HasPrefix(p.lx.peekText(), "@") {
		return &SyntaxError{Pos: p.lx.pos(), Expected: "@function-name", Got: p.lx.peekText()}
	}
	fname := p.lx.next()[1:]

	f := ir.NewFunction()
	f.Name = fname
	f.RetType = retTy
	f.IsDecl = isDecl

	fc := newFuncCtx(f)
	if err := p.parseParamList(fc); err != nil {
		return err
	}

	var attrGroupRefs []uint64
	for strings.HasPrefix(p.lx.peekText(), "#") {
		id, err := p.parseAttrGroupRef()
		if err != nil {
			return err
		}
		attrGroupRefs = append(attrGroupRefs, id)
	}
	attrs, err := p.parseAttributeList()
	if err != nil {
		return err
	}
	attrs, err = p.resolveAttrGroupRefs(attrs, attrGroupRefs)
	if err != nil {
		return err
	}
	f.Attrs = attrs

	if isDecl {
		p.module.AddFunction(f)
		return nil
	}

	if err := p.lx.expect("{"); err != nil {
		return err
	}
	for !p.lx.is("}") {
		if err := p.parseBasicBlock(fc); err != nil {
			return err
		}
	}
	if err := p.lx.expect("}"); err != nil {
		return err
	}

	if unresolved := fc.unresolved(); len(unresolved) > 0 {
		return &UnresolvedReference{Pos: p.lx.pos(), Name: unresolved[0].String()}
	}

	f.Layout.RebuildBlockEdges()
	if err := f.Validate(); err != nil {
		return err
	}
	p.module.AddFunction(f)
	return nil
}

// parseParamList parses `(T %name, T %name, ...)`, registering each
// parameter in fc's namespace and on the Function itself.
func (p *Parser) parseParamList(fc *funcCtx) error {
	if err := p.lx.expect("("); err != nil {
		return err
	}
	idx := 0
	for !p.lx.is(")") {
		if p.lx.acceptEllipsis() {
			fc.f.VarArg = true
			break
		}
		ty, err := p.parseType()
		if err != nil {
			return err
		}
		attrs, err := p.parseAttributeList()
		if err != nil {
			return err
		}
		var pn name.Name
		if strings.HasPrefix(p.lx.peekText(), "%") {
			pn = name.Sym(p.lx.next()[1:])
		} else {
			pn = name.Num(uint64(idx))
		}
		fc.f.Params = append(fc.f.Params, ir.Parameter{Name: pn, Type: ty, Attrs: attrs})
		fc.paramType[pn] = ty
		fc.paramIdx[pn] = idx
		idx++
		if !p.lx.accept(",") {
			break
		}
	}
	return p.lx.expect(")")
}

// parseBasicBlock parses one labeled block and its instruction list, up
// to (but not past) its terminator.
func (p *Parser) parseBasicBlock(fc *funcCtx) error {
	var bn name.Name
	if p.lx.looksLikeLabel() {
		label := p.lx.next()
		p.lx.next() // ':'
		bn = name.Sym(label)
	} else {
		bn = name.Num(uint64(len(fc.blocks)))
	}
	block, ok := fc.blocks[bn]
	if !ok {
		block = fc.f.CreateBlock(bn)
		fc.blocks[bn] = block
	}

	for {
		inst, err := p.parseInstruction(fc, block)
		if err != nil {
			return err
		}
		fc.f.Layout.AppendInst(block, inst.ID)
		if inst.Opcode.IsTerminator() {
			return nil
		}
	}
}

// parseDestName parses an optional `%name =` / `%N =` prefix, reporting
// whether one was present.
func (p *Parser) parseDestName() (name.Name, bool) {
	if !strings.HasPrefix(p.lx.peekText(), "%") {
		return name.Name{}, false
	}
	if p.lx.peekTextAt(1) != "=" {
		return name.Name{}, false
	}
	tok := p.lx.next()[1:]
	p.lx.next() // '='
	if n, err := strconv.ParseUint(tok, 10, 64); err == nil {
		return name.Num(n), true
	}
	return name.Sym(tok), true
}

// parseOperandValue parses a single typed operand's value production:
// either a `%name`/`@name` reference or a constant literal.
func (p *Parser) parseOperandValue(fc *funcCtx, ty types.ID) (ir.ValueID, error) {
	tok := p.lx.peekText()
	if strings.HasPrefix(tok, "%") {
		p.lx.next()
		n := parseLocalName(tok[1:])
		return fc.valueRef(n, ty), nil
	}
	c, err := p.parseConstant(ty)
	if err != nil {
		return ir.InvalidValue, err
	}
	return fc.f.Data.CreateValue(value.FromConstant(c)), nil
}

func parseLocalName(tok string) name.Name {
	if n, err := strconv.ParseUint(tok, 10, 64); err == nil {
		return name.Num(n)
	}
	return name.Sym(tok)
}

// blockRef resolves a `%label` block reference, registering a forward
// block declaration if the block hasn't been created yet (legal for
// forward branches, spec.md §4.1).
func (p *Parser) blockRef(fc *funcCtx, tok string) ir.BlockID {
	n := parseLocalName(tok)
	if b, ok := fc.blocks[n]; ok {
		return b
	}
	b := fc.f.CreateBlock(n)
	fc.blocks[n] = b
	return b
}
