package parser

import (
	"strconv"
	"strings"

	"github.com/vicis-ir/vicis/internal/ir/ir"
	"github.com/vicis-ir/vicis/internal/ir/name"
	"github.com/vicis-ir/vicis/internal/ir/types"
	"github.com/vicis-ir/vicis/internal/ir/value"
)

// opcodeByKeyword maps the int-binary family's textual keywords to their
// Opcode, since all thirteen share one parse routine (parseIntBinary).
var opcodeByKeyword = map[string]ir.Opcode{
	"add": ir.OpAdd, "sub": ir.OpSub, "mul": ir.OpMul,
	"sdiv": ir.OpSDiv, "udiv": ir.OpUDiv,
	"srem": ir.OpSRem, "urem": ir.OpURem,
	"and": ir.OpAnd, "or": ir.OpOr, "xor": ir.OpXor,
	"shl": ir.OpShl, "lshr": ir.OpLShr, "ashr": ir.OpAShr,
}

// cmpCondByKeyword maps icmp's condition-code keywords to CmpCond.
var cmpCondByKeyword = map[string]ir.CmpCond{
	"eq": ir.CmpEq, "ne": ir.CmpNe,
	"sgt": ir.CmpSgt, "sge": ir.CmpSge, "slt": ir.CmpSlt, "sle": ir.CmpSle,
	"ugt": ir.CmpUgt, "uge": ir.CmpUge, "ult": ir.CmpUlt, "ule": ir.CmpUle,
}

// parseInstruction parses one instruction production within block,
// dispatching on the leading opcode keyword (after the optional `%name =`
// destination prefix already consumed by parseDestName), per spec.md
// §4.1's per-instruction grammar. The returned instruction has already
// been allocated in the function's arena (Data.CreateInst) but not yet
// spliced into the block's layout — parseBasicBlock does that.
func (p *Parser) parseInstruction(fc *funcCtx, block ir.BlockID) (*ir.Instruction, error) {
	dest, hasDest := p.parseDestName()
	op := p.lx.peekText()
	if _, ok := opcodeByKeyword[op]; ok {
		return p.parseIntBinary(fc, block, dest, hasDest, op)
	}
	switch op {
	case "alloca":
		return p.parseAlloca(fc, block, dest, hasDest)
	case "load":
		return p.parseLoad(fc, block, dest, hasDest)
	case "store":
		return p.parseStore(fc, block)
	case "icmp":
		return p.parseICmp(fc, block, dest, hasDest)
	case "getelementptr":
		return p.parseGEPInst(fc, block, dest, hasDest)
	case "bitcast":
		return p.parseBitcastInst(fc, block, dest, hasDest)
	case "call":
		return p.parseCall(fc, block, dest, hasDest)
	case "invoke":
		return p.parseInvoke(fc, block, dest, hasDest)
	case "phi":
		return p.parsePhi(fc, block, dest, hasDest)
	case "br":
		return p.parseBr(fc, block)
	case "ret":
		return p.parseRet(fc, block)
	case "landingpad":
		return p.parseLandingPad(fc, block, dest, hasDest)
	case "resume":
		return p.parseResume(fc, block)
	case "unreachable":
		p.lx.next()
		inst := fc.f.Data.CreateInst(ir.OpUnreachable, ir.Operand{}, block)
		fc.trackUses(inst)
		return inst, nil
	default:
		return nil, &UnsupportedOpcode{Pos: p.lx.pos(), Text: op}
	}
}

func (p *Parser) parseAlignInt() (uint32, error) {
	tok := p.lx.next()
	n, err := strconv.ParseUint(tok, 10, 32)
	if err != nil {
		return 0, &SyntaxError{Pos: p.lx.pos(), Expected: "alignment integer", Got: tok}
	}
	return uint32(n), nil
}

// parseAlloca parses `alloca T[, T2 %count][, align N]`.
func (p *Parser) parseAlloca(fc *funcCtx, block ir.BlockID, dest name.Name, hasDest bool) (*ir.Instruction, error) {
	p.lx.next() // "alloca"
	ty, err := p.parseType()
	if err != nil {
		return nil, err
	}
	operand := ir.Operand{Types: []types.ID{ty}, NumElements: ir.InvalidValue}
	for p.lx.accept(",") {
		if p.lx.accept("align") {
			n, err := p.parseAlignInt()
			if err != nil {
				return nil, err
			}
			operand.Align = n
			continue
		}
		countTy, err := p.parseType()
		if err != nil {
			return nil, err
		}
		countVal, err := p.parseOperandValue(fc, countTy)
		if err != nil {
			return nil, err
		}
		operand.NumElements = countVal
	}
	inst := fc.f.Data.CreateInst(ir.OpAlloca, operand, block)
	return fc.finish(inst, hasDest, dest, p.module.Types.Ptr(ty)), nil
}

// parseLoad parses `load T, T* %ptr[, align N]`.
func (p *Parser) parseLoad(fc *funcCtx, block ir.BlockID, dest name.Name, hasDest bool) (*ir.Instruction, error) {
	p.lx.next() // "load"
	valTy, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if err := p.lx.expect(","); err != nil {
		return nil, err
	}
	ptrTy, err := p.parseType()
	if err != nil {
		return nil, err
	}
	ptrVal, err := p.parseOperandValue(fc, ptrTy)
	if err != nil {
		return nil, err
	}
	operand := ir.Operand{Args: []ir.ValueID{ptrVal}, Types: []types.ID{valTy}}
	for p.lx.accept(",") {
		if err := p.lx.expect("align"); err != nil {
			return nil, err
		}
		n, err := p.parseAlignInt()
		if err != nil {
			return nil, err
		}
		operand.Align = n
	}
	inst := fc.f.Data.CreateInst(ir.OpLoad, operand, block)
	return fc.finish(inst, hasDest, dest, valTy), nil
}

// parseStore parses `store T %val, T* %ptr[, align N]`. store has no
// result (spec.md §4.1) so it never carries a destination name.
func (p *Parser) parseStore(fc *funcCtx, block ir.BlockID) (*ir.Instruction, error) {
	p.lx.next() // "store"
	valTy, err := p.parseType()
	if err != nil {
		return nil, err
	}
	valVal, err := p.parseOperandValue(fc, valTy)
	if err != nil {
		return nil, err
	}
	if err := p.lx.expect(","); err != nil {
		return nil, err
	}
	ptrTy, err := p.parseType()
	if err != nil {
		return nil, err
	}
	ptrVal, err := p.parseOperandValue(fc, ptrTy)
	if err != nil {
		return nil, err
	}
	operand := ir.Operand{Args: []ir.ValueID{ptrVal, valVal}, Types: []types.ID{valTy}}
	for p.lx.accept(",") {
		if err := p.lx.expect("align"); err != nil {
			return nil, err
		}
		n, err := p.parseAlignInt()
		if err != nil {
			return nil, err
		}
		operand.Align = n
	}
	inst := fc.f.Data.CreateInst(ir.OpStore, operand, block)
	fc.trackUses(inst)
	return inst, nil
}

// parseIntBinary parses the shared grammar of the thirteen int-binary
// opcodes: `<op> [nuw] [nsw] [exact] T %lhs, %rhs`. Only the flags
// meaningful to a given opcode end up consulted downstream (e.g. `exact`
// on an add is parsed but never read by a shift/div-only consumer).
func (p *Parser) parseIntBinary(fc *funcCtx, block ir.BlockID, dest name.Name, hasDest bool, keyword string) (*ir.Instruction, error) {
	p.lx.next() // opcode keyword
	var operand ir.Operand
flags:
	for {
		switch {
		case p.lx.accept("nuw"):
			operand.NUW = true
		case p.lx.accept("nsw"):
			operand.NSW = true
		case p.lx.accept("exact"):
			operand.Exact = true
		default:
			break flags
		}
	}
	ty, err := p.parseType()
	if err != nil {
		return nil, err
	}
	lhs, err := p.parseOperandValue(fc, ty)
	if err != nil {
		return nil, err
	}
	if err := p.lx.expect(","); err != nil {
		return nil, err
	}
	rhs, err := p.parseOperandValue(fc, ty)
	if err != nil {
		return nil, err
	}
	operand.Args = []ir.ValueID{lhs, rhs}
	operand.Types = []types.ID{ty}
	inst := fc.f.Data.CreateInst(opcodeByKeyword[keyword], operand, block)
	return fc.finish(inst, hasDest, dest, ty), nil
}

// parseICmp parses `icmp <cond> T %lhs, %rhs`; the result is always i1.
func (p *Parser) parseICmp(fc *funcCtx, block ir.BlockID, dest name.Name, hasDest bool) (*ir.Instruction, error) {
	p.lx.next() // "icmp"
	condTok := p.lx.next()
	cond, ok := cmpCondByKeyword[condTok]
	if !ok {
		return nil, &SyntaxError{Pos: p.lx.pos(), Expected: "icmp condition code", Got: condTok}
	}
	ty, err := p.parseType()
	if err != nil {
		return nil, err
	}
	lhs, err := p.parseOperandValue(fc, ty)
	if err != nil {
		return nil, err
	}
	if err := p.lx.expect(","); err != nil {
		return nil, err
	}
	rhs, err := p.parseOperandValue(fc, ty)
	if err != nil {
		return nil, err
	}
	operand := ir.Operand{Args: []ir.ValueID{lhs, rhs}, Types: []types.ID{ty}, Cond: cond}
	inst := fc.f.Data.CreateInst(ir.OpICmp, operand, block)
	return fc.finish(inst, hasDest, dest, p.module.Types.I1()), nil
}

// parseGEPInst parses `getelementptr [inbounds] T, T* %ptr, iN %idx, ...`
// in instruction position (constants use parseGEPConstant instead).
func (p *Parser) parseGEPInst(fc *funcCtx, block ir.BlockID, dest name.Name, hasDest bool) (*ir.Instruction, error) {
	p.lx.next() // "getelementptr"
	inbounds := p.lx.accept("inbounds")
	aggTy, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if err := p.lx.expect(","); err != nil {
		return nil, err
	}
	baseTy, err := p.parseType()
	if err != nil {
		return nil, err
	}
	baseVal, err := p.parseOperandValue(fc, baseTy)
	if err != nil {
		return nil, err
	}
	gepTypes := []types.ID{aggTy}
	args := []ir.ValueID{baseVal}
	for p.lx.accept(",") {
		idxTy, err := p.parseType()
		if err != nil {
			return nil, err
		}
		idxVal, err := p.parseOperandValue(fc, idxTy)
		if err != nil {
			return nil, err
		}
		gepTypes = append(gepTypes, idxTy)
		args = append(args, idxVal)
	}
	operand := ir.Operand{Args: args, Types: gepTypes, Inbounds: inbounds}
	inst := fc.f.Data.CreateInst(ir.OpGetElementPtr, operand, block)
	resultTy := p.module.Types.Ptr(gepTypes[len(gepTypes)-1])
	return fc.finish(inst, hasDest, dest, resultTy), nil
}

// parseBitcastInst parses `bitcast T %val to T2` in instruction position.
func (p *Parser) parseBitcastInst(fc *funcCtx, block ir.BlockID, dest name.Name, hasDest bool) (*ir.Instruction, error) {
	p.lx.next() // "bitcast"
	fromTy, err := p.parseType()
	if err != nil {
		return nil, err
	}
	val, err := p.parseOperandValue(fc, fromTy)
	if err != nil {
		return nil, err
	}
	if err := p.lx.expect("to"); err != nil {
		return nil, err
	}
	toTy, err := p.parseType()
	if err != nil {
		return nil, err
	}
	operand := ir.Operand{Args: []ir.ValueID{val}, Types: []types.ID{fromTy, toTy}}
	inst := fc.f.Data.CreateInst(ir.OpBitCast, operand, block)
	return fc.finish(inst, hasDest, dest, toTy), nil
}

// parseCallee parses a call/invoke's callee operand: a direct `@name`
// reference (the common case) or an indirect `%name` function-pointer
// value.
func (p *Parser) parseCallee(fc *funcCtx, retTy types.ID) (ir.ValueID, error) {
	tok := p.lx.peekText()
	switch {
	case strings.HasPrefix(tok, "@"):
		p.lx.next()
		c := value.GlobalRef(retTy, tok[1:])
		return fc.f.Data.CreateValue(value.FromConstant(c)), nil
	case strings.HasPrefix(tok, "%"):
		p.lx.next()
		n := parseLocalName(tok[1:])
		return fc.valueRef(n, retTy), nil
	default:
		return ir.InvalidValue, &SyntaxError{Pos: p.lx.pos(), Expected: "a callee", Got: tok}
	}
}

// parseCallArgList parses a call/invoke's parenthesized argument list,
// `(T [attrs] %arg, ...)`, returning each argument's value alongside its
// own per-argument attribute list (whatever parseAttributeList accepts).
func (p *Parser) parseCallArgList(fc *funcCtx) ([]ir.ValueID, [][]ir.Attribute, error) {
	if err := p.lx.expect("("); err != nil {
		return nil, nil, err
	}
	var args []ir.ValueID
	var attrs [][]ir.Attribute
	for !p.lx.is(")") {
		ty, err := p.parseType()
		if err != nil {
			return nil, nil, err
		}
		a, err := p.parseAttributeList()
		if err != nil {
			return nil, nil, err
		}
		val, err := p.parseOperandValue(fc, ty)
		if err != nil {
			return nil, nil, err
		}
		args = append(args, val)
		attrs = append(attrs, a)
		if !p.lx.accept(",") {
			break
		}
	}
	if err := p.lx.expect(")"); err != nil {
		return nil, nil, err
	}
	return args, attrs, nil
}

// parseCall parses `call [attrs] T @callee(args) [attrs]`.
func (p *Parser) parseCall(fc *funcCtx, block ir.BlockID, dest name.Name, hasDest bool) (*ir.Instruction, error) {
	p.lx.next() // "call"
	if _, err := p.parseAttributeList(); err != nil {
		return nil, err
	}
	retTy, err := p.parseType()
	if err != nil {
		return nil, err
	}
	calleeVal, err := p.parseCallee(fc, retTy)
	if err != nil {
		return nil, err
	}
	args, argAttrs, err := p.parseCallArgList(fc)
	if err != nil {
		return nil, err
	}
	attrs, err := p.parseAttributeList()
	if err != nil {
		return nil, err
	}
	operand := ir.Operand{Callee: calleeVal, Args: args, Types: []types.ID{retTy}, CallArgAttrs: argAttrs, Attrs: attrs}
	inst := fc.f.Data.CreateInst(ir.OpCall, operand, block)
	return fc.finish(inst, hasDest, dest, retTy), nil
}

// parseInvoke parses `invoke [attrs] T @callee(args) [attrs] to label
// %normal unwind label %unwind` (spec.md §4.1's exception-handling
// terminator).
func (p *Parser) parseInvoke(fc *funcCtx, block ir.BlockID, dest name.Name, hasDest bool) (*ir.Instruction, error) {
	p.lx.next() // "invoke"
	if _, err := p.parseAttributeList(); err != nil {
		return nil, err
	}
	retTy, err := p.parseType()
	if err != nil {
		return nil, err
	}
	calleeVal, err := p.parseCallee(fc, retTy)
	if err != nil {
		return nil, err
	}
	args, argAttrs, err := p.parseCallArgList(fc)
	if err != nil {
		return nil, err
	}
	attrs, err := p.parseAttributeList()
	if err != nil {
		return nil, err
	}
	if err := p.lx.expect("to"); err != nil {
		return nil, err
	}
	if err := p.lx.expect("label"); err != nil {
		return nil, err
	}
	normal := p.blockRef(fc, strings.TrimPrefix(p.lx.next(), "%"))
	if err := p.lx.expect("unwind"); err != nil {
		return nil, err
	}
	if err := p.lx.expect("label"); err != nil {
		return nil, err
	}
	unwind := p.blockRef(fc, strings.TrimPrefix(p.lx.next(), "%"))
	operand := ir.Operand{
		Callee: calleeVal, Args: args, Types: []types.ID{retTy},
		CallArgAttrs: argAttrs, Attrs: attrs,
		InvokeNormal: normal, InvokeUnwind: unwind,
	}
	inst := fc.f.Data.CreateInst(ir.OpInvoke, operand, block)
	return fc.finish(inst, hasDest, dest, retTy), nil
}

// parsePhi parses `phi T [ %val, %block ], ...` (spec.md §8 scenario 2:
// the incoming values and/or blocks may be forward references to a block
// or value not yet parsed).
func (p *Parser) parsePhi(fc *funcCtx, block ir.BlockID, dest name.Name, hasDest bool) (*ir.Instruction, error) {
	p.lx.next() // "phi"
	ty, err := p.parseType()
	if err != nil {
		return nil, err
	}
	var incoming []ir.PhiIncoming
	for {
		if err := p.lx.expect("["); err != nil {
			return nil, err
		}
		val, err := p.parseOperandValue(fc, ty)
		if err != nil {
			return nil, err
		}
		if err := p.lx.expect(","); err != nil {
			return nil, err
		}
		blk := p.blockRef(fc, strings.TrimPrefix(p.lx.next(), "%"))
		if err := p.lx.expect("]"); err != nil {
			return nil, err
		}
		incoming = append(incoming, ir.PhiIncoming{Value: val, Block: blk})
		if !p.lx.accept(",") {
			break
		}
	}
	operand := ir.Operand{Types: []types.ID{ty}, Incoming: incoming}
	inst := fc.f.Data.CreateInst(ir.OpPhi, operand, block)
	return fc.finish(inst, hasDest, dest, ty), nil
}

// parseBr parses `br label %u` or `br i1 %cond, label %t, label %f`.
func (p *Parser) parseBr(fc *funcCtx, block ir.BlockID) (*ir.Instruction, error) {
	p.lx.next() // "br"
	if p.lx.accept("label") {
		target := p.blockRef(fc, strings.TrimPrefix(p.lx.next(), "%"))
		inst := fc.f.Data.CreateInst(ir.OpBr, ir.Operand{Targets: []ir.BlockID{target}}, block)
		fc.trackUses(inst)
		return inst, nil
	}
	condTy, err := p.parseType()
	if err != nil {
		return nil, err
	}
	condVal, err := p.parseOperandValue(fc, condTy)
	if err != nil {
		return nil, err
	}
	if err := p.lx.expect(","); err != nil {
		return nil, err
	}
	if err := p.lx.expect("label"); err != nil {
		return nil, err
	}
	trueBlk := p.blockRef(fc, strings.TrimPrefix(p.lx.next(), "%"))
	if err := p.lx.expect(","); err != nil {
		return nil, err
	}
	if err := p.lx.expect("label"); err != nil {
		return nil, err
	}
	falseBlk := p.blockRef(fc, strings.TrimPrefix(p.lx.next(), "%"))
	operand := ir.Operand{Args: []ir.ValueID{condVal}, Targets: []ir.BlockID{trueBlk, falseBlk}}
	inst := fc.f.Data.CreateInst(ir.OpCondBr, operand, block)
	fc.trackUses(inst)
	return inst, nil
}

// parseRet parses `ret void` or `ret T %val`.
func (p *Parser) parseRet(fc *funcCtx, block ir.BlockID) (*ir.Instruction, error) {
	p.lx.next() // "ret"
	if p.lx.accept("void") {
		inst := fc.f.Data.CreateInst(ir.OpRet, ir.Operand{}, block)
		fc.trackUses(inst)
		return inst, nil
	}
	ty, err := p.parseType()
	if err != nil {
		return nil, err
	}
	val, err := p.parseOperandValue(fc, ty)
	if err != nil {
		return nil, err
	}
	inst := fc.f.Data.CreateInst(ir.OpRet, ir.Operand{Args: []ir.ValueID{val}, Types: []types.ID{ty}}, block)
	fc.trackUses(inst)
	return inst, nil
}

// parseLandingPad parses `landingpad T [cleanup]`, the simplified
// exception-handling pad this grammar models (spec.md §5's supplemented
// exception-handling feature carries the cleanup flag but not catch/
// filter clauses, which sit outside the spec's scope).
func (p *Parser) parseLandingPad(fc *funcCtx, block ir.BlockID, dest name.Name, hasDest bool) (*ir.Instruction, error) {
	p.lx.next() // "landingpad"
	ty, err := p.parseType()
	if err != nil {
		return nil, err
	}
	cleanup := p.lx.accept("cleanup")
	inst := fc.f.Data.CreateInst(ir.OpLandingPad, ir.Operand{Types: []types.ID{ty}, Cleanup: cleanup}, block)
	return fc.finish(inst, hasDest, dest, ty), nil
}

// parseResume parses `resume T %val`.
func (p *Parser) parseResume(fc *funcCtx, block ir.BlockID) (*ir.Instruction, error) {
	p.lx.next() // "resume"
	ty, err := p.parseType()
	if err != nil {
		return nil, err
	}
	val, err := p.parseOperandValue(fc, ty)
	if err != nil {
		return nil, err
	}
	inst := fc.f.Data.CreateInst(ir.OpResume, ir.Operand{Args: []ir.ValueID{val}, Types: []types.ID{ty}}, block)
	fc.trackUses(inst)
	return inst, nil
}
