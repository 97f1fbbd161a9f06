package ir

import "github.com/vicis-ir/vicis/internal/ir/types"

// Opcode is the closed set of instruction opcodes the parser's grammar
// (spec.md §4.1) recognizes. Grounded on the Rust original's
// ir::instruction::Opcode (original_source/src/ir/instruction/mod.rs) and
// rendered as a flat enum in the teacher's style (ssa.Opcode, see
// internal/engine/wazevo/ssa/instructions.go).
type Opcode uint16

const (
	OpInvalid Opcode = iota

	OpAlloca
	OpLoad
	OpStore

	// Integer binary family; Operand.NUW/NSW/Exact qualify the specific
	// sub-opcode the way the original's single Operand::IntBinary{kind}
	// does, rather than branching this enum further.
	OpAdd
	OpSub
	OpMul
	OpSDiv
	OpUDiv
	OpSRem
	OpURem
	OpAnd
	OpOr
	OpXor
	OpShl
	OpLShr
	OpAShr

	OpICmp
	OpGetElementPtr
	OpBitCast
	OpCall
	OpInvoke
	OpPhi
	OpBr
	OpCondBr
	OpRet
	OpLandingPad
	OpResume
	OpUnreachable
)

// HasSideEffects reports whether an instruction with this opcode may never
// be dropped or speculated past a control-flow boundary. The lowering
// driver (C8) folds a producer into its consumers only when this is
// false and every user lives in the producer's own block. Every terminator
// counts as side-effecting so the lowering driver never tries to merge one
// into a predecessor.
func (op Opcode) HasSideEffects() bool {
	switch op {
	case OpStore, OpCall, OpInvoke, OpAlloca, OpLandingPad,
		OpRet, OpBr, OpCondBr, OpResume, OpUnreachable:
		return true
	default:
		return false
	}
}

// IsTerminator reports whether this opcode ends a basic block.
func (op Opcode) IsTerminator() bool {
	switch op {
	case OpRet, OpBr, OpCondBr, OpInvoke, OpResume, OpUnreachable:
		return true
	default:
		return false
	}
}

// CmpCond is an icmp predicate.
type CmpCond uint8

const (
	CmpInvalid CmpCond = iota
	CmpEq
	CmpNe
	CmpSgt
	CmpSge
	CmpSlt
	CmpSle
	CmpUgt
	CmpUge
	CmpUlt
	CmpUle
)

// AttrKind is a function/parameter/call-site attribute keyword (spec.md
// §5's attribute groups), plus the open-ended `"key"="value"` string form.
type AttrKind uint8

const (
	AttrInvalid AttrKind = iota
	AttrNoInline
	AttrAlwaysInline
	AttrNoReturn
	AttrNoUnwind
	AttrOptNone
	AttrUWTable
	AttrReadOnly
	AttrReadNone
	AttrZeroExt
	AttrSignExt
	AttrString // KVKey/KVValue carry the literal pair
)

// attrKeywords is the fixed keyword set the parser recognizes in an
// attribute group body, taken from the original implementation's
// attribute keyword table (original_source's attributes parser) rather
// than invented (SPEC_FULL.md §5).
var attrKeywords = map[string]AttrKind{
	"noinline":     AttrNoInline,
	"alwaysinline": AttrAlwaysInline,
	"noreturn":     AttrNoReturn,
	"nounwind":     AttrNoUnwind,
	"optnone":      AttrOptNone,
	"uwtable":      AttrUWTable,
	"readonly":     AttrReadOnly,
	"readnone":     AttrReadNone,
	"zeroext":      AttrZeroExt,
	"signext":      AttrSignExt,
}

// LookupAttrKeyword resolves a bare attribute keyword token to its Kind,
// ok=false for anything outside the fixed set (the parser then tries the
// `"key"="value"` string-attribute production instead).
func LookupAttrKeyword(s string) (AttrKind, bool) {
	k, ok := attrKeywords[s]
	return k, ok
}

// keywordByAttr is attrKeywords inverted, built once, for the printer's
// Attribute.String (spec.md §4.5's text round-trip needs the exact
// keyword back, not a Go-derived name).
var keywordByAttr = func() map[AttrKind]string {
	m := make(map[AttrKind]string, len(attrKeywords))
	for kw, k := range attrKeywords {
		m[k] = kw
	}
	return m
}()

// String renders a back an Attribute the way the parser's grammar
// accepts it: a bare keyword, or a quoted `"key"="value"` pair.
func (a Attribute) String() string {
	if a.Kind == AttrString {
		if a.KVValue == "" {
			return `"` + a.KVKey + `"`
		}
		return `"` + a.KVKey + `"="` + a.KVValue + `"`
	}
	return keywordByAttr[a.Kind]
}

// Attribute is a single entry of a parsed attribute group.
type Attribute struct {
	Kind           AttrKind
	KVKey, KVValue string
}

// PhiIncoming is one (value, predecessor) pair of a phi instruction.
type PhiIncoming struct {
	Value ValueID
	Block BlockID
}

// Operand is the flattened union of every opcode's operand payload,
// mirrored on the Rust original's Operand enum (one struct per variant
// there; here, one field set shared by all variants, matching the
// teacher's preference for flat structs over deep interface hierarchies
// — see ssa.Instruction in internal/engine/wazevo/ssa/instructions.go).
// Which fields are meaningful is entirely determined by the owning
// Instruction's Opcode.
type Operand struct {
	// Args holds the opcode's operand value ids in a fixed, opcode-defined
	// order (e.g. [ptr] for Load, [ptr, val] for Store, [lhs, rhs] for the
	// int-binary family, [cond] for CondBr's condition).
	Args []ValueID

	// Types holds the opcode-relevant types: e.g. Alloca's allocated type,
	// Load/Store's value type, GetElementPtr's [aggregate, indexed...]
	// type chain, Call/Invoke's callee signature.
	Types []types.ID

	// Int-binary flags.
	NUW, NSW, Exact bool

	// Load/Store/Alloca.
	Align uint32

	// Alloca: optional `, i32 N` element count; InvalidValue if absent.
	NumElements ValueID

	// GetElementPtr.
	Inbounds bool

	// ICmp.
	Cond CmpCond

	// Phi: one entry per incoming edge.
	Incoming []PhiIncoming

	// Br: [target]. CondBr: [trueTarget, falseTarget], condition in Args[0].
	Targets []BlockID

	// Invoke: normal/unwind continuation blocks.
	InvokeNormal, InvokeUnwind BlockID

	// Call/Invoke.
	Callee       ValueID
	CallArgAttrs [][]Attribute

	// Func/call/param attributes attached to this instruction.
	Attrs []Attribute

	// LandingPad.
	Cleanup bool
}
