// Package value implements the value/constant model (C3): values are a
// closed union of constant / instruction-result reference / argument
// reference / inline-assembly blob, and constants form their own algebra
// including lazily-evaluated constant expressions.
package value

import (
	"fmt"

	"github.com/vicis-ir/vicis/internal/ir/types"
)

// InstRef names an instruction by its arena id. It mirrors ir.InstID's
// representation without importing package ir (which embeds package value
// in its instruction operands), avoiding an import cycle.
type InstRef uint32

// ArgRef names a function argument by its positional index.
type ArgRef int

// Kind discriminates the Value union.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindConstant
	KindInstResult
	KindArgument
	KindInlineAsm
)

// Value is a reference usable as an instruction operand: a constant, an
// instruction's result, a function argument, or an inline-asm blob
// (spec.md §3).
type Value struct {
	Kind  Kind
	Type  types.ID
	Const Constant
	Inst  InstRef
	Arg   ArgRef
	Asm   string
}

// FromConstant wraps a Constant as a Value.
func FromConstant(c Constant) Value {
	return Value{Kind: KindConstant, Type: c.Type, Const: c}
}

// FromInstResult wraps a reference to instruction id's result.
func FromInstResult(id InstRef, ty types.ID) Value {
	return Value{Kind: KindInstResult, Type: ty, Inst: id}
}

// FromArgument wraps a reference to the function argument at index idx.
func FromArgument(idx ArgRef, ty types.ID) Value {
	return Value{Kind: KindArgument, Type: ty, Arg: idx}
}

// FromInlineAsm wraps an inline assembly blob.
func FromInlineAsm(asm string, ty types.ID) Value {
	return Value{Kind: KindInlineAsm, Type: ty, Asm: asm}
}

// ConstKind discriminates the ConstantData union.
type ConstKind uint8

const (
	ConstInvalid ConstKind = iota
	ConstInt
	ConstNull
	ConstUndef
	ConstAggregateZero
	ConstArray
	ConstStruct
	ConstGlobalRef
	ConstExpr
)

// Constant is the flattened representation of spec.md §3's ConstantData
// union: integer constants (typed by width), null, undef, aggregate-zero,
// array (with an is-string bit), struct (with a packed bit),
// global-reference-by-name, and constant expressions.
type Constant struct {
	Kind ConstKind
	Type types.ID

	// ConstInt: the raw bit pattern, masked/sign-extended per Type's width
	// by consumers (the parser stores exactly what it parsed).
	IntBits uint64

	// ConstArray
	ArrayElems  []Constant
	ArrayElemTy types.ID
	IsString    bool

	// ConstStruct
	StructFields []Constant
	StructPacked bool

	// ConstGlobalRef
	GlobalName string

	// ConstExpr
	Expr *Expr
}

// ExprKind discriminates the ConstantExpr union.
type ExprKind uint8

const (
	ExprInvalid ExprKind = iota
	ExprGetElementPtr
	ExprBitcast
)

// Expr is a constant expression (getelementptr or bitcast), carrying the
// full type chain it was built with. Parsed eagerly, evaluated lazily by
// consumers via Fold (spec.md §3: "the parser does NOT reduce them").
type Expr struct {
	Kind ExprKind

	// GetElementPtr
	Inbounds bool
	GEPTypes []types.ID // [0] = base aggregate type, [1:] = indexed types
	GEPArgs  []Constant // base pointer + indices

	// Bitcast
	From, To types.ID
	Arg      *Constant
}

// Int builds a typed integer constant.
func Int(ty types.ID, bits uint64) Constant {
	return Constant{Kind: ConstInt, Type: ty, IntBits: bits}
}

// Null builds a typed null-pointer constant.
func Null(ty types.ID) Constant { return Constant{Kind: ConstNull, Type: ty} }

// Undef builds a typed undef constant.
func Undef(ty types.ID) Constant { return Constant{Kind: ConstUndef, Type: ty} }

// AggregateZero builds a typed zeroinitializer constant.
func AggregateZero(ty types.ID) Constant { return Constant{Kind: ConstAggregateZero, Type: ty} }

// Array builds an array constant; isString records whether it was written
// as a `c"..."` string literal (affects only printing).
func Array(ty, elemTy types.ID, elems []Constant, isString bool) Constant {
	return Constant{Kind: ConstArray, Type: ty, ArrayElemTy: elemTy, ArrayElems: elems, IsString: isString}
}

// Struct builds a struct constant.
func Struct(ty types.ID, fields []Constant, packed bool) Constant {
	return Constant{Kind: ConstStruct, Type: ty, StructFields: fields, StructPacked: packed}
}

// GlobalRef builds a reference-by-name to a global variable or function.
func GlobalRef(ty types.ID, name string) Constant {
	return Constant{Kind: ConstGlobalRef, Type: ty, GlobalName: name}
}

// FromExpr wraps a constant expression as a Constant of its result type.
func FromExpr(resultTy types.ID, e *Expr) Constant {
	return Constant{Kind: ConstExpr, Type: resultTy, Expr: e}
}

// String implements fmt.Stringer for debugging (the printer has its own,
// type-aware formatting in package printer).
func (c Constant) String() string {
	switch c.Kind {
	case ConstInt:
		return fmt.Sprintf("%d", int64(c.IntBits))
	case ConstNull:
		return "null"
	case ConstUndef:
		return "undef"
	case ConstAggregateZero:
		return "zeroinitializer"
	case ConstGlobalRef:
		return "@" + c.GlobalName
	default:
		return fmt.Sprintf("<const kind %d>", c.Kind)
	}
}
