package parser

import (
	"strconv"
	"strings"

	"github.com/vicis-ir/vicis/internal/ir/types"
	"github.com/vicis-ir/vicis/internal/ir/value"
)

// parseConstant parses a constant literal of the given type: integers,
// null, undef, zeroinitializer, array/struct aggregates, string literals,
// global references, and the two constant-expression forms
// (getelementptr, bitcast), per spec.md §4.1's "Constant expressions" and
// §3's ConstantData algebra.
func (p *Parser) parseConstant(ty types.ID) (value.Constant, error) {
	tok := p.lx.peekText()
	switch {
	case tok == "null":
		p.lx.next()
		return value.Null(ty), nil
	case tok == "undef":
		p.lx.next()
		return value.Undef(ty), nil
	case tok == "zeroinitializer":
		p.lx.next()
		return value.AggregateZero(ty), nil
	case tok == "c":
		return p.parseStringConstant(ty)
	case tok == "getelementptr":
		return p.parseGEPConstant()
	case tok == "bitcast":
		return p.parseBitcastConstant()
	case strings.HasPrefix(tok, "@"):
		p.lx.next()
		return value.GlobalRef(ty, tok[1:]), nil
	case tok == "[":
		return p.parseArrayConstant(ty)
	case tok == "{":
		return p.parseStructConstant(ty)
	case tok == "-" || isAllDigits(tok):
		return p.parseIntConstant(ty)
	default:
		return value.Constant{}, &SyntaxError{Pos: p.lx.pos(), Expected: "a constant", Got: tok}
	}
}

func (p *Parser) parseIntConstant(ty types.ID) (value.Constant, error) {
	neg := p.lx.accept("-")
	digits := p.lx.next()
	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return value.Constant{}, &TypeMismatch{Pos: p.lx.pos(), Expected: "integer", Found: digits}
	}
	bits := n
	if neg {
		bits = uint64(-int64(n))
	}
	if p.module.Types.Kind(ty) != types.KindI1 && p.module.Types.Kind(ty) != types.KindI8 &&
		p.module.Types.Kind(ty) != types.KindI32 && p.module.Types.Kind(ty) != types.KindI64 &&
		!p.module.Types.IsNamed(ty) {
		return value.Constant{}, &TypeMismatch{Pos: p.lx.pos(), Expected: "integer type", Found: p.module.Types.Format(ty)}
	}
	return value.Int(ty, bits), nil
}

// parseStringConstant parses a `c"..."` array-of-i8 literal (global
// initializer form). Escape handling follows Go string-literal syntax
// (the scanner's native ScanStrings mode) rather than LLVM's `\XX` hex
// byte escapes — a deliberate simplification from the original grammar,
// noted in DESIGN.md, since every scenario this grammar needs to round-
// trip uses plain printable content.
func (p *Parser) parseStringConstant(ty types.ID) (value.Constant, error) {
	if err := p.lx.expect("c"); err != nil {
		return value.Constant{}, err
	}
	raw := p.lx.next()
	s, err := strconv.Unquote(raw)
	if err != nil {
		return value.Constant{}, &SyntaxError{Pos: p.lx.pos(), Expected: "string literal", Got: raw}
	}
	elems := make([]value.Constant, len(s))
	for i := 0; i < len(s); i++ {
		elems[i] = value.Int(p.module.Types.I8(), uint64(s[i]))
	}
	return value.Array(ty, p.module.Types.I8(), elems, true), nil
}

func (p *Parser) parseArrayConstant(ty types.ID) (value.Constant, error) {
	if err := p.lx.expect("["); err != nil {
		return value.Constant{}, err
	}
	elemTy := p.module.Types.ElemOf(ty)
	var elems []value.Constant
	for !p.lx.is("]") {
		et, err := p.parseType()
		if err != nil {
			return value.Constant{}, err
		}
		c, err := p.parseConstant(et)
		if err != nil {
			return value.Constant{}, err
		}
		elems = append(elems, c)
		if !p.lx.accept(",") {
			break
		}
	}
	if err := p.lx.expect("]"); err != nil {
		return value.Constant{}, err
	}
	return value.Array(ty, elemTy, elems, false), nil
}

func (p *Parser) parseStructConstant(ty types.ID) (value.Constant, error) {
	if err := p.lx.expect("{"); err != nil {
		return value.Constant{}, err
	}
	fieldTys := p.module.Types.StructFields(ty)
	var fields []value.Constant
	i := 0
	for !p.lx.is("}") {
		var fieldTy types.ID
		if i < len(fieldTys) {
			fieldTy = fieldTys[i]
		}
		t, err := p.parseType()
		if err != nil {
			return value.Constant{}, err
		}
		if fieldTy == types.Invalid {
			fieldTy = t
		}
		c, err := p.parseConstant(fieldTy)
		if err != nil {
			return value.Constant{}, err
		}
		fields = append(fields, c)
		i++
		if !p.lx.accept(",") {
			break
		}
	}
	if err := p.lx.expect("}"); err != nil {
		return value.Constant{}, err
	}
	return value.Struct(ty, fields, p.module.Types.StructPacked(ty)), nil
}

// parseGEPConstant parses `getelementptr [inbounds] (T, T* C, i32 idx, ...)`
// in constant position (spec.md §8 scenario 4).
func (p *Parser) parseGEPConstant() (value.Constant, error) {
	if err := p.lx.expect("getelementptr"); err != nil {
		return value.Constant{}, err
	}
	inbounds := p.lx.accept("inbounds")
	if err := p.lx.expect("("); err != nil {
		return value.Constant{}, err
	}
	aggTy, err := p.parseType()
	if err != nil {
		return value.Constant{}, err
	}
	if err := p.lx.expect(","); err != nil {
		return value.Constant{}, err
	}
	baseTy, err := p.parseType()
	if err != nil {
		return value.Constant{}, err
	}
	baseVal, err := p.parseConstant(baseTy)
	if err != nil {
		return value.Constant{}, err
	}
	gepTypes := []types.ID{aggTy}
	gepArgs := []value.Constant{baseVal}
	for p.lx.accept(",") {
		idxTy, err := p.parseType()
		if err != nil {
			return value.Constant{}, err
		}
		idxVal, err := p.parseConstant(idxTy)
		if err != nil {
			return value.Constant{}, err
		}
		gepTypes = append(gepTypes, idxTy)
		gepArgs = append(gepArgs, idxVal)
	}
	if err := p.lx.expect(")"); err != nil {
		return value.Constant{}, err
	}
	resultTy := p.module.Types.Ptr(gepTypes[len(gepTypes)-1])
	expr := &value.Expr{Kind: value.ExprGetElementPtr, Inbounds: inbounds, GEPTypes: gepTypes, GEPArgs: gepArgs}
	return value.FromExpr(resultTy, expr), nil
}

// parseBitcastConstant parses `bitcast (T C to T2)`.
func (p *Parser) parseBitcastConstant() (value.Constant, error) {
	if err := p.lx.expect("bitcast"); err != nil {
		return value.Constant{}, err
	}
	if err := p.lx.expect("("); err != nil {
		return value.Constant{}, err
	}
	from, err := p.parseType()
	if err != nil {
		return value.Constant{}, err
	}
	arg, err := p.parseConstant(from)
	if err != nil {
		return value.Constant{}, err
	}
	if err := p.lx.expect("to"); err != nil {
		return value.Constant{}, err
	}
	to, err := p.parseType()
	if err != nil {
		return value.Constant{}, err
	}
	if err := p.lx.expect(")"); err != nil {
		return value.Constant{}, err
	}
	expr := &value.Expr{Kind: value.ExprBitcast, From: from, To: to, Arg: &arg}
	return value.FromExpr(to, expr), nil
}
