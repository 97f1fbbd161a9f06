package parser

import (
	"strconv"
	"strings"

	"github.com/vicis-ir/vicis/internal/ir/types"
)

// parseType parses a single type expression: a primitive integer width,
// void, a named reference, a pointer/array/struct/function postfix or
// aggregate, per spec.md §4.1's type grammar.
func (p *Parser) parseType() (types.ID, error) {
	base, err := p.parseBaseType()
	if err != nil {
		return types.Invalid, err
	}
	for {
		switch {
		case p.lx.accept("*"):
			base = p.module.Types.Ptr(base)
		case p.lx.is("("):
			params, varArg, err := p.parseParamTypeList()
			if err != nil {
				return types.Invalid, err
			}
			base = p.module.Types.Func(base, params, varArg)
		default:
			return base, nil
		}
	}
}

func (p *Parser) parseBaseType() (types.ID, error) {
	tok := p.lx.peekText()
	switch {
	case tok == "void":
		p.lx.next()
		return p.module.Types.Void(), nil
	case tok == "i1" || tok == "i8" || tok == "i32" || tok == "i64":
		p.lx.next()
		switch tok {
		case "i1":
			return p.module.Types.I1(), nil
		case "i8":
			return p.module.Types.I8(), nil
		case "i32":
			return p.module.Types.I32(), nil
		default:
			return p.module.Types.I64(), nil
		}
	case strings.HasPrefix(tok, "i") && isAllDigits(tok[1:]):
		// Arbitrary iN width outside the four cached primitives (spec.md
		// §4.1: "Integer widths iN for arbitrary N"). Types.Kind only
		// models i1/i8/i32/i64, so such a width is accepted lexically and
		// widthToType maps it to the smallest of those four that is at
		// least as wide (anything wider than 64 bits becomes i64). The
		// original width is not kept: an i16 prints back as i32.
		p.lx.next()
		return p.widthToType(tok[1:])
	case strings.HasPrefix(tok, "%"):
		p.lx.next()
		return p.module.Types.DeclareNamed(tok[1:]), nil
	case tok == "[":
		return p.parseArrayType()
	case tok == "{":
		return p.parseStructType(false)
	case tok == "<":
		p.lx.next()
		if err := p.lx.expect("{"); err != nil {
			return types.Invalid, err
		}
		id, err := p.parseStructBody(true)
		if err != nil {
			return types.Invalid, err
		}
		if err := p.lx.expect(">"); err != nil {
			return types.Invalid, err
		}
		return id, nil
	default:
		return types.Invalid, &SyntaxError{Pos: p.lx.pos(), Expected: "a type", Got: tok}
	}
}

func (p *Parser) widthToType(digits string) (types.ID, error) {
	n, err := strconv.Atoi(digits)
	if err != nil {
		return types.Invalid, &SyntaxError{Pos: p.lx.pos(), Expected: "integer width", Got: digits}
	}
	switch {
	case n <= 1:
		return p.module.Types.I1(), nil
	case n <= 8:
		return p.module.Types.I8(), nil
	case n <= 32:
		return p.module.Types.I32(), nil
	default:
		return p.module.Types.I64(), nil
	}
}

func (p *Parser) parseArrayType() (types.ID, error) {
	if err := p.lx.expect("["); err != nil {
		return types.Invalid, err
	}
	lenTok := p.lx.next()
	n, err := strconv.ParseUint(lenTok, 10, 64)
	if err != nil {
		return types.Invalid, &SyntaxError{Pos: p.lx.pos(), Expected: "array length", Got: lenTok}
	}
	if err := p.lx.expect("x"); err != nil {
		return types.Invalid, err
	}
	elem, err := p.parseType()
	if err != nil {
		return types.Invalid, err
	}
	if err := p.lx.expect("]"); err != nil {
		return types.Invalid, err
	}
	return p.module.Types.Array(n, elem), nil
}

func (p *Parser) parseStructType(packed bool) (types.ID, error) {
	if err := p.lx.expect("{"); err != nil {
		return types.Invalid, err
	}
	return p.parseStructBody(packed)
}

// parseStructBody parses the field list after the opening brace has
// already been consumed, and consumes the closing `}` itself.
func (p *Parser) parseStructBody(packed bool) (types.ID, error) {
	var fields []types.ID
	for !p.lx.is("}") {
		f, err := p.parseType()
		if err != nil {
			return types.Invalid, err
		}
		fields = append(fields, f)
		if !p.lx.accept(",") {
			break
		}
	}
	if err := p.lx.expect("}"); err != nil {
		return types.Invalid, err
	}
	return p.module.Types.Struct(fields, packed), nil
}

// parseParamTypeList parses the parenthesized parameter type list of a
// function type, e.g. `(i32, i32, ...)`; the opening `(` is consumed here.
func (p *Parser) parseParamTypeList() ([]types.ID, bool, error) {
	if err := p.lx.expect("("); err != nil {
		return nil, false, err
	}
	var params []types.ID
	varArg := false
	for !p.lx.is(")") {
		if p.lx.acceptEllipsis() {
			varArg = true
			break
		}
		t, err := p.parseType()
		if err != nil {
			return nil, false, err
		}
		params = append(params, t)
		if !p.lx.accept(",") {
			break
		}
	}
	if err := p.lx.expect(")"); err != nil {
		return nil, false, err
	}
	return params, varArg, nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
