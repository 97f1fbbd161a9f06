package parser

import (
	"strconv"
	"strings"

	"github.com/vicis-ir/vicis/internal/ir/ir"
	"github.com/vicis-ir/vicis/internal/ir/module"
)

// parseAttributeList parses a run of bare attribute keywords and
// `"key"="value"` pairs, stopping (without consuming) at the first token
// that starts neither production — used for function/parameter/call-site
// attribute lists (spec.md §4.1 "Attributes").
func (p *Parser) parseAttributeList() ([]ir.Attribute, error) {
	var attrs []ir.Attribute
	for {
		tok := p.lx.peekText()
		if kind, ok := ir.LookupAttrKeyword(tok); ok {
			p.lx.next()
			attrs = append(attrs, ir.Attribute{Kind: kind})
			continue
		}
		if strings.HasPrefix(tok, `"`) {
			k, v, err := p.parseStringAttr()
			if err != nil {
				return nil, err
			}
			attrs = append(attrs, ir.Attribute{Kind: ir.AttrString, KVKey: k, KVValue: v})
			continue
		}
		return attrs, nil
	}
}

func (p *Parser) parseStringAttr() (string, string, error) {
	kRaw := p.lx.next()
	k, err := strconv.Unquote(kRaw)
	if err != nil {
		return "", "", &SyntaxError{Pos: p.lx.pos(), Expected: "attribute key string", Got: kRaw}
	}
	if !p.lx.accept("=") {
		return k, "", nil
	}
	vRaw := p.lx.next()
	v, err := strconv.Unquote(vRaw)
	if err != nil {
		return "", "", &SyntaxError{Pos: p.lx.pos(), Expected: "attribute value string", Got: vRaw}
	}
	return k, v, nil
}

// parseAttributeGroupDef parses a module-level `attributes #N = { ... }`
// definition (original_source/core/src/ir/module/parser.rs::
// parse_attribute_group).
func (p *Parser) parseAttributeGroupDef() error {
	if err := p.lx.expect("attributes"); err != nil {
		return err
	}
	id, err := p.parseAttrGroupRef()
	if err != nil {
		return err
	}
	if err := p.lx.expect("="); err != nil {
		return err
	}
	if err := p.lx.expect("{"); err != nil {
		return err
	}
	attrs, err := p.parseAttributeList()
	if err != nil {
		return err
	}
	if err := p.lx.expect("}"); err != nil {
		return err
	}
	p.module.AttrGroups[id] = &module.AttributeGroup{ID: id, Attrs: attrs}
	return nil
}

// parseAttrGroupRef parses a bare `#N` token into its numeric id.
func (p *Parser) parseAttrGroupRef() (uint64, error) {
	tok := p.lx.peekText()
	if !strings.HasPrefix(tok, "#") {
		return 0, &SyntaxError{Pos: p.lx.pos(), Expected: "#N", Got: tok}
	}
	p.lx.next()
	n, err := strconv.ParseUint(tok[1:], 10, 64)
	if err != nil {
		return 0, &SyntaxError{Pos: p.lx.pos(), Expected: "#N", Got: tok}
	}
	return n, nil
}

// resolveAttrGroupRefs expands any `#N` references trailing a function's
// attribute list against the module's attribute-group table. parseFunction
// calls it right after the function header, before the body is parsed,
// so only groups defined earlier in the source are found; a reference to
// any other group is a SyntaxError.
func (p *Parser) resolveAttrGroupRefs(attrs []ir.Attribute, refs []uint64) ([]ir.Attribute, error) {
	out := append([]ir.Attribute(nil), attrs...)
	for _, id := range refs {
		g, ok := p.module.AttrGroups[id]
		if !ok {
			return nil, &SyntaxError{Pos: p.lx.pos(), Expected: "defined attribute group", Got: "#" + strconv.FormatUint(id, 10)}
		}
		out = append(out, g.Attrs...)
	}
	return out, nil
}
