package parser

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/vicis-ir/vicis/internal/ir/module"
)

// Parser drives the module-level dispatch loop (spec.md §4.1's
// "Contract"): source-filename directive, target data-layout/triple,
// named type aliases, attribute-group definitions, global-variable
// definitions, function definitions/declarations, and metadata nodes, in
// any order.
type Parser struct {
	lx     *lexer
	module *module.Module
}

// Parse parses src (a complete translation unit) into a Module, or
// returns the first structured error encountered (spec.md §4.1
// "Failure modes" — the parser does not attempt error recovery past the
// first production it cannot match, matching spec.md §7's "errors are
// never recovered within the core").
func Parse(filename, src string) (*module.Module, error) {
	p := &Parser{lx: newLexer(filename, src), module: module.New()}
	if err := p.parseModule(); err != nil {
		return nil, err
	}
	if len(p.lx.errs) > 0 {
		return nil, p.lx.errs[0]
	}
	if err := p.module.Validate(); err != nil {
		return nil, err
	}
	return p.module, nil
}

func (p *Parser) parseModule() error {
	for !p.lx.atEOF() {
		tok := p.lx.peekText()
		var err error
		switch tok {
		case "source_filename":
			err = p.parseSourceFilename()
		case "target":
			err = p.parseTargetDirective()
		case "attributes":
			err = p.parseAttributeGroupDef()
		case "define", "declare":
			err = p.parseFunction()
		default:
			switch {
			case strings.HasPrefix(tok, "%"):
				err = p.parseNamedTypeDef()
			case strings.HasPrefix(tok, "@"):
				err = p.parseGlobalVariable()
			case strings.HasPrefix(tok, "!"):
				err = p.parseMetadataNode()
			default:
				err = &SyntaxError{Pos: p.lx.pos(), Expected: "a top-level construct", Got: tok}
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) parseSourceFilename() error {
	if err := p.lx.expect("source_filename"); err != nil {
		return err
	}
	if err := p.lx.expect("="); err != nil {
		return err
	}
	raw := p.lx.next()
	s, err := strconv.Unquote(raw)
	if err != nil {
		return &SyntaxError{Pos: p.lx.pos(), Expected: "quoted filename", Got: raw}
	}
	p.module.SourceFilename = s
	return nil
}

func (p *Parser) parseTargetDirective() error {
	if err := p.lx.expect("target"); err != nil {
		return err
	}
	kind := p.lx.next()
	if err := p.lx.expect("="); err != nil {
		return err
	}
	raw := p.lx.next()
	s, err := strconv.Unquote(raw)
	if err != nil {
		return &SyntaxError{Pos: p.lx.pos(), Expected: "quoted string", Got: raw}
	}
	switch kind {
	case "datalayout":
		p.module.TargetDatalayout = s
	case "triple":
		p.module.TargetTriple = s
	default:
		return &SyntaxError{Pos: p.lx.pos(), Expected: "datalayout or triple", Got: kind}
	}
	return nil
}

// parseNamedTypeDef parses `%name = type <body>`.
func (p *Parser) parseNamedTypeDef() error {
	nameTok := p.lx.next()
	id := p.module.Types.DeclareNamed(nameTok[1:])
	if err := p.lx.expect("="); err != nil {
		return err
	}
	if err := p.lx.expect("type"); err != nil {
		return err
	}
	if p.lx.accept("opaque") {
		return nil
	}
	body, err := p.parseType()
	if err != nil {
		return err
	}
	return errors.WithStack(p.module.Types.DefineNamed(p.module.Types.NamedName(id), body))
}

// parseMetadataNode parses `!N = !"str"` or `!N = !{ ... }`
// (original_source/core/src/ir/module/parser.rs's metadata dispatch).
func (p *Parser) parseMetadataNode() error {
	tok := p.lx.next()
	id, err := strconv.ParseUint(tok[1:], 10, 64)
	if err != nil {
		return &SyntaxError{Pos: p.lx.pos(), Expected: "!N", Got: tok}
	}
	if err := p.lx.expect("="); err != nil {
		return err
	}
	if err := p.lx.expect("!"); err != nil {
		return err
	}
	node := &module.MetadataNode{ID: id}
	switch {
	case strings.HasPrefix(p.lx.peekText(), `"`):
		raw := p.lx.next()
		s, err := strconv.Unquote(raw)
		if err != nil {
			return &SyntaxError{Pos: p.lx.pos(), Expected: "quoted metadata string", Got: raw}
		}
		node.Kind = module.MetadataString
		node.Str = s
	case p.lx.accept("{"):
		node.Kind = module.MetadataNodeList
		for !p.lx.is("}") {
			if p.lx.accept("null") {
				node.Operand = append(node.Operand, 0)
			} else {
				ref := p.lx.next()
				n, err := strconv.ParseUint(strings.TrimPrefix(ref, "!"), 10, 64)
				if err != nil {
					return &SyntaxError{Pos: p.lx.pos(), Expected: "metadata reference", Got: ref}
				}
				node.Operand = append(node.Operand, n)
			}
			if !p.lx.accept(",") {
				break
			}
		}
		if err := p.lx.expect("}"); err != nil {
			return err
		}
	default:
		return &SyntaxError{Pos: p.lx.pos(), Expected: "metadata string or node list", Got: p.lx.peekText()}
	}
	p.module.Metadata[id] = node
	return nil
}

// parseGlobalVariable parses `@name = [linkage] (global|constant) T [init]`.
func (p *Parser) parseGlobalVariable() error {
	nameTok := p.lx.next()
	if err := p.lx.expect("="); err != nil {
		return err
	}
	linkage := module.LinkageExternal
	switch {
	case p.lx.accept("internal"):
		linkage = module.LinkageInternal
	case p.lx.accept("private"):
		linkage = module.LinkagePrivate
	case p.lx.accept("common"):
		linkage = module.LinkageCommon
	}
	isExternalDecl := p.lx.accept("external")
	isConstant := false
	switch {
	case p.lx.accept("constant"):
		isConstant = true
	case p.lx.accept("global"):
	default:
		return &SyntaxError{Pos: p.lx.pos(), Expected: "global or constant", Got: p.lx.peekText()}
	}
	ty, err := p.parseType()
	if err != nil {
		return err
	}
	g := &module.GlobalVariable{Name: nameTok[1:], Type: ty, Linkage: linkage, IsConstant: isConstant}
	if !isExternalDecl {
		init, err := p.parseConstant(ty)
		if err != nil {
			return err
		}
		g.Initializer = &init
	}
	p.module.AddGlobal(g)
	return nil
}
