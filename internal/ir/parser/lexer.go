package parser

import (
	"strings"
	"text/scanner"
)

// sigilIdentRune is the lexer's IsIdentRune, grounded on db47h/ngaro's
// asm.isIdentRune (asm/parser.go): the stdlib scanner only tokenizes the
// identifier shapes its own rune classifier allows, so LLVM's sigil-led
// names (`%foo`, `@bar`, `!5`, `#3`) need their own first-rune set. Unlike
// ngaro's forth-flavored "anything goes" classifier, ours stays close to
// the default Go identifier shape plus the four sigils and `.`/`-`, which
// covers the grammar's local/global/metadata/attribute-group names and
// numeric temporaries without swallowing punctuation that the grammar
// uses as its own tokens (`{`, `(`, `*`, `,`, ...).
func sigilIdentRune(ch rune, i int) bool {
	if i == 0 {
		return ch == '%' || ch == '@' || ch == '!' || ch == '#' || ch == '_' ||
			('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
	}
	return ch == '_' || ch == '.' || ch == '-' ||
		('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ('0' <= ch && ch <= '9')
}

type token struct {
	tok  rune
	text string
	pos  scanner.Position
}

// lexer wraps text/scanner.Scanner with a small lookahead queue — the
// grammar's one ambiguous production (a block label `name:` vs. the start
// of an instruction) needs two tokens of lookahead; everything else in
// the grammar needs only one.
type lexer struct {
	s     scanner.Scanner
	queue []token
	errs  []error
}

func newLexer(filename, src string) *lexer {
	l := &lexer{}
	l.s.Init(strings.NewReader(src))
	l.s.Filename = filename
	l.s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanStrings | scanner.ScanComments | scanner.SkipComments
	l.s.IsIdentRune = sigilIdentRune
	l.s.Error = func(s *scanner.Scanner, msg string) {
		l.errs = append(l.errs, &SyntaxError{Pos: s.Position, Expected: msg, Got: ""})
	}
	return l
}

// fill ensures the queue holds at least n+1 tokens.
func (l *lexer) fill(n int) {
	for len(l.queue) <= n {
		tok := l.s.Scan()
		l.queue = append(l.queue, token{tok: tok, text: l.s.TokenText(), pos: l.s.Position})
	}
}

// peek returns the current lookahead token without consuming it.
func (l *lexer) peek() rune {
	l.fill(0)
	return l.queue[0].tok
}

// peekText returns the current lookahead token's text.
func (l *lexer) peekText() string {
	l.fill(0)
	return l.queue[0].text
}

// peekTextAt returns the text of the token n positions ahead of the
// current lookahead (0 == the current lookahead itself).
func (l *lexer) peekTextAt(n int) string {
	l.fill(n)
	return l.queue[n].text
}

// next consumes and returns the current lookahead token's text.
func (l *lexer) next() string {
	text := l.peekText()
	l.queue = l.queue[1:]
	return text
}

// pos reports the position of the current lookahead token.
func (l *lexer) pos() scanner.Position {
	l.fill(0)
	return l.queue[0].pos
}

// is reports whether the lookahead token's text equals s (used for
// keyword and punctuation matching — both keywords and single-char
// punctuation come back as their literal text under our Mode).
func (l *lexer) is(s string) bool { return l.peekText() == s }

// accept consumes the lookahead iff it equals s, reporting whether it did.
func (l *lexer) accept(s string) bool {
	if l.is(s) {
		l.next()
		return true
	}
	return false
}

// expect consumes the lookahead, requiring it to equal s.
func (l *lexer) expect(s string) error {
	if !l.accept(s) {
		return &SyntaxError{Pos: l.pos(), Expected: s, Got: l.peekText()}
	}
	return nil
}

// atEOF reports whether the lookahead is the end of input.
func (l *lexer) atEOF() bool { return l.peek() == scanner.EOF }

// acceptEllipsis consumes a `...` vararg marker, lexed as three
// individual `.` tokens since `.` is not part of sigilIdentRune's
// first-rune set (it only extends an identifier already in progress,
// e.g. `%foo.bar`). Returns false without consuming anything if the
// lookahead isn't a `.`.
func (l *lexer) acceptEllipsis() bool {
	if !l.is(".") {
		return false
	}
	l.next()
	l.expect(".")
	l.expect(".")
	return true
}

// looksLikeLabel reports whether the lookahead is a bare identifier
// immediately followed by `:`, the block-label production
// (spec.md §4.1's per-block grammar).
func (l *lexer) looksLikeLabel() bool {
	tok := l.peekText()
	if tok == "" || strings.ContainsAny(tok[:1], "%@!#") {
		return false
	}
	return l.peekTextAt(1) == ":"
}
