// Package parser implements the textual assembly parser (C6): a
// recursive-descent parser over a text/scanner.Scanner token stream that
// produces a module.Module or a structured error, resolving forward
// references as it goes (spec.md §4.1).
package parser

import (
	"fmt"
	"text/scanner"
)

// SyntaxError reports a production the parser could not match at pos.
type SyntaxError struct {
	Pos      scanner.Position
	Expected string
	Got      string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: syntax error: expected %s, got %q", e.Pos, e.Expected, e.Got)
}

// UnresolvedReference reports a name used but never defined by the time
// its owning function's body closes.
type UnresolvedReference struct {
	Pos  scanner.Position
	Name string
}

func (e *UnresolvedReference) Error() string {
	return fmt.Sprintf("%s: unresolved reference to %q", e.Pos, e.Name)
}

// TypeMismatch reports a constant literal parsed against an incompatible
// type (e.g. an integer literal whose expected type is not an integer
// type, or digits that overflow 64 bits).
type TypeMismatch struct {
	Pos      scanner.Position
	Expected string
	Found    string
}

func (e *TypeMismatch) Error() string {
	return fmt.Sprintf("%s: type mismatch: expected %s, found %s", e.Pos, e.Expected, e.Found)
}

// UnsupportedOpcode reports an opcode keyword outside the grammar's
// recognized set.
type UnsupportedOpcode struct {
	Pos  scanner.Position
	Text string
}

func (e *UnsupportedOpcode) Error() string {
	return fmt.Sprintf("%s: unsupported opcode %q", e.Pos, e.Text)
}

// InvariantViolated reports a broken structural invariant (phi not at
// block head, missing terminator, and so on). The parser never returns
// it: a function body that fails ir.Function.Validate surfaces as that
// method's own error (ir.ErrMissingTerminator, ir.ErrPhiNotAtHead, ...).
type InvariantViolated struct {
	Description string
}

func (e *InvariantViolated) Error() string { return "invariant violated: " + e.Description }
