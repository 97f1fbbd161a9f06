// Package name implements the name model (C2): symbolic or auto-assigned
// numeric identifiers, with structural equality, plus a per-function
// interning table (Table). Neither the parser nor the printer uses Table:
// the parser keeps its own name maps in its per-function funcCtx, and
// the printer has no re-numbering pass.
package name

import "fmt"

// Name is either a symbolic identifier (`%foo`) or a numeric one (`%12`).
// Equality is structural: two Names are == iff they have the same kind and
// the same payload, which Go gives us for free since both fields
// participate in the comparison.
type Name struct {
	Symbolic string
	Numeric  uint64
	isNumber bool
}

// Sym builds a symbolic Name.
func Sym(s string) Name { return Name{Symbolic: s} }

// Num builds a numeric Name.
func Num(n uint64) Name { return Name{Numeric: n, isNumber: true} }

// IsNumeric reports whether this Name is the auto-assigned-integer form.
func (n Name) IsNumeric() bool { return n.isNumber }

// String renders the name without its sigil (callers that need `%`/`@`
// prepend it, since the sigil depends on whether it names a local or
// global).
func (n Name) String() string {
	if n.isNumber {
		return fmt.Sprintf("%d", n.Numeric)
	}
	return n.Symbolic
}

// Table interns Names to small dense ids within a single function's value
// namespace, answering "have I seen this name before".
type Table struct {
	byName map[Name]int
	names  []Name
}

// NewTable returns an empty name table.
func NewTable() *Table {
	return &Table{byName: make(map[Name]int)}
}

// Lookup returns the id previously assigned to n, and whether it existed.
func (t *Table) Lookup(n Name) (int, bool) {
	id, ok := t.byName[n]
	return id, ok
}

// Intern records id for n, unless n already has one, in which case the
// existing id is kept. It returns nothing; Lookup reads the id back.
func (t *Table) Intern(n Name, id int) {
	if _, ok := t.byName[n]; ok {
		return
	}
	t.byName[n] = id
	t.names = append(t.names, n)
}

// Reset clears the table for reuse across functions.
func (t *Table) Reset() {
	for k := range t.byName {
		delete(t.byName, k)
	}
	t.names = t.names[:0]
}
