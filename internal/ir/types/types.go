// Package types implements the type interner (C1): a table of structural
// types reachable through stable handles. Structurally equal composite
// types (pointer, array, struct, function) always resolve to the same
// handle, and named types support the two-phase forward-declaration
// protocol LLVM textual IR requires for recursive struct definitions.
package types

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// ID is a stable handle into a Types registry. Two IDs are equal iff the
// types they name are structurally identical (or, for named types, iff
// they were registered under the same name).
type ID uint32

// Invalid is the zero value of ID and never returned by the type
// constructors (Ptr/Array/Struct/Func) or DeclareNamed.
const Invalid ID = 0

// Kind discriminates the variant stored at a given ID.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindVoid
	KindI1
	KindI8
	KindI32
	KindI64
	KindPtr
	KindArray
	KindStruct
	KindFunc
	KindNamed
)

// data is the structural payload for a single interned type. Exactly the
// fields relevant to Kind are populated; this is Go's stand-in for the
// closed sum type the source material expresses with an enum (spec.md §9
// "Sum types everywhere").
type data struct {
	kind Kind

	// Array
	arrayLen  uint64
	arrayElem ID

	// Struct
	fields []ID
	packed bool

	// Func
	ret     ID
	params  []ID
	varArg  bool

	// Ptr
	elem ID

	// Named
	name string
	body ID // Invalid until defined; KindNamed row with body==Invalid is "opaque/forward-declared"
}

// Types is the per-module type interner. It is not safe for concurrent use
// (single threaded per compilation unit): the parser mutates it, and so
// do the lowering target's hooks when they intern a new pointer type.
type Types struct {
	rows []data // rows[0] is the Invalid sentinel
	// structKey dedups composite types (ptr/array/struct/func) by a string
	// key built from their constituent IDs, so internComposite is idempotent.
	structKey map[string]ID
	// namedByName maps a named type's name to its row, so DeclareNamed is
	// idempotent and DefineNamed can find the row to patch.
	namedByName map[string]ID

	void, i1, i8, i32, i64 ID
}

// New returns an empty interner seeded with the fixed primitive types.
func New() *Types {
	t := &Types{
		rows:        make([]data, 1, 64), // row 0 = Invalid
		structKey:   make(map[string]ID),
		namedByName: make(map[string]ID),
	}
	t.void = t.primitive(KindVoid)
	t.i1 = t.primitive(KindI1)
	t.i8 = t.primitive(KindI8)
	t.i32 = t.primitive(KindI32)
	t.i64 = t.primitive(KindI64)
	return t
}

func (t *Types) primitive(k Kind) ID {
	id := ID(len(t.rows))
	t.rows = append(t.rows, data{kind: k})
	return id
}

func (t *Types) row(id ID) *data {
	if int(id) >= len(t.rows) {
		panic(fmt.Sprintf("types: invalid handle %d", id))
	}
	return &t.rows[id]
}

func (t *Types) Kind(id ID) Kind { return t.row(id).kind }

// Void/I1/I8/I32/I64 return the fixed primitive handles.
func (t *Types) Void() ID { return t.void }
func (t *Types) I1() ID   { return t.i1 }
func (t *Types) I8() ID   { return t.i8 }
func (t *Types) I32() ID  { return t.i32 }
func (t *Types) I64() ID  { return t.i64 }

// Ptr returns (interning) the pointer-to-elem type.
func (t *Types) Ptr(elem ID) ID {
	key := fmt.Sprintf("ptr(%d)", elem)
	return t.internComposite(key, data{kind: KindPtr, elem: elem})
}

// Array returns (interning) the [len x elem] type.
func (t *Types) Array(length uint64, elem ID) ID {
	key := fmt.Sprintf("array(%d,%d)", length, elem)
	return t.internComposite(key, data{kind: KindArray, arrayLen: length, arrayElem: elem})
}

// Struct returns (interning) an anonymous (non-named) struct type.
func (t *Types) Struct(fields []ID, packed bool) ID {
	var sb strings.Builder
	sb.WriteString("struct(")
	if packed {
		sb.WriteByte('p')
	}
	for _, f := range fields {
		fmt.Fprintf(&sb, ",%d", f)
	}
	sb.WriteByte(')')
	cp := append([]ID(nil), fields...)
	return t.internComposite(sb.String(), data{kind: KindStruct, fields: cp, packed: packed})
}

// Func returns (interning) a function type.
func (t *Types) Func(ret ID, params []ID, varArg bool) ID {
	var sb strings.Builder
	fmt.Fprintf(&sb, "func(%d", ret)
	for _, p := range params {
		fmt.Fprintf(&sb, ",%d", p)
	}
	if varArg {
		sb.WriteString(",...")
	}
	sb.WriteByte(')')
	cp := append([]ID(nil), params...)
	return t.internComposite(sb.String(), data{kind: KindFunc, ret: ret, params: cp, varArg: varArg})
}

func (t *Types) internComposite(key string, d data) ID {
	if id, ok := t.structKey[key]; ok {
		return id
	}
	id := ID(len(t.rows))
	t.rows = append(t.rows, d)
	t.structKey[key] = id
	return id
}

// DeclareNamed registers an empty named type under name if not already
// present, returning its stable handle either way (spec.md §3's two-phase
// protocol, phase one).
func (t *Types) DeclareNamed(name string) ID {
	if id, ok := t.namedByName[name]; ok {
		return id
	}
	id := ID(len(t.rows))
	t.rows = append(t.rows, data{kind: KindNamed, name: name, body: Invalid})
	t.namedByName[name] = id
	return id
}

// DefineNamed patches the body of a previously declared named type,
// phase two of the two-phase protocol. The handle returned by
// DeclareNamed remains valid and unchanged.
func (t *Types) DefineNamed(name string, body ID) error {
	id, ok := t.namedByName[name]
	if !ok {
		id = t.DeclareNamed(name)
	}
	row := t.row(id)
	row.body = body
	return nil
}

// NamedBody returns the body handle of a named type, or Invalid if it is
// still opaque/forward-declared.
func (t *Types) NamedBody(id ID) ID {
	return t.row(id).body
}

// IsNamed reports whether id denotes a named type.
func (t *Types) IsNamed(id ID) bool { return t.row(id).kind == KindNamed }

// ElemOf returns the pointee/array-element type. Panics on a non
// ptr/array id; callers are expected to have checked Kind already
// (mirrors the original source's unchecked field access pattern).
func (t *Types) ElemOf(id ID) ID {
	d := t.row(id)
	switch d.kind {
	case KindPtr:
		return d.elem
	case KindArray:
		return d.arrayElem
	default:
		panic(fmt.Sprintf("types: ElemOf called on kind %v", d.kind))
	}
}

// ArrayLen returns the declared element count of an array type.
func (t *Types) ArrayLen(id ID) uint64 { return t.row(id).arrayLen }

// StructFields returns the field types of a struct (named or anonymous).
func (t *Types) StructFields(id ID) []ID {
	d := t.row(id)
	if d.kind == KindNamed {
		d = t.row(d.body)
	}
	return d.fields
}

// StructPacked reports whether a struct type is packed.
func (t *Types) StructPacked(id ID) bool {
	d := t.row(id)
	if d.kind == KindNamed {
		d = t.row(d.body)
	}
	return d.packed
}

// FuncSignature returns the return type, parameter types and var-arg flag
// of a function type.
func (t *Types) FuncSignature(id ID) (ret ID, params []ID, varArg bool) {
	d := t.row(id)
	return d.ret, d.params, d.varArg
}

// NamedName returns the declared name of a named type.
func (t *Types) NamedName(id ID) string { return t.row(id).name }

// NamedTypeNames returns every named type's name, sorted lexically so the
// printer (C12) has a deterministic top-level iteration order instead of
// Go's randomized map order.
func (t *Types) NamedTypeNames() []string {
	names := make([]string, 0, len(t.namedByName))
	for n := range t.namedByName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// UnresolvedNamedType is returned by Validate when a named type was
// declared but never defined (spec.md §3 invariant).
type UnresolvedNamedType struct{ Name string }

func (e *UnresolvedNamedType) Error() string {
	return fmt.Sprintf("unresolved named type %%%s: declared but never defined", e.Name)
}

// Validate checks that every named type has a non-Invalid body, per the
// module-level invariant in spec.md §3 ("after a module is fully parsed,
// no named type remains empty unless it was declared opaque"). opaque
// holds the set of names the parser explicitly marked `opaque`, which are
// exempt.
func (t *Types) Validate(opaque map[string]bool) error {
	for _, name := range lo.Keys(t.namedByName) {
		id := t.namedByName[name]
		if t.row(id).body == Invalid && !opaque[name] {
			return errors.WithStack(&UnresolvedNamedType{Name: name})
		}
	}
	return nil
}

