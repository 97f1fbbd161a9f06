package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestParseRet42 exercises spec.md §8 scenario 1: the smallest possible
// module round-trips through the textual grammar into a validated
// Function.
func TestParseRet42(t *testing.T) {
	src := `define i32 @main() {
entry:
  ret i32 42
}
`
	m, err := Parse("ret42.ll", src)
	require.NoError(t, err)
	f, ok := m.Functions["main"]
	require.True(t, ok)
	require.Len(t, f.Layout.Blocks(), 1)
	require.NoError(t, f.Validate())
}

// TestParseForwardReferenceInPhi exercises spec.md §8 scenario 2: a phi
// in one block refers to a value defined in a block appearing later in
// the source text, and to the later block itself before it's been seen.
func TestParseForwardReferenceInPhi(t *testing.T) {
	src := `define i32 @loop(i32 %n) {
entry:
  br label %body

body:
  %i = phi i32 [ 0, %entry ], [ %next, %body ]
  %next = add i32 %i, 1
  %done = icmp eq i32 %next, %n
  br i1 %done, label %exit, label %body

exit:
  ret i32 %next
}
`
	m, err := Parse("phi.ll", src)
	require.NoError(t, err)
	f := m.Functions["loop"]
	require.NotNil(t, f)
	require.NoError(t, f.Validate())
}

// TestParseConstantExprGEPInCallArg exercises spec.md §8 scenario 4: a
// getelementptr constant expression appears directly in a call's
// argument list rather than as a separate instruction.
func TestParseConstantExprGEPInCallArg(t *testing.T) {
	src := `@.str = constant [3 x i8] c"abc"

declare i32 @puts(i8*)

define i32 @main() {
entry:
  %r = call i32 @puts(i8* getelementptr([3 x i8], [3 x i8]* @.str, i32 0, i32 0))
  ret i32 %r
}
`
	m, err := Parse("gep.ll", src)
	require.NoError(t, err)
	f := m.Functions["main"]
	require.NotNil(t, f)
	require.NoError(t, f.Validate())
}

// TestParseAttributeGroupResolution checks that a function's trailing
// `#N` reference is expanded against the module's `attributes #N = {...}`
// table (spec.md §4.1 "Attributes").
func TestParseAttributeGroupResolution(t *testing.T) {
	src := `attributes #0 = { noinline nounwind }

define void @f() #0 {
entry:
  ret void
}
`
	m, err := Parse("attrs.ll", src)
	require.NoError(t, err)
	f := m.Functions["f"]
	require.NotNil(t, f)
	require.Len(t, f.Attrs, 2)
}

// TestParseUnresolvedReferenceFails checks that a value referenced but
// never defined by the time the function body closes surfaces as an
// UnresolvedReference (spec.md §4.1 "Invariant at function end").
func TestParseUnresolvedReferenceFails(t *testing.T) {
	src := `define i32 @f() {
entry:
  ret i32 %never_defined
}
`
	_, err := Parse("unresolved.ll", src)
	require.Error(t, err)
	require.IsType(t, &UnresolvedReference{}, err)
}

// TestParseSyntaxErrorReportsPosition checks that a malformed production
// surfaces a SyntaxError carrying a source position, not a generic error
// (spec.md §7's error taxonomy).
func TestParseSyntaxErrorReportsPosition(t *testing.T) {
	src := `define i32 @f() {
entry:
  ret i32
}
`
	_, err := Parse("syntax.ll", src)
	require.Error(t, err)
	synErr, ok := err.(*SyntaxError)
	require.True(t, ok, "expected *SyntaxError, got %T: %v", err, err)
	require.Equal(t, 4, synErr.Pos.Line)
}

// TestParseDeclareHasNoBody checks that a `declare` registers a
// body-less Function that Validate skips over (spec.md §4.1).
func TestParseDeclareHasNoBody(t *testing.T) {
	src := `declare i32 @puts(i8*)
`
	m, err := Parse("declare.ll", src)
	require.NoError(t, err)
	f := m.Functions["puts"]
	require.NotNil(t, f)
	require.True(t, f.IsDecl)
	require.Empty(t, f.Layout.Blocks())
}

// TestParseStoreAndLoadRoundTrip exercises the alloca/store/load trio
// together with an explicit alignment, the most common instruction
// sequence a real function body opens with.
func TestParseStoreAndLoadRoundTrip(t *testing.T) {
	src := `define i32 @f(i32 %x) {
entry:
  %slot = alloca i32, align 4
  store i32 %x, i32* %slot, align 4
  %v = load i32, i32* %slot, align 4
  ret i32 %v
}
`
	m, err := Parse("store_load.ll", src)
	require.NoError(t, err)
	f := m.Functions["f"]
	require.NoError(t, f.Validate())
}
