package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStructurallyEqualTypesShareHandle(t *testing.T) {
	ts := New()
	a := ts.Struct([]ID{ts.I32(), ts.I64()}, false)
	b := ts.Struct([]ID{ts.I32(), ts.I64()}, false)
	require.Equal(t, a, b)

	c := ts.Struct([]ID{ts.I32(), ts.I64()}, true)
	require.NotEqual(t, a, c)
}

func TestArrayAndPtrIntern(t *testing.T) {
	ts := New()
	a1 := ts.Array(14, ts.I8())
	a2 := ts.Array(14, ts.I8())
	require.Equal(t, a1, a2)

	p1 := ts.Ptr(a1)
	p2 := ts.Ptr(a2)
	require.Equal(t, p1, p2)
}

func TestNamedTypeTwoPhaseRegistration(t *testing.T) {
	ts := New()
	decl := ts.DeclareNamed("list")
	require.Equal(t, Invalid, ts.NamedBody(decl))

	// Self-referential struct: { i32, %list* }.
	body := ts.Struct([]ID{ts.I32(), ts.Ptr(decl)}, false)
	require.NoError(t, ts.DefineNamed("list", body))

	again := ts.DeclareNamed("list")
	require.Equal(t, decl, again, "handle must remain stable across the two-phase protocol")
	require.Equal(t, body, ts.NamedBody(decl))
}

func TestValidateCatchesUnresolvedNamedType(t *testing.T) {
	ts := New()
	ts.DeclareNamed("Opaque")

	err := ts.Validate(map[string]bool{"Opaque": true})
	require.NoError(t, err, "Opaque is exempt even with Invalid body")

	ts2 := New()
	ts2.DeclareNamed("Forgotten")
	err = ts2.Validate(nil)
	require.Error(t, err)
	var unresolved *UnresolvedNamedType
	require.ErrorAs(t, err, &unresolved)
	require.Equal(t, "Forgotten", unresolved.Name)
}

func TestFormat(t *testing.T) {
	ts := New()
	require.Equal(t, "i32", ts.Format(ts.I32()))
	require.Equal(t, "i32*", ts.Format(ts.Ptr(ts.I32())))
	require.Equal(t, "[14 x i8]", ts.Format(ts.Array(14, ts.I8())))

	st := ts.Struct([]ID{ts.I32(), ts.I8()}, true)
	require.Equal(t, "<{i32, i8}>", ts.Format(st))

	fn := ts.Func(ts.I32(), []ID{ts.I32(), ts.I32()}, false)
	require.Equal(t, "i32 (i32, i32)", ts.Format(fn))
}
