package module

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vicis-ir/vicis/internal/ir/value"
)

func TestGlobalsPreserveDeclarationOrder(t *testing.T) {
	m := New()
	i32 := m.Types.I32()
	m.AddGlobal(&GlobalVariable{Name: "b", Type: i32, Initializer: constPtr(value.Int(i32, 2))})
	m.AddGlobal(&GlobalVariable{Name: "a", Type: i32, Initializer: constPtr(value.Int(i32, 1))})
	m.AddGlobal(&GlobalVariable{Name: "b", Type: i32, Initializer: constPtr(value.Int(i32, 3))})

	got := m.GlobalsInOrder()
	require.Len(t, got, 2)
	require.Equal(t, "b", got[0].Name)
	require.Equal(t, uint64(3), got[0].Initializer.IntBits, "re-adding \"b\" updates in place, not appends")
	require.Equal(t, "a", got[1].Name)
}

func TestValidateSurfacesUnresolvedNamedType(t *testing.T) {
	m := New()
	m.Types.DeclareNamed("Forgotten")
	require.Error(t, m.Validate())
}

func constPtr(c value.Constant) *value.Constant { return &c }
