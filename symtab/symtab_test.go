package symtab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whkbester/simplc/token"
)

func TestFindBeforeInsertReturnsFalse(t *testing.T) {
	st := New()
	_, ok := st.Find("x")
	assert.False(t, ok)
}

func TestInsertThenFind(t *testing.T) {
	st := New()
	prop := &IdProp{Type: TypeInteger, Offset: st.VariablesWidth()}
	require.True(t, st.Insert("x", prop))

	found, ok := st.Find("x")
	require.True(t, ok)
	assert.Equal(t, prop, found)
}

func TestInsertDuplicateFails(t *testing.T) {
	st := New()
	require.True(t, st.Insert("x", &IdProp{Type: TypeInteger}))
	assert.False(t, st.Insert("x", &IdProp{Type: TypeBoolean}))
}

func TestVariablesWidthAdvancesOnlyForVariables(t *testing.T) {
	st := New()
	assert.EqualValues(t, 1, st.VariablesWidth())

	require.True(t, st.Insert("x", &IdProp{Type: TypeInteger, Offset: st.VariablesWidth()}))
	assert.EqualValues(t, 2, st.VariablesWidth())

	require.True(t, st.Insert("f", &IdProp{Type: TypeInteger.SetCallable()}))
	assert.EqualValues(t, 2, st.VariablesWidth(), "callables must not consume a local-variable slot")
}

func TestSubroutineScopingCallableVisibleVariableNot(t *testing.T) {
	st := New()
	require.True(t, st.Insert("g", &IdProp{Type: TypeInteger, Offset: st.VariablesWidth()}))

	callable := &IdProp{Type: TypeInteger.SetCallable(), NParams: 0}
	require.True(t, st.OpenSubroutine("f", callable))

	// outer variable is not visible from inside the subroutine
	_, ok := st.Find("g")
	assert.False(t, ok)

	// the subroutine's own name is visible (global scope still holds it, and
	// it is callable)
	found, ok := st.Find("f")
	require.True(t, ok)
	assert.Equal(t, callable, found)

	require.True(t, st.Insert("p", &IdProp{Type: TypeBoolean, Offset: st.VariablesWidth()}))
	_, ok = st.Find("p")
	assert.True(t, ok)

	st.CloseSubroutine()

	// outer name visible again
	_, ok = st.Find("g")
	assert.True(t, ok)

	// inner name no longer visible
	_, ok = st.Find("p")
	assert.False(t, ok)
}

func TestOpenSubroutineResetsOffsetToOne(t *testing.T) {
	st := New()
	require.True(t, st.Insert("a", &IdProp{Type: TypeInteger, Offset: st.VariablesWidth()}))
	require.True(t, st.Insert("b", &IdProp{Type: TypeInteger, Offset: st.VariablesWidth()}))
	assert.EqualValues(t, 3, st.VariablesWidth())

	require.True(t, st.OpenSubroutine("f", &IdProp{Type: TypeInteger.SetCallable()}))
	assert.EqualValues(t, 1, st.VariablesWidth())
}

func TestOpenSubroutineFailsOnDuplicateName(t *testing.T) {
	st := New()
	require.True(t, st.Insert("f", &IdProp{Type: TypeInteger.SetCallable()}))
	assert.False(t, st.OpenSubroutine("f", &IdProp{Type: TypeBoolean.SetCallable()}))
}

func TestStringRendersGlobalScopeSortedByName(t *testing.T) {
	st := New()
	require.True(t, st.Insert("x", &IdProp{Type: TypeInteger, Offset: st.VariablesWidth()}))
	require.True(t, st.Insert("arr", &IdProp{Type: TypeBoolean.SetArray(), Offset: st.VariablesWidth()}))
	require.True(t, st.OpenSubroutine("f", &IdProp{
		Type:    TypeInteger.SetCallable(),
		NParams: 2,
		Params:  []ValType{TypeInteger, TypeBoolean},
	}))
	st.CloseSubroutine()
	require.True(t, st.OpenSubroutine("p", &IdProp{Type: TypeNone.SetCallable()}))
	st.CloseSubroutine()

	assert.Equal(t, "arr: boolean array\nf: (integer, boolean) -> integer\np: () -> none\nx: integer", st.String())
}

func TestNoticesCarryDeclarationPositions(t *testing.T) {
	st := New()
	require.True(t, st.Insert("x", &IdProp{Type: TypeInteger, Offset: st.VariablesWidth(), Pos: token.Pos{Line: 3, Col: 9}}))

	notices := st.Notices("test.simpl").Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, "test.simpl:3:9", notices[0].Pos.String())
	assert.Equal(t, "x: integer", notices[0].Message)
}

func TestCloseSubroutineDoesNotResetOffset(t *testing.T) {
	st := New()
	require.True(t, st.OpenSubroutine("f", &IdProp{Type: TypeInteger.SetCallable()}))
	require.True(t, st.Insert("x", &IdProp{Type: TypeInteger, Offset: st.VariablesWidth()}))
	require.True(t, st.Insert("y", &IdProp{Type: TypeInteger, Offset: st.VariablesWidth()}))
	assert.EqualValues(t, 3, st.VariablesWidth())

	st.CloseSubroutine()
	// currOffset belongs to whichever scope is current now; it is not reset
	// by CloseSubroutine itself.
	assert.EqualValues(t, 3, st.VariablesWidth())
}
