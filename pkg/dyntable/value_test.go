package dyntable

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablehub/tablehub/pkg/types"
)

func TestCoerce(t *testing.T) {
	str := Column{Name: "name", Type: types.ColumnTypeString}
	num := Column{Name: "salary", Type: types.ColumnTypeInteger}
	flt := Column{Name: "rate", Type: types.ColumnTypeFloat}
	flag := Column{Name: "active", Type: types.ColumnTypeBoolean}

	cases := []struct {
		col  Column
		in   any
		want any
	}{
		{str, "Alice", "Alice"},
		{str, "", nil},
		{str, nil, nil},
		{str, float64(12), "12"},
		{num, "42", int64(42)},
		{num, " 7 ", int64(7)},
		{num, float64(1000), int64(1000)},
		{num, "   ", nil},
		{flt, "1.5", 1.5},
		{flt, float64(3), float64(3)},
		{flag, "on", true},
		{flag, "false", false},
		{flag, true, true},
	}
	for _, c := range cases {
		got, err := Coerce(c.col, c.in)
		require.NoError(t, err, "%s <- %v", c.col.Type, c.in)
		assert.Equal(t, c.want, got, "%s <- %v", c.col.Type, c.in)
	}

	for _, bad := range []struct {
		col Column
		in  any
	}{
		{num, "abc"},
		{num, float64(1.5)},
		{num, "99999999999"},
		{flt, "x"},
		{flag, "maybe"},
		{str, strings.Repeat("a", 256)},
		{num, []string{"1"}},
	} {
		_, err := Coerce(bad.col, bad.in)
		assert.ErrorIs(t, err, ErrValidation, "%s <- %v", bad.col.Type, bad.in)
	}
}

func TestCoerceValuesRejectsUnknownAndSpine(t *testing.T) {
	h, err := NewHandle(employees())
	require.NoError(t, err)

	values, err := h.CoerceValues(map[string]any{"name": "Bob", "salary": "10"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Bob", "salary": int64(10)}, values)

	_, err = h.CoerceValues(map[string]any{"nickname": "B"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = h.CoerceValues(map[string]any{"id": 3})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "", Display(nil))
	assert.Equal(t, "abc", Display([]byte("abc")))
	assert.Equal(t, "12", Display(int64(12)))
	assert.Equal(t, "12", Display(int32(12)))
	assert.Equal(t, "2.5", Display(2.5))
	assert.Equal(t, "true", Display(true))
}
