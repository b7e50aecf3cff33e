package v1

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablehub/tablehub/pkg/dyntable"
	"github.com/tablehub/tablehub/pkg/types"
)

func employeesHandle(t *testing.T, independent bool) *dyntable.Handle {
	h, err := dyntable.NewHandle(types.DynamicTable{
		Name: "employees",
		Columns: types.ColumnList{
			{Name: "name", Type: types.ColumnTypeString},
			{Name: "position", Type: types.ColumnTypeString},
			{Name: "salary", Type: types.ColumnTypeInteger},
		},
		Independent: independent,
	})
	require.NoError(t, err)
	return h
}

func TestBuildTableView(t *testing.T) {
	h := employeesHandle(t, false)
	rows := []types.DynamicRow{
		{
			ID:      1,
			CoreRef: "c1",
			Values:  map[string]any{"name": "John Doe", "position": "Developer", "salary": int64(75000)},
			Core:    &types.CoreDisplay{Name: "Core Entry 1", Description: "First"},
		},
		{
			ID:      2,
			CoreRef: "gone",
			Values:  map[string]any{"name": "Jane", "position": nil, "salary": nil},
		},
	}

	view := buildTableView(h, rows, 2, []string{types.CapabilityView})

	assert.Equal(t, "employees", view.Table)
	assert.Equal(t, []string{"name", "position", "salary"}, []string{view.Columns[0].Name, view.Columns[1].Name, view.Columns[2].Name})
	assert.Equal(t, CoreColumns, view.CoreColumns)
	assert.Equal(t, int64(2), view.Total)
	require.Len(t, view.Rows, 2)

	assert.Equal(t, "75000", view.Rows[0].Values["salary"])
	assert.Equal(t, "Core Entry 1", view.Rows[0].Core.Name)

	// unmatched reference still displays, with empty core fields
	assert.Equal(t, "", view.Rows[1].Values["position"])
	require.NotNil(t, view.Rows[1].Core)
	assert.Equal(t, types.CoreDisplay{}, *view.Rows[1].Core)
}

func TestBuildTableViewIndependent(t *testing.T) {
	h := employeesHandle(t, true)
	view := buildTableView(h, []types.DynamicRow{{ID: 1, Values: map[string]any{"name": "x"}}}, 1, nil)

	assert.Empty(t, view.CoreColumns)
	assert.Nil(t, view.Rows[0].Core)
	assert.Len(t, view.Columns, 3)
}

func TestCapabilitiesOf(t *testing.T) {
	assert.Equal(t, types.AllCapabilities, capabilitiesOf(&types.User{IsAdmin: true}))
	assert.Equal(t, []string{"view"}, capabilitiesOf(&types.User{Capabilities: types.NewStringSet("view")}))
}
