package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringSetParse(t *testing.T) {
	s := ParseStringSet("view, edit,,view ,update")
	assert.Equal(t, []string{"view", "edit", "update"}, s.Slice())
	assert.True(t, s.Has("edit"))
	assert.False(t, s.Has("create"))
	assert.Equal(t, "view,edit,update", s.String())
}

func TestStringSetStorageBoundary(t *testing.T) {
	var s StringSet
	require.NoError(t, s.Scan([]byte("employees,projects")))
	assert.Equal(t, 2, s.Len())

	v, err := s.Value()
	require.NoError(t, err)
	assert.Equal(t, "employees,projects", v)

	require.NoError(t, s.Scan(nil))
	assert.Equal(t, 0, s.Len())
	assert.Error(t, s.Scan(42))
}

func TestStringSetJSON(t *testing.T) {
	raw, err := json.Marshal(NewStringSet("a", "b"))
	require.NoError(t, err)
	assert.JSONEq(t, `["a","b"]`, string(raw))

	var s StringSet
	require.NoError(t, json.Unmarshal([]byte(`["x","x","y"]`), &s))
	assert.Equal(t, []string{"x", "y"}, s.Slice())
}

func TestStringSetUnion(t *testing.T) {
	a := NewStringSet("employees")
	b := NewStringSet("projects", "employees")
	u := a.Union(b)
	assert.Equal(t, []string{"employees", "projects"}, u.Slice())
	assert.Equal(t, 1, a.Len())
}

func TestColumnListKeepsOrder(t *testing.T) {
	cols := ColumnList{
		{Name: "name", Type: ColumnTypeString},
		{Name: "position", Type: ColumnTypeString},
		{Name: "salary", Type: ColumnTypeInteger},
	}
	v, err := cols.Value()
	require.NoError(t, err)

	var back ColumnList
	require.NoError(t, back.Scan([]byte(v.(string))))
	assert.Equal(t, []string{"name", "position", "salary"}, back.Names())

	spec, ok := back.Find("salary")
	assert.True(t, ok)
	assert.Equal(t, ColumnTypeInteger, spec.Type)
}

func TestColumnTypeValid(t *testing.T) {
	assert.True(t, ColumnTypeString.Valid())
	assert.True(t, ColumnTypeInteger.Valid())
	assert.False(t, ColumnType("date").Valid())
	assert.False(t, ColumnTypeSerial.Valid())
}

func TestVisualize(t *testing.T) {
	rels := Relationships{
		{Parent: "employees", Child: "projects", Type: RelationshipOneToMany},
		{Parent: "projects", Child: "tasks", Type: ""},
		{Parent: "", Child: "orphan", Type: RelationshipOneToOne},
		{Parent: "employees", Child: "tasks", Type: RelationshipManyToMany},
	}
	v := rels.Visualize()

	assert.Equal(t, []VisualizationNode{{ID: "employees"}, {ID: "projects"}, {ID: "tasks"}}, v.Nodes)
	assert.Equal(t, []VisualizationLink{
		{Source: 0, Target: 1, Type: RelationshipOneToMany},
		{Source: 1, Target: 2, Type: "unknown"},
		{Source: 0, Target: 2, Type: RelationshipManyToMany},
	}, v.Links)
	assert.Equal(t, []string{"employees", "projects", "tasks", "orphan"}, rels.Tables())
}

func TestVisualizeEmpty(t *testing.T) {
	v := Relationships(nil).Visualize()
	assert.NotNil(t, v.Nodes)
	assert.Empty(t, v.Links)
}
