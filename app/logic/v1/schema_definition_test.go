package v1

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tablehub/tablehub/app/core/srv"
	"github.com/tablehub/tablehub/pkg/dyntable"
	"github.com/tablehub/tablehub/pkg/types"
)

func TestValidateStructure(t *testing.T) {
	ok := types.Relationships{{Parent: "employees", Child: "projects", Type: types.RelationshipOneToMany}}
	assert.NoError(t, validateStructure(ok))

	cases := []types.Relationships{
		nil,
		{},
		{{Parent: "", Child: "projects", Type: types.RelationshipOneToOne}},
		{{Parent: "employees", Child: " ", Type: types.RelationshipOneToOne}},
		{{Parent: "employees", Child: "projects", Type: "belongs-to"}},
	}
	for _, c := range cases {
		assert.ErrorIs(t, validateStructure(c), dyntable.ErrValidation, "%v", c)
	}
}

func TestExportKey(t *testing.T) {
	now := time.Unix(1700000000, 0)
	schema := &types.SchemaDefinition{Name: "Employee Management", Version: 2}

	assert.Equal(t, "exports/schemas/employee-management-v2-1700000000.json", exportKey("exports", schema, now))
	assert.Equal(t, "schemas/schema-v1-1700000000.json", exportKey("", &types.SchemaDefinition{Name: "!!", Version: 1}, now))
}

func TestViewableTables(t *testing.T) {
	rbac := srv.SetupRBACSrv()
	tables := []types.DynamicTable{{Name: "employees"}, {Name: "projects"}, {Name: "salaries"}}

	member := &types.User{
		ID:               "u1",
		Capabilities:     types.NewStringSet(types.CapabilityView),
		AccessibleTables: types.NewStringSet("employees"),
		OwnedTables:      types.NewStringSet("projects"),
	}
	got := viewableTables(rbac, member, tables)
	assert.Equal(t, []string{"employees", "projects"}, []string{got[0].Name, got[1].Name})
	assert.Len(t, got, 2)

	assert.Empty(t, viewableTables(rbac, &types.User{ID: "u2"}, tables))
	assert.Len(t, viewableTables(rbac, &types.User{ID: "admin", IsAdmin: true}, tables), 3)
}
