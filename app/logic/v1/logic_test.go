package v1

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablehub/tablehub/app/core"
	"github.com/tablehub/tablehub/pkg/errors"
	"github.com/tablehub/tablehub/pkg/i18n"
	"github.com/tablehub/tablehub/pkg/security"
	"github.com/tablehub/tablehub/pkg/testutils"
	"github.com/tablehub/tablehub/pkg/types"
	"github.com/tablehub/tablehub/pkg/utils"
)

var (
	setupOnce sync.Once
	testCore  *core.Core
)

func setupCore(t *testing.T) *core.Core {
	dsn := testutils.PostgresDSN(t)
	setupOnce.Do(func() {
		cfg := core.LoadBaseConfigFromENV()
		cfg.Postgres.DSN = dsn
		cfg.Redis = core.RedisConfig{}
		cfg.ObjectStorage = core.ObjectStorageDriver{}
		cfg.Security.JWTSecret = "integration"
		testCore = core.MustSetupCore(cfg)
	})
	return testCore
}

func randomName(prefix string) string {
	return prefix + "_" + strings.ToLower(utils.RandomStr(8))
}

// newUser stores a user and returns a context carrying its session claims.
func newUser(t *testing.T, c *core.Core, admin bool, capabilities []string, tables ...string) (context.Context, *types.User) {
	t.Helper()
	now := time.Now().Unix()
	user := types.User{
		ID:               utils.GenUniqIDStr(),
		Name:             randomName("it"),
		Password:         "-",
		Capabilities:     types.NewStringSet(capabilities...),
		AccessibleTables: types.NewStringSet(tables...),
		IsAdmin:          admin,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	require.NoError(t, c.Store().UserStore().Create(context.Background(), user))

	claims := security.TokenClaims{ID: utils.GenUniqIDStr(), User: user.ID, UserName: user.Name}
	return context.WithValue(context.Background(), TOKEN_CONTEXT_KEY, claims), &user
}

func newAdmin(t *testing.T, c *core.Core) context.Context {
	ctx, _ := newUser(t, c, true, types.AllCapabilities)
	return ctx
}

func defineTestTable(t *testing.T, c *core.Core, ctx context.Context, name string) {
	t.Helper()
	detail, err := NewDynamicTableLogic(ctx, c).DefineTable(DefineTableRequest{
		Name: name,
		Columns: types.ColumnList{
			{Name: "name", Type: types.ColumnTypeString},
			{Name: "salary", Type: types.ColumnTypeInteger},
		},
		Reason: "integration",
	})
	require.NoError(t, err)
	require.True(t, detail.Created)
}

func newCoreRef(t *testing.T, c *core.Core) string {
	t.Helper()
	entity, err := createCoreEntity(context.Background(), c, randomName("core"), "integration")
	require.NoError(t, err)
	return entity.UUID
}

func errCode(t *testing.T, err error) int {
	t.Helper()
	var ce *errors.CustomizedError
	require.True(t, errors.As(err, &ce), "%v", err)
	return ce.GetCode()
}

func auditEntries(t *testing.T, c *core.Core, opts types.ListAuditLogOptions) []types.AuditLog {
	t.Helper()
	list, err := c.Store().AuditLogStore().List(context.Background(), opts, 0, 0)
	require.NoError(t, err)
	return list
}

func TestAddAndEditRowWriteOneAuditEntry(t *testing.T) {
	c := setupCore(t)
	admin := newAdmin(t, c)
	employees := randomName("employees")
	defineTestTable(t, c, admin, employees)
	coreRef := newCoreRef(t, c)

	ctx, editor := newUser(t, c, false, []string{types.CapabilityView, types.CapabilityEdit}, employees)

	row, err := NewRowLogic(ctx, c).AddRow(employees, AddRowRequest{
		Values:  map[string]any{"name": "Alice", "salary": 100},
		CoreRef: coreRef,
		Reason:  "new hire",
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", row.Values["name"])

	added := auditEntries(t, c, types.ListAuditLogOptions{TableName: employees, EntryID: &row.ID})
	require.Len(t, added, 1)
	assert.Equal(t, types.AuditActionAdd, added[0].Action)
	assert.Equal(t, editor.ID, added[0].UserID)
	assert.Equal(t, "new hire", added[0].Reason)

	_, err = NewRowLogic(ctx, c).EditRow(employees, row.ID, EditRowRequest{
		Values: map[string]any{"salary": 120},
		Reason: "raise",
	})
	require.NoError(t, err)

	edited := auditEntries(t, c, types.ListAuditLogOptions{TableName: employees, EntryID: &row.ID, Action: types.AuditActionEdit})
	require.Len(t, edited, 1)
	assert.Equal(t, editor.ID, edited[0].UserID)
	require.NotNil(t, edited[0].EntryID)
	assert.Equal(t, row.ID, *edited[0].EntryID)
	assert.Len(t, auditEntries(t, c, types.ListAuditLogOptions{TableName: employees}), 2)
}

func TestRejectedRowWriteLeavesNothing(t *testing.T) {
	c := setupCore(t)
	admin := newAdmin(t, c)
	employees := randomName("employees")
	defineTestTable(t, c, admin, employees)
	coreRef := newCoreRef(t, c)

	editorCtx, _ := newUser(t, c, false, []string{types.CapabilityView, types.CapabilityEdit}, employees)
	_, err := NewRowLogic(editorCtx, c).AddRow(employees, AddRowRequest{
		Values:  map[string]any{"name": "Bob"},
		CoreRef: coreRef,
		Reason:  " ",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, errCode(t, err))

	viewerCtx, _ := newUser(t, c, false, []string{types.CapabilityView}, employees)
	_, err = NewRowLogic(viewerCtx, c).AddRow(employees, AddRowRequest{
		Values:  map[string]any{"name": "Bob"},
		CoreRef: coreRef,
		Reason:  "should not land",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, errCode(t, err))

	// unknown core entity
	_, err = NewRowLogic(editorCtx, c).AddRow(employees, AddRowRequest{
		Values:  map[string]any{"name": "Bob"},
		CoreRef: "00000000-0000-0000-0000-000000000000",
		Reason:  "dangling",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, errCode(t, err))

	view, err := NewRowLogic(admin, c).ViewTable(employees, types.ListDynamicRowOptions{}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 0, view.Total)
	assert.Empty(t, auditEntries(t, c, types.ListAuditLogOptions{TableName: employees, Action: types.AuditActionAdd}))
}

func TestViewOnlyUser(t *testing.T) {
	c := setupCore(t)
	admin := newAdmin(t, c)
	employees, projects := randomName("employees"), randomName("projects")
	defineTestTable(t, c, admin, employees)
	defineTestTable(t, c, admin, projects)
	coreRef := newCoreRef(t, c)

	row, err := NewRowLogic(admin, c).AddRow(employees, AddRowRequest{
		Values:  map[string]any{"name": "John Doe", "salary": 75000},
		CoreRef: coreRef,
		Reason:  "seed",
	})
	require.NoError(t, err)

	ctx, _ := newUser(t, c, false, []string{types.CapabilityView}, employees)

	view, err := NewRowLogic(ctx, c).ViewTable(employees, types.ListDynamicRowOptions{}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, view.Total)
	assert.Equal(t, []string{types.CapabilityView}, view.Capabilities)

	_, err = NewRowLogic(ctx, c).EditRow(employees, row.ID, EditRowRequest{
		Values: map[string]any{"salary": 1},
		Reason: "not allowed",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, errCode(t, err))

	_, err = NewRowLogic(ctx, c).ViewTable(projects, types.ListDynamicRowOptions{}, 1, 10)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, errCode(t, err))

	unchanged, err := NewRowLogic(admin, c).GetRow(employees, row.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 75000, unchanged.Values["salary"])
}

func TestDefineExistingTableNeedsView(t *testing.T) {
	c := setupCore(t)
	admin := newAdmin(t, c)
	employees := randomName("employees")
	defineTestTable(t, c, admin, employees)

	ctx, _ := newUser(t, c, false, []string{types.CapabilityCreate})
	_, err := NewDynamicTableLogic(ctx, c).DefineTable(DefineTableRequest{
		Name:    employees,
		Columns: types.ColumnList{{Name: "name", Type: types.ColumnTypeString}},
		Reason:  "taken",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, errCode(t, err))

	detail, err := NewDynamicTableLogic(admin, c).DefineTable(DefineTableRequest{
		Name:    employees,
		Columns: types.ColumnList{{Name: "name", Type: types.ColumnTypeString}},
		Reason:  "again",
	})
	require.NoError(t, err)
	assert.False(t, detail.Created)
	assert.Equal(t, employees, detail.Table.Name)
}

func TestCreateNewVersion(t *testing.T) {
	c := setupCore(t)
	admin := newAdmin(t, c)
	structure := types.Relationships{{Parent: "employees", Child: "projects", Type: types.RelationshipOneToMany}}

	first, err := NewSchemaDefinitionLogic(admin, c).Create(SchemaDefinitionRequest{
		Name:      randomName("schema"),
		Structure: structure,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)

	second, err := NewSchemaDefinitionLogic(admin, c).CreateNewVersion(first.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)
	require.NotNil(t, second.ParentID)
	assert.Equal(t, first.ID, *second.ParentID)
	assert.Equal(t, structure, second.Structure)

	// concurrent callers race for the same number and retry
	var (
		wg       sync.WaitGroup
		versions = make([]int, 3)
	)
	for i := range versions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := NewSchemaDefinitionLogic(admin, c).CreateNewVersion(first.ID)
			if assert.NoError(t, err) {
				versions[i] = res.Version
			}
		}(i)
	}
	wg.Wait()
	assert.ElementsMatch(t, []int{3, 4, 5}, versions)

	list, err := NewSchemaDefinitionLogic(admin, c).Versions(first.Name)
	require.NoError(t, err)
	require.Len(t, list, 5)
	assert.Equal(t, 5, list[0].Version)
}

func TestImportLinksLatestVersion(t *testing.T) {
	c := setupCore(t)
	admin := newAdmin(t, c)
	structure := types.Relationships{{Parent: "employees", Child: "projects", Type: types.RelationshipOneToMany}}

	first, err := NewSchemaDefinitionLogic(admin, c).Create(SchemaDefinitionRequest{Name: randomName("schema"), Structure: structure})
	require.NoError(t, err)

	res, err := NewSchemaDefinitionLogic(admin, c).Import(ImportRequest{
		Bundle: types.SchemaExport{Schema: types.SchemaDefinition{Name: first.Name, Structure: structure}},
		Reason: "restore",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Schema.Version)
	require.NotNil(t, res.Schema.ParentID)
	assert.Equal(t, first.ID, *res.Schema.ParentID)

	_, err = NewSchemaDefinitionLogic(admin, c).Import(ImportRequest{
		Bundle: types.SchemaExport{Schema: types.SchemaDefinition{Name: first.Name, Structure: structure}},
	})
	require.Error(t, err)
	var ce *errors.CustomizedError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, i18n.ERROR_REASON_REQUIRED, ce.Message())

	list, err := NewSchemaDefinitionLogic(admin, c).Versions(first.Name)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestExportOnlyViewableTables(t *testing.T) {
	c := setupCore(t)
	admin := newAdmin(t, c)
	employees, projects := randomName("employees"), randomName("projects")
	defineTestTable(t, c, admin, employees)
	defineTestTable(t, c, admin, projects)

	schema, err := NewSchemaDefinitionLogic(admin, c).Create(SchemaDefinitionRequest{
		Name:      randomName("schema"),
		Structure: types.Relationships{{Parent: employees, Child: projects, Type: types.RelationshipOneToMany}},
	})
	require.NoError(t, err)

	ctx, _ := newUser(t, c, false, []string{types.CapabilityView}, employees)
	res, err := NewSchemaDefinitionLogic(ctx, c).Export(schema.ID, false)
	require.NoError(t, err)
	require.Len(t, res.Bundle.Tables, 1)
	assert.Equal(t, employees, res.Bundle.Tables[0].Name)

	res, err = NewSchemaDefinitionLogic(admin, c).Export(schema.ID, false)
	require.NoError(t, err)
	assert.Len(t, res.Bundle.Tables, 2)
}

func TestBootstrapGeneratesSamplePasswords(t *testing.T) {
	c := setupCore(t)

	report, err := NewBootstrapLogic(context.Background(), c).Run()
	require.NoError(t, err)

	for name, password := range report.SamplePasswords {
		assert.Len(t, password, generatedPasswordLength)
		assert.NotEqual(t, name+"-password", password)

		res, err := NewAuthLogic(context.Background(), c).Login(name, password)
		require.NoError(t, err)
		assert.Equal(t, name, res.User.Name)
	}

	// a second run creates nothing and reveals nothing
	again, err := NewBootstrapLogic(context.Background(), c).Run()
	require.NoError(t, err)
	assert.Empty(t, again.SamplePasswords)
	assert.Empty(t, again.AdminPassword)
}
