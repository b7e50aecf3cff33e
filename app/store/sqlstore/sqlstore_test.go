package sqlstore

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablehub/tablehub/pkg/dyntable"
	"github.com/tablehub/tablehub/pkg/testutils"
	"github.com/tablehub/tablehub/pkg/types"
	"github.com/tablehub/tablehub/pkg/utils"
)

type dsn string

func (d dsn) FormatDSN() string {
	return string(d)
}

var setupOnce sync.Once

func setupProvider(t *testing.T) *Provider {
	conn := testutils.PostgresDSN(t)
	setupOnce.Do(func() {
		MustSetup(dsn(conn))
		require.NoError(t, GetProvider().Install())
	})
	return GetProvider()
}

func tableName() string {
	return "it_" + strings.ToLower(utils.RandomStr(10))
}

func TestDynamicTableLifecycle(t *testing.T) {
	p := setupProvider(t)
	ctx := context.Background()

	reg := dyntable.NewRegistry(p.DynamicTableStore(), p.DynamicStorageStore())
	name := tableName()
	rec, created, err := dyntable.DefineOrGet(ctx, p.DynamicTableStore(), types.DynamicTable{
		Name:    name,
		OwnerID: "it",
		Columns: types.ColumnList{
			{Name: "name", Type: types.ColumnTypeString},
			{Name: "salary", Type: types.ColumnTypeInteger},
		},
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotZero(t, rec.ID)

	h, err := reg.Resolve(ctx, name)
	require.NoError(t, err)

	// materializing twice is harmless
	require.NoError(t, p.DynamicStorageStore().Materialize(ctx, h))
	physical, err := p.DynamicStorageStore().Reflect(ctx, name)
	require.NoError(t, err)
	assert.Empty(t, dyntable.Verify(h, physical))
	assert.Len(t, physical, len(h.Columns()))

	core := types.CoreEntity{UUID: uuid.NewString(), Name: "it core", Description: "linked", CreatedAt: time.Now().Unix(), UpdatedAt: time.Now().Unix()}
	_, err = p.CoreEntityStore().Create(ctx, core)
	require.NoError(t, err)

	id, err := p.DynamicRowStore().Insert(ctx, h, core.UUID, map[string]any{"name": "Alice", "salary": int64(10)})
	require.NoError(t, err)

	row, err := p.DynamicRowStore().Get(ctx, h, id)
	require.NoError(t, err)
	assert.Equal(t, "Alice", row.Values["name"])
	assert.Equal(t, int64(10), row.Values["salary"])
	require.NotNil(t, row.Core)
	assert.Equal(t, "it core", row.Core.Name)

	require.NoError(t, p.DynamicRowStore().Update(ctx, h, id, map[string]any{"salary": int64(20)}))
	row, err = p.DynamicRowStore().Get(ctx, h, id)
	require.NoError(t, err)
	assert.Equal(t, int64(20), row.Values["salary"])
	assert.GreaterOrEqual(t, row.UpdatedAt, row.CreatedAt)

	count, err := p.DynamicRowStore().CountByCoreRef(ctx, h, core.UUID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	require.NoError(t, p.DynamicRowStore().Delete(ctx, h, id))
	_, err = p.DynamicRowStore().Get(ctx, h, id)
	assert.ErrorIs(t, err, dyntable.ErrNotFound)
	assert.ErrorIs(t, p.DynamicRowStore().Delete(ctx, h, id), dyntable.ErrNotFound)
}

func TestInsertWithMissingCoreIsValidation(t *testing.T) {
	p := setupProvider(t)
	ctx := context.Background()

	reg := dyntable.NewRegistry(p.DynamicTableStore(), p.DynamicStorageStore())
	name := tableName()
	_, _, err := dyntable.DefineOrGet(ctx, p.DynamicTableStore(), types.DynamicTable{
		Name:    name,
		Columns: types.ColumnList{{Name: "name", Type: types.ColumnTypeString}},
	})
	require.NoError(t, err)
	h, err := reg.Resolve(ctx, name)
	require.NoError(t, err)

	// the core entity is gone by the time the row is written
	core := types.CoreEntity{UUID: uuid.NewString(), Name: "short lived", CreatedAt: time.Now().Unix(), UpdatedAt: time.Now().Unix()}
	_, err = p.CoreEntityStore().Create(ctx, core)
	require.NoError(t, err)
	require.NoError(t, p.CoreEntityStore().Delete(ctx, core.UUID))

	_, err = p.DynamicRowStore().Insert(ctx, h, core.UUID, map[string]any{"name": "Bob"})
	assert.ErrorIs(t, err, dyntable.ErrValidation)

	total, err := p.DynamicRowStore().Total(ctx, h, types.ListDynamicRowOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
}

func TestIndependentRowsHaveNoCore(t *testing.T) {
	p := setupProvider(t)
	ctx := context.Background()

	reg := dyntable.NewRegistry(p.DynamicTableStore(), p.DynamicStorageStore())
	name := tableName()
	_, _, err := dyntable.DefineOrGet(ctx, p.DynamicTableStore(), types.DynamicTable{
		Name:        name,
		Independent: true,
		Columns:     types.ColumnList{{Name: "note", Type: types.ColumnTypeText}},
	})
	require.NoError(t, err)

	h, err := reg.Resolve(ctx, name)
	require.NoError(t, err)

	_, err = p.DynamicRowStore().Insert(ctx, h, "", map[string]any{"note": "hello"})
	require.NoError(t, err)

	rows, err := p.DynamicRowStore().List(ctx, h, types.ListDynamicRowOptions{}, 1, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Core)
	assert.Equal(t, "hello", rows[0].Values["note"])
}

func TestConcurrentDefineKeepsOneRecord(t *testing.T) {
	p := setupProvider(t)
	ctx := context.Background()
	name := tableName()

	var (
		wg      sync.WaitGroup
		created = make([]bool, 4)
	)
	for i := range created {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, ok, err := dyntable.DefineOrGet(ctx, p.DynamicTableStore(), types.DynamicTable{
				Name:    name,
				Columns: types.ColumnList{{Name: "v", Type: types.ColumnTypeString}},
			})
			assert.NoError(t, err)
			created[i] = ok
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, ok := range created {
		if ok {
			winners++
		}
	}
	assert.Equal(t, 1, winners)

	total, err := p.DynamicTableStore().Total(ctx, types.ListDynamicTableOptions{Names: []string{name}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestAuditInSameTransaction(t *testing.T) {
	p := setupProvider(t)
	ctx := context.Background()
	table := tableName()

	err := p.Transaction(ctx, func(ctx context.Context) error {
		if err := p.AuditLogStore().Create(ctx, types.AuditLog{UserID: "it", Action: types.AuditActionAdd, TableName: table, Reason: "rolled back", CreatedAt: time.Now().Unix()}); err != nil {
			return err
		}
		return dyntable.ErrValidation
	})
	assert.ErrorIs(t, err, dyntable.ErrValidation)

	total, err := p.AuditLogStore().Total(ctx, types.ListAuditLogOptions{TableName: table})
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
}

func TestSchemaDefinitionVersions(t *testing.T) {
	p := setupProvider(t)
	ctx := context.Background()
	name := "schema " + utils.RandomStr(8)
	now := time.Now().Unix()

	structure := types.Relationships{{Parent: "employees", Child: "projects", Type: types.RelationshipOneToMany}}
	id, err := p.SchemaDefinitionStore().Create(ctx, types.SchemaDefinition{Name: name, Structure: structure, Version: 1, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)

	_, err = p.SchemaDefinitionStore().Create(ctx, types.SchemaDefinition{Name: name, Structure: structure, Version: 1, CreatedAt: now, UpdatedAt: now})
	assert.ErrorIs(t, err, dyntable.ErrAlreadyExists)

	_, err = p.SchemaDefinitionStore().Create(ctx, types.SchemaDefinition{Name: name, Structure: structure, Version: 2, ParentID: &id, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)

	max, err := p.SchemaDefinitionStore().MaxVersion(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, 2, max)

	versions, err := p.SchemaDefinitionStore().ListVersions(ctx, name)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].Version)
	require.NotNil(t, versions[0].ParentID)
	assert.Equal(t, id, *versions[0].ParentID)
	assert.Equal(t, structure, versions[1].Structure)
}

func TestInstallRequiresEveryStore(t *testing.T) {
	p := &Provider{stores: &Stores{}}
	err := p.Install()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UserStore")
}
