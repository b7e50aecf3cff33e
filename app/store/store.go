package store

import (
	"context"

	"github.com/tablehub/tablehub/pkg/dyntable"
	"github.com/tablehub/tablehub/pkg/sqlstore"
	"github.com/tablehub/tablehub/pkg/types"
)

// UserStore 用户及其授权信息
type UserStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.User) error
	GetUser(ctx context.Context, id string) (*types.User, error)
	GetByName(ctx context.Context, name string) (*types.User, error)
	// UpdateAccess replaces the capability set, accessible table list and admin flag.
	UpdateAccess(ctx context.Context, id string, capabilities, accessibleTables types.StringSet, isAdmin bool) error
	UpdatePassword(ctx context.Context, id, password string) error
	ListUsers(ctx context.Context, opts types.ListUserOptions, page, pageSize uint64) ([]types.User, error)
	Total(ctx context.Context, opts types.ListUserOptions) (int64, error)
}

type CoreEntityStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.CoreEntity) (int64, error)
	GetByUUID(ctx context.Context, uuid string) (*types.CoreEntity, error)
	GetByName(ctx context.Context, name string) (*types.CoreEntity, error)
	List(ctx context.Context, page, pageSize uint64) ([]types.CoreEntity, error)
	Total(ctx context.Context) (int64, error)
	Delete(ctx context.Context, uuid string) error
}

// DynamicTableStore is the schema catalog.
type DynamicTableStore interface {
	sqlstore.SqlCommons
	dyntable.Catalog
	// GetForUpdate locks the catalog record inside the current transaction.
	GetForUpdate(ctx context.Context, name string) (*types.DynamicTable, error)
	UpdateColumns(ctx context.Context, name string, columns types.ColumnList) error
	Total(ctx context.Context, opts types.ListDynamicTableOptions) (int64, error)
}

// DynamicStorageStore owns the physical tables behind catalog records.
type DynamicStorageStore interface {
	dyntable.Materializer
	AddColumns(ctx context.Context, table string, columns []dyntable.Column) error
}

// DynamicRowStore runs generic CRUD against a resolved dynamic table.
type DynamicRowStore interface {
	Insert(ctx context.Context, h *dyntable.Handle, coreRef string, values map[string]any) (int64, error)
	Get(ctx context.Context, h *dyntable.Handle, id int64) (*types.DynamicRow, error)
	List(ctx context.Context, h *dyntable.Handle, opts types.ListDynamicRowOptions, page, pageSize uint64) ([]types.DynamicRow, error)
	Total(ctx context.Context, h *dyntable.Handle, opts types.ListDynamicRowOptions) (int64, error)
	Update(ctx context.Context, h *dyntable.Handle, id int64, values map[string]any) error
	Delete(ctx context.Context, h *dyntable.Handle, id int64) error
	CountByCoreRef(ctx context.Context, h *dyntable.Handle, coreRef string) (int64, error)
}

type AuditLogStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.AuditLog) error
	List(ctx context.Context, opts types.ListAuditLogOptions, page, pageSize uint64) ([]types.AuditLog, error)
	Total(ctx context.Context, opts types.ListAuditLogOptions) (int64, error)
}

type SchemaDefinitionStore interface {
	sqlstore.SqlCommons
	// Create fails with dyntable.ErrAlreadyExists when (name, version) is taken.
	Create(ctx context.Context, data types.SchemaDefinition) (int64, error)
	Get(ctx context.Context, id int64) (*types.SchemaDefinition, error)
	MaxVersion(ctx context.Context, name string) (int, error)
	ListVersions(ctx context.Context, name string) ([]types.SchemaDefinition, error)
	List(ctx context.Context, opts types.ListSchemaDefinitionOptions, page, pageSize uint64) ([]types.SchemaDefinition, error)
	Total(ctx context.Context, opts types.ListSchemaDefinitionOptions) (int64, error)
	Update(ctx context.Context, id int64, description string, structure types.Relationships) error
	Delete(ctx context.Context, id int64) error
}
