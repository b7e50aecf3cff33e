package sqlstore

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/tablehub/tablehub/pkg/dyntable"
	"github.com/tablehub/tablehub/pkg/register"
	"github.com/tablehub/tablehub/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.DynamicStorageStore = NewDynamicStorageStore(provider)
	})
}

// DynamicStorageStore creates and inspects the physical tables of the catalog.
type DynamicStorageStore struct {
	CommonFields
	coreTable string
}

func NewDynamicStorageStore(provider SqlProviderAchieve) *DynamicStorageStore {
	repo := &DynamicStorageStore{coreTable: types.TABLE_CORE_ENTITY.Name()}
	repo.SetProvider(provider)
	repo.SetTable("information_schema.columns")
	return repo
}

// Materialize creates the table of h when absent and adds any missing column.
// Every statement is IF NOT EXISTS so concurrent or repeated calls are harmless.
func (s *DynamicStorageStore) Materialize(ctx context.Context, h *dyntable.Handle) error {
	stmts, err := dyntable.CreateTableStatements(h, s.coreTable)
	if err != nil {
		return err
	}
	for _, c := range h.DataColumns() {
		stmt, err := dyntable.AddColumnStatement(h.Name(), c, s.coreTable)
		if err != nil {
			return err
		}
		stmts = append(stmts, stmt)
	}

	for _, stmt := range stmts {
		if _, err = s.GetMaster(ctx).Exec(stmt); err != nil {
			return fmt.Errorf("materialize %s: %w", h.Name(), err)
		}
	}
	return nil
}

func (s *DynamicStorageStore) AddColumns(ctx context.Context, table string, columns []dyntable.Column) error {
	for _, c := range columns {
		stmt, err := dyntable.AddColumnStatement(table, c, s.coreTable)
		if err != nil {
			return err
		}
		if _, err = s.GetMaster(ctx).Exec(stmt); err != nil {
			return fmt.Errorf("add column %s.%s: %w", table, c.Name, err)
		}
	}
	return nil
}

// Reflect reads the physical columns of table from information_schema, an empty
// result means the table does not exist in the current schema.
func (s *DynamicStorageStore) Reflect(ctx context.Context, table string) ([]dyntable.PhysicalColumn, error) {
	query := sq.Select("column_name", "data_type").From(s.GetTable()).
		Where(sq.Expr("table_schema = current_schema()")).
		Where(sq.Eq{"table_name": table}).
		OrderBy("ordinal_position")

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []dyntable.PhysicalColumn
	if err = s.GetMaster(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}
