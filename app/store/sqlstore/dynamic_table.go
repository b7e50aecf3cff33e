package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/tablehub/tablehub/pkg/dyntable"
	"github.com/tablehub/tablehub/pkg/register"
	"github.com/tablehub/tablehub/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.DynamicTableStore = NewDynamicTableStore(provider)
	})
}

// DynamicTableStore is the schema catalog, one row per dynamic table.
type DynamicTableStore struct {
	CommonFields
}

func NewDynamicTableStore(provider SqlProviderAchieve) *DynamicTableStore {
	repo := &DynamicTableStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_DYNAMIC_TABLE)
	repo.SetAllColumns("id", "name", "columns", "owner_id", "independent", "created_at", "updated_at")
	return repo
}

// Create inserts the catalog record. The unique index on name makes concurrent
// defines of one name fail with dyntable.ErrAlreadyExists for all but one caller.
func (s *DynamicTableStore) Create(ctx context.Context, data types.DynamicTable) (int64, error) {
	now := time.Now().Unix()
	if data.CreatedAt == 0 {
		data.CreatedAt = now
	}
	if data.UpdatedAt == 0 {
		data.UpdatedAt = now
	}
	query := sq.Insert(s.GetTable()).
		Columns("name", "columns", "owner_id", "independent", "created_at", "updated_at").
		Values(data.Name, data.Columns, data.OwnerID, data.Independent, data.CreatedAt, data.UpdatedAt).
		Suffix("RETURNING id")

	queryString, args, err := query.ToSql()
	if err != nil {
		return 0, ErrorSqlBuild(err)
	}

	var id int64
	if err = s.GetMaster(ctx).QueryRowx(queryString, args...).Scan(&id); err != nil {
		if IsUniqueViolation(err) {
			return 0, fmt.Errorf("table %q: %w", data.Name, dyntable.ErrAlreadyExists)
		}
		return 0, err
	}
	return id, nil
}

func (s *DynamicTableStore) Get(ctx context.Context, name string) (*types.DynamicTable, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"name": name})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.DynamicTable
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, notFound(name, err)
	}
	return &res, nil
}

func (s *DynamicTableStore) GetForUpdate(ctx context.Context, name string) (*types.DynamicTable, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"name": name}).Suffix("FOR UPDATE")

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.DynamicTable
	if err = s.GetMaster(ctx).QueryRowx(queryString, args...).StructScan(&res); err != nil {
		return nil, notFound(name, err)
	}
	return &res, nil
}

func (s *DynamicTableStore) UpdateColumns(ctx context.Context, name string, columns types.ColumnList) error {
	query := sq.Update(s.GetTable()).
		Set("columns", columns).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"name": name})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *DynamicTableStore) List(ctx context.Context, opts types.ListDynamicTableOptions) ([]types.DynamicTable, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("id ASC")

	opts.Apply(&query)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.DynamicTable
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *DynamicTableStore) Total(ctx context.Context, opts types.ListDynamicTableOptions) (int64, error) {
	query := sq.Select("COUNT(*)").From(s.GetTable())

	opts.Apply(&query)

	queryString, args, err := query.ToSql()
	if err != nil {
		return 0, ErrorSqlBuild(err)
	}

	var res int64
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return 0, err
	}
	return res, nil
}

func notFound(name string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%q: %w", name, dyntable.ErrNotFound)
	}
	return err
}
