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
		provider.stores.CoreEntityStore = NewCoreEntityStore(provider)
	})
}

type CoreEntityStore struct {
	CommonFields
}

func NewCoreEntityStore(provider SqlProviderAchieve) *CoreEntityStore {
	repo := &CoreEntityStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_CORE_ENTITY)
	repo.SetAllColumns("id", "uuid", "name", "description", "created_at", "updated_at")
	return repo
}

func (s *CoreEntityStore) Create(ctx context.Context, data types.CoreEntity) (int64, error) {
	query := sq.Insert(s.GetTable()).
		Columns("uuid", "name", "description", "created_at", "updated_at").
		Values(data.UUID, data.Name, data.Description, data.CreatedAt, data.UpdatedAt).
		Suffix("RETURNING id")

	queryString, args, err := query.ToSql()
	if err != nil {
		return 0, ErrorSqlBuild(err)
	}

	var id int64
	if err = s.GetMaster(ctx).QueryRowx(queryString, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *CoreEntityStore) GetByUUID(ctx context.Context, uuid string) (*types.CoreEntity, error) {
	return s.getBy(ctx, sq.Eq{"uuid": uuid})
}

// GetByName returns the oldest core entity with the given display name.
func (s *CoreEntityStore) GetByName(ctx context.Context, name string) (*types.CoreEntity, error) {
	return s.getBy(ctx, sq.Eq{"name": name})
}

func (s *CoreEntityStore) getBy(ctx context.Context, where sq.Eq) (*types.CoreEntity, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(where).OrderBy("id ASC").Limit(1)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.CoreEntity
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *CoreEntityStore) List(ctx context.Context, page, pageSize uint64) ([]types.CoreEntity, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("id ASC")
	if page != 0 || pageSize != 0 {
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.CoreEntity
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *CoreEntityStore) Total(ctx context.Context) (int64, error) {
	queryString, args, err := sq.Select("COUNT(*)").From(s.GetTable()).ToSql()
	if err != nil {
		return 0, ErrorSqlBuild(err)
	}

	var res int64
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return 0, err
	}
	return res, nil
}

func (s *CoreEntityStore) Delete(ctx context.Context, uuid string) error {
	queryString, args, err := sq.Delete(s.GetTable()).Where(sq.Eq{"uuid": uuid}).ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	// a row inserted after the reference check still blocks the delete through core_ref
	if _, err = s.GetMaster(ctx).Exec(queryString, args...); IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: core entity %q is still referenced", dyntable.ErrValidation, uuid)
	}
	return err
}
