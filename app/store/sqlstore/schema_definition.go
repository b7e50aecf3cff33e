package sqlstore

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/tablehub/tablehub/pkg/dyntable"
	"github.com/tablehub/tablehub/pkg/register"
	"github.com/tablehub/tablehub/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.SchemaDefinitionStore = NewSchemaDefinitionStore(provider)
	})
}

type SchemaDefinitionStore struct {
	CommonFields
}

func NewSchemaDefinitionStore(provider SqlProviderAchieve) *SchemaDefinitionStore {
	repo := &SchemaDefinitionStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_SCHEMA_DEFINITION)
	repo.SetAllColumns("id", "name", "description", "structure", "owner_id", "version", "parent_id", "created_at", "updated_at")
	return repo
}

func (s *SchemaDefinitionStore) Create(ctx context.Context, data types.SchemaDefinition) (int64, error) {
	query := sq.Insert(s.GetTable()).
		Columns("name", "description", "structure", "owner_id", "version", "parent_id", "created_at", "updated_at").
		Values(data.Name, data.Description, data.Structure, data.OwnerID, data.Version, data.ParentID, data.CreatedAt, data.UpdatedAt).
		Suffix("RETURNING id")

	queryString, args, err := query.ToSql()
	if err != nil {
		return 0, ErrorSqlBuild(err)
	}

	var id int64
	if err = s.GetMaster(ctx).QueryRowx(queryString, args...).Scan(&id); err != nil {
		if IsUniqueViolation(err) {
			return 0, fmt.Errorf("schema %q version %d: %w", data.Name, data.Version, dyntable.ErrAlreadyExists)
		}
		return 0, err
	}
	return id, nil
}

func (s *SchemaDefinitionStore) Get(ctx context.Context, id int64) (*types.SchemaDefinition, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.SchemaDefinition
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

// MaxVersion returns the highest version stored for name, 0 when there is none.
func (s *SchemaDefinitionStore) MaxVersion(ctx context.Context, name string) (int, error) {
	queryString, args, err := sq.Select("COALESCE(MAX(version), 0)").From(s.GetTable()).Where(sq.Eq{"name": name}).ToSql()
	if err != nil {
		return 0, ErrorSqlBuild(err)
	}

	var res int
	if err = s.GetMaster(ctx).QueryRowx(queryString, args...).Scan(&res); err != nil {
		return 0, err
	}
	return res, nil
}

func (s *SchemaDefinitionStore) ListVersions(ctx context.Context, name string) ([]types.SchemaDefinition, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"name": name}).OrderBy("version DESC")

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.SchemaDefinition
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *SchemaDefinitionStore) List(ctx context.Context, opts types.ListSchemaDefinitionOptions, page, pageSize uint64) ([]types.SchemaDefinition, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("name ASC", "version DESC")
	if page != 0 || pageSize != 0 {
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}

	opts.Apply(&query)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.SchemaDefinition
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *SchemaDefinitionStore) Total(ctx context.Context, opts types.ListSchemaDefinitionOptions) (int64, error) {
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

func (s *SchemaDefinitionStore) Update(ctx context.Context, id int64, description string, structure types.Relationships) error {
	query := sq.Update(s.GetTable()).
		Set("description", description).
		Set("structure", structure).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// Delete removes one version, later versions keep a NULL parent_id.
func (s *SchemaDefinitionStore) Delete(ctx context.Context, id int64) error {
	queryString, args, err := sq.Delete(s.GetTable()).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}
